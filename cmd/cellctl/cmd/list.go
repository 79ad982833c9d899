/*
Copyright (c) 2026 GeneClackman
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

var (
	listAllNamespaces bool
	listPhase         string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List Missions",
	Long: `List Missions in the cluster.

Examples:
  cellctl list
  cellctl list -A
  cellctl list --phase Running
  cellctl list --json`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listAllNamespaces, "all-namespaces", "A", false, "All namespaces")
	listCmd.Flags().StringVar(&listPhase, "phase", "", "Filter by phase")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	missionList := &cellforgev1alpha1.MissionList{}

	var listOpts []client.ListOption
	if !listAllNamespaces {
		listOpts = append(listOpts, client.InNamespace(getNamespace()))
	}

	if err := k8sClient.List(ctx, missionList, listOpts...); err != nil {
		return fmt.Errorf("failed to list missions: %w", err)
	}

	if listPhase != "" {
		var filtered []cellforgev1alpha1.Mission
		for _, m := range missionList.Items {
			if string(m.Status.Phase) == listPhase {
				filtered = append(filtered, m)
			}
		}
		missionList.Items = filtered
	}

	if outputFormat == "json" {
		var items []map[string]interface{}
		for _, m := range missionList.Items {
			item := map[string]interface{}{
				"name":      m.Name,
				"namespace": m.Namespace,
				"phase":     m.Status.Phase,
				"age":       time.Since(m.CreationTimestamp.Time).Round(time.Second).String(),
				"cell":      m.Spec.Entrypoint.Cell,
			}
			if m.Status.Cost != "" {
				item["cost"] = m.Status.Cost
			}
			items = append(items, item)
		}
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(missionList.Items) == 0 {
		if listAllNamespaces {
			fmt.Println("No missions found")
		} else {
			fmt.Printf("No missions found in namespace '%s'\n", getNamespace())
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	if listAllNamespaces {
		_, _ = fmt.Fprintln(w, "NAMESPACE\tNAME\tPHASE\tAGE\tCELL\tCOST")
		for _, m := range missionList.Items {
			age := time.Since(m.CreationTimestamp.Time).Round(time.Second)
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				m.Namespace, m.Name, m.Status.Phase, age, m.Spec.Entrypoint.Cell, m.Status.Cost)
		}
	} else {
		_, _ = fmt.Fprintln(w, "NAME\tPHASE\tAGE\tCELL\tCOST")
		for _, m := range missionList.Items {
			age := time.Since(m.CreationTimestamp.Time).Round(time.Second)
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				m.Name, m.Status.Phase, age, m.Spec.Entrypoint.Cell, m.Status.Cost)
		}
	}

	return w.Flush()
}
