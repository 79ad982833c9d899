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

var statusCmd = &cobra.Command{
	Use:   "status [mission-name]",
	Short: "Get status of a Mission",
	Long: `Get the current status of a Mission.

Examples:
  cellctl status my-mission
  cellctl status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) > 0 {
		return showMissionStatus(ctx, args[0])
	}
	return showAllMissions(ctx)
}

// entrypointPodName resolves the pod backing a Mission's entrypoint Cell,
// returning "" if the Cell cannot be found.
func entrypointPodName(ctx context.Context, namespace, cellName string) string {
	if cellName == "" {
		return ""
	}
	cell := &cellforgev1alpha1.Cell{}
	if err := k8sClient.Get(ctx, client.ObjectKey{Namespace: namespace, Name: cellName}, cell); err != nil {
		return ""
	}
	return cell.Status.PodName
}

func showMissionStatus(ctx context.Context, name string) error {
	mission := &cellforgev1alpha1.Mission{}
	if err := k8sClient.Get(ctx, client.ObjectKey{
		Namespace: getNamespace(),
		Name:      name,
	}, mission); err != nil {
		return fmt.Errorf("failed to get mission: %w", err)
	}

	pod := entrypointPodName(ctx, mission.Namespace, mission.Spec.Entrypoint.Cell)

	if outputFormat == "json" {
		result := map[string]interface{}{
			"name":      mission.Name,
			"namespace": mission.Namespace,
			"phase":     mission.Status.Phase,
			"message":   mission.Status.Message,
			"cell":      mission.Spec.Entrypoint.Cell,
			"pod":       pod,
			"objective": mission.Spec.Objective,
			"attempt":   mission.Status.Attempt,
		}
		if mission.Status.StartedAt != nil {
			result["startedAt"] = mission.Status.StartedAt.Time
		}
		if mission.Status.Cost != "" {
			result["cost"] = mission.Status.Cost
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Name:       %s\n", mission.Name)
	fmt.Printf("Namespace:  %s\n", mission.Namespace)
	fmt.Printf("Phase:      %s\n", mission.Status.Phase)
	fmt.Printf("Message:    %s\n", mission.Status.Message)
	fmt.Printf("Cell:       %s\n", mission.Spec.Entrypoint.Cell)
	fmt.Printf("Pod:        %s\n", pod)

	if mission.Status.StartedAt != nil {
		fmt.Printf("Started:    %s\n", mission.Status.StartedAt.Format(time.RFC3339))
	}
	if mission.Status.Cost != "" {
		fmt.Printf("Cost:       $%s\n", mission.Status.Cost)
	}

	fmt.Println("\nSpec:")
	fmt.Printf("  Objective:    %s\n", truncate(mission.Spec.Objective, 60))
	fmt.Printf("  Formation:    %s\n", mission.Spec.FormationRef)
	fmt.Printf("  Max attempts: %d\n", mission.Spec.Completion.MaxAttempts)
	fmt.Printf("  Timeout:      %s\n", mission.Spec.Completion.Timeout)
	if mission.Spec.Budget != "" {
		fmt.Printf("  Budget:       $%s\n", mission.Spec.Budget)
	}

	return nil
}

func showAllMissions(ctx context.Context) error {
	missionList := &cellforgev1alpha1.MissionList{}
	if err := k8sClient.List(ctx, missionList, client.InNamespace(getNamespace())); err != nil {
		return fmt.Errorf("failed to list missions: %w", err)
	}

	if outputFormat == "json" {
		var items []map[string]interface{}
		for _, m := range missionList.Items {
			item := map[string]interface{}{
				"name":    m.Name,
				"phase":   m.Status.Phase,
				"age":     time.Since(m.CreationTimestamp.Time).Round(time.Second).String(),
				"cell":    m.Spec.Entrypoint.Cell,
				"message": m.Status.Message,
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
		fmt.Printf("No missions found in namespace '%s'\n", getNamespace())
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tPHASE\tAGE\tCELL\tMESSAGE")

	for _, m := range missionList.Items {
		age := time.Since(m.CreationTimestamp.Time).Round(time.Second)
		message := truncate(m.Status.Message, 40)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			m.Name, m.Status.Phase, age, m.Spec.Entrypoint.Cell, message)
	}

	return w.Flush()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
