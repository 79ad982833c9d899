/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

var blueprintsCapability string

var blueprintsCmd = &cobra.Command{
	Use:   "blueprints",
	Short: "Manage Cell blueprints",
}

var blueprintsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List Blueprints",
	Long: `List Blueprints in the namespace.

Examples:
  cellctl blueprints list
  cellctl blueprints list --capability shell,spawn
  cellctl blueprints list --json`,
	RunE: runBlueprintsList,
}

var blueprintsDescribeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Describe a Blueprint",
	Long: `Show full details for a single Blueprint.

Examples:
  cellctl blueprints describe endpoint-coder
  cellctl blueprints describe endpoint-coder --json`,
	Args: cobra.ExactArgs(1),
	RunE: runBlueprintsDescribe,
}

func init() {
	blueprintsListCmd.Flags().StringVar(&blueprintsCapability, "capability", "", "Filter by tools (comma-separated, blueprint must have ALL)")
	blueprintsCmd.AddCommand(blueprintsListCmd)
	blueprintsCmd.AddCommand(blueprintsDescribeCmd)
	rootCmd.AddCommand(blueprintsCmd)
}

// blueprintEntry is a flattened view of a Blueprint's template for display.
type blueprintEntry struct {
	Name        string   `json:"name"`
	Namespace   string   `json:"namespace,omitempty"`
	Provider    string   `json:"provider,omitempty"`
	Model       string   `json:"model,omitempty"`
	Description string   `json:"description,omitempty"`
	Tools       []string `json:"tools,omitempty"`
	SpawnPolicy string   `json:"spawnPolicy,omitempty"`
}

func toBlueprintEntry(b cellforgev1alpha1.Blueprint) blueprintEntry {
	var tools []string
	for _, t := range b.Spec.Template.Tools {
		tools = append(tools, t.Name)
	}
	return blueprintEntry{
		Name:        b.Name,
		Namespace:   b.Namespace,
		Provider:    b.Spec.Template.Mind.Provider,
		Model:       b.Spec.Template.Mind.Model,
		Description: b.Spec.Description,
		Tools:       tools,
		SpawnPolicy: string(b.Spec.Template.Recursion.SpawnPolicy),
	}
}

func runBlueprintsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	blueprintList := &cellforgev1alpha1.BlueprintList{}
	if err := k8sClient.List(ctx, blueprintList, client.InNamespace(getNamespace())); err != nil {
		return fmt.Errorf("failed to list blueprints: %w", err)
	}

	var entries []blueprintEntry
	for _, b := range blueprintList.Items {
		entries = append(entries, toBlueprintEntry(b))
	}

	if blueprintsCapability != "" {
		required := strings.Split(blueprintsCapability, ",")
		var filtered []blueprintEntry
		for _, e := range entries {
			if hasAllTools(e.Tools, required) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No blueprints found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tMODEL\tSPAWN POLICY\tDESCRIPTION")
	for _, e := range entries {
		desc := e.Description
		if len(desc) > 60 {
			desc = desc[:57] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Model, e.SpawnPolicy, desc)
	}
	return w.Flush()
}

func runBlueprintsDescribe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name := args[0]

	blueprint := &cellforgev1alpha1.Blueprint{}
	if err := k8sClient.Get(ctx, types.NamespacedName{Name: name, Namespace: getNamespace()}, blueprint); err != nil {
		if apierrors.IsNotFound(err) {
			return fmt.Errorf("blueprint %q not found", name)
		}
		return fmt.Errorf("failed to get blueprint: %w", err)
	}
	entry := toBlueprintEntry(*blueprint)

	if outputFormat == "json" {
		data, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Name:        %s\n", entry.Name)
	fmt.Printf("Namespace:   %s\n", entry.Namespace)
	if entry.Provider != "" {
		fmt.Printf("Provider:    %s\n", entry.Provider)
	}
	if entry.Model != "" {
		fmt.Printf("Model:       %s\n", entry.Model)
	}
	if entry.SpawnPolicy != "" {
		fmt.Printf("SpawnPolicy: %s\n", entry.SpawnPolicy)
	}
	if entry.Description != "" {
		fmt.Printf("Description: %s\n", entry.Description)
	}

	if len(entry.Tools) > 0 {
		fmt.Println("\nTools:")
		for _, t := range entry.Tools {
			fmt.Printf("  - %s\n", t)
		}
	}

	return nil
}

func hasAllTools(tools []string, required []string) bool {
	set := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		set[t] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[strings.TrimSpace(r)]; !ok {
			return false
		}
	}
	return true
}
