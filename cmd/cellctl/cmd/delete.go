/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

var (
	deleteForce     bool
	deleteAll       bool
	deleteFormation bool
)

var deleteCmd = &cobra.Command{
	Use:     "delete <mission-name>",
	Aliases: []string{"rm"},
	Short:   "Delete a Mission",
	Long: `Delete a Mission and, by default, the Formation it was spawned with.

Examples:
  cellctl delete my-mission
  cellctl delete my-mission --force
  cellctl delete my-mission --keep-formation
  cellctl delete --all`,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation")
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "Delete all missions")
	deleteCmd.Flags().BoolVar(&deleteFormation, "keep-formation", false, "Leave the Mission's Formation in place")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if deleteAll {
		return deleteAllMissions(ctx)
	}

	if len(args) == 0 {
		return fmt.Errorf("mission name required (or use --all)")
	}

	return deleteMission(ctx, args[0])
}

// deleteFormationBestEffort deletes the named Formation, swallowing
// not-found errors since spawn always creates a Formation alongside its
// Mission but a manually-created Mission may reference one that outlives it.
func deleteFormationBestEffort(ctx context.Context, name string) {
	if name == "" {
		return
	}
	formation := &cellforgev1alpha1.Formation{}
	if err := k8sClient.Get(ctx, client.ObjectKey{Namespace: getNamespace(), Name: name}, formation); err != nil {
		if !apierrors.IsNotFound(err) {
			fmt.Printf("✗ Failed to look up formation '%s': %v\n", name, err)
		}
		return
	}
	if err := k8sClient.Delete(ctx, formation); err != nil && !apierrors.IsNotFound(err) {
		fmt.Printf("✗ Failed to delete formation '%s': %v\n", name, err)
		return
	}
	fmt.Printf("✓ Deleted formation '%s'\n", name)
}

func deleteMission(ctx context.Context, name string) error {
	mission := &cellforgev1alpha1.Mission{}
	if err := k8sClient.Get(ctx, client.ObjectKey{
		Namespace: getNamespace(),
		Name:      name,
	}, mission); err != nil {
		return fmt.Errorf("failed to get mission: %w", err)
	}

	if !deleteForce {
		fmt.Printf("Delete mission '%s'? [y/N]: ", name)
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	formationRef := mission.Spec.FormationRef

	if err := k8sClient.Delete(ctx, mission); err != nil {
		return fmt.Errorf("failed to delete mission: %w", err)
	}

	if !deleteFormation {
		deleteFormationBestEffort(ctx, formationRef)
	}

	if outputFormat == "json" {
		data, _ := json.MarshalIndent(map[string]string{"mission": name, "status": "deleted"}, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("✓ Mission '%s' deleted\n", name)
	return nil
}

func deleteAllMissions(ctx context.Context) error {
	missionList := &cellforgev1alpha1.MissionList{}
	if err := k8sClient.List(ctx, missionList, client.InNamespace(getNamespace())); err != nil {
		return fmt.Errorf("failed to list missions: %w", err)
	}

	if len(missionList.Items) == 0 {
		fmt.Printf("No missions found in namespace '%s'\n", getNamespace())
		return nil
	}

	if !deleteForce {
		fmt.Printf("Delete all %d missions in namespace '%s'? [y/N]: ", len(missionList.Items), getNamespace())
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	for _, mission := range missionList.Items {
		if err := k8sClient.Delete(ctx, &mission); err != nil {
			fmt.Printf("✗ Failed to delete '%s': %v\n", mission.Name, err)
			continue
		}
		fmt.Printf("✓ Deleted '%s'\n", mission.Name)
		if !deleteFormation {
			deleteFormationBestEffort(ctx, mission.Spec.FormationRef)
		}
	}

	return nil
}
