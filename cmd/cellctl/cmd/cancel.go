/*
Copyright (c) 2026 GeneClackman
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

var cancelForce bool

var cancelCmd = &cobra.Command{
	Use:   "cancel <mission-name>",
	Short: "Cancel a pending or running Mission",
	Long: `Cancel a Mission by deleting it.

Mission has no Cancelled phase of its own, so cancellation removes the
Mission object outright. Missions already in a terminal state (Succeeded,
Failed) will return an error instead.

Examples:
  cellctl cancel my-mission
  cellctl cancel my-mission --force`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func init() {
	cancelCmd.Flags().BoolVarP(&cancelForce, "force", "f", false, "Also delete the associated pod immediately")
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name := args[0]

	mission := &cellforgev1alpha1.Mission{}
	if err := k8sClient.Get(ctx, client.ObjectKey{
		Namespace: getNamespace(),
		Name:      name,
	}, mission); err != nil {
		return fmt.Errorf("failed to get mission: %w", err)
	}

	if isTerminalMissionPhase(mission.Status.Phase) {
		return fmt.Errorf("mission already in terminal state: %s", mission.Status.Phase)
	}

	podName := entrypointPodName(ctx, mission.Namespace, mission.Spec.Entrypoint.Cell)

	if err := k8sClient.Delete(ctx, mission); err != nil {
		return fmt.Errorf("failed to delete mission: %w", err)
	}

	if outputFormat == "json" {
		data, _ := json.MarshalIndent(map[string]string{"mission": name, "status": "cancelled"}, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("✓ Mission '%s' cancelled\n", name)

	if cancelForce && podName != "" {
		pod := &corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Namespace: getNamespace(),
				Name:      podName,
			},
		}
		if err := k8sClient.Delete(ctx, pod); err != nil {
			fmt.Printf("⚠ Failed to delete pod '%s': %v\n", podName, err)
		} else {
			fmt.Printf("✓ Pod '%s' deleted\n", podName)
		}
	}

	return nil
}
