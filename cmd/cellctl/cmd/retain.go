/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

/*
The retain command lets a Cell mark its Formation's shared workspace PVC for
retention after the Formation completes. By default the operator
garbage-collects a Formation's workspace when it finishes. Running
`cellctl retain` patches an annotation on the Formation, telling the
operator to keep the PVC around for debugging or artifact retrieval.

Usage inside a Cell's pod:

	cellctl retain
	cellctl retain --reason "contains training artifacts"
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

var retainCmd = &cobra.Command{
	Use:   "retain",
	Short: "Mark the Formation's workspace PVC for retention after completion",
	Long: `Retain patches the Formation with annotation
cellforge.hortator.ai/retain-workspace=true, preventing the operator from
garbage-collecting the shared workspace PVC when the Formation completes.

This is useful when Cells produce large artifacts that need to be inspected
or copied out after the Mission finishes.

Examples:
  # Retain workspace with default reason
  cellctl retain

  # Retain with a reason annotation
  cellctl retain --reason "contains training checkpoints"`,
	RunE: runRetain,
}

var retainReason string

func init() {
	retainCmd.Flags().StringVar(&retainReason, "reason", "", "Optional reason for retaining the workspace")
	rootCmd.AddCommand(retainCmd)
}

func runRetain(cmd *cobra.Command, args []string) error {
	formationName := os.Getenv("CELLFORGE_FORMATION_NAME")
	formationNamespace := os.Getenv("CELLFORGE_FORMATION_NAMESPACE")

	if formationName == "" {
		return fmt.Errorf("CELLFORGE_FORMATION_NAME not set (are you running inside a CellForge cell pod?)")
	}
	if formationNamespace == "" {
		formationNamespace = getNamespace()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	formation := &cellforgev1alpha1.Formation{}
	if err := k8sClient.Get(ctx, client.ObjectKey{
		Namespace: formationNamespace,
		Name:      formationName,
	}, formation); err != nil {
		return fmt.Errorf("failed to get Formation %s/%s: %w", formationNamespace, formationName, err)
	}

	if formation.Annotations == nil {
		formation.Annotations = map[string]string{}
	}
	formation.Annotations["cellforge.hortator.ai/retain-workspace"] = "true"
	if retainReason != "" {
		formation.Annotations["cellforge.hortator.ai/retain-reason"] = retainReason
	}

	if err := k8sClient.Update(ctx, formation); err != nil {
		return fmt.Errorf("failed to update Formation annotations: %w", err)
	}

	fmt.Printf("[cellctl] Marked workspace for retention on %s/%s\n", formationNamespace, formationName)
	if retainReason != "" {
		fmt.Printf("[cellctl] Reason: %s\n", retainReason)
	}
	return nil
}
