/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/bus"
)

var (
	spawnPrompt      string
	spawnTools       []string
	spawnTimeout     string
	spawnImage       string
	spawnProvider    string
	spawnModel       string
	spawnName        string
	spawnBlueprint   string
	spawnParent      string
	spawnBudget      string
	spawnWait        bool
	spawnWaitTimeout string
)

var spawnCmd = &cobra.Command{
	Use:   "spawn",
	Short: "Spawn a new Mission",
	Long: `Spawn a new Mission backed by a single-Cell Formation.

Examples:
  cellctl spawn --prompt "Write a hello world in Python"
  cellctl spawn --prompt "Deploy the app" --tools exec,kubernetes
  cellctl spawn --prompt "Run tests" --image myregistry/agent:v1 --timeout 1h
  cellctl spawn --prompt "Quick task" --wait
  cellctl spawn --prompt "Research topic" --blueprint researcher --parent parent-mission-123`,
	RunE: runSpawn,
}

func init() {
	spawnCmd.Flags().StringVarP(&spawnPrompt, "prompt", "p", "", "Mission prompt (required)")
	spawnCmd.Flags().StringSliceVarP(&spawnTools, "tools", "c", nil, "Cell tools")
	spawnCmd.Flags().StringVarP(&spawnTimeout, "timeout", "t", "30m", "Completion timeout")
	spawnCmd.Flags().StringVarP(&spawnImage, "image", "i", "", "Cell container image")
	spawnCmd.Flags().StringVar(&spawnProvider, "provider", "anthropic", "LLM provider")
	spawnCmd.Flags().StringVarP(&spawnModel, "model", "m", "", "LLM model")
	spawnCmd.Flags().StringVar(&spawnName, "name", "", "Mission/Formation name")
	spawnCmd.Flags().StringVar(&spawnBlueprint, "blueprint", "", "Blueprint to spawn descendant Cells from")
	spawnCmd.Flags().StringVar(&spawnParent, "parent", "", "Parent Cell name (establishes hierarchy)")
	spawnCmd.Flags().StringVar(&spawnBudget, "budget", "", "Mission budget, e.g. \"5.00\"")
	spawnCmd.Flags().BoolVarP(&spawnWait, "wait", "w", false, "Wait for completion")
	spawnCmd.Flags().StringVar(&spawnWaitTimeout, "wait-timeout", "1h", "Maximum time to wait when --wait is set")
	_ = spawnCmd.MarkFlagRequired("prompt")
	rootCmd.AddCommand(spawnCmd)
}

// entrypointCellName returns the Cell name a single-replica template named
// formationName expands to, matching the reconciler's "template-index"
// naming convention.
func entrypointCellName(formationName string) string {
	return formationName + "-0"
}

func runSpawn(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	name := spawnName
	if name == "" {
		name = fmt.Sprintf("mission-%d", time.Now().Unix())
	}
	name = strings.ToLower(strings.ReplaceAll(name, " ", "-"))

	timeoutDuration, err := time.ParseDuration(spawnTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	var tools []cellforgev1alpha1.ToolSpec
	for _, t := range spawnTools {
		tools = append(tools, cellforgev1alpha1.ToolSpec{Name: t})
	}

	cellSpec := cellforgev1alpha1.CellSpec{
		Mind: cellforgev1alpha1.MindSpec{
			Provider: spawnProvider,
			Model:    spawnModel,
		},
		Tools:        tools,
		Image:        spawnImage,
		ParentRef:    spawnParent,
		FormationRef: name,
	}
	if spawnBlueprint != "" {
		cellSpec.Recursion.BlueprintRef = spawnBlueprint
	}

	formation := &cellforgev1alpha1.Formation{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: getNamespace(),
		},
		Spec: cellforgev1alpha1.FormationSpec{
			Cells: []cellforgev1alpha1.CellTemplate{
				{Name: name, Replicas: 1, Spec: cellSpec},
			},
			Topology: cellforgev1alpha1.TopologySpec{Kind: cellforgev1alpha1.TopologyFullMesh},
		},
	}

	if err := k8sClient.Create(ctx, formation); err != nil {
		return fmt.Errorf("failed to create formation: %w", err)
	}

	cell := entrypointCellName(name)

	mission := &cellforgev1alpha1.Mission{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: getNamespace(),
		},
		Spec: cellforgev1alpha1.MissionSpec{
			FormationRef: name,
			Objective:    spawnPrompt,
			Entrypoint: cellforgev1alpha1.EntrypointSpec{
				Cell:    cell,
				Message: spawnPrompt,
			},
			Completion: cellforgev1alpha1.CompletionSpec{
				Checks: []cellforgev1alpha1.CheckSpec{
					{
						Name:           "response",
						Type:           "busResponse",
						Subject:        bus.OutboxSubject(getNamespace(), cell),
						TimeoutSeconds: int(timeoutDuration.Seconds()),
					},
				},
				MaxAttempts: 1,
				Timeout:     spawnTimeout,
			},
			Budget: spawnBudget,
		},
	}

	if err := k8sClient.Create(ctx, mission); err != nil {
		return fmt.Errorf("failed to create mission: %w", err)
	}

	if outputFormat == "json" {
		data, _ := json.MarshalIndent(map[string]string{"name": name, "mission": name, "formation": name, "namespace": getNamespace()}, "", "  ")
		fmt.Println(string(data))
		if spawnWait {
			return waitForMission(ctx, name)
		}
		return nil
	}

	fmt.Printf("✓ Mission '%s' created in namespace '%s'\n", name, getNamespace())

	if !spawnWait {
		fmt.Printf("\nUse 'cellctl status %s' to check progress\n", name)
		return nil
	}

	waitDuration, err := time.ParseDuration(spawnWaitTimeout)
	if err != nil {
		return fmt.Errorf("invalid wait-timeout: %w", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, waitDuration)
	defer cancel()

	fmt.Println("\nWaiting for mission completion...")
	return waitForMission(waitCtx, name)
}

func waitForMission(ctx context.Context, name string) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait timed out (mission may still be running)")
		case <-ticker.C:
			mission := &cellforgev1alpha1.Mission{}
			if err := k8sClient.Get(ctx, client.ObjectKey{
				Namespace: getNamespace(),
				Name:      name,
			}, mission); err != nil {
				return fmt.Errorf("failed to get mission: %w", err)
			}

			switch mission.Status.Phase {
			case cellforgev1alpha1.MissionPhaseSucceeded:
				fmt.Printf("✓ Mission succeeded\n")
				if out := missionOutput(mission); out != "" {
					fmt.Printf("\nOutput:\n%s\n", out)
				}
				return nil
			case cellforgev1alpha1.MissionPhaseFailed:
				return fmt.Errorf("mission failed: %s", mission.Status.Message)
			case cellforgev1alpha1.MissionPhaseRunning:
				fmt.Printf("  Running... (attempt %d)\n", mission.Status.Attempt)
			case cellforgev1alpha1.MissionPhasePending:
				fmt.Println("  Pending...")
			}
		}
	}
}
