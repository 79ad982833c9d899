/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

/*
The report command lets a Cell publish its result onto the message bus at
its own outbox subject. This is the primary mechanism for returning Mission
results — no stdout parsing, no file scraping, just a bus publish that the
Mission's busResponse completion check is already watching.

The agent's runtime calls:

	cellctl report --result "Here's what I built" --tokens-in 500 --tokens-out 2000

This publishes to cell.<namespace>.<cell>.outbox and also patches the Cell's
status with the result message and token usage, so `cellctl status`/`watch`
reflect it even before the Mission reconciler observes the bus.

Artifacts (code files, patches, etc.) stay on the Formation's workspace PVC
at /outbox/artifacts/. The --artifacts flag records their paths in the Cell's
annotations for discoverability.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/bus"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report a Cell's result onto the message bus",
	Long: `Report publishes the Cell's result and token usage to its outbox
subject on the message bus, and mirrors them onto the Cell's status for
observability.

This is the standard way for a Cell to return a Mission result. The
Mission's busResponse completion check is already subscribed to the
Cell's outbox subject and picks up the publish instantly.

Large artifacts (code, patches, reports) should be written to
/outbox/artifacts/ on the Formation's workspace PVC. Use --artifacts to
record their paths.

Examples:
  # Report a simple text result
  cellctl report --result "The answer is 42"

  # Report with token usage
  cellctl report --result "Built the handler" --tokens-in 500 --tokens-out 2000

  # Report with artifact references
  cellctl report --result "Implemented REST API" \
    --artifacts "artifacts/handler.go,artifacts/handler_test.go" \
    --tokens-in 1200 --tokens-out 3500`,
	RunE: runReport,
}

var (
	reportResult    string
	reportTokensIn  int64
	reportTokensOut int64
	reportArtifacts string
)

func init() {
	reportCmd.Flags().StringVar(&reportResult, "result", "", "Result summary text")
	reportCmd.Flags().Int64Var(&reportTokensIn, "tokens-in", 0, "Input tokens consumed")
	reportCmd.Flags().Int64Var(&reportTokensOut, "tokens-out", 0, "Output tokens consumed")
	reportCmd.Flags().StringVar(&reportArtifacts, "artifacts", "", "Comma-separated artifact paths (relative to /outbox/)")
	_ = reportCmd.MarkFlagRequired("result")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cellName := os.Getenv("CELLFORGE_CELL_NAME")
	cellNamespace := os.Getenv("CELLFORGE_CELL_NAMESPACE")
	busURL := os.Getenv("CELLFORGE_BUS_URL")

	if cellName == "" {
		return fmt.Errorf("CELLFORGE_CELL_NAME not set (are you running inside a CellForge cell pod?)")
	}
	if cellNamespace == "" {
		cellNamespace = getNamespace()
	}
	if busURL == "" {
		return fmt.Errorf("CELLFORGE_BUS_URL not set (are you running inside a CellForge cell pod?)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	busClient, err := bus.Dial(busURL, os.Getenv("CELLFORGE_BUS_USER"), os.Getenv("CELLFORGE_BUS_PASSWORD"))
	if err != nil {
		return fmt.Errorf("failed to connect to bus: %w", err)
	}
	defer busClient.Close()

	env, err := bus.NewMessage(cellName, "mission", reportResult)
	if err != nil {
		return fmt.Errorf("failed to build envelope: %w", err)
	}

	subject := bus.OutboxSubject(cellNamespace, cellName)
	if err := busClient.Publish(ctx, subject, env); err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}

	cell := &cellforgev1alpha1.Cell{}
	if err := k8sClient.Get(ctx, client.ObjectKey{
		Namespace: cellNamespace,
		Name:      cellName,
	}, cell); err != nil {
		return fmt.Errorf("failed to get Cell %s/%s: %w", cellNamespace, cellName, err)
	}

	cell.Status.Message = reportResult
	if reportTokensIn > 0 || reportTokensOut > 0 {
		cell.Status.TotalTokens = &cellforgev1alpha1.TokenUsage{
			Input:  reportTokensIn,
			Output: reportTokensOut,
		}
	}
	now := metav1.NewTime(time.Now())
	cell.Status.LastActive = &now

	if reportArtifacts != "" {
		if cell.Annotations == nil {
			cell.Annotations = map[string]string{}
		}
		cell.Annotations["cellforge.hortator.ai/artifacts"] = reportArtifacts
		if err := k8sClient.Update(ctx, cell); err != nil {
			return fmt.Errorf("failed to update cell annotations: %w", err)
		}
		if err := k8sClient.Get(ctx, client.ObjectKey{
			Namespace: cellNamespace,
			Name:      cellName,
		}, cell); err != nil {
			return fmt.Errorf("failed to re-fetch Cell: %w", err)
		}
		cell.Status.Message = reportResult
		if reportTokensIn > 0 || reportTokensOut > 0 {
			cell.Status.TotalTokens = &cellforgev1alpha1.TokenUsage{
				Input:  reportTokensIn,
				Output: reportTokensOut,
			}
		}
		cell.Status.LastActive = &now
	}

	if err := k8sClient.Status().Update(ctx, cell); err != nil {
		return fmt.Errorf("failed to update Cell status: %w", err)
	}

	var artifactList []string
	if reportArtifacts != "" {
		artifactList = strings.Split(reportArtifacts, ",")
	}

	fmt.Printf("[cellctl] Reported result on %s (tokens: %d in, %d out, %d artifacts)\n",
		subject, reportTokensIn, reportTokensOut, len(artifactList))
	return nil
}
