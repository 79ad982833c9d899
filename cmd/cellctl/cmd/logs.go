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
	"io"
	"strings"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

var (
	logsFollow bool
	logsTail   int64
)

var logsCmd = &cobra.Command{
	Use:   "logs <mission-name>",
	Short: "View logs from a Mission's entrypoint Cell",
	Long: `View the logs from the pod backing a Mission's entrypoint Cell.

Examples:
  cellctl logs my-mission
  cellctl logs my-mission -f
  cellctl logs my-mission --tail 100`,
	Args: cobra.ExactArgs(1),
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().Int64Var(&logsTail, "tail", -1, "Lines from end")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	missionName := args[0]

	mission := &cellforgev1alpha1.Mission{}
	if err := k8sClient.Get(ctx, client.ObjectKey{
		Namespace: getNamespace(),
		Name:      missionName,
	}, mission); err != nil {
		return fmt.Errorf("failed to get mission: %w", err)
	}

	cell := &cellforgev1alpha1.Cell{}
	if err := k8sClient.Get(ctx, client.ObjectKey{
		Namespace: mission.Namespace,
		Name:      mission.Spec.Entrypoint.Cell,
	}, cell); err != nil {
		return fmt.Errorf("failed to get entrypoint cell: %w", err)
	}

	if cell.Status.PodName == "" {
		return fmt.Errorf("cell has no associated pod (phase: %s)", cell.Status.Phase)
	}

	opts := &corev1.PodLogOptions{
		Container: "agent",
		Follow:    logsFollow,
	}
	if logsTail > 0 {
		opts.TailLines = &logsTail
	}

	req := clientset.CoreV1().Pods(getNamespace()).GetLogs(cell.Status.PodName, opts)
	stream, err := req.Stream(ctx)
	if err != nil {
		return fmt.Errorf("failed to get logs: %w", err)
	}
	defer func() { _ = stream.Close() }()

	reader := bufio.NewReader(stream)

	if outputFormat == "json" {
		var sb strings.Builder
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					sb.WriteString(line)
					break
				}
				return fmt.Errorf("error reading logs: %w", err)
			}
			sb.WriteString(line)
		}
		data, _ := json.MarshalIndent(map[string]string{"mission": missionName, "logs": sb.String()}, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("error reading logs: %w", err)
		}
		fmt.Print(line)
	}

	return nil
}
