/*
Copyright (c) 2026 GeneClackman
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

var treeCmd = &cobra.Command{
	Use:   "tree <cell-name>",
	Short: "Display Cell hierarchy as a tree",
	Long: `Display a Cell and all its spawned descendants as an ASCII tree.

Examples:
  cellctl tree fix-api-0
  cellctl tree fix-api-0 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

type treeNode struct {
	Name        string      `json:"name"`
	SpawnPolicy string      `json:"spawnPolicy,omitempty"`
	Phase       string      `json:"phase"`
	Age         string      `json:"age"`
	Children    []*treeNode `json:"children,omitempty"`
}

func runTree(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cellName := args[0]

	root := &cellforgev1alpha1.Cell{}
	if err := k8sClient.Get(ctx, client.ObjectKey{
		Namespace: getNamespace(),
		Name:      cellName,
	}, root); err != nil {
		return fmt.Errorf("failed to get cell: %w", err)
	}

	cellList := &cellforgev1alpha1.CellList{}
	if err := k8sClient.List(ctx, cellList, client.InNamespace(getNamespace())); err != nil {
		return fmt.Errorf("failed to list cells: %w", err)
	}

	childMap := make(map[string][]cellforgev1alpha1.Cell)
	for _, c := range cellList.Items {
		if c.Spec.ParentRef != "" {
			childMap[c.Spec.ParentRef] = append(childMap[c.Spec.ParentRef], c)
		}
	}

	node := buildTreeNode(root, childMap)

	if outputFormat == "json" {
		data, err := json.MarshalIndent(node, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	printTreeNode(node)
	return nil
}

func buildTreeNode(cell *cellforgev1alpha1.Cell, childMap map[string][]cellforgev1alpha1.Cell) *treeNode {
	node := &treeNode{
		Name:        cell.Name,
		SpawnPolicy: string(cell.Spec.Recursion.SpawnPolicy),
		Phase:       string(cell.Status.Phase),
		Age:         time.Since(cell.CreationTimestamp.Time).Round(time.Second).String(),
	}
	for _, child := range childMap[cell.Name] {
		c := child
		node.Children = append(node.Children, buildTreeNode(&c, childMap))
	}
	return node
}

func nodeLabel(node *treeNode) string {
	return fmt.Sprintf("%s (%s, %s, %s)", node.Name, node.SpawnPolicy, node.Phase, node.Age)
}

func printTreeNode(node *treeNode) {
	fmt.Println(nodeLabel(node))
	printSubTree(node, "")
}

func printSubTree(node *treeNode, prefix string) {
	for i, child := range node.Children {
		isLast := i == len(node.Children)-1
		var connector, childPrefix string
		if isLast {
			connector = "└── "
			childPrefix = "    "
		} else {
			connector = "├── "
			childPrefix = "│   "
		}

		fmt.Printf("%s%s%s\n", prefix, connector, nodeLabel(child))

		if len(child.Children) > 0 {
			printSubTree(child, prefix+childPrefix)
		}
	}
}
