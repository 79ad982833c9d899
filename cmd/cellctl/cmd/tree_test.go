/*
Copyright (c) 2026 GeneClackman
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

func TestBuildTreeNode(t *testing.T) {
	root := &cellforgev1alpha1.Cell{
		ObjectMeta: metav1.ObjectMeta{Name: "root"},
		Spec:       cellforgev1alpha1.CellSpec{Recursion: cellforgev1alpha1.RecursionSpec{SpawnPolicy: cellforgev1alpha1.SpawnPolicyOpen}},
		Status:     cellforgev1alpha1.CellStatus{Phase: cellforgev1alpha1.CellPhaseRunning},
	}
	childA := cellforgev1alpha1.Cell{
		ObjectMeta: metav1.ObjectMeta{Name: "child-a"},
		Spec: cellforgev1alpha1.CellSpec{
			ParentRef: "root",
			Recursion: cellforgev1alpha1.RecursionSpec{SpawnPolicy: cellforgev1alpha1.SpawnPolicyApprovalRequired},
		},
		Status: cellforgev1alpha1.CellStatus{Phase: cellforgev1alpha1.CellPhaseCompleted},
	}
	grandchild := cellforgev1alpha1.Cell{
		ObjectMeta: metav1.ObjectMeta{Name: "grandchild"},
		Spec:       cellforgev1alpha1.CellSpec{ParentRef: "child-a"},
		Status:     cellforgev1alpha1.CellStatus{Phase: cellforgev1alpha1.CellPhasePending},
	}

	childMap := map[string][]cellforgev1alpha1.Cell{
		"root":    {childA},
		"child-a": {grandchild},
	}

	node := buildTreeNode(root, childMap)

	if node.Name != "root" {
		t.Fatalf("node.Name = %q, want root", node.Name)
	}
	if len(node.Children) != 1 {
		t.Fatalf("len(node.Children) = %d, want 1", len(node.Children))
	}
	if node.Children[0].Name != "child-a" {
		t.Errorf("node.Children[0].Name = %q, want child-a", node.Children[0].Name)
	}
	if len(node.Children[0].Children) != 1 || node.Children[0].Children[0].Name != "grandchild" {
		t.Errorf("expected child-a to have one child named grandchild, got %+v", node.Children[0].Children)
	}
}

func TestBuildTreeNode_NoChildren(t *testing.T) {
	leaf := &cellforgev1alpha1.Cell{
		ObjectMeta: metav1.ObjectMeta{Name: "leaf"},
		Status:     cellforgev1alpha1.CellStatus{Phase: cellforgev1alpha1.CellPhaseFailed},
	}
	node := buildTreeNode(leaf, map[string][]cellforgev1alpha1.Cell{})
	if len(node.Children) != 0 {
		t.Errorf("expected no children, got %d", len(node.Children))
	}
	if node.Phase != "Failed" {
		t.Errorf("node.Phase = %q, want Failed", node.Phase)
	}
}

func TestNodeLabel(t *testing.T) {
	node := &treeNode{Name: "worker-1", SpawnPolicy: "open", Phase: "Running", Age: "5m0s"}
	want := "worker-1 (open, Running, 5m0s)"
	if got := nodeLabel(node); got != want {
		t.Errorf("nodeLabel() = %q, want %q", got, want)
	}
}
