/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package celltree

import (
	"context"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

func newTestScheme() *runtime.Scheme {
	s := runtime.NewScheme()
	_ = cellforgev1alpha1.AddToScheme(s)
	return s
}

func cell(ns, name, parent string, phase cellforgev1alpha1.CellPhase) *cellforgev1alpha1.Cell {
	return &cellforgev1alpha1.Cell{
		ObjectMeta: metav1.ObjectMeta{Namespace: ns, Name: name},
		Spec:       cellforgev1alpha1.CellSpec{ParentRef: parent},
		Status:     cellforgev1alpha1.CellStatus{Phase: phase},
	}
}

func TestRoot(t *testing.T) {
	scheme := newTestScheme()
	root := cell("ns", "root", "", cellforgev1alpha1.CellPhaseRunning)
	mid := cell("ns", "mid", "root", cellforgev1alpha1.CellPhaseRunning)
	leaf := cell("ns", "leaf", "mid", cellforgev1alpha1.CellPhaseRunning)
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(root, mid, leaf).Build()

	got, err := Root(context.Background(), fc, "ns", "leaf")
	if err != nil {
		t.Fatalf("Root() error: %v", err)
	}
	if got.Name != "root" {
		t.Errorf("Root() = %q, want root", got.Name)
	}
}

func TestRootOfRootItself(t *testing.T) {
	scheme := newTestScheme()
	root := cell("ns", "root", "", cellforgev1alpha1.CellPhaseRunning)
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(root).Build()

	got, err := Root(context.Background(), fc, "ns", "root")
	if err != nil {
		t.Fatalf("Root() error: %v", err)
	}
	if got.Name != "root" {
		t.Errorf("Root() = %q, want root", got.Name)
	}
}

func TestDepth(t *testing.T) {
	scheme := newTestScheme()
	root := cell("ns", "root", "", cellforgev1alpha1.CellPhaseRunning)
	mid := cell("ns", "mid", "root", cellforgev1alpha1.CellPhaseRunning)
	leaf := cell("ns", "leaf", "mid", cellforgev1alpha1.CellPhaseRunning)
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(root, mid, leaf).Build()

	cases := []struct {
		name string
		want int
	}{
		{"root", 0},
		{"mid", 1},
		{"leaf", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Depth(context.Background(), fc, "ns", tc.name)
			if err != nil {
				t.Fatalf("Depth() error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Depth(%s) = %d, want %d", tc.name, got, tc.want)
			}
		})
	}
}

func TestDescendantCount(t *testing.T) {
	scheme := newTestScheme()
	root := cell("ns", "root", "", cellforgev1alpha1.CellPhaseRunning)
	a := cell("ns", "a", "root", cellforgev1alpha1.CellPhaseRunning)
	b := cell("ns", "b", "root", cellforgev1alpha1.CellPhaseRunning)
	c := cell("ns", "c", "a", cellforgev1alpha1.CellPhaseRunning)
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(root, a, b, c).Build()

	got, err := DescendantCount(context.Background(), fc, "ns", "root")
	if err != nil {
		t.Fatalf("DescendantCount() error: %v", err)
	}
	if got != 3 {
		t.Errorf("DescendantCount() = %d, want 3", got)
	}
}

func TestDescendantCount_ChildListedBeforeParentStillStitched(t *testing.T) {
	// grandchild created first in the fake store; stitching must still find it
	// via the multi-pass fixed point.
	scheme := newTestScheme()
	grandchild := cell("ns", "grandchild", "child", cellforgev1alpha1.CellPhaseRunning)
	child := cell("ns", "child", "root", cellforgev1alpha1.CellPhaseRunning)
	root := cell("ns", "root", "", cellforgev1alpha1.CellPhaseRunning)
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(grandchild, child, root).Build()

	got, err := DescendantCount(context.Background(), fc, "ns", "root")
	if err != nil {
		t.Fatalf("DescendantCount() error: %v", err)
	}
	if got != 2 {
		t.Errorf("DescendantCount() = %d, want 2", got)
	}
}

func TestCancelDescendants(t *testing.T) {
	scheme := newTestScheme()
	root := cell("ns", "root", "", cellforgev1alpha1.CellPhaseRunning)
	running := cell("ns", "running", "root", cellforgev1alpha1.CellPhaseRunning)
	completed := cell("ns", "completed", "root", cellforgev1alpha1.CellPhaseCompleted)
	unrelated := cell("ns", "unrelated", "", cellforgev1alpha1.CellPhaseRunning)
	fc := fake.NewClientBuilder().
		WithScheme(scheme).
		WithObjects(root, running, completed, unrelated).
		WithStatusSubresource(&cellforgev1alpha1.Cell{}).
		Build()

	if err := CancelDescendants(context.Background(), fc, "ns", "root", "budget exhausted"); err != nil {
		t.Fatalf("CancelDescendants() error: %v", err)
	}

	got := &cellforgev1alpha1.Cell{}
	if err := fc.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "running"}, got); err != nil {
		t.Fatalf("Get(running): %v", err)
	}
	if got.Status.Phase != cellforgev1alpha1.CellPhaseFailed {
		t.Errorf("running.Status.Phase = %q, want Failed", got.Status.Phase)
	}

	stillDone := &cellforgev1alpha1.Cell{}
	if err := fc.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "completed"}, stillDone); err != nil {
		t.Fatalf("Get(completed): %v", err)
	}
	if stillDone.Status.Phase != cellforgev1alpha1.CellPhaseCompleted {
		t.Errorf("completed.Status.Phase = %q, want unchanged Completed", stillDone.Status.Phase)
	}

	other := &cellforgev1alpha1.Cell{}
	if err := fc.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "unrelated"}, other); err != nil {
		t.Fatalf("Get(unrelated): %v", err)
	}
	if other.Status.Phase != cellforgev1alpha1.CellPhaseRunning {
		t.Errorf("unrelated.Status.Phase = %q, want unchanged Running", other.Status.Phase)
	}
}
