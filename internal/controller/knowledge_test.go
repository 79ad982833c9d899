/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

func TestBuildFormationTags(t *testing.T) {
	formation := &cellforgev1alpha1.Formation{
		ObjectMeta: metav1.ObjectMeta{Name: "research-swarm"},
		Spec: cellforgev1alpha1.FormationSpec{
			Topology: cellforgev1alpha1.TopologySpec{Kind: cellforgev1alpha1.TopologyStar},
			Cells:    []cellforgev1alpha1.CellTemplate{{Name: "Scout"}},
		},
	}

	tags := buildFormationTags(formation)

	for _, want := range []string{"research-swarm", "research", "swarm", "star", "scout"} {
		if !tags[want] {
			t.Errorf("expected tag %q in %v", want, tags)
		}
	}
}

func TestSplitTags(t *testing.T) {
	got := splitTags(" Foo, bar ,,BAZ")
	want := []string{"foo", "bar", "baz"}
	if len(got) != len(want) {
		t.Fatalf("splitTags() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitTags()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitTagsEmpty(t *testing.T) {
	if got := splitTags(""); got != nil {
		t.Errorf("expected nil for empty string, got %v", got)
	}
}

func TestTagOverlap(t *testing.T) {
	want := map[string]bool{"research": true, "scout": true}
	if n := tagOverlap(want, []string{"scout", "other"}); n != 1 {
		t.Errorf("tagOverlap() = %d, want 1", n)
	}
	if n := tagOverlap(want, []string{"research", "scout"}); n != 2 {
		t.Errorf("tagOverlap() = %d, want 2", n)
	}
	if n := tagOverlap(want, []string{"unrelated"}); n != 0 {
		t.Errorf("tagOverlap() = %d, want 0", n)
	}
}

func TestDiscoverRetainedWorkspaces_RanksByOverlap(t *testing.T) {
	formation := newTestFormation("research-swarm-2")
	lowMatch := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name: "old-1-workspace", Namespace: "ns",
			Annotations: map[string]string{annotationRetain: "true", annotationRetainTags: "swarm"},
		},
	}
	highMatch := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name: "old-2-workspace", Namespace: "ns",
			Annotations: map[string]string{annotationRetain: "true", annotationRetainTags: "research,swarm,worker"},
		},
	}
	notRetained := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{Name: "old-3-workspace", Namespace: "ns"},
	}
	r, _ := newFormationReconciler(t, formation, lowMatch, highMatch, notRetained)

	candidates, err := r.discoverRetainedWorkspaces(context.Background(), formation, defaultWorkspaceRetentionConfig())
	if err != nil {
		t.Fatalf("discoverRetainedWorkspaces() error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(candidates), candidates)
	}
	if candidates[0].Name != "old-2-workspace" {
		t.Errorf("expected highest-overlap candidate first, got %s", candidates[0].Name)
	}
}

func TestDiscoverRetainedWorkspaces_DiscoveryNone(t *testing.T) {
	formation := newTestFormation("f1")
	r, _ := newFormationReconciler(t, formation)

	candidates, err := r.discoverRetainedWorkspaces(context.Background(), formation, WorkspaceRetentionConfig{Discovery: "none"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidates != nil {
		t.Errorf("expected nil candidates when discovery disabled, got %v", candidates)
	}
}

func TestDiscoverRetainedWorkspaces_CapsAtMax(t *testing.T) {
	formation := newTestFormation("research-swarm")
	r, fc := newFormationReconciler(t, formation)

	for i := 0; i < 10; i++ {
		pvc := &corev1.PersistentVolumeClaim{
			ObjectMeta: metav1.ObjectMeta{
				Name: nameFor(i), Namespace: "ns",
				Annotations: map[string]string{annotationRetain: "true", annotationRetainTags: "research"},
			},
		}
		if err := fc.Create(context.Background(), pvc); err != nil {
			t.Fatalf("create extra pvc: %v", err)
		}
	}

	candidates, err := r.discoverRetainedWorkspaces(context.Background(), formation, WorkspaceRetentionConfig{Discovery: "tag-overlap", MaxRetainedPerNS: 3})
	if err != nil {
		t.Fatalf("discoverRetainedWorkspaces() error: %v", err)
	}
	if len(candidates) != 3 {
		t.Errorf("expected cap of 3 candidates, got %d", len(candidates))
	}
}

func nameFor(i int) string {
	return string(rune('a'+i)) + "-workspace"
}
