/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"
	"fmt"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

// WorkspaceRetentionConfig controls whether a Formation's workspace volume
// outlives the Formation and how eagerly a later Formation reuses one.
type WorkspaceRetentionConfig struct {
	// Discovery selects the reuse strategy. "none" disables discovery;
	// "tag-overlap" is the only other supported value today.
	Discovery string
	// MaxRetainedPerNS caps how many retained workspaces discoverRetainedWorkspaces
	// returns, favoring the best tag matches.
	MaxRetainedPerNS int
}

func defaultWorkspaceRetentionConfig() WorkspaceRetentionConfig {
	return WorkspaceRetentionConfig{Discovery: "tag-overlap", MaxRetainedPerNS: 5}
}

// DefaultWorkspaceRetentionConfig returns the cluster-wide default workspace
// reuse policy, for cmd/controller to install as FormationReconciler.Retention.
func DefaultWorkspaceRetentionConfig() WorkspaceRetentionConfig {
	return defaultWorkspaceRetentionConfig()
}

const (
	annotationRetain     = "cellforge.io/retain"
	annotationRetainTags = "cellforge.io/retain-tags"
)

// RetainedWorkspace is a candidate workspace PVC left behind by a prior
// Formation, ranked by how well its tags match the requesting Formation.
type RetainedWorkspace struct {
	Name       string
	Tags       []string
	TagOverlap int
}

// discoverRetainedWorkspaces finds PVCs tagged for retention in formation's
// namespace whose tags overlap with formation's own derived tags, sorted by
// overlap descending and capped at cfg.MaxRetainedPerNS.
func (r *FormationReconciler) discoverRetainedWorkspaces(ctx context.Context, formation *cellforgev1alpha1.Formation, cfg WorkspaceRetentionConfig) ([]RetainedWorkspace, error) {
	if cfg.Discovery == "none" || cfg.Discovery == "" {
		return nil, nil
	}

	pvcList := &corev1.PersistentVolumeClaimList{}
	if err := r.List(ctx, pvcList, client.InNamespace(formation.Namespace)); err != nil {
		return nil, err
	}

	ownName := fmt.Sprintf("%s-workspace", formation.Name)
	wantTags := buildFormationTags(formation)

	var candidates []RetainedWorkspace
	for _, pvc := range pvcList.Items {
		if pvc.Name == ownName {
			continue
		}
		if pvc.Annotations[annotationRetain] != "true" {
			continue
		}
		tags := splitTags(pvc.Annotations[annotationRetainTags])
		overlap := tagOverlap(wantTags, tags)
		if overlap == 0 {
			continue
		}
		candidates = append(candidates, RetainedWorkspace{Name: pvc.Name, Tags: tags, TagOverlap: overlap})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].TagOverlap > candidates[j].TagOverlap })

	max := cfg.MaxRetainedPerNS
	if max <= 0 {
		max = 5
	}
	if len(candidates) > max {
		candidates = candidates[:max]
	}

	log.FromContext(ctx).V(1).Info("discovered retained workspaces", "formation", formation.Name, "count", len(candidates))
	return candidates, nil
}

// buildFormationTags derives a Formation's reuse tags from its name,
// topology kind, and cell template names.
func buildFormationTags(formation *cellforgev1alpha1.Formation) map[string]bool {
	tags := map[string]bool{}

	name := strings.ToLower(formation.Name)
	tags[name] = true
	for _, part := range strings.Split(name, "-") {
		if len(part) > 2 {
			tags[part] = true
		}
	}

	if formation.Spec.Topology.Kind != "" {
		tags[strings.ToLower(string(formation.Spec.Topology.Kind))] = true
	}
	for _, tmpl := range formation.Spec.Cells {
		tags[strings.ToLower(tmpl.Name)] = true
	}

	return tags
}

func splitTags(tagsStr string) []string {
	if tagsStr == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(tagsStr, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func tagOverlap(want map[string]bool, have []string) int {
	count := 0
	for _, t := range have {
		if want[t] {
			count++
		}
	}
	return count
}
