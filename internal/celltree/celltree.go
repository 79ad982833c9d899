/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package celltree answers ancestry and descendant questions over the Cell
// resource store. It generalizes the single-chain findRootTask/
// cancelDescendants walk into a reusable service consulted by the
// recursion validator and the budget ledger's tree-scoped reclaim path.
package celltree

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

// MaxWalkDepth bounds the parent-chain walk so a corrupt or cyclic
// parentRef graph fails loudly instead of looping forever.
const MaxWalkDepth = 64

// Root walks a Cell's parentRef chain up to the root Cell (the one with no
// parentRef). Returns the Cell itself if it has no parent.
func Root(ctx context.Context, c client.Client, namespace, cellName string) (*cellforgev1alpha1.Cell, error) {
	current := &cellforgev1alpha1.Cell{}
	if err := c.Get(ctx, client.ObjectKey{Namespace: namespace, Name: cellName}, current); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", cellName, err)
	}
	for i := 0; i < MaxWalkDepth; i++ {
		if current.Spec.ParentRef == "" {
			return current, nil
		}
		parent := &cellforgev1alpha1.Cell{}
		if err := c.Get(ctx, client.ObjectKey{Namespace: namespace, Name: current.Spec.ParentRef}, parent); err != nil {
			return nil, fmt.Errorf("fetch parent %s: %w", current.Spec.ParentRef, err)
		}
		current = parent
	}
	return nil, fmt.Errorf("cell tree depth exceeded max of %d walking up from %s", MaxWalkDepth, cellName)
}

// Path returns the chain from the root Cell down to cellName, inclusive,
// root first.
func Path(ctx context.Context, c client.Client, namespace, cellName string) ([]*cellforgev1alpha1.Cell, error) {
	current := &cellforgev1alpha1.Cell{}
	if err := c.Get(ctx, client.ObjectKey{Namespace: namespace, Name: cellName}, current); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", cellName, err)
	}
	chain := []*cellforgev1alpha1.Cell{current}
	for i := 0; i < MaxWalkDepth; i++ {
		if current.Spec.ParentRef == "" {
			reversed := make([]*cellforgev1alpha1.Cell, len(chain))
			for j, cc := range chain {
				reversed[len(chain)-1-j] = cc
			}
			return reversed, nil
		}
		parent := &cellforgev1alpha1.Cell{}
		if err := c.Get(ctx, client.ObjectKey{Namespace: namespace, Name: current.Spec.ParentRef}, parent); err != nil {
			return nil, fmt.Errorf("fetch parent %s: %w", current.Spec.ParentRef, err)
		}
		chain = append(chain, parent)
		current = parent
	}
	return nil, fmt.Errorf("cell tree depth exceeded max of %d walking up from %s", MaxWalkDepth, cellName)
}

// Depth returns the number of ancestors above cellName (0 for a root cell).
func Depth(ctx context.Context, c client.Client, namespace, cellName string) (int, error) {
	path, err := Path(ctx, c, namespace, cellName)
	if err != nil {
		return 0, err
	}
	return len(path) - 1, nil
}

// stitchTree lists every Cell in the namespace and returns the set of names
// belonging to the tree rooted at rootName, using repeated passes so a
// child listed before its parent is still picked up.
func stitchTree(ctx context.Context, c client.Client, namespace, rootName string) (map[string]bool, []cellforgev1alpha1.Cell, error) {
	list := &cellforgev1alpha1.CellList{}
	if err := c.List(ctx, list, client.InNamespace(namespace)); err != nil {
		return nil, nil, fmt.Errorf("list cells: %w", err)
	}

	members := map[string]bool{rootName: true}
	for pass := 0; pass < MaxWalkDepth; pass++ {
		changed := false
		for i := range list.Items {
			it := &list.Items[i]
			if it.Spec.ParentRef != "" && members[it.Spec.ParentRef] && !members[it.Name] {
				members[it.Name] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return members, list.Items, nil
}

// DescendantCount returns the number of Cells (excluding rootName itself)
// in the tree rooted at rootName.
func DescendantCount(ctx context.Context, c client.Client, namespace, rootName string) (int, error) {
	members, _, err := stitchTree(ctx, c, namespace, rootName)
	if err != nil {
		return 0, err
	}
	return len(members) - 1, nil
}

// Descendants returns every Cell (excluding rootName itself) in the tree
// rooted at rootName.
func Descendants(ctx context.Context, c client.Client, namespace, rootName string) ([]cellforgev1alpha1.Cell, error) {
	members, items, err := stitchTree(ctx, c, namespace, rootName)
	if err != nil {
		return nil, err
	}
	out := make([]cellforgev1alpha1.Cell, 0, len(members))
	for i := range items {
		if items[i].Name == rootName {
			continue
		}
		if members[items[i].Name] {
			out = append(out, items[i])
		}
	}
	return out, nil
}

// terminalCellPhases are the Cell phases CancelDescendants leaves untouched.
var terminalCellPhases = map[cellforgev1alpha1.CellPhase]bool{
	cellforgev1alpha1.CellPhaseCompleted: true,
	cellforgev1alpha1.CellPhaseFailed:    true,
}

// CancelDescendants marks every non-terminal descendant of rootName Failed
// with reason. It does not touch rootName itself.
func CancelDescendants(ctx context.Context, c client.Client, namespace, rootName, reason string) error {
	descendants, err := Descendants(ctx, c, namespace, rootName)
	if err != nil {
		return err
	}
	for i := range descendants {
		d := &descendants[i]
		if terminalCellPhases[d.Status.Phase] {
			continue
		}
		d.Status.Phase = cellforgev1alpha1.CellPhaseFailed
		d.Status.Message = fmt.Sprintf("cancelled: %s", reason)
		if err := c.Status().Update(ctx, d); err != nil {
			return fmt.Errorf("cancel descendant %s: %w", d.Name, err)
		}
	}
	return nil
}
