/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package recursion implements the spawn validator: a 5-step,
// first-failure-wins evaluation of whether a Cell may spawn a child,
// consulting spawn policy, the cell tree, the budget ledger, and a
// global platform cap, folded into one ordered evaluation with a single
// entry point.
package recursion

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/budget"
	"github.com/hortator-ai/cellforge/internal/celltree"
)

// SpawnInput is the requested child spec plus any budget the parent wishes
// to delegate to it.
type SpawnInput struct {
	RequestedSpec cellforgev1alpha1.CellSpec
	Budget        *float64
	Reason        string
}

// Result is the outcome of a spawn validation.
type Result struct {
	Allowed bool
	Reason  string
	// Pending is true when an approval_required policy enqueued a
	// SpawnRequest instead of deciding immediately.
	Pending bool
}

// Validator evaluates spawn requests against policy, the cell tree, the
// budget ledger, and a platform-wide Cell cap.
type Validator struct {
	Client           client.Client
	Ledger           *budget.Ledger
	MaxPlatformCells int
}

// ValidateSpawn runs the 5-step first-failure-wins evaluation from the
// parent Cell's perspective.
func (v *Validator) ValidateSpawn(ctx context.Context, parent *cellforgev1alpha1.Cell, input SpawnInput) (Result, error) {
	if r, ok, err := v.evaluatePolicy(ctx, parent, input); err != nil {
		return Result{}, err
	} else if ok {
		return r, nil
	}

	depth, err := celltree.Depth(ctx, v.Client, parent.Namespace, parent.Name)
	if err != nil {
		return Result{}, fmt.Errorf("compute depth: %w", err)
	}
	if depth >= parent.Spec.Recursion.MaxDepth {
		return Result{Allowed: false, Reason: fmt.Sprintf("spawning %s would exceed max depth %d", parent.Name, parent.Spec.Recursion.MaxDepth)}, nil
	}

	descendants, err := celltree.DescendantCount(ctx, v.Client, parent.Namespace, parent.Name)
	if err != nil {
		return Result{}, fmt.Errorf("count descendants: %w", err)
	}
	if descendants >= parent.Spec.Recursion.MaxDescendants {
		return Result{Allowed: false, Reason: fmt.Sprintf("%s would exceed max descendants %d", parent.Name, parent.Spec.Recursion.MaxDescendants)}, nil
	}

	if input.Budget != nil {
		bal, err := v.Ledger.GetBalance(ctx, parent.Name)
		if err != nil {
			return Result{}, fmt.Errorf("get parent balance: %w", err)
		}
		if bal.Available() < *input.Budget {
			return Result{Allowed: false, Reason: fmt.Sprintf("parent %s has %.6f available, needs %.6f", parent.Name, bal.Available(), *input.Budget)}, nil
		}
	}

	// Platform cap: counted globally across all namespaces and trees (the
	// under-counting root-tree-only scope is rejected — see the design
	// ledger's Open Question resolution).
	total, err := platformCellCount(ctx, v.Client)
	if err != nil {
		return Result{}, fmt.Errorf("count platform cells: %w", err)
	}
	if v.MaxPlatformCells > 0 && total+1 > v.MaxPlatformCells {
		return Result{Allowed: false, Reason: fmt.Sprintf("platform cell cap of %d reached", v.MaxPlatformCells)}, nil
	}

	return Result{Allowed: true}, nil
}

// evaluatePolicy runs step 1 of the validation. The second return value is
// true when policy alone decided the outcome (deny, or approval_required
// enqueued a pending SpawnRequest); false means evaluation should continue
// to the depth/descendant/budget/platform steps.
func (v *Validator) evaluatePolicy(ctx context.Context, parent *cellforgev1alpha1.Cell, input SpawnInput) (Result, bool, error) {
	switch parent.Spec.Recursion.SpawnPolicy {
	case cellforgev1alpha1.SpawnPolicyDisabled:
		return Result{Allowed: false, Reason: "spawning disabled on this cell"}, true, nil
	case cellforgev1alpha1.SpawnPolicyBlueprintOnly:
		if parent.Spec.Recursion.BlueprintRef == "" {
			return Result{Allowed: false, Reason: "blueprint_only policy requires blueprintRef"}, true, nil
		}
		return Result{}, false, nil
	case cellforgev1alpha1.SpawnPolicyApprovalRequired:
		if err := v.enqueueSpawnRequest(ctx, parent, input); err != nil {
			return Result{}, false, err
		}
		return Result{Allowed: false, Pending: true}, true, nil
	default:
		return Result{}, false, nil
	}
}

func (v *Validator) enqueueSpawnRequest(ctx context.Context, parent *cellforgev1alpha1.Cell, input SpawnInput) error {
	req := &cellforgev1alpha1.SpawnRequest{}
	req.GenerateName = parent.Name + "-spawn-"
	req.Namespace = parent.Namespace
	req.Spec = cellforgev1alpha1.SpawnRequestSpec{
		RequestorCellID: parent.Name,
		RequestedSpec:   input.RequestedSpec,
		Reason:          input.Reason,
	}
	return v.Client.Create(ctx, req)
}

// platformCellCount counts every Cell across every namespace that has not
// reached a terminal phase — the platform-wide denominator the Open
// Question asks for, in place of the original's per-root-tree count.
func platformCellCount(ctx context.Context, c client.Client) (int, error) {
	list := &cellforgev1alpha1.CellList{}
	if err := c.List(ctx, list); err != nil {
		return 0, err
	}
	count := 0
	for i := range list.Items {
		phase := list.Items[i].Status.Phase
		if phase == cellforgev1alpha1.CellPhaseCompleted || phase == cellforgev1alpha1.CellPhaseFailed {
			continue
		}
		count++
	}
	return count, nil
}
