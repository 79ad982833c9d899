/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package webhook

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/validation/field"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

var celllog = logf.Log.WithName("cell-webhook")

// CellValidator validates Cell resources.
type CellValidator struct {
	Client client.Client
}

// spawnPolicyRank returns the numeric permissiveness rank for a SpawnPolicy
// (higher = more permissive).
func spawnPolicyRank(p cellforgev1alpha1.SpawnPolicy) int {
	switch p {
	case cellforgev1alpha1.SpawnPolicyDisabled:
		return 0
	case cellforgev1alpha1.SpawnPolicyBlueprintOnly:
		return 1
	case cellforgev1alpha1.SpawnPolicyApprovalRequired:
		return 2
	case cellforgev1alpha1.SpawnPolicyOpen:
		return 3
	default:
		return 0
	}
}

// ValidateCell performs cross-field validation on a Cell. Exported for unit
// testing without needing a webhook server.
func ValidateCell(cell *cellforgev1alpha1.Cell, parent *cellforgev1alpha1.Cell) field.ErrorList {
	var allErrs field.ErrorList
	specPath := field.NewPath("spec")

	if cell.Spec.Mind.Provider == "" {
		allErrs = append(allErrs, field.Required(specPath.Child("mind", "provider"), "mind.provider is required"))
	}
	if cell.Spec.Mind.Model == "" {
		allErrs = append(allErrs, field.Required(specPath.Child("mind", "model"), "mind.model is required"))
	}
	if cell.Spec.Image == "" {
		allErrs = append(allErrs, field.Required(specPath.Child("image"), "image is required"))
	}

	if cell.Spec.Resources.MaxTokensPerTurn != nil && *cell.Spec.Resources.MaxTokensPerTurn <= 0 {
		allErrs = append(allErrs, field.Invalid(specPath.Child("resources", "maxTokensPerTurn"),
			*cell.Spec.Resources.MaxTokensPerTurn, "maxTokensPerTurn must be > 0"))
	}

	if cell.Spec.Recursion.SpawnPolicy == cellforgev1alpha1.SpawnPolicyBlueprintOnly && cell.Spec.Recursion.BlueprintRef == "" {
		allErrs = append(allErrs, field.Required(specPath.Child("recursion", "blueprintRef"),
			"blueprintRef is required when spawnPolicy is blueprint_only"))
	}

	// Parent-child constraints
	if parent != nil {
		// Child spawn policy must not be more permissive than the parent's.
		if spawnPolicyRank(cell.Spec.Recursion.SpawnPolicy) > spawnPolicyRank(parent.Spec.Recursion.SpawnPolicy) {
			allErrs = append(allErrs, field.Forbidden(specPath.Child("recursion", "spawnPolicy"),
				fmt.Sprintf("child spawnPolicy %q exceeds parent spawnPolicy %q",
					cell.Spec.Recursion.SpawnPolicy, parent.Spec.Recursion.SpawnPolicy)))
		}

		// Child per-turn token budget must not exceed the parent's.
		if cell.Spec.Resources.MaxTokensPerTurn != nil && parent.Spec.Resources.MaxTokensPerTurn != nil {
			if *cell.Spec.Resources.MaxTokensPerTurn > *parent.Spec.Resources.MaxTokensPerTurn {
				allErrs = append(allErrs, field.Forbidden(specPath.Child("resources", "maxTokensPerTurn"),
					"child maxTokensPerTurn exceeds parent maxTokensPerTurn"))
			}
		}
		if cell.Spec.Resources.MaxTotalCost != "" && parent.Spec.Resources.MaxTotalCost != "" {
			childCost, err1 := strconv.ParseFloat(cell.Spec.Resources.MaxTotalCost, 64)
			parentCost, err2 := strconv.ParseFloat(parent.Spec.Resources.MaxTotalCost, 64)
			if err1 == nil && err2 == nil && childCost > parentCost {
				allErrs = append(allErrs, field.Forbidden(specPath.Child("resources", "maxTotalCost"),
					"child maxTotalCost exceeds parent maxTotalCost"))
			}
		}

		// Child tools must be a subset of parent tools.
		parentTools := make(map[string]bool, len(parent.Spec.Tools))
		for _, tl := range parent.Spec.Tools {
			parentTools[tl.Name] = true
		}
		for _, tl := range cell.Spec.Tools {
			if !parentTools[tl.Name] {
				allErrs = append(allErrs, field.Forbidden(specPath.Child("tools"),
					fmt.Sprintf("child tool %q not in parent tools %v", tl.Name, toolKeys(parentTools))))
			}
		}
	}

	return allErrs
}

func toolKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// +kubebuilder:webhook:path=/validate-cellforge-hortator-ai-v1alpha1-cell,mutating=false,failurePolicy=fail,sideEffects=None,groups=cellforge.hortator.ai,resources=cells,verbs=create;update,versions=v1alpha1,name=vcell.kb.io,admissionReviewVersions=v1

// ValidateCreate implements webhook.CustomValidator.
func (v *CellValidator) ValidateCreate(ctx context.Context, obj runtime.Object) (admission.Warnings, error) {
	cell, ok := obj.(*cellforgev1alpha1.Cell)
	if !ok {
		return nil, fmt.Errorf("expected Cell, got %T", obj)
	}
	celllog.Info("validate create", "name", cell.Name)
	return nil, runValidation(ctx, v.Client, cell)
}

// ValidateUpdate implements webhook.CustomValidator.
func (v *CellValidator) ValidateUpdate(ctx context.Context, oldObj, newObj runtime.Object) (admission.Warnings, error) {
	cell, ok := newObj.(*cellforgev1alpha1.Cell)
	if !ok {
		return nil, fmt.Errorf("expected Cell, got %T", newObj)
	}
	celllog.Info("validate update", "name", cell.Name)
	return nil, runValidation(ctx, v.Client, cell)
}

// ValidateDelete implements webhook.CustomValidator.
func (v *CellValidator) ValidateDelete(ctx context.Context, obj runtime.Object) (admission.Warnings, error) {
	return nil, nil
}

func runValidation(ctx context.Context, c client.Client, cell *cellforgev1alpha1.Cell) error {
	var parent *cellforgev1alpha1.Cell
	if cell.Spec.ParentRef != "" {
		parent = &cellforgev1alpha1.Cell{}
		if err := c.Get(ctx, client.ObjectKey{
			Namespace: cell.Namespace,
			Name:      cell.Spec.ParentRef,
		}, parent); err != nil {
			return fmt.Errorf("failed to fetch parent cell %s: %w", cell.Spec.ParentRef, err)
		}
	}

	errs := ValidateCell(cell, parent)
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// SetupWebhookWithManager registers the validating webhook with the manager.
func (v *CellValidator) SetupWebhookWithManager(mgr ctrl.Manager) error {
	return ctrl.NewWebhookManagedBy(mgr).
		For(&cellforgev1alpha1.Cell{}).
		WithValidator(v).
		Complete()
}
