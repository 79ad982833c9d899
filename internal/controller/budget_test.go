/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"testing"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

func TestIsCellBudgetExceeded_NoBudget(t *testing.T) {
	cell := &cellforgev1alpha1.Cell{}
	if IsCellBudgetExceeded(cell) {
		t.Error("expected no budget exceeded when maxTotalCost is unset")
	}
}

func TestIsCellBudgetExceeded_CostLimit(t *testing.T) {
	cell := &cellforgev1alpha1.Cell{
		Spec:   cellforgev1alpha1.CellSpec{Resources: cellforgev1alpha1.ResourceSpec{MaxTotalCost: "0.50"}},
		Status: cellforgev1alpha1.CellStatus{TotalCost: "0.75"},
	}
	if !IsCellBudgetExceeded(cell) {
		t.Error("expected budget exceeded when cost ($0.75) > maxTotalCost ($0.50)")
	}
}

func TestIsCellBudgetExceeded_CostLimit_NotExceeded(t *testing.T) {
	cell := &cellforgev1alpha1.Cell{
		Spec:   cellforgev1alpha1.CellSpec{Resources: cellforgev1alpha1.ResourceSpec{MaxTotalCost: "1.00"}},
		Status: cellforgev1alpha1.CellStatus{TotalCost: "0.50"},
	}
	if IsCellBudgetExceeded(cell) {
		t.Error("expected budget NOT exceeded when cost ($0.50) < maxTotalCost ($1.00)")
	}
}

func TestPriceMap_CalculateCellCost(t *testing.T) {
	pm := NewPriceMap(24)
	pm.prices = map[string]ModelPricing{
		"claude-sonnet-4-20250514": {
			InputCostPerToken:  0.000003,
			OutputCostPerToken: 0.000015,
		},
	}
	cell := &cellforgev1alpha1.Cell{
		Spec:   cellforgev1alpha1.CellSpec{Mind: cellforgev1alpha1.MindSpec{Model: "claude-sonnet-4-20250514"}},
		Status: cellforgev1alpha1.CellStatus{TotalTokens: &cellforgev1alpha1.TokenUsage{Input: 1000, Output: 500}},
	}

	got := pm.CalculateCellCost(cell)
	if got == "" {
		t.Fatal("expected a non-empty cost string")
	}
}

func TestPriceMap_CalculateCellCost_NoTokens(t *testing.T) {
	pm := NewPriceMap(24)
	cell := &cellforgev1alpha1.Cell{Spec: cellforgev1alpha1.CellSpec{Mind: cellforgev1alpha1.MindSpec{Model: "claude-sonnet-4-20250514"}}}
	if got := pm.CalculateCellCost(cell); got != "" {
		t.Errorf("expected empty cost string with no token usage, got %q", got)
	}
}

func TestPriceMap_CalculateCost(t *testing.T) {
	pm := NewPriceMap(24)
	pm.prices = map[string]ModelPricing{
		"claude-sonnet-4-20250514": {
			InputCostPerToken:  0.000003,
			OutputCostPerToken: 0.000015,
		},
	}

	cost, err := pm.CalculateCost("claude-sonnet-4-20250514", 1000, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := 1000*0.000003 + 500*0.000015
	if abs(cost-expected) > 0.000001 {
		t.Errorf("expected cost=%.6f, got %.6f", expected, cost)
	}
}

func TestPriceMap_CalculateCost_UnknownModel(t *testing.T) {
	pm := NewPriceMap(24)
	pm.prices = map[string]ModelPricing{}

	_, err := pm.CalculateCost("nonexistent-model", 1000, 500)
	if err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestPriceMap_PrefixLookup(t *testing.T) {
	pm := NewPriceMap(24)
	pm.prices = map[string]ModelPricing{
		"anthropic/claude-sonnet-4-20250514": {
			InputCostPerToken:  0.000003,
			OutputCostPerToken: 0.000015,
		},
	}

	// Should find via prefix fallback
	pricing, ok := pm.GetPricing("claude-sonnet-4-20250514")
	if !ok {
		t.Error("expected to find pricing via anthropic/ prefix fallback")
	}
	if pricing.InputCostPerToken != 0.000003 {
		t.Errorf("unexpected input cost: %f", pricing.InputCostPerToken)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
