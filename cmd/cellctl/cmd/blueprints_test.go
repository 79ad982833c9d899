/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

func TestToBlueprintEntry(t *testing.T) {
	b := cellforgev1alpha1.Blueprint{
		ObjectMeta: metav1.ObjectMeta{Name: "endpoint-coder", Namespace: "default"},
		Spec: cellforgev1alpha1.BlueprintSpec{
			Description: "writes REST handlers",
			Template: cellforgev1alpha1.CellSpec{
				Mind: cellforgev1alpha1.MindSpec{Provider: "anthropic", Model: "claude-sonnet"},
				Tools: []cellforgev1alpha1.ToolSpec{
					{Name: "shell"},
					{Name: "spawn"},
				},
				Recursion: cellforgev1alpha1.RecursionSpec{SpawnPolicy: cellforgev1alpha1.SpawnPolicyBlueprintOnly},
			},
		},
	}

	entry := toBlueprintEntry(b)

	if entry.Name != "endpoint-coder" || entry.Namespace != "default" {
		t.Errorf("unexpected name/namespace: %+v", entry)
	}
	if entry.Provider != "anthropic" || entry.Model != "claude-sonnet" {
		t.Errorf("unexpected provider/model: %+v", entry)
	}
	if entry.Description != "writes REST handlers" {
		t.Errorf("unexpected description: %q", entry.Description)
	}
	if len(entry.Tools) != 2 || entry.Tools[0] != "shell" || entry.Tools[1] != "spawn" {
		t.Errorf("unexpected tools: %+v", entry.Tools)
	}
	if entry.SpawnPolicy != "blueprint_only" {
		t.Errorf("unexpected spawn policy: %q", entry.SpawnPolicy)
	}
}

func TestHasAllTools(t *testing.T) {
	tests := []struct {
		name     string
		tools    []string
		required []string
		want     bool
	}{
		{"exact match", []string{"shell", "spawn"}, []string{"shell", "spawn"}, true},
		{"superset", []string{"shell", "spawn", "http"}, []string{"shell"}, true},
		{"missing one", []string{"shell"}, []string{"shell", "spawn"}, false},
		{"empty required", []string{"shell"}, []string{}, true},
		{"whitespace in required", []string{"shell"}, []string{" shell "}, true},
		{"empty tools", []string{}, []string{"shell"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasAllTools(tt.tools, tt.required); got != tt.want {
				t.Errorf("hasAllTools(%v, %v) = %v, want %v", tt.tools, tt.required, got, tt.want)
			}
		})
	}
}
