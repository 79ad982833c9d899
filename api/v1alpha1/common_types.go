/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1alpha1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

// SecretKeyRef references a key within a Secret, used for model-provider
// credentials.
type SecretKeyRef struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// ObjectRef is a same-namespace reference to another resource, used for
// owner-reference-like pairs that are not themselves Kubernetes owner refs
// (e.g. Mission.spec.formationRef).
type ObjectRef struct {
	Name string `json:"name"`
}

// SpawnPolicy constrains how a Cell may spawn children.
// +kubebuilder:validation:Enum=open;approval_required;blueprint_only;disabled
type SpawnPolicy string

const (
	SpawnPolicyOpen            SpawnPolicy = "open"
	SpawnPolicyApprovalRequired SpawnPolicy = "approval_required"
	SpawnPolicyBlueprintOnly   SpawnPolicy = "blueprint_only"
	SpawnPolicyDisabled        SpawnPolicy = "disabled"
)

// RecursionSpec bounds how deep and how wide a Cell's descendant tree may
// grow, and under what policy new children may be created.
type RecursionSpec struct {
	// +kubebuilder:default=5
	MaxDepth int `json:"maxDepth,omitempty"`
	// +kubebuilder:default=50
	MaxDescendants int `json:"maxDescendants,omitempty"`
	// +kubebuilder:default=open
	SpawnPolicy SpawnPolicy `json:"spawnPolicy,omitempty"`
	// BlueprintRef is required when SpawnPolicy is blueprint_only.
	// +optional
	BlueprintRef string `json:"blueprintRef,omitempty"`
}

// ResourceSpec bounds a Cell's per-turn and lifetime resource consumption.
type ResourceSpec struct {
	MaxTokensPerTurn *int64 `json:"maxTokensPerTurn,omitempty"`
	MaxCostPerHour   string `json:"maxCostPerHour,omitempty"`
	MaxTotalCost     string `json:"maxTotalCost,omitempty"`
	CPU              string `json:"cpu,omitempty"`
	Memory           string `json:"memory,omitempty"`
}

// ToolSpec names one tool a Cell's agent loop may invoke, with optional
// provider-specific configuration (opaque to the control plane).
type ToolSpec struct {
	Name   string            `json:"name"`
	Config map[string]string `json:"config,omitempty"`
}

// MindSpec configures the model a Cell's agent loop runs against. The
// control plane never inspects prompts or completions beyond what is
// needed for cost accounting.
type MindSpec struct {
	Provider    string        `json:"provider"`
	Model       string        `json:"model"`
	SystemPrompt string       `json:"systemPrompt,omitempty"`
	Temperature *string       `json:"temperature,omitempty"`
	MaxTokens   *int64        `json:"maxTokens,omitempty"`
	MemoryWindow *int         `json:"memoryWindow,omitempty"`
	ApiKeyRef   *SecretKeyRef `json:"apiKeyRef,omitempty"`
}

// TokenUsage is an input/output token pair, reused across Cell, Mission,
// and hierarchy-level rollups.
type TokenUsage struct {
	Input  int64 `json:"input"`
	Output int64 `json:"output"`
}

// StuckAction names what the stuck detector does once a Cell's behavioral
// signals cross the configured threshold.
// +kubebuilder:validation:Enum=warn;kill;escalate
type StuckAction string

const (
	StuckActionWarn     StuckAction = "warn"
	StuckActionKill     StuckAction = "kill"
	StuckActionEscalate StuckAction = "escalate"
)

// StuckDetectionSpec configures the tool-diversity / prompt-repetition /
// status-staleness heuristics run over a Cell's pod logs.
type StuckDetectionSpec struct {
	// ToolDiversityMin is the minimum unique-tools-to-total-calls ratio
	// before the diversity penalty engages.
	// +optional
	ToolDiversityMin *string `json:"toolDiversityMin,omitempty"`
	// MaxRepeatedPrompts is the count of identical prompt hashes that
	// triggers the repetition penalty.
	// +optional
	MaxRepeatedPrompts *int `json:"maxRepeatedPrompts,omitempty"`
	// StatusStaleMinutes is how long a Cell may go without progress before
	// the staleness penalty engages.
	// +optional
	StatusStaleMinutes *int `json:"statusStaleMinutes,omitempty"`
	// Action taken once the aggregate stuck score crosses the threshold.
	// +optional
	Action StuckAction `json:"action,omitempty"`
}

// HealthSpec configures per-Cell liveness heuristics beyond pod phase.
type HealthSpec struct {
	// +optional
	StuckDetection *StuckDetectionSpec `json:"stuckDetection,omitempty"`
}

// Condition is the standard Kubernetes-style observed condition.
type Condition = metav1.Condition
