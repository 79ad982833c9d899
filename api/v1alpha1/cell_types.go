/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// CellPhase is the observed lifecycle phase of a Cell.
type CellPhase string

const (
	CellPhasePending   CellPhase = "Pending"
	CellPhaseRunning   CellPhase = "Running"
	CellPhaseCompleted CellPhase = "Completed"
	CellPhaseFailed    CellPhase = "Failed"
	CellPhasePaused    CellPhase = "Paused"
)

// CellSpec is the declared state of a Cell — the unit of agent execution.
type CellSpec struct {
	// Mind configures the model, provider, and prompt this Cell's agent
	// loop runs against.
	Mind MindSpec `json:"mind"`

	// Tools is the ordered list of tools available to this Cell's loop.
	// +optional
	Tools []ToolSpec `json:"tools,omitempty"`

	// Resources bounds this Cell's token and cost consumption.
	// +optional
	Resources ResourceSpec `json:"resources,omitempty"`

	// ParentRef names the Cell that spawned this one, if any.
	// +optional
	ParentRef string `json:"parentRef,omitempty"`

	// FormationRef names the Formation this Cell belongs to, if any.
	// +optional
	FormationRef string `json:"formationRef,omitempty"`

	// Recursion bounds this Cell's ability to spawn further children.
	// +optional
	Recursion RecursionSpec `json:"recursion,omitempty"`

	// Health configures liveness heuristics beyond pod phase, such as
	// stuck-loop detection.
	// +optional
	Health *HealthSpec `json:"health,omitempty"`

	// Image is the workload image running the agent loop.
	Image string `json:"image"`
}

// CellStatus is the observed state of a Cell.
type CellStatus struct {
	// +optional
	Phase CellPhase `json:"phase,omitempty"`
	// +optional
	PodName string `json:"podName,omitempty"`
	// +optional
	TotalCost string `json:"totalCost,omitempty"`
	// +optional
	TotalTokens *TokenUsage `json:"totalTokens,omitempty"`
	// +optional
	LastActive *metav1.Time `json:"lastActive,omitempty"`
	// +optional
	Message string `json:"message,omitempty"`
	// +optional
	Conditions []Condition `json:"conditions,omitempty"`
	// ObservedSpecHash supports the spec-change detector's restart-vs-noop
	// decision for a subset of callers that cannot re-parse the workload's
	// embedded spec directly (e.g. the CLI watch view).
	// +optional
	ObservedSpecHash string `json:"observedSpecHash,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Formation",type=string,JSONPath=`.spec.formationRef`
// +kubebuilder:printcolumn:name="Cost",type=string,JSONPath=`.status.totalCost`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// Cell is the Schema for the cells API.
type Cell struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   CellSpec   `json:"spec,omitempty"`
	Status CellStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// CellList contains a list of Cell.
type CellList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Cell `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Cell{}, &CellList{})
}
