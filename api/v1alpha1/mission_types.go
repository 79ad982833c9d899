/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1alpha1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

// CheckSpec declares one completion check, dispatched by Type.
// +kubebuilder:pruning:PreserveUnknownFields
type CheckSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`

	// +optional
	Paths []string `json:"paths,omitempty"`
	// +optional
	Command string `json:"command,omitempty"`
	// +optional
	FailPattern string `json:"failPattern,omitempty"`
	// +optional
	SuccessPattern string `json:"successPattern,omitempty"`
	// +optional
	JSONPath string `json:"jsonPath,omitempty"`
	// +optional
	Operator string `json:"operator,omitempty"`
	// +optional
	Target float64 `json:"target,omitempty"`
	// +optional
	Subject string `json:"subject,omitempty"`
	// +optional
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`
}

// ReviewGateSpec declares an optional human-review step gating Succeeded.
type ReviewGateSpec struct {
	// +optional
	Required bool `json:"required,omitempty"`
	// +optional
	Approvers []string `json:"approvers,omitempty"`
}

// CompletionSpec declares how a Mission decides it is done.
type CompletionSpec struct {
	Checks []CheckSpec `json:"checks"`
	// +kubebuilder:validation:Minimum=1
	MaxAttempts int `json:"maxAttempts"`
	// Timeout is a duration string composed of (Hh)?(Mm)?(Ss)?, e.g. "30m", "1h30m".
	Timeout string `json:"timeout"`
	// +optional
	Review *ReviewGateSpec `json:"review,omitempty"`
}

// EntrypointSpec is the first message enqueued when a Mission starts.
type EntrypointSpec struct {
	Cell    string `json:"cell"`
	Message string `json:"message"`
}

// MissionSpec is the declared state of a Mission.
type MissionSpec struct {
	// +optional
	FormationRef string `json:"formationRef,omitempty"`
	// +optional
	CellRef string `json:"cellRef,omitempty"`

	Objective  string         `json:"objective"`
	Completion CompletionSpec `json:"completion"`
	Entrypoint EntrypointSpec `json:"entrypoint"`

	// +optional
	Budget string `json:"budget,omitempty"`
}

// MissionPhase is the observed lifecycle phase of a Mission.
type MissionPhase string

const (
	MissionPhasePending   MissionPhase = "Pending"
	MissionPhaseRunning   MissionPhase = "Running"
	MissionPhaseSucceeded MissionPhase = "Succeeded"
	MissionPhaseFailed    MissionPhase = "Failed"
)

// ReviewOutcome is the decision recorded against a Mission's review gate.
type ReviewOutcome string

const (
	ReviewPending  ReviewOutcome = "Pending"
	ReviewApproved ReviewOutcome = "Approved"
	ReviewRejected ReviewOutcome = "Rejected"
)

// ReviewRecord is the current review-gate state for a Mission attempt.
type ReviewRecord struct {
	Outcome   ReviewOutcome `json:"outcome"`
	Reviewer  string        `json:"reviewer,omitempty"`
	Comment   string        `json:"comment,omitempty"`
	DecidedAt *metav1.Time  `json:"decidedAt,omitempty"`
}

// CheckResult is the persisted outcome of one completion check.
type CheckResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
}

// MissionAttempt records one prior attempt's start time and terminating
// reason, preserving attempt history across retries.
type MissionAttempt struct {
	Attempt   int          `json:"attempt"`
	StartedAt metav1.Time  `json:"startedAt"`
	EndedAt   *metav1.Time `json:"endedAt,omitempty"`
	Reason    string       `json:"reason,omitempty"`
}

// MissionStatus is the observed state of a Mission.
type MissionStatus struct {
	// +optional
	Phase MissionPhase `json:"phase,omitempty"`
	// +optional
	Attempt int `json:"attempt,omitempty"`
	// +optional
	StartedAt *metav1.Time `json:"startedAt,omitempty"`
	// +optional
	Cost string `json:"cost,omitempty"`
	// +optional
	Checks []CheckResult `json:"checks,omitempty"`
	// +optional
	Review *ReviewRecord `json:"review,omitempty"`
	// +optional
	History []MissionAttempt `json:"history,omitempty"`
	// +optional
	Message string `json:"message,omitempty"`
	// +optional
	Conditions []Condition `json:"conditions,omitempty"`
	// NextRetryTime gates when a Pending mission waiting out a timeout
	// backoff may be re-entered.
	// +optional
	NextRetryTime *metav1.Time `json:"nextRetryTime,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Attempt",type=integer,JSONPath=`.status.attempt`
// +kubebuilder:printcolumn:name="Cost",type=string,JSONPath=`.status.cost`

// Mission is the Schema for the missions API.
type Mission struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   MissionSpec   `json:"spec,omitempty"`
	Status MissionStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// MissionList contains a list of Mission.
type MissionList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Mission `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Mission{}, &MissionList{})
}
