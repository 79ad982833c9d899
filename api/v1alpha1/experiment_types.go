/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1alpha1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

// VariableSpec is one axis of the experiment's cartesian matrix.
type VariableSpec struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// MetricSpec declares one metric to harvest and how to aggregate it.
// +kubebuilder:validation:Enum=sum;duration;count;mean;max;min
type MetricKind string

const (
	MetricSum      MetricKind = "sum"
	MetricDuration MetricKind = "duration"
	MetricCount    MetricKind = "count"
	MetricMean     MetricKind = "mean"
	MetricMax      MetricKind = "max"
	MetricMin      MetricKind = "min"
)

type MetricSpec struct {
	Name string     `json:"name"`
	Type MetricKind `json:"type"`
	// JSONPath locates the metric value within a run's check output, using
	// the same dotted grammar as a Mission coverage check.
	// +optional
	JSONPath string `json:"jsonPath,omitempty"`
}

// ExperimentBudgetSpec bounds aggregate spend across all runs.
type ExperimentBudgetSpec struct {
	MaxTotalCost      string `json:"maxTotalCost"`
	AbortOnOverBudget bool   `json:"abortOnOverBudget,omitempty"`
}

// ExperimentSpec is the declared state of an Experiment.
type ExperimentSpec struct {
	Variables []VariableSpec `json:"variables"`
	// +kubebuilder:validation:Minimum=1
	Repeats  int             `json:"repeats"`
	Template FormationSpec   `json:"template"`
	Mission  MissionSpec     `json:"mission"`
	Metrics  []MetricSpec    `json:"metrics,omitempty"`
	Budget   ExperimentBudgetSpec `json:"budget"`
	// +kubebuilder:default=1
	Parallel int `json:"parallel,omitempty"`
}

// ExperimentPhase is the observed lifecycle phase of an Experiment.
type ExperimentPhase string

const (
	ExperimentPhasePending   ExperimentPhase = "Pending"
	ExperimentPhaseRunning   ExperimentPhase = "Running"
	ExperimentPhaseAnalyzing ExperimentPhase = "Analyzing"
	ExperimentPhaseCompleted ExperimentPhase = "Completed"
	ExperimentPhaseFailed    ExperimentPhase = "Failed"
	ExperimentPhaseAborted   ExperimentPhase = "Aborted"
)

// RunStatus is the projection of one queued/executing/completed run.
type RunStatus struct {
	VariantKey string            `json:"variantKey"`
	Repeat     int               `json:"repeat"`
	Phase      string            `json:"phase"`
	FormationName string         `json:"formationName,omitempty"`
	MissionName   string         `json:"missionName,omitempty"`
	Cost       string            `json:"cost,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// MetricSummary is one metric's aggregated value across all completed runs
// sharing a variant key.
type MetricSummary struct {
	VariantKey string  `json:"variantKey"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
	Samples    int     `json:"samples"`
}

// ExperimentAnalysis is the final statistical summary of an Experiment.
type ExperimentAnalysis struct {
	Summaries []MetricSummary `json:"summaries,omitempty"`
	// ParetoFront lists variant keys not dominated by any other variant
	// across the selected metrics.
	ParetoFront []string `json:"paretoFront,omitempty"`
}

// ExperimentStatus is the observed state of an Experiment.
type ExperimentStatus struct {
	// +optional
	Phase ExperimentPhase `json:"phase,omitempty"`
	// +optional
	TotalCost string `json:"totalCost,omitempty"`
	// +optional
	Runs []RunStatus `json:"runs,omitempty"`
	// +optional
	Analysis *ExperimentAnalysis `json:"analysis,omitempty"`
	// +optional
	Suggestions []string `json:"suggestions,omitempty"`
	// +optional
	Message string `json:"message,omitempty"`
	// +optional
	Conditions []Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Cost",type=string,JSONPath=`.status.totalCost`

// Experiment is the Schema for the experiments API.
type Experiment struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ExperimentSpec   `json:"spec,omitempty"`
	Status ExperimentStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// ExperimentList contains a list of Experiment.
type ExperimentList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Experiment `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Experiment{}, &ExperimentList{})
}
