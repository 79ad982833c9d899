/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1alpha1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

// TopologyKind selects the route-generation strategy for a Formation.
// +kubebuilder:validation:Enum=full_mesh;hierarchy;star;ring;custom;stigmergy
type TopologyKind string

const (
	TopologyFullMesh TopologyKind = "full_mesh"
	TopologyHierarchy TopologyKind = "hierarchy"
	TopologyStar     TopologyKind = "star"
	TopologyRing     TopologyKind = "ring"
	TopologyCustom   TopologyKind = "custom"
	TopologyStigmergy TopologyKind = "stigmergy"
)

// TopologySpec declares how cells within a Formation may address each
// other. The discriminator fields required depend on Kind: hierarchy needs
// Root, star needs Hub, custom needs Routes, stigmergy needs Blackboard.
type TopologySpec struct {
	Kind TopologyKind `json:"kind"`
	// +optional
	Root string `json:"root,omitempty"`
	// +optional
	Hub string `json:"hub,omitempty"`
	// Routes is an explicit adjacency list used only when Kind is custom;
	// keys and values may be template names, which expand to every
	// replica of that template.
	// +optional
	Routes map[string][]string `json:"routes,omitempty"`
	// +optional
	Broadcast bool `json:"broadcast,omitempty"`
	// +optional
	Blackboard string `json:"blackboard,omitempty"`
}

// CellTemplate names a batch of identical Cells expanded to concrete names
// "name-0" through "name-(replicas-1)".
type CellTemplate struct {
	Name     string   `json:"name"`
	Replicas int      `json:"replicas"`
	Spec     CellSpec `json:"spec"`
}

// FormationBudgetSpec declares aggregate and per-template budget hints.
type FormationBudgetSpec struct {
	// +optional
	MaxTotalCost string `json:"maxTotalCost,omitempty"`
	// +optional
	PerTemplate map[string]string `json:"perTemplate,omitempty"`
}

// FormationSpec is the declared state of a Formation.
type FormationSpec struct {
	Cells    []CellTemplate       `json:"cells"`
	Topology TopologySpec         `json:"topology"`
	// +optional
	Budget FormationBudgetSpec `json:"budget,omitempty"`
}

// FormationPhase is the observed lifecycle phase of a Formation.
type FormationPhase string

const (
	FormationPhasePending   FormationPhase = "Pending"
	FormationPhaseRunning   FormationPhase = "Running"
	FormationPhasePaused    FormationPhase = "Paused"
	FormationPhaseCompleted FormationPhase = "Completed"
	FormationPhaseFailed    FormationPhase = "Failed"
)

// CellProjection is a per-cell status summary surfaced on the Formation.
type CellProjection struct {
	Name  string    `json:"name"`
	Phase CellPhase `json:"phase"`
	Cost  string    `json:"cost,omitempty"`
}

// FormationStatus is the observed state of a Formation.
type FormationStatus struct {
	// +optional
	Phase FormationPhase `json:"phase,omitempty"`
	// +optional
	TotalCost string `json:"totalCost,omitempty"`
	// +optional
	Cells []CellProjection `json:"cells,omitempty"`
	// +optional
	WorkspaceClaim string `json:"workspaceClaim,omitempty"`
	// +optional
	RouteTableRef string `json:"routeTableRef,omitempty"`
	// +optional
	Message string `json:"message,omitempty"`
	// +optional
	Conditions []Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Topology",type=string,JSONPath=`.spec.topology.kind`
// +kubebuilder:printcolumn:name="Cost",type=string,JSONPath=`.status.totalCost`

// Formation is the Schema for the formations API.
type Formation struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   FormationSpec   `json:"spec,omitempty"`
	Status FormationStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// FormationList contains a list of Formation.
type FormationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Formation `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Formation{}, &FormationList{})
}
