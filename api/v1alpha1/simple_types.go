/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1alpha1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

// SimplePhase is the shared lifecycle phase vocabulary for reconcilers
// that reuse the Cell/Formation reconciliation pattern without a bespoke
// state machine of their own.
type SimplePhase string

const (
	SimplePhasePending SimplePhase = "Pending"
	SimplePhaseActive  SimplePhase = "Active"
	SimplePhaseFailed  SimplePhase = "Failed"
)

// --- Channel --------------------------------------------------------------

// ChannelSpec declares a durable bus subject pair beyond a single cell's
// inbox/outbox — used for fan-out broadcast groups and external bridges.
type ChannelSpec struct {
	SubjectPrefix string   `json:"subjectPrefix"`
	Members       []string `json:"members,omitempty"`
}

type ChannelStatus struct {
	// +optional
	Phase SimplePhase `json:"phase,omitempty"`
	// +optional
	Message string `json:"message,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// Channel is the Schema for the channels API.
type Channel struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ChannelSpec   `json:"spec,omitempty"`
	Status ChannelStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

type ChannelList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Channel `json:"items"`
}

// --- Swarm -----------------------------------------------------------------

// SwarmSpec declares a self-similar pool of Formations sharing one
// blueprint, scaled by a target replica count (distinct from a Formation's
// fixed cell templates).
type SwarmSpec struct {
	FormationTemplate FormationSpec `json:"formationTemplate"`
	// +kubebuilder:validation:Minimum=0
	Replicas int `json:"replicas"`
}

type SwarmStatus struct {
	// +optional
	Phase SimplePhase `json:"phase,omitempty"`
	// +optional
	ReadyReplicas int `json:"readyReplicas,omitempty"`
	// +optional
	Message string `json:"message,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// Swarm is the Schema for the swarms API.
type Swarm struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   SwarmSpec   `json:"spec,omitempty"`
	Status SwarmStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

type SwarmList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Swarm `json:"items"`
}

// --- Federation --------------------------------------------------------------

// FederationSpec groups multiple Formations under a shared governance
// boundary (budget rollup and cross-formation route bridging).
type FederationSpec struct {
	Members []string `json:"members"`
	// +optional
	SharedBudget string `json:"sharedBudget,omitempty"`
}

type FederationStatus struct {
	// +optional
	Phase SimplePhase `json:"phase,omitempty"`
	// +optional
	TotalCost string `json:"totalCost,omitempty"`
	// +optional
	Message string `json:"message,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// Federation is the Schema for the federations API.
type Federation struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   FederationSpec   `json:"spec,omitempty"`
	Status FederationStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

type FederationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Federation `json:"items"`
}

// --- KnowledgeGraph ----------------------------------------------------------

// KnowledgeGraphSpec declares an embedding collection a Formation's cells
// may query and append to, backed by internal/vectorstore.
type KnowledgeGraphSpec struct {
	// +kubebuilder:validation:Enum=qdrant;milvus
	Provider   string `json:"provider"`
	Collection string `json:"collection"`
	Dimension  int    `json:"dimension"`
}

type KnowledgeGraphStatus struct {
	// +optional
	Phase SimplePhase `json:"phase,omitempty"`
	// +optional
	VectorCount int64 `json:"vectorCount,omitempty"`
	// +optional
	Message string `json:"message,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// KnowledgeGraph is the Schema for the knowledgegraphs API.
type KnowledgeGraph struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   KnowledgeGraphSpec   `json:"spec,omitempty"`
	Status KnowledgeGraphStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

type KnowledgeGraphList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []KnowledgeGraph `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Channel{}, &ChannelList{})
	SchemeBuilder.Register(&Swarm{}, &SwarmList{})
	SchemeBuilder.Register(&Federation{}, &FederationList{})
	SchemeBuilder.Register(&KnowledgeGraph{}, &KnowledgeGraphList{})
}
