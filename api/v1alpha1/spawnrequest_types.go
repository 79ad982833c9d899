/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1alpha1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

// SpawnRequestSpec is the declared state of a SpawnRequest — a queued
// approval record produced by the recursion validator under
// approval_required.
type SpawnRequestSpec struct {
	RequestorCellID string   `json:"requestorCellId"`
	RequestedSpec   CellSpec `json:"requestedSpec"`
	// +optional
	Reason string `json:"reason,omitempty"`
}

// SpawnRequestPhase is the approval state of a SpawnRequest.
type SpawnRequestPhase string

const (
	SpawnRequestPending  SpawnRequestPhase = "Pending"
	SpawnRequestApproved SpawnRequestPhase = "Approved"
	SpawnRequestRejected SpawnRequestPhase = "Rejected"
)

// SpawnRequestStatus is the observed state of a SpawnRequest.
type SpawnRequestStatus struct {
	// +optional
	Phase SpawnRequestPhase `json:"phase,omitempty"`
	// +optional
	DecidedBy string `json:"decidedBy,omitempty"`
	// +optional
	DecidedAt *metav1.Time `json:"decidedAt,omitempty"`
	// +optional
	SpawnedCellName string `json:"spawnedCellName,omitempty"`
	// +optional
	Message string `json:"message,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Requestor",type=string,JSONPath=`.spec.requestorCellId`

// SpawnRequest is the Schema for the spawnrequests API.
type SpawnRequest struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   SpawnRequestSpec   `json:"spec,omitempty"`
	Status SpawnRequestStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// SpawnRequestList contains a list of SpawnRequest.
type SpawnRequestList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []SpawnRequest `json:"items"`
}

func init() {
	SchemeBuilder.Register(&SpawnRequest{}, &SpawnRequestList{})
}
