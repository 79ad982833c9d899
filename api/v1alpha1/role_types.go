/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1alpha1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

// EgressRule restricts outbound network access from a Cell's workload.
type EgressRule struct {
	Host string `json:"host"`
	// +optional
	Ports []int `json:"ports,omitempty"`
}

// RoleSpec declares the capability, image, budget, and egress restrictions
// that apply to any Cell a RoleBinding attaches this Role to — a reusable,
// explicitly-bound policy rather than an implicit namespace-wide one.
type RoleSpec struct {
	// +optional
	AllowedCapabilities []string `json:"allowedCapabilities,omitempty"`
	// +optional
	DeniedCapabilities []string `json:"deniedCapabilities,omitempty"`
	// +optional
	AllowedImages []string `json:"allowedImages,omitempty"`
	// +optional
	MaxBudget *ResourceSpec `json:"maxBudget,omitempty"`
	// +optional
	MaxRecursionDepth *int `json:"maxRecursionDepth,omitempty"`
	// +optional
	EgressAllowlist []EgressRule `json:"egressAllowlist,omitempty"`
	// +optional
	MaxConcurrentCells *int `json:"maxConcurrentCells,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:resource:scope=Namespaced

// Role is the Schema for the roles API.
type Role struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec RoleSpec `json:"spec,omitempty"`
}

// +kubebuilder:object:root=true

// RoleList contains a list of Role.
type RoleList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Role `json:"items"`
}

// RoleBindingSpec attaches a Role to every Cell matching Selector within
// the binding's namespace.
type RoleBindingSpec struct {
	RoleRef  string               `json:"roleRef"`
	Selector metav1.LabelSelector `json:"selector"`
}

// +kubebuilder:object:root=true
// +kubebuilder:resource:scope=Namespaced

// RoleBinding is the Schema for the rolebindings API.
type RoleBinding struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec RoleBindingSpec `json:"spec,omitempty"`
}

// +kubebuilder:object:root=true

// RoleBindingList contains a list of RoleBinding.
type RoleBindingList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []RoleBinding `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Role{}, &RoleList{})
	SchemeBuilder.Register(&RoleBinding{}, &RoleBindingList{})
}
