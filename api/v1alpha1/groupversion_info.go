/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package v1alpha1 contains the resource kinds of the CellForge control
// plane: Cell, Formation, Mission, Experiment, SpawnRequest, Channel, Swarm,
// Federation, KnowledgeGraph, Role, RoleBinding, and Blueprint.
// +kubebuilder:object:generate=true
// +groupName=cellforge.hortator.ai
package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/scheme"
)

var (
	// GroupVersion is the group-version used to register these objects.
	GroupVersion = schema.GroupVersion{Group: "cellforge.hortator.ai", Version: "v1alpha1"}

	// SchemeBuilder is used to add go types to the GroupVersionKind scheme.
	SchemeBuilder = &scheme.Builder{GroupVersion: GroupVersion}

	// AddToScheme adds the types in this group-version to the given scheme.
	AddToScheme = SchemeBuilder.AddToScheme
)
