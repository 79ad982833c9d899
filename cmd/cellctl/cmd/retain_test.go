/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"context"
	"os"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

func TestRunRetain_PatchesFormationAnnotations(t *testing.T) {
	origClient := k8sClient
	origReason := retainReason
	defer func() {
		k8sClient = origClient
		retainReason = origReason
		_ = os.Unsetenv("CELLFORGE_FORMATION_NAME")
		_ = os.Unsetenv("CELLFORGE_FORMATION_NAMESPACE")
	}()

	t.Setenv("CELLFORGE_FORMATION_NAME", "fix-api")
	t.Setenv("CELLFORGE_FORMATION_NAMESPACE", "agents")
	retainReason = "contains training checkpoints"

	formation := &cellforgev1alpha1.Formation{
		ObjectMeta: metav1.ObjectMeta{Name: "fix-api", Namespace: "agents"},
	}
	k8sClient = fake.NewClientBuilder().WithScheme(scheme).WithObjects(formation).Build()

	if err := runRetain(retainCmd, nil); err != nil {
		t.Fatalf("runRetain() error = %v", err)
	}

	got := &cellforgev1alpha1.Formation{}
	if err := k8sClient.Get(context.Background(), client.ObjectKey{Namespace: "agents", Name: "fix-api"}, got); err != nil {
		t.Fatalf("getting patched formation: %v", err)
	}
	if got.Annotations["cellforge.hortator.ai/retain-workspace"] != "true" {
		t.Errorf("retain-workspace annotation = %q, want true", got.Annotations["cellforge.hortator.ai/retain-workspace"])
	}
	if got.Annotations["cellforge.hortator.ai/retain-reason"] != "contains training checkpoints" {
		t.Errorf("retain-reason annotation = %q", got.Annotations["cellforge.hortator.ai/retain-reason"])
	}
}

func TestRunRetain_RequiresFormationNameEnv(t *testing.T) {
	origClient := k8sClient
	defer func() {
		k8sClient = origClient
		_ = os.Unsetenv("CELLFORGE_FORMATION_NAME")
	}()
	_ = os.Unsetenv("CELLFORGE_FORMATION_NAME")

	k8sClient = fake.NewClientBuilder().WithScheme(scheme).Build()

	if err := runRetain(retainCmd, nil); err == nil {
		t.Fatal("expected error when CELLFORGE_FORMATION_NAME is unset")
	}
}
