/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"context"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

func TestDeleteFormationBestEffort(t *testing.T) {
	origClient := k8sClient
	origNamespace := namespace
	defer func() {
		k8sClient = origClient
		namespace = origNamespace
	}()
	namespace = "default"

	t.Run("deletes an existing formation", func(t *testing.T) {
		formation := &cellforgev1alpha1.Formation{
			ObjectMeta: metav1.ObjectMeta{Name: "fix-api", Namespace: "default"},
		}
		k8sClient = fake.NewClientBuilder().WithScheme(scheme).WithObjects(formation).Build()

		deleteFormationBestEffort(context.Background(), "fix-api")

		got := &cellforgev1alpha1.Formation{}
		err := k8sClient.Get(context.Background(), client.ObjectKey{Namespace: "default", Name: "fix-api"}, got)
		if err == nil {
			t.Error("expected formation to be deleted, but it still exists")
		}
	})

	t.Run("swallows not-found without error", func(t *testing.T) {
		k8sClient = fake.NewClientBuilder().WithScheme(scheme).Build()
		// Must not panic and must not error out loudly for a missing formation.
		deleteFormationBestEffort(context.Background(), "does-not-exist")
	})

	t.Run("no-op on empty name", func(t *testing.T) {
		k8sClient = fake.NewClientBuilder().WithScheme(scheme).Build()
		deleteFormationBestEffort(context.Background(), "")
	})
}

func TestDeleteMission_CascadesFormationByDefault(t *testing.T) {
	origClient := k8sClient
	origNamespace := namespace
	origForce := deleteForce
	origKeepFormation := deleteFormation
	defer func() {
		k8sClient = origClient
		namespace = origNamespace
		deleteForce = origForce
		deleteFormation = origKeepFormation
	}()
	namespace = "default"
	deleteForce = true
	deleteFormation = false

	mission := &cellforgev1alpha1.Mission{
		ObjectMeta: metav1.ObjectMeta{Name: "fix-api", Namespace: "default"},
		Spec:       cellforgev1alpha1.MissionSpec{FormationRef: "fix-api"},
	}
	formation := &cellforgev1alpha1.Formation{
		ObjectMeta: metav1.ObjectMeta{Name: "fix-api", Namespace: "default"},
	}
	k8sClient = fake.NewClientBuilder().WithScheme(scheme).WithObjects(mission, formation).Build()

	if err := deleteMission(context.Background(), "fix-api"); err != nil {
		t.Fatalf("deleteMission() error = %v", err)
	}

	if err := k8sClient.Get(context.Background(), client.ObjectKey{Namespace: "default", Name: "fix-api"}, &cellforgev1alpha1.Mission{}); err == nil {
		t.Error("expected mission to be deleted")
	}
	if err := k8sClient.Get(context.Background(), client.ObjectKey{Namespace: "default", Name: "fix-api"}, &cellforgev1alpha1.Formation{}); err == nil {
		t.Error("expected formation to be cascade-deleted")
	}
}

func TestDeleteMission_KeepFormation(t *testing.T) {
	origClient := k8sClient
	origNamespace := namespace
	origForce := deleteForce
	origKeepFormation := deleteFormation
	defer func() {
		k8sClient = origClient
		namespace = origNamespace
		deleteForce = origForce
		deleteFormation = origKeepFormation
	}()
	namespace = "default"
	deleteForce = true
	deleteFormation = true

	mission := &cellforgev1alpha1.Mission{
		ObjectMeta: metav1.ObjectMeta{Name: "fix-api", Namespace: "default"},
		Spec:       cellforgev1alpha1.MissionSpec{FormationRef: "fix-api"},
	}
	formation := &cellforgev1alpha1.Formation{
		ObjectMeta: metav1.ObjectMeta{Name: "fix-api", Namespace: "default"},
	}
	k8sClient = fake.NewClientBuilder().WithScheme(scheme).WithObjects(mission, formation).Build()

	if err := deleteMission(context.Background(), "fix-api"); err != nil {
		t.Fatalf("deleteMission() error = %v", err)
	}

	if err := k8sClient.Get(context.Background(), client.ObjectKey{Namespace: "default", Name: "fix-api"}, &cellforgev1alpha1.Formation{}); err != nil {
		t.Errorf("expected formation to survive with --keep-formation, got error: %v", err)
	}
}
