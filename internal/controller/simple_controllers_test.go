/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"
	"errors"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/vectorstore"
)

func newSimpleScheme(t *testing.T) (client.Client, func(objs ...client.Object) client.Client) {
	t.Helper()
	scheme := newCellTestScheme(t)
	build := func(objs ...client.Object) client.Client {
		return fake.NewClientBuilder().
			WithScheme(scheme).
			WithObjects(objs...).
			WithStatusSubresource(&cellforgev1alpha1.Channel{}, &cellforgev1alpha1.Swarm{}, &cellforgev1alpha1.Federation{}, &cellforgev1alpha1.KnowledgeGraph{}).
			Build()
	}
	return nil, build
}

func TestChannelReconciler_ValidSpecGoesActive(t *testing.T) {
	_, build := newSimpleScheme(t)
	ch := &cellforgev1alpha1.Channel{
		ObjectMeta: metav1.ObjectMeta{Name: "c1", Namespace: "ns"},
		Spec:       cellforgev1alpha1.ChannelSpec{SubjectPrefix: "team.alpha"},
	}
	fc := build(ch)
	r := &ChannelReconciler{Client: fc, Recorder: record.NewFakeRecorder(5)}

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKey{Namespace: "ns", Name: "c1"}})
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	got := &cellforgev1alpha1.Channel{}
	if err := fc.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "c1"}, got); err != nil {
		t.Fatalf("get channel: %v", err)
	}
	if got.Status.Phase != cellforgev1alpha1.SimplePhaseActive {
		t.Errorf("phase = %v, want Active", got.Status.Phase)
	}
}

func TestChannelReconciler_MissingPrefixFails(t *testing.T) {
	_, build := newSimpleScheme(t)
	ch := &cellforgev1alpha1.Channel{ObjectMeta: metav1.ObjectMeta{Name: "c2", Namespace: "ns"}}
	fc := build(ch)
	r := &ChannelReconciler{Client: fc, Recorder: record.NewFakeRecorder(5)}

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKey{Namespace: "ns", Name: "c2"}})
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	got := &cellforgev1alpha1.Channel{}
	if err := fc.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "c2"}, got); err != nil {
		t.Fatalf("get channel: %v", err)
	}
	if got.Status.Phase != cellforgev1alpha1.SimplePhaseFailed {
		t.Errorf("phase = %v, want Failed", got.Status.Phase)
	}
}

func TestSwarmReconciler_CountsReadyFormations(t *testing.T) {
	_, build := newSimpleScheme(t)
	swarm := &cellforgev1alpha1.Swarm{
		ObjectMeta: metav1.ObjectMeta{Name: "s1", Namespace: "ns"},
		Spec:       cellforgev1alpha1.SwarmSpec{Replicas: 2},
	}
	f1 := &cellforgev1alpha1.Formation{
		ObjectMeta: metav1.ObjectMeta{Name: "f1", Namespace: "ns", Labels: map[string]string{"swarm": "s1"}},
		Status:     cellforgev1alpha1.FormationStatus{Phase: cellforgev1alpha1.FormationPhaseRunning},
	}
	f2 := &cellforgev1alpha1.Formation{
		ObjectMeta: metav1.ObjectMeta{Name: "f2", Namespace: "ns", Labels: map[string]string{"swarm": "s1"}},
		Status:     cellforgev1alpha1.FormationStatus{Phase: cellforgev1alpha1.FormationPhasePending},
	}
	fc := build(swarm, f1, f2)
	r := &SwarmReconciler{Client: fc, Recorder: record.NewFakeRecorder(5)}

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKey{Namespace: "ns", Name: "s1"}})
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	got := &cellforgev1alpha1.Swarm{}
	if err := fc.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "s1"}, got); err != nil {
		t.Fatalf("get swarm: %v", err)
	}
	if got.Status.ReadyReplicas != 1 {
		t.Errorf("readyReplicas = %d, want 1", got.Status.ReadyReplicas)
	}
	if got.Status.Phase != cellforgev1alpha1.SimplePhasePending {
		t.Errorf("phase = %v, want Pending (1 of 2 ready)", got.Status.Phase)
	}
}

func TestFederationReconciler_OverBudgetFails(t *testing.T) {
	_, build := newSimpleScheme(t)
	fed := &cellforgev1alpha1.Federation{
		ObjectMeta: metav1.ObjectMeta{Name: "fed1", Namespace: "ns"},
		Spec:       cellforgev1alpha1.FederationSpec{Members: []string{"f1"}, SharedBudget: "1.00"},
	}
	f1 := &cellforgev1alpha1.Formation{
		ObjectMeta: metav1.ObjectMeta{Name: "f1", Namespace: "ns"},
		Status:     cellforgev1alpha1.FormationStatus{TotalCost: "5.00"},
	}
	fc := build(fed, f1)
	r := &FederationReconciler{Client: fc, Recorder: record.NewFakeRecorder(5)}

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKey{Namespace: "ns", Name: "fed1"}})
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	got := &cellforgev1alpha1.Federation{}
	if err := fc.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "fed1"}, got); err != nil {
		t.Fatalf("get federation: %v", err)
	}
	if got.Status.Phase != cellforgev1alpha1.SimplePhaseFailed {
		t.Errorf("phase = %v, want Failed", got.Status.Phase)
	}
}

func TestKnowledgeGraphReconciler_DialErrorFails(t *testing.T) {
	_, build := newSimpleScheme(t)
	kg := &cellforgev1alpha1.KnowledgeGraph{
		ObjectMeta: metav1.ObjectMeta{Name: "kg1", Namespace: "ns"},
		Spec:       cellforgev1alpha1.KnowledgeGraphSpec{Provider: "qdrant", Collection: "docs", Dimension: 128},
	}
	fc := build(kg)
	r := &KnowledgeGraphReconciler{
		Client: fc,
		Dial: func(provider, endpoint string, opts ...vectorstore.Option) (vectorstore.Store, error) {
			return nil, errors.New("dial failed")
		},
	}

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKey{Namespace: "ns", Name: "kg1"}})
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	got := &cellforgev1alpha1.KnowledgeGraph{}
	if err := fc.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "kg1"}, got); err != nil {
		t.Fatalf("get knowledge graph: %v", err)
	}
	if got.Status.Phase != cellforgev1alpha1.SimplePhaseFailed {
		t.Errorf("phase = %v, want Failed", got.Status.Phase)
	}
}
