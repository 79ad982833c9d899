/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"
	"testing"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/bus"
)

type recordingBus struct {
	published []bus.Envelope
}

func (b *recordingBus) Publish(ctx context.Context, subject string, env bus.Envelope) error {
	b.published = append(b.published, env)
	return nil
}

func (b *recordingBus) Subscribe(pattern string, handler func(bus.Envelope)) (bus.Unsubscribe, error) {
	return func() error { return nil }, nil
}

func (b *recordingBus) Close() {}

func newMissionReconciler(t *testing.T, objs ...client.Object) (*MissionReconciler, client.Client, *recordingBus) {
	t.Helper()
	scheme := newCellTestScheme(t)
	fc := fake.NewClientBuilder().
		WithScheme(scheme).
		WithObjects(objs...).
		WithStatusSubresource(&cellforgev1alpha1.Mission{}).
		Build()
	rb := &recordingBus{}
	r := &MissionReconciler{
		Client:        fc,
		Scheme:        scheme,
		Recorder:      record.NewFakeRecorder(10),
		Bus:           rb,
		WorkspaceRoot: t.TempDir(),
	}
	return r, fc, rb
}

func newTestMission(name string) *cellforgev1alpha1.Mission {
	return &cellforgev1alpha1.Mission{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "ns"},
		Spec: cellforgev1alpha1.MissionSpec{
			Objective: "ship it",
			Completion: cellforgev1alpha1.CompletionSpec{
				Checks:      nil,
				MaxAttempts: 3,
				Timeout:     "30m",
			},
			Entrypoint: cellforgev1alpha1.EntrypointSpec{Cell: "worker", Message: "begin"},
		},
	}
}

func TestMissionReconciler_PendingPublishesEntrypointAndGoesRunning(t *testing.T) {
	mission := newTestMission("m1")
	r, fc, rb := newMissionReconciler(t, mission)

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKey{Namespace: "ns", Name: "m1"}})
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	if len(rb.published) != 1 {
		t.Fatalf("expected 1 published envelope, got %d", len(rb.published))
	}

	got := &cellforgev1alpha1.Mission{}
	if err := fc.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "m1"}, got); err != nil {
		t.Fatalf("get mission: %v", err)
	}
	if got.Status.Phase != cellforgev1alpha1.MissionPhaseRunning {
		t.Errorf("phase = %v, want Running", got.Status.Phase)
	}
	if got.Status.Attempt != 1 {
		t.Errorf("attempt = %d, want 1", got.Status.Attempt)
	}
	if len(got.Status.History) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(got.Status.History))
	}
}

func TestMissionReconciler_RunningNoChecksSucceedsImmediately(t *testing.T) {
	now := metav1.Now()
	mission := newTestMission("m2")
	mission.Status = cellforgev1alpha1.MissionStatus{
		Phase:     cellforgev1alpha1.MissionPhaseRunning,
		Attempt:   1,
		StartedAt: &now,
	}
	r, fc, _ := newMissionReconciler(t, mission)

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKey{Namespace: "ns", Name: "m2"}})
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	got := &cellforgev1alpha1.Mission{}
	if err := fc.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "m2"}, got); err != nil {
		t.Fatalf("get mission: %v", err)
	}
	if got.Status.Phase != cellforgev1alpha1.MissionPhaseSucceeded {
		t.Errorf("phase = %v, want Succeeded", got.Status.Phase)
	}
}

func TestMissionReconciler_TimeoutRetriesWhenAttemptsRemain(t *testing.T) {
	started := metav1.NewTime(time.Now().Add(-time.Hour))
	mission := newTestMission("m3")
	mission.Spec.Completion.Timeout = "30m"
	mission.Status = cellforgev1alpha1.MissionStatus{
		Phase:     cellforgev1alpha1.MissionPhaseRunning,
		Attempt:   1,
		StartedAt: &started,
		History:   []cellforgev1alpha1.MissionAttempt{{Attempt: 1, StartedAt: started}},
	}
	r, fc, _ := newMissionReconciler(t, mission)

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKey{Namespace: "ns", Name: "m3"}})
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	got := &cellforgev1alpha1.Mission{}
	if err := fc.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "m3"}, got); err != nil {
		t.Fatalf("get mission: %v", err)
	}
	if got.Status.Phase != cellforgev1alpha1.MissionPhasePending {
		t.Errorf("phase = %v, want Pending", got.Status.Phase)
	}
	if got.Status.History[0].Reason != "timeout" {
		t.Errorf("history reason = %q, want %q", got.Status.History[0].Reason, "timeout")
	}
}

func TestMissionReconciler_TimeoutFailsWhenAttemptsExhausted(t *testing.T) {
	started := metav1.NewTime(time.Now().Add(-time.Hour))
	mission := newTestMission("m4")
	mission.Spec.Completion.Timeout = "30m"
	mission.Spec.Completion.MaxAttempts = 1
	mission.Status = cellforgev1alpha1.MissionStatus{
		Phase:     cellforgev1alpha1.MissionPhaseRunning,
		Attempt:   1,
		StartedAt: &started,
	}
	r, fc, _ := newMissionReconciler(t, mission)

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKey{Namespace: "ns", Name: "m4"}})
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	got := &cellforgev1alpha1.Mission{}
	if err := fc.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "m4"}, got); err != nil {
		t.Fatalf("get mission: %v", err)
	}
	if got.Status.Phase != cellforgev1alpha1.MissionPhaseFailed {
		t.Errorf("phase = %v, want Failed", got.Status.Phase)
	}
}

func TestMissionReconciler_OverBudgetFails(t *testing.T) {
	now := metav1.Now()
	mission := newTestMission("m5")
	mission.Spec.Budget = "1.00"
	mission.Status = cellforgev1alpha1.MissionStatus{
		Phase:     cellforgev1alpha1.MissionPhaseRunning,
		Attempt:   1,
		StartedAt: &now,
		Cost:      "1.50",
	}
	r, fc, _ := newMissionReconciler(t, mission)

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKey{Namespace: "ns", Name: "m5"}})
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	got := &cellforgev1alpha1.Mission{}
	if err := fc.Get(context.Background(), client.ObjectKey{Namespace: "ns", Name: "m5"}, got); err != nil {
		t.Fatalf("get mission: %v", err)
	}
	if got.Status.Phase != cellforgev1alpha1.MissionPhaseFailed {
		t.Errorf("phase = %v, want Failed", got.Status.Phase)
	}
}

func TestMissionReconciler_DispatchCacheSkipsDuplicatePublish(t *testing.T) {
	mission := newTestMission("m6")
	r, fc, rb := newMissionReconciler(t, mission)
	r.DispatchCache = NewDispatchCache(DispatchCacheConfig{Enabled: true, TTL: time.Hour})

	ctx := context.Background()
	req := ctrl.Request{NamespacedName: client.ObjectKey{Namespace: "ns", Name: "m6"}}
	if _, err := r.Reconcile(ctx, req); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if len(rb.published) != 1 {
		t.Fatalf("expected 1 published envelope after first reconcile, got %d", len(rb.published))
	}

	// Reset phase back to Pending with the same attempt number to simulate a
	// reconcile storm re-entering handlePending before Running was observed.
	got := &cellforgev1alpha1.Mission{}
	if err := fc.Get(ctx, client.ObjectKey{Namespace: "ns", Name: "m6"}, got); err != nil {
		t.Fatalf("get mission: %v", err)
	}
	got.Status.Phase = cellforgev1alpha1.MissionPhasePending
	got.Status.Attempt = 0
	if err := fc.Status().Update(ctx, got); err != nil {
		t.Fatalf("reset status: %v", err)
	}

	if _, err := r.Reconcile(ctx, req); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if len(rb.published) != 1 {
		t.Errorf("expected dispatch cache to suppress the duplicate publish, got %d total publishes", len(rb.published))
	}
}

func TestParseMissionTimeout(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"30m", false},
		{"1h30m", false},
		{"45s", false},
		{"1h30m15s", false},
		{"", true},
		{"0s", true},
		{"notaduration", true},
		{"10d", true},
		{"30m1h", true},
	}
	for _, c := range cases {
		_, err := parseMissionTimeout(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("parseMissionTimeout(%q) error = %v, wantErr %v", c.in, err, c.wantErr)
		}
	}
}
