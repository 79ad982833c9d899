/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package recursion

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/budget"
)

func newScheme() *runtime.Scheme {
	s := runtime.NewScheme()
	_ = cellforgev1alpha1.AddToScheme(s)
	return s
}

func newLedger(t *testing.T) *budget.Ledger {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return budget.New(sqlx.NewDb(db, "sqlmock"))
}

func makeCell(name string, recursionSpec cellforgev1alpha1.RecursionSpec) *cellforgev1alpha1.Cell {
	return &cellforgev1alpha1.Cell{
		ObjectMeta: metav1.ObjectMeta{Namespace: "ns", Name: name},
		Spec: cellforgev1alpha1.CellSpec{
			Recursion: recursionSpec,
		},
	}
}

func TestValidateSpawn_PolicyDisabled(t *testing.T) {
	scheme := newScheme()
	parent := makeCell("parent", cellforgev1alpha1.RecursionSpec{SpawnPolicy: cellforgev1alpha1.SpawnPolicyDisabled})
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(parent).Build()
	v := &Validator{Client: fc, Ledger: newLedger(t)}

	res, err := v.ValidateSpawn(context.Background(), parent, SpawnInput{})
	if err != nil {
		t.Fatalf("ValidateSpawn() error: %v", err)
	}
	if res.Allowed {
		t.Error("expected denied for disabled policy")
	}
}

func TestValidateSpawn_BlueprintOnlyMissingRef(t *testing.T) {
	scheme := newScheme()
	parent := makeCell("parent", cellforgev1alpha1.RecursionSpec{SpawnPolicy: cellforgev1alpha1.SpawnPolicyBlueprintOnly})
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(parent).Build()
	v := &Validator{Client: fc, Ledger: newLedger(t)}

	res, err := v.ValidateSpawn(context.Background(), parent, SpawnInput{})
	if err != nil {
		t.Fatalf("ValidateSpawn() error: %v", err)
	}
	if res.Allowed {
		t.Error("expected denied for blueprint_only without blueprintRef")
	}
}

func TestValidateSpawn_ApprovalRequiredEnqueuesSpawnRequest(t *testing.T) {
	scheme := newScheme()
	parent := makeCell("parent", cellforgev1alpha1.RecursionSpec{SpawnPolicy: cellforgev1alpha1.SpawnPolicyApprovalRequired})
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(parent).Build()
	v := &Validator{Client: fc, Ledger: newLedger(t)}

	res, err := v.ValidateSpawn(context.Background(), parent, SpawnInput{Reason: "need a helper"})
	if err != nil {
		t.Fatalf("ValidateSpawn() error: %v", err)
	}
	if res.Allowed || !res.Pending {
		t.Errorf("expected {Allowed:false, Pending:true}, got %+v", res)
	}

	list := &cellforgev1alpha1.SpawnRequestList{}
	if err := fc.List(context.Background(), list, client.InNamespace("ns")); err != nil {
		t.Fatalf("List(SpawnRequest): %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("expected 1 SpawnRequest, got %d", len(list.Items))
	}
	if list.Items[0].Spec.RequestorCellID != "parent" {
		t.Errorf("RequestorCellID = %q, want parent", list.Items[0].Spec.RequestorCellID)
	}
}

func TestValidateSpawn_DepthExceeded(t *testing.T) {
	scheme := newScheme()
	parent := makeCell("parent", cellforgev1alpha1.RecursionSpec{SpawnPolicy: cellforgev1alpha1.SpawnPolicyOpen, MaxDepth: 0})
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(parent).Build()
	v := &Validator{Client: fc, Ledger: newLedger(t)}

	res, err := v.ValidateSpawn(context.Background(), parent, SpawnInput{})
	if err != nil {
		t.Fatalf("ValidateSpawn() error: %v", err)
	}
	if res.Allowed {
		t.Error("expected denied: parent is at depth 0, which already meets maxDepth 0")
	}
}

func TestValidateSpawn_DepthAllowedAtBoundary(t *testing.T) {
	scheme := newScheme()
	parent := makeCell("parent", cellforgev1alpha1.RecursionSpec{SpawnPolicy: cellforgev1alpha1.SpawnPolicyOpen, MaxDepth: 1, MaxDescendants: 10})
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(parent).Build()
	v := &Validator{Client: fc, Ledger: newLedger(t), MaxPlatformCells: 100}

	res, err := v.ValidateSpawn(context.Background(), parent, SpawnInput{})
	if err != nil {
		t.Fatalf("ValidateSpawn() error: %v", err)
	}
	if !res.Allowed {
		t.Errorf("expected allowed: parent at depth 0 < maxDepth 1, the spawned child would land at depth 1 == maxDepth, got denied: %s", res.Reason)
	}
}

func TestValidateSpawn_DescendantsExceeded(t *testing.T) {
	scheme := newScheme()
	recSpec := cellforgev1alpha1.RecursionSpec{SpawnPolicy: cellforgev1alpha1.SpawnPolicyOpen, MaxDepth: 10, MaxDescendants: 1}
	root := makeCell("root", recSpec)
	child := &cellforgev1alpha1.Cell{
		ObjectMeta: metav1.ObjectMeta{Namespace: "ns", Name: "child"},
		Spec:       cellforgev1alpha1.CellSpec{ParentRef: "root", Recursion: recSpec},
	}
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(root, child).Build()
	v := &Validator{Client: fc, Ledger: newLedger(t)}

	res, err := v.ValidateSpawn(context.Background(), root, SpawnInput{})
	if err != nil {
		t.Fatalf("ValidateSpawn() error: %v", err)
	}
	if res.Allowed {
		t.Error("expected denied: root already has 1 descendant == maxDescendants")
	}
}

func TestValidateSpawn_Allowed(t *testing.T) {
	scheme := newScheme()
	recSpec := cellforgev1alpha1.RecursionSpec{SpawnPolicy: cellforgev1alpha1.SpawnPolicyOpen, MaxDepth: 10, MaxDescendants: 10}
	parent := makeCell("parent", recSpec)
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(parent).Build()
	v := &Validator{Client: fc, Ledger: newLedger(t), MaxPlatformCells: 100}

	res, err := v.ValidateSpawn(context.Background(), parent, SpawnInput{})
	if err != nil {
		t.Fatalf("ValidateSpawn() error: %v", err)
	}
	if !res.Allowed {
		t.Errorf("expected allowed, got denied: %s", res.Reason)
	}
}

func TestValidateSpawn_PlatformCapReached(t *testing.T) {
	scheme := newScheme()
	recSpec := cellforgev1alpha1.RecursionSpec{SpawnPolicy: cellforgev1alpha1.SpawnPolicyOpen, MaxDepth: 10, MaxDescendants: 10}
	parent := makeCell("parent", recSpec)
	other := makeCell("other", recSpec)
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(parent, other).Build()
	v := &Validator{Client: fc, Ledger: newLedger(t), MaxPlatformCells: 2}

	res, err := v.ValidateSpawn(context.Background(), parent, SpawnInput{})
	if err != nil {
		t.Fatalf("ValidateSpawn() error: %v", err)
	}
	if res.Allowed {
		t.Error("expected denied: platform already has 2 non-terminal cells == cap")
	}
}
