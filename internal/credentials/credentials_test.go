/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package credentials

import (
	"context"
	"testing"
)

func TestGenerateCredentials_Permissions(t *testing.T) {
	s := NewStore()
	rec, err := s.GenerateCredentials(context.Background(), "cell-a", "ns", []string{"cell-b", "cell-c", "cell-b"})
	if err != nil {
		t.Fatalf("GenerateCredentials() error: %v", err)
	}
	if len(rec.Password) != passwordLength {
		t.Errorf("password length = %d, want %d", len(rec.Password), passwordLength)
	}
	if len(rec.Perms.Subscribe) != 1 || rec.Perms.Subscribe[0] != "cell.ns.cell-a.inbox" {
		t.Errorf("Subscribe = %v", rec.Perms.Subscribe)
	}
	wantPublish := map[string]bool{
		"cell.ns.cell-a.outbox":  true,
		"cell.events.ns.cell-a":  true,
		"cell.ns.cell-b.inbox":   true,
		"cell.ns.cell-c.inbox":   true,
	}
	if len(rec.Perms.Publish) != len(wantPublish) {
		t.Fatalf("Publish = %v, want dedup'd set of size %d", rec.Perms.Publish, len(wantPublish))
	}
	for _, p := range rec.Perms.Publish {
		if !wantPublish[p] {
			t.Errorf("unexpected publish subject %q", p)
		}
	}
}

func TestGenerateCredentials_RevokesPrior(t *testing.T) {
	s := NewStore()
	first, err := s.GenerateCredentials(context.Background(), "cell-a", "ns", nil)
	if err != nil {
		t.Fatalf("GenerateCredentials() first error: %v", err)
	}
	if !first.Active() {
		t.Fatal("first record should be active immediately after issuance")
	}

	second, err := s.GenerateCredentials(context.Background(), "cell-a", "ns", nil)
	if err != nil {
		t.Fatalf("GenerateCredentials() second error: %v", err)
	}

	if first.Active() {
		t.Error("first record should be revoked after reissuance")
	}
	if !second.Active() {
		t.Error("second record should be active")
	}
	if first.Password == second.Password {
		t.Error("reissued password should differ from the revoked one")
	}
}

func TestValidateAccess(t *testing.T) {
	s := NewStore()
	if _, err := s.GenerateCredentials(context.Background(), "cell-a", "ns", []string{"cell-b"}); err != nil {
		t.Fatalf("GenerateCredentials() error: %v", err)
	}

	cases := []struct {
		name    string
		subject string
		op      Op
		want    bool
	}{
		{"subscribe own inbox", "cell.ns.cell-a.inbox", OpSubscribe, true},
		{"subscribe other inbox denied", "cell.ns.cell-b.inbox", OpSubscribe, false},
		{"publish own outbox", "cell.ns.cell-a.outbox", OpPublish, true},
		{"publish peer inbox", "cell.ns.cell-b.inbox", OpPublish, true},
		{"publish unrelated inbox denied", "cell.ns.cell-z.inbox", OpPublish, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.ValidateAccess("cell-a", tc.subject, tc.op)
			if err != nil {
				t.Fatalf("ValidateAccess() error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ValidateAccess(%q, %q) = %v, want %v", tc.subject, tc.op, got, tc.want)
			}
		})
	}
}

func TestValidateAccess_NoActiveCredential(t *testing.T) {
	s := NewStore()
	if _, err := s.ValidateAccess("unknown-cell", "cell.ns.unknown-cell.inbox", OpSubscribe); err == nil {
		t.Error("expected error for cell with no active credential")
	}
}
