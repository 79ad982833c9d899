/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package credentials issues and validates per-cell NATS subject
// permissions, following an "ensure exists, else (re)create" idiom
// applied to a revoke-then-issue credential record instead of a
// Kubernetes object.
package credentials

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/hortator-ai/cellforge/internal/bus"
)

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
const passwordLength = 32

// Permissions is the subscribe/publish subject set granted to a cell.
type Permissions struct {
	Subscribe []string
	Publish   []string
}

// Record is one issued credential, active or revoked.
type Record struct {
	CellID    string
	Namespace string
	Password  string
	Perms     Permissions
	IssuedAt  time.Time
	RevokedAt *time.Time
}

// Active reports whether this record has not been revoked.
func (r Record) Active() bool { return r.RevokedAt == nil }

// Op is a bus operation a subject permission check is evaluated against.
type Op string

const (
	OpSubscribe Op = "subscribe"
	OpPublish   Op = "publish"
)

// Store issues and revokes credential records: an in-memory map guarded by
// a sync.RWMutex, refreshed/replaced wholesale rather than read through a
// database on every access.
type Store struct {
	mu      sync.RWMutex
	active  map[string]*Record   // cellID -> current active record
	history map[string][]*Record // cellID -> all records, newest last
}

// NewStore constructs an empty credential store.
func NewStore() *Store {
	return &Store{
		active:  make(map[string]*Record),
		history: make(map[string][]*Record),
	}
}

// GenerateCredentials revokes any active record for cellID and issues a
// fresh one. topologyPeers is the deduplicated set of cells this cell may
// publish to, per the Formation's route table.
func (s *Store) GenerateCredentials(ctx context.Context, cellID, namespace string, topologyPeers []string) (*Record, error) {
	password, err := randomPassword(passwordLength)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.active[cellID]; ok {
		now := time.Now()
		prior.RevokedAt = &now
	}

	perms := buildPermissions(namespace, cellID, topologyPeers)
	rec := &Record{
		CellID:    cellID,
		Namespace: namespace,
		Password:  password,
		Perms:     perms,
		IssuedAt:  time.Now(),
	}
	s.active[cellID] = rec
	s.history[cellID] = append(s.history[cellID], rec)
	return rec, nil
}

// buildPermissions computes the subscribe/publish subject sets per the
// topology/credential semantics: subscribe to the cell's own inbox;
// publish to its own outbox and event subject, plus each peer's inbox,
// deduplicated.
func buildPermissions(namespace, cellID string, topologyPeers []string) Permissions {
	publish := []string{bus.OutboxSubject(namespace, cellID), bus.EventsSubject(namespace, cellID)}
	seen := make(map[string]bool, len(topologyPeers))
	for _, peer := range topologyPeers {
		subj := bus.InboxSubject(namespace, peer)
		if seen[subj] {
			continue
		}
		seen[subj] = true
		publish = append(publish, subj)
	}
	return Permissions{
		Subscribe: []string{bus.InboxSubject(namespace, cellID)},
		Publish:   publish,
	}
}

// ValidateAccess reports whether cellID's active credential record permits
// op against subject.
func (s *Store) ValidateAccess(cellID, subject string, op Op) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.active[cellID]
	if !ok || !rec.Active() {
		return false, fmt.Errorf("no active credential for cell %q", cellID)
	}

	var list []string
	switch op {
	case OpSubscribe:
		list = rec.Perms.Subscribe
	case OpPublish:
		list = rec.Perms.Publish
	default:
		return false, fmt.Errorf("unknown op %q", op)
	}
	return bus.MatchAny(list, subject), nil
}

func randomPassword(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range raw {
		out[i] = passwordAlphabet[int(b)%len(passwordAlphabet)]
	}
	return string(out), nil
}
