/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"testing"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

func TestDispatchKey(t *testing.T) {
	k1 := DispatchKey("ns", "m1", 1)
	k2 := DispatchKey("ns", "m1", 1)
	k3 := DispatchKey("ns", "m1", 2)
	k4 := DispatchKey("ns", "m2", 1)

	if k1 != k2 {
		t.Error("same namespace+mission+attempt should produce same key")
	}
	if k1 == k3 {
		t.Error("different attempt should produce different key")
	}
	if k1 == k4 {
		t.Error("different mission should produce different key")
	}
	if len(k1) != 64 {
		t.Errorf("expected SHA-256 hex (64 chars), got %d chars", len(k1))
	}
}

func TestDispatchCache_SeenMarksAndReports(t *testing.T) {
	c := NewDispatchCache(DispatchCacheConfig{Enabled: true, TTL: time.Minute, MaxEntries: 10})
	key := DispatchKey("ns", "m1", 1)

	if c.Seen(key) {
		t.Error("expected first Seen() to report unseen")
	}
	if !c.Seen(key) {
		t.Error("expected second Seen() to report already dispatched")
	}
}

func TestDispatchCache_Disabled(t *testing.T) {
	c := NewDispatchCache(DispatchCacheConfig{Enabled: false})
	key := DispatchKey("ns", "m1", 1)

	if c.Seen(key) {
		t.Error("disabled cache should never report seen")
	}
	if c.Seen(key) {
		t.Error("disabled cache should never report seen")
	}
	if c.Len() != 0 {
		t.Errorf("disabled cache should have 0 entries, got %d", c.Len())
	}
}

func TestDispatchCache_TTLExpiry(t *testing.T) {
	c := NewDispatchCache(DispatchCacheConfig{Enabled: true, TTL: 10 * time.Millisecond, MaxEntries: 10})
	key := DispatchKey("ns", "m1", 1)

	if c.Seen(key) {
		t.Error("expected first Seen() to report unseen")
	}
	if !c.Seen(key) {
		t.Error("expected immediate re-check to report seen")
	}

	time.Sleep(20 * time.Millisecond)

	if c.Seen(key) {
		t.Error("expected Seen() to report unseen again after TTL expiry")
	}
}

func TestDispatchCache_LRUEviction(t *testing.T) {
	c := NewDispatchCache(DispatchCacheConfig{Enabled: true, TTL: time.Minute, MaxEntries: 3})

	for i := 0; i < 5; i++ {
		c.Seen(DispatchKey("ns", "mission"+string(rune('A'+i)), 1))
	}

	if c.Len() != 3 {
		t.Errorf("expected 3 entries after eviction, got %d", c.Len())
	}

	// The oldest two keys were evicted, so Seen() reports them as unseen again.
	if c.Seen(DispatchKey("ns", "missionA", 1)) {
		t.Error("oldest entry should have been evicted")
	}
}

func TestShouldSkipDispatchCache(t *testing.T) {
	tests := []struct {
		name   string
		ann    map[string]string
		expect bool
	}{
		{"no annotations", nil, false},
		{"empty annotations", map[string]string{}, false},
		{"no-dispatch-cache true", map[string]string{"cellforge.io/no-dispatch-cache": "true"}, true},
		{"no-dispatch-cache false", map[string]string{"cellforge.io/no-dispatch-cache": "false"}, false},
		{"other annotation", map[string]string{"other": "true"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mission := &cellforgev1alpha1.Mission{
				ObjectMeta: metav1.ObjectMeta{Annotations: tt.ann},
			}
			if got := shouldSkipDispatchCache(mission); got != tt.expect {
				t.Errorf("shouldSkipDispatchCache() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestDispatchCache_DefaultConfig(t *testing.T) {
	c := NewDispatchCache(DispatchCacheConfig{Enabled: true})

	if c.config.TTL != 10*time.Minute {
		t.Errorf("expected default TTL 10m, got %v", c.config.TTL)
	}
	if c.config.MaxEntries != 1000 {
		t.Errorf("expected default max entries 1000, got %d", c.config.MaxEntries)
	}
}
