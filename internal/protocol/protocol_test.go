/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package protocol

import (
	"testing"
	"time"
)

func TestValidateMessage_NoProtocolIsFreeForm(t *testing.T) {
	e := NewEnforcer()
	res := e.ValidateMessage("a", "b", "anything", "")
	if !res.Allowed {
		t.Errorf("expected free-form message to be allowed, got %+v", res)
	}
}

func TestValidateMessage_UnknownProtocolDenied(t *testing.T) {
	e := NewEnforcer()
	res := e.ValidateMessage("a", "b", "propose", "not-a-real-protocol")
	if res.Allowed {
		t.Error("expected unknown protocol to be denied")
	}
}

func TestValidateMessage_ContractHappyPath(t *testing.T) {
	e := NewEnforcer()

	res := e.ValidateMessage("a", "b", "accept", "contract")
	if !res.Allowed || res.ProtocolState != "accepted" {
		t.Fatalf("accept: got %+v", res)
	}

	res = e.ValidateMessage("a", "b", "fulfill", "contract")
	if !res.Allowed || res.ProtocolState != "fulfilled" {
		t.Fatalf("fulfill: got %+v", res)
	}
}

func TestValidateMessage_DisallowedTriggerListsAllowed(t *testing.T) {
	e := NewEnforcer()
	res := e.ValidateMessage("a", "b", "fulfill", "contract")
	if res.Allowed {
		t.Fatal("expected fulfill to be rejected from the initial 'proposed' state")
	}
	if res.Reason == "" {
		t.Error("expected a reason listing allowed triggers")
	}
}

func TestValidateMessage_TerminalStateGetsFreshSession(t *testing.T) {
	e := NewEnforcer()

	res := e.ValidateMessage("a", "b", "reject", "contract")
	if !res.Allowed || res.ProtocolState != "rejected" {
		t.Fatalf("reject: got %+v", res)
	}

	// rejected is terminal: the next validation for the same pair must
	// start a fresh session back at the initial state.
	res = e.ValidateMessage("a", "b", "accept", "contract")
	if !res.Allowed || res.ProtocolState != "accepted" {
		t.Fatalf("expected fresh session to accept 'accept' from 'proposed', got %+v", res)
	}
}

func TestValidateMessage_TimedOutSessionDenied(t *testing.T) {
	e := NewEnforcer()
	fakeNow := time.Now()
	e.now = func() time.Time { return fakeNow }

	res := e.ValidateMessage("a", "b", "accept", "contract")
	if !res.Allowed {
		t.Fatalf("setup accept: got %+v", res)
	}

	e.now = func() time.Time { return fakeNow.Add(20 * time.Minute) }
	res = e.ValidateMessage("a", "b", "fulfill", "contract")
	if res.Allowed {
		t.Error("expected timed-out session to deny further messages")
	}
}

func TestValidateMessage_SessionsAreScopedPerPair(t *testing.T) {
	e := NewEnforcer()
	if res := e.ValidateMessage("a", "b", "accept", "contract"); !res.Allowed {
		t.Fatalf("a->b accept: got %+v", res)
	}
	// a->c is a distinct pair and must start from "proposed" independently.
	res := e.ValidateMessage("a", "c", "reject", "contract")
	if !res.Allowed || res.ProtocolState != "rejected" {
		t.Errorf("a->c reject: got %+v", res)
	}
}
