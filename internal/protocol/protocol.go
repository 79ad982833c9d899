/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package protocol enforces named inter-cell conversation protocols as
// table-driven finite state machines, one ProtocolSession per directed
// cell pair, built in the same table-driven style as the Mission
// reconciler.
package protocol

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// State names one state in a protocol's FSM.
type State struct {
	Name     string
	Terminal bool
}

// Transition is one edge of a protocol's FSM.
type Transition struct {
	From    string
	To      string
	Trigger string
	Role    string
}

// Definition is a named protocol: its roles, states, transitions, and the
// idle timeout after which an in-progress session is abandoned.
type Definition struct {
	Name        string
	Roles       []string
	States      []State
	Transitions []Transition
	Timeout     time.Duration
}

func (d *Definition) stateByName(name string) (State, bool) {
	for _, s := range d.States {
		if s.Name == name {
			return s, true
		}
	}
	return State{}, false
}

func (d *Definition) outgoing(from string) []Transition {
	var out []Transition
	for _, tr := range d.Transitions {
		if tr.From == from {
			out = append(out, tr)
		}
	}
	return out
}

// Session is the live state of one directed cell-pair conversation under
// a named protocol.
type Session struct {
	Protocol     string
	From         string
	To           string
	State        string
	History      []string
	LastActivity time.Time
}

func (s *Session) record(trigger string) {
	s.History = append(s.History, trigger)
	s.LastActivity = time.Now()
}

// Result is the outcome of one ValidateMessage call.
type Result struct {
	Allowed       bool
	Reason        string
	ProtocolState string
}

type sessionKey struct {
	from, to, protocol string
}

// Enforcer holds the registered protocol definitions and live sessions.
type Enforcer struct {
	mu          sync.Mutex
	definitions map[string]*Definition
	sessions    map[sessionKey]*Session
	now         func() time.Time
}

// NewEnforcer returns an Enforcer pre-loaded with the built-in contract,
// deliberation, and auction protocols.
func NewEnforcer() *Enforcer {
	e := &Enforcer{
		definitions: make(map[string]*Definition),
		sessions:    make(map[sessionKey]*Session),
		now:         time.Now,
	}
	for _, d := range builtins() {
		e.Register(d)
	}
	return e
}

// Register adds or replaces a named protocol definition, so user-defined
// protocols compose with the built-ins.
func (e *Enforcer) Register(d *Definition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.definitions[d.Name] = d
}

// ValidateMessage evaluates one message against the named protocol's FSM
// for the (from, to) pair, advancing or rejecting per the protocol's
// transition table.
func (e *Enforcer) ValidateMessage(from, to, msgType, protocolName string) Result {
	if protocolName == "" {
		return Result{Allowed: true}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	def, ok := e.definitions[protocolName]
	if !ok {
		return Result{Allowed: false, Reason: fmt.Sprintf("unknown protocol %q", protocolName)}
	}

	key := sessionKey{from: from, to: to, protocol: protocolName}
	sess, ok := e.sessions[key]
	if !ok || e.isTerminal(def, sess) {
		sess = e.newSession(def, from, to)
		e.sessions[key] = sess
	}

	if def.Timeout > 0 && e.now().Sub(sess.LastActivity) > def.Timeout {
		return Result{Allowed: false, Reason: fmt.Sprintf("protocol %q session between %s and %s timed out in state %q", protocolName, from, to, sess.State)}
	}

	outgoing := def.outgoing(sess.State)
	for _, tr := range outgoing {
		if tr.Trigger == msgType {
			sess.State = tr.To
			sess.record(msgType)
			return Result{Allowed: true, ProtocolState: sess.State}
		}
	}

	allowed := make([]string, 0, len(outgoing))
	for _, tr := range outgoing {
		allowed = append(allowed, tr.Trigger)
	}
	sort.Strings(allowed)
	return Result{
		Allowed: false,
		Reason:  fmt.Sprintf("trigger %q not allowed from state %q; allowed: [%s]", msgType, sess.State, strings.Join(allowed, ", ")),
	}
}

func (e *Enforcer) isTerminal(def *Definition, sess *Session) bool {
	st, ok := def.stateByName(sess.State)
	return ok && st.Terminal
}

func (e *Enforcer) newSession(def *Definition, from, to string) *Session {
	initial := ""
	if len(def.States) > 0 {
		initial = def.States[0].Name
	}
	return &Session{
		Protocol:     def.Name,
		From:         from,
		To:           to,
		State:        initial,
		LastActivity: e.now(),
	}
}

// builtins returns the three named protocols available out of the box.
func builtins() []*Definition {
	return []*Definition{
		{
			Name:    "contract",
			Roles:   []string{"proposer", "acceptor"},
			Timeout: 10 * time.Minute,
			States: []State{
				{Name: "proposed"},
				{Name: "accepted"},
				{Name: "rejected", Terminal: true},
				{Name: "fulfilled", Terminal: true},
			},
			Transitions: []Transition{
				{From: "proposed", To: "accepted", Trigger: "accept", Role: "acceptor"},
				{From: "proposed", To: "rejected", Trigger: "reject", Role: "acceptor"},
				{From: "accepted", To: "fulfilled", Trigger: "fulfill", Role: "proposer"},
				{From: "accepted", To: "rejected", Trigger: "abandon", Role: "proposer"},
			},
		},
		{
			Name:    "deliberation",
			Roles:   []string{"chair", "participant"},
			Timeout: 30 * time.Minute,
			States: []State{
				{Name: "open"},
				{Name: "voting"},
				{Name: "decided", Terminal: true},
			},
			Transitions: []Transition{
				{From: "open", To: "voting", Trigger: "call_vote", Role: "chair"},
				{From: "voting", To: "voting", Trigger: "cast_vote", Role: "participant"},
				{From: "voting", To: "decided", Trigger: "tally", Role: "chair"},
			},
		},
		{
			Name:    "auction",
			Roles:   []string{"auctioneer", "bidder"},
			Timeout: 5 * time.Minute,
			States: []State{
				{Name: "open"},
				{Name: "bidding"},
				{Name: "closed", Terminal: true},
			},
			Transitions: []Transition{
				{From: "open", To: "bidding", Trigger: "bid", Role: "bidder"},
				{From: "bidding", To: "bidding", Trigger: "bid", Role: "bidder"},
				{From: "bidding", To: "closed", Trigger: "close", Role: "auctioneer"},
			},
		},
	}
}
