/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"encoding/json"
	"net/http"

	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/recursion"
)

// SpawnAdmissionHandler exposes the recursion validator over HTTP so a
// running Cell's agent loop can ask "may I spawn this child" before
// creating a Cell or SpawnRequest directly, instead of every caller
// re-implementing the policy/depth/descendant/budget/platform evaluation.
type SpawnAdmissionHandler struct {
	Client    client.Client
	Validator *recursion.Validator
}

type spawnValidateRequest struct {
	ParentNamespace string                     `json:"parentNamespace"`
	ParentName      string                     `json:"parentName"`
	RequestedSpec   cellforgev1alpha1.CellSpec `json:"requestedSpec"`
	Budget          *float64                   `json:"budget,omitempty"`
	Reason          string                     `json:"reason,omitempty"`
}

// ServeHTTP handles POST /spawn/validate.
func (h *SpawnAdmissionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req spawnValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ParentNamespace == "" || req.ParentName == "" {
		http.Error(w, "parentNamespace and parentName are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	parent := &cellforgev1alpha1.Cell{}
	if err := h.Client.Get(ctx, client.ObjectKey{Namespace: req.ParentNamespace, Name: req.ParentName}, parent); err != nil {
		http.Error(w, "fetch parent cell: "+err.Error(), http.StatusNotFound)
		return
	}

	result, err := h.Validator.ValidateSpawn(ctx, parent, recursion.SpawnInput{
		RequestedSpec: req.RequestedSpec,
		Budget:        req.Budget,
		Reason:        req.Reason,
	})
	if err != nil {
		http.Error(w, "validate spawn: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}
