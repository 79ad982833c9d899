/*
Copyright (c) 2026 GeneClackman
SPDX-License-Identifier: MIT
*/

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	ctrl "sigs.k8s.io/controller-runtime/pkg/log"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

var formationGVR = schema.GroupVersionResource{
	Group:    "cellforge.hortator.ai",
	Version:  "v1alpha1",
	Resource: "formations",
}

var missionGVR = schema.GroupVersionResource{
	Group:    "cellforge.hortator.ai",
	Version:  "v1alpha1",
	Resource: "missions",
}

var blueprintGVR = schema.GroupVersionResource{
	Group:    "cellforge.hortator.ai",
	Version:  "v1alpha1",
	Resource: "blueprints",
}

// Handler serves the OpenAI-compatible API endpoints.
type Handler struct {
	Namespace  string
	Clientset  kubernetes.Interface
	DynClient  dynamic.Interface
	AuthSecret string

	// CellImage is the workload image used for every gateway-created Cell.
	CellImage string

	// Cached auth keys with TTL to avoid K8s API call on every HTTP request.
	authKeys map[string]bool
	authMu   sync.RWMutex
	authAt   time.Time
	authTTL  time.Duration // 0 means 60s default
}

// authenticate validates the Bearer token against a cached copy of the K8s Secret.
// The cache refreshes every 60s (configurable via authTTL) to avoid hitting the
// K8s API on every HTTP request while still picking up key rotations promptly.
func (h *Handler) authenticate(r *http.Request) error {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return fmt.Errorf("missing Authorization header")
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return fmt.Errorf("invalid Authorization format, expected Bearer token")
	}
	token := strings.TrimPrefix(auth, "Bearer ")

	keys, err := h.getAuthKeys(r.Context())
	if err != nil {
		return err
	}
	if keys[token] {
		return nil
	}
	return fmt.Errorf("invalid API key")
}

// getAuthKeys returns cached auth keys, refreshing from K8s Secret if stale.
func (h *Handler) getAuthKeys(ctx context.Context) (map[string]bool, error) {
	ttl := h.authTTL
	if ttl == 0 {
		ttl = 60 * time.Second
	}

	h.authMu.RLock()
	if h.authKeys != nil && time.Since(h.authAt) < ttl {
		keys := h.authKeys
		h.authMu.RUnlock()
		return keys, nil
	}
	h.authMu.RUnlock()

	secret, err := h.Clientset.CoreV1().Secrets(h.Namespace).Get(
		ctx, h.AuthSecret, metav1.GetOptions{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth secret: %w", err)
	}

	keys := make(map[string]bool, len(secret.Data))
	for _, v := range secret.Data {
		keys[string(v)] = true
	}

	h.authMu.Lock()
	h.authKeys = keys
	h.authAt = time.Now()
	h.authMu.Unlock()

	return keys, nil
}

// writeError writes an OpenAI-compatible error response.
func writeError(w http.ResponseWriter, status int, msg, errType, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{Message: msg, Type: errType, Code: code},
	})
}

// defaultTimeoutSeconds bounds how long the completion check waits for a
// response on the Cell's outbox subject before the Mission is marked Failed.
const defaultTimeoutSeconds = 300

// ChatCompletions handles POST /v1/chat/completions. It translates the
// request into a single-Cell Formation plus a Mission targeting it, then
// either blocks for the result or streams it back as SSE.
func (h *Handler) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	log := ctrl.Log.WithName("gateway.chat")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request_error", "method_not_allowed")
		return
	}

	if err := h.authenticate(r); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error(), "authentication_error", "invalid_api_key")
		return
	}

	var req ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "invalid_request_error", "invalid_body")
		return
	}

	if req.Model == "" {
		writeError(w, http.StatusBadRequest, "model is required", "invalid_request_error", "missing_model")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages is required", "invalid_request_error", "missing_messages")
		return
	}

	// Extract blueprint name from model field: "cellforge/tech-lead" → "tech-lead"
	blueprintName := strings.TrimPrefix(req.Model, "cellforge/")

	prompt := buildPrompt(req.Messages)

	modelCfg := h.resolveModelConfig(r.Context(), blueprintName)
	if modelCfg == nil {
		writeError(w, http.StatusBadRequest, "no blueprint or default provider found for model "+req.Model, "invalid_request_error", "unknown_model")
		return
	}

	var budget string
	if req.Budget != nil {
		budget = req.Budget.MaxCostUsd
	}

	name := fmt.Sprintf("gw-%s-%d", sanitizeName(blueprintName), time.Now().UnixMilli())

	formation := buildFormation(name, h.Namespace, h.CellImage, modelCfg)
	if _, err := h.DynClient.Resource(formationGVR).Namespace(h.Namespace).Create(r.Context(), formation, metav1.CreateOptions{}); err != nil {
		log.Error(err, "failed to create Formation")
		writeError(w, http.StatusInternalServerError, "failed to create formation: "+err.Error(), "server_error", "formation_creation_failed")
		return
	}

	mission := buildMission(name, h.Namespace, name, prompt, budget, defaultTimeoutSeconds)
	created, err := h.DynClient.Resource(missionGVR).Namespace(h.Namespace).Create(r.Context(), mission, metav1.CreateOptions{})
	if err != nil {
		log.Error(err, "failed to create Mission")
		writeError(w, http.StatusInternalServerError, "failed to create mission: "+err.Error(), "server_error", "mission_creation_failed")
		return
	}

	missionName := created.GetName()

	log.Info("audit: chat.completions", "blueprint", blueprintName, "stream", req.Stream, "mission", missionName)

	if req.Stream {
		h.streamResponse(r.Context(), w, missionName, req.Model)
	} else {
		h.blockingResponse(r.Context(), w, missionName, req.Model)
	}
}

// blockingResponse waits for Mission completion and returns a single JSON response.
func (h *Handler) blockingResponse(ctx context.Context, w http.ResponseWriter, missionName, model string) {
	log := ctrl.Log.WithName("gateway.blocking")

	state, err := h.watchMissionUntilDone(ctx, missionName)
	if err != nil {
		log.Error(err, "watch failed", "mission", missionName)
		writeError(w, http.StatusGatewayTimeout, "mission watch failed: "+err.Error(), "server_error", "watch_failed")
		return
	}

	finishReason := mapPhaseToFinishReason(state.Phase)

	resp := ChatCompletionResponse{
		ID:      "chatcmpl-" + missionName,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []Choice{{
			Index:        0,
			Message:      &Message{Role: "assistant", Content: state.Output},
			FinishReason: &finishReason,
		}},
		Usage: &Usage{
			PromptTokens:     state.TokensIn,
			CompletionTokens: state.TokensOut,
			TotalTokens:      state.TokensIn + state.TokensOut,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// streamResponse sends SSE chunks as the Mission progresses.
func (h *Handler) streamResponse(ctx context.Context, w http.ResponseWriter, missionName, model string) {
	log := ctrl.Log.WithName("gateway.stream")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", "server_error", "no_flusher")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	chunkID := "chatcmpl-" + missionName
	created := time.Now().Unix()

	h.sendStreamChunk(w, flusher, chunkID, model, created, fmt.Sprintf("[mission %s created, waiting for cell...]\n", missionName))

	watcher, err := h.DynClient.Resource(missionGVR).Namespace(h.Namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector: "metadata.name=" + missionName,
	})
	if err != nil {
		log.Error(err, "failed to start watch")
		h.sendStreamChunk(w, flusher, chunkID, model, created, "[error: failed to watch mission]\n")
		h.sendStreamDone(w, flusher)
		return
	}
	defer watcher.Stop()

	lastPhase := ""
	lastMessage := ""

	for {
		select {
		case <-ctx.Done():
			h.sendStreamDone(w, flusher)
			return
		case event, ok := <-watcher.ResultChan():
			if !ok {
				h.sendStreamDone(w, flusher)
				return
			}
			if event.Type == watch.Error {
				h.sendStreamChunk(w, flusher, chunkID, model, created, "[error: watch error]\n")
				h.sendStreamDone(w, flusher)
				return
			}

			obj, ok := event.Object.(*unstructured.Unstructured)
			if !ok {
				continue
			}

			state := extractMissionState(obj)

			if state.Phase != lastPhase {
				h.sendStreamChunk(w, flusher, chunkID, model, created,
					fmt.Sprintf("[%s: %s]\n", state.Phase, state.Message))
				lastPhase = state.Phase
				lastMessage = state.Message
			} else if state.Message != lastMessage && state.Message != "" {
				h.sendStreamChunk(w, flusher, chunkID, model, created,
					fmt.Sprintf("[%s]\n", state.Message))
				lastMessage = state.Message
			}

			if isTerminalPhase(state.Phase) {
				if state.Output != "" {
					h.sendStreamChunk(w, flusher, chunkID, model, created, state.Output)
				}

				finishReason := mapPhaseToFinishReason(state.Phase)
				chunk := StreamChunk{
					ID:      chunkID,
					Object:  "chat.completion.chunk",
					Created: created,
					Model:   model,
					Choices: []StreamChoice{{
						Index:        0,
						Delta:        Message{},
						FinishReason: &finishReason,
					}},
					Usage: &Usage{
						PromptTokens:     state.TokensIn,
						CompletionTokens: state.TokensOut,
						TotalTokens:      state.TokensIn + state.TokensOut,
					},
				}
				data, _ := json.Marshal(chunk)
				_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
				flusher.Flush()

				h.sendStreamDone(w, flusher)
				return
			}
		}
	}
}

// watchMissionUntilDone blocks until the Mission reaches a terminal phase.
func (h *Handler) watchMissionUntilDone(ctx context.Context, missionName string) (*missionState, error) {
	watcher, err := h.DynClient.Resource(missionGVR).Namespace(h.Namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector: "metadata.name=" + missionName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start watch: %w", err)
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-watcher.ResultChan():
			if !ok {
				return nil, fmt.Errorf("watch channel closed")
			}
			obj, ok := event.Object.(*unstructured.Unstructured)
			if !ok {
				continue
			}
			state := extractMissionState(obj)
			if isTerminalPhase(state.Phase) {
				return state, nil
			}
		}
	}
}

// sendStreamChunk writes a single SSE data event with content.
func (h *Handler) sendStreamChunk(w http.ResponseWriter, flusher http.Flusher, id, model string, created int64, content string) {
	chunk := StreamChunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []StreamChoice{{
			Index: 0,
			Delta: Message{Role: "assistant", Content: content},
		}},
	}
	data, _ := json.Marshal(chunk)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// sendStreamDone writes the final [DONE] SSE event.
func (h *Handler) sendStreamDone(w http.ResponseWriter, flusher http.Flusher) {
	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// convertToBlueprint converts an unstructured object to a typed Blueprint.
func convertToBlueprint(obj *unstructured.Unstructured) (*cellforgev1alpha1.Blueprint, error) {
	bp := &cellforgev1alpha1.Blueprint{}
	err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, bp)
	return bp, err
}

// resolveModelConfig looks up a Blueprint named blueprintName and returns its
// Mind configuration. Falls back to inferring a provider from the name
// substring ("claude"/"gpt") against a conventionally-named Secret when no
// matching Blueprint exists.
func (h *Handler) resolveModelConfig(ctx context.Context, blueprintName string) *ModelConfig {
	log := ctrl.Log.WithName("gateway.resolve")

	obj, err := h.DynClient.Resource(blueprintGVR).Namespace(h.Namespace).Get(ctx, blueprintName, metav1.GetOptions{})
	if err != nil {
		log.V(1).Info("Blueprint not found, inferring from model name", "blueprint", blueprintName, "error", err)
		return h.inferModelConfig(ctx, blueprintName)
	}

	bp, err := convertToBlueprint(obj)
	if err != nil {
		log.Error(err, "failed to convert Blueprint to typed object", "blueprint", blueprintName)
		return nil
	}

	mind := bp.Spec.Template.Mind
	cfg := &ModelConfig{
		Provider:     mind.Provider,
		Model:        mind.Model,
		SystemPrompt: mind.SystemPrompt,
	}
	if mind.ApiKeyRef != nil {
		cfg.SecretName = mind.ApiKeyRef.Name
		cfg.SecretKey = mind.ApiKeyRef.Key
	}
	return cfg
}

// inferModelConfig derives a provider/model/secret triple from a bare model
// name when no Blueprint is registered for it.
func (h *Handler) inferModelConfig(ctx context.Context, modelName string) *ModelConfig {
	switch {
	case strings.Contains(modelName, "claude"):
		return &ModelConfig{
			Provider:   "anthropic",
			Model:      modelName,
			SecretName: "anthropic-api-key",
			SecretKey:  "api-key",
		}
	case strings.Contains(modelName, "gpt"):
		return &ModelConfig{
			Provider:   "openai",
			Model:      modelName,
			SecretName: "openai-api-key",
			SecretKey:  "api-key",
		}
	}

	if _, err := h.Clientset.CoreV1().Secrets(h.Namespace).Get(ctx, "anthropic-api-key", metav1.GetOptions{}); err == nil {
		return &ModelConfig{
			Provider:   "anthropic",
			Model:      "claude-sonnet-4-20250514",
			SecretName: "anthropic-api-key",
			SecretKey:  "api-key",
		}
	}
	return nil
}

// ListModels handles GET /v1/models. Returns Blueprints in the namespace as
// available "models".
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request_error", "method_not_allowed")
		return
	}

	if err := h.authenticate(r); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error(), "authentication_error", "invalid_api_key")
		return
	}

	log := ctrl.Log.WithName("gateway.models")

	blueprints, err := h.DynClient.Resource(blueprintGVR).Namespace(h.Namespace).List(
		r.Context(), metav1.ListOptions{},
	)

	var models []ModelObject
	if err == nil {
		for _, bp := range blueprints.Items {
			models = append(models, ModelObject{
				ID:      "cellforge/" + bp.GetName(),
				Object:  "model",
				Created: bp.GetCreationTimestamp().Unix(),
				OwnedBy: "cellforge",
			})
		}
	}

	if len(models) == 0 {
		models = append(models, ModelObject{
			ID:      "cellforge/default",
			Object:  "model",
			Created: time.Now().Unix(),
			OwnedBy: "cellforge",
		})
	}

	log.Info("audit: list.models", "count", len(models))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ModelListResponse{
		Object: "list",
		Data:   models,
	})
}

// MissionArtifacts handles GET /api/v1/missions/{name}/artifacts, returning
// the Mission's current phase and completion-check output.
func (h *Handler) MissionArtifacts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request_error", "method_not_allowed")
		return
	}

	if err := h.authenticate(r); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error(), "authentication_error", "invalid_api_key")
		return
	}

	missionName := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/missions/"), "/artifacts")
	if missionName == "" {
		writeError(w, http.StatusBadRequest, "mission name is required", "invalid_request_error", "missing_mission")
		return
	}

	obj, err := h.DynClient.Resource(missionGVR).Namespace(h.Namespace).Get(r.Context(), missionName, metav1.GetOptions{})
	if err != nil {
		writeError(w, http.StatusNotFound, "mission not found: "+err.Error(), "invalid_request_error", "mission_not_found")
		return
	}

	state := extractMissionState(obj)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(MissionArtifactResponse{
		MissionID: state.Name,
		Phase:     state.Phase,
		Output:    state.Output,
		Message:   state.Message,
	})
}
