/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package gateway

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/hortator-ai/cellforge/internal/bus"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]`)

// sanitizeName makes a string safe for use in a K8s resource name.
func sanitizeName(s string) string {
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	if len(s) > 40 {
		s = s[:40]
	}
	return strings.Trim(s, "-")
}

// buildPrompt concatenates chat messages into a single prompt string.
// System messages become context prefixes, user messages become the main prompt.
func buildPrompt(messages []Message) string {
	var systemParts []string
	var userParts []string

	for _, m := range messages {
		switch m.Role {
		case "system":
			systemParts = append(systemParts, m.Content)
		case "user":
			userParts = append(userParts, m.Content)
		case "assistant":
			userParts = append(userParts, fmt.Sprintf("[Previous assistant response:]\n%s", m.Content))
		}
	}

	var parts []string
	if len(systemParts) > 0 {
		parts = append(parts, "[System Context]\n"+strings.Join(systemParts, "\n"))
	}
	parts = append(parts, userParts...)

	return strings.Join(parts, "\n\n")
}

// ModelConfig holds the mind configuration resolved from a Blueprint, or
// inferred from the request's model field when no Blueprint matches.
type ModelConfig struct {
	Provider     string
	Model        string
	SystemPrompt string
	SecretName   string
	SecretKey    string
}

// buildFormation creates an unstructured single-Cell Formation. The Cell
// template is named after the Formation itself, so concurrent requests
// sharing a namespace never collide on the expanded Cell name.
func buildFormation(name, namespace, image string, modelCfg *ModelConfig) *unstructured.Unstructured {
	mind := map[string]interface{}{
		"provider": modelCfg.Provider,
		"model":    modelCfg.Model,
	}
	if modelCfg.SystemPrompt != "" {
		mind["systemPrompt"] = modelCfg.SystemPrompt
	}
	if modelCfg.SecretName != "" {
		mind["apiKeyRef"] = map[string]interface{}{
			"name": modelCfg.SecretName,
			"key":  modelCfg.SecretKey,
		}
	}

	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "cellforge.hortator.ai/v1alpha1",
			"kind":       "Formation",
			"metadata": map[string]interface{}{
				"name":      name,
				"namespace": namespace,
				"labels": map[string]interface{}{
					"cellforge.hortator.ai/source": "gateway",
				},
			},
			"spec": map[string]interface{}{
				"cells": []interface{}{
					map[string]interface{}{
						"name":     name,
						"replicas": int64(1),
						"spec": map[string]interface{}{
							"mind":  mind,
							"image": image,
						},
					},
				},
				"topology": map[string]interface{}{
					"kind": "full_mesh",
				},
			},
		},
	}
}

// cellName returns the Cell name a single-replica template named formationName
// expands to, matching expandCellNames's "template-index" convention.
func cellName(formationName string) string {
	return formationName + "-0"
}

// buildMission creates an unstructured Mission whose entrypoint targets the
// Formation's sole Cell and whose completion check watches that Cell's
// outbox subject for a response.
func buildMission(name, namespace, formationName, prompt, budget string, timeoutSeconds int) *unstructured.Unstructured {
	cell := cellName(formationName)

	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "cellforge.hortator.ai/v1alpha1",
			"kind":       "Mission",
			"metadata": map[string]interface{}{
				"name":      name,
				"namespace": namespace,
				"labels": map[string]interface{}{
					"cellforge.hortator.ai/source": "gateway",
				},
			},
			"spec": map[string]interface{}{
				"formationRef": formationName,
				"objective":    "gateway chat completion",
				"entrypoint": map[string]interface{}{
					"cell":    cell,
					"message": prompt,
				},
				"completion": map[string]interface{}{
					"checks": []interface{}{
						map[string]interface{}{
							"name":           "response",
							"type":           "busResponse",
							"subject":        bus.OutboxSubject(namespace, cell),
							"timeoutSeconds": int64(timeoutSeconds),
						},
					},
					"maxAttempts": int64(1),
					"timeout":     fmt.Sprintf("%ds", timeoutSeconds),
				},
				"budget": budget,
			},
		},
	}
}

// extractMissionState reads status fields from an unstructured Mission.
func extractMissionState(obj *unstructured.Unstructured) *missionState {
	status, _, _ := unstructured.NestedMap(obj.Object, "status")
	if status == nil {
		return &missionState{Name: obj.GetName(), Phase: "Pending"}
	}

	state := &missionState{Name: obj.GetName()}

	if v, ok := status["phase"].(string); ok {
		state.Phase = v
	}
	if v, ok := status["message"].(string); ok {
		state.Message = v
	}

	if checks, ok := status["checks"].([]interface{}); ok {
		for _, c := range checks {
			cm, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			if name, _ := cm["name"].(string); name == "response" {
				if out, ok := cm["output"].(string); ok {
					state.Output = out
				}
			}
		}
	}

	if v, ok := status["startedAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			state.StartedAt = &t
		}
	}

	return state
}

// isTerminalPhase returns true if the phase indicates the Mission is done.
// Mission has no TimedOut/BudgetExceeded/Cancelled phase of its own — those
// outcomes surface as Failed with an explanatory status.message.
func isTerminalPhase(phase string) bool {
	switch phase {
	case "Succeeded", "Failed":
		return true
	}
	return false
}

// mapPhaseToFinishReason translates a Mission phase to an OpenAI finish_reason.
func mapPhaseToFinishReason(phase string) string {
	switch phase {
	case "Succeeded":
		return "stop"
	case "Failed":
		return "stop" // OpenAI doesn't have an "error" finish_reason
	default:
		return "stop"
	}
}
