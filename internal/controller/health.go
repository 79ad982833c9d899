/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/log"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

// StuckDetectionConfig is the cluster-wide default for the stuck-loop
// heuristics, overridable per Cell via spec.health.stuckDetection.
type StuckDetectionConfig struct {
	ToolDiversityMin   float64
	MaxRepeatedPrompts int
	StatusStaleMinutes int
	Action             cellforgev1alpha1.StuckAction
}

func defaultStuckDetectionConfig() StuckDetectionConfig {
	return StuckDetectionConfig{
		ToolDiversityMin:   0.3,
		MaxRepeatedPrompts: 3,
		StatusStaleMinutes: 15,
		Action:             cellforgev1alpha1.StuckActionWarn,
	}
}

// DefaultStuckDetectionConfig returns the cluster-wide default thresholds,
// for cmd/controller to install as CellReconciler.StuckDetection.
func DefaultStuckDetectionConfig() StuckDetectionConfig {
	return defaultStuckDetectionConfig()
}

// StuckScore is the weighted outcome of checkStuckSignals.
type StuckScore struct {
	ToolDiversity   float64
	RepeatedPrompts int
	StatusStaleMins float64
	Aggregate       float64
	IsStuck         bool
	Reason          string
}

const stuckThreshold = 0.5

var (
	reToolCall   = regexp.MustCompile(`\[cellforge-agent\] Tool call: (\w+)\(`)
	rePromptHash = regexp.MustCompile(`\[cellforge-agent\] Prompt hash: ([a-f0-9]+)`)
)

// resolveStuckConfig merges the cluster default with a Cell's per-resource
// override, resource fields always taking precedence when set.
func resolveStuckConfig(defaults StuckDetectionConfig, cell *cellforgev1alpha1.Cell) StuckDetectionConfig {
	cfg := defaults
	if cell.Spec.Health == nil || cell.Spec.Health.StuckDetection == nil {
		return cfg
	}
	override := cell.Spec.Health.StuckDetection
	if override.ToolDiversityMin != nil {
		if v, err := strconv.ParseFloat(*override.ToolDiversityMin, 64); err == nil {
			cfg.ToolDiversityMin = v
		}
	}
	if override.MaxRepeatedPrompts != nil {
		cfg.MaxRepeatedPrompts = *override.MaxRepeatedPrompts
	}
	if override.StatusStaleMinutes != nil {
		cfg.StatusStaleMinutes = *override.StatusStaleMinutes
	}
	if override.Action != "" {
		cfg.Action = override.Action
	}
	return cfg
}

// checkStuckSignals scans a Cell's pod logs for tool-diversity, prompt-
// repetition, and status-staleness signals and aggregates them into a
// single weighted score.
func (r *CellReconciler) checkStuckSignals(ctx context.Context, cell *cellforgev1alpha1.Cell, pod *corev1.Pod, cfg StuckDetectionConfig) StuckScore {
	logs, err := r.collectPodLogs(ctx, pod, 500)
	if err != nil {
		log.FromContext(ctx).V(1).Info("collect pod logs for stuck check failed", "cell", cell.Name, "error", err)
		return StuckScore{}
	}

	toolCalls := map[string]int{}
	promptHashes := map[string]int{}
	for _, line := range strings.Split(logs, "\n") {
		if m := reToolCall.FindStringSubmatch(line); m != nil {
			toolCalls[m[1]]++
		}
		if m := rePromptHash.FindStringSubmatch(line); m != nil {
			promptHashes[m[1]]++
		}
	}

	totalCalls := 0
	for _, n := range toolCalls {
		totalCalls += n
	}
	diversity := 1.0
	if totalCalls > 2 {
		diversity = float64(len(toolCalls)) / float64(totalCalls)
	}

	maxRepeated := 0
	for _, n := range promptHashes {
		if n > maxRepeated {
			maxRepeated = n
		}
	}

	staleMins := 0.0
	lastActive := cell.Status.LastActive
	if lastActive != nil {
		staleMins = time.Since(lastActive.Time).Minutes()
	}

	diversityPenalty := 0.0
	if diversity < cfg.ToolDiversityMin {
		diversityPenalty = 1.0 - diversity/maxFloat(cfg.ToolDiversityMin, 0.01)
	}
	repetitionPenalty := 0.0
	if maxRepeated > cfg.MaxRepeatedPrompts {
		repetitionPenalty = 1.0
	}
	stalenessPenalty := 0.0
	if cfg.StatusStaleMinutes > 0 && staleMins > float64(cfg.StatusStaleMinutes) {
		stalenessPenalty = 1.0
	}

	aggregate := 0.40*diversityPenalty + 0.35*repetitionPenalty + 0.25*stalenessPenalty

	var reasons []string
	if diversityPenalty > 0 {
		reasons = append(reasons, fmt.Sprintf("low tool diversity (%.2f)", diversity))
	}
	if repetitionPenalty > 0 {
		reasons = append(reasons, fmt.Sprintf("repeated prompt x%d", maxRepeated))
	}
	if stalenessPenalty > 0 {
		reasons = append(reasons, fmt.Sprintf("stale %.0fm", staleMins))
	}

	return StuckScore{
		ToolDiversity:   diversity,
		RepeatedPrompts: maxRepeated,
		StatusStaleMins: staleMins,
		Aggregate:       aggregate,
		IsStuck:         aggregate >= stuckThreshold,
		Reason:          strings.Join(reasons, "; "),
	}
}

// executeStuckAction carries out the configured response to a stuck Cell.
func (r *CellReconciler) executeStuckAction(ctx context.Context, cell *cellforgev1alpha1.Cell, score StuckScore, action cellforgev1alpha1.StuckAction) error {
	stuckDetectedTotal.WithLabelValues(string(action), cell.Namespace).Inc()
	emitEvent(ctx, "cellforge.cell.stuck_detected", resourceAttrs("Cell", cell.Namespace, cell.Name, string(cell.Status.Phase))...)

	switch action {
	case cellforgev1alpha1.StuckActionWarn:
		r.Recorder.Eventf(cell, corev1.EventTypeWarning, "StuckWarning", "cell appears stuck: %s", score.Reason)
		return nil
	case cellforgev1alpha1.StuckActionKill:
		if err := r.Delete(ctx, &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: workloadName(cell.Name), Namespace: cell.Namespace}}); err != nil && !errors.IsNotFound(err) {
			return fmt.Errorf("delete stuck workload: %w", err)
		}
		cell.Status.Phase = cellforgev1alpha1.CellPhaseFailed
		cell.Status.Message = "killed after stuck detection: " + score.Reason
		r.Recorder.Eventf(cell, corev1.EventTypeWarning, "StuckKilled", "cell killed: %s", score.Reason)
		return r.Status().Update(ctx, cell)
	case cellforgev1alpha1.StuckActionEscalate:
		if err := r.Delete(ctx, &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: workloadName(cell.Name), Namespace: cell.Namespace}}); err != nil && !errors.IsNotFound(err) {
			return fmt.Errorf("delete stuck workload: %w", err)
		}
		cell.Status.Phase = cellforgev1alpha1.CellPhaseFailed
		cell.Status.Message = "escalated after stuck detection: " + score.Reason
		r.Recorder.Eventf(cell, corev1.EventTypeWarning, "StuckEscalated", "cell escalated to parent: %s", score.Reason)
		return r.Status().Update(ctx, cell)
	default:
		return nil
	}
}

// collectPodLogs reads up to tailLines of the cell container's log.
func (r *CellReconciler) collectPodLogs(ctx context.Context, pod *corev1.Pod, tailLines int64) (string, error) {
	if r.Clientset == nil {
		return "", nil
	}
	req := r.Clientset.CoreV1().Pods(pod.Namespace).GetLogs(pod.Name, &corev1.PodLogOptions{
		Container: "cell",
		TailLines: &tailLines,
	})
	stream, err := req.Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("open log stream: %w", err)
	}
	defer stream.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return sb.String(), err
	}
	return sb.String(), nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
