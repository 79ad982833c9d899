/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/bus"
	"github.com/hortator-ai/cellforge/internal/cferrors"
	"github.com/hortator-ai/cellforge/internal/completion"
)

// MissionReconciler drives a Mission through the attempt/timeout/review
// state machine, extending a single pod's exit-code check into a declared
// battery of completion checks plus an optional human review gate.
type MissionReconciler struct {
	client.Client
	Scheme *runtime.Scheme
	Recorder record.EventRecorder
	Bus      bus.Client
	// WorkspaceRoot is the controller-local mount point backing every
	// Formation's shared workspace volume, used to resolve the directory
	// completion checks run against.
	WorkspaceRoot string
	// DispatchCache deduplicates entrypoint publishes across reconcile
	// storms. Nil disables dedup (every handlePending call publishes).
	DispatchCache *DispatchCache
}

// +kubebuilder:rbac:groups=cellforge.io,resources=missions,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=cellforge.io,resources=missions/status,verbs=get;update;patch

func (r *MissionReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	mission := &cellforgev1alpha1.Mission{}
	if err := r.Get(ctx, req.NamespacedName, mission); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	switch mission.Status.Phase {
	case "", cellforgev1alpha1.MissionPhasePending:
		return r.handlePending(ctx, mission)
	case cellforgev1alpha1.MissionPhaseRunning:
		return r.handleRunning(ctx, mission)
	default:
		logger.V(1).Info("mission terminal, nothing to do", "mission", mission.Name, "phase", mission.Status.Phase)
		return ctrl.Result{}, nil
	}
}

func (r *MissionReconciler) handlePending(ctx context.Context, mission *cellforgev1alpha1.Mission) (ctrl.Result, error) {
	if wait := r.pendingBackoffRemaining(mission); wait > 0 {
		return ctrl.Result{RequeueAfter: wait}, nil
	}

	attempt := mission.Status.Attempt + 1

	dispatched := false
	if r.DispatchCache != nil && !shouldSkipDispatchCache(mission) {
		dispatched = r.DispatchCache.Seen(DispatchKey(mission.Namespace, mission.Name, attempt))
	}
	if !dispatched {
		payload, err := json.Marshal(bus.MessagePayload{Content: mission.Spec.Entrypoint.Message})
		if err != nil {
			return ctrl.Result{}, cferrors.Validation("marshal entrypoint payload: %v", err)
		}
		env := bus.Envelope{
			ID:        fmt.Sprintf("%s-%d", mission.Name, attempt),
			From:      "mission." + mission.Name,
			To:        mission.Spec.Entrypoint.Cell,
			Type:      bus.TypeMessage,
			Payload:   payload,
			Timestamp: time.Now(),
		}
		if err := r.Bus.Publish(ctx, bus.InboxSubject(mission.Namespace, mission.Spec.Entrypoint.Cell), env); err != nil {
			return ctrl.Result{}, cferrors.Transient(err, "publish entrypoint message")
		}
	}

	now := metav1.Now()
	mission.Status.Phase = cellforgev1alpha1.MissionPhaseRunning
	mission.Status.Attempt = attempt
	mission.Status.StartedAt = &now
	mission.Status.NextRetryTime = nil
	mission.Status.Review = nil
	mission.Status.History = append(mission.Status.History, cellforgev1alpha1.MissionAttempt{
		Attempt:   attempt,
		StartedAt: now,
	})
	mission.Status.Message = fmt.Sprintf("attempt %d started", attempt)
	if err := r.Status().Update(ctx, mission); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "update status to Running")
	}

	emitEvent(ctx, "cellforge.mission.started", resourceAttrs("Mission", mission.Namespace, mission.Name, string(mission.Status.Phase))...)
	r.Recorder.Event(mission, "Normal", "MissionStarted", mission.Status.Message)
	reconcileTotal.WithLabelValues("Mission", string(mission.Status.Phase), mission.Namespace).Inc()
	return ctrl.Result{RequeueAfter: 5 * time.Second}, nil
}

func (r *MissionReconciler) handleRunning(ctx context.Context, mission *cellforgev1alpha1.Mission) (ctrl.Result, error) {
	timeout, err := parseMissionTimeout(mission.Spec.Completion.Timeout)
	if err != nil {
		return ctrl.Result{}, cferrors.Validation("invalid completion timeout %q: %v", mission.Spec.Completion.Timeout, err)
	}
	if mission.Status.StartedAt != nil && time.Since(mission.Status.StartedAt.Time) > timeout {
		return r.handleTimeout(ctx, mission)
	}

	if over, err := missionOverBudget(mission); err != nil {
		return ctrl.Result{}, cferrors.Validation("invalid budget comparison: %v", err)
	} else if over {
		return r.finish(ctx, mission, cellforgev1alpha1.MissionPhaseFailed, "cost reached budget", "MissionFailed")
	}

	results, allPassed := r.runChecks(ctx, mission)
	mission.Status.Checks = results
	if !allPassed {
		if err := r.Status().Update(ctx, mission); err != nil {
			return ctrl.Result{}, cferrors.Transient(err, "update check results")
		}
		return ctrl.Result{RequeueAfter: 10 * time.Second}, nil
	}

	review := mission.Spec.Completion.Review
	if review == nil || !review.Required {
		return r.finish(ctx, mission, cellforgev1alpha1.MissionPhaseSucceeded, "all checks passed", "MissionCompleted")
	}

	switch {
	case mission.Status.Review == nil:
		mission.Status.Review = &cellforgev1alpha1.ReviewRecord{Outcome: cellforgev1alpha1.ReviewPending}
		mission.Status.Message = "awaiting review"
		if err := r.Status().Update(ctx, mission); err != nil {
			return ctrl.Result{}, cferrors.Transient(err, "update status to review pending")
		}
		emitEvent(ctx, "cellforge.mission.review_requested", resourceAttrs("Mission", mission.Namespace, mission.Name, string(mission.Status.Phase))...)
		r.Recorder.Event(mission, "Normal", "MissionReviewRequested", "checks passed, awaiting review")
		return ctrl.Result{}, nil
	case mission.Status.Review.Outcome == cellforgev1alpha1.ReviewApproved:
		return r.finish(ctx, mission, cellforgev1alpha1.MissionPhaseSucceeded, "review approved", "MissionCompleted")
	case mission.Status.Review.Outcome == cellforgev1alpha1.ReviewRejected:
		return r.handleReviewRejected(ctx, mission)
	default:
		// Outcome == Pending: still waiting on an external reviewer.
		return ctrl.Result{RequeueAfter: 15 * time.Second}, nil
	}
}

func (r *MissionReconciler) handleTimeout(ctx context.Context, mission *cellforgev1alpha1.Mission) (ctrl.Result, error) {
	emitEvent(ctx, "cellforge.mission.timeout", resourceAttrs("Mission", mission.Namespace, mission.Name, string(mission.Status.Phase))...)
	r.Recorder.Event(mission, "Warning", "MissionTimeout", fmt.Sprintf("attempt %d exceeded %s", mission.Status.Attempt, mission.Spec.Completion.Timeout))

	if mission.Status.Attempt < mission.Spec.Completion.MaxAttempts {
		r.closeAttempt(mission, "timeout")
		return r.finish(ctx, mission, cellforgev1alpha1.MissionPhasePending, "retrying after timeout", "")
	}
	r.closeAttempt(mission, "timeout, attempts exhausted")
	return r.finish(ctx, mission, cellforgev1alpha1.MissionPhaseFailed, "timed out, attempts exhausted", "MissionFailed")
}

func (r *MissionReconciler) handleReviewRejected(ctx context.Context, mission *cellforgev1alpha1.Mission) (ctrl.Result, error) {
	if mission.Status.Attempt < mission.Spec.Completion.MaxAttempts {
		r.closeAttempt(mission, "review rejected")
		mission.Status.Review = nil
		emitEvent(ctx, "cellforge.mission.retry", resourceAttrs("Mission", mission.Namespace, mission.Name, string(mission.Status.Phase))...)
		r.Recorder.Event(mission, "Normal", "MissionRetry", "review rejected, retrying")
		return r.finish(ctx, mission, cellforgev1alpha1.MissionPhasePending, "retrying after review rejection", "")
	}
	r.closeAttempt(mission, "review rejected, attempts exhausted")
	return r.finish(ctx, mission, cellforgev1alpha1.MissionPhaseFailed, "review rejected, attempts exhausted", "MissionFailed")
}

// closeAttempt stamps EndedAt/Reason on the most recent history entry.
func (r *MissionReconciler) closeAttempt(mission *cellforgev1alpha1.Mission, reason string) {
	if n := len(mission.Status.History); n > 0 && mission.Status.History[n-1].EndedAt == nil {
		now := metav1.Now()
		mission.Status.History[n-1].EndedAt = &now
		mission.Status.History[n-1].Reason = reason
	}
}

func (r *MissionReconciler) finish(ctx context.Context, mission *cellforgev1alpha1.Mission, phase cellforgev1alpha1.MissionPhase, message, reason string) (ctrl.Result, error) {
	mission.Status.Phase = phase
	mission.Status.Message = message
	if err := r.Status().Update(ctx, mission); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "update status to %s", phase)
	}
	if reason != "" {
		emitEvent(ctx, "cellforge.mission."+reason, resourceAttrs("Mission", mission.Namespace, mission.Name, string(phase))...)
		eventType := "Normal"
		if phase == cellforgev1alpha1.MissionPhaseFailed {
			eventType = "Warning"
		}
		r.Recorder.Event(mission, eventType, reason, message)
	}
	reconcileTotal.WithLabelValues("Mission", string(phase), mission.Namespace).Inc()
	if phase == cellforgev1alpha1.MissionPhasePending {
		return ctrl.Result{Requeue: true}, nil
	}
	return ctrl.Result{}, nil
}

func (r *MissionReconciler) runChecks(ctx context.Context, mission *cellforgev1alpha1.Mission) ([]cellforgev1alpha1.CheckResult, bool) {
	runner := &completion.Runner{
		Workspace: filepath.Join(r.WorkspaceRoot, mission.Spec.FormationRef),
		Bus:       r.Bus,
	}
	specs := make([]completion.Spec, 0, len(mission.Spec.Completion.Checks))
	for _, c := range mission.Spec.Completion.Checks {
		specs = append(specs, completion.Spec{
			Name:           c.Name,
			Kind:           completion.Kind(c.Type),
			Paths:          c.Paths,
			Command:        c.Command,
			FailPattern:    c.FailPattern,
			SuccessPattern: c.SuccessPattern,
			JSONPath:       c.JSONPath,
			Operator:       c.Operator,
			Target:         c.Target,
			Subject:        c.Subject,
			TimeoutSeconds: c.TimeoutSeconds,
		})
	}
	results, allPassed := runner.RunAll(ctx, specs)
	out := make([]cellforgev1alpha1.CheckResult, 0, len(results))
	for _, res := range results {
		out = append(out, cellforgev1alpha1.CheckResult{Name: res.Name, Status: string(res.Status), Output: res.Output})
	}
	return out, allPassed
}

// pendingBackoffRemaining returns how long a Pending mission must still wait
// before it may be re-entered.
func (r *MissionReconciler) pendingBackoffRemaining(mission *cellforgev1alpha1.Mission) time.Duration {
	if mission.Status.NextRetryTime == nil {
		return 0
	}
	if wait := time.Until(mission.Status.NextRetryTime.Time); wait > 0 {
		return wait
	}
	return 0
}

var missionTimeoutPattern = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// parseMissionTimeout parses the (Hh)?(Mm)?(Ss)? grammar: hours, then
// minutes, then seconds, each optional but only in that order. Go's own
// time.ParseDuration grammar is a strict superset (it also accepts other
// units and any ordering, e.g. "30m1h"), so it can't be reused directly
// without also accepting strings the grammar rejects. A zero or negative
// result is rejected too: an empty or all-zero timeout can never elapse.
func parseMissionTimeout(s string) (time.Duration, error) {
	m := missionTimeoutPattern.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return 0, fmt.Errorf("invalid timeout %q: want (Hh)?(Mm)?(Ss)? in that order", s)
	}

	var d time.Duration
	for i, unit := range []time.Duration{time.Hour, time.Minute, time.Second} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
		}
		d += time.Duration(n) * unit
	}

	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", s)
	}
	return d, nil
}

// missionOverBudget reports whether status.Cost has reached spec.Budget.
// An unset budget or cost (empty string) never trips the check.
func missionOverBudget(mission *cellforgev1alpha1.Mission) (bool, error) {
	if mission.Spec.Budget == "" || mission.Status.Cost == "" {
		return false, nil
	}
	budget, err := strconv.ParseFloat(mission.Spec.Budget, 64)
	if err != nil {
		return false, err
	}
	cost, err := strconv.ParseFloat(mission.Status.Cost, 64)
	if err != nil {
		return false, err
	}
	return cost >= budget, nil
}

func (r *MissionReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&cellforgev1alpha1.Mission{}).
		Complete(r)
}
