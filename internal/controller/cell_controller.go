/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/cferrors"
	"github.com/hortator-ai/cellforge/internal/retry"
)

const cellReconcileEnvVar = "CELLFORGE_CELL_SPEC"

var cellReconcileRetry = retry.Strategy{
	MaxRetries:  3,
	Backoff:     retry.Exponential,
	BaseDelayMs: 200,
	MaxDelayMs:  5000,
}

// CellReconciler ensures each Cell has a live workload matching its spec: a
// workload-vs-spec convergence loop rather than a single-shot task pod.
type CellReconciler struct {
	client.Client
	Scheme    *runtime.Scheme
	Recorder  record.EventRecorder
	Endpoints PlatformEndpoints
	Defaults  WorkloadDefaults

	// Clientset and RESTConfig back the log-collection (health.go) and
	// exec-injection (warm_pool.go) paths. Both are nil-safe: a nil
	// Clientset disables stuck-log scraping and warm-pool claiming falls
	// back to a normal create.
	Clientset  kubernetes.Interface
	RESTConfig *rest.Config

	// WarmPool configures the idle-pod pool that reduces cold-start
	// latency for leaf Cells (warm_pool.go).
	WarmPool WarmPoolConfig
	// StuckDetection is the cluster-wide default, overridable per Cell.
	StuckDetection StuckDetectionConfig

	poolMu     sync.Mutex
	warmPoolAt time.Time
}

// +kubebuilder:rbac:groups=cellforge.io,resources=cells,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=cellforge.io,resources=cells/status,verbs=get;update;patch
// +kubebuilder:rbac:groups="",resources=pods,verbs=get;list;watch;create;update;patch;delete

func (r *CellReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	cell := &cellforgev1alpha1.Cell{}
	if err := r.Get(ctx, req.NamespacedName, cell); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	var result ctrl.Result
	err := retry.Do(ctx, cellReconcileRetry, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = r.reconcileOnce(ctx, cell)
		return innerErr
	})
	if err != nil {
		logger.Error(err, "reconcile exhausted retries", "cell", cell.Name)
	}
	return result, err
}

func (r *CellReconciler) reconcileOnce(ctx context.Context, cell *cellforgev1alpha1.Cell) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	podName := workloadName(cell.Name)
	if cell.Status.PodName != "" {
		podName = cell.Status.PodName
	}

	pod := &corev1.Pod{}
	err := r.Get(ctx, client.ObjectKey{Namespace: cell.Namespace, Name: podName}, pod)

	switch {
	case errors.IsNotFound(err):
		return r.createWorkload(ctx, cell)
	case err != nil:
		return ctrl.Result{}, cferrors.Transient(err, "get workload")
	}

	switch pod.Status.Phase {
	case corev1.PodFailed, corev1.PodUnknown:
		if delErr := r.Delete(ctx, pod); delErr != nil && !errors.IsNotFound(delErr) {
			return ctrl.Result{}, cferrors.Transient(delErr, "delete failed workload")
		}
		return r.setPhase(ctx, cell, cellforgev1alpha1.CellPhaseFailed, "workload failed", "CellFailed")
	case corev1.PodRunning:
		if res, err := r.checkStuck(ctx, cell, pod); err != nil || res.Requeue {
			return res, err
		}
	}

	if err := r.reconcileWarmPool(ctx, cell.Namespace); err != nil {
		logger.Error(err, "warm pool replenish failed")
	}

	if changed := r.specChanged(pod, cell); changed {
		if delErr := r.Delete(ctx, pod); delErr != nil && !errors.IsNotFound(delErr) {
			return ctrl.Result{}, cferrors.Transient(delErr, "delete stale workload")
		}
		emitEvent(ctx, "cellforge.cell.spec_changed", resourceAttrs("Cell", cell.Namespace, cell.Name, string(cell.Status.Phase))...)
		r.Recorder.Event(cell, corev1.EventTypeNormal, "SpecChanged", "workload spec diverged, recreating")
		return ctrl.Result{Requeue: true}, nil
	}

	newPhase := observedPhase(pod.Status.Phase)
	if newPhase == cell.Status.Phase {
		logger.V(1).Info("no phase change, skipping status write", "cell", cell.Name)
		return ctrl.Result{}, nil
	}
	return r.setPhase(ctx, cell, newPhase, "", "")
}

func (r *CellReconciler) createWorkload(ctx context.Context, cell *cellforgev1alpha1.Cell) (ctrl.Result, error) {
	if cell.Spec.FormationRef == "" {
		if podName, claimed, err := r.claimWarmCell(ctx, cell); err != nil {
			log.FromContext(ctx).Error(err, "claim warm cell failed, falling back to fresh create", "cell", cell.Name)
		} else if claimed {
			cell.Status.PodName = podName
			emitEvent(ctx, "cellforge.cell.claimed_warm", resourceAttrs("Cell", cell.Namespace, cell.Name, "Pending")...)
			r.Recorder.Event(cell, corev1.EventTypeNormal, "CellClaimedWarm", "claimed a warm pool workload: "+podName)
			return r.setPhase(ctx, cell, cellforgev1alpha1.CellPhasePending, "claimed warm workload", "")
		}
	}

	pod, err := buildWorkload(cell, r.Endpoints, r.Defaults, nil)
	if err != nil {
		return ctrl.Result{}, cferrors.Validation("build workload: %v", err)
	}
	if err := controllerutil.SetControllerReference(cell, pod, r.Scheme); err != nil {
		return ctrl.Result{}, err
	}

	if err := r.Create(ctx, pod); err != nil && !errors.IsAlreadyExists(err) {
		return ctrl.Result{}, cferrors.Transient(err, "create workload")
	}

	cell.Status.PodName = pod.Name
	emitEvent(ctx, "cellforge.cell.created", resourceAttrs("Cell", cell.Namespace, cell.Name, "Pending")...)
	r.Recorder.Event(cell, corev1.EventTypeNormal, "CellCreated", "workload created: "+pod.Name)
	return r.setPhase(ctx, cell, cellforgev1alpha1.CellPhasePending, "workload created", "")
}

// checkStuck runs the stuck-loop heuristics against a Running Cell's
// workload and carries out the configured action when it fires.
func (r *CellReconciler) checkStuck(ctx context.Context, cell *cellforgev1alpha1.Cell, pod *corev1.Pod) (ctrl.Result, error) {
	cfg := resolveStuckConfig(r.StuckDetection, cell)
	score := r.checkStuckSignals(ctx, cell, pod, cfg)
	if !score.IsStuck {
		return ctrl.Result{}, nil
	}
	if err := r.executeStuckAction(ctx, cell, score, cfg.Action); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "execute stuck action")
	}
	return ctrl.Result{Requeue: cfg.Action != cellforgev1alpha1.StuckActionWarn}, nil
}

func (r *CellReconciler) setPhase(ctx context.Context, cell *cellforgev1alpha1.Cell, phase cellforgev1alpha1.CellPhase, message, reason string) (ctrl.Result, error) {
	if cell.Status.Phase == phase && message == "" {
		return ctrl.Result{}, nil
	}
	cell.Status.Phase = phase
	if message != "" {
		cell.Status.Message = message
	}
	if err := r.Status().Update(ctx, cell); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "update status")
	}
	if reason != "" {
		emitEvent(ctx, "cellforge.cell."+reason, resourceAttrs("Cell", cell.Namespace, cell.Name, string(phase))...)
		r.Recorder.Event(cell, corev1.EventTypeWarning, reason, message)
	}
	reconcileTotal.WithLabelValues("Cell", string(phase), cell.Namespace).Inc()
	return ctrl.Result{}, nil
}

// specChanged reads the workload's embedded spec env var and compares it
// structurally against the Cell's current spec.
func (r *CellReconciler) specChanged(pod *corev1.Pod, cell *cellforgev1alpha1.Cell) bool {
	if len(pod.Spec.Containers) == 0 {
		return true
	}
	var embedded string
	for _, e := range pod.Spec.Containers[0].Env {
		if e.Name == cellReconcileEnvVar {
			embedded = e.Value
			break
		}
	}
	return specChanged(cell.Spec, embedded)
}

// observedPhase maps a workload's pod phase onto a Cell's phase vocabulary.
func observedPhase(podPhase corev1.PodPhase) cellforgev1alpha1.CellPhase {
	switch podPhase {
	case corev1.PodRunning:
		return cellforgev1alpha1.CellPhaseRunning
	case corev1.PodSucceeded:
		return cellforgev1alpha1.CellPhaseCompleted
	case corev1.PodPending:
		return cellforgev1alpha1.CellPhasePending
	default:
		return cellforgev1alpha1.CellPhasePending
	}
}

func (r *CellReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&cellforgev1alpha1.Cell{}).
		Owns(&corev1.Pod{}).
		Complete(r)
}
