/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"

	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/cferrors"
	"github.com/hortator-ai/cellforge/internal/vectorstore"
)

// ChannelReconciler, SwarmReconciler and FederationReconciler implement the
// shared "simpler resource lifecycle" noted on SimplePhase: they have no
// bespoke state machine, just structural validation and a Pending→Active
// transition, the same minimal admission shape used before any budget or
// hierarchy logic kicks in.
type ChannelReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
}

// +kubebuilder:rbac:groups=cellforge.io,resources=channels,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=cellforge.io,resources=channels/status,verbs=get;update;patch

func (r *ChannelReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	ch := &cellforgev1alpha1.Channel{}
	if err := r.Get(ctx, req.NamespacedName, ch); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	if ch.Spec.SubjectPrefix == "" {
		return r.setPhase(ctx, ch, cellforgev1alpha1.SimplePhaseFailed, "subjectPrefix is required")
	}
	if ch.Status.Phase == cellforgev1alpha1.SimplePhaseActive {
		return ctrl.Result{}, nil
	}
	return r.setPhase(ctx, ch, cellforgev1alpha1.SimplePhaseActive, "")
}

func (r *ChannelReconciler) setPhase(ctx context.Context, ch *cellforgev1alpha1.Channel, phase cellforgev1alpha1.SimplePhase, message string) (ctrl.Result, error) {
	ch.Status.Phase = phase
	ch.Status.Message = message
	if err := r.Status().Update(ctx, ch); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "update channel status")
	}
	reconcileTotal.WithLabelValues("Channel", string(phase), ch.Namespace).Inc()
	return ctrl.Result{}, nil
}

func (r *ChannelReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).For(&cellforgev1alpha1.Channel{}).Complete(r)
}

// SwarmReconciler tracks readiness of a self-similar pool of Formations
// expanded from one shared template. Formation fan-out itself is left to a
// higher-level controller or operator tooling that names N Formations after
// this Swarm; here the reconciler only counts how many already report
// Running, mirroring FormationReconciler's own "count observed, derive
// phase" shape.
type SwarmReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
}

// +kubebuilder:rbac:groups=cellforge.io,resources=swarms,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=cellforge.io,resources=swarms/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=cellforge.io,resources=formations,verbs=get;list;watch

func (r *SwarmReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	swarm := &cellforgev1alpha1.Swarm{}
	if err := r.Get(ctx, req.NamespacedName, swarm); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	formations := &cellforgev1alpha1.FormationList{}
	if err := r.List(ctx, formations, client.InNamespace(swarm.Namespace), client.MatchingLabels{"swarm": swarm.Name}); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "list swarm formations")
	}

	ready := 0
	for _, f := range formations.Items {
		if f.Status.Phase == cellforgev1alpha1.FormationPhaseRunning {
			ready++
		}
	}

	phase := cellforgev1alpha1.SimplePhasePending
	if swarm.Spec.Replicas > 0 && ready >= swarm.Spec.Replicas {
		phase = cellforgev1alpha1.SimplePhaseActive
	}

	if swarm.Status.Phase == phase && swarm.Status.ReadyReplicas == ready {
		return ctrl.Result{}, nil
	}
	swarm.Status.Phase = phase
	swarm.Status.ReadyReplicas = ready
	if err := r.Status().Update(ctx, swarm); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "update swarm status")
	}
	reconcileTotal.WithLabelValues("Swarm", string(phase), swarm.Namespace).Inc()
	return ctrl.Result{}, nil
}

func (r *SwarmReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&cellforgev1alpha1.Swarm{}).
		Owns(&cellforgev1alpha1.Formation{}).
		Complete(r)
}

// FederationReconciler rolls up member Formations' costs under a shared
// governance boundary.
type FederationReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
}

// +kubebuilder:rbac:groups=cellforge.io,resources=federations,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=cellforge.io,resources=federations/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=cellforge.io,resources=formations,verbs=get;list;watch

func (r *FederationReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	fed := &cellforgev1alpha1.Federation{}
	if err := r.Get(ctx, req.NamespacedName, fed); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	var total float64
	for _, member := range fed.Spec.Members {
		formation := &cellforgev1alpha1.Formation{}
		if err := r.Get(ctx, client.ObjectKey{Namespace: fed.Namespace, Name: member}, formation); err != nil {
			continue
		}
		if c, err := parseFloatOrZero(formation.Status.TotalCost); err == nil {
			total += c
		}
	}

	phase := cellforgev1alpha1.SimplePhaseActive
	if budget, err := parseFloatOrZero(fed.Spec.SharedBudget); err == nil && budget > 0 && total > budget {
		phase = cellforgev1alpha1.SimplePhaseFailed
	}

	cost := formatCost(total)
	if fed.Status.Phase == phase && fed.Status.TotalCost == cost {
		return ctrl.Result{}, nil
	}
	fed.Status.Phase = phase
	fed.Status.TotalCost = cost
	if phase == cellforgev1alpha1.SimplePhaseFailed {
		fed.Status.Message = "shared budget exceeded"
	}
	if err := r.Status().Update(ctx, fed); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "update federation status")
	}
	reconcileTotal.WithLabelValues("Federation", string(phase), fed.Namespace).Inc()
	return ctrl.Result{}, nil
}

func (r *FederationReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).For(&cellforgev1alpha1.Federation{}).Complete(r)
}

// KnowledgeGraphReconciler validates that the declared vector store backend
// is reachable, surfacing vector count and health as status, grounded on
// internal/vectorstore.New/Health.
type KnowledgeGraphReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
	// Dial opens a Store for a given provider/endpoint; overridable in tests.
	Dial func(provider, endpoint string, opts ...vectorstore.Option) (vectorstore.Store, error)
	// Endpoint resolves the cluster endpoint for a KnowledgeGraph's provider.
	Endpoint func(provider string) string
}

// +kubebuilder:rbac:groups=cellforge.io,resources=knowledgegraphs,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=cellforge.io,resources=knowledgegraphs/status,verbs=get;update;patch

func (r *KnowledgeGraphReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	kg := &cellforgev1alpha1.KnowledgeGraph{}
	if err := r.Get(ctx, req.NamespacedName, kg); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	dial := r.Dial
	if dial == nil {
		dial = vectorstore.New
	}
	endpoint := ""
	if r.Endpoint != nil {
		endpoint = r.Endpoint(kg.Spec.Provider)
	}

	store, err := dial(kg.Spec.Provider, endpoint, vectorstore.WithCollection(kg.Spec.Collection), vectorstore.WithEmbeddingDimension(kg.Spec.Dimension))
	phase := cellforgev1alpha1.SimplePhaseActive
	message := ""
	var vectorCount int64
	if err != nil {
		phase = cellforgev1alpha1.SimplePhaseFailed
		message = err.Error()
	} else if healthErr := store.Health(ctx); healthErr != nil {
		phase = cellforgev1alpha1.SimplePhaseFailed
		message = healthErr.Error()
	} else if count, countErr := store.Count(ctx); countErr != nil {
		// Count is best-effort: a provider without a working count (e.g. the
		// Milvus stub) doesn't make an otherwise-healthy collection Failed.
		log.FromContext(ctx).V(1).Info("vector count unavailable", "knowledgegraph", kg.Name, "error", countErr)
	} else {
		vectorCount = count
	}

	if kg.Status.Phase == phase && kg.Status.Message == message && kg.Status.VectorCount == vectorCount {
		return ctrl.Result{}, nil
	}
	kg.Status.Phase = phase
	kg.Status.Message = message
	kg.Status.VectorCount = vectorCount
	if err := r.Status().Update(ctx, kg); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "update knowledge graph status")
	}
	reconcileTotal.WithLabelValues("KnowledgeGraph", string(phase), kg.Namespace).Inc()
	return ctrl.Result{}, nil
}

func (r *KnowledgeGraphReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).For(&cellforgev1alpha1.KnowledgeGraph{}).Complete(r)
}
