/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/cferrors"
)

// SpawnRequestReconciler materialises the Cell a SpawnRequest describes once
// it has been Approved (by an operator or an auto-approval policy upstream
// of this reconciler), and otherwise leaves Pending/Rejected requests alone
// for a human or the recursion validator's own policy to decide.
type SpawnRequestReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
}

// +kubebuilder:rbac:groups=cellforge.io,resources=spawnrequests,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=cellforge.io,resources=spawnrequests/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=cellforge.io,resources=cells,verbs=get;list;watch;create

func (r *SpawnRequestReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	sr := &cellforgev1alpha1.SpawnRequest{}
	if err := r.Get(ctx, req.NamespacedName, sr); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	if sr.Status.Phase != cellforgev1alpha1.SpawnRequestApproved || sr.Status.SpawnedCellName != "" {
		return ctrl.Result{}, nil
	}

	cellName := fmt.Sprintf("%s-spawn", sr.Name)
	spec := sr.Spec.RequestedSpec
	if spec.ParentRef == "" {
		spec.ParentRef = sr.Spec.RequestorCellID
	}

	cell := &cellforgev1alpha1.Cell{
		ObjectMeta: metav1.ObjectMeta{
			Name:      cellName,
			Namespace: sr.Namespace,
			Labels:    map[string]string{"spawned-by": sr.Spec.RequestorCellID},
		},
		Spec: spec,
	}
	if err := controllerutil.SetControllerReference(sr, cell, r.Scheme); err != nil {
		return ctrl.Result{}, err
	}
	if err := r.Create(ctx, cell); err != nil && !errors.IsAlreadyExists(err) {
		return ctrl.Result{}, cferrors.Transient(err, "create spawned cell %s", cellName)
	}

	sr.Status.SpawnedCellName = cellName
	now := metav1.Now()
	sr.Status.DecidedAt = &now
	sr.Status.Message = "cell spawned"
	if err := r.Status().Update(ctx, sr); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "update spawn request status")
	}

	emitEvent(ctx, "cellforge.spawnrequest.spawned", resourceAttrs("SpawnRequest", sr.Namespace, sr.Name, string(sr.Status.Phase))...)
	r.Recorder.Event(sr, "Normal", "CellSpawned", "spawned cell "+cellName)
	reconcileTotal.WithLabelValues("SpawnRequest", string(sr.Status.Phase), sr.Namespace).Inc()
	return ctrl.Result{}, nil
}

func (r *SpawnRequestReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&cellforgev1alpha1.SpawnRequest{}).
		Owns(&cellforgev1alpha1.Cell{}).
		Complete(r)
}
