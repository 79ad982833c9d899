/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/cferrors"
)

// FormationReconciler materialises a Formation's workspace volume, route
// table, and child Cells, and aggregates their observed state. Its
// ensure-the-PVC-exists step produces a single Formation-wide workspace
// claim shared by every child Cell.
type FormationReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder

	// Retention configures workspace-volume reuse across Formations
	// (knowledge.go).
	Retention WorkspaceRetentionConfig
}

const formationWorkspaceSize = "1Gi"

// +kubebuilder:rbac:groups=cellforge.io,resources=formations,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=cellforge.io,resources=formations/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=cellforge.io,resources=cells,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=cellforge.io,resources=missions,verbs=get;list;watch
// +kubebuilder:rbac:groups="",resources=persistentvolumeclaims;configmaps,verbs=get;list;watch;create;update;patch

func (r *FormationReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	formation := &cellforgev1alpha1.Formation{}
	if err := r.Get(ctx, req.NamespacedName, formation); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	if formation.Status.Phase == cellforgev1alpha1.FormationPhasePaused {
		logger.V(1).Info("formation paused, skipping", "formation", formation.Name)
		return ctrl.Result{}, nil
	}

	if err := r.ensureWorkspace(ctx, formation); err != nil {
		return ctrl.Result{}, err
	}

	routeTable := buildRouteTable(formation.Spec.Topology, formation.Spec.Cells)
	if err := r.ensureRouteTable(ctx, formation, routeTable); err != nil {
		return ctrl.Result{}, err
	}

	if err := r.ensureCells(ctx, formation); err != nil {
		return ctrl.Result{}, err
	}

	return r.syncStatus(ctx, formation)
}

func (r *FormationReconciler) ensureWorkspace(ctx context.Context, formation *cellforgev1alpha1.Formation) error {
	name := fmt.Sprintf("%s-workspace", formation.Name)
	existing := &corev1.PersistentVolumeClaim{}
	err := r.Get(ctx, client.ObjectKey{Namespace: formation.Namespace, Name: name}, existing)
	if err == nil {
		return nil
	}
	if !errors.IsNotFound(err) {
		return cferrors.Transient(err, "get workspace claim %s", name)
	}

	// Surface the best tag-matching retained workspace so operators can see
	// lineage candidates; the new workspace still gets the conventional
	// name every Cell mount expects (buildWorkloadVolumes), so reuse here
	// is discovery-and-record rather than a literal volume handoff.
	if candidates, discErr := r.discoverRetainedWorkspaces(ctx, formation, r.Retention); discErr != nil {
		log.FromContext(ctx).Error(discErr, "discover retained workspaces failed", "formation", formation.Name)
	} else if len(candidates) > 0 {
		r.Recorder.Eventf(formation, corev1.EventTypeNormal, "RetainedWorkspaceFound",
			"best match %s (tag overlap %d)", candidates[0].Name, candidates[0].TagOverlap)
	}

	qty, err := resource.ParseQuantity(formationWorkspaceSize)
	if err != nil {
		return cferrors.Validation("invalid workspace size %q: %v", formationWorkspaceSize, err)
	}

	retain := formation.Annotations[annotationRetain] == "true"
	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: formation.Namespace,
			Labels:    map[string]string{"formation": formation.Name},
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteMany},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: qty},
			},
		},
	}
	if retain {
		tags := buildFormationTags(formation)
		var tagList []string
		for t := range tags {
			tagList = append(tagList, t)
		}
		pvc.Annotations = map[string]string{
			annotationRetain:     "true",
			annotationRetainTags: strings.Join(tagList, ","),
		}
	} else if err := controllerutil.SetControllerReference(formation, pvc, r.Scheme); err != nil {
		return err
	}
	if err := r.Create(ctx, pvc); err != nil && !errors.IsAlreadyExists(err) {
		return cferrors.Transient(err, "create workspace claim %s", name)
	}
	return nil
}

func (r *FormationReconciler) ensureRouteTable(ctx context.Context, formation *cellforgev1alpha1.Formation, routeTable map[string][]string) error {
	name := fmt.Sprintf("%s-routes", formation.Name)
	data, err := json.Marshal(routeTable)
	if err != nil {
		return cferrors.Validation("marshal route table: %v", err)
	}

	existing := &corev1.ConfigMap{}
	err = r.Get(ctx, client.ObjectKey{Namespace: formation.Namespace, Name: name}, existing)
	switch {
	case errors.IsNotFound(err):
		cm := &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: formation.Namespace,
				Labels:    map[string]string{"formation": formation.Name},
			},
			Data: map[string]string{"routes.json": string(data)},
		}
		if err := controllerutil.SetControllerReference(formation, cm, r.Scheme); err != nil {
			return err
		}
		if err := r.Create(ctx, cm); err != nil && !errors.IsAlreadyExists(err) {
			return cferrors.Transient(err, "create route table %s", name)
		}
		return nil
	case err != nil:
		return cferrors.Transient(err, "get route table %s", name)
	}

	if existing.Data["routes.json"] != string(data) {
		existing.Data = map[string]string{"routes.json": string(data)}
		if err := r.Update(ctx, existing); err != nil {
			return cferrors.Transient(err, "update route table %s", name)
		}
	}
	return nil
}

// ensureCells creates every Cell named by expanding the Formation's
// templates, leaving reconciliation of each Cell's workload to
// CellReconciler.
func (r *FormationReconciler) ensureCells(ctx context.Context, formation *cellforgev1alpha1.Formation) error {
	for _, tmpl := range formation.Spec.Cells {
		names := expandCellNames([]cellforgev1alpha1.CellTemplate{tmpl})
		for _, name := range names {
			cell := &cellforgev1alpha1.Cell{}
			err := r.Get(ctx, client.ObjectKey{Namespace: formation.Namespace, Name: name}, cell)
			if err == nil {
				continue
			}
			if !errors.IsNotFound(err) {
				return cferrors.Transient(err, "get cell %s", name)
			}

			spec := tmpl.Spec
			spec.FormationRef = formation.Name

			cell = &cellforgev1alpha1.Cell{
				ObjectMeta: metav1.ObjectMeta{
					Name:      name,
					Namespace: formation.Namespace,
					Labels:    map[string]string{"formation": formation.Name, "template": tmpl.Name},
				},
				Spec: spec,
			}
			if err := controllerutil.SetControllerReference(formation, cell, r.Scheme); err != nil {
				return err
			}
			if err := r.Create(ctx, cell); err != nil && !errors.IsAlreadyExists(err) {
				return cferrors.Transient(err, "create cell %s", name)
			}
		}
	}
	return nil
}

// syncStatus projects every expanded Cell's observed phase/cost onto the
// Formation, rolls up total cost, and derives the Formation's own phase.
func (r *FormationReconciler) syncStatus(ctx context.Context, formation *cellforgev1alpha1.Formation) (ctrl.Result, error) {
	names := expandCellNames(formation.Spec.Cells)
	projections := make([]cellforgev1alpha1.CellProjection, 0, len(names))
	allRunning := len(names) > 0
	var totalCost float64

	for _, name := range names {
		cell := &cellforgev1alpha1.Cell{}
		if err := r.Get(ctx, client.ObjectKey{Namespace: formation.Namespace, Name: name}, cell); err != nil {
			allRunning = false
			continue
		}
		projections = append(projections, cellforgev1alpha1.CellProjection{
			Name:  cell.Name,
			Phase: cell.Status.Phase,
			Cost:  cell.Status.TotalCost,
		})
		if cell.Status.Phase != cellforgev1alpha1.CellPhaseRunning {
			allRunning = false
		}
		if cell.Status.TotalCost != "" {
			if c, err := parseFloatOrZero(cell.Status.TotalCost); err == nil {
				totalCost += c
			}
		}
	}

	phase, message, err := r.derivePhase(ctx, formation, allRunning)
	if err != nil {
		return ctrl.Result{}, err
	}

	changed := phase != formation.Status.Phase ||
		formation.Status.TotalCost != formatCost(totalCost) ||
		len(formation.Status.Cells) != len(projections)
	formation.Status.Cells = projections
	formation.Status.TotalCost = formatCost(totalCost)
	formation.Status.RouteTableRef = fmt.Sprintf("%s-routes", formation.Name)
	formation.Status.WorkspaceClaim = fmt.Sprintf("%s-workspace", formation.Name)

	if !changed && formation.Status.Phase == phase {
		return ctrl.Result{}, nil
	}

	formation.Status.Phase = phase
	if message != "" {
		formation.Status.Message = message
	}
	if err := r.Status().Update(ctx, formation); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "update formation status")
	}
	reconcileTotal.WithLabelValues("Formation", string(phase), formation.Namespace).Inc()
	return ctrl.Result{}, nil
}

// derivePhase decides Pending/Running/Completed/Failed, consulting any
// Missions that target this Formation for terminal linkage.
func (r *FormationReconciler) derivePhase(ctx context.Context, formation *cellforgev1alpha1.Formation, allRunning bool) (cellforgev1alpha1.FormationPhase, string, error) {
	missions := &cellforgev1alpha1.MissionList{}
	if err := r.List(ctx, missions, client.InNamespace(formation.Namespace)); err != nil {
		return "", "", cferrors.Transient(err, "list missions for formation %s", formation.Name)
	}

	linked := false
	anyFailed, anySucceeded, anyUnfinished := false, false, false
	for _, m := range missions.Items {
		if m.Spec.FormationRef != formation.Name {
			continue
		}
		linked = true
		switch m.Status.Phase {
		case cellforgev1alpha1.MissionPhaseFailed:
			anyFailed = true
		case cellforgev1alpha1.MissionPhaseSucceeded:
			anySucceeded = true
		default:
			anyUnfinished = true
		}
	}

	switch {
	case linked && anyFailed:
		return cellforgev1alpha1.FormationPhaseFailed, "linked mission failed", nil
	case linked && anySucceeded && !anyUnfinished:
		return cellforgev1alpha1.FormationPhaseCompleted, "linked mission succeeded", nil
	case allRunning:
		return cellforgev1alpha1.FormationPhaseRunning, "all cells running", nil
	default:
		return cellforgev1alpha1.FormationPhasePending, "waiting for cells", nil
	}
}

func (r *FormationReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&cellforgev1alpha1.Formation{}).
		Owns(&cellforgev1alpha1.Cell{}).
		Owns(&corev1.PersistentVolumeClaim{}).
		Owns(&corev1.ConfigMap{}).
		Complete(r)
}
