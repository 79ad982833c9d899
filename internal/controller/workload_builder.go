/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

// PlatformEndpoints names the cluster-wide services every Cell workload is
// wired to via injected env vars.
type PlatformEndpoints struct {
	BusURL        string
	StoreURL      string
	LLMGatewayURL string
	TelemetryURL  string
}

// WorkloadDefaults are the cluster-wide resource defaults applied when a
// Cell's spec.resources leaves CPU/memory unset.
type WorkloadDefaults struct {
	RequestsCPU    string
	RequestsMemory string
	LimitsCPU      string
	LimitsMemory   string
}

func defaultWorkloadDefaults() WorkloadDefaults {
	return WorkloadDefaults{
		RequestsCPU:    "100m",
		RequestsMemory: "128Mi",
		LimitsCPU:      "500m",
		LimitsMemory:   "256Mi",
	}
}

// DefaultWorkloadDefaults returns the cluster-wide workload resource
// defaults, for cmd/controller to install as CellReconciler.Defaults.
func DefaultWorkloadDefaults() WorkloadDefaults {
	return defaultWorkloadDefaults()
}

// workloadName is the deterministic workload name for a Cell.
func workloadName(cellName string) string {
	return fmt.Sprintf("cell-%s", cellName)
}

// buildWorkload translates a Cell declaration into a Pod spec: an
// "owner ref + labels + env + volumes + resources" shape, extended with
// the Cell's Formation workspace and route-table mounts.
func buildWorkload(cell *cellforgev1alpha1.Cell, endpoints PlatformEndpoints, defaults WorkloadDefaults, routeTable []byte) (*corev1.Pod, error) {
	specJSON, err := json.Marshal(cell.Spec)
	if err != nil {
		return nil, fmt.Errorf("marshal cell spec: %w", err)
	}

	env := []corev1.EnvVar{
		{Name: "CELLFORGE_CELL_NAME", Value: cell.Name},
		{Name: "CELLFORGE_NAMESPACE", Value: cell.Namespace},
		{Name: "CELLFORGE_CELL_SPEC", Value: string(specJSON)},
		{Name: "CELLFORGE_BUS_URL", Value: endpoints.BusURL},
		{Name: "CELLFORGE_STORE_URL", Value: endpoints.StoreURL},
		{Name: "CELLFORGE_LLM_GATEWAY_URL", Value: endpoints.LLMGatewayURL},
		{Name: "CELLFORGE_TELEMETRY_URL", Value: endpoints.TelemetryURL},
		{Name: "CELLFORGE_MIND_PROVIDER", Value: cell.Spec.Mind.Provider},
		{Name: "CELLFORGE_MIND_MODEL", Value: cell.Spec.Mind.Model},
	}

	if cell.Spec.ParentRef != "" {
		env = append(env, corev1.EnvVar{Name: "CELLFORGE_PARENT_REF", Value: cell.Spec.ParentRef})
	}
	if cell.Spec.FormationRef != "" {
		env = append(env, corev1.EnvVar{Name: "CELLFORGE_FORMATION_REF", Value: cell.Spec.FormationRef})
	}

	if cell.Spec.Mind.ApiKeyRef != nil {
		env = append(env, corev1.EnvVar{
			Name: "CELLFORGE_MIND_API_KEY",
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: cell.Spec.Mind.ApiKeyRef.Name},
					Key:                  cell.Spec.Mind.ApiKeyRef.Key,
				},
			},
		})
	}

	resources, err := buildWorkloadResources(cell.Spec.Resources, defaults)
	if err != nil {
		return nil, fmt.Errorf("invalid resource spec: %w", err)
	}

	volumes, mounts := buildWorkloadVolumes(cell, routeTable != nil)

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      workloadName(cell.Name),
			Namespace: cell.Namespace,
			Labels: map[string]string{
				"app.kubernetes.io/managed-by": "cellforge-controller",
				"role":                         "cell",
				"cell":                         cell.Name,
			},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{
				{
					Name:         "cell",
					Image:        cell.Spec.Image,
					Env:          env,
					Resources:    resources,
					VolumeMounts: mounts,
				},
			},
			Volumes: volumes,
		},
	}

	if cell.Spec.FormationRef != "" {
		pod.Labels["formation"] = cell.Spec.FormationRef
	}

	return pod, nil
}

// buildWorkloadVolumes mounts the Formation's shared workspace and this
// Cell's private workspace subpath, plus the topology route table, when the
// Cell belongs to a Formation. A standalone Cell gets no volumes.
func buildWorkloadVolumes(cell *cellforgev1alpha1.Cell, hasRouteTable bool) ([]corev1.Volume, []corev1.VolumeMount) {
	if cell.Spec.FormationRef == "" {
		return nil, nil
	}

	workspaceClaim := fmt.Sprintf("%s-workspace", cell.Spec.FormationRef)
	volumes := []corev1.Volume{
		{
			Name: "workspace",
			VolumeSource: corev1.VolumeSource{
				PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: workspaceClaim},
			},
		},
	}
	mounts := []corev1.VolumeMount{
		{Name: "workspace", MountPath: "/workspace/shared", SubPath: "shared"},
		{Name: "workspace", MountPath: fmt.Sprintf("/workspace/private/%s", cell.Name), SubPath: fmt.Sprintf("private/%s", cell.Name)},
	}

	if hasRouteTable {
		routeTableCM := fmt.Sprintf("%s-routes", cell.Spec.FormationRef)
		volumes = append(volumes, corev1.Volume{
			Name: "routes",
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: routeTableCM},
				},
			},
		})
		mounts = append(mounts, corev1.VolumeMount{
			Name:      "routes",
			MountPath: "/etc/cellforge/routes.json",
			SubPath:   "routes.json",
			ReadOnly:  true,
		})
	}

	return volumes, mounts
}

// buildWorkloadResources constructs resource requirements from the Cell's
// spec.resources, falling back field-by-field to the cluster defaults.
func buildWorkloadResources(spec cellforgev1alpha1.ResourceSpec, defaults WorkloadDefaults) (corev1.ResourceRequirements, error) {
	cpuRequest := spec.CPU
	if cpuRequest == "" {
		cpuRequest = defaults.RequestsCPU
	}
	memRequest := spec.Memory
	if memRequest == "" {
		memRequest = defaults.RequestsMemory
	}

	requests := corev1.ResourceList{}
	limits := corev1.ResourceList{}

	if cpuRequest != "" {
		qty, err := resource.ParseQuantity(cpuRequest)
		if err != nil {
			return corev1.ResourceRequirements{}, fmt.Errorf("invalid CPU request %q: %w", cpuRequest, err)
		}
		requests[corev1.ResourceCPU] = qty
	}
	if memRequest != "" {
		qty, err := resource.ParseQuantity(memRequest)
		if err != nil {
			return corev1.ResourceRequirements{}, fmt.Errorf("invalid memory request %q: %w", memRequest, err)
		}
		requests[corev1.ResourceMemory] = qty
	}
	if defaults.LimitsCPU != "" {
		qty, err := resource.ParseQuantity(defaults.LimitsCPU)
		if err != nil {
			return corev1.ResourceRequirements{}, fmt.Errorf("invalid CPU limit %q: %w", defaults.LimitsCPU, err)
		}
		limits[corev1.ResourceCPU] = qty
	}
	if defaults.LimitsMemory != "" {
		qty, err := resource.ParseQuantity(defaults.LimitsMemory)
		if err != nil {
			return corev1.ResourceRequirements{}, fmt.Errorf("invalid memory limit %q: %w", defaults.LimitsMemory, err)
		}
		limits[corev1.ResourceMemory] = qty
	}

	return corev1.ResourceRequirements{Requests: requests, Limits: limits}, nil
}
