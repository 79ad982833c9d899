/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/remotecommand"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

// WarmPoolConfig holds idle-pool settings for leaf Cells (those with no
// FormationRef) — the cheapest, most interchangeable workload shape to
// pre-warm.
type WarmPoolConfig struct {
	Enabled bool
	Size    int
	Image   string
}

const warmPoolCooldown = 30 * time.Second

const (
	labelWarmPool  = "cellforge.io/warm-pool"
	labelWarmState = "cellforge.io/warm-state"
	labelWarmPod   = "cellforge.io/warm-for-pod"
)

// reconcileWarmPool tops the pool up to the desired size for namespace, at
// most once per cooldown window.
func (r *CellReconciler) reconcileWarmPool(ctx context.Context, namespace string) error {
	if !r.WarmPool.Enabled || r.WarmPool.Size <= 0 {
		return nil
	}

	now := time.Now()
	r.poolMu.Lock()
	last := r.warmPoolAt
	if now.Sub(last) < warmPoolCooldown {
		r.poolMu.Unlock()
		return nil
	}
	r.warmPoolAt = now
	r.poolMu.Unlock()

	return r.replenishWarmPool(ctx, namespace)
}

func (r *CellReconciler) replenishWarmPool(ctx context.Context, namespace string) error {
	logger := log.FromContext(ctx)

	podList := &corev1.PodList{}
	if err := r.List(ctx, podList, client.InNamespace(namespace),
		client.MatchingLabels{labelWarmPool: "true", labelWarmState: "idle"}); err != nil {
		return fmt.Errorf("list warm pods: %w", err)
	}

	deficit := r.WarmPool.Size - len(podList.Items)
	if deficit <= 0 {
		return nil
	}

	logger.Info("replenishing warm pool", "current", len(podList.Items), "target", r.WarmPool.Size, "creating", deficit)
	for i := 0; i < deficit; i++ {
		if _, _, err := r.buildWarmCell(ctx, namespace); err != nil {
			return fmt.Errorf("build warm cell %d/%d: %w", i+1, deficit, err)
		}
	}
	return nil
}

// buildWarmCell creates an idle pod/PVC pair that waits on /inbox/cell.json
// before running the agent loop.
func (r *CellReconciler) buildWarmCell(ctx context.Context, namespace string) (*corev1.Pod, *corev1.PersistentVolumeClaim, error) {
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	pvcName := fmt.Sprintf("warm-%s-workspace", suffix)
	podName := fmt.Sprintf("warm-%s-cell", suffix)

	image := r.WarmPool.Image
	if image == "" {
		image = "cellforge/agent:latest"
	}

	resources, err := buildWorkloadResources(cellforgev1alpha1.ResourceSpec{}, r.Defaults)
	if err != nil {
		return nil, nil, fmt.Errorf("build warm pool resources: %w", err)
	}

	storageQty, err := resource.ParseQuantity("256Mi")
	if err != nil {
		return nil, nil, fmt.Errorf("parse warm pool PVC size: %w", err)
	}

	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      pvcName,
			Namespace: namespace,
			Labels:    map[string]string{labelWarmPool: "true", labelWarmPod: podName},
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: storageQty},
			},
		},
	}
	if err := r.Create(ctx, pvc); err != nil {
		return nil, nil, fmt.Errorf("create warm PVC: %w", err)
	}

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      podName,
			Namespace: namespace,
			Labels: map[string]string{
				"app.kubernetes.io/managed-by": "cellforge-controller",
				"role":                         "cell-warm",
				labelWarmPool:                  "true",
				labelWarmState:                 "idle",
			},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{
				{
					Name:      "cell",
					Image:     image,
					Command:   []string{"sh", "-c", `while [ ! -f /inbox/cell.json ]; do sleep 0.5; done; exec /entrypoint.sh`},
					Resources: resources,
					VolumeMounts: []corev1.VolumeMount{
						{Name: "inbox", MountPath: "/inbox"},
						{Name: "workspace", MountPath: "/workspace/shared", SubPath: "shared"},
					},
				},
			},
			Volumes: []corev1.Volume{
				{Name: "inbox", VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}},
				{Name: "workspace", VolumeSource: corev1.VolumeSource{
					PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: pvcName},
				}},
			},
		},
	}

	if err := r.Create(ctx, pod); err != nil {
		_ = r.Delete(ctx, pvc)
		return nil, nil, fmt.Errorf("create warm pod: %w", err)
	}
	return pod, pvc, nil
}

// claimWarmCell claims an idle warm pod for cell, injecting its spec over
// exec and re-parenting the pod/PVC. Returns ("", false, nil) if the pool
// is empty so the caller falls back to a fresh create.
func (r *CellReconciler) claimWarmCell(ctx context.Context, cell *cellforgev1alpha1.Cell) (string, bool, error) {
	if !r.WarmPool.Enabled {
		return "", false, nil
	}

	podList := &corev1.PodList{}
	if err := r.List(ctx, podList, client.InNamespace(cell.Namespace),
		client.MatchingLabels{labelWarmPool: "true", labelWarmState: "idle"}); err != nil {
		return "", false, fmt.Errorf("list warm pods: %w", err)
	}
	if len(podList.Items) == 0 {
		return "", false, nil
	}

	pod := &podList.Items[0]
	pod.Labels[labelWarmState] = "claimed"
	pod.Labels["cell"] = cell.Name
	if err := r.Update(ctx, pod); err != nil {
		return "", false, fmt.Errorf("claim warm pod: %w", err)
	}
	if err := controllerutil.SetControllerReference(cell, pod, r.Scheme); err != nil {
		return "", false, fmt.Errorf("set owner ref on warm pod: %w", err)
	}
	if err := r.Update(ctx, pod); err != nil {
		return "", false, fmt.Errorf("update warm pod owner ref: %w", err)
	}

	pvcList := &corev1.PersistentVolumeClaimList{}
	if err := r.List(ctx, pvcList, client.InNamespace(cell.Namespace),
		client.MatchingLabels{labelWarmPool: "true", labelWarmPod: pod.Name}); err != nil {
		return "", false, fmt.Errorf("list warm PVCs: %w", err)
	}
	for i := range pvcList.Items {
		pvc := &pvcList.Items[i]
		pvc.Labels["cell"] = cell.Name
		if err := controllerutil.SetControllerReference(cell, pvc, r.Scheme); err != nil {
			return "", false, fmt.Errorf("set owner ref on warm PVC: %w", err)
		}
		if err := r.Update(ctx, pvc); err != nil {
			return "", false, fmt.Errorf("update warm PVC: %w", err)
		}
	}

	if err := r.injectCellSpec(ctx, cell, pod.Name); err != nil {
		return "", false, fmt.Errorf("inject cell spec: %w", err)
	}
	return pod.Name, true, nil
}

// injectCellSpec writes the Cell's spec JSON into the warm pod's
// /inbox/cell.json over exec.
func (r *CellReconciler) injectCellSpec(ctx context.Context, cell *cellforgev1alpha1.Cell, podName string) error {
	specJSON, err := json.Marshal(cell.Spec)
	if err != nil {
		return fmt.Errorf("marshal cell spec: %w", err)
	}
	if r.RESTConfig == nil || r.Clientset == nil {
		return fmt.Errorf("warm pool injection requires RESTConfig and Clientset")
	}

	req := r.Clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(podName).
		Namespace(cell.Namespace).
		SubResource("exec")
	req.VersionedParams(&corev1.PodExecOptions{
		Container: "cell",
		Command:   []string{"sh", "-c", "cat > /inbox/cell.json"},
		Stdin:     true,
	}, clientgoscheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(r.RESTConfig, "POST", req.URL())
	if err != nil {
		return fmt.Errorf("create executor: %w", err)
	}
	return executor.StreamWithContext(ctx, remotecommand.StreamOptions{Stdin: bytes.NewReader(specJSON)})
}
