/*
Copyright (c) 2026 GeneClackman
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/remotecommand"
	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

var (
	resultWait      bool
	resultArtifacts bool
	resultOutputDir string
)

var resultCmd = &cobra.Command{
	Use:   "result <mission-name>",
	Short: "Get the result of a completed Mission",
	Long: `Get the result/output of a completed Mission.

Examples:
  cellctl result my-mission
  cellctl result my-mission --json
  cellctl result my-mission --wait
  cellctl result my-mission --artifacts --output-dir ./output`,
	Args: cobra.ExactArgs(1),
	RunE: runResult,
}

func init() {
	resultCmd.Flags().BoolVarP(&resultWait, "wait", "w", false, "Wait for completion")
	resultCmd.Flags().BoolVar(&resultArtifacts, "artifacts", false, "Download artifacts from the Formation's workspace")
	resultCmd.Flags().StringVar(&resultOutputDir, "output-dir", "./artifacts", "Directory to save downloaded artifacts")
	rootCmd.AddCommand(resultCmd)
}

func runResult(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	missionName := args[0]

	if resultWait {
		if err := waitForMission(ctx, missionName); err != nil {
			return err
		}
	}

	mission := &cellforgev1alpha1.Mission{}
	if err := k8sClient.Get(ctx, client.ObjectKey{
		Namespace: getNamespace(),
		Name:      missionName,
	}, mission); err != nil {
		return fmt.Errorf("failed to get mission: %w", err)
	}

	switch mission.Status.Phase {
	case cellforgev1alpha1.MissionPhaseSucceeded, cellforgev1alpha1.MissionPhaseFailed:
		// Terminal phases — ok to read result
	case cellforgev1alpha1.MissionPhasePending:
		return fmt.Errorf("mission is still pending")
	case cellforgev1alpha1.MissionPhaseRunning:
		return fmt.Errorf("mission is still running (use --wait)")
	default:
		return fmt.Errorf("unknown mission phase: %s", mission.Status.Phase)
	}

	if resultArtifacts {
		if err := downloadArtifacts(ctx, mission); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: artifact download failed: %v\n", err)
		}
	}

	output := missionOutput(mission)

	if outputFormat == "json" {
		result := map[string]interface{}{
			"name":      mission.Name,
			"namespace": mission.Namespace,
			"phase":     mission.Status.Phase,
			"message":   mission.Status.Message,
			"output":    output,
		}
		if mission.Status.StartedAt != nil {
			result["startedAt"] = mission.Status.StartedAt.Time
		}
		if mission.Status.Cost != "" {
			result["cost"] = mission.Status.Cost
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if mission.Status.Phase == cellforgev1alpha1.MissionPhaseFailed {
		fmt.Printf("Mission failed: %s\n", mission.Status.Message)
		return nil
	}

	if output == "" {
		fmt.Println("No output available")
		return nil
	}

	fmt.Println(output)
	return nil
}

// downloadArtifacts reads files from /outbox/artifacts/ on the Mission's
// Formation workspace PVC by creating a temporary pod and exec-ing into it.
func downloadArtifacts(ctx context.Context, mission *cellforgev1alpha1.Mission) error {
	if clientset == nil {
		return fmt.Errorf("kubernetes clientset not initialized")
	}

	ns := mission.Namespace

	formation := &cellforgev1alpha1.Formation{}
	if err := k8sClient.Get(ctx, client.ObjectKey{Namespace: ns, Name: mission.Spec.FormationRef}, formation); err != nil {
		return fmt.Errorf("failed to get formation %s: %w", mission.Spec.FormationRef, err)
	}
	pvcName := formation.Status.WorkspaceClaim
	if pvcName == "" {
		return fmt.Errorf("formation %s has no workspace claim yet", formation.Name)
	}

	_, err := clientset.CoreV1().PersistentVolumeClaims(ns).Get(ctx, pvcName, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("PVC %s not found (may have been cleaned up): %w", pvcName, err)
	}

	readerPod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      fmt.Sprintf("%s-artifact-reader", mission.Name),
			Namespace: ns,
			Labels: map[string]string{
				"cellforge.hortator.ai/mission": mission.Name,
				"cellforge.hortator.ai/reader":  "artifacts",
			},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{
				{
					Name:    "reader",
					Image:   "busybox:1.37.0",
					Command: []string{"sleep", "300"},
					VolumeMounts: []corev1.VolumeMount{
						{Name: "storage", MountPath: "/outbox", SubPath: "outbox"},
					},
				},
			},
			Volumes: []corev1.Volume{
				{
					Name: "storage",
					VolumeSource: corev1.VolumeSource{
						PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
							ClaimName: pvcName,
							ReadOnly:  true,
						},
					},
				},
			},
		},
	}

	_, err = clientset.CoreV1().Pods(ns).Create(ctx, readerPod, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("failed to create artifact reader pod: %w", err)
	}
	defer func() {
		_ = clientset.CoreV1().Pods(ns).Delete(ctx, readerPod.Name, metav1.DeleteOptions{})
	}()

	fmt.Println("Starting artifact reader pod...")
	for i := 0; i < 60; i++ {
		pod, err := clientset.CoreV1().Pods(ns).Get(ctx, readerPod.Name, metav1.GetOptions{})
		if err == nil && pod.Status.Phase == corev1.PodRunning {
			break
		}
		if i == 59 {
			return fmt.Errorf("artifact reader pod did not start in time")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	fileList, err := execInPod(ctx, ns, readerPod.Name, "reader",
		[]string{"find", "/outbox/artifacts", "-type", "f"})
	if err != nil {
		return fmt.Errorf("failed to list artifacts: %w", err)
	}

	files := strings.Split(strings.TrimSpace(fileList), "\n")
	if len(files) == 0 || (len(files) == 1 && files[0] == "") {
		fmt.Println("No artifacts found")
		return nil
	}

	if err := os.MkdirAll(resultOutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	for _, remotePath := range files {
		remotePath = strings.TrimSpace(remotePath)
		if remotePath == "" {
			continue
		}

		content, err := execInPod(ctx, ns, readerPod.Name, "reader",
			[]string{"cat", remotePath})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to read %s: %v\n", remotePath, err)
			continue
		}

		relPath := strings.TrimPrefix(remotePath, "/outbox/artifacts/")
		localPath := filepath.Join(resultOutputDir, relPath)

		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to create dir for %s: %v\n", localPath, err)
			continue
		}

		if err := os.WriteFile(localPath, []byte(content), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write %s: %v\n", localPath, err)
			continue
		}

		fmt.Printf("Downloaded: %s\n", relPath)
	}

	return nil
}

// execInPod runs a command in a pod and returns stdout.
func execInPod(ctx context.Context, ns, podName, container string, command []string) (string, error) {
	config, err := getRESTConfig()
	if err != nil {
		return "", err
	}

	req := clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(podName).
		Namespace(ns).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: container,
			Command:   command,
			Stdout:    true,
			Stderr:    true,
		}, k8sscheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(config, "POST", req.URL())
	if err != nil {
		return "", fmt.Errorf("failed to create executor: %w", err)
	}

	var stdout, stderr bytes.Buffer
	if err := exec.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: io.Discard,
	}); err != nil {
		return "", fmt.Errorf("exec failed: %w (stderr: %s)", err, stderr.String())
	}

	return stdout.String(), nil
}
