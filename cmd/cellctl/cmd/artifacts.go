/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/artifacts"
)

var artifactsOutputDir string

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Manage Mission artifacts from a Formation's workspace",
	Long: `List, download, and retrieve individual artifact files from the
workspace PVC shared by a Mission's Formation.

Examples:
  cellctl artifacts list my-mission
  cellctl artifacts download my-mission --output-dir ./out
  cellctl artifacts get my-mission results/report.txt`,
}

// newExtractor builds an artifacts.Extractor from the CLI's shared clientset
// and rest config.
func newExtractor() (*artifacts.Extractor, error) {
	if clientset == nil {
		return nil, fmt.Errorf("kubernetes clientset not initialized")
	}
	config, err := getRESTConfig()
	if err != nil {
		return nil, err
	}
	return &artifacts.Extractor{Clientset: clientset, RestConfig: config}, nil
}

// workspaceClaimFor resolves the workspace PVC name backing a Mission's
// Formation.
func workspaceClaimFor(ctx context.Context, missionName string) (string, error) {
	mission := &cellforgev1alpha1.Mission{}
	if err := k8sClient.Get(ctx, client.ObjectKey{Namespace: getNamespace(), Name: missionName}, mission); err != nil {
		return "", fmt.Errorf("failed to get mission: %w", err)
	}
	formation := &cellforgev1alpha1.Formation{}
	if err := k8sClient.Get(ctx, client.ObjectKey{Namespace: mission.Namespace, Name: mission.Spec.FormationRef}, formation); err != nil {
		return "", fmt.Errorf("failed to get formation %s: %w", mission.Spec.FormationRef, err)
	}
	if formation.Status.WorkspaceClaim == "" {
		return "", fmt.Errorf("formation %s has no workspace claim yet", formation.Name)
	}
	return formation.Status.WorkspaceClaim, nil
}

var artifactsListCmd = &cobra.Command{
	Use:   "list <mission-name>",
	Short: "List artifact files in the Formation's workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ext, err := newExtractor()
		if err != nil {
			return err
		}
		pvcName, err := workspaceClaimFor(ctx, args[0])
		if err != nil {
			return err
		}
		files, err := ext.ListFiles(ctx, getNamespace(), pvcName)
		if err != nil {
			if errors.Is(err, artifacts.ErrPVCNotFound) {
				return fmt.Errorf("PVC %s not found (may have been cleaned up)", pvcName)
			}
			if errors.Is(err, artifacts.ErrNoFiles) {
				fmt.Println("No artifacts found")
				return nil
			}
			return err
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return nil
	},
}

var artifactsDownloadCmd = &cobra.Command{
	Use:   "download <mission-name>",
	Short: "Download all artifacts from the Formation's workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ext, err := newExtractor()
		if err != nil {
			return err
		}
		pvcName, err := workspaceClaimFor(ctx, args[0])
		if err != nil {
			return err
		}
		rc, err := ext.DownloadTar(ctx, getNamespace(), pvcName)
		if err != nil {
			if errors.Is(err, artifacts.ErrPVCNotFound) {
				return fmt.Errorf("PVC %s not found (may have been cleaned up)", pvcName)
			}
			return err
		}
		defer rc.Close()

		if err := os.MkdirAll(artifactsOutputDir, 0o755); err != nil {
			return err
		}
		return untarTo(rc, artifactsOutputDir)
	},
}

var artifactsGetCmd = &cobra.Command{
	Use:   "get <mission-name> <path>",
	Short: "Download a single artifact file to stdout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ext, err := newExtractor()
		if err != nil {
			return err
		}
		pvcName, err := workspaceClaimFor(ctx, args[0])
		if err != nil {
			return err
		}
		rc, err := ext.DownloadFile(ctx, getNamespace(), pvcName, args[1])
		if err != nil {
			if errors.Is(err, artifacts.ErrPVCNotFound) {
				return fmt.Errorf("PVC %s not found (may have been cleaned up)", pvcName)
			}
			return err
		}
		defer rc.Close()
		_, err = io.Copy(os.Stdout, rc)
		return err
	},
}

// untarTo extracts a tar stream into destDir, rejecting entries that would
// escape it.
func untarTo(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, hdr.Name)
		if !isWithinDir(destDir, target) {
			return fmt.Errorf("refusing to extract %q outside %q", hdr.Name, destDir)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		}
	}
}

func isWithinDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func init() {
	artifactsDownloadCmd.Flags().StringVar(&artifactsOutputDir, "output-dir", ".", "Directory to save downloaded artifacts")
	artifactsCmd.AddCommand(artifactsListCmd)
	artifactsCmd.AddCommand(artifactsDownloadCmd)
	artifactsCmd.AddCommand(artifactsGetCmd)
	rootCmd.AddCommand(artifactsCmd)
}
