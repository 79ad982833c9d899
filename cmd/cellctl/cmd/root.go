/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

var (
	kubeconfig   string
	namespace    string
	outputFormat string
	k8sClient    client.Client
	clientset    *kubernetes.Clientset
	scheme       = runtime.NewScheme()
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(cellforgev1alpha1.AddToScheme(scheme))
}

var rootCmd = &cobra.Command{
	Use:   "cellctl",
	Short: "CLI for CellForge - a Kubernetes control plane for AI agent orchestration",
	Long: `CellForge is a Kubernetes operator that organizes AI agents into Formations
driven by Missions.

It provides a CLI interface for agents and operators to spawn, monitor, and
collect results from Missions running against Cells in the cluster.

Examples:
  # Spawn a new Mission and wait for completion
  cellctl spawn --prompt "Analyze the logs in /var/log" --wait

  # Check status of a running Mission
  cellctl status my-mission

  # Get logs from a Mission's entrypoint Cell
  cellctl logs my-mission

  # Get the result output from a completed Mission
  cellctl result my-mission

  # List all Missions
  cellctl list`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initClient()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&kubeconfig, "kubeconfig", "", "Path to kubeconfig file")
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "", "Target namespace")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
}

func initClient() error {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		loadingRules.ExplicitPath = kubeconfig
	}

	configOverrides := &clientcmd.ConfigOverrides{}
	kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides)

	config, err := kubeConfig.ClientConfig()
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	// Set namespace from kubeconfig if not specified
	if namespace == "" {
		ns, _, err := kubeConfig.Namespace()
		if err == nil && ns != "" {
			namespace = ns
		} else {
			namespace = "default"
		}
	}

	k8sClient, err = client.New(config, client.Options{Scheme: scheme})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	clientset, err = kubernetes.NewForConfig(config)
	if err != nil {
		return fmt.Errorf("failed to create clientset: %w", err)
	}

	return nil
}

func getNamespace() string {
	if namespace != "" {
		return namespace
	}
	if ns := os.Getenv("CELLFORGE_NAMESPACE"); ns != "" {
		return ns
	}
	return "default"
}

// getRESTConfig returns the kubernetes rest config, reusing the same
// loading rules as initClient. Needed by subcommands (logs, result,
// artifacts) that exec or stream directly against the API server.
func getRESTConfig() (*rest.Config, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		loadingRules.ExplicitPath = kubeconfig
	}
	configOverrides := &clientcmd.ConfigOverrides{}
	kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides)
	return kubeConfig.ClientConfig()
}
