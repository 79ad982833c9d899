/*
Copyright (c) 2026 GeneClackman
SPDX-License-Identifier: MIT
*/

/*
CellForge API Gateway — OpenAI-compatible endpoint for Cell orchestration.

This service translates OpenAI chat completion requests into a single-Cell
Formation plus a Mission targeting it, watches the Mission's lifecycle, and
streams results back to the client.

Architecture:

	Client → POST /v1/chat/completions → Gateway → Formation + Mission → Controllers → Cell
	Client ← SSE stream / JSON response ← Gateway ← Watch Mission status
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	ctrl "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/hortator-ai/cellforge/internal/gateway"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "Listen address")
		namespace  = flag.String("namespace", "", "Namespace to create Formations and Missions in (required)")
		kubeconfig = flag.String("kubeconfig", "", "Path to kubeconfig (uses in-cluster config if empty)")
		authSecret = flag.String("auth-secret", "cellforge-gateway-auth", "Name of Secret containing API keys")
		cellImage  = flag.String("cell-image", "cellforge/cell:latest", "Workload image for gateway-created Cells")
		logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	opts := zap.Options{}
	if *logLevel == "debug" {
		opts.Development = true
	}
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
	log := ctrl.Log.WithName("gateway")

	if *namespace == "" {
		*namespace = os.Getenv("CELLFORGE_NAMESPACE")
		if *namespace == "" {
			ns, err := os.ReadFile("/var/run/secrets/kubernetes.io/serviceaccount/namespace")
			if err != nil {
				log.Error(err, "namespace is required: use --namespace, CELLFORGE_NAMESPACE, or run in-cluster")
				os.Exit(1)
			}
			*namespace = string(ns)
		}
	}

	var config *rest.Config
	var err error
	if *kubeconfig != "" {
		config, err = clientcmd.BuildConfigFromFlags("", *kubeconfig)
	} else {
		config, err = rest.InClusterConfig()
	}
	if err != nil {
		log.Error(err, "failed to build k8s config")
		os.Exit(1)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		log.Error(err, "failed to create k8s clientset")
		os.Exit(1)
	}

	dynClient, err := dynamic.NewForConfig(config)
	if err != nil {
		log.Error(err, "failed to create dynamic client")
		os.Exit(1)
	}

	gw := &gateway.Handler{
		Namespace:  *namespace,
		Clientset:  clientset,
		DynClient:  dynClient,
		AuthSecret: *authSecret,
		CellImage:  *cellImage,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", gw.ChatCompletions)
	mux.HandleFunc("/v1/models", gw.ListModels)
	mux.HandleFunc("/api/v1/missions/", gw.MissionArtifacts)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:         *addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // Disabled for SSE streaming
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("starting gateway", "addr", *addr, "namespace", *namespace)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "server failed")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
