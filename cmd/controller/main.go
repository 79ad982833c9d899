/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	"sigs.k8s.io/controller-runtime/pkg/webhook"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/budget"
	"github.com/hortator-ai/cellforge/internal/bus"
	"github.com/hortator-ai/cellforge/internal/controller"
	"github.com/hortator-ai/cellforge/internal/recursion"
	"github.com/hortator-ai/cellforge/internal/vectorstore"
	webhookpkg "github.com/hortator-ai/cellforge/internal/webhook"
)

var scheme = runtime.NewScheme()

func init() {
	_ = clientgoscheme.AddToScheme(scheme)
	_ = cellforgev1alpha1.AddToScheme(scheme)
}

func main() {
	var (
		metricsAddr          = flag.String("metrics-bind-address", ":8443", "Address the metrics endpoint binds to")
		probeAddr            = flag.String("health-probe-bind-address", ":8081", "Address the health probe endpoint binds to")
		enableLeaderElection = flag.Bool("leader-elect", false, "Enable leader election for controller manager HA")
		kubeconfig           = flag.String("kubeconfig", "", "Path to kubeconfig (uses in-cluster config if empty)")
		databaseURL          = flag.String("database-url", os.Getenv("CELLFORGE_DATABASE_URL"), "Postgres DSN backing the budget ledger")
		busURL               = flag.String("bus-url", os.Getenv("CELLFORGE_BUS_URL"), "NATS URL for the inter-cell message bus")
		busUser              = flag.String("bus-user", os.Getenv("CELLFORGE_BUS_USER"), "NATS username for the controller's own bus connection")
		busPassword          = flag.String("bus-password", os.Getenv("CELLFORGE_BUS_PASSWORD"), "NATS password for the controller's own bus connection")
		workspaceRoot        = flag.String("workspace-root", "/workspaces", "Controller-local mount point backing Formation workspace volumes")
		maxPlatformCells     = flag.Int("max-platform-cells", 0, "Platform-wide cap on non-terminal Cells (0 disables the cap)")
		warmPoolEnabled      = flag.Bool("warm-pool-enabled", false, "Pre-warm idle Cell workloads to cut cold-start latency")
		warmPoolSize         = flag.Int("warm-pool-size", 3, "Target number of idle warm-pool workloads per namespace")
		warmPoolImage        = flag.String("warm-pool-image", "cellforge/cell:latest", "Image used for warm-pool workloads")
		qdrantEndpoint       = flag.String("qdrant-endpoint", os.Getenv("CELLFORGE_QDRANT_ENDPOINT"), "Default Qdrant endpoint for KnowledgeGraph resources")
		milvusEndpoint       = flag.String("milvus-endpoint", os.Getenv("CELLFORGE_MILVUS_ENDPOINT"), "Default Milvus endpoint for KnowledgeGraph resources")
		spawnAdmissionAddr   = flag.String("spawn-admission-bind-address", ":8090", "Address the spawn-validation endpoint binds to (requires database-url)")
		logLevel             = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	opts := zap.Options{Development: *logLevel == "debug"}
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
	setupLog := ctrl.Log.WithName("setup")

	config, err := restConfig(*kubeconfig)
	if err != nil {
		setupLog.Error(err, "failed to build kubernetes config")
		os.Exit(1)
	}

	mgr, err := ctrl.NewManager(config, ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsserver.Options{BindAddress: *metricsAddr},
		HealthProbeBindAddress: *probeAddr,
		LeaderElection:         *enableLeaderElection,
		LeaderElectionID:       "cellforge-controller-lock",
		WebhookServer:          webhook.NewServer(webhook.Options{Port: 9443}),
	})
	if err != nil {
		setupLog.Error(err, "failed to create manager")
		os.Exit(1)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		setupLog.Error(err, "failed to create kubernetes clientset")
		os.Exit(1)
	}

	var ledger *budget.Ledger
	if *databaseURL != "" {
		db, err := connectLedgerDB(*databaseURL)
		if err != nil {
			setupLog.Error(err, "failed to connect to ledger database")
			os.Exit(1)
		}
		ledger = budget.New(db)
		setupLog.Info("budget ledger migrations applied")
	} else {
		setupLog.Info("database-url not set, spawn admission endpoint disabled")
	}

	var busClient bus.Client
	if *busURL != "" {
		nc, err := bus.Dial(*busURL, *busUser, *busPassword)
		if err != nil {
			setupLog.Error(err, "failed to connect to message bus")
			os.Exit(1)
		}
		busClient = nc
		defer nc.Close()
	} else {
		setupLog.Info("bus-url not set, Mission entrypoint dispatch disabled")
	}

	endpoints := controller.PlatformEndpoints{
		BusURL: *busURL,
	}
	knowledgeEndpoint := func(provider string) string {
		switch provider {
		case "qdrant":
			return *qdrantEndpoint
		case "milvus":
			return *milvusEndpoint
		default:
			return ""
		}
	}

	recorder := mgr.GetEventRecorderFor("cellforge-controller")

	cellReconciler := &controller.CellReconciler{
		Client:         mgr.GetClient(),
		Scheme:         mgr.GetScheme(),
		Recorder:       recorder,
		Endpoints:      endpoints,
		Defaults:       controller.DefaultWorkloadDefaults(),
		Clientset:      clientset,
		RESTConfig:     config,
		WarmPool: controller.WarmPoolConfig{
			Enabled: *warmPoolEnabled,
			Size:    *warmPoolSize,
			Image:   *warmPoolImage,
		},
		StuckDetection: controller.DefaultStuckDetectionConfig(),
	}
	if err := cellReconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Cell")
		os.Exit(1)
	}

	formationReconciler := &controller.FormationReconciler{
		Client:    mgr.GetClient(),
		Scheme:    mgr.GetScheme(),
		Recorder:  recorder,
		Retention: controller.DefaultWorkspaceRetentionConfig(),
	}
	if err := formationReconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Formation")
		os.Exit(1)
	}

	missionReconciler := &controller.MissionReconciler{
		Client:        mgr.GetClient(),
		Scheme:        mgr.GetScheme(),
		Recorder:      recorder,
		Bus:           busClient,
		WorkspaceRoot: *workspaceRoot,
		DispatchCache: controller.NewDispatchCache(controller.DispatchCacheConfig{Enabled: true}),
	}
	if err := missionReconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Mission")
		os.Exit(1)
	}

	experimentReconciler := &controller.ExperimentReconciler{
		Client:   mgr.GetClient(),
		Scheme:   mgr.GetScheme(),
		Recorder: recorder,
	}
	if err := experimentReconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Experiment")
		os.Exit(1)
	}

	spawnRequestReconciler := &controller.SpawnRequestReconciler{
		Client:   mgr.GetClient(),
		Scheme:   mgr.GetScheme(),
		Recorder: recorder,
	}
	if err := spawnRequestReconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "SpawnRequest")
		os.Exit(1)
	}

	channelReconciler := &controller.ChannelReconciler{Client: mgr.GetClient(), Scheme: mgr.GetScheme(), Recorder: recorder}
	if err := channelReconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Channel")
		os.Exit(1)
	}

	swarmReconciler := &controller.SwarmReconciler{Client: mgr.GetClient(), Scheme: mgr.GetScheme(), Recorder: recorder}
	if err := swarmReconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Swarm")
		os.Exit(1)
	}

	federationReconciler := &controller.FederationReconciler{Client: mgr.GetClient(), Scheme: mgr.GetScheme(), Recorder: recorder}
	if err := federationReconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Federation")
		os.Exit(1)
	}

	knowledgeGraphReconciler := &controller.KnowledgeGraphReconciler{
		Client:   mgr.GetClient(),
		Scheme:   mgr.GetScheme(),
		Recorder: recorder,
		Dial:     vectorstore.New,
		Endpoint: knowledgeEndpoint,
	}
	if err := knowledgeGraphReconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "KnowledgeGraph")
		os.Exit(1)
	}

	if err := (&webhookpkg.CellValidator{Client: mgr.GetClient()}).SetupWebhookWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create webhook", "webhook", "Cell")
		os.Exit(1)
	}

	if ledger != nil {
		admission := &controller.SpawnAdmissionHandler{
			Client: mgr.GetClient(),
			Validator: &recursion.Validator{
				Client:           mgr.GetClient(),
				Ledger:           ledger,
				MaxPlatformCells: *maxPlatformCells,
			},
		}
		if err := mgr.Add(manager.RunnableFunc(func(ctx context.Context) error {
			srv := &http.Server{Addr: *spawnAdmissionAddr, Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/spawn/validate" {
					admission.ServeHTTP(w, r)
					return
				}
				http.NotFound(w, r)
			})}
			go func() {
				<-ctx.Done()
				_ = srv.Close()
			}()
			setupLog.Info("starting spawn admission endpoint", "addr", *spawnAdmissionAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})); err != nil {
			setupLog.Error(err, "unable to register spawn admission endpoint")
			os.Exit(1)
		}
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		os.Exit(1)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		os.Exit(1)
	}

	setupLog.Info("starting manager", "maxPlatformCells", *maxPlatformCells)
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "manager exited with error")
		os.Exit(1)
	}
}

func restConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig != "" {
		return clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	return rest.InClusterConfig()
}

// connectLedgerDB opens a Postgres connection pool via pgx and applies the
// budget ledger's embedded goose migrations before returning.
func connectLedgerDB(dsn string) (*sqlx.DB, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	goose.SetBaseFS(budget.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return sqlx.NewDb(sqlDB, "pgx"), nil
}
