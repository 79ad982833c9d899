/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

// Prometheus metrics covering every CellForge resource kind via a "kind"
// label instead of one metric family per kind.
var (
	reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellforge_reconcile_total",
			Help: "Total reconciles by resource kind, phase, and namespace",
		},
		[]string{"kind", "phase", "namespace"},
	)
	cellsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cellforge_cells_active",
			Help: "Number of currently Running Cells by namespace",
		},
		[]string{"namespace"},
	)
	cellCostUsd = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cellforge_cell_cost_usd",
			Help:    "Estimated cost in USD per completed Cell",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 25.0},
		},
	)
	stuckDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellforge_stuck_detected_total",
			Help: "Cells flagged stuck by action taken and namespace",
		},
		[]string{"action", "namespace"},
	)
)

var tracer = otel.Tracer("cellforge.io/controller")

func init() {
	metrics.Registry.MustRegister(reconcileTotal, cellsActive, cellCostUsd, stuckDetectedTotal)
}

// emitEvent starts a span and records a named event with the given
// attributes: one trace event per resource state transition.
func emitEvent(ctx context.Context, eventName string, attrs ...attribute.KeyValue) {
	_, span := tracer.Start(ctx, eventName)
	defer span.End()
	span.AddEvent(eventName, trace.WithAttributes(attrs...))
}

func resourceAttrs(kind, namespace, name, phase string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("cellforge.kind", kind),
		attribute.String("cellforge.namespace", namespace),
		attribute.String("cellforge.name", name),
		attribute.String("cellforge.phase", phase),
	}
}
