/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
	"github.com/hortator-ai/cellforge/internal/cferrors"
)

// experimentPerRunCostEstimate is a placeholder per-run cost used to size
// an Experiment's Pending-phase budget check before any run has actually
// reported a cost. It is refined once a run's Formation reports real
// spend; see DESIGN.md's note on Open Question 2.
const experimentPerRunCostEstimate = 0.05

// runVariant is one queued cartesian-product point, not persisted on the
// CRD: only its projection (RunStatus) is. Re-derivable from spec.Variables
// and spec.Repeats, so losing the in-memory queue on restart never loses
// data, only in-flight scheduling state.
type runVariant struct {
	VariantKey string
	Repeat     int
	Vars       map[string]string
}

// ExperimentReconciler drives the Pending → Running → Analyzing → Completed
// pipeline, applying the same claim-queue pattern used for warm-pool
// dispatch (warm_pool.go) to a per-Experiment run queue keyed by the
// owning object's UID.
type ExperimentReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder

	mu        sync.Mutex
	runQueues map[types.UID][]runVariant
}

// +kubebuilder:rbac:groups=cellforge.io,resources=experiments,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=cellforge.io,resources=experiments/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=cellforge.io,resources=formations;missions,verbs=get;list;watch;create;delete

func (r *ExperimentReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	exp := &cellforgev1alpha1.Experiment{}
	if err := r.Get(ctx, req.NamespacedName, exp); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	switch exp.Status.Phase {
	case "", cellforgev1alpha1.ExperimentPhasePending:
		return r.handlePending(ctx, exp)
	case cellforgev1alpha1.ExperimentPhaseRunning:
		return r.handleRunning(ctx, exp)
	case cellforgev1alpha1.ExperimentPhaseAnalyzing:
		return r.handleAnalyzing(ctx, exp)
	default:
		return ctrl.Result{}, nil
	}
}

func (r *ExperimentReconciler) handlePending(ctx context.Context, exp *cellforgev1alpha1.Experiment) (ctrl.Result, error) {
	variants := expandVariants(exp.Spec.Variables, exp.Spec.Repeats)

	maxCost, err := parseFloatOrZero(exp.Spec.Budget.MaxTotalCost)
	if err != nil {
		return ctrl.Result{}, cferrors.Validation("invalid experiment budget %q: %v", exp.Spec.Budget.MaxTotalCost, err)
	}
	estimated := float64(len(variants)) * experimentPerRunCostEstimate

	if exp.Spec.Budget.AbortOnOverBudget && maxCost > 0 && estimated > maxCost {
		exp.Status.Phase = cellforgev1alpha1.ExperimentPhaseAborted
		exp.Status.Message = fmt.Sprintf("estimated cost %.2f exceeds budget %.2f", estimated, maxCost)
		exp.Status.Suggestions = []string{
			"reduce repeats",
			"reduce the number of variable values",
			"raise budget.maxTotalCost",
		}
		if err := r.Status().Update(ctx, exp); err != nil {
			return ctrl.Result{}, cferrors.Transient(err, "update status to Aborted")
		}
		emitEvent(ctx, "cellforge.experiment.aborted", resourceAttrs("Experiment", exp.Namespace, exp.Name, string(exp.Status.Phase))...)
		r.Recorder.Event(exp, "Warning", "ExperimentOverBudget", exp.Status.Message)
		return ctrl.Result{}, nil
	}

	r.setQueue(exp.UID, variants)

	exp.Status.Phase = cellforgev1alpha1.ExperimentPhaseRunning
	exp.Status.Message = fmt.Sprintf("queued %d runs", len(variants))
	exp.Status.Runs = nil
	if err := r.Status().Update(ctx, exp); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "update status to Running")
	}
	reconcileTotal.WithLabelValues("Experiment", string(exp.Status.Phase), exp.Namespace).Inc()
	return ctrl.Result{Requeue: true}, nil
}

func (r *ExperimentReconciler) handleRunning(ctx context.Context, exp *cellforgev1alpha1.Experiment) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	queue, ok := r.getQueue(exp.UID)
	if !ok {
		// Controller restarted and lost the in-memory queue; degrade
		// gracefully by analyzing whatever runs are already recorded
		// rather than re-deriving and re-launching the matrix.
		logger.Info("run queue missing after restart, degrading to Analyzing", "experiment", exp.Name)
		return r.finishRunning(ctx, exp)
	}

	parallel := exp.Spec.Parallel
	if parallel < 1 {
		parallel = 1
	}

	active := 0
	var totalCost float64
	for i := range exp.Status.Runs {
		run := &exp.Status.Runs[i]
		if run.Phase == "Running" {
			r.pollRun(ctx, exp, run)
		}
		if run.Phase == "Running" {
			active++
		}
		if c, err := parseFloatOrZero(run.Cost); err == nil {
			totalCost += c
		}
	}

	maxCost, err := parseFloatOrZero(exp.Spec.Budget.MaxTotalCost)
	if err == nil && exp.Spec.Budget.AbortOnOverBudget && maxCost > 0 && totalCost >= maxCost {
		for i := range exp.Status.Runs {
			if exp.Status.Runs[i].Phase == "Running" || exp.Status.Runs[i].Phase == "Pending" {
				exp.Status.Runs[i].Phase = "Aborted"
			}
		}
		r.forgetQueue(exp.UID)
		exp.Status.TotalCost = formatCost(totalCost)
		exp.Status.Phase = cellforgev1alpha1.ExperimentPhaseAnalyzing
		exp.Status.Message = "aborted remaining runs: over budget"
		if err := r.Status().Update(ctx, exp); err != nil {
			return ctrl.Result{}, cferrors.Transient(err, "update status after over-budget abort")
		}
		emitEvent(ctx, "cellforge.experiment.over_budget", resourceAttrs("Experiment", exp.Namespace, exp.Name, string(exp.Status.Phase))...)
		r.Recorder.Event(exp, "Warning", "ExperimentOverBudget", exp.Status.Message)
		return ctrl.Result{Requeue: true}, nil
	}

	for active < parallel && len(queue) > 0 {
		variant := queue[0]
		queue = queue[1:]
		run, err := r.launchRun(ctx, exp, variant)
		if err != nil {
			return ctrl.Result{}, err
		}
		exp.Status.Runs = append(exp.Status.Runs, run)
		active++
	}
	r.setQueue(exp.UID, queue)

	exp.Status.TotalCost = formatCost(totalCost)
	if len(queue) == 0 && active == 0 {
		return r.finishRunning(ctx, exp)
	}

	if err := r.Status().Update(ctx, exp); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "update status with run progress")
	}
	return ctrl.Result{}, nil
}

func (r *ExperimentReconciler) finishRunning(ctx context.Context, exp *cellforgev1alpha1.Experiment) (ctrl.Result, error) {
	r.forgetQueue(exp.UID)
	exp.Status.Phase = cellforgev1alpha1.ExperimentPhaseAnalyzing
	exp.Status.Message = "all runs drained, analyzing"
	if err := r.Status().Update(ctx, exp); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "update status to Analyzing")
	}
	reconcileTotal.WithLabelValues("Experiment", string(exp.Status.Phase), exp.Namespace).Inc()
	return ctrl.Result{Requeue: true}, nil
}

// launchRun creates the Formation and Mission backing one queued variant.
func (r *ExperimentReconciler) launchRun(ctx context.Context, exp *cellforgev1alpha1.Experiment, variant runVariant) (cellforgev1alpha1.RunStatus, error) {
	runName := fmt.Sprintf("%s-%s-%d", exp.Name, sanitizeVariantKey(variant.VariantKey), variant.Repeat)

	formationSpec, err := instantiateFormationTemplate(exp.Spec.Template, variant.Vars)
	if err != nil {
		return cellforgev1alpha1.RunStatus{}, cferrors.Validation("instantiate formation template: %v", err)
	}
	formation := &cellforgev1alpha1.Formation{
		ObjectMeta: metav1.ObjectMeta{Name: runName, Namespace: exp.Namespace, Labels: map[string]string{"experiment": exp.Name}},
		Spec:       formationSpec,
	}
	if err := controllerutil.SetControllerReference(exp, formation, r.Scheme); err != nil {
		return cellforgev1alpha1.RunStatus{}, err
	}
	if err := r.Create(ctx, formation); err != nil && !errors.IsAlreadyExists(err) {
		return cellforgev1alpha1.RunStatus{}, cferrors.Transient(err, "create run formation %s", runName)
	}

	missionSpec := exp.Spec.Mission
	missionSpec.FormationRef = runName
	mission := &cellforgev1alpha1.Mission{
		ObjectMeta: metav1.ObjectMeta{Name: runName, Namespace: exp.Namespace, Labels: map[string]string{"experiment": exp.Name}},
		Spec:       missionSpec,
	}
	if err := controllerutil.SetControllerReference(exp, mission, r.Scheme); err != nil {
		return cellforgev1alpha1.RunStatus{}, err
	}
	if err := r.Create(ctx, mission); err != nil && !errors.IsAlreadyExists(err) {
		return cellforgev1alpha1.RunStatus{}, cferrors.Transient(err, "create run mission %s", runName)
	}

	return cellforgev1alpha1.RunStatus{
		VariantKey:    variant.VariantKey,
		Repeat:        variant.Repeat,
		Phase:         "Running",
		FormationName: runName,
		MissionName:   runName,
	}, nil
}

// pollRun refreshes one in-flight run's projection from its Mission.
func (r *ExperimentReconciler) pollRun(ctx context.Context, exp *cellforgev1alpha1.Experiment, run *cellforgev1alpha1.RunStatus) {
	mission := &cellforgev1alpha1.Mission{}
	if err := r.Get(ctx, client.ObjectKey{Namespace: exp.Namespace, Name: run.MissionName}, mission); err != nil {
		return
	}

	switch mission.Status.Phase {
	case cellforgev1alpha1.MissionPhaseSucceeded:
		run.Phase = "Completed"
	case cellforgev1alpha1.MissionPhaseFailed:
		run.Phase = "Failed"
	default:
		return
	}
	run.Cost = mission.Status.Cost
	run.Metrics = extractRunMetrics(exp.Spec.Metrics, mission.Status.Checks)
}

func extractRunMetrics(specs []cellforgev1alpha1.MetricSpec, checks []cellforgev1alpha1.CheckResult) map[string]float64 {
	if len(specs) == 0 {
		return nil
	}
	byName := make(map[string]string, len(checks))
	for _, c := range checks {
		byName[c.Name] = c.Output
	}
	out := make(map[string]float64, len(specs))
	for _, m := range specs {
		if raw, ok := byName[m.Name]; ok {
			if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
				out[m.Name] = v
			}
		}
	}
	return out
}

func (r *ExperimentReconciler) handleAnalyzing(ctx context.Context, exp *cellforgev1alpha1.Experiment) (ctrl.Result, error) {
	summaries := summarizeMetrics(exp.Spec.Metrics, exp.Status.Runs)
	pareto := paretoFront(exp.Spec.Metrics, summaries)

	exp.Status.Analysis = &cellforgev1alpha1.ExperimentAnalysis{
		Summaries:   summaries,
		ParetoFront: pareto,
	}
	exp.Status.Phase = cellforgev1alpha1.ExperimentPhaseCompleted
	exp.Status.Message = "analysis complete"
	if err := r.Status().Update(ctx, exp); err != nil {
		return ctrl.Result{}, cferrors.Transient(err, "update status to Completed")
	}
	emitEvent(ctx, "cellforge.experiment.completed", resourceAttrs("Experiment", exp.Namespace, exp.Name, string(exp.Status.Phase))...)
	r.Recorder.Event(exp, "Normal", "ExperimentCompleted", "analysis complete")
	reconcileTotal.WithLabelValues("Experiment", string(exp.Status.Phase), exp.Namespace).Inc()
	return ctrl.Result{}, nil
}

// summarizeMetrics aggregates each metric per variant key across its
// repeats, using the aggregation named by MetricSpec.Type.
func summarizeMetrics(specs []cellforgev1alpha1.MetricSpec, runs []cellforgev1alpha1.RunStatus) []cellforgev1alpha1.MetricSummary {
	type key struct{ variant, metric string }
	samples := map[key][]float64{}
	for _, run := range runs {
		for name, v := range run.Metrics {
			k := key{run.VariantKey, name}
			samples[k] = append(samples[k], v)
		}
	}

	kindByName := make(map[string]cellforgev1alpha1.MetricKind, len(specs))
	for _, m := range specs {
		kindByName[m.Name] = m.Type
	}

	var out []cellforgev1alpha1.MetricSummary
	var keys []key
	for k := range samples {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].variant != keys[j].variant {
			return keys[i].variant < keys[j].variant
		}
		return keys[i].metric < keys[j].metric
	})

	for _, k := range keys {
		out = append(out, cellforgev1alpha1.MetricSummary{
			VariantKey: k.variant,
			Metric:     k.metric,
			Value:      aggregate(kindByName[k.metric], samples[k]),
			Samples:    len(samples[k]),
		})
	}
	return out
}

func aggregate(kind cellforgev1alpha1.MetricKind, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch kind {
	case cellforgev1alpha1.MetricSum:
		var s float64
		for _, v := range values {
			s += v
		}
		return s
	case cellforgev1alpha1.MetricCount:
		return float64(len(values))
	case cellforgev1alpha1.MetricMax:
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m
	case cellforgev1alpha1.MetricMin:
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m
	default: // mean, duration
		var s float64
		for _, v := range values {
			s += v
		}
		return s / float64(len(values))
	}
}

// paretoFront returns the variant keys not dominated by any other variant
// across every summarized metric. duration/count metrics are treated as
// lower-is-better, every other kind as higher-is-better.
func paretoFront(specs []cellforgev1alpha1.MetricSpec, summaries []cellforgev1alpha1.MetricSummary) []string {
	lowerIsBetter := make(map[string]bool, len(specs))
	for _, m := range specs {
		lowerIsBetter[m.Name] = m.Type == cellforgev1alpha1.MetricDuration || m.Type == cellforgev1alpha1.MetricCount
	}

	byVariant := map[string]map[string]float64{}
	var variants []string
	for _, s := range summaries {
		if _, ok := byVariant[s.VariantKey]; !ok {
			byVariant[s.VariantKey] = map[string]float64{}
			variants = append(variants, s.VariantKey)
		}
		byVariant[s.VariantKey][s.Metric] = s.Value
	}
	sort.Strings(variants)

	dominates := func(a, b map[string]float64) bool {
		atLeastAsGoodOnAll, strictlyBetterOnOne := true, false
		for metric, av := range a {
			bv, ok := b[metric]
			if !ok {
				continue
			}
			better := av > bv
			if lowerIsBetter[metric] {
				better = av < bv
			}
			worse := av < bv
			if lowerIsBetter[metric] {
				worse = av > bv
			}
			if worse {
				atLeastAsGoodOnAll = false
			}
			if better {
				strictlyBetterOnOne = true
			}
		}
		return atLeastAsGoodOnAll && strictlyBetterOnOne
	}

	var front []string
	for _, v := range variants {
		dominated := false
		for _, other := range variants {
			if other == v {
				continue
			}
			if dominates(byVariant[other], byVariant[v]) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, v)
		}
	}
	return front
}

// expandVariants computes the cartesian product of every VariableSpec's
// values, repeated `repeats` times each.
func expandVariants(vars []cellforgev1alpha1.VariableSpec, repeats int) []runVariant {
	if repeats < 1 {
		repeats = 1
	}

	combos := []map[string]string{{}}
	for _, v := range vars {
		var next []map[string]string
		for _, combo := range combos {
			for _, val := range v.Values {
				c := make(map[string]string, len(combo)+1)
				for k, existing := range combo {
					c[k] = existing
				}
				c[v.Name] = val
				next = append(next, c)
			}
		}
		combos = next
	}

	var out []runVariant
	for _, combo := range combos {
		key := variantKey(combo)
		for i := 0; i < repeats; i++ {
			out = append(out, runVariant{VariantKey: key, Repeat: i, Vars: combo})
		}
	}
	return out
}

func variantKey(vars map[string]string) string {
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+"="+vars[k])
	}
	return strings.Join(parts, ",")
}

func sanitizeVariantKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// instantiateFormationTemplate substitutes "{{name}}" placeholders in the
// template's JSON encoding with each variable's value for this variant,
// the same lightweight text-substitution idiom used for the init
// container's spec-file generation.
func instantiateFormationTemplate(tmpl cellforgev1alpha1.FormationSpec, vars map[string]string) (cellforgev1alpha1.FormationSpec, error) {
	raw, err := json.Marshal(tmpl)
	if err != nil {
		return cellforgev1alpha1.FormationSpec{}, err
	}
	s := string(raw)
	for name, val := range vars {
		s = strings.ReplaceAll(s, "{{"+name+"}}", val)
	}
	var out cellforgev1alpha1.FormationSpec
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return cellforgev1alpha1.FormationSpec{}, err
	}
	return out, nil
}

func (r *ExperimentReconciler) setQueue(uid types.UID, queue []runVariant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runQueues == nil {
		r.runQueues = map[types.UID][]runVariant{}
	}
	r.runQueues[uid] = queue
}

func (r *ExperimentReconciler) getQueue(uid types.UID) ([]runVariant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.runQueues[uid]
	return q, ok
}

func (r *ExperimentReconciler) forgetQueue(uid types.UID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runQueues, uid)
}

func (r *ExperimentReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&cellforgev1alpha1.Experiment{}).
		Owns(&cellforgev1alpha1.Formation{}).
		Owns(&cellforgev1alpha1.Mission{}).
		Complete(r)
}
