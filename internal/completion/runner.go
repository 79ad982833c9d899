/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package completion implements the four completion-check kinds that drive
// a Mission's phase machine: fileExists, command, coverage, and busResponse.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/itchyny/gojq"

	"github.com/hortator-ai/cellforge/internal/bus"
)

// Status is the outcome of a single check.
type Status string

const (
	Passed Status = "Passed"
	Failed Status = "Failed"
	Error  Status = "Error"
)

// Kind selects the check implementation.
type Kind string

const (
	KindFileExists   Kind = "fileExists"
	KindCommand      Kind = "command"
	KindCoverage     Kind = "coverage"
	KindBusResponse  Kind = "busResponse"
	KindNatsResponse Kind = "natsResponse" // alias for KindBusResponse
)

// Spec declares one completion check.
type Spec struct {
	Name string `json:"name"`
	Kind Kind   `json:"type"`

	// fileExists
	Paths []string `json:"paths,omitempty"`

	// command / coverage
	Command        string `json:"command,omitempty"`
	FailPattern    string `json:"failPattern,omitempty"`
	SuccessPattern string `json:"successPattern,omitempty"`

	// coverage
	JSONPath string  `json:"jsonPath,omitempty"`
	Operator string  `json:"operator,omitempty"` // >=, <=, ==, >, <
	Target   float64 `json:"target,omitempty"`

	// busResponse
	Subject        string `json:"subject,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}

// Result is what a check returns; the runner itself never panics or
// propagates an error — any failure is captured as an Error result.
type Result struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Output string `json:"output,omitempty"`
}

// Runner executes check specs against a workspace directory.
type Runner struct {
	Workspace string
	Bus       bus.Client
}

// Run dispatches spec to the implementation named by spec.Kind.
func (r *Runner) Run(ctx context.Context, spec Spec) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = Result{Name: spec.Name, Status: Error, Output: fmt.Sprintf("panic: %v", rec)}
		}
	}()

	switch spec.Kind {
	case KindFileExists:
		return r.runFileExists(spec)
	case KindCommand:
		return r.runCommand(ctx, spec)
	case KindCoverage:
		return r.runCoverage(ctx, spec)
	case KindBusResponse, KindNatsResponse:
		return r.runBusResponse(ctx, spec)
	default:
		return Result{Name: spec.Name, Status: Error, Output: fmt.Sprintf("unknown check kind %q", spec.Kind)}
	}
}

// RunAll runs every check in order, short-circuiting the aggregate
// "allPassed" flag at the first non-Passed result but still running (and
// persisting) every check for observability.
func (r *Runner) RunAll(ctx context.Context, specs []Spec) (results []Result, allPassed bool) {
	allPassed = true
	for _, s := range specs {
		res := r.Run(ctx, s)
		results = append(results, res)
		if res.Status != Passed {
			allPassed = false
		}
	}
	return results, allPassed
}

func (r *Runner) resolvePath(p string) (string, error) {
	full := filepath.Join(r.Workspace, p)
	cleaned := filepath.Clean(full)
	rel, err := filepath.Rel(r.Workspace, cleaned)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q escapes workspace", p)
	}
	return cleaned, nil
}

func (r *Runner) runFileExists(spec Spec) Result {
	for _, p := range spec.Paths {
		full, err := r.resolvePath(p)
		if err != nil {
			return Result{Name: spec.Name, Status: Failed, Output: err.Error()}
		}
		if _, err := os.Stat(full); err != nil {
			return Result{Name: spec.Name, Status: Failed, Output: fmt.Sprintf("path %q does not exist", p)}
		}
	}
	return Result{Name: spec.Name, Status: Passed}
}

func (r *Runner) runCommand(ctx context.Context, spec Spec) Result {
	stdout, exitErr := r.exec(ctx, spec.Command)

	if spec.FailPattern != "" {
		re, err := regexp.Compile(spec.FailPattern)
		if err != nil {
			return Result{Name: spec.Name, Status: Error, Output: fmt.Sprintf("invalid failPattern: %v", err)}
		}
		if re.MatchString(stdout) {
			return Result{Name: spec.Name, Status: Failed, Output: stdout}
		}
	}

	if spec.SuccessPattern != "" {
		re, err := regexp.Compile(spec.SuccessPattern)
		if err != nil {
			return Result{Name: spec.Name, Status: Error, Output: fmt.Sprintf("invalid successPattern: %v", err)}
		}
		if !re.MatchString(stdout) || exitErr != nil {
			return Result{Name: spec.Name, Status: Failed, Output: stdout}
		}
		return Result{Name: spec.Name, Status: Passed, Output: stdout}
	}

	if exitErr != nil {
		return Result{Name: spec.Name, Status: Failed, Output: stdout}
	}
	return Result{Name: spec.Name, Status: Passed, Output: stdout}
}

func (r *Runner) runCoverage(ctx context.Context, spec Spec) Result {
	stdout, exitErr := r.exec(ctx, spec.Command)
	if exitErr != nil {
		return Result{Name: spec.Name, Status: Error, Output: fmt.Sprintf("command failed: %v: %s", exitErr, stdout)}
	}

	value, err := extractJSONPath(stdout, spec.JSONPath)
	if err != nil {
		return Result{Name: spec.Name, Status: Error, Output: err.Error()}
	}

	if !compare(value, spec.Operator, spec.Target) {
		return Result{Name: spec.Name, Status: Failed, Output: fmt.Sprintf("%v %s %v failed", value, spec.Operator, spec.Target)}
	}
	return Result{Name: spec.Name, Status: Passed, Output: fmt.Sprintf("%v", value)}
}

// extractJSONPath evaluates a dotted path (no arrays, no wildcards) against
// a JSON document using gojq, rejecting anything beyond plain field access.
func extractJSONPath(document, path string) (float64, error) {
	if strings.ContainsAny(path, "[]*") {
		return 0, fmt.Errorf("json path %q must not contain arrays or wildcards", path)
	}
	query := "."
	if path != "" {
		query = "." + strings.TrimPrefix(path, ".")
	}

	q, err := gojq.Parse(query)
	if err != nil {
		return 0, fmt.Errorf("invalid json path %q: %w", path, err)
	}

	var doc any
	if err := json.Unmarshal([]byte(document), &doc); err != nil {
		return 0, fmt.Errorf("output is not valid json: %w", err)
	}

	iter := q.Run(doc)
	v, ok := iter.Next()
	if !ok {
		return 0, fmt.Errorf("json path %q yielded no value", path)
	}
	if err, ok := v.(error); ok {
		return 0, err
	}

	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %q is not numeric: %q", path, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value at %q is not numeric", path)
	}
}

func compare(value float64, op string, target float64) bool {
	switch op {
	case ">=":
		return value >= target
	case "<=":
		return value <= target
	case "==":
		return value == target
	case ">":
		return value > target
	case "<":
		return value < target
	default:
		return false
	}
}

func (r *Runner) exec(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = r.Workspace
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}

func (r *Runner) runBusResponse(ctx context.Context, spec Spec) Result {
	if r.Bus == nil {
		return Result{Name: spec.Name, Status: Error, Output: "no bus client configured"}
	}

	timeout := time.Duration(spec.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	subCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var failRe, successRe *regexp.Regexp
	var err error
	if spec.FailPattern != "" {
		if failRe, err = regexp.Compile("(?i)" + spec.FailPattern); err != nil {
			return Result{Name: spec.Name, Status: Error, Output: fmt.Sprintf("invalid failPattern: %v", err)}
		}
	}
	if spec.SuccessPattern != "" {
		if successRe, err = regexp.Compile("(?i)" + spec.SuccessPattern); err != nil {
			return Result{Name: spec.Name, Status: Error, Output: fmt.Sprintf("invalid successPattern: %v", err)}
		}
	}

	resultCh := make(chan Result, 1)
	unsub, err := r.Bus.Subscribe(spec.Subject, func(env bus.Envelope) {
		var payload bus.MessagePayload
		if jerr := json.Unmarshal(env.Payload, &payload); jerr != nil {
			return
		}
		if failRe != nil && failRe.MatchString(payload.Content) {
			select {
			case resultCh <- Result{Name: spec.Name, Status: Failed, Output: payload.Content}:
			default:
			}
			return
		}
		if successRe == nil || successRe.MatchString(payload.Content) {
			select {
			case resultCh <- Result{Name: spec.Name, Status: Passed, Output: payload.Content}:
			default:
			}
		}
	})
	if err != nil {
		return Result{Name: spec.Name, Status: Error, Output: err.Error()}
	}
	defer func() { _ = unsub() }()

	select {
	case res := <-resultCh:
		return res
	case <-subCtx.Done():
		return Result{Name: spec.Name, Status: Failed, Output: "timed out waiting for bus response"}
	}
}
