/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package completion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := &Runner{Workspace: dir}

	got := r.Run(context.Background(), Spec{Name: "present", Kind: KindFileExists, Paths: []string{"ok.txt"}})
	if got.Status != Passed {
		t.Errorf("status = %v, want Passed", got.Status)
	}

	got = r.Run(context.Background(), Spec{Name: "missing", Kind: KindFileExists, Paths: []string{"missing.txt"}})
	if got.Status != Failed {
		t.Errorf("status = %v, want Failed", got.Status)
	}

	got = r.Run(context.Background(), Spec{Name: "traversal", Kind: KindFileExists, Paths: []string{"../escape.txt"}})
	if got.Status != Failed {
		t.Errorf("status = %v, want Failed for path traversal", got.Status)
	}
}

func TestCommand(t *testing.T) {
	r := &Runner{Workspace: t.TempDir()}

	got := r.Run(context.Background(), Spec{Name: "echo", Kind: KindCommand, Command: "echo ok", SuccessPattern: "ok"})
	if got.Status != Passed {
		t.Errorf("status = %v, want Passed: %s", got.Status, got.Output)
	}

	got = r.Run(context.Background(), Spec{Name: "echo-fail", Kind: KindCommand, Command: "echo broken", FailPattern: "broken"})
	if got.Status != Failed {
		t.Errorf("status = %v, want Failed", got.Status)
	}
}

func TestCoverage(t *testing.T) {
	r := &Runner{Workspace: t.TempDir()}

	spec := Spec{
		Name:     "coverage",
		Kind:     KindCoverage,
		Command:  `echo '{"coverage":{"percent":87.5}}'`,
		JSONPath: "coverage.percent",
		Operator: ">=",
		Target:   80,
	}
	got := r.Run(context.Background(), spec)
	if got.Status != Passed {
		t.Errorf("status = %v, want Passed: %s", got.Status, got.Output)
	}

	spec.Target = 95
	got = r.Run(context.Background(), spec)
	if got.Status != Failed {
		t.Errorf("status = %v, want Failed: %s", got.Status, got.Output)
	}

	spec.JSONPath = "coverage[0]"
	got = r.Run(context.Background(), spec)
	if got.Status != Error {
		t.Errorf("status = %v, want Error for array path", got.Status)
	}
}

func TestRunAllShortCircuitsButRunsEverything(t *testing.T) {
	r := &Runner{Workspace: t.TempDir()}
	specs := []Spec{
		{Name: "a", Kind: KindCommand, Command: "echo a", SuccessPattern: "a"},
		{Name: "b", Kind: KindCommand, Command: "echo nope", SuccessPattern: "b"},
		{Name: "c", Kind: KindCommand, Command: "echo c", SuccessPattern: "c"},
	}
	results, allPassed := r.RunAll(context.Background(), specs)
	if allPassed {
		t.Error("allPassed = true, want false")
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3 (every check still runs)", len(results))
	}
	if results[2].Status != Passed {
		t.Errorf("check c status = %v, want Passed despite b failing", results[2].Status)
	}
}
