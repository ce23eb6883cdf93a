package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillbridge/skillbridge/internal/state"
)

func TestSavePlanToFile_Placeholders(t *testing.T) {
	dir := t.TempDir()
	res, err := SavePlanToFile(state.NewSession("t"), dir, "")
	if err != nil {
		t.Fatalf("SavePlanToFile() error: %v", err)
	}

	path := res["path"].(string)
	if filepath.Base(path) != DefaultPlanFile {
		t.Errorf("path = %q, want default file name", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "--- CAREER PIVOT PLAN ---\n\nNo Plan\n\n--- NEW SUMMARY ---\nNo Summary"
	if string(data) != want {
		t.Errorf("file content = %q, want %q", data, want)
	}
}

func TestSavePlanToFile_WritesState(t *testing.T) {
	dir := t.TempDir()
	sess := state.NewSession("t")
	sess.Set(state.KeyStudyPlan, "Week 1: Python")
	sess.Set(state.KeyFinalSummary, "AI engineer in the making")

	res, err := SavePlanToFile(sess, dir, "plan.txt")
	if err != nil {
		t.Fatalf("SavePlanToFile() error: %v", err)
	}
	data, _ := os.ReadFile(res["path"].(string))
	if string(data) != FormatPlan("Week 1: Python", "AI engineer in the making") {
		t.Errorf("file content = %q", data)
	}
}

func TestSavePlanToFile_FilesystemErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	// A regular file where a directory is expected cannot be created into.
	if _, err := SavePlanToFile(state.NewSession("t"), dir, "blocker/plan.txt"); err == nil {
		t.Error("expected filesystem error")
	}

	tl := NewSavePlanTool(state.NewSession("t"), dir, "")
	if _, err := tl.Execute(context.Background(), json.RawMessage(`{"filename":"blocker/plan.txt"}`)); err == nil {
		t.Error("tool should propagate the filesystem error")
	}
}

func TestSavePlanTool_DefaultFile(t *testing.T) {
	dir := t.TempDir()
	tl := NewSavePlanTool(state.NewSession("t"), dir, "custom.txt")
	res, err := tl.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	m := decodeOutput(t, res.Output)
	if m["status"] != "ok" || filepath.Base(m["path"].(string)) != "custom.txt" {
		t.Errorf("output = %v", m)
	}
}

func TestSavePlanToFile_RejectsEscape(t *testing.T) {
	sess := state.NewSession("t")
	res, err := SavePlanToFile(sess, t.TempDir(), "../escape.txt")
	if err != nil {
		t.Fatalf("rejection should not be a Go error: %v", err)
	}
	if res["status"] != "error" {
		t.Errorf("status = %v, want error", res["status"])
	}
	if sess.Has(state.KeyOutputPath) {
		t.Error("output_path should not be recorded for a rejected file")
	}
}

func TestSavePlanTool_EscapeIsToolError(t *testing.T) {
	tl := NewSavePlanTool(state.NewSession("t"), t.TempDir(), "")
	res, err := tl.Execute(context.Background(), json.RawMessage(`{"filename":"../plan.txt"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v, want a tool error result", err)
	}
	if res.Error == "" {
		t.Error("ToolResult.Error should be set")
	}
	if m := decodeOutput(t, res.Output); m["status"] != "error" {
		t.Errorf("output = %v", m)
	}
}

func TestSavePlanToFile_RecordsPath(t *testing.T) {
	dir := t.TempDir()
	sess := state.NewSession("t")
	res, err := SavePlanToFile(sess, dir, "pivot.txt")
	if err != nil {
		t.Fatalf("SavePlanToFile() error: %v", err)
	}
	if got := sess.GetString(state.KeyOutputPath, ""); got != res["path"] {
		t.Errorf("output_path = %q, want %q", got, res["path"])
	}
}
