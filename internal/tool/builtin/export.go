package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skillbridge/skillbridge/internal/state"
	"github.com/skillbridge/skillbridge/internal/tool"
)

// DefaultPlanFile is the export file name used when none is given.
const DefaultPlanFile = "final_career_plan.txt"

// FormatPlan renders the export file body.
func FormatPlan(plan, summary string) string {
	return fmt.Sprintf("--- CAREER PIVOT PLAN ---\n\n%s\n\n--- NEW SUMMARY ---\n%s", plan, summary)
}

// SavePlanToFile writes study_plan and final_summary to filename (relative to
// outputDir when set) and records the written path under output_path.
// Missing keys become "No Plan" and "No Summary". A filename outside outputDir
// yields an error status; filesystem failures are returned as errors.
func SavePlanToFile(sess *state.Session, outputDir, filename string) (map[string]any, error) {
	if filename == "" {
		filename = DefaultPlanFile
	}
	path := filename
	if outputDir != "" {
		resolved, err := safeResolvePath(filename, outputDir)
		if errors.Is(err, errOutsideBase) {
			return map[string]any{"status": "error", "message": err.Error()}, nil
		}
		if err != nil {
			return nil, err
		}
		path = resolved
	}

	plan := sess.GetString(state.KeyStudyPlan, "No Plan")
	summary := sess.GetString(state.KeyFinalSummary, "No Summary")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(FormatPlan(plan, summary)), 0644); err != nil {
		return nil, fmt.Errorf("write plan file: %w", err)
	}
	sess.Set(state.KeyOutputPath, path)
	return map[string]any{"status": "ok", "path": path}, nil
}

// ── save_plan_to_file ──

type SavePlanTool struct {
	sess        *state.Session
	outputDir   string
	defaultFile string
}

// NewSavePlanTool binds the export tool to a session. defaultFile replaces
// final_career_plan.txt when non-empty.
func NewSavePlanTool(sess *state.Session, outputDir, defaultFile string) *SavePlanTool {
	if defaultFile == "" {
		defaultFile = DefaultPlanFile
	}
	return &SavePlanTool{sess: sess, outputDir: outputDir, defaultFile: defaultFile}
}

func (t *SavePlanTool) Name() string { return "save_plan_to_file" }
func (t *SavePlanTool) Description() string {
	return "Save the study plan and the final resume summary from session state to a text file."
}

func (t *SavePlanTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "filename", Type: "string", Description: fmt.Sprintf("Output file name (default %s)", t.defaultFile)},
	)
}

func (t *SavePlanTool) Init(_ context.Context) error { return nil }
func (t *SavePlanTool) Close() error                 { return nil }

type savePlanArgs struct {
	Filename string `json:"filename"`
}

// Execute propagates filesystem errors; the agent treats them as fatal.
func (t *SavePlanTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a savePlanArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return tool.ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
	}
	if a.Filename == "" {
		a.Filename = t.defaultFile
	}
	res, err := SavePlanToFile(t.sess, t.outputDir, a.Filename)
	if err != nil {
		return tool.ToolResult{}, err
	}
	if res["status"] == "error" {
		return tool.ErrorResult(res["message"].(string)), nil
	}
	return tool.JSONResult(res), nil
}
