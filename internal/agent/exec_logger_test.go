package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.md")
	l, err := NewExecLogger(path)
	if err != nil {
		t.Fatal(err)
	}

	l.StartRun("run-42", "I want to be an AI Engineer")
	l.LogStep("greeter", StepRecord{StepNumber: 1, Type: "decide", Action: "tool", ToolName: "read_resume"})
	l.LogStep("greeter", StepRecord{StepNumber: 2, Type: "tool", ToolName: "read_resume", Input: `{"filename":"cv.pdf"}`, Output: `{"status":"ok"}`})
	l.LogStep("market_analyst", StepRecord{StepNumber: 1, Type: "answer", Output: "stored"})
	l.EndRun("All set.")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		"# Run run-42",
		"I want to be an AI Engineer",
		"## Stage greeter",
		"## Stage market_analyst",
		"**Tool**: `read_resume`",
		"> stored",
		"All set.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q", want)
		}
	}
	if strings.Count(out, "## Stage greeter") != 1 {
		t.Error("stage header should be written once per stage change")
	}
	if l.Path() != path {
		t.Errorf("Path = %q", l.Path())
	}
}
