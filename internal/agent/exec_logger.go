package agent

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// ExecLogger writes stage steps to a markdown file for debugging.
// Thread-safe. The log file is truncated on creation.
type ExecLogger struct {
	mu   sync.Mutex
	file *os.File
	path string
	last string // stage of the previous step
}

// NewExecLogger creates a logger that writes to the given path.
func NewExecLogger(path string) (*ExecLogger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cannot create exec log: %w", err)
	}
	return &ExecLogger{file: f, path: path}, nil
}

// Path returns the file the logger writes to.
func (l *ExecLogger) Path() string { return l.path }

// StartRun writes a run header with the user's request.
func (l *ExecLogger) StartRun(runID, input string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.writef("# Run %s\n\n", runID)
	l.writef("**Started**: %s  \n", time.Now().Format("2006-01-02 15:04:05"))
	l.writef("**Request**: %s\n\n---\n\n", input)
	l.last = ""
}

// LogStep writes a single step record as a markdown section.
// It matches the signature of Deps.OnStep.
func (l *ExecLogger) LogStep(stage string, step StepRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if stage != l.last {
		l.writef("## Stage %s\n\n", stage)
		l.last = stage
	}
	l.writef("### Step %d: %s\n\n", step.StepNumber, step.Type)

	switch step.Type {
	case "decide":
		l.writef("**Action**: `%s`", step.Action)
		if step.ToolName != "" {
			l.writef(" `%s`", step.ToolName)
		}
		l.writef("  \n")
		if step.Input != "" {
			l.writef("**Reason**: %s\n", step.Input)
		}
		l.writef("\n")
	case "tool":
		l.writef("**Tool**: `%s`", step.ToolName)
		if step.IsError {
			l.writef(" (error)")
		}
		l.writef("\n\n```\n%s\n```\n\n", step.Input)
		output := step.Output
		if runes := []rune(output); len(runes) > 4000 {
			output = string(runes[:4000]) + "\n... (truncated)"
		}
		l.writef("```\n%s\n```\n\n", output)
	case "answer":
		if step.Output != "" {
			l.writef("> %s\n\n", strings.ReplaceAll(step.Output, "\n", "\n> "))
		}
	}
}

// EndRun writes the final reply.
func (l *ExecLogger) EndRun(reply string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.writef("---\n\n## Result\n\n%s\n\n", reply)
	l.writef("**Finished**: %s\n", time.Now().Format("2006-01-02 15:04:05"))
}

// Close closes the underlying file.
func (l *ExecLogger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *ExecLogger) writef(format string, args ...any) {
	fmt.Fprintf(l.file, format, args...)
}
