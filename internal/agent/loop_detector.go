package agent

import (
	"crypto/md5"
	"fmt"
	"strconv"
)

const (
	loopWindowSize       = 8 // recent tool steps to analyze
	loopSameCallLimit    = 3 // identical calls (same tool, same args) in the window
	loopConsecErrorLimit = 3 // consecutive failing tool calls
)

// LoopDetector analyzes StepHistory to detect repetitive tool use.
// Stateless: all detection is based on the StepHistory slice passed in.
type LoopDetector struct{}

// DetectionResult describes a detected loop pattern.
type DetectionResult struct {
	Detected    bool
	Rule        string // "same_call" or "consecutive_errors"
	Description string // human-readable, injected into the prompt
	ToolName    string
}

// Check returns the first matching rule.
func (d *LoopDetector) Check(steps []StepRecord) DetectionResult {
	toolSteps := toolStepsOnly(steps)
	if len(toolSteps) < 2 {
		return DetectionResult{}
	}
	if r := d.checkSameCall(toolSteps); r.Detected {
		return r
	}
	return d.checkConsecutiveErrors(toolSteps)
}

func (d *LoopDetector) checkSameCall(toolSteps []StepRecord) DetectionResult {
	window := recentWindow(toolSteps, loopWindowSize)

	type callKey struct{ name, args string }
	freq := make(map[callKey]int)
	for _, s := range window {
		// #nosec G401 -- MD5 used only for deduplication, not security
		k := callKey{s.ToolName, fmt.Sprintf("%x", md5.Sum([]byte(s.Input)))}
		freq[k]++
		if freq[k] >= loopSameCallLimit {
			return DetectionResult{
				Detected:    true,
				Rule:        "same_call",
				Description: s.ToolName + " was called " + strconv.Itoa(freq[k]) + " times with identical arguments",
				ToolName:    s.ToolName,
			}
		}
	}
	return DetectionResult{}
}

func (d *LoopDetector) checkConsecutiveErrors(toolSteps []StepRecord) DetectionResult {
	if len(toolSteps) < loopConsecErrorLimit {
		return DetectionResult{}
	}
	for _, s := range toolSteps[len(toolSteps)-loopConsecErrorLimit:] {
		if !s.IsError {
			return DetectionResult{}
		}
	}
	return DetectionResult{
		Detected:    true,
		Rule:        "consecutive_errors",
		Description: "the last " + strconv.Itoa(loopConsecErrorLimit) + " tool calls all failed",
	}
}

// loopWarning renders a detection result for the system prompt.
func loopWarning(det DetectionResult) string {
	return "⚠️ Repetition detected: " + det.Description +
		". Do not repeat the same call; use what you already have and finish your turn."
}

func toolStepsOnly(steps []StepRecord) []StepRecord {
	var out []StepRecord
	for _, s := range steps {
		if s.Type == "tool" {
			out = append(out, s)
		}
	}
	return out
}

// recentWindow returns the last n items from a slice.
func recentWindow(steps []StepRecord, n int) []StepRecord {
	if len(steps) <= n {
		return steps
	}
	return steps[len(steps)-n:]
}
