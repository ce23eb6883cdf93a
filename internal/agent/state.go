package agent

import (
	"log"
	"os"
	"strconv"

	"github.com/skillbridge/skillbridge/internal/llm"
	"github.com/skillbridge/skillbridge/internal/state"
	"github.com/skillbridge/skillbridge/internal/tool"
)

// StageState is the shared state of one stage turn.
// NOT goroutine-safe: the Decide/Tool flow runs on a single goroutine.
type StageState struct {
	Stage        string         // stage name, used in logs
	Input        string         // user message that opens the turn
	SystemPrompt string         // persona + user rules + stage instructions + protocol
	Session      *state.Session // shared run state, written by tools
	ToolRegistry *tool.Registry // tools this stage may call
	UseFC        bool           // function calling vs YAML decisions
	MaxSteps     int            // decide+tool steps before the turn is forced to end

	StepHistory []StepRecord
	Messages    []llm.Message // FC conversation after the system/user opening

	Reply         string // final text of the turn
	ExitSignalled bool   // a tool result carried the exit signal
	Err           error  // catastrophic failure; aborts the turn

	// Transient field: DecideNode writes, ToolNode reads.
	LastDecision *Decision `json:"-"`

	OnStepComplete func(StepRecord) `json:"-"`
}

// StepRecord records a single step execution.
type StepRecord struct {
	StepNumber int    `json:"step_number"`
	Type       string `json:"type"`                   // "decide", "tool", "answer"
	Action     string `json:"action"`                 // Decision action
	ToolName   string `json:"tool_name"`              // Tool name (when type=tool)
	Input      string `json:"input"`                  // Input content
	Output     string `json:"output"`                 // Output result
	ToolCallID string `json:"tool_call_id,omitempty"` // FC only: correlates with model's tool call
	IsError    bool   `json:"is_error,omitempty"`     // true when tool returned an error
}

// toolCalls returns the tool names invoked so far, in order.
func (s *StageState) toolCalls() []string {
	var names []string
	for _, step := range s.StepHistory {
		if step.Type == "tool" {
			names = append(names, step.ToolName)
		}
	}
	return names
}

// DefaultMaxSteps is the per-stage step cap when AGENT_MAX_STEPS is unset.
const DefaultMaxSteps = 25

// LoadMaxSteps reads AGENT_MAX_STEPS from the environment (5-200).
func LoadMaxSteps() int {
	v := os.Getenv("AGENT_MAX_STEPS")
	if v == "" {
		return DefaultMaxSteps
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 5 || n > 200 {
		log.Printf("[Config] WARNING: invalid AGENT_MAX_STEPS=%q (must be 5-200), using default %d", v, DefaultMaxSteps)
		return DefaultMaxSteps
	}
	return n
}

// ── DecideNode generic types ──
// BaseNode[StageState, DecidePrep, Decision]

// DecidePrep is the prepared data for one model decision.
type DecidePrep struct {
	Messages        []llm.Message        // full conversation sent to the model
	ToolDefinitions []llm.ToolDefinition // FC path only
	UseFC           bool
	StepCount       int
}

// Decision is the model's decision output.
// In YAML mode: parsed from YAML text. In FC mode: extracted from tool_calls.
type Decision struct {
	Action     string         `yaml:"action"`      // "tool" or "answer"
	Reason     string         `yaml:"reason"`      // Reasoning for this decision
	ToolName   string         `yaml:"tool_name"`   // Required when action=tool
	ToolParams map[string]any `yaml:"tool_params"` // YAML-friendly, json.Marshal before tool call
	Answer     string         `yaml:"answer"`      // Used when action=answer

	// FC only: every call in the assistant turn, executed in order.
	ToolCalls []llm.ToolCall `yaml:"-"`
	Raw       llm.Message    `yaml:"-"`
	Err       error          `yaml:"-"` // set by ExecFallback
}

// ── ToolNode generic types ──
// BaseNode[StageState, ToolPrep, ToolExecResult]

// ToolPrep is one resolved tool invocation.
type ToolPrep struct {
	ToolName     string
	Args         []byte    // JSON arguments
	ToolCallID   string    // FC only: correlates tool result with the model's tool call
	ResolvedTool tool.Tool // nil = not available to this stage
}

// ToolExecResult is the result of executing a tool.
type ToolExecResult struct {
	ToolName   string
	Output     string
	Error      string
	ToolCallID string
	ExitLoop   bool
	Fatal      error // Go error from the tool; aborts the run
}
