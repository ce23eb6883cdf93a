package agent

import (
	"github.com/skillbridge/skillbridge/internal/core"
	"github.com/skillbridge/skillbridge/internal/llm"
)

// BuildStageFlow assembles the tool loop of one stage turn:
//
//	DecideNode ──┬── ActionTool   → ToolNode   ──→ DecideNode
//	             ├── ActionAnswer → AnswerNode ──→ End
//	             └── ActionEnd    (model or tool failure) → End
func BuildStageFlow(provider llm.LLMProvider, maxSteps int) core.Workflow[StageState] {
	decideNode := core.NewNode[StageState, DecidePrep, Decision]("decide", NewDecideNode(provider))
	toolNode := core.NewNode[StageState, ToolPrep, ToolExecResult]("tool", NewToolNode())
	answerNode := core.NewNode[StageState, AnswerPrep, AnswerResult]("answer", NewAnswerNode())

	decideNode.AddSuccessor(toolNode, core.ActionTool)
	decideNode.AddSuccessor(answerNode, core.ActionAnswer)
	toolNode.AddSuccessor(decideNode) // ActionDefault → DecideNode

	// Two transitions per step, plus the answer node.
	return core.NewFlow[StageState](decideNode).WithMaxIterations(2*maxSteps + 4)
}
