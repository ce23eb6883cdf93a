package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTopology is returned for structurally invalid pipeline specs.
var ErrInvalidTopology = errors.New("invalid pipeline topology")

// Kind identifies a pipeline node type.
type Kind string

const (
	KindSequential Kind = "sequential"
	KindLoop       Kind = "loop"
	KindLeaf       Kind = "stage"
)

// Spec describes a pipeline node. It is the YAML format of PIPELINE_FILE:
//
//	name: skillbridge_coordinator
//	kind: sequential
//	children:
//	  - {kind: stage, stage: market_analyst}
//	  - name: writing_loop
//	    kind: loop
//	    max_iterations: 4
//	    children:
//	      - {kind: stage, stage: resume_drafter}
//	      - {kind: stage, stage: ats_critic}
type Spec struct {
	Name          string `yaml:"name,omitempty"`
	Kind          Kind   `yaml:"kind"`
	Stage         string `yaml:"stage,omitempty"`
	MaxIterations int    `yaml:"max_iterations,omitempty"`
	Children      []Spec `yaml:"children,omitempty"`
}

// Sequential builds a sequential node.
func Sequential(name string, children ...Spec) Spec {
	return Spec{Name: name, Kind: KindSequential, Children: children}
}

// Loop builds a loop node over a producer and an evaluator stage.
func Loop(name string, maxIterations int, producer, evaluator Spec) Spec {
	return Spec{Name: name, Kind: KindLoop, MaxIterations: maxIterations, Children: []Spec{producer, evaluator}}
}

// Leaf builds a node running one stage.
func Leaf(stage string) Spec {
	return Spec{Name: stage, Kind: KindLeaf, Stage: stage}
}

// DisplayName returns the node name, falling back to the stage name.
func (s Spec) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Kind == KindLeaf {
		return s.Stage
	}
	return string(s.Kind)
}

// ParseSpec decodes a YAML topology.
func ParseSpec(data []byte) (Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Spec{}, fmt.Errorf("%w: %v", ErrInvalidTopology, err)
	}
	return s, nil
}

// LoadSpec reads a YAML topology from path.
func LoadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read pipeline file: %w", err)
	}
	return ParseSpec(data)
}

// Validate checks the structure of the tree. known reports whether a stage
// name exists; nil skips that check.
func (s Spec) Validate(known func(string) bool) error {
	return s.validate(known, s.DisplayName())
}

func (s Spec) validate(known func(string) bool, path string) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidTopology, path, fmt.Sprintf(format, args...))
	}

	switch s.Kind {
	case KindLeaf:
		if s.Stage == "" {
			return invalid("stage node needs a stage name")
		}
		if len(s.Children) > 0 {
			return invalid("stage node cannot have children")
		}
		if known != nil && !known(s.Stage) {
			return invalid("unknown stage %q", s.Stage)
		}
		return nil
	case KindSequential:
		if len(s.Children) == 0 {
			return invalid("sequential node needs at least one child")
		}
	case KindLoop:
		if len(s.Children) != 2 {
			return invalid("loop needs exactly two stages, got %d", len(s.Children))
		}
		for _, c := range s.Children {
			if c.Kind != KindLeaf {
				return invalid("loop children must be stages, got %q", c.Kind)
			}
		}
		if s.MaxIterations < 1 {
			return invalid("max_iterations must be at least 1, got %d", s.MaxIterations)
		}
	default:
		return invalid("unknown node kind %q", s.Kind)
	}

	for _, c := range s.Children {
		if err := c.validate(known, path+"/"+c.DisplayName()); err != nil {
			return err
		}
	}
	return nil
}

// Tree renders the topology as an indented outline.
func (s Spec) Tree() string {
	var sb strings.Builder
	s.writeTree(&sb, 0)
	return sb.String()
}

func (s Spec) writeTree(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	switch s.Kind {
	case KindLeaf:
		fmt.Fprintf(sb, "%s- %s\n", indent, s.Stage)
	case KindLoop:
		fmt.Fprintf(sb, "%s%s (loop, max %d)\n", indent, s.DisplayName(), s.MaxIterations)
	default:
		fmt.Fprintf(sb, "%s%s (%s)\n", indent, s.DisplayName(), s.Kind)
	}
	for _, c := range s.Children {
		c.writeTree(sb, depth+1)
	}
}

// Stages lists the stage names in execution order.
func (s Spec) Stages() []string {
	if s.Kind == KindLeaf {
		return []string{s.Stage}
	}
	var out []string
	for _, c := range s.Children {
		out = append(out, c.Stages()...)
	}
	return out
}
