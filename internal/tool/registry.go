package tool

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"

	"github.com/skillbridge/skillbridge/internal/llm"
)

// Registry is a name → Tool table safe for concurrent use.
//
// A run builds one registry holding every session-bound tool; each stage then
// receives a Subset limited to the tools it declares.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds t, replacing (with a warning) any tool of the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.tools[t.Name()]; dup {
		log.Printf("[Registry] WARNING: replacing tool %q", t.Name())
	}
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// List returns the tools in name order, so prompts and FC definitions are
// stable from one model call to the next.
func (r *Registry) List() []Tool {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Subset returns a new registry holding only the named tools. Naming a tool
// that is not registered is an error, so a stage can never silently lose a
// capability it declared.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	sub := NewRegistry()
	for _, name := range names {
		t, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", name)
		}
		sub.tools[name] = t
	}
	return sub, nil
}

// GenerateToolsPrompt describes every tool and its parameter schema for the
// YAML decision mode, where the model has no native tool definitions.
func (r *Registry) GenerateToolsPrompt() string {
	tools := r.List()
	if len(tools) == 0 {
		return "(no tools available)"
	}

	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, t := range tools {
		fmt.Fprintf(&sb, "\n### %s\n%s\n", t.Name(), t.Description())
		if schema := t.InputSchema(); len(schema) > 0 {
			fmt.Fprintf(&sb, "Parameter schema: %s\n", schema)
		}
	}
	return sb.String()
}

// GenerateToolDefinitions converts the tools for function-calling providers.
func (r *Registry) GenerateToolDefinitions() []llm.ToolDefinition {
	var defs []llm.ToolDefinition
	for _, t := range r.List() {
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.InputSchema(),
		})
	}
	return defs
}

// InitAll initialises every tool in name order, stopping at the first error.
func (r *Registry) InitAll(ctx context.Context) error {
	tools := r.List()
	for _, t := range tools {
		if err := t.Init(ctx); err != nil {
			return fmt.Errorf("init tool %q: %w", t.Name(), err)
		}
	}
	log.Printf("[Registry] Initialized %d tools", len(tools))
	return nil
}

// CloseAll closes every tool and reports all failures together.
func (r *Registry) CloseAll() error {
	var errs []error
	for _, t := range r.List() {
		if err := t.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close tool %q: %w", t.Name(), err))
		}
	}
	return errors.Join(errs...)
}
