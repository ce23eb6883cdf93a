// Package prompt loads stage instructions in three layers:
//
//   - L1: tool-call protocol hardcoded in the agent package
//   - L2: stage instructions in prompts/*.md (embedded by default, overridable via PROMPTS_DIR)
//   - L3: user custom rules in rules.md (runtime only, never committed)
//
// The PromptLoader is safe for concurrent use.
package prompt

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
)

// defaultPrompts embeds the L2 prompt files shipped with the binary.
//
//go:embed prompts/*
var defaultPrompts embed.FS

// promptInjectionPatterns contains lowercased substrings that indicate prompt injection attempts.
// Lines matching any pattern are dropped from L3 user rules with a warning.
var promptInjectionPatterns = []string{
	"ignore previous",
	"ignore above",
	"ignore all previous",
	"disregard all",
	"disregard previous",
	"forget previous",
	"forget all previous",
	"override instructions",
	"override previous",
	"new instructions:",
	"from now on",
}

// PromptLoader reads L2 prompt files and the L3 user rules file.
// It caches file contents after the first read for the loader's lifetime.
type PromptLoader struct {
	promptsDir string // runtime override directory (may be empty)
	rulesPath  string // path to L3 rules.md
	cache      map[string]string
	mu         sync.RWMutex
}

// NewPromptLoader creates a PromptLoader that reads L2 files from promptsDir
// (falling back to embedded defaults) and L3 rules from rulesPath.
//
// Both paths may be empty: an empty promptsDir uses only the embedded
// defaults, and an empty or missing rulesPath makes LoadUserRules return "".
func NewPromptLoader(promptsDir, rulesPath string) *PromptLoader {
	return &PromptLoader{
		promptsDir: promptsDir,
		rulesPath:  rulesPath,
		cache:      make(map[string]string),
	}
}

// Load returns the content of the named prompt file (e.g. "gap_analyst.md").
//
// Priority:
//  1. Disk file at promptsDir/name (runtime override)
//  2. Embedded default at prompts/name
//  3. Empty string (silent, file simply absent)
//
// A disk read error (permission denied, etc.) logs a warning and falls back
// to the embedded default.
func (l *PromptLoader) Load(name string) string {
	return l.cached("prompt:"+name, func() string { return l.loadUncached(name) })
}

// LoadStage returns the instructions for a stage. A stage without
// instructions is a configuration error.
func (l *PromptLoader) LoadStage(stage string) (string, error) {
	content := strings.TrimSpace(l.Load(stage + ".md"))
	if content == "" {
		return "", fmt.Errorf("no prompt for stage %q", stage)
	}
	return content, nil
}

// LoadPersona returns the preamble shared by every stage.
func (l *PromptLoader) LoadPersona() string {
	return strings.TrimSpace(l.Load("persona.md"))
}

// EmbeddedStages lists the stage prompts shipped with the binary.
func EmbeddedStages() []string {
	entries, err := fs.ReadDir(defaultPrompts, "prompts")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".md") || name == "persona.md" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".md"))
	}
	sort.Strings(names)
	return names
}

// cached returns the value stored under key, computing it with load on a
// miss. Concurrent misses may both load; the first store wins.
func (l *PromptLoader) cached(key string, load func() string) string {
	l.mu.RLock()
	val, ok := l.cache[key]
	l.mu.RUnlock()
	if ok {
		return val
	}

	content := load()

	l.mu.Lock()
	defer l.mu.Unlock()
	if val, ok := l.cache[key]; ok {
		return val
	}
	l.cache[key] = content
	return content
}

// loadUncached reads name from the override directory, then from the
// embedded defaults. An unreadable override (other than a missing file) is
// logged and skipped.
func (l *PromptLoader) loadUncached(name string) string {
	for _, src := range l.sources() {
		data, err := fs.ReadFile(src.fsys, name)
		if err == nil {
			return string(data)
		}
		if src.override && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[Prompt] Warning: read %q from %s failed: %v; using embedded default", name, l.promptsDir, err)
		}
	}
	return ""
}

type promptSource struct {
	fsys     fs.FS
	override bool
}

func (l *PromptLoader) sources() []promptSource {
	var out []promptSource
	if l.promptsDir != "" {
		out = append(out, promptSource{fsys: os.DirFS(l.promptsDir), override: true})
	}
	if embedded, err := fs.Sub(defaultPrompts, "prompts"); err == nil {
		out = append(out, promptSource{fsys: embedded})
	}
	return out
}

// LoadUserRules returns rules.md with injection lines removed, or "" when
// rulesPath is empty or the file does not exist.
func (l *PromptLoader) LoadUserRules() string {
	return l.cached("rules", l.readUserRules)
}

func (l *PromptLoader) readUserRules() string {
	if l.rulesPath == "" {
		return ""
	}
	data, err := os.ReadFile(l.rulesPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[Prompt] Warning: read user rules %q failed: %v", l.rulesPath, err)
		}
		return ""
	}
	return filterDangerousLines(string(data))
}

// filterDangerousLines drops every line containing an injection phrase.
func filterDangerousLines(content string) string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if pattern, hit := injectionPattern(line); hit {
			log.Printf("[Prompt] Warning: user rules line dropped (matched %q): %q", pattern, line)
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func injectionPattern(line string) (string, bool) {
	lower := strings.ToLower(line)
	i := slices.IndexFunc(promptInjectionPatterns, func(p string) bool {
		return strings.Contains(lower, p)
	})
	if i < 0 {
		return "", false
	}
	return promptInjectionPatterns[i], true
}
