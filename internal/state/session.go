// Package state holds the run-scoped key/value store shared by every stage of
// a career pivot run.
package state

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NotFound is returned by Lookup for keys that were never written.
const NotFound = "Not found"

// Well-known keys written and read by the career pivot stages.
const (
	KeyResumeText     = "resume_text"
	KeyTargetRole     = "target_role"
	KeyMarketResearch = "market_research"
	KeyMissingSkills  = "missing_skills"
	KeyStudyPlan      = "study_plan"
	KeyCurrentDraft   = "current_draft"
	KeyCriticFeedback = "critic_feedback"
	KeyFinalSummary   = "final_summary"
	KeyOutputPath     = "output_path" // written by save_plan_to_file
)

// Session is the shared state of one workflow run. Values are either a
// string or an ordered []string.
//
// NOT goroutine-safe: stages run one at a time, so exactly one stage mutates
// the session at any moment. Callers that serve concurrent requests (the MCP
// server) must serialise access themselves.
type Session struct {
	ID     string
	values map[string]any
}

// NewSession creates an empty session with the given run id.
func NewSession(id string) *Session {
	return &Session{
		ID:     id,
		values: make(map[string]any),
	}
}

// Get returns the raw value stored under key.
func (s *Session) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// GetString returns the string form of the value under key, or def when the
// key is absent.
func (s *Session) GetString(key, def string) string {
	v, ok := s.values[key]
	if !ok {
		return def
	}
	return formatValue(v)
}

// Lookup returns the string form of key's value, or NotFound. It never fails.
func (s *Session) Lookup(key string) string {
	return s.GetString(key, NotFound)
}

// Set overwrites key with a single string value.
func (s *Session) Set(key, value string) {
	s.values[key] = value
}

// SetList overwrites key with a copy of values.
func (s *Session) SetList(key string, values []string) {
	cp := make([]string, len(values))
	copy(cp, values)
	s.values[key] = cp
}

// Append adds value to the list stored under key. An absent key, or a key
// holding a scalar, is replaced by a new one-element list; the old scalar is
// discarded.
func (s *Session) Append(key, value string) {
	if list, ok := s.values[key].([]string); ok {
		s.values[key] = append(list, value)
		return
	}
	s.values[key] = []string{value}
}

// Has reports whether key has been written.
func (s *Session) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Keys returns all written keys in sorted order.
func (s *Session) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of every key in string form.
func (s *Session) Snapshot() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = formatValue(v)
	}
	return out
}

// formatValue renders lists as a JSON array so the model sees item boundaries.
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}
