package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
)

// Defaults for the career pivot run.
const (
	DefaultResumeDir      = "resumes"
	DefaultOutputFile     = "final_career_plan.txt"
	DefaultWritingLoopMax = 4
	DefaultJournalPath    = "skillbridge.db"
)

// Settings are the non-LLM knobs of the CLI. LLM settings live in llm.Config.
type Settings struct {
	ResumeDir       string // RESUME_DIR
	OutputDir       string // OUTPUT_DIR, empty = working directory
	OutputFile      string // OUTPUT_FILE
	WritingLoopMax  int    // WRITING_LOOP_MAX_ITERATIONS
	PipelineFile    string // PIPELINE_FILE, empty = built-in topology
	PromptsDir      string // PROMPTS_DIR, empty = embedded prompts only
	UserRulesPath   string // USER_RULES_PATH
	LogDir          string // LOG_DIR, empty = working directory
	JournalPath     string // JOURNAL_PATH, "off" disables the journal
	MetricsTextfile string // METRICS_TEXTFILE, empty = no export
	TranscriptPath  string // TRANSCRIPT_PATH, empty = no markdown transcript
}

// LoadSettings reads Settings from the environment.
func LoadSettings() Settings {
	return Settings{
		ResumeDir:       getEnv("RESUME_DIR", DefaultResumeDir),
		OutputDir:       getEnv("OUTPUT_DIR", ""),
		OutputFile:      getEnv("OUTPUT_FILE", DefaultOutputFile),
		WritingLoopMax:  getEnvInt("WRITING_LOOP_MAX_ITERATIONS", DefaultWritingLoopMax),
		PipelineFile:    getEnv("PIPELINE_FILE", ""),
		PromptsDir:      getEnv("PROMPTS_DIR", ""),
		UserRulesPath:   getEnv("USER_RULES_PATH", "rules.md"),
		LogDir:          getEnv("LOG_DIR", ""),
		JournalPath:     getEnv("JOURNAL_PATH", DefaultJournalPath),
		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
		TranscriptPath:  getEnv("TRANSCRIPT_PATH", ""),
	}
}

// Validate checks the settings for values no run could use.
func (s Settings) Validate() error {
	var errs []error
	if s.ResumeDir == "" {
		errs = append(errs, errors.New("RESUME_DIR must not be empty"))
	}
	if s.OutputFile == "" {
		errs = append(errs, errors.New("OUTPUT_FILE must not be empty"))
	}
	if s.WritingLoopMax < 1 {
		errs = append(errs, fmt.Errorf("WRITING_LOOP_MAX_ITERATIONS must be >= 1, got %d", s.WritingLoopMax))
	}
	if s.PipelineFile != "" {
		if _, err := os.Stat(s.PipelineFile); err != nil {
			errs = append(errs, fmt.Errorf("PIPELINE_FILE: %w", err))
		}
	}
	return errors.Join(errs...)
}

// JournalEnabled reports whether runs are recorded.
func (s Settings) JournalEnabled() bool {
	return s.JournalPath != "" && s.JournalPath != "off"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[Config] WARNING: invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}
