package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillbridge/skillbridge/internal/agent"
	"github.com/skillbridge/skillbridge/internal/career"
	"github.com/skillbridge/skillbridge/internal/config"
	"github.com/skillbridge/skillbridge/internal/journal"
	"github.com/skillbridge/skillbridge/internal/llm/provider"
	"github.com/skillbridge/skillbridge/internal/metrics"
	"github.com/skillbridge/skillbridge/internal/prompt"
	"github.com/skillbridge/skillbridge/internal/tool/builtin"
	"github.com/skillbridge/skillbridge/internal/util"
)

const demoRequest = "Hi, I want to pivot my career. My resume is test_resume.pdf and I want to be an AI Engineer."

const previewChars = 500

var rootCmd = &cobra.Command{
	Use:   "skillbridge [request]",
	Short: "Plan a career pivot from a resume and a target role",
	Long: `SkillBridge reads your resume, researches the target role, finds your skill
gaps, writes a four-week study plan and an ATS-ready resume summary, and saves
everything to a text file.

Without arguments the request is read from stdin; an empty line runs the demo.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadEnv()
	},
	RunE: runPivot,
}

func runPivot(cmd *cobra.Command, args []string) error {
	settings := config.LoadSettings()
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	closeLog, err := teeLog(settings.LogDir)
	if err != nil {
		log.Printf("[Main] Warning: log file disabled: %v", err)
	} else {
		defer closeLog()
	}

	input := strings.TrimSpace(strings.Join(args, " "))
	if input == "" {
		input = readRequest(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	llmProvider, err := provider.NewFromEnv()
	if err != nil {
		log.Printf("[Main] ❌ %v", err)
		return err
	}

	spec, err := career.LoadTopology(settings.PipelineFile, settings.WritingLoopMax)
	if err != nil {
		log.Printf("[Main] ❌ %v", err)
		return err
	}

	opts := career.Options{
		Provider: llmProvider,
		Prompts:  prompt.NewPromptLoader(settings.PromptsDir, settings.UserRulesPath),
		Tools: builtin.Options{
			ResumeDir:  settings.ResumeDir,
			OutputDir:  settings.OutputDir,
			OutputFile: settings.OutputFile,
		},
		Spec:     spec,
		MaxSteps: agent.LoadMaxSteps(),
	}

	var recorder *metrics.Recorder
	if settings.MetricsTextfile != "" {
		recorder = metrics.NewRecorder()
		opts.Metrics = recorder
	}

	if settings.JournalEnabled() {
		j, err := journal.Open(settings.JournalPath)
		if err != nil {
			log.Printf("[Main] Warning: journal disabled: %v", err)
		} else {
			defer j.Close()
			opts.Journal = j
		}
	}

	if settings.TranscriptPath != "" {
		tr, err := agent.NewExecLogger(settings.TranscriptPath)
		if err != nil {
			log.Printf("[Main] Warning: transcript disabled: %v", err)
		} else {
			defer tr.Close()
			opts.Transcript = tr
		}
	}

	coord, err := career.NewCoordinator(opts)
	if err != nil {
		log.Printf("[Main] ❌ %v", err)
		return err
	}
	log.Printf("[Main] Pipeline:\n%s", coord.Topology())
	log.Printf("[Main] Request: %s", input)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := coord.Run(ctx, input)

	if recorder != nil {
		if err := recorder.WriteTextfile(settings.MetricsTextfile); err != nil {
			log.Printf("[Main] Warning: metrics export failed: %v", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.Reply)
	reportOutputFile(res.OutputPath)
	return nil
}

// readRequest prompts for a request; an empty answer selects the demo.
func readRequest(in io.Reader, out io.Writer) string {
	fmt.Fprint(out, "Enter your request (or press Enter for demo): ")
	line, _ := bufio.NewReader(in).ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return demoRequest
	}
	return line
}

func reportOutputFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[Main] Output file %s not readable: %v", path, err)
		return
	}
	log.Printf("[Main] Output file %s (%d bytes)", path, len(data))

	log.Printf("[Main] Preview:\n%s", util.Head(string(data), previewChars))
}

// teeLog mirrors the standard logger into a timestamped file under dir.
func teeLog(dir string) (func(), error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	name := fmt.Sprintf("skillbridge_%s.log", time.Now().Format("20060102_150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	log.Printf("[Main] Logging to %s", f.Name())
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}
