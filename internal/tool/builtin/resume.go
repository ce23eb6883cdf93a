package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/skillbridge/skillbridge/internal/state"
	"github.com/skillbridge/skillbridge/internal/tool"
	"github.com/skillbridge/skillbridge/internal/util"
)

const (
	// DefaultResumeDir is the input directory resumes are read from.
	DefaultResumeDir = "resumes"
	previewRunes     = 200
)

// ReadResume extracts the text of a resume and stores it under resume_text.
// filename may be bare ("cv.pdf") or already carry the directory prefix
// ("resumes/cv.pdf"). Failures come back as {"status":"error"} and leave the
// session untouched.
func ReadResume(sess *state.Session, dir, filename string) map[string]any {
	if dir == "" {
		dir = DefaultResumeDir
	}
	path := resolveResumePath(dir, filename)

	if _, err := os.Stat(path); err != nil {
		return map[string]any{"status": "error", "message": fmt.Sprintf("File not found at: %s", path)}
	}

	text, err := extractText(path)
	if err != nil {
		return map[string]any{"status": "error", "message": err.Error()}
	}

	sess.Set(state.KeyResumeText, text)
	return map[string]any{
		"status":      "ok",
		"preview":     preview(text),
		"total_chars": utf8.RuneCountInString(text),
	}
}

func resolveResumePath(dir, filename string) string {
	name := filepath.ToSlash(filename)
	prefix := filepath.ToSlash(filepath.Clean(dir)) + "/"
	if strings.HasPrefix(name, prefix) {
		return filepath.FromSlash(name)
	}
	// Models echo the default directory even when another one is configured.
	name = strings.TrimPrefix(name, DefaultResumeDir+"/")
	return filepath.Join(dir, filepath.FromSlash(name))
}

// preview returns the first 200 characters followed by "...".
// preview always ends in "...", even for short resumes.
func preview(text string) string {
	return util.Head(text, previewRunes) + "..."
}

func extractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return extractPDFText(path)
	}
}

// extractPDFText reads the plain text of every page, one trailing newline per
// page. The pdf package panics on some malformed inputs, so panics are turned
// into errors.
func extractPDFText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse PDF %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// ── read_resume ──

type ReadResumeTool struct {
	sess *state.Session
	dir  string
}

func NewReadResumeTool(sess *state.Session, dir string) *ReadResumeTool {
	return &ReadResumeTool{sess: sess, dir: dir}
}

func (t *ReadResumeTool) Name() string { return "read_resume" }
func (t *ReadResumeTool) Description() string {
	return "Read a resume (PDF, .txt or .md) from the resume directory and store its full text under resume_text. Returns a short preview."
}

func (t *ReadResumeTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "filename", Type: "string", Description: "Resume file name, e.g. test_resume.pdf or resumes/test_resume.pdf", Required: true},
	)
}

func (t *ReadResumeTool) Init(_ context.Context) error { return nil }
func (t *ReadResumeTool) Close() error                 { return nil }

type readResumeArgs struct {
	Filename string `json:"filename"`
}

func (t *ReadResumeTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a readResumeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if a.Filename == "" {
		return tool.ErrorResult("filename is required"), nil
	}

	res := ReadResume(t.sess, t.dir, a.Filename)
	out := tool.JSONResult(res)
	if res["status"] == "error" {
		out.Error, _ = res["message"].(string)
	}
	return out, nil
}
