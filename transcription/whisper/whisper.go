// Package whisper runs the Whisper CLI as a child process and parses its JSON
// output into transcription results.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/process"
	"github.com/streamclipper/streamclipper/transcription"
)

// EngineName is the name reported by this backend.
const EngineName = "whisper"

const (
	defaultBinary  = "whisper"
	defaultModel   = "base"
	defaultTimeout = 30 * time.Minute
)

// Config holds configuration for the Whisper CLI engine.
type Config struct {
	// Binary is the whisper executable. Defaults to "whisper" on PATH.
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`
	// Model is the model size (tiny, base, small, medium, large).
	Model string `json:"model" yaml:"model" mapstructure:"model"`
	// Language forces a language instead of auto-detection.
	Language string `json:"language,omitempty" yaml:"language" mapstructure:"language"`
	// Timeout bounds a single transcription run.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = defaultBinary
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Engine implements transcription.Engine over the Whisper CLI.
type Engine struct {
	cfg    Config
	runner process.Runner
}

func New(cfg Config, runner process.Runner) *Engine {
	cfg.ApplyDefaults()
	return &Engine{cfg: cfg, runner: runner}
}

func (e *Engine) Name() string { return EngineName }

// Available reports whether the whisper binary runs at all.
func (e *Engine) Available(ctx context.Context) bool {
	_, err := e.runner.Run(ctx, process.Command{Binary: e.cfg.Binary, Args: []string{"--help"}})
	return err == nil
}

// outputFile is where the CLI writes its JSON: <output_dir>/<audio stem>.json.
func outputFile(audioPath string) string {
	base := filepath.Base(audioPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(audioPath), stem+".json")
}

// args builds the CLI invocation for one run.
func (e *Engine) args(req transcription.Request) []string {
	model := e.cfg.Model
	if req.Model != "" {
		model = req.Model
	}
	out := []string{
		req.AudioPath,
		"--model", model,
		"--output_format", "json",
		"--output_dir", filepath.Dir(req.AudioPath),
	}
	lang := e.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}
	if lang != "" {
		out = append(out, "--language", lang)
	}
	return out
}

// cliOutput mirrors the JSON document the CLI writes.
type cliOutput struct {
	Text     string                  `json:"text"`
	Language string                  `json:"language"`
	Segments []transcription.Segment `json:"segments"`
}

// Transcribe runs the CLI to completion and parses its JSON output file.
func (e *Engine) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	result, err := e.runner.Run(ctx, process.Command{Binary: e.cfg.Binary, Args: e.args(req)})
	if err != nil {
		exitCode := -1
		var diagnostics string
		if result != nil {
			exitCode = result.ExitCode
			diagnostics = string(result.Stderr)
		}
		return nil, apperrors.ProcessFailed("whisper", exitCode, diagnostics).WithCause(err)
	}

	jsonPath := outputFile(req.AudioPath)
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, apperrors.ProcessFailed("whisper", 0, "engine produced no output file").WithCause(err)
	}
	defer os.Remove(jsonPath)

	var out cliOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("whisper: parse %s: %w", jsonPath, err)
	}
	return &transcription.Result{
		Text:     strings.TrimSpace(out.Text),
		Segments: out.Segments,
		Language: out.Language,
	}, nil
}
