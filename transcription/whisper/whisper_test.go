package whisper_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/process"
	"github.com/streamclipper/streamclipper/transcription"
	"github.com/streamclipper/streamclipper/transcription/whisper"
)

// fakeRunner simulates the CLI: on success it writes the JSON document the
// real tool would leave next to the audio file.
type fakeRunner struct {
	calls  []process.Command
	output string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, cmd process.Command) (*process.Result, error) {
	f.calls = append(f.calls, cmd)
	if f.err != nil {
		return &process.Result{ExitCode: 1, Stderr: []byte("CUDA out of memory")}, f.err
	}
	if f.output != "" {
		audio := cmd.Args[0]
		jsonPath := filepath.Join(filepath.Dir(audio), "audio.json")
		if err := os.WriteFile(jsonPath, []byte(f.output), 0o644); err != nil {
			return nil, err
		}
	}
	return &process.Result{ExitCode: 0}, nil
}

func TestTranscribeParsesEngineOutput(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "audio.wav")
	if err := os.WriteFile(audio, []byte("wav"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{output: `{
		"text": " hello there ",
		"language": "en",
		"segments": [
			{"start": 0.0, "end": 1.2, "text": "hello"},
			{"start": 1.2, "end": 2.4, "text": "there"}
		]
	}`}
	engine := whisper.New(whisper.Config{Model: "small", Language: "en"}, runner)

	result, err := engine.Transcribe(context.Background(), transcription.Request{AudioPath: audio})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "hello there" {
		t.Fatalf("expected trimmed text, got %q", result.Text)
	}
	if len(result.Segments) != 2 || result.Segments[1].End != 2.4 {
		t.Fatalf("unexpected segments: %+v", result.Segments)
	}
	if result.Language != "en" {
		t.Fatalf("expected language en, got %q", result.Language)
	}

	args := runner.calls[0].Args
	if args[0] != audio {
		t.Fatalf("audio path must be the first argument, got %v", args)
	}
	assertArgPair(t, args, "--model", "small")
	assertArgPair(t, args, "--output_format", "json")
	assertArgPair(t, args, "--output_dir", dir)
	assertArgPair(t, args, "--language", "en")

	// The intermediate JSON is cleaned up after parsing.
	if _, err := os.Stat(filepath.Join(dir, "audio.json")); !os.IsNotExist(err) {
		t.Fatal("expected engine output file removed")
	}
}

func TestTranscribeEngineFailure(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("exit status 1")}
	engine := whisper.New(whisper.Config{}, runner)

	_, err := engine.Transcribe(context.Background(), transcription.Request{AudioPath: "/tmp/a.wav"})
	if apperrors.CodeOf(err) != apperrors.ErrCodeProcessFailed {
		t.Fatalf("expected PROCESS_FAILED, got %v", err)
	}
	appErr, _ := apperrors.AsAppError(err)
	if appErr.Details["diagnostics"] != "CUDA out of memory" {
		t.Fatalf("expected engine stderr attached, got %v", appErr.Details)
	}
}

func TestTranscribeMissingOutputFile(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "audio.wav")
	runner := &fakeRunner{} // succeeds but writes nothing

	engine := whisper.New(whisper.Config{}, runner)
	_, err := engine.Transcribe(context.Background(), transcription.Request{AudioPath: audio})
	if apperrors.CodeOf(err) != apperrors.ErrCodeProcessFailed {
		t.Fatalf("expected PROCESS_FAILED for missing output, got %v", err)
	}
}

func TestAvailable(t *testing.T) {
	if !whisper.New(whisper.Config{}, &fakeRunner{}).Available(context.Background()) {
		t.Fatal("expected available when the binary runs")
	}
	if whisper.New(whisper.Config{}, &fakeRunner{err: fmt.Errorf("not found")}).Available(context.Background()) {
		t.Fatal("expected unavailable when the binary fails")
	}
}

func assertArgPair(t *testing.T, args []string, flag, value string) {
	t.Helper()
	for i, a := range args {
		if a == flag && i+1 < len(args) && args[i+1] == value {
			return
		}
	}
	t.Fatalf("expected %s %s in %v", flag, value, args)
}
