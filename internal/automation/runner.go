// Package automation runs the external script that talks to the notes
// application. The script is opaque: it is invoked with a subcommand and its
// stdout is handed back as text.
package automation

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/thesavant42/notesmirror/internal/notes"
)

var (
	// ErrUnavailable means the script or its interpreter cannot be invoked.
	ErrUnavailable = errors.New("automation unavailable")

	// ErrUnsupportedPlatform means the notes application cannot be scripted
	// on this operating system. It wraps ErrUnavailable.
	ErrUnsupportedPlatform = fmt.Errorf("%w: notes automation requires macOS", ErrUnavailable)
)

// builtinScript is run when no script path is configured. osascript reads it
// from stdin.
//
//go:embed scripts/export_notes.applescript
var builtinScript []byte

var goos = runtime.GOOS

// ScriptError is returned when the script ran but exited unsuccessfully.
type ScriptError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ScriptError) Error() string {
	msg := fmt.Sprintf("automation script exited with status %d (%s)", e.Code, e.Command)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Runner invokes the automation script through an interpreter.
type Runner struct {
	interpreter string
	script      string
	program     []byte // piped to the interpreter when script is empty
}

// New checks that script exists and returns a Runner for it. The script
// path is made absolute so the runner is independent of later chdirs.
// An empty script selects the built-in AppleScript, which needs macOS.
// So does an osascript interpreter.
func New(interpreter, script string) (*Runner, error) {
	if interpreter == "" {
		return nil, fmt.Errorf("%w: no interpreter configured", ErrUnavailable)
	}
	if goos != "darwin" && (script == "" || filepath.Base(interpreter) == "osascript") {
		return nil, fmt.Errorf("%w (running on %s)", ErrUnsupportedPlatform, goos)
	}
	if script == "" {
		return &Runner{interpreter: interpreter, program: builtinScript}, nil
	}
	abs, err := filepath.Abs(script)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to resolve script path %s: %v", ErrUnavailable, script, err)
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: automation script not found at %s", ErrUnavailable, abs)
	}
	return &Runner{interpreter: interpreter, script: abs}, nil
}

// Script returns the absolute script path, or "" for the built-in script.
func (r *Runner) Script() string {
	return r.script
}

// Listing returns the raw account/folder/note listing.
func (r *Runner) Listing(ctx context.Context) (string, error) {
	return r.run(ctx, "list")
}

// Body returns the raw HTML body of one note, exactly as printed.
func (r *Runner) Body(ctx context.Context, note notes.NoteRef) (string, error) {
	return r.run(ctx, "body", note.ID)
}

// Forest runs Listing and parses it.
func (r *Runner) Forest(ctx context.Context) (*notes.Forest, error) {
	text, err := r.Listing(ctx)
	if err != nil {
		return nil, err
	}
	return notes.ParseListing(text)
}

func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	program := r.script
	if r.script == "" {
		program = "-"
	}
	cmd := exec.CommandContext(ctx, r.interpreter, append([]string{program}, args...)...)
	if r.script == "" {
		cmd.Stdin = bytes.NewReader(r.program)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Interpreter missing or not executable
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("%w: failed to launch %s: %v", ErrUnavailable, r.interpreter, execErr.Err)
		}
		if errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: failed to launch %s: %v", ErrUnavailable, r.interpreter, err)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ScriptError{
				Command: strings.Join(args, " "),
				Code:    exitErr.ExitCode(),
				Stderr:  strings.TrimSpace(stderr.String()),
			}
		}
		return "", fmt.Errorf("automation script failed: %w", err)
	}

	return stdout.String(), nil
}
