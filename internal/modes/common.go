// Package modes implements the notesmirror commands: list, export, extract
// and verify. Each Run function returns a result struct with counters and
// the recoverable errors it collected.
package modes

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/thesavant42/notesmirror/internal/automation"
	"github.com/thesavant42/notesmirror/internal/config"
	"github.com/thesavant42/notesmirror/internal/notes"
	"github.com/thesavant42/notesmirror/internal/ui"
)

// ProgressCallback is called to report progress during operations.
//
// Events:
//   - "notes_found" (int): notes in the resolved subtree
//   - "note_written" (string): path of an exported note
//   - "files_found" (int): HTML files found by extract
//   - "file_processed" (string): path of an extracted file
type ProgressCallback func(event string, data any)

// Source is the notes collaborator: it lists the folder forest and returns
// note bodies.
type Source interface {
	Forest(ctx context.Context) (*notes.Forest, error)
	Body(ctx context.Context, note notes.NoteRef) (string, error)
}

// Config holds configuration for all modes.
type Config struct {
	Script      string // automation script path
	Interpreter string // program that runs Script
	Workers     int    // concurrent files during extract
	Extract     bool   // extract attachments after export
	Verbose     bool
	Spinner     bool // draw a spinner while waiting for the listing

	Source     Source    // overrides the automation runner when set
	Out        io.Writer // verbose output (default: os.Stdout)
	Logger     zerolog.Logger
	OnProgress ProgressCallback // Optional callback for progress events
}

// emit sends a progress event if a callback is configured.
func (c *Config) emit(event string, data any) {
	if c.OnProgress != nil {
		c.OnProgress(event, data)
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return FromSettings(config.Default())
}

// FromSettings builds a Config from loaded settings.
func FromSettings(s config.Config) *Config {
	return &Config{
		Script:      s.Script,
		Interpreter: s.Interpreter,
		Workers:     s.Workers,
		Extract:     s.Extract,
		Verbose:     s.Verbose,
		Out:         os.Stdout,
		Logger:      zerolog.Nop(),
	}
}

func (c *Config) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// info prints a verbose-only status line.
func (c *Config) info(format string, args ...any) {
	if c.Verbose {
		fmt.Fprintln(c.out(), ui.Info(fmt.Sprintf(format, args...)))
	}
}

func (c *Config) success(format string, args ...any) {
	if c.Verbose {
		fmt.Fprintln(c.out(), ui.Success(fmt.Sprintf(format, args...)))
	}
}

func (c *Config) warning(format string, args ...any) {
	if c.Verbose {
		fmt.Fprintln(c.out(), ui.Warning(fmt.Sprintf(format, args...)))
	}
}

// source returns the configured Source, starting the automation runner if
// none was injected.
func (c *Config) source() (Source, error) {
	if c.Source != nil {
		return c.Source, nil
	}
	r, err := automation.New(c.Interpreter, c.Script)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// loadForest asks the collaborator for the folder forest, behind a spinner
// when one is enabled.
func (c *Config) loadForest(ctx context.Context, src Source) (*notes.Forest, error) {
	load := func() (*notes.Forest, error) { return src.Forest(ctx) }
	if c.Spinner && !c.Verbose {
		return ui.Spin("Reading folders from Notes", load)
	}
	c.info("Reading folders from Notes")
	return load()
}
