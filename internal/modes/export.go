package modes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thesavant42/notesmirror/internal/assets"
	"github.com/thesavant42/notesmirror/internal/export"
	"github.com/thesavant42/notesmirror/internal/notes"
)

// ExportResult contains the results of exporting one folder subtree.
type ExportResult struct {
	Target               string
	Folder               string // full path of the resolved folder
	OutputDir            string // absolute output directory
	FoldersCreated       int
	NotesFound           int
	NotesWritten         int
	AttachmentsExtracted int
	AttachmentsFailed    int
	Errors               []error
}

// RunExport resolves target in the collaborator's folder forest and mirrors
// it under outDir. Failures of single notes, folders or attachments are
// collected in the result; only an unusable collaborator, an unresolvable
// target or an unusable output directory return an error.
func RunExport(ctx context.Context, cfg *Config, target notes.Target, outDir string) (*ExportResult, error) {
	if target.Folder == "" {
		return nil, errors.New("folder name must not be empty")
	}
	if outDir == "" {
		return nil, errors.New("output directory must not be empty")
	}

	result := &ExportResult{Target: target.String()}

	src, err := cfg.source()
	if err != nil {
		return nil, err
	}

	forest, err := cfg.loadForest(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	folder, err := notes.Resolve(forest, target)
	if err != nil {
		return nil, err
	}
	result.Folder = folder.FullPath()
	cfg.success("Resolved %s to %s", target, result.Folder)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return nil, fmt.Errorf("invalid output directory %s: %w", outDir, err)
	}
	result.OutputDir = abs

	_, result.NotesFound = folder.Count()
	cfg.emit("notes_found", result.NotesFound)

	w := &export.Walker{
		Source:  src,
		Extract: cfg.Extract,
		Assets:  assets.Options{Logger: cfg.Logger},
		Logger:  cfg.Logger,
		OnNote: func(note notes.NoteRef, path string) {
			cfg.info("Wrote %s", path)
			cfg.emit("note_written", path)
		},
	}
	walk := w.Walk(ctx, folder, abs)

	result.FoldersCreated = walk.FoldersCreated
	result.NotesWritten = walk.NotesWritten
	result.AttachmentsExtracted = walk.ExtractedCount()
	result.AttachmentsFailed = walk.FailedAttachments()
	result.Errors = walk.Errors

	if result.AttachmentsExtracted > 0 {
		cfg.success("Extracted %d attachment(s)", result.AttachmentsExtracted)
	}
	if len(result.Errors) > 0 {
		cfg.warning("%d item(s) failed", len(result.Errors))
	}

	return result, nil
}
