// Package export mirrors a resolved folder subtree onto the filesystem as
// one HTML file per note.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thesavant42/notesmirror/internal/assets"
	"github.com/thesavant42/notesmirror/internal/notes"
)

// BodySource supplies the raw HTML of a note.
type BodySource interface {
	Body(ctx context.Context, note notes.NoteRef) (string, error)
}

// Widths tried, in order, when two notes in one directory map to the same file.
var disambiguatorWidths = []int{notes.DefaultDisambiguatorLen, 8, 16, 64}

// Walker writes a folder subtree to disk.
type Walker struct {
	Source  BodySource
	Extract bool // run attachment extraction on each written note
	Assets  assets.Options
	Logger  zerolog.Logger
	OnNote  func(note notes.NoteRef, path string)
}

// Result contains the results of a Walk.
type Result struct {
	FoldersCreated int
	NotesWritten   int
	Extractions    []assets.Result // one per written note when extraction is on
	Errors         []error
}

// ExtractedCount returns the number of attachments extracted during the walk.
func (r *Result) ExtractedCount() int {
	n := 0
	for _, e := range r.Extractions {
		n += len(e.Attachments)
	}
	return n
}

// FailedAttachments returns the number of images left inline.
func (r *Result) FailedAttachments() int {
	n := 0
	for _, e := range r.Extractions {
		n += e.Failed
	}
	return n
}

// Walk mirrors folder into outDir/<folder name>/..., depth first in listing
// order. A folder whose directory cannot be created is skipped with its
// subtree; a note that cannot be fetched or written is skipped alone.
// Either way the walk continues with the remaining siblings.
func (w *Walker) Walk(ctx context.Context, folder *notes.Folder, outDir string) *Result {
	result := &Result{}
	w.walkFolder(ctx, folder, outDir, make(usedNames), result)
	return result
}

// usedNames records the file names taken in each output directory, keyed by
// the lowercased directory path. Sibling folders whose safe names coincide
// share one directory and so share one set.
type usedNames map[string]map[string]bool

func (u usedNames) in(dir string) map[string]bool {
	key := strings.ToLower(filepath.Clean(dir))
	set, ok := u[key]
	if !ok {
		set = make(map[string]bool)
		u[key] = set
	}
	return set
}

func (w *Walker) walkFolder(ctx context.Context, folder *notes.Folder, parentDir string, names usedNames, result *Result) {
	if err := ctx.Err(); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("export of %s cancelled: %w", folder.FullPath(), err))
		return
	}

	dir := filepath.Join(parentDir, notes.SafeName(folder.Name))
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.Logger.Debug().Err(err).Str("folder", folder.FullPath()).Msg("skipping subtree")
		result.Errors = append(result.Errors, fmt.Errorf("failed to create directory for %s: %w", folder.FullPath(), err))
		return
	}
	result.FoldersCreated++

	used := names.in(dir)
	for _, note := range folder.Notes {
		w.writeNote(ctx, folder, note, dir, used, result)
	}

	for _, child := range folder.Folders {
		w.walkFolder(ctx, child, dir, names, result)
	}
}

func (w *Walker) writeNote(ctx context.Context, folder *notes.Folder, note notes.NoteRef, dir string, used map[string]bool, result *Result) {
	name := uniqueFileName(note, used)
	path := filepath.Join(dir, name)

	body := note.Body
	if body == "" && w.Source != nil {
		var err error
		body, err = w.Source.Body(ctx, note)
		if err != nil {
			w.Logger.Debug().Err(err).Str("note", note.Title).Msg("failed to fetch note body")
			result.Errors = append(result.Errors, fmt.Errorf("failed to fetch %q in %s: %w", note.Title, folder.FullPath(), err))
			return
		}
	}

	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		w.Logger.Debug().Err(err).Str("path", path).Msg("failed to write note")
		result.Errors = append(result.Errors, fmt.Errorf("failed to write note %s: %w", path, err))
		return
	}
	result.NotesWritten++

	if w.OnNote != nil {
		w.OnNote(note, path)
	}

	if !w.Extract {
		return
	}

	extraction, err := assets.ExtractFromFile(path, w.Assets)
	if extraction != nil {
		result.Extractions = append(result.Extractions, *extraction)
		result.Errors = append(result.Errors, extraction.Errors...)
	}
	if err != nil {
		result.Errors = append(result.Errors, err)
	}
}

// uniqueFileName returns "<title> -- <id>.html", widening the disambiguator
// until the name is unused in this directory. Names are compared
// case-insensitively because the target filesystem may be.
func uniqueFileName(note notes.NoteRef, used map[string]bool) string {
	var name string
	for _, width := range disambiguatorWidths {
		name = note.FileStem(width) + ".html"
		if !used[strings.ToLower(name)] {
			break
		}
	}
	used[strings.ToLower(name)] = true
	return name
}
