// Package assets extracts inline base64 images from exported HTML notes
// into companion attachment directories and rewrites the HTML to point at them.
package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options configures an extraction run.
type Options struct {
	Workers int            // files processed concurrently by ExtractFromDirectory (<=1 means serial)
	Logger  zerolog.Logger // diagnostics for recoverable failures
	OnStart func(total int) // called once with the number of files found
	OnFile  func(path string)
}

// Result summarizes the extraction of one HTML file. A file with no inline
// images yields a Result with no Attachments.
type Result struct {
	Path        string
	Attachments []Attachment
	Failed      int     // matches left inline because decode or write failed
	Errors      []error // one per failed match
	Rewritten   bool
}

// BatchResult aggregates ExtractFromDirectory. Results are sorted by path.
// Files that could not be read or written back appear only in Errors.
type BatchResult struct {
	Results []Result
	Errors  []error
}

// ExtractedCount returns the number of attachments across all results.
func (b *BatchResult) ExtractedCount() int {
	n := 0
	for _, r := range b.Results {
		n += len(r.Attachments)
	}
	return n
}

// FailedCount returns the number of matches left inline across all results.
func (b *BatchResult) FailedCount() int {
	n := 0
	for _, r := range b.Results {
		n += r.Failed
	}
	return n
}

// ExtractFromFile extracts the inline images of one HTML file. The file is
// rewritten only if at least one attachment was extracted, so running it
// again over its own output changes nothing.
func ExtractFromFile(filePath string, opts Options) (*Result, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	result := &Result{Path: filePath}

	text := string(content)
	matches := Scan(text)
	if len(matches) == 0 {
		return result, nil
	}

	log := opts.Logger.With().Str("file", filePath).Logger()
	mat := NewMaterializer(filePath, log)

	reps := make([]Replacement, 0, len(matches))
	for _, m := range matches {
		att, err := mat.Materialize(m)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("%s: attachment at offset %d: %w", filePath, m.Start, err))
			reps = append(reps, Replacement{Match: m})
			continue
		}
		result.Attachments = append(result.Attachments, att)
		reps = append(reps, Replacement{Match: m, Ref: att.Ref()})
	}

	if len(result.Attachments) == 0 {
		return result, nil
	}

	if err := writeFileAtomic(filePath, []byte(Rewrite(text, reps))); err != nil {
		return result, fmt.Errorf("failed to write rewritten HTML %s: %w", filePath, err)
	}
	result.Rewritten = true

	return result, nil
}

// ExtractFromDirectory walks root and extracts every HTML file found. Each
// file is independent, so files are processed with up to opts.Workers
// goroutines; results are always returned in sorted path order.
func ExtractFromDirectory(root string, opts Options) (*BatchResult, error) {
	files, walkErrs, err := htmlFiles(root)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{Errors: walkErrs}
	if opts.OnStart != nil {
		opts.OnStart(len(files))
	}

	slots := make([]*Result, len(files))
	errs := make([]error, len(files))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			res, err := ExtractFromFile(path, opts)
			slots[i] = res
			errs[i] = err
			if opts.OnFile != nil {
				mu.Lock()
				opts.OnFile(path)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range files {
		if errs[i] != nil {
			batch.Errors = append(batch.Errors, errs[i])
		}
		// A failed write back still produced attachments worth reporting.
		if slots[i] != nil && (errs[i] == nil || len(slots[i].Attachments) > 0) {
			batch.Results = append(batch.Results, *slots[i])
		}
	}

	return batch, nil
}

// htmlFiles lists the HTML files under root in sorted order, skipping
// attachment directories.
func htmlFiles(root string) ([]string, []error, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("not a directory: %s", root)
	}

	var files []string
	var walkErrs []error
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			walkErrs = append(walkErrs, fmt.Errorf("walk error at %s: %w", path, err))
			return nil // Continue walking
		}
		if d.IsDir() {
			if path != root && isCompanionDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsHTML(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(files)
	return files, walkErrs, nil
}

// IsHTML reports whether path has an .html or .htm extension.
func IsHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// isCompanionDir reports whether dir is the attachment directory of a
// sibling HTML file. A folder that merely ends in the suffix is walked.
func isCompanionDir(dir string) bool {
	name := filepath.Base(dir)
	if !strings.HasSuffix(name, CompanionSuffix) {
		return false
	}
	stem := filepath.Join(filepath.Dir(dir), strings.TrimSuffix(name, CompanionSuffix))
	for _, ext := range []string{".html", ".htm", ".HTML", ".HTM"} {
		if info, err := os.Stat(stem + ext); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// writeFileAtomic replaces path with data via a temp file in the same
// directory, keeping the original permissions.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, mode); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, mode); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
