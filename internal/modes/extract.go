package modes

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/thesavant42/notesmirror/internal/assets"
)

// ExtractResult contains the results of extracting attachments from a file
// or a directory of exported notes.
type ExtractResult struct {
	Target               string
	FilesScanned         int
	FilesRewritten       int
	AttachmentsExtracted int
	AttachmentsFailed    int
	Errors               []error
}

// RunExtract extracts inline images from target, which may be a single
// HTML file or a directory searched recursively.
func RunExtract(cfg *Config, target string) (*ExtractResult, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read target: %w", err)
	}

	result := &ExtractResult{Target: abs}
	opts := assets.Options{
		Workers: cfg.Workers,
		Logger:  cfg.Logger,
		OnStart: func(total int) { cfg.emit("files_found", total) },
		OnFile:  func(path string) { cfg.emit("file_processed", path) },
	}

	if !info.IsDir() {
		res, err := assets.ExtractFromFile(abs, opts)
		if res != nil {
			result.add(*res)
		}
		if err != nil {
			return nil, err
		}
		cfg.success("Extracted %d attachment(s) from %s", result.AttachmentsExtracted, filepath.Base(abs))
		return result, nil
	}

	cfg.info("Scanning for inline images in: %s", abs)
	batch, err := assets.ExtractFromDirectory(abs, opts)
	if err != nil {
		return nil, err
	}
	for _, res := range batch.Results {
		result.add(res)
		if cfg.Verbose && len(res.Attachments) > 0 {
			cfg.success("Extracted %d attachment(s) from %s", len(res.Attachments), res.Path)
		}
	}
	result.Errors = append(result.Errors, batch.Errors...)

	return result, nil
}

func (r *ExtractResult) add(res assets.Result) {
	r.FilesScanned++
	if res.Rewritten {
		r.FilesRewritten++
	}
	r.AttachmentsExtracted += len(res.Attachments)
	r.AttachmentsFailed += res.Failed
	r.Errors = append(r.Errors, res.Errors...)
}
