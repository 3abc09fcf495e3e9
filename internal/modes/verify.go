package modes

import (
	"fmt"
	"path/filepath"

	"github.com/thesavant42/notesmirror/internal/assets"
)

// VerifyResult contains the results of checking an exported tree.
type VerifyResult struct {
	Target       string
	FilesChecked int
	RefsChecked  int
	InlineImages int
	Missing      []assets.MissingRef
	Errors       []error
}

// RunVerify checks that the local image references of every HTML file
// under target point at existing files.
func RunVerify(cfg *Config, target string) (*VerifyResult, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target path: %w", err)
	}

	cfg.info("Checking image references in: %s", abs)
	res, err := assets.VerifyDirectory(abs)
	if err != nil {
		return nil, err
	}

	for _, m := range res.Missing {
		cfg.warning("%s: missing %s", m.HTMLPath, m.Ref)
	}

	return &VerifyResult{
		Target:       abs,
		FilesChecked: res.FilesChecked,
		RefsChecked:  res.RefsChecked,
		InlineImages: res.InlineImages,
		Missing:      res.Missing,
		Errors:       res.Errors,
	}, nil
}
