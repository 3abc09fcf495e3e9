package modes

import (
	"context"
	"fmt"
	"io"

	"github.com/thesavant42/notesmirror/internal/notes"
	"github.com/thesavant42/notesmirror/internal/ui"
)

// ListResult contains the folder forest reported by the collaborator.
type ListResult struct {
	Forest   *notes.Forest
	Accounts int
	Folders  int
	Notes    int
}

// RunList reads the account and folder listing.
func RunList(ctx context.Context, cfg *Config) (*ListResult, error) {
	src, err := cfg.source()
	if err != nil {
		return nil, err
	}

	forest, err := cfg.loadForest(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	result := &ListResult{Forest: forest, Accounts: len(forest.Accounts)}
	for _, account := range forest.Accounts {
		for _, folder := range account.Folders {
			f, n := folder.Count()
			result.Folders += f
			result.Notes += n
		}
	}
	return result, nil
}

// RenderForest writes one line per account followed by its folders. Only
// top-level folders are shown unless all is set.
func RenderForest(w io.Writer, forest *notes.Forest, all bool) {
	for _, account := range forest.Accounts {
		fmt.Fprintln(w, ui.TreeLine(0, account.Name, -1))
		for _, folder := range account.Folders {
			renderFolder(w, folder, 1, all)
		}
	}
}

func renderFolder(w io.Writer, folder *notes.Folder, depth int, all bool) {
	fmt.Fprintln(w, ui.TreeLine(depth, folder.Name, len(folder.Notes)))
	if !all {
		return
	}
	for _, child := range folder.Folders {
		renderFolder(w, child, depth+1, all)
	}
}
