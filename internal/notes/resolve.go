package notes

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFolderNotFound is returned when no folder matches a target.
var ErrFolderNotFound = errors.New("folder not found")

// Target is a folder name, optionally qualified by account.
type Target struct {
	Account string
	Folder  string
	raw     string
}

// ParseTarget parses "[Account:]Folder". The first colon separates the
// account; without one, every account is searched.
func ParseTarget(s string) Target {
	if account, folder, ok := strings.Cut(s, ":"); ok && account != "" && folder != "" {
		return Target{Account: account, Folder: folder, raw: s}
	}
	return Target{Folder: s, raw: s}
}

// String returns the target in "[Account:]Folder" form.
func (t Target) String() string {
	if t.Account != "" {
		return t.Account + ":" + t.Folder
	}
	return t.Folder
}

// Resolve finds the target folder by breadth-first search over the forest.
// Top-level folders of all accounts (or only the qualifying account) are
// queued in listing order, so a shallower folder always beats a deeper one
// and, at equal depth, the earlier account wins.
//
// A qualified target whose account does not exist is retried unqualified
// with the full original text, so folder names containing a colon can
// still be found.
func Resolve(forest *Forest, target Target) (*Folder, error) {
	if target.Account != "" {
		if account := forest.Account(target.Account); account != nil {
			if f := bfs([]*Account{account}, target.Folder); f != nil {
				return f, nil
			}
			return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, target)
		}
		if target.raw != "" {
			if f := bfs(forest.Accounts, target.raw); f != nil {
				return f, nil
			}
		}
		return nil, fmt.Errorf("%w: %s (no account named %q)", ErrFolderNotFound, target, target.Account)
	}

	if f := bfs(forest.Accounts, target.Folder); f != nil {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, target)
}

func bfs(accounts []*Account, name string) *Folder {
	var queue []*Folder
	for _, a := range accounts {
		queue = append(queue, a.Folders...)
	}

	for len(queue) > 0 {
		folder := queue[0]
		queue = queue[1:]

		if folder.Name == name {
			return folder
		}
		queue = append(queue, folder.Folders...)
	}

	return nil
}
