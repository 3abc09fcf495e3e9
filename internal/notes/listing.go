package notes

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Record kinds in the automation listing. Fields are tab separated:
//
//	A <account>
//	F <depth> <folder name>
//	N <depth> <note id> <note title>
const (
	kindAccount = "A"
	kindFolder  = "F"
	kindNote    = "N"
)

// ListingError reports a malformed listing line.
type ListingError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// ParseListing builds the folder forest from the automation script's
// listing output. Blank lines and lines starting with # are ignored.
func ParseListing(text string) (*Forest, error) {
	forest := &Forest{}

	var account *Account
	// stack[d-1] is the most recent folder at depth d in the current account
	var stack []*Folder

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(raw) == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		fail := func(reason string) error {
			return &ListingError{Line: lineNo, Text: raw, Reason: reason}
		}

		fields := strings.Split(raw, "\t")
		switch fields[0] {
		case kindAccount:
			if len(fields) != 2 || fields[1] == "" {
				return nil, fail("account record needs a name")
			}
			account = &Account{Name: fields[1]}
			forest.Accounts = append(forest.Accounts, account)
			stack = stack[:0]

		case kindFolder:
			if len(fields) != 3 {
				return nil, fail("folder record needs depth and name")
			}
			if account == nil {
				return nil, fail("folder before any account")
			}
			depth, err := parseDepth(fields[1])
			if err != nil {
				return nil, fail(err.Error())
			}
			if depth > len(stack)+1 {
				return nil, fail(fmt.Sprintf("folder depth %d skips a level", depth))
			}

			folder := &Folder{Account: account.Name, Name: fields[2]}
			stack = stack[:depth-1]
			if depth == 1 {
				account.Folders = append(account.Folders, folder)
			} else {
				parent := stack[depth-2]
				folder.Path = append(append([]string{}, parent.Path...), parent.Name)
				parent.Folders = append(parent.Folders, folder)
			}
			stack = append(stack, folder)

		case kindNote:
			if len(fields) != 4 {
				return nil, fail("note record needs depth, id and title")
			}
			depth, err := parseDepth(fields[1])
			if err != nil {
				return nil, fail(err.Error())
			}
			if account == nil || depth > len(stack) {
				return nil, fail(fmt.Sprintf("note has no folder at depth %d", depth))
			}
			if fields[2] == "" {
				return nil, fail("note record needs an id")
			}
			folder := stack[depth-1]
			folder.Notes = append(folder.Notes, NoteRef{ID: fields[2], Title: fields[3]})

		default:
			return nil, fail("unknown record kind")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}

	return forest, nil
}

func parseDepth(s string) (int, error) {
	depth, err := strconv.Atoi(s)
	if err != nil || depth < 1 {
		return 0, fmt.Errorf("invalid depth %q", s)
	}
	return depth, nil
}
