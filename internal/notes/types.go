// Package notes models the account/folder/note forest reported by the
// automation script and resolves export targets within it.
package notes

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultDisambiguatorLen is the number of hex characters used to tell
// apart notes that share a title.
const DefaultDisambiguatorLen = 4

// Forest is the parsed listing: accounts in listing order.
type Forest struct {
	Accounts []*Account
}

// Account is a top-level container of folders.
type Account struct {
	Name    string
	Folders []*Folder
}

// Folder is a node in an account's folder tree. Path holds the names of its
// ancestors, outermost first, not including the account.
type Folder struct {
	Account string
	Name    string
	Path    []string
	Folders []*Folder
	Notes   []NoteRef
}

// NoteRef identifies one note. ID is the automation layer's stable identifier.
type NoteRef struct {
	ID    string
	Title string
	Body  string // raw HTML, filled in by the exporter
}

// Account returns the named account, or nil.
func (f *Forest) Account(name string) *Account {
	for _, a := range f.Accounts {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// FullPath returns "Account/Parent/.../Name" for display.
func (f *Folder) FullPath() string {
	parts := make([]string, 0, len(f.Path)+2)
	parts = append(parts, f.Account)
	parts = append(parts, f.Path...)
	parts = append(parts, f.Name)
	return strings.Join(parts, "/")
}

// Depth is 1 for a top-level folder.
func (f *Folder) Depth() int {
	return len(f.Path) + 1
}

// Count returns the number of folders and notes in f's subtree, f included.
func (f *Folder) Count() (folders, notes int) {
	folders, notes = 1, len(f.Notes)
	for _, c := range f.Folders {
		cf, cn := c.Count()
		folders += cf
		notes += cn
	}
	return folders, notes
}

// Disambiguator returns the first DefaultDisambiguatorLen hex characters of
// the SHA-256 of the note ID.
func (n NoteRef) Disambiguator() string {
	return n.DisambiguatorN(DefaultDisambiguatorLen)
}

// DisambiguatorN returns the first width hex characters of the note ID
// digest, clamped to the digest length.
func (n NoteRef) DisambiguatorN(width int) string {
	sum := sha256.Sum256([]byte(n.ID))
	h := hex.EncodeToString(sum[:])
	if width <= 0 || width > len(h) {
		width = len(h)
	}
	return h[:width]
}

// FileStem returns "<safe title> -- <disambiguator>" using width hex characters.
func (n NoteRef) FileStem(width int) string {
	return SafeName(n.Title) + " -- " + n.DisambiguatorN(width)
}
