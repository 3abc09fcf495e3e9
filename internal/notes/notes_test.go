package notes

import (
	"errors"
	"strings"
	"testing"
)

const sampleListing = `# accounts in Notes order
A	iCloud
F	1	Work
N	1	x-coredata://1/ICNote/p1	Standup
F	2	Projects
F	3	X
N	3	x-coredata://1/ICNote/p2	Deep note
F	1	Recipes
N	1	x-coredata://1/ICNote/p3	Recipe
N	1	x-coredata://1/ICNote/p4	Recipe

A	Google
F	1	X
N	1	x-coredata://2/ICNote/p9	Shallow note
F	2	Archive
`

func mustParse(t *testing.T, text string) *Forest {
	t.Helper()
	forest, err := ParseListing(text)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return forest
}

func TestParseListing(t *testing.T) {
	forest := mustParse(t, sampleListing)

	if len(forest.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(forest.Accounts))
	}
	icloud := forest.Accounts[0]
	if icloud.Name != "iCloud" || len(icloud.Folders) != 2 {
		t.Fatalf("unexpected iCloud account: %+v", icloud)
	}

	work := icloud.Folders[0]
	if work.Name != "Work" || len(work.Notes) != 1 || work.Notes[0].Title != "Standup" {
		t.Errorf("unexpected Work folder: %+v", work)
	}
	if len(work.Folders) != 1 || work.Folders[0].Name != "Projects" {
		t.Fatalf("expected Projects under Work, got %+v", work.Folders)
	}

	deep := work.Folders[0].Folders[0]
	if deep.FullPath() != "iCloud/Work/Projects/X" {
		t.Errorf("expected iCloud/Work/Projects/X, got %q", deep.FullPath())
	}
	if deep.Depth() != 3 {
		t.Errorf("expected depth 3, got %d", deep.Depth())
	}
	if len(deep.Notes) != 1 || deep.Notes[0].ID != "x-coredata://1/ICNote/p2" {
		t.Errorf("unexpected notes in X: %+v", deep.Notes)
	}

	recipes := icloud.Folders[1]
	if len(recipes.Notes) != 2 {
		t.Errorf("expected 2 recipes, got %d", len(recipes.Notes))
	}

	folders, count := work.Count()
	if folders != 3 || count != 2 {
		t.Errorf("expected 3 folders and 2 notes under Work, got %d and %d", folders, count)
	}
}

func TestParseListing_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		wantMsg string
	}{
		{"folder before account", "F\t1\tWork", 1, "folder before any account"},
		{"unknown kind", "A\tiCloud\nZ\t1\tfoo", 2, "unknown record kind"},
		{"depth skip", "A\tiCloud\nF\t1\tWork\nF\t3\tDeep", 3, "skips a level"},
		{"bad depth", "A\tiCloud\nF\tone\tWork", 2, "invalid depth"},
		{"zero depth", "A\tiCloud\nF\t0\tWork", 2, "invalid depth"},
		{"note without folder", "A\tiCloud\nN\t1\tid\tTitle", 2, "no folder at depth 1"},
		{"note too deep", "A\tiCloud\nF\t1\tWork\nN\t2\tid\tTitle", 3, "no folder at depth 2"},
		{"note missing id", "A\tiCloud\nF\t1\tWork\nN\t1\t\tTitle", 3, "needs an id"},
		{"account without name", "A\t", 1, "needs a name"},
		{"folder field count", "A\tiCloud\nF\t1", 2, "needs depth and name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseListing(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			var le *ListingError
			if !errors.As(err, &le) {
				t.Fatalf("expected *ListingError, got %T", err)
			}
			if le.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, le.Line)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestParseListing_AccountResetsDepth(t *testing.T) {
	// A depth-2 folder right after a new account has no parent.
	_, err := ParseListing("A\tOne\nF\t1\tTop\nA\tTwo\nF\t2\tOrphan")
	if err == nil {
		t.Fatal("expected error for orphaned folder")
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in          string
		wantAccount string
		wantFolder  string
	}{
		{"Work", "", "Work"},
		{"iCloud:Work", "iCloud", "Work"},
		{"iCloud:Meeting: Q3", "iCloud", "Meeting: Q3"},
		{":Work", "", ":Work"},
		{"Work:", "", "Work:"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseTarget(tt.in)
			if got.Account != tt.wantAccount || got.Folder != tt.wantFolder {
				t.Errorf("ParseTarget(%q) = %q/%q, want %q/%q", tt.in, got.Account, got.Folder, tt.wantAccount, tt.wantFolder)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	forest := mustParse(t, sampleListing)

	tests := []struct {
		name     string
		target   string
		wantPath string
		wantErr  bool
	}{
		{"shallow folder beats deeper one in earlier account", "X", "Google/X", false},
		{"qualified picks account", "iCloud:X", "iCloud/Work/Projects/X", false},
		{"nested folder", "Projects", "iCloud/Work/Projects", false},
		{"qualified with other account", "Google:Archive", "Google/X/Archive", false},
		{"qualified miss", "Google:Work", "", true},
		{"unknown folder", "Nope", "", true},
		{"case sensitive", "work", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folder, err := Resolve(forest, ParseTarget(tt.target))
			if tt.wantErr {
				if !errors.Is(err, ErrFolderNotFound) {
					t.Fatalf("expected ErrFolderNotFound, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.target) {
					t.Errorf("expected error to name target %q, got %q", tt.target, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if folder.FullPath() != tt.wantPath {
				t.Errorf("expected %q, got %q", tt.wantPath, folder.FullPath())
			}
		})
	}
}

func TestResolve_TieBreakFirstAccountAtEqualDepth(t *testing.T) {
	// Accounts A and B hold "X" at depth 1 and depth 2 respectively.
	forest := mustParse(t, "A\tA\nF\t1\tX\nA\tB\nF\t1\tParent\nF\t2\tX\n")
	folder, err := Resolve(forest, ParseTarget("X"))
	if err != nil {
		t.Fatal(err)
	}
	if folder.Account != "A" || folder.Depth() != 1 {
		t.Errorf("expected A's depth-1 folder, got %s", folder.FullPath())
	}

	forest = mustParse(t, "A\tA\nF\t1\tX\nA\tB\nF\t1\tX\n")
	folder, err = Resolve(forest, ParseTarget("X"))
	if err != nil {
		t.Fatal(err)
	}
	if folder.Account != "A" {
		t.Errorf("expected the first account to win, got %s", folder.Account)
	}
}

func TestResolve_ColonInFolderName(t *testing.T) {
	forest := mustParse(t, "A\tiCloud\nF\t1\tMeeting: Q3\n")
	folder, err := Resolve(forest, ParseTarget("Meeting: Q3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if folder.Name != "Meeting: Q3" {
		t.Errorf("unexpected folder %q", folder.Name)
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Recipe", "Recipe"},
		{"a/b\\c", "a b c"},
		{"What? <Now>: \"quoted\"", "What Now quoted"},
		{"tabs\tand\nnewlines", "tabs and newlines"},
		{"  padded  ", "padded"},
		{"...hidden", "hidden"},
		{"trailing...", "trailing"},
		{"", "Untitled"},
		{"///", "Untitled"},
		{"Café ☕", "Café ☕"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SafeName(tt.in); got != tt.want {
				t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSafeName_TruncatesAtRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 100) // 200 bytes
	got := SafeName(long)
	if len(got) > maxNameBytes {
		t.Errorf("expected at most %d bytes, got %d", maxNameBytes, len(got))
	}
	if got != strings.Repeat("é", maxNameBytes/2) {
		t.Errorf("unexpected truncation %q", got)
	}
}

func TestNoteRef_Disambiguator(t *testing.T) {
	a := NoteRef{ID: "x-coredata://1/ICNote/p3", Title: "Recipe"}
	b := NoteRef{ID: "x-coredata://1/ICNote/p4", Title: "Recipe"}

	if len(a.Disambiguator()) != DefaultDisambiguatorLen {
		t.Errorf("expected %d chars, got %q", DefaultDisambiguatorLen, a.Disambiguator())
	}
	if a.Disambiguator() != a.Disambiguator() {
		t.Error("expected stable disambiguator")
	}
	if a.DisambiguatorN(64) == b.DisambiguatorN(64) {
		t.Error("expected different digests for different ids")
	}
	if !strings.HasPrefix(a.DisambiguatorN(8), a.Disambiguator()) {
		t.Error("expected wider disambiguator to extend the short one")
	}
	if len(a.DisambiguatorN(1000)) != 64 {
		t.Errorf("expected clamp to 64 chars, got %d", len(a.DisambiguatorN(1000)))
	}

	stem := a.FileStem(DefaultDisambiguatorLen)
	if stem != "Recipe -- "+a.Disambiguator() {
		t.Errorf("unexpected stem %q", stem)
	}
}
