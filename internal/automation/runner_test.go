package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thesavant42/notesmirror/internal/notes"
)

// fakeScript writes a shell script standing in for the notes automation.
func fakeScript(t *testing.T, body string) string {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	path := filepath.Join(t.TempDir(), "notes.sh")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write fake script: %v", err)
	}
	return path
}

const listingScript = `case "$1" in
list)
  printf 'A\tiCloud\nF\t1\tWork\nN\t1\tid-1\tStandup\n'
  ;;
body)
  printf '<p>body of %s</p>\n' "$2"
  ;;
fail)
  echo "Notes got an error" >&2
  exit 3
  ;;
esac
`

func TestNew(t *testing.T) {
	script := fakeScript(t, listingScript)

	tests := []struct {
		name        string
		interpreter string
		script      string
		wantErr     bool
	}{
		{"existing script", "/bin/sh", script, false},
		{"missing script", "/bin/sh", filepath.Join(t.TempDir(), "missing.applescript"), true},
		{"directory as script", "/bin/sh", t.TempDir(), true},
		{"empty interpreter", "", script, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.interpreter, tt.script)
			if tt.wantErr {
				if !errors.Is(err, ErrUnavailable) {
					t.Fatalf("expected ErrUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !filepath.IsAbs(r.Script()) {
				t.Errorf("expected absolute script path, got %q", r.Script())
			}
		})
	}
}

func TestRunner_ListingAndBody(t *testing.T) {
	r, err := New("/bin/sh", fakeScript(t, listingScript))
	if err != nil {
		t.Fatal(err)
	}

	forest, err := r.Forest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forest.Accounts) != 1 || forest.Accounts[0].Folders[0].Name != "Work" {
		t.Fatalf("unexpected forest: %+v", forest.Accounts)
	}

	body, err := r.Body(context.Background(), notes.NoteRef{ID: "id-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "<p>body of id-1</p>\n" {
		t.Errorf("expected untrimmed body, got %q", body)
	}
}

func TestRunner_ScriptFailure(t *testing.T) {
	r, err := New("/bin/sh", fakeScript(t, listingScript))
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.run(context.Background(), "fail")
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("expected *ScriptError, got %v", err)
	}
	if scriptErr.Code != 3 {
		t.Errorf("expected exit code 3, got %d", scriptErr.Code)
	}
	if !strings.Contains(scriptErr.Error(), "Notes got an error") {
		t.Errorf("expected stderr in message, got %q", scriptErr.Error())
	}
}

func TestRunner_MissingInterpreter(t *testing.T) {
	r, err := New("definitely-not-an-interpreter-xyz", fakeScript(t, listingScript))
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.Listing(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRunner_MalformedListing(t *testing.T) {
	r, err := New("/bin/sh", fakeScript(t, `echo "garbage line"`))
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.Forest(context.Background())
	var le *notes.ListingError
	if !errors.As(err, &le) {
		t.Fatalf("expected *notes.ListingError, got %v", err)
	}
}

// pretendOS overrides the detected operating system for one test.
func pretendOS(t *testing.T, name string) {
	t.Helper()
	saved := goos
	goos = name
	t.Cleanup(func() { goos = saved })
}

func TestNew_RequiresMacOSForNotesAutomation(t *testing.T) {
	pretendOS(t, "linux")
	script := fakeScript(t, listingScript)

	tests := []struct {
		name        string
		interpreter string
		script      string
		wantErr     bool
	}{
		{"built-in script", "osascript", "", true},
		{"osascript with a script file", "/usr/bin/osascript", script, true},
		{"other interpreter", "/bin/sh", script, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.interpreter, tt.script)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrUnsupportedPlatform) || !errors.Is(err, ErrUnavailable) {
				t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
			}
		})
	}
}

func TestRunner_BuiltinScriptIsPipedOnStdin(t *testing.T) {
	pretendOS(t, "darwin")
	saved := builtinScript
	builtinScript = []byte(listingScript)
	t.Cleanup(func() { builtinScript = saved })

	// Stands in for osascript: "-" means read the program from stdin.
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	interp := filepath.Join(t.TempDir(), "fake-osascript")
	if err := os.WriteFile(interp, []byte("#!/bin/sh\n[ \"$1\" = - ] || exit 9\nshift\nexec /bin/sh -s \"$@\"\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	r, err := New(interp, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Script() != "" {
		t.Errorf("expected no script path, got %q", r.Script())
	}

	body, err := r.Body(context.Background(), notes.NoteRef{ID: "id-7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "<p>body of id-7</p>\n" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestBuiltinScript_HandlesCommands(t *testing.T) {
	script := string(builtinScript)
	for _, want := range []string{"on run argv", `"list"`, `"body"`, `tell application "Notes"`} {
		if !strings.Contains(script, want) {
			t.Errorf("expected built-in script to contain %q", want)
		}
	}
}
