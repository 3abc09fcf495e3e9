package assets

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// CompanionSuffix is appended to a note's file stem to name the directory
// holding its extracted attachments.
const CompanionSuffix = "-attachments"

// maxIndexProbe bounds how far the materializer walks past occupied names.
const maxIndexProbe = 100000

// ErrDecode marks a payload that is not valid base64.
var ErrDecode = errors.New("invalid base64 payload")

// Attachment is a decoded image persisted next to its note.
type Attachment struct {
	Dir    string // companion directory path
	Name   string // file name inside Dir, e.g. attachment-001.png
	Index  int
	Ext    string
	MIME   string // declared MIME type from the data URI
	Size   int
	Reused bool // an identical file already existed under Name
}

// Path returns the attachment's full file path.
func (a Attachment) Path() string {
	return filepath.Join(a.Dir, a.Name)
}

// Ref returns the attachment's path relative to the note's HTML file,
// always with forward slashes.
func (a Attachment) Ref() string {
	return filepath.Base(a.Dir) + "/" + a.Name
}

// CompanionDir returns the attachment directory for an HTML file:
// "<dir>/<stem>-attachments".
func CompanionDir(htmlPath string) string {
	base := filepath.Base(htmlPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(htmlPath), stem+CompanionSuffix)
}

// AttachmentName formats the file name for a 1-based attachment index.
func AttachmentName(index int, ext string) string {
	return fmt.Sprintf("attachment-%03d.%s", index, ext)
}

// Materializer decodes and writes the attachments of a single note. It
// creates the companion directory on the first successful decode only.
// A Materializer is not safe for concurrent use.
type Materializer struct {
	dir     string
	next    int
	created bool
	log     zerolog.Logger
}

// NewMaterializer returns a Materializer for the note at htmlPath.
func NewMaterializer(htmlPath string, log zerolog.Logger) *Materializer {
	return &Materializer{
		dir:  CompanionDir(htmlPath),
		next: 1,
		log:  log,
	}
}

// Dir returns the companion directory path.
func (m *Materializer) Dir() string {
	return m.dir
}

// Materialize decodes one match and writes it under the next free index.
// Decode and write failures are returned without consuming an index.
func (m *Materializer) Materialize(match Match) (Attachment, error) {
	data, err := decodePayload(match.Data())
	if err != nil {
		m.log.Debug().Err(err).Int("offset", match.Start).Str("mime", match.MIME).Msg("skipping attachment")
		return Attachment{}, err
	}

	ext := ExtensionFor(data, match.MIME)

	if !m.created {
		if err := os.MkdirAll(m.dir, 0755); err != nil {
			m.log.Debug().Err(err).Str("dir", m.dir).Msg("failed to create attachment directory")
			return Attachment{}, fmt.Errorf("failed to create attachment directory %s: %w", m.dir, err)
		}
		m.created = true
	}

	for probe := 0; probe < maxIndexProbe; probe++ {
		index := m.next
		name := AttachmentName(index, ext)
		path := filepath.Join(m.dir, name)

		reused, err := claimFile(path, data)
		if errors.Is(err, os.ErrExist) {
			m.next++
			continue
		}
		if err != nil {
			m.log.Debug().Err(err).Str("path", path).Msg("failed to write attachment")
			return Attachment{}, fmt.Errorf("failed to write attachment %s: %w", path, err)
		}

		m.next++
		att := Attachment{
			Dir:    m.dir,
			Name:   name,
			Index:  index,
			Ext:    ext,
			MIME:   match.MIME,
			Size:   len(data),
			Reused: reused,
		}
		m.log.Debug().Str("path", path).Int("bytes", len(data)).Bool("reused", reused).Msg("attachment written")
		return att, nil
	}

	return Attachment{}, fmt.Errorf("no free attachment name in %s", m.dir)
}

// claimFile creates path exclusively and writes data to it. If path already
// holds exactly data it is reused; any other existing file yields os.ErrExist.
func claimFile(path string, data []byte) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if !errors.Is(err, os.ErrExist) {
			return false, err
		}
		existing, readErr := os.ReadFile(path)
		if readErr == nil && bytes.Equal(existing, data) {
			return true, nil
		}
		return false, os.ErrExist
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path) // Clean up partial file
		return false, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return false, err
	}
	return false, nil
}

// decodePayload decodes standard or URL-safe base64, padded or not.
func decodePayload(s string) ([]byte, error) {
	if s == "" {
		return nil, ErrDecode
	}
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	for _, enc := range encodings {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	return nil, ErrDecode
}
