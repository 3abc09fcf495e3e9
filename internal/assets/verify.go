package assets

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// MissingRef is a local image reference whose target does not exist.
type MissingRef struct {
	HTMLPath string
	Ref      string
}

// VerifyResult contains the results of a VerifyDirectory run.
type VerifyResult struct {
	FilesChecked int
	RefsChecked  int
	InlineImages int // data: URIs still embedded
	Missing      []MissingRef
	Errors       []error
}

// LocalImageRefs parses an HTML document and returns the src of every <img>
// that points at a local file, in document order, along with the number of
// data: URIs still inline. Absolute URLs are ignored.
func LocalImageRefs(htmlContent string) ([]string, int, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse html: %w", err)
	}

	var refs []string
	inline := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			for _, attr := range n.Attr {
				if attr.Key != "src" || attr.Val == "" {
					continue
				}
				switch {
				case strings.HasPrefix(attr.Val, "data:"):
					inline++
				case isRemoteRef(attr.Val):
				default:
					refs = append(refs, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return refs, inline, nil
}

func isRemoteRef(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Scheme != "file"
}

// VerifyDirectory checks that every local image reference in the HTML files
// under root resolves to an existing file.
func VerifyDirectory(root string) (*VerifyResult, error) {
	files, walkErrs, err := htmlFiles(root)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{Errors: walkErrs}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to read file %s: %w", path, err))
			continue
		}

		refs, inline, err := LocalImageRefs(string(content))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
			continue
		}
		result.FilesChecked++
		result.InlineImages += inline

		for _, ref := range refs {
			result.RefsChecked++
			if !refExists(filepath.Dir(path), ref) {
				result.Missing = append(result.Missing, MissingRef{HTMLPath: path, Ref: ref})
			}
		}
	}

	return result, nil
}

// refExists resolves ref relative to dir. Percent-escaped refs are tried
// both as written and unescaped.
func refExists(dir, ref string) bool {
	candidates := []string{ref}
	if u, err := url.PathUnescape(ref); err == nil && u != ref {
		candidates = append(candidates, u)
	}
	for _, c := range candidates {
		c = strings.TrimPrefix(c, "file://")
		p := filepath.FromSlash(c)
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}
