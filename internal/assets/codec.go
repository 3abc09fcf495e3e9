package assets

import (
	"bytes"
	"strings"
)

// Format is an image container format recognized by its leading bytes.
type Format int

const (
	Unknown Format = iota
	PNG
	JPEG
	GIF
	WEBP
	SVG
	BMP
	TIFF
)

// svgProbeLen bounds how far into a payload we look for an <svg tag.
const svgProbeLen = 512

var (
	pngMagic      = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic     = []byte{0xFF, 0xD8}
	gif87Magic    = []byte("GIF87a")
	gif89Magic    = []byte("GIF89a")
	riffMagic     = []byte("RIFF")
	webpMagic     = []byte("WEBP")
	bmpMagic      = []byte("BM")
	tiffLEMagic   = []byte{'I', 'I', 0x2A, 0x00}
	tiffBEMagic   = []byte{'M', 'M', 0x00, 0x2A}
	svgTagLowered = []byte("<svg")
)

var formatExt = map[Format]string{
	PNG:  "png",
	JPEG: "jpg",
	GIF:  "gif",
	WEBP: "webp",
	SVG:  "svg",
	BMP:  "bmp",
	TIFF: "tiff",
}

// Subtypes accepted as an extension when sniffing is inconclusive.
var subtypeExt = map[string]string{
	"png":      "png",
	"jpeg":     "jpg",
	"jpg":      "jpg",
	"pjpeg":    "jpg",
	"gif":      "gif",
	"webp":     "webp",
	"svg":      "svg",
	"svg+xml":  "svg",
	"bmp":      "bmp",
	"x-bmp":    "bmp",
	"x-ms-bmp": "bmp",
	"tiff":     "tiff",
	"tif":      "tiff",
}

// Extension returns the canonical file extension, or "bin" for Unknown.
func (f Format) Extension() string {
	if ext, ok := formatExt[f]; ok {
		return ext
	}
	return "bin"
}

func (f Format) String() string {
	if f == Unknown {
		return "unknown"
	}
	return f.Extension()
}

// Sniff classifies binary image data by its magic bytes. It never inspects
// text, so SVG payloads come back as Unknown.
func Sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return PNG
	case bytes.HasPrefix(data, gif87Magic), bytes.HasPrefix(data, gif89Magic):
		return GIF
	case len(data) >= 12 && bytes.HasPrefix(data, riffMagic) && bytes.Equal(data[8:12], webpMagic):
		return WEBP
	case bytes.HasPrefix(data, tiffLEMagic), bytes.HasPrefix(data, tiffBEMagic):
		return TIFF
	case bytes.HasPrefix(data, jpegMagic):
		return JPEG
	case bytes.HasPrefix(data, bmpMagic):
		return BMP
	}
	return Unknown
}

// looksLikeSVG reports whether an <svg tag appears near the start of data.
func looksLikeSVG(data []byte) bool {
	if len(data) > svgProbeLen {
		data = data[:svgProbeLen]
	}
	return bytes.Contains(bytes.ToLower(data), svgTagLowered)
}

// Classify sniffs data, falling back to an SVG text probe when binary
// sniffing fails.
func Classify(data []byte) Format {
	if f := Sniff(data); f != Unknown {
		return f
	}
	if looksLikeSVG(data) {
		return SVG
	}
	return Unknown
}

// ExtensionFor picks the extension for a decoded payload. Magic bytes win
// over the declared MIME type; the MIME subtype is only used when the bytes
// are inconclusive, and "bin" when neither is recognized.
func ExtensionFor(data []byte, mime string) string {
	if f := Classify(data); f != Unknown {
		return f.Extension()
	}
	if ext, ok := subtypeExt[mimeSubtype(mime)]; ok {
		return ext
	}
	return "bin"
}

// mimeSubtype returns the lowercased subtype of "type/subtype; params".
func mimeSubtype(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if idx := strings.IndexByte(mime, ';'); idx != -1 {
		mime = mime[:idx]
	}
	_, subtype, ok := strings.Cut(mime, "/")
	if !ok {
		return ""
	}
	return strings.TrimSpace(subtype)
}
