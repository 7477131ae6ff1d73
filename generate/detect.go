package generate

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"bidic/state"
)

// sourceExtensions lists file extensions recognized as stylesheet sources.
var sourceExtensions = []string{".css", ".scss"}

// isStylesheetFile reports whether path looks like a stylesheet source.
// Sources are plain text, extension is the only signal we have.
func isStylesheetFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range sourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// isArchiveFile reports whether path is a zip archive we should look inside.
// Content is sniffed, extension alone is not trusted - and a file with a zip
// signature still has to open as an archive.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := f.Read(head)
	if err != nil && n == 0 {
		return false, nil
	}
	if !filetype.IsType(head[:n], matchers.TypeZip) {
		return false, nil
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		// has signature but does not open - not usable as archive
		return false, nil
	}
	return true, r.Close()
}

// readSource reads and decodes a single on-disk stylesheet source.
func readSource(path string, ctx context.Context) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read source: %w", err)
	}
	return decodeSource(raw, ctx)
}

// UTF byte order marks. UTF-8 BOM is simply dropped, UTF-16 input is decoded.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// decodeSource converts raw source bytes to UTF-8. When an encoding was
// forced on the command line or in configuration it wins, otherwise the BOM
// is consulted and BOM-less input is assumed to be UTF-8 already.
func decodeSource(raw []byte, ctx context.Context) ([]byte, error) {
	env := state.EnvFromContext(ctx)

	if env.SrcEncoding != nil {
		data, _, err := transform.Bytes(env.SrcEncoding.NewDecoder(), raw)
		if err != nil {
			return nil, fmt.Errorf("unable to decode source: %w", err)
		}
		return data, nil
	}

	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return raw[len(bomUTF8):], nil
	case bytes.HasPrefix(raw, bomUTF16BE), bytes.HasPrefix(raw, bomUTF16LE):
		dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		data, _, err := transform.Bytes(dec, raw)
		if err != nil {
			return nil, fmt.Errorf("unable to decode source: %w", err)
		}
		return data, nil
	}

	if label, ok := charsetRule(raw); ok {
		enc, name := charset.Lookup(label)
		if enc == nil {
			return nil, fmt.Errorf("unsupported @charset %q", label)
		}
		if name == "utf-8" {
			return raw, nil
		}
		data, _, err := transform.Bytes(enc.NewDecoder(), raw)
		if err != nil {
			return nil, fmt.Errorf("unable to decode source: %w", err)
		}
		return data, nil
	}
	return raw, nil
}

var charsetPrefix = []byte(`@charset "`)

// charsetRule extracts the label of a leading @charset rule. The rule only
// counts when it opens the file, matching how CSS consumers treat it.
func charsetRule(raw []byte) (string, bool) {
	if !bytes.HasPrefix(raw, charsetPrefix) {
		return "", false
	}
	rest := raw[len(charsetPrefix):]
	end := bytes.IndexByte(rest, '"')
	if end < 0 {
		return "", false
	}
	return string(rest[:end]), true
}
