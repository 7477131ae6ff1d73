package bidi

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/multierr"

	"bidic/common"
)

// ErrUnknownToken reports a token reference whose name is outside the
// recognized set. Expansion fails hard instead of passing the reference
// through, a shipped stylesheet must never contain an unresolved placeholder.
var ErrUnknownToken = errors.New("not a recognized directional token")

// Expand rewrites every directional token reference in source using the
// bindings of the given profile and returns the result together with the
// number of substitutions made.
//
// Two lexical forms are token references: the interpolation form #{$name},
// recognized anywhere, and the bare form $name, recognized wherever '$' is
// followed by an identifier. Everything else, including '$' and "#{" that do
// not open a reference, passes through byte for byte. Expansion is a pure
// function of its inputs: the same source and profile always produce
// identical output.
func Expand(source []byte, p Profile) ([]byte, int, error) {
	var (
		out   bytes.Buffer
		count int
		line  = 1
		col   = 1
	)
	out.Grow(len(source))

	for i := 0; i < len(source); {
		switch c := source[i]; {
		case c == '$':
			name, width := scanIdent(source[i+1:])
			if width == 0 {
				// lone dollar is ordinary text
				out.WriteByte(c)
				i++
				col++
				continue
			}
			val, ok := p.Lookup(name)
			if !ok {
				return nil, 0, fmt.Errorf("$%s at %d:%d is %w", name, line, col, ErrUnknownToken)
			}
			out.WriteString(val)
			count++
			i += 1 + width
			col += 1 + width

		case c == '#' && i+2 < len(source) && source[i+1] == '{' && source[i+2] == '$':
			name, width := scanIdent(source[i+3:])
			if width == 0 || i+3+width >= len(source) || source[i+3+width] != '}' {
				// not an interpolation, '#' is ordinary text and the rest is
				// rescanned (an inner $name still resolves on its own)
				out.WriteByte(c)
				i++
				col++
				continue
			}
			val, ok := p.Lookup(name)
			if !ok {
				return nil, 0, fmt.Errorf("#{$%s} at %d:%d is %w", name, line, col, ErrUnknownToken)
			}
			out.WriteString(val)
			count++
			i += 3 + width + 1
			col += 3 + width + 1

		case c == '\n':
			out.WriteByte(c)
			i++
			line++
			col = 1

		default:
			_, w := utf8.DecodeRune(source[i:])
			out.Write(source[i : i+w])
			i += w
			col++
		}
	}
	return out.Bytes(), count, nil
}

// ExpandAll expands source once per direction and returns the outputs keyed
// by direction.
//
// Directions are processed independently: a failure in one does not suppress
// the other, and every failure is returned with its direction prefixed. The
// two outputs differ exactly at substitution sites whose bindings differ
// between directions, all other text is identical.
func ExpandAll(source []byte) (map[common.Direction][]byte, error) {
	var errs error

	out := make(map[common.Direction][]byte, 2)
	for _, d := range []common.Direction{common.DirectionLtr, common.DirectionRtl} {
		p, err := ResolveProfile(d)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", d, err))
			continue
		}
		res, _, err := Expand(source, p)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", d, err))
			continue
		}
		out[d] = res
	}
	return out, errs
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9' || c == '-'
}

// scanIdent returns the identifier at the start of s and its width in bytes,
// or a zero width when s does not start with one.
func scanIdent(s []byte) (string, int) {
	if len(s) == 0 || !isIdentStart(s[0]) {
		return "", 0
	}
	n := 1
	for n < len(s) && isIdentPart(s[n]) {
		n++
	}
	return string(s[:n]), n
}
