package common

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizeDirections normalizes and validates user supplied direction names,
// typically collected from a command line flag or a configuration list.
//
// Be forgiving about common separators and case: entries may be comma or
// whitespace separated, empty chunks are dropped and duplicates are collapsed
// preserving first-seen order. An empty result is valid and means the caller
// should use its default set.
func NormalizeDirections(in []string) ([]Direction, error) {
	var (
		out  []Direction
		seen [2]bool
	)
	for _, chunk := range in {
		fields := strings.FieldsFunc(chunk, func(r rune) bool {
			return r == ',' || r == ';' || unicode.IsSpace(r)
		})
		for _, s := range fields {
			d, err := ParseDirection(strings.ToLower(s))
			if err != nil {
				return nil, fmt.Errorf("unsupported direction %q: %w", s, err)
			}
			if seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
		}
	}
	return out, nil
}
