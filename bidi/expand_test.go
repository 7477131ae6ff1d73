package bidi_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"bidic/bidi"
	"bidic/common"
)

func TestExpand_FloatAndPadding(t *testing.T) {
	source := ".media { float: $default-float; padding-#{$opposite-float}: 10px; }"

	tests := []struct {
		direction common.Direction
		want      string
	}{
		{common.DirectionLtr, ".media { float: left; padding-right: 10px; }"},
		{common.DirectionRtl, ".media { float: right; padding-left: 10px; }"},
	}

	for _, tt := range tests {
		t.Run(tt.direction.String(), func(t *testing.T) {
			p := bidi.MustResolveProfile(tt.direction)
			got, count, err := bidi.Expand([]byte(source), p)
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Expand() = %q, want %q", got, tt.want)
			}
			if count != 2 {
				t.Errorf("Expand() count = %d, want 2", count)
			}
		})
	}
}

func TestExpand_URLPathFragment(t *testing.T) {
	source := `.button { background-image: url("images/arrow-#{$default-float}.png"); }`

	tests := []struct {
		direction common.Direction
		want      string
	}{
		{common.DirectionLtr, `.button { background-image: url("images/arrow-left.png"); }`},
		{common.DirectionRtl, `.button { background-image: url("images/arrow-right.png"); }`},
	}

	for _, tt := range tests {
		t.Run(tt.direction.String(), func(t *testing.T) {
			p := bidi.MustResolveProfile(tt.direction)
			got, _, err := bidi.Expand([]byte(source), p)
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Expand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpand_DirectionTokens(t *testing.T) {
	source := "html { direction: $default-direction; } .flip { direction: $opposite-direction; }"

	tests := []struct {
		direction common.Direction
		want      string
	}{
		{common.DirectionLtr, "html { direction: ltr; } .flip { direction: rtl; }"},
		{common.DirectionRtl, "html { direction: rtl; } .flip { direction: ltr; }"},
	}

	for _, tt := range tests {
		t.Run(tt.direction.String(), func(t *testing.T) {
			p := bidi.MustResolveProfile(tt.direction)
			got, count, err := bidi.Expand([]byte(source), p)
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Expand() = %q, want %q", got, tt.want)
			}
			if count != 2 {
				t.Errorf("Expand() count = %d, want 2", count)
			}
		})
	}
}

func TestExpand_UnknownToken(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		position string
	}{
		{"bare", ".x {\n  float: $no-such;\n}", "$no-such at 2:10 is"},
		{"interpolated", "a { color: red; }\n#{$bogus}: 1;", "#{$bogus} at 2:1 is"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, d := range []common.Direction{common.DirectionLtr, common.DirectionRtl} {
				p := bidi.MustResolveProfile(d)
				_, _, err := bidi.Expand([]byte(tt.source), p)
				if err == nil {
					t.Fatalf("Expand(%v) expected error, got nil", d)
				}
				if !errors.Is(err, bidi.ErrUnknownToken) {
					t.Errorf("error = %v, want ErrUnknownToken in chain", err)
				}
				if !strings.Contains(err.Error(), tt.position) {
					t.Errorf("error = %q, want position %q", err.Error(), tt.position)
				}
			}
		})
	}
}

func TestExpand_Passthrough(t *testing.T) {
	sources := []string{
		"",
		".a { color: #fff; width: 100%; }",
		`.price:before { content: "$3"; }`,
		".b { background: url(img/logo.png); } /* $ alone and # { braces } */",
		"#main { margin: 0; } #{not-a-token}",
		"#{}",
		"@media (min-width: 768px) { .c { display: none; } }",
	}

	for _, source := range sources {
		for _, d := range []common.Direction{common.DirectionLtr, common.DirectionRtl} {
			p := bidi.MustResolveProfile(d)
			got, count, err := bidi.Expand([]byte(source), p)
			if err != nil {
				t.Fatalf("Expand(%q, %v) error = %v", source, d, err)
			}
			if !bytes.Equal(got, []byte(source)) {
				t.Errorf("Expand(%q, %v) = %q, want source unchanged", source, d, got)
			}
			if count != 0 {
				t.Errorf("Expand(%q, %v) count = %d, want 0", source, d, count)
			}
		}
	}
}

func TestExpand_UnderscoreEndsName(t *testing.T) {
	// Token names are letters, digits and '-' only: an underscore terminates
	// the name and the rest passes through as ordinary text.
	p := bidi.MustResolveProfile(common.DirectionLtr)

	got, count, err := bidi.Expand([]byte(".a { background: url(arrow-$default-float_2x.png); }"), p)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if want := ".a { background: url(arrow-left_2x.png); }"; string(got) != want {
		t.Errorf("Expand() = %q, want %q", got, want)
	}
	if count != 1 {
		t.Errorf("Expand() count = %d, want 1", count)
	}
}

func TestExpand_UnclosedInterpolation(t *testing.T) {
	// Without the closing brace the '#' and '{' pass through verbatim and
	// the name is picked up as a bare token.
	p := bidi.MustResolveProfile(common.DirectionLtr)

	got, count, err := bidi.Expand([]byte(".a { padding-#{$default-float: 1px; }"), p)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if want := ".a { padding-#{left: 1px; }"; string(got) != want {
		t.Errorf("Expand() = %q, want %q", got, want)
	}
	if count != 1 {
		t.Errorf("Expand() count = %d, want 1", count)
	}

	_, _, err = bidi.Expand([]byte(".a { padding-#{$oops: 1px; }"), p)
	if !errors.Is(err, bidi.ErrUnknownToken) {
		t.Errorf("unknown name in unclosed interpolation: error = %v, want ErrUnknownToken", err)
	}
}

func TestExpand_Idempotence(t *testing.T) {
	source := []byte(`.media { float: $default-float; }
.media .img { margin-#{$opposite-float}: 10px; }
.button { background: url("images/arrow-#{$default-float}.png"); text-align: $default-direction; }`)

	for _, d := range []common.Direction{common.DirectionLtr, common.DirectionRtl} {
		p := bidi.MustResolveProfile(d)

		first, _, err := bidi.Expand(source, p)
		if err != nil {
			t.Fatalf("first Expand(%v) error = %v", d, err)
		}
		second, count, err := bidi.Expand(first, p)
		if err != nil {
			t.Fatalf("second Expand(%v) error = %v", d, err)
		}
		if !bytes.Equal(first, second) {
			t.Errorf("Expand(%v) is not idempotent: %q then %q", d, first, second)
		}
		if count != 0 {
			t.Errorf("second Expand(%v) count = %d, want 0", d, count)
		}
	}
}

func TestExpand_Deterministic(t *testing.T) {
	source := []byte(".a { float: $default-float; margin-#{$opposite-float}: 0; }")
	p := bidi.MustResolveProfile(common.DirectionRtl)

	first, _, err := bidi.Expand(source, p)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		got, _, err := bidi.Expand(source, p)
		if err != nil {
			t.Fatalf("Expand() error = %v", err)
		}
		if !bytes.Equal(first, got) {
			t.Fatalf("Expand() run %d differs: %q vs %q", i, got, first)
		}
	}
}

func TestExpand_MultibyteContent(t *testing.T) {
	source := "/* الاتجاه */ .a { float: $default-float; content: \"→\"; }"
	p := bidi.MustResolveProfile(common.DirectionRtl)

	got, count, err := bidi.Expand([]byte(source), p)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	want := "/* الاتجاه */ .a { float: right; content: \"→\"; }"
	if string(got) != want {
		t.Errorf("Expand() = %q, want %q", got, want)
	}
	if count != 1 {
		t.Errorf("Expand() count = %d, want 1", count)
	}
}

func TestExpandAll(t *testing.T) {
	source := []byte(".media { float: $default-float; padding-#{$opposite-float}: 10px; }")

	out, err := bidi.ExpandAll(source)
	if err != nil {
		t.Fatalf("ExpandAll() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("ExpandAll() produced %d results, want 2", len(out))
	}
	if want := ".media { float: left; padding-right: 10px; }"; string(out[common.DirectionLtr]) != want {
		t.Errorf("ltr = %q, want %q", out[common.DirectionLtr], want)
	}
	if want := ".media { float: right; padding-left: 10px; }"; string(out[common.DirectionRtl]) != want {
		t.Errorf("rtl = %q, want %q", out[common.DirectionRtl], want)
	}
}

func TestExpandAll_NoTokens(t *testing.T) {
	source := []byte(".plain { color: black; }")

	out, err := bidi.ExpandAll(source)
	if err != nil {
		t.Fatalf("ExpandAll() error = %v", err)
	}
	for d, got := range out {
		if !bytes.Equal(got, source) {
			t.Errorf("%v = %q, want source unchanged", d, got)
		}
	}
}

func TestExpandAll_UnknownTokenFailsBothDirections(t *testing.T) {
	source := []byte(".x { float: $flaot-default; }")

	out, err := bidi.ExpandAll(source)
	if err == nil {
		t.Fatal("ExpandAll() expected error, got nil")
	}
	if len(out) != 0 {
		t.Errorf("ExpandAll() produced %d results, want 0", len(out))
	}

	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("ExpandAll() reported %d errors, want one per direction: %v", len(errs), err)
	}
	for i, d := range []common.Direction{common.DirectionLtr, common.DirectionRtl} {
		if !errors.Is(errs[i], bidi.ErrUnknownToken) {
			t.Errorf("errors[%d] = %v, want ErrUnknownToken in chain", i, errs[i])
		}
		if !strings.HasPrefix(errs[i].Error(), d.String()+":") {
			t.Errorf("errors[%d] = %q, want %q prefix", i, errs[i].Error(), d.String()+":")
		}
	}
}
