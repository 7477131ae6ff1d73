package css_test

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"bidic/css"
)

// allRules collects all top-level rules from a stylesheet's Items.
// It does NOT flatten @media blocks - use this only for tests that
// care about plain top-level rules.
func allRules(sheet *css.Stylesheet) []css.Rule {
	var rules []css.Rule
	for _, item := range sheet.Items {
		if item.Rule != nil {
			rules = append(rules, *item.Rule)
		}
	}
	return rules
}

func TestParser_ElementSelector(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	sheet := p.Parse([]byte(`p { margin: 1em 0; text-indent: 1.5em; }`))

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Selector != "p" {
		t.Errorf("selector = %q, want %q", rules[0].Selector, "p")
	}

	if v, ok := rules[0].GetProperty("text-indent"); !ok {
		t.Error("expected text-indent property")
	} else {
		if v.Value != 1.5 || v.Unit != "em" {
			t.Errorf("text-indent = %v%s, want 1.5em", v.Value, v.Unit)
		}
		if !v.IsNumeric() {
			t.Error("text-indent should be numeric")
		}
	}
}

func TestParser_ClassSelector(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	sheet := p.Parse([]byte(`.media { float: left; padding-right: 10px; }`))

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Selector != ".media" {
		t.Errorf("selector = %q, want %q", rules[0].Selector, ".media")
	}

	if v, ok := rules[0].GetProperty("float"); !ok {
		t.Error("expected float property")
	} else {
		if v.Keyword != "left" {
			t.Errorf("float keyword = %q, want %q", v.Keyword, "left")
		}
		if !v.IsKeyword() {
			t.Error("float should be a keyword value")
		}
	}

	if v, ok := rules[0].GetProperty("padding-right"); !ok {
		t.Error("expected padding-right property")
	} else if v.Value != 10 || v.Unit != "px" {
		t.Errorf("padding-right = %v%s, want 10px", v.Value, v.Unit)
	}
}

func TestParser_GroupedSelectors(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	sheet := p.Parse([]byte(`h1, h2 { text-align: right; }`))

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Selector != "h1, h2" {
		t.Errorf("selector = %q, want %q", rules[0].Selector, "h1, h2")
	}
	if v, ok := rules[0].GetProperty("text-align"); !ok || v.Keyword != "right" {
		t.Errorf("text-align = %+v, want keyword %q", v, "right")
	}
}

func TestParser_DescendantSelector(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	sheet := p.Parse([]byte(`.media .img { margin-right: 10px; }`))

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Selector != ".media .img" {
		t.Errorf("selector = %q, want %q", rules[0].Selector, ".media .img")
	}
}

func TestParser_PropertyValues(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	sheet := p.Parse([]byte(`.v {
  width: 50%;
  line-height: 1.2;
  color: #ff0000;
  content: "→";
  background: rgb(1, 2, 3);
  margin: 1em 0;
}`))

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	props := rules[0].Properties

	if v := props["width"]; v.Value != 50 || v.Unit != "%" {
		t.Errorf("width = %v%s, want 50%%", v.Value, v.Unit)
	}
	if v := props["line-height"]; v.Value != 1.2 || v.Unit != "" {
		t.Errorf("line-height = %v%s, want 1.2", v.Value, v.Unit)
	}
	if v := props["color"]; v.Keyword != "#ff0000" {
		t.Errorf("color = %q, want #ff0000", v.Keyword)
	}
	if v := props["content"]; v.Keyword != "→" {
		t.Errorf("content = %q, want →", v.Keyword)
	}
	if v := props["background"]; !strings.HasPrefix(v.Keyword, "rgb(") {
		t.Errorf("background = %q, want rgb(...)", v.Keyword)
	}
	if v := props["margin"]; v.Raw != "1em 0" {
		t.Errorf("margin raw = %q, want %q", v.Raw, "1em 0")
	}
}

func TestParser_MediaBlockPreserved(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	sheet := p.Parse([]byte(`.top { float: right; }
@media print {
  .media { float: left; }
  .img { margin-left: 5px; }
}`))

	var mb *css.MediaBlock
	for _, item := range sheet.Items {
		if item.MediaBlock != nil {
			mb = item.MediaBlock
		}
	}
	if mb == nil {
		t.Fatal("expected a media block")
	}
	if mb.Query != "print" {
		t.Errorf("query = %q, want %q", mb.Query, "print")
	}
	if len(mb.Rules) != 2 {
		t.Fatalf("expected 2 nested rules, got %d", len(mb.Rules))
	}
	if mb.Rules[0].Selector != ".media" {
		t.Errorf("nested selector = %q, want %q", mb.Rules[0].Selector, ".media")
	}

	// Rules() flattens nested rules in source order.
	flat := sheet.Rules()
	if len(flat) != 3 {
		t.Fatalf("expected 3 flattened rules, got %d", len(flat))
	}
	if flat[0].Selector != ".top" || flat[2].Selector != ".img" {
		t.Errorf("flattened order = [%s %s %s]", flat[0].Selector, flat[1].Selector, flat[2].Selector)
	}
}

func TestParser_Imports(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	sheet := p.Parse([]byte(`@import "base.css";
@import url(extra.css);
@import url("quoted.css");
p { margin: 0; }`))

	imports := sheet.Imports()
	want := []string{"base.css", "extra.css", "quoted.css"}
	if len(imports) != len(want) {
		t.Fatalf("expected %d imports, got %d: %v", len(want), len(imports), imports)
	}
	for i := range want {
		if imports[i] != want[i] {
			t.Errorf("imports[%d] = %q, want %q", i, imports[i], want[i])
		}
	}

	for _, ref := range sheet.URLs {
		if ref.Property != "@import" {
			t.Errorf("import URL property = %q, want %q", ref.Property, "@import")
		}
	}
}

func TestParser_FontFace(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	sheet := p.Parse([]byte(`@font-face {
  font-family: "Noto Naskh";
  src: url("fonts/noto-naskh.woff2");
  font-style: normal;
  font-weight: 400;
}`))

	faces := sheet.FontFaces()
	if len(faces) != 1 {
		t.Fatalf("expected 1 font-face, got %d", len(faces))
	}
	ff := faces[0]
	if ff.Family != "Noto Naskh" {
		t.Errorf("family = %q, want %q", ff.Family, "Noto Naskh")
	}
	if !strings.Contains(ff.Src, "noto-naskh.woff2") {
		t.Errorf("src = %q, want woff2 reference", ff.Src)
	}
	if ff.Style != "normal" || ff.Weight != "400" {
		t.Errorf("style/weight = %q/%q, want normal/400", ff.Style, ff.Weight)
	}

	urls := sheet.URLList()
	if len(urls) != 1 || urls[0] != "fonts/noto-naskh.woff2" {
		t.Errorf("urls = %v, want [fonts/noto-naskh.woff2]", urls)
	}
	if sheet.URLs[0].Property != "src" {
		t.Errorf("URL property = %q, want %q", sheet.URLs[0].Property, "src")
	}
}

func TestParser_URLDocumentOrder(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	sheet := p.Parse([]byte(`@import "base.css";
.button { background-image: url("images/arrow-left.png"); }
.logo { background: url(images/logo.png) no-repeat; }
@media print {
  .button { background-image: url('images/arrow-left-print.png'); }
}`))

	want := []string{
		"base.css",
		"images/arrow-left.png",
		"images/logo.png",
		"images/arrow-left-print.png",
	}
	urls := sheet.URLList()
	if len(urls) != len(want) {
		t.Fatalf("expected %d urls, got %d: %v", len(want), len(urls), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}

	if sheet.URLs[1].Property != "background-image" {
		t.Errorf("property = %q, want %q", sheet.URLs[1].Property, "background-image")
	}
}

func TestParser_SkipsUnknownAtRules(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	sheet := p.Parse([]byte(`@charset "utf-8";
@supports (display: grid) {
  .grid { display: grid; }
}
p { margin: 0; }`))

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule after skipped @-rules, got %d", len(rules))
	}
	if rules[0].Selector != "p" {
		t.Errorf("selector = %q, want %q", rules[0].Selector, "p")
	}
}

func TestParser_EmptyDeclarationWarning(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	sheet := p.Parse([]byte(`.bad { color: ; margin: 1em; }`))

	found := false
	for _, w := range sheet.Warnings {
		if strings.Contains(w, "empty declaration") && strings.Contains(w, "color") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected empty declaration warning, got %v", sheet.Warnings)
	}

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if _, ok := rules[0].GetProperty("color"); ok {
		t.Error("empty color declaration should have been dropped")
	}
	if _, ok := rules[0].GetProperty("margin"); !ok {
		t.Error("margin declaration should have survived")
	}
}

func TestParser_CustomPropertiesIgnored(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	sheet := p.Parse([]byte(`.themed { --accent: #123456; color: red; }`))

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if _, ok := rules[0].GetProperty("--accent"); ok {
		t.Error("custom property should not be collected")
	}
	if v, ok := rules[0].GetProperty("color"); !ok || v.Keyword != "red" {
		t.Errorf("color = %+v, want keyword red", v)
	}
}

func TestParser_RulesBySelector(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	sheet := p.Parse([]byte(`p { margin: 0; }
.note { color: gray; }
p { text-indent: 1em; }`))

	pRules := sheet.RulesBySelector("p")
	if len(pRules) != 2 {
		t.Fatalf("expected 2 'p' rules, got %d", len(pRules))
	}
	if len(sheet.RulesBySelector(".missing")) != 0 {
		t.Error("expected no rules for unknown selector")
	}
}

func TestParser_GeneratedStylesheet(t *testing.T) {
	log := zap.NewNop()
	p := css.NewParser(log)

	// Shape of a typical generation result: direction keywords resolved,
	// asset references pointing at one side.
	sheet := p.Parse([]byte(`body { direction: rtl; unicode-bidi: embed; }

.media { float: right; padding-left: 10px; }

.button {
  background-image: url("images/arrow-right.png");
  text-align: right;
}`), "rtl-stylesheet.css")

	if len(sheet.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", sheet.Warnings)
	}

	rules := allRules(sheet)
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}

	if v, ok := rules[1].GetProperty("float"); !ok || v.Keyword != "right" {
		t.Errorf("float = %+v, want keyword right", v)
	}

	urls := sheet.URLList()
	if len(urls) != 1 || urls[0] != "images/arrow-right.png" {
		t.Errorf("urls = %v, want [images/arrow-right.png]", urls)
	}
}

func TestParser_NilLogger(t *testing.T) {
	p := css.NewParser(nil)
	sheet := p.Parse([]byte(`p { margin: 0; }`))
	if len(allRules(sheet)) != 1 {
		t.Error("parser with nil logger should still parse")
	}
}
