package generate

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
)

func TestIsLocalAssetRef(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"images/arrow-left.png", true},
		{"arrow.svg", true},
		{"./images/arrow.png", true},
		{"", false},
		{"#gradient", false},
		{"data:image/png;base64,AAAA", false},
		{"http://example.com/a.png", false},
		{"https://example.com/a.png", false},
		{"//example.com/a.png", false},
		{"/var/www/a.png", false},
		{"../outside/a.png", false},
		{"images/../../outside/a.png", false},
	}
	for _, tc := range tests {
		if got := isLocalAssetRef(tc.ref); got != tc.want {
			t.Errorf("isLocalAssetRef(%q) = %v, want %v", tc.ref, got, tc.want)
		}
	}
}

const sampleSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10" viewBox="0 0 10 10">
  <rect x="0" y="0" width="5" height="10" fill="red"/>
</svg>`

func TestMirrorAsset_SVGTransform(t *testing.T) {
	_, env := setupTestEnv(t)
	env.Cfg.Assets.SVGMode = "transform"

	out, err := mirrorAsset([]byte(sampleSVG), "arrow-left.svg", env)
	if err != nil {
		t.Fatalf("mirrorAsset: %v", err)
	}
	if !strings.Contains(string(out), "<svg") {
		t.Errorf("transform mode must keep SVG document:\n%s", out)
	}
	if !strings.Contains(string(out), "transform") {
		t.Errorf("mirrored SVG carries no transform:\n%s", out)
	}
}

func TestMirrorAsset_SVGRasterize(t *testing.T) {
	_, env := setupTestEnv(t)
	env.Cfg.Assets.SVGMode = "rasterize"

	out, err := mirrorAsset([]byte(sampleSVG), "arrow-left.svg", env)
	if err != nil {
		t.Fatalf("mirrorAsset: %v", err)
	}
	// keeping the .svg name means the raster is wrapped in an svg envelope
	if !strings.Contains(string(out), "data:image/png;base64,") {
		t.Errorf("rasterized .svg counterpart must embed PNG payload:\n%.200s", out)
	}

	out, err = mirrorAsset([]byte(sampleSVG), "arrow-left.svgz.png", env)
	if err != nil {
		t.Fatalf("mirrorAsset: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Errorf("rasterize mode must produce PNG for non-svg names: %v", err)
	}
}

func TestMirrorAsset_UnsupportedType(t *testing.T) {
	_, env := setupTestEnv(t)

	if _, err := mirrorAsset([]byte("plain text, not an image"), "note.txt", env); err == nil {
		t.Error("mirrorAsset() expected error for unsupported content")
	}
}
