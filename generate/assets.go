package generate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"bidic/common"
	"bidic/css"
	"bidic/state"
	"bidic/utils/images"
)

// processAssets copies local files referenced from generated stylesheets next
// to the outputs and, when enabled, synthesizes missing directional
// counterparts by horizontal mirroring.
//
// The two generated outputs differ only where tokens were substituted, so
// their url() reference lists are positionally aligned: the i-th reference of
// one direction and the i-th reference of the other describe the same asset.
// A position where the two paths differ is a directional pair.
func processAssets(ctx context.Context, outputs map[common.Direction][]byte, outNames map[common.Direction]string, srcDir string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)
	parser := css.NewParser(log)

	refs := make(map[common.Direction][]string, len(outputs))
	for d, data := range outputs {
		refs[d] = parser.Parse(data, outNames[d]).URLList()
	}

	copied := make(map[string]bool)
	for d, list := range refs {
		for _, ref := range list {
			if !isLocalAssetRef(ref) {
				continue
			}
			dst := filepath.Join(filepath.Dir(outNames[d]), filepath.FromSlash(ref))
			if copied[dst] {
				continue
			}
			src := filepath.Join(srcDir, filepath.FromSlash(ref))
			if _, err := os.Stat(src); err != nil {
				// possibly the missing side of a directional pair, mirroring
				// pass below gets a chance at it
				continue
			}
			if err := copyAsset(src, dst, env.Overwrite); err != nil {
				log.Warn("Unable to copy asset", zap.String("asset", ref), zap.Error(err))
				rerr = multierr.Append(rerr, err)
				continue
			}
			copied[dst] = true
			log.Debug("Asset copied", zap.String("from", src), zap.String("to", dst))
		}
	}

	if !env.Cfg.Assets.Mirror {
		return
	}

	ltr, rtl := refs[common.DirectionLtr], refs[common.DirectionRtl]
	if len(ltr) == 0 || len(ltr) != len(rtl) {
		// single direction run or outputs out of step, nothing to pair
		return
	}

	for i := range ltr {
		if ltr[i] == rtl[i] || !isLocalAssetRef(ltr[i]) || !isLocalAssetRef(rtl[i]) {
			continue
		}
		if err := mirrorMissingSide(ctx, ltr[i], rtl[i], outNames, srcDir, log); err != nil {
			log.Warn("Unable to mirror asset",
				zap.String("ltr", ltr[i]), zap.String("rtl", rtl[i]), zap.Error(err))
			rerr = multierr.Append(rerr, err)
		}
	}
	return
}

// mirrorMissingSide synthesizes the absent half of a directional pair from
// the present one. When both or neither side exists there is nothing to do.
func mirrorMissingSide(ctx context.Context, ltrRef, rtlRef string, outNames map[common.Direction]string, srcDir string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	ltrSrc := filepath.Join(srcDir, filepath.FromSlash(ltrRef))
	rtlSrc := filepath.Join(srcDir, filepath.FromSlash(rtlRef))

	_, ltrErr := os.Stat(ltrSrc)
	_, rtlErr := os.Stat(rtlSrc)

	var from, toRef string
	var toDir common.Direction
	switch {
	case ltrErr == nil && rtlErr != nil:
		from, toRef, toDir = ltrSrc, rtlRef, common.DirectionRtl
	case rtlErr == nil && ltrErr != nil:
		from, toRef, toDir = rtlSrc, ltrRef, common.DirectionLtr
	default:
		return nil
	}

	dst := filepath.Join(filepath.Dir(outNames[toDir]), filepath.FromSlash(toRef))
	if _, err := os.Stat(dst); err == nil && !env.Overwrite {
		return nil
	}

	data, err := os.ReadFile(from)
	if err != nil {
		return fmt.Errorf("unable to read asset: %w", err)
	}

	mirrored, err := mirrorAsset(data, from, env)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create asset directory: %w", err)
	}
	if err := os.WriteFile(dst, mirrored, 0644); err != nil {
		return fmt.Errorf("unable to write asset: %w", err)
	}
	log.Info("Directional asset synthesized", zap.String("from", from), zap.String("to", dst))
	return nil
}

// mirrorAsset flips asset content horizontally. Raster formats are handled
// by the imaging pipeline, SVG either gets a mirroring transform or is
// rasterized to PNG depending on configuration. Type is decided by content,
// not extension.
func mirrorAsset(data []byte, name string, env *state.LocalEnv) ([]byte, error) {
	switch {
	case filetype.IsType(data, matchers.TypeJpeg),
		filetype.IsType(data, matchers.TypePng),
		filetype.IsType(data, matchers.TypeGif),
		filetype.IsType(data, matchers.TypeWebp):
		return images.MirrorImage(data, env.Cfg.Assets.JPEGQuality)
	case isSVG(data, name):
		mode, err := common.ParseSVGMirrorMode(env.Cfg.Assets.SVGMode)
		if err != nil {
			// configuration is validated on load
			panic(err)
		}
		if mode == common.SVGMirrorModeRasterize {
			// counterpart keeps the referenced .svg name, so the raster goes
			// into an svg envelope
			if strings.EqualFold(filepath.Ext(name), ".svg") {
				return images.MirrorSVGToEmbedded(data, env.Cfg.Assets.RasterSize)
			}
			return images.MirrorSVGToPNG(data, env.Cfg.Assets.RasterSize)
		}
		return images.MirrorSVG(data)
	}
	return nil, fmt.Errorf("unsupported asset type (%s)", filepath.Base(name))
}

// isSVG sniffs for an svg root element, falling back to the file extension
// for documents hidden behind long prologs.
func isSVG(data []byte, name string) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if strings.Contains(string(head), "<svg") {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), ".svg")
}

// isLocalAssetRef reports whether a url() reference points at a file we can
// expect to find next to the source.
func isLocalAssetRef(ref string) bool {
	if len(ref) == 0 {
		return false
	}
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "data:"),
		strings.HasPrefix(lower, "http:"),
		strings.HasPrefix(lower, "https:"),
		strings.HasPrefix(lower, "//"),
		strings.HasPrefix(ref, "#"):
		return false
	}
	if filepath.IsAbs(ref) || strings.HasPrefix(ref, "/") {
		return false
	}
	// path escaping the source root is not ours to touch
	return !strings.Contains(filepath.ToSlash(ref), "../")
}

// copyAsset copies one referenced file preserving its subpath.
func copyAsset(src, dst string, overwrite bool) error {
	if _, err := os.Stat(dst); err == nil && !overwrite {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create asset directory: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open asset: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("unable to create asset: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("unable to copy asset: %w", err)
	}
	return nil
}
