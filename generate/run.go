// Package generate implements the stylesheet generation pipeline: source
// intake (file, directory tree or zip archive), per-direction token
// expansion, output naming and writing, optional verification of produced
// CSS and optional processing of referenced directional assets.
package generate

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"bidic/archive"
	"bidic/bidi"
	"bidic/cache"
	"bidic/common"
	"bidic/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("generate")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Directions, err = common.NormalizeDirections(cmd.StringSlice("direction"))
	if err != nil {
		return err
	}
	if len(env.Directions) == 0 {
		// configuration is validated on load, entries are known good
		for _, s := range env.Cfg.Generator.Directions {
			d, _ := common.ParseDirection(s)
			env.Directions = append(env.Directions, d)
		}
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite") || env.Cfg.Generator.Overwrite
	env.Force, env.ProcessAssets = cmd.Bool("force"), cmd.Bool("assets") || env.Cfg.Assets.Process

	// Sources may come from editors saving in a legacy code page, expansion
	// always works on UTF-8
	cp := cmd.String("source-encoding")
	if len(cp) == 0 {
		cp = env.Cfg.Generator.SourceEncoding
	}
	if len(cp) > 0 {
		env.SrcEncoding, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.SrcEncoding = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.SrcEncoding)
			log.Debug("Forcefully decoding all sources", zap.String("charset", n))
		}
	}

	if env.Cfg.Cache.Enable {
		path := env.Cfg.Cache.Path
		if len(path) == 0 {
			path = filepath.Join(dst, ".bidic.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
			// open failure disables caching, generation still works
			env.Cache, _ = cache.Open(path, log)
		}
		if env.Cache != nil {
			defer env.Cache.Close()
		}
	}

	log.Info("Processing starting",
		zap.String("source", src), zap.String("destination", dst), zap.Stringers("directions", env.Directions))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process handles the core generation logic independently of CLI framework.
// It determines the input type (directory, archive, or single file) and
// processes accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return errors.New("unable to process directory")
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		zipped, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if zipped {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, tail, "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		if isStylesheetFile(head) && len(tail) == 0 {
			// we have stylesheet source, it cannot have tail
			data, err := readSource(head, ctx)
			if err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			} else if err := processSource(ctx, data, filepath.Base(head), filepath.Dir(head), dst, log); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			}
			break
		}
		return fmt.Errorf("input was not recognized as stylesheet source (%s)", head)

	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding stylesheet sources and processes
// them. Per-file failures are logged and never stop the walk.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		zipped, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if zipped {
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		if !isStylesheetFile(path) {
			log.Debug("Skipping file, not recognized as stylesheet source or archive", zap.String("file", path))
			return nil
		}

		count++

		data, err := readSource(path, ctx)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			return nil
		}

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processSource(ctx, data, src, filepath.Dir(path), dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processArchive walks all files inside archive, finds stylesheet sources
// under "pathIn" and processes them. Assets referenced from archived sources
// cannot be located on disk, so the asset pipeline is skipped for them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	err = archive.WalkExt(path, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := f.FileHeader.Name
		if len(pathIn) > 0 && !strings.HasPrefix(name, pathIn) {
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", name), zap.Error(err))
			return nil
		}
		defer r.Close()

		raw, err := io.ReadAll(r)
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", name), zap.Error(err))
			return nil
		}
		data, err := decodeSource(raw, ctx)
		if err != nil {
			log.Error("Unable to decode file in archive",
				zap.String("archive", arc), zap.String("file", name), zap.Error(err))
			return nil
		}

		if err := processSource(ctx, data, filepath.Join(pathOut, filepath.FromSlash(name)), "", dst, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", name), zap.Error(err))
		}
		return nil
	}, ".css", ".scss")
	return err
}

// processSource generates every requested direction from a single decoded
// source. "src" is the source path relative to the original input (always
// including base file name), "srcDir" is the on-disk directory of the source
// when it came from the file system (empty for archive members), "dst" is
// the destination directory.
//
// Directions are independent: a failed direction is reported and does not
// suppress the others, per-direction errors are combined into one result.
func processSource(ctx context.Context, data []byte, src, srcDir, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	log.Info("Generation starting", zap.String("from", src))
	defer func(start time.Time) {
		// NOTE: when multiple sources are being processed we do not want a
		// single bad one to stop the batch.
		if r := recover(); r != nil {
			log.Error("Generation ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("generation panic: %v", r)
		} else {
			log.Info("Generation completed", zap.Duration("elapsed", time.Since(start)))
		}
	}(time.Now())

	outputs := make(map[common.Direction][]byte, len(env.Directions))
	outNames := make(map[common.Direction]string, len(env.Directions))

	for _, d := range env.Directions {
		out, name, err := generateDirection(ctx, data, src, dst, d, log)
		if err != nil {
			log.Error("Unable to generate stylesheet", zap.Stringer("direction", d), zap.Error(err))
			rerr = multierr.Append(rerr, fmt.Errorf("%s: %w", d, err))
			continue
		}
		if len(name) > 0 {
			outputs[d], outNames[d] = out, name
		}
	}

	if env.ProcessAssets && len(srcDir) > 0 && len(outputs) > 0 {
		if err := processAssets(ctx, outputs, outNames, srcDir, log); err != nil {
			log.Warn("Asset processing problems", zap.Error(err))
		}
	}
	return
}

// generateDirection produces a single direction-concrete stylesheet. It
// returns the output bytes and the path they were written to. An empty path
// with nil error means the output was skipped (already exists and overwrite
// is off).
func generateDirection(ctx context.Context, data []byte, src, dst string, d common.Direction, log *zap.Logger) (out []byte, outputName string, err error) {
	env := state.EnvFromContext(ctx)

	profile, err := bidi.ResolveProfile(d)
	if err != nil {
		return nil, "", err
	}

	outputName = buildOutputPath(src, d, dst, env)

	srcHash := cache.Sum(data)
	if env.Cache != nil && !env.Force {
		if e, ok := env.Cache.Lookup(cacheKey(src), d); ok && upToDate(e, srcHash, profile, outputName, env) {
			log.Info("Output is up to date", zap.Stringer("direction", d), zap.String("file", outputName))
			out, err = os.ReadFile(outputName)
			return out, outputName, err
		}
	}

	out, count, err := bidi.Expand(data, profile)
	if err != nil {
		return nil, "", err
	}

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			log.Warn("Output file already exists, skipping", zap.String("file", outputName))
			return nil, "", nil
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return nil, "", err
		}
	} else if !os.IsNotExist(err) {
		return nil, "", err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return nil, "", fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(outputName, out, 0644); err != nil {
		return nil, "", fmt.Errorf("unable to write output: %w", err)
	}
	log.Info("Stylesheet generated",
		zap.Stringer("direction", d), zap.String("to", outputName), zap.Int("substitutions", count))

	if env.Cfg.Generator.VerifyOutput {
		verifyOutput(out, outputName, log)
	}

	if env.Cache != nil {
		if err := env.Cache.Store(cache.Entry{
			Source:       cacheKey(src),
			Direction:    d,
			SourceHash:   srcHash,
			Profile:      profileFingerprint(profile),
			NameTemplate: env.Cfg.Generator.OutputNameTemplate,
			Output:       outputName,
			OutputHash:   cache.Sum(out),
			RunID:        env.RunID,
			UpdatedAt:    time.Now(),
		}); err != nil {
			log.Warn("Unable to record generation result", zap.Error(err))
		}
	}

	// Store generation result for debugging
	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("result/%s-%s", d, filepath.Base(outputName)), out)
	}
	return out, outputName, nil
}

// upToDate reports whether a recorded generation still matches current
// source, profile and naming and its output file is intact on disk.
func upToDate(e *cache.Entry, srcHash string, p bidi.Profile, outputName string, env *state.LocalEnv) bool {
	if e.SourceHash != srcHash || e.Profile != profileFingerprint(p) {
		return false
	}
	if e.NameTemplate != env.Cfg.Generator.OutputNameTemplate || e.Output != outputName {
		return false
	}
	data, err := os.ReadFile(outputName)
	if err != nil {
		return false
	}
	return cache.Sum(data) == e.OutputHash
}

// profileFingerprint derives a stable identity for the binding set so cached
// outputs are invalidated if bindings ever change.
func profileFingerprint(p bidi.Profile) string {
	return cache.Sum([]byte(strings.Join([]string{
		p.DefaultFloat, p.OppositeFloat, p.DefaultDirection, p.OppositeDirection,
	}, "|")))
}

// cacheKey normalizes the relative source path so records are shared between
// platforms and invocations.
func cacheKey(src string) string {
	return filepath.ToSlash(src)
}
