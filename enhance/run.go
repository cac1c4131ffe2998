package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	fixzip "github.com/hidez8891/zip"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"brandcss/archive"
	"brandcss/cache"
	"brandcss/common"
	"brandcss/config"
	"brandcss/state"
	"brandcss/tokens"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("enhance")

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
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	// Command line settings win over the configuration file.
	if cmd.IsSet("max-changes") {
		env.Cfg.Enhance.MaxChanges = int(cmd.Int("max-changes"))
	}
	if cmd.Bool("optimize") {
		env.Cfg.Enhance.Optimize.Enabled = true
	}
	if cmd.Bool("no-cache") {
		env.Cfg.Cache.Backend = config.CacheBackendOff.String()
	}
	if pack := cmd.String("pack"); len(pack) > 0 {
		env.Cfg.Tokens.Pack = pack
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("unable to generate run ID: %w", err)
	}
	log = log.With(zap.Stringer("run", runID))

	store, err := openStore(ctx, env, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn("Unable to close result cache", zap.Error(cerr))
		}
	}()

	pol := policyFromConfig(&env.Cfg.Enhance)
	r := &runner{
		env: env,
		eng: New(Options{
			Policy:   &pol,
			Optimize: env.Cfg.Enhance.Optimize.Enabled,
			Passes:   env.Cfg.Enhance.Optimize.Passes,
			Store:    store,
			Coalesce: env.Cfg.Cache.Coalesce,
		}, env.Log),
		log:   log,
		runID: runID.String(),
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return r.process(ctx, src, dst)
}

// openStore builds the configured result cache backend.
func openStore(ctx context.Context, env *state.LocalEnv, log *zap.Logger) (cache.Store, error) {
	switch env.Cfg.Cache.BackendKind() {
	case config.CacheBackendSqlite:
		dest := env.Cfg.Cache.Destination
		if len(dest) == 0 {
			return nil, errors.New("sqlite cache backend requires cache.destination to be configured")
		}
		s, err := cache.NewSQLite(ctx, dest, log)
		if err != nil {
			return nil, fmt.Errorf("unable to open result cache (%s): %w", dest, err)
		}
		return s, nil
	case config.CacheBackendOff:
		return &cache.Null{}, nil
	default:
		return cache.NewMemory(env.Cfg.Cache.MaxEntries, env.Cfg.Cache.TTL.Duration), nil
	}
}

// policyFromConfig maps the validated configuration onto the pipeline policy.
func policyFromConfig(c *config.EnhanceConfig) Policy {
	pol := DefaultPolicy()
	pol.MaxChanges = c.MaxChanges
	pol.Tolerance = c.Tolerance
	pol.AutoApply = c.AutoApplyMode()
	if len(c.Exclude) > 0 {
		pol.Exclude = c.Exclude
	}
	return pol
}

// runner carries state shared by the processing helpers for one invocation.
type runner struct {
	env   *state.LocalEnv
	eng   *Engine
	log   *zap.Logger
	runID string

	table *tokens.Table // nil when resolution degraded
	seq   int           // report entry counter
}

// process handles the core enhancement logic independently of CLI framework.
// It determines the input type (directory, archive, or single file) and
// processes accordingly.
func (r *runner) process(ctx context.Context, src, dst string) error {
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
			if err := r.resolveTable(ctx, head); err != nil {
				return err
			}
			if err := r.processDir(ctx, head, dst); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		arc, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := r.resolveTable(ctx, filepath.Dir(head)); err != nil {
				return err
			}
			if err := r.processArchive(ctx, head, tail, "", dst); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		kind, enc, err := isStyleFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if kind != styleNone && len(tail) == 0 {
			// we have a style source, it cannot have tail
			if err := r.resolveTable(ctx, filepath.Dir(head)); err != nil {
				return err
			}
			return r.processFile(ctx, head, filepath.Base(head), dst, enc)
		}
		return fmt.Errorf("input was not recognized as stylesheet, markup or archive (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// resolveTable loads the brand token table once per run, anchored at the
// directory processing starts from. In degrade mode a failed resolution
// leaves the table nil and every source passes through unenhanced.
func (r *runner) resolveTable(ctx context.Context, start string) error {
	cfg := r.env.Cfg

	rctx := ctx
	if d := cfg.Tokens.Timeout.Duration; d > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	resolver := tokens.NewFileResolver(cfg.Tokens.Pack, start, cfg.Enhance.RootFontSize, r.env.Log)
	resolver.Names = cfg.Tokens.Search

	table, err := resolver.Resolve(rctx)
	if err == nil {
		r.table = table
		return nil
	}
	if cerr := ctx.Err(); cerr != nil {
		// the run itself is going away, this is not a degradable condition
		return cerr
	}
	if cfg.Enhance.ResolveMode() == common.ResolveModeStrict {
		return fmt.Errorf("unable to resolve brand tokens: %w", err)
	}
	r.log.Warn("Brand tokens unresolved, processing in degraded mode", zap.Error(err))
	return nil
}

// processDir walks the directory tree collecting style files and archives,
// then processes them in natural order. A failing file does not abort the
// batch, its error only surfaces in the combined result.
func (r *runner) processDir(ctx context.Context, dir, dst string) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			r.log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	var paths []string
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			r.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if info.Mode().IsDir() {
			rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
			if len(rel) != 0 && r.eng.policy.Excluded(rel) {
				r.log.Debug("Pruning excluded directory", zap.String("path", path))
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return err
	}

	sort.Sort(natural.StringSlice(paths))

	var failures error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return multierr.Append(failures, err)
		}

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		arc, err := isArchiveFile(path)
		if err != nil {
			r.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if arc {
			count++
			if err := r.processArchive(ctx, path, "", filepath.Dir(src), dst); err != nil {
				r.log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
				failures = multierr.Append(failures, fmt.Errorf("%s: %w", src, err))
			}
			continue
		}

		kind, enc, err := isStyleFile(path)
		if err != nil {
			r.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if kind == styleNone {
			r.log.Debug("Skipping file, not recognized as stylesheet, markup or archive", zap.String("file", path))
			continue
		}
		if r.eng.policy.Excluded(src) {
			r.log.Debug("Skipping excluded file", zap.String("file", path))
			continue
		}

		count++

		if err := r.processFile(ctx, path, src, dst, enc); err != nil {
			r.log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			failures = multierr.Append(failures, fmt.Errorf("%s: %w", src, err))
		}
	}
	return failures
}

// processArchive rewrites a source archive into its destination counterpart.
// Entries under pathIn (all of them when empty) go through the pipeline,
// everything else keeps its raw bytes. pathOut positions the output archive
// relative to dst.
func (r *runner) processArchive(ctx context.Context, path, pathIn, pathOut, dst string) (rerr error) {
	log := r.log

	outputName := buildOutputPath(filepath.Join(pathOut, filepath.Base(path)), dst, r.runID, r.table, r.env)
	if err := prepareOutputFile(outputName, r.env, log); err != nil {
		return err
	}

	count := 0
	log.Info("Archive processing starting", zap.String("from", path), zap.String("to", outputName))
	defer func(start time.Time) {
		if rerr != nil {
			// do not leave half written output behind
			if err := os.Remove(outputName); err != nil && !os.IsNotExist(err) {
				log.Warn("Unable to remove incomplete output", zap.String("file", outputName), zap.Error(err))
			}
			return
		}
		log.Info("Archive processing completed",
			zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.Int("enhanced", count))
	}(time.Now())

	err := archive.Rewrite(path, outputName, func(f *fixzip.File) ([]byte, bool, error) {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		if len(pathIn) != 0 && !strings.HasPrefix(f.FileHeader.Name, pathIn) {
			return nil, false, nil
		}

		kind, enc, err := isStyleInArchive(f)
		if err != nil {
			log.Warn("Copying file in archive as is",
				zap.String("archive", path), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil, false, nil
		}
		if kind == styleNone {
			return nil, false, nil
		}

		name := entryName(ctx, f, log)
		if r.eng.policy.Excluded(name) {
			log.Debug("Skipping excluded entry", zap.String("archive", path), zap.String("file", name))
			return nil, false, nil
		}
		if enc != encUnknown && enc != encUTF8 {
			log.Warn("Entry is not UTF-8, copying as is", zap.String("archive", path), zap.String("file", name))
			return nil, false, nil
		}

		rc, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", path), zap.String("file", name), zap.Error(err))
			return nil, false, nil
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", path), zap.String("file", name), zap.Error(err))
			return nil, false, nil
		}

		out, err := r.enhanceSource(ctx, data, name)
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", path), zap.String("file", name), zap.Error(err))
			return nil, false, nil
		}
		count++
		return out, true, nil
	})
	if err != nil {
		return err
	}

	if r.env.Rpt != nil {
		r.seq++
		r.env.Rpt.Store(r.reportName("result", filepath.Base(outputName)), outputName)
	}
	return nil
}

// entryName decodes a zip entry name recorded in a legacy code page. The raw
// name stays on the output entry, the decoded form is for logs, exclusion
// checks and changelogs.
func entryName(ctx context.Context, f *fixzip.File, log *zap.Logger) string {
	name := f.FileHeader.Name

	cp := state.EnvFromContext(ctx).CodePage
	if cp != nil && f.FileHeader.NonUTF8 {
		// forcing zip file name encoding
		if n, err := cp.NewDecoder().String(name); err == nil {
			name = n
		} else {
			n, _ = ianaindex.IANA.Name(cp)
			log.Warn("Unable to convert archive name from specified encoding",
				zap.String("charset", n), zap.String("path", name), zap.Error(err))
		}
	}
	return name
}

// processFile enhances one file from disk. src is the path relative to the
// processing root (base name for explicit single files), dst the output
// directory. Sources in a multibyte encoding are passed through unchanged.
func (r *runner) processFile(ctx context.Context, path, src, dst string, enc srcEncoding) error {
	// read before preparing output, overwrite may remove an in place target
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	outputName := buildOutputPath(src, dst, r.runID, r.table, r.env)
	if err := prepareOutputFile(outputName, r.env, r.log); err != nil {
		return err
	}

	out := data
	if enc != encUnknown && enc != encUTF8 {
		r.log.Warn("Source is not UTF-8, passing through unchanged", zap.String("file", path))
		r.seq++
	} else if out, err = r.enhanceSource(ctx, data, src); err != nil {
		return err
	}

	if err := os.WriteFile(outputName, out, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	if r.env.Rpt != nil {
		r.env.Rpt.Store(r.reportName("result", filepath.Base(outputName)), outputName)
	}
	return nil
}

// enhanceSource runs one source through the engine. src is the path reported
// in logs, changelogs and cache signatures, always relative to the run root.
func (r *runner) enhanceSource(ctx context.Context, data []byte, src string) (out []byte, rerr error) {
	env := r.env
	log := r.log

	r.seq++

	var (
		res *Result
		err error
	)

	log.Info("Enhancement starting", zap.String("from", src))
	defer func(start time.Time) {
		// NOTE: whatever the parser or the matcher run into must stay
		// contained to this one source.
		if p := recover(); p != nil {
			log.Error("Enhancement ended with panic",
				zap.Any("panic", p), zap.Duration("elapsed", time.Since(start)), zap.String("from", src), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("enhancement panic: %v", p)
		} else if rerr == nil && res != nil {
			log.Info("Enhancement completed",
				zap.Duration("elapsed", time.Since(start)),
				zap.String("from", src),
				zap.Int("applied", res.Applied()),
				zap.Int("changes", len(res.Changes)),
				zap.Int("suppressed", len(res.Suppressed)),
				zap.Bool("cached", res.CacheHit),
				zap.Bool("degraded", res.Degraded))
		}
	}(time.Now())

	res, err = r.eng.EnhanceCached(ctx, Request{
		Code:     string(data),
		FilePath: src,
		Table:    r.table,
	})
	if err != nil {
		return nil, err
	}

	if env.Rpt != nil {
		env.Rpt.StoreData(r.reportName("input", filepath.Base(src)), data)
		if raw, err := json.MarshalIndent(res.Changes, "", "  "); err == nil {
			env.Rpt.StoreData(r.reportName("changes", filepath.Base(src))+".json", raw)
		}
	}
	return []byte(res.Code), nil
}

// prepareOutputFile makes sure outputName can be created, honoring the
// overwrite setting.
func prepareOutputFile(outputName string, env *state.LocalEnv, log *zap.Logger) error {
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

// reportName builds a debug report entry name, unique within the run.
func (r *runner) reportName(prefix, base string) string {
	return fmt.Sprintf("%s-%03d-%s", prefix, r.seq, config.CleanFileName(base))
}
