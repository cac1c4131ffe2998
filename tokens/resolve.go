package tokens

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrUnavailable marks resolution failures the enhancement engine may recover
// from by running in pass-through mode. Wrap causes with errors.Join so both
// the sentinel and the underlying error stay visible.
var ErrUnavailable = errors.New("brand tokens unavailable")

// DefaultPackNames lists file names probed when looking for a brand pack
// next to the sources being processed. Relative subpaths are allowed.
var DefaultPackNames = []string{"brand.yaml", "brand.json", ".brandcss/brand.yaml"}

// Resolver supplies the token table for an enhancement run.
type Resolver interface {
	Resolve(ctx context.Context) (*Table, error)
}

// Static hands out a prebuilt table. Used by tests and by callers which load
// packs themselves.
type Static struct {
	Table *Table
}

func (r *Static) Resolve(_ context.Context) (*Table, error) {
	if r.Table == nil {
		return nil, ErrUnavailable
	}
	return r.Table, nil
}

// FileResolver loads a brand pack from disk. When Path is set it is used as
// is, otherwise the resolver walks up from Start probing Names at every level
// until the filesystem root.
type FileResolver struct {
	Path   string   // explicit pack location, empty means discover
	Start  string   // discovery starting directory, empty means cwd
	Names  []string // file names to probe, empty means DefaultPackNames
	RootPx float64  // root font size for rem canonicalization

	log *zap.Logger
}

func NewFileResolver(path, start string, rootPx float64, log *zap.Logger) *FileResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileResolver{
		Path:   path,
		Start:  start,
		RootPx: rootPx,
		log:    log.Named("token-resolver"),
	}
}

func (r *FileResolver) Resolve(ctx context.Context) (*Table, error) {
	log := r.log
	if log == nil {
		log = zap.NewNop()
	}

	path := r.Path
	if path == "" {
		var err error
		if path, err = r.locate(ctx); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrUnavailable, fmt.Errorf("unable to read brand pack: %w", err))
	}
	pack, err := LoadPack(data)
	if err != nil {
		return nil, errors.Join(ErrUnavailable, fmt.Errorf("unable to load brand pack %s: %w", path, err))
	}
	table, err := BuildTable(pack, r.RootPx, log)
	if err != nil {
		return nil, errors.Join(ErrUnavailable, fmt.Errorf("unable to build token table from %s: %w", path, err))
	}

	log.Debug("Resolved brand pack",
		zap.String("path", path),
		zap.String("brand", table.Brand),
		zap.String("version", table.Version),
		zap.Int("tokens", len(table.Tokens)))
	return table, nil
}

func (r *FileResolver) locate(ctx context.Context) (string, error) {
	names := r.Names
	if len(names) == 0 {
		names = DefaultPackNames
	}

	dir := r.Start
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Join(ErrUnavailable, err)
	}
	start := dir

	for {
		// Cancellation aborts the run, it is not a degradable condition.
		if err := ctx.Err(); err != nil {
			return "", err
		}
		for _, name := range names {
			path := filepath.Join(dir, name)
			if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
				return path, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Join(ErrUnavailable,
				fmt.Errorf("no brand pack (%s) found at or above %s", strings.Join(names, ", "), start))
		}
		dir = parent
	}
}
