// Package copier executes asset copy rules against an output directory.
package copier

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/sendarcade/alphapack/kit/fsutil"
	"github.com/sendarcade/alphapack/pack/internal/plan"
)

// maxParallel bounds concurrent file copies within one rule.
const maxParallel = 16

// Result summarises one Run.
type Result struct {
	Copied  int
	Skipped int
	// Missing lists the From of tolerated rules that matched nothing.
	Missing []string
}

type file struct {
	src string
	// rel is the destination path relative to the rule's To directory.
	rel string
}

// Run applies rules in declaration order. A later rule overwrites a file
// written earlier in the same run only when it sets Force. Files of one
// rule are copied concurrently.
func Run(ctx context.Context, rules []plan.AssetCopyRule, projectDir, outDir string, log *slog.Logger) (Result, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var res Result
	written := make(map[string]struct{})

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		files, err := expand(rule, projectDir)
		if err != nil {
			return res, fmt.Errorf("copy %q: %w", rule.From, err)
		}
		if len(files) == 0 {
			if rule.NoErrorOnMissing {
				log.Debug("copy source missing", "from", rule.From, "context", rule.Context)
				res.Missing = append(res.Missing, rule.From)
				continue
			}
			return res, fmt.Errorf("copy %q: %w", rule.From, fs.ErrNotExist)
		}

		pending := make(map[string]string, len(files))
		for _, f := range files {
			rel := f.rel
			if rule.Flatten {
				rel = filepath.Base(rel)
			}
			dst := filepath.Join(outDir, filepath.FromSlash(rule.To), rel)
			if _, done := written[dst]; done && !rule.Force {
				res.Skipped++
				continue
			}
			if _, dup := pending[dst]; dup {
				res.Skipped++
				continue
			}
			pending[dst] = f.src
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxParallel)
		for dst, src := range pending {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fsutil.CopyFile(src, dst); err != nil {
					return fmt.Errorf("copy %s: %w", src, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return res, err
		}

		for dst := range pending {
			written[dst] = struct{}{}
		}
		res.Copied += len(pending)
		log.Debug("copied", "from", rule.From, "to", rule.To, "files", len(pending))
	}

	return res, nil
}

// expand lists the files a rule selects. A From without glob syntax names
// a file or a directory to copy recursively; otherwise it is a doublestar
// pattern relative to the rule's context. Nothing found is not an error.
func expand(rule plan.AssetCopyRule, projectDir string) ([]file, error) {
	base := projectDir
	if rule.Context != "" {
		base = filepath.Join(projectDir, filepath.FromSlash(rule.Context))
		if filepath.IsAbs(rule.Context) {
			base = rule.Context
		}
	}

	if isGlob(rule.From) {
		matches, err := doublestar.Glob(os.DirFS(base), filepath.ToSlash(rule.From), doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		out := make([]file, 0, len(matches))
		for _, m := range matches {
			out = append(out, file{src: filepath.Join(base, filepath.FromSlash(m)), rel: filepath.FromSlash(m)})
		}
		return out, nil
	}

	root := filepath.Join(base, filepath.FromSlash(rule.From))
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []file{{src: root, rel: filepath.Base(root)}}, nil
	}

	var out []file
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, file{src: p, rel: rel})
		return nil
	})
	return out, err
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
