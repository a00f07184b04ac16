// Package runner walks a source tree, classifies each file's role, and fans
// the per-file scans out over a bounded worker pool. Files are independent;
// the canonical requirement map is the only shared resource and is read-only.
package runner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"srslint/internal/cfunc"
	"srslint/internal/check"
	"srslint/internal/config"
	"srslint/internal/lexer"
	"srslint/internal/model"
	"srslint/internal/srstag"
)

// Options configures one run.
type Options struct {
	Root  string
	Cfg   *config.Config
	Canon model.CanonicalMap
	// Fix applies corrections iteratively: each repairing check sees the
	// previous check's corrected buffer.
	Fix bool
	// Workers bounds the pool; 0 means GOMAXPROCS.
	Workers int
}

// FileResult is the outcome for one scanned file.
type FileResult struct {
	Path       string // relative to root, forward slashes
	Role       model.Role
	Violations []model.Violation
	Anomalies  []model.Anomaly
	Notes      []string
	// Src is the buffer as read; Fixed is the fully corrected buffer, nil
	// when nothing changed.
	Src   []byte
	Fixed []byte
	// Err records an analysis failure (unreadable file, panic). The file
	// contributes no violations but the run continues.
	Err error
}

// Summary aggregates a whole run in stable path order.
type Summary struct {
	Files []FileResult
}

// Violations returns every violation of the run, sorted for reporting.
func (s *Summary) Violations() []model.Violation {
	var out []model.Violation
	for _, fr := range s.Files {
		out = append(out, fr.Violations...)
	}
	model.SortViolations(out)
	return out
}

// sourceFile reports whether base is a C/C++ source or header name.
func sourceFile(base string) bool {
	switch strings.ToLower(filepath.Ext(base)) {
	case ".c", ".cpp", ".h", ".hpp":
		return true
	}
	return false
}

// Run scans every source file under opts.Root.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	cfg := opts.Cfg
	if cfg == nil {
		cfg = config.Default()
	}

	paths, err := collect(opts.Root, cfg)
	if err != nil {
		return nil, fmt.Errorf("runner: walk %s: %w", opts.Root, err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var mu sync.Mutex
	results := make([]FileResult, 0, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, rel := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fr := scanOne(opts.Root, rel, cfg, opts.Canon, opts.Fix)
			mu.Lock()
			results = append(results, fr)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return &Summary{Files: results}, nil
}

// collect walks root and returns the relative paths to scan, sorted.
func collect(root string, cfg *config.Config) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && (strings.HasPrefix(d.Name(), ".") || cfg.IsDenied(rel)) {
				return fs.SkipDir
			}
			return nil
		}
		if !sourceFile(d.Name()) || cfg.IsDenied(rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// scanOne runs every enabled check against a single file. A panic inside the
// scanning logic becomes an analysis-failure record, never a crashed run.
func scanOne(root, rel string, cfg *config.Config, canon model.CanonicalMap, fix bool) (fr FileResult) {
	fr.Path = rel
	fr.Role = model.RoleProduction
	if cfg.IsTestFile(filepath.Base(rel)) {
		fr.Role = model.RoleTest
	}

	defer func() {
		if r := recover(); r != nil {
			fr.Err = fmt.Errorf("runner: %s: panic: %v", rel, r)
			fr.Violations = nil
			fr.Fixed = nil
		}
	}()

	src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		fr.Err = fmt.Errorf("runner: read %s: %w", rel, err)
		return fr
	}
	fr.Src = src

	buf := src
	changed := false
	f := cfunc.Parse(buf, cfg.Anchors)
	tags, tagAnoms := srstag.Extract(f)
	fr.Anomalies = appendAnomalies(fr.Anomalies, rel, buf, f.Anomalies, tagAnoms)

	for _, c := range check.Registry() {
		if !cfg.CheckEnabled(c.Name()) {
			continue
		}
		out := c.Run(check.Input{Path: rel, File: f, Tags: tags, Canon: canon, Role: fr.Role})
		fr.Violations = append(fr.Violations, out.Violations...)
		fr.Notes = append(fr.Notes, out.Notes...)
		if fix && out.Fixed != nil {
			buf = out.Fixed
			changed = true
			f = cfunc.Parse(buf, cfg.Anchors)
			tags, _ = srstag.Extract(f)
		}
	}
	if changed {
		fr.Fixed = buf
	}

	model.SortViolations(fr.Violations)
	return fr
}

// appendAnomalies converts offset-based scan anomalies into positioned
// records.
func appendAnomalies(dst []model.Anomaly, path string, src []byte, groups ...[]lexer.Anomaly) []model.Anomaly {
	for _, g := range groups {
		for _, a := range g {
			line, col := lexer.Position(src, a.Offset)
			dst = append(dst, model.Anomaly{File: path, Line: line, Col: col, Message: a.Message})
		}
	}
	return dst
}

