package analyzer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/archscope/archscope/internal/extract"
	"github.com/archscope/archscope/internal/model"
)

// ErrRootNotFound is the only error Analyze lets escape: the root path does
// not exist or is not a directory. Everything else degrades into Diagnostics.
var ErrRootNotFound = errors.New("root path not found")

// defaultIgnores are directory names skipped during walking regardless of
// user-supplied patterns.
var defaultIgnores = []string{
	".git", "node_modules", "vendor", "__pycache__", ".venv", "venv",
	"target", "dist", "build", ".idea", ".vscode",
}

// collectFiles walks root and returns candidate source file paths (relative
// to root, slash-separated), sorted. Files over the size cap and walk errors
// become diagnostics, not failures.
func (a *Analyzer) collectFiles(root string) ([]string, []model.Diagnostic, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	var (
		paths []string
		diags []model.Diagnostic
	)
	limitHit := false

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			diags = append(diags, model.Diagnostic{
				Severity: model.SeverityWarning,
				FilePath: p,
				Message:  fmt.Sprintf("walk error: %v", walkErr),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if a.ignored(d.Name(), rel) {
				return filepath.SkipDir
			}
			if a.opts.MaxDepth > 0 && strings.Count(rel, "/")+1 >= a.opts.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if a.ignored(d.Name(), rel) {
			return nil
		}
		if _, ok := a.registry.ForFile(rel); !ok {
			return nil
		}
		if len(a.opts.Languages) > 0 {
			lang, _ := extract.DetectLanguage(rel)
			if !containsLang(a.opts.Languages, lang) {
				return nil
			}
		}
		if a.opts.MaxFileSize > 0 {
			fi, err := d.Info()
			if err == nil && fi.Size() > a.opts.MaxFileSize {
				diags = append(diags, model.Diagnostic{
					Severity: model.SeverityWarning,
					FilePath: rel,
					Message:  fmt.Sprintf("skipped: %d bytes exceeds limit %d", fi.Size(), a.opts.MaxFileSize),
				})
				return nil
			}
		}
		if a.opts.MaxFiles > 0 && len(paths) >= a.opts.MaxFiles {
			if !limitHit {
				limitHit = true
				diags = append(diags, model.Diagnostic{
					Severity: model.SeverityWarning,
					Message:  fmt.Sprintf("file limit %d reached, remaining files skipped", a.opts.MaxFiles),
				})
			}
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, diags, err
	}
	sort.Strings(paths)
	return paths, diags, nil
}

// ignored matches the entry name and relative path against the default and
// user-supplied ignore patterns.
func (a *Analyzer) ignored(name, rel string) bool {
	for _, ig := range defaultIgnores {
		if name == ig {
			return true
		}
	}
	for _, pat := range a.opts.IgnorePatterns {
		if matched, _ := filepath.Match(pat, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pat, rel); matched {
			return true
		}
		if strings.Contains(rel, pat) {
			return true
		}
	}
	return false
}

func containsLang(langs []model.Language, lang model.Language) bool {
	for _, l := range langs {
		if l == lang {
			return true
		}
	}
	return false
}
