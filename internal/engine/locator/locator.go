// # internal/engine/locator/locator.go
package locator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	coreerrors "javakg/internal/core/errors"
	"javakg/internal/engine/buildfile"
	"javakg/internal/engine/diagnostic"
	"javakg/internal/shared/util"
)

// DefaultExcludeDirs are build output and tooling directories that never hold
// hand-written sources.
var DefaultExcludeDirs = []string{
	"target", "bin", "build", "out", ".git", ".idea", ".settings", ".gradle",
	".mvn", ".svn", ".vscode", "logs", "tmp", "temp", "test-output", "node_modules",
}

var DefaultBuildFiles = []string{"pom.xml", "build.gradle", "build.gradle.kts"}

type Rules struct {
	Root            string
	Extensions      []string
	ExcludeDirs     []string
	ExcludeFiles    []string
	BuildFiles      []string
	ExtraBuildFiles []string
	UseGitignore    bool
	FollowSymlinks  bool
}

func DefaultRules(root string) Rules {
	return Rules{
		Root:         root,
		Extensions:   []string{".java"},
		ExcludeDirs:  append([]string(nil), DefaultExcludeDirs...),
		BuildFiles:   append([]string(nil), DefaultBuildFiles...),
		UseGitignore: true,
	}
}

type EntryKind int

const (
	KindSource EntryKind = iota
	KindBuild
)

// Entry is one candidate file. Rel is the slash-separated path from the root
// and is what every downstream identifier is derived from.
type Entry struct {
	Path string
	Rel  string
	Kind EntryKind
}

type Result struct {
	Root        string
	Sources     []Entry
	BuildFiles  []Entry
	Diagnostics diagnostic.List
}

// All returns build descriptors followed by sources.
func (r *Result) All() []Entry {
	out := make([]Entry, 0, len(r.BuildFiles)+len(r.Sources))
	out = append(out, r.BuildFiles...)
	return append(out, r.Sources...)
}

type walker struct {
	ctx        context.Context
	rules      Rules
	root       string
	dirGlobs   []glob.Glob
	fileGlobs  []glob.Glob
	gitignore  *ignore.GitIgnore
	buildNames map[string]bool
	exts       map[string]bool
	visited    map[string]bool
	res        *Result
}

// Locate enumerates source files and build descriptors under rules.Root.
// Unreadable directories become diagnostics; only a missing root or an
// invalid pattern is fatal.
func Locate(ctx context.Context, rules Rules) (*Result, error) {
	root, err := filepath.Abs(rules.Root)
	if err != nil {
		return nil, coreerrors.AddContext(
			coreerrors.Wrap(err, coreerrors.CodeValidationError, "invalid root path"), coreerrors.CtxPath, rules.Root)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, coreerrors.AddContext(
			coreerrors.Wrap(err, coreerrors.CodeNotFound, "root path does not exist"), coreerrors.CtxPath, rules.Root)
	}
	if !info.IsDir() {
		return nil, coreerrors.AddContext(
			coreerrors.New(coreerrors.CodeNotFound, "root path is not a directory"), coreerrors.CtxPath, rules.Root)
	}

	w := &walker{
		ctx:        ctx,
		rules:      rules,
		root:       root,
		buildNames: make(map[string]bool),
		exts:       make(map[string]bool),
		visited:    make(map[string]bool),
		res:        &Result{Root: root},
	}
	if w.dirGlobs, err = compileGlobs(rules.ExcludeDirs); err != nil {
		return nil, err
	}
	if w.fileGlobs, err = compileGlobs(rules.ExcludeFiles); err != nil {
		return nil, err
	}
	for _, name := range rules.BuildFiles {
		w.buildNames[strings.ToLower(name)] = true
	}
	for _, ext := range rules.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		w.exts[ext] = true
	}
	if rules.UseGitignore {
		gi := filepath.Join(root, ".gitignore")
		if _, statErr := os.Stat(gi); statErr == nil {
			if compiled, giErr := ignore.CompileIgnoreFile(gi); giErr == nil {
				w.gitignore = compiled
			} else {
				w.res.Diagnostics.Warn(".gitignore", diagnostic.CodeWalk, "ignoring unreadable .gitignore: %v", giErr)
			}
		}
	}

	if real, evalErr := filepath.EvalSymlinks(root); evalErr == nil {
		w.visited[real] = true
	}
	if err := w.walk(root, ""); err != nil {
		return nil, err
	}
	w.addExtraBuildFiles()

	sortEntries(w.res.Sources)
	sortEntries(w.res.BuildFiles)
	w.res.BuildFiles = dedupEntries(w.res.BuildFiles)
	return w.res, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, coreerrors.Wrap(err, coreerrors.CodeValidationError,
				fmt.Sprintf("invalid exclude pattern %q", p))
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, base, rel string) bool {
	for _, g := range globs {
		if g.Match(base) || g.Match(rel) {
			return true
		}
	}
	return false
}

func (w *walker) walk(dir, rel string) error {
	if err := w.ctx.Err(); err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeAborted, "source walk interrupted")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.res.Diagnostics.Error(displayPath(rel), diagnostic.CodeUnreadable, "cannot read directory: %v", err)
		return nil
	}

	for _, e := range entries {
		name := e.Name()
		full := filepath.Join(dir, name)
		childRel := name
		if rel != "" {
			childRel = rel + "/" + name
		}

		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			target, statErr := os.Stat(full)
			if statErr != nil {
				w.res.Diagnostics.Error(childRel, diagnostic.CodeUnreadable, "broken symbolic link: %v", statErr)
				continue
			}
			isDir = target.IsDir()
			if isDir && !w.rules.FollowSymlinks {
				continue
			}
		}

		if isDir {
			if matchAny(w.dirGlobs, name, childRel) || w.ignored(childRel+"/") {
				continue
			}
			real, evalErr := filepath.EvalSymlinks(full)
			if evalErr != nil {
				w.res.Diagnostics.Error(childRel, diagnostic.CodeUnreadable, "cannot resolve directory: %v", evalErr)
				continue
			}
			if w.visited[real] {
				continue
			}
			w.visited[real] = true
			if err := w.walk(full, childRel); err != nil {
				return err
			}
			continue
		}

		if matchAny(w.fileGlobs, name, childRel) || w.ignored(childRel) {
			continue
		}
		switch {
		case w.buildNames[strings.ToLower(name)]:
			w.res.BuildFiles = append(w.res.BuildFiles, Entry{Path: full, Rel: childRel, Kind: KindBuild})
		case w.exts[strings.ToLower(filepath.Ext(name))]:
			w.res.Sources = append(w.res.Sources, Entry{Path: full, Rel: childRel, Kind: KindSource})
		}
	}
	return nil
}

func (w *walker) ignored(rel string) bool {
	return w.gitignore != nil && w.gitignore.MatchesPath(rel)
}

func (w *walker) addExtraBuildFiles() {
	for _, p := range w.rules.ExtraBuildFiles {
		full := p
		if !filepath.IsAbs(full) {
			full = filepath.Join(w.root, p)
		}
		rel := util.RelSlashPath(w.root, full)
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			w.res.Diagnostics.Warn(rel, diagnostic.CodeBuildFile, "build descriptor not found")
			continue
		}
		if _, ok := buildfile.DetectTool(full); !ok {
			w.res.Diagnostics.Warn(rel, diagnostic.CodeBuildFile, "not a Maven or Gradle descriptor")
			continue
		}
		w.res.BuildFiles = append(w.res.BuildFiles, Entry{Path: full, Rel: rel, Kind: KindBuild})
	}
}

func displayPath(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Rel < entries[j].Rel })
}

func dedupEntries(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if len(out) > 0 && out[len(out)-1].Rel == e.Rel {
			continue
		}
		out = append(out, e)
	}
	return out
}
