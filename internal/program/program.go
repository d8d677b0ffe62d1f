// Package program ties the front-end stages together: it owns the ordered
// module table, resolves `import` declarations by path, and drives each
// module through parse -> scope -> lower -> analyses (spec.md §5, §9 open
// question 1).
package program

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kyouko-taiga/dyva/internal/analysis"
	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/diag"
	"github.com/kyouko-taiga/dyva/internal/ir"
	"github.com/kyouko-taiga/dyva/internal/lower"
	"github.com/kyouko-taiga/dyva/internal/parser"
	"github.com/kyouko-taiga/dyva/internal/scope"
	"github.com/kyouko-taiga/dyva/internal/source"
)

// ModuleID identifies one loaded module within a Program.
type ModuleID int

// Module is one loaded, fully-processed source file: its arena, the IR it
// lowered to, and the diagnostics accumulated across every stage.
type Module struct {
	ID    ModuleID
	Path  string // canonical on-disk path
	File  *source.File
	Arena *ast.Arena
	IR    *ir.Module
	Diags *diag.Bag
}

// Program is the ordered module map mutated only by Load (spec.md §5): the
// entry point's module is always ModuleID 0.
type Program struct {
	basePath string

	modules []*Module
	byPath  map[string]ModuleID
	loading map[string]bool
}

// Option configures a Program at construction time, following the
// functional-options pattern used throughout this module.
type Option func(*Program)

// WithBasePath sets the directory relative imports and the entry file's
// path are resolved against. Defaults to the current working directory.
func WithBasePath(dir string) Option {
	return func(p *Program) { p.basePath = dir }
}

// New creates an empty Program.
func New(opts ...Option) *Program {
	p := &Program{
		byPath:  make(map[string]ModuleID),
		loading: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Module looks up an already-loaded module by id.
func (p *Program) Module(id ModuleID) *Module { return p.modules[id] }

// Modules returns every loaded module, in load order.
func (p *Program) Modules() []*Module { return append([]*Module(nil), p.modules...) }

// Load resolves path to a canonical on-disk location and loads it as a
// module, following its `import` declarations depth-first (spec.md §9 open
// question 1). Re-loading an already-loaded canonical path is a no-op that
// returns the existing id (spec.md §5). asMain selects whether the file's
// top level is parsed as a sequence of statements (the program entry) or a
// sequence of declarations (an imported module).
func (p *Program) Load(path string, asMain bool) (ModuleID, error) {
	canon, err := p.canonicalize(path)
	if err != nil {
		return 0, err
	}
	return p.load(canon, asMain)
}

func (p *Program) canonicalize(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	base := p.basePath
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		base = wd
	}
	return filepath.Clean(filepath.Join(base, path)), nil
}

// load is the recursive worker behind Load. canon must already be a
// canonicalized path. A path still in loading (its load is on the call
// stack) is an import cycle; a path in byPath whose load has finished, such
// as the shared leaf of a diamond import, is an ordinary no-op.
func (p *Program) load(canon string, asMain bool) (ModuleID, error) {
	if p.loading[canon] {
		return 0, fmt.Errorf("import cycle at %s", canon)
	}
	if id, ok := p.byPath[canon]; ok {
		return id, nil
	}
	p.loading[canon] = true
	defer delete(p.loading, canon)

	text, err := os.ReadFile(canon)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", canon, err)
	}

	id := ModuleID(len(p.modules))
	file := source.NewFile(canon, string(text))
	arena := ast.NewArena(ast.ModuleIndex(id))
	bag := parser.Parse(file, arena, asMain)

	mod := &Module{ID: id, Path: canon, File: file, Arena: arena, Diags: bag}
	p.modules = append(p.modules, mod)
	p.byPath[canon] = id

	if !bag.ContainsError() {
		scope.Resolve(arena)
		mod.IR = lower.Lower(arena, asMain, bag)
		for _, fn := range mod.IR.Functions() {
			analysis.Run(fn, bag)
		}
	}

	for _, declID := range arena.Imports() {
		p.loadImport(mod, declID)
	}

	return id, nil
}

// loadImport resolves and loads a single import declaration belonging to
// mod, recording any resolution failure or import cycle as a diagnostic on
// mod's own bag rather than propagating it as a hard Go error: an importer
// failing to find one of its imports is the importer's problem to report.
func (p *Program) loadImport(mod *Module, declID ast.DeclarationID) {
	decl, ok := ast.Get[ast.ImportDeclaration](mod.Arena, declID.Raw())
	if !ok {
		return
	}
	site := mod.Arena.Site(declID.Raw())

	target, candidates := p.resolveImportPath(mod.Path, decl.Path)
	if target == "" {
		if len(candidates) == 0 {
			mod.Diags.Errorf(site, "cannot resolve import %q", decl.Path)
		} else {
			mod.Diags.Errorf(site, "import %q is ambiguous among %v", decl.Path, candidates)
		}
		return
	}

	if _, err := p.load(target, false); err != nil {
		mod.Diags.Errorf(site, "import cycle: %q imports a module still being loaded", decl.Path)
	}
}

// resolveImportPath resolves an import path relative to the directory of
// fromPath, following the file-role rules of spec.md §6.1: a `<name>.dyva`
// file or a `<name>/index.dyva` directory import, never both at once. When
// neither resolves, the sibling `.dyva` files under the candidate directory
// are globbed (via doublestar, which also supports the `**` patterns a
// multi-segment import path may use) to list in the diagnostic.
func (p *Program) resolveImportPath(fromPath, importPath string) (resolved string, candidates []string) {
	dir := filepath.Dir(fromPath)
	asFile := filepath.Clean(filepath.Join(dir, importPath+".dyva"))
	asDir := filepath.Clean(filepath.Join(dir, importPath, "index.dyva"))

	_, fileErr := os.Stat(asFile)
	_, dirErr := os.Stat(asDir)
	fileExists, dirExists := fileErr == nil, dirErr == nil

	switch {
	case fileExists && dirExists:
		return "", []string{asFile, asDir}
	case fileExists:
		return asFile, nil
	case dirExists:
		return asDir, nil
	}

	pattern := filepath.Join(dir, filepath.Dir(importPath), "*.dyva")
	matches, globErr := doublestar.Glob(os.DirFS("/"), pattern[1:])
	if globErr == nil {
		for _, m := range matches {
			candidates = append(candidates, "/"+m)
		}
	}
	return "", candidates
}
