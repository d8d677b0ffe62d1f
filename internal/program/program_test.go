package program_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyouko-taiga/dyva/internal/program"
)

// writeModule drops text at name (relative to a fresh temp directory) and
// returns the directory's absolute path.
func writeModule(t *testing.T, name, text string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return dir
}

func loadMain(t *testing.T, dir, name string) *program.Module {
	t.Helper()
	p := program.New(program.WithBasePath(dir))
	id, err := p.Load(name, true)
	require.NoError(t, err)
	return p.Module(id)
}

func TestLoadHelloProducesNoDiagnostics(t *testing.T) {
	dir := writeModule(t, "hello.dyva", `print("Hello")`+"\n")
	mod := loadMain(t, dir, "hello.dyva")
	assert.False(t, mod.Diags.ContainsError(), "%v", mod.Diags.Diagnostics())
	assert.Empty(t, mod.Diags.Diagnostics())
}

func TestLoadMissingImplementationReportsError(t *testing.T) {
	dir := writeModule(t, "missing_impl.dyva", "fun f(x)\n")
	mod := loadMain(t, dir, "missing_impl.dyva")
	require.True(t, mod.Diags.ContainsError())
	assertAnyMessageContains(t, mod, "requires an implementation")
}

func TestLoadYieldOutsideSubscriptReportsError(t *testing.T) {
	dir := writeModule(t, "yield_outside_subscript.dyva", "fun g(x) = yield x\n")
	mod := loadMain(t, dir, "yield_outside_subscript.dyva")
	require.True(t, mod.Diags.ContainsError())
	assertAnyMessageContains(t, mod, "'yield' can only occur in a subscript")
}

func TestLoadIndentMismatchReportsErrorWithNote(t *testing.T) {
	dir := writeModule(t, "indent_mismatch.dyva", "fun f() =\n  a\n   b\n")
	mod := loadMain(t, dir, "indent_mismatch.dyva")
	require.True(t, mod.Diags.ContainsError())
	assertAnyMessageContains(t, mod, "dedendation does not match the current indentation")
}

func TestLoadSubscriptTwoYieldsReportsErrorWithNote(t *testing.T) {
	dir := writeModule(t, "subscript_two_yields.dyva", "subscript s(self) =\n  yield self.x\n  yield self.y\n")
	mod := loadMain(t, dir, "subscript_two_yields.dyva")
	require.True(t, mod.Diags.ContainsError())
	found := false
	for _, d := range mod.Diags.Diagnostics() {
		if strings.Contains(d.Message, "subscript cannot project more than once") {
			require.Len(t, d.Notes, 1)
			found = true
		}
	}
	assert.True(t, found)
}

func TestLoadUndefinedUseReportsError(t *testing.T) {
	dir := writeModule(t, "undefined_use.dyva", "print(x)\n")
	mod := loadMain(t, dir, "undefined_use.dyva")
	require.True(t, mod.Diags.ContainsError())
	assertAnyMessageContains(t, mod, "undefined symbol 'x'")
}

func TestLoadIsNotReentrantOnTheSamePath(t *testing.T) {
	dir := writeModule(t, "a.dyva", `print("a")`+"\n")
	p := program.New(program.WithBasePath(dir))
	first, err := p.Load("a.dyva", true)
	require.NoError(t, err)
	second, err := p.Load("a.dyva", true)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, p.Modules(), 1)
}

func TestLoadFollowsImportsDepthFirst(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.dyva"), []byte("let x = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.dyva"), []byte("import lib\nprint(\"ok\")\n"), 0o644))

	p := program.New(program.WithBasePath(dir))
	id, err := p.Load("main.dyva", true)
	require.NoError(t, err)

	main := p.Module(id)
	assert.False(t, main.Diags.ContainsError(), "%v", main.Diags.Diagnostics())
	assert.Len(t, p.Modules(), 2)
}

func TestLoadReportsImportCycle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.dyva"), []byte("import b\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.dyva"), []byte("import a\n"), 0o644))

	p := program.New(program.WithBasePath(dir))
	_, err := p.Load("a.dyva", true)
	require.NoError(t, err)

	// b's import of a closes the cycle, so b's own bag records it.
	require.Len(t, p.Modules(), 2)
	b := p.Modules()[1]
	found := false
	for _, d := range b.Diags.Diagnostics() {
		if strings.Contains(d.Message, "cycle") {
			found = true
		}
	}
	assert.True(t, found, "%v", b.Diags.Diagnostics())
}

func assertAnyMessageContains(t *testing.T, mod *program.Module, substr string) {
	t.Helper()
	for _, d := range mod.Diags.Diagnostics() {
		if strings.Contains(d.Message, substr) {
			return
		}
	}
	t.Fatalf("no diagnostic contains %q, got %v", substr, mod.Diags.Diagnostics())
}
