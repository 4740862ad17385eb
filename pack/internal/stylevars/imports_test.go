package stylevars

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestResolverSeesImportedVariables(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "css", "colors.css"), "$ui-primary: #e5f0ff;\n$motion-primary: #4c97ff;\n")
	writeFile(t, filepath.Join(dir, "css", "units.css"), "@import \"./colors.css\";\n$space: 0.5rem;\n$accent: $motion-primary;\n")
	writeFile(t, filepath.Join(dir, "components", "button.css"),
		"@import \"../css/units.css\";\n@import \"normalize.css\";\n.button { background: $ui-primary; border-color: $accent; margin: $space; }\n")

	r := NewResolver()
	out, err := r.File(filepath.Join(dir, "components", "button.css"))
	require.NoError(t, err)

	assert.Contains(t, string(out), "background: #e5f0ff;")
	assert.Contains(t, string(out), "border-color: #4c97ff;")
	assert.Contains(t, string(out), "margin: 0.5rem;")
	assert.Contains(t, string(out), `@import "../css/units.css";`)
}

func TestResolverImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.css"), "@import \"./b.css\";\n")
	writeFile(t, filepath.Join(dir, "b.css"), "@import \"./a.css\";\n")

	_, err := NewResolver().File(filepath.Join(dir, "a.css"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import cycle")
}

func TestRelativeImports(t *testing.T) {
	got, err := relativeImports([]byte(`@import "./a.css"; @import url(../b.css); @import 'pkg/c.css'; .x{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.FromSlash("./a.css"), filepath.FromSlash("../b.css")}, got)
}
