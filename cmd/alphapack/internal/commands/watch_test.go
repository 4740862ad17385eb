package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeProjectFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// playgroundProject lays out everything the playground target bundles and
// copies, with entry as the playground entry source.
func playgroundProject(t *testing.T, dir, entry string) {
	t.Helper()
	files := map[string]string{
		"src/playground/embed.jsx":                                     entry,
		"node_modules/buffer/index.js":                                 "export const Buffer = { from: (s) => s };\n",
		"node_modules/scratch-blocks/media/icon.svg":                   "<svg/>",
		"src/lib/themes/blocks/high-contrast-media/blocks-media/a.svg": "<svg/>",
		"static/favicon.ico":                                           "icon",
		"src/examples/extensions/example.js":                           "// example\n",
	}
	for rel, content := range files {
		writeProjectFile(t, dir, rel, content)
	}
}

func TestWatchRebuildsAfterFailure(t *testing.T) {
	g, _ := globalsFor(t, "ROUTING_STYLE=before\n")
	logs := &syncBuffer{}
	g.LogOutput = logs
	playgroundProject(t, g.Dir, "export default = ;\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- (&WatchCmd{Debounce: 20 * time.Millisecond}).Run(ctx, g) }()

	waitForLog := func(msg string) {
		t.Helper()
		require.Eventually(t, func() bool { return strings.Contains(logs.String(), msg) },
			10*time.Second, 10*time.Millisecond, "log never contained %q:\n%s", msg, logs.String())
	}
	waitForLog("build failed")
	waitForLog("watching for changes")

	writeProjectFile(t, g.Dir, ".env", "ROUTING_STYLE=after-change\n")
	writeProjectFile(t, g.Dir, "src/playground/embed.jsx", "console.log(process.env.ROUTING_STYLE);\n")

	waitForLog("change detected")
	bundle := filepath.Join(g.Dir, "build", "js", "embed.js")
	require.Eventually(t, func() bool {
		out, err := os.ReadFile(bundle)
		return err == nil && strings.Contains(string(out), "after-change")
	}, 10*time.Second, 10*time.Millisecond, "rebuilt bundle missing re-planned define:\n%s", logs.String())

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
