package stylevars

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/parse/v2/css"
)

// Resolver substitutes files so that variables declared in a relatively
// @import-ed stylesheet are visible to the importer, in import order.
// It is safe for concurrent use.
type Resolver struct {
	mu   sync.Mutex
	defs map[string]map[string]string
}

func NewResolver() *Resolver {
	return &Resolver{defs: make(map[string]map[string]string)}
}

// File reads and substitutes the stylesheet at path.
func (r *Resolver) File(path string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	seed, err := r.importedDefs(path, src, map[string]bool{})
	if err != nil {
		return nil, err
	}
	return Substitute(src, seed)
}

func (r *Resolver) definitions(path string, visiting map[string]bool) (map[string]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	r.mu.Lock()
	cached, ok := r.defs[abs]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}
	if visiting[abs] {
		return nil, fmt.Errorf("stylevars: import cycle at %s", abs)
	}
	visiting[abs] = true
	defer delete(visiting, abs)

	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	seed, err := r.importedDefs(abs, src, visiting)
	if err != nil {
		return nil, err
	}
	_, defined, err := run(src, seed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}

	r.mu.Lock()
	r.defs[abs] = defined
	r.mu.Unlock()
	return defined, nil
}

func (r *Resolver) importedDefs(path string, src []byte, visiting map[string]bool) (map[string]string, error) {
	imports, err := relativeImports(src)
	if err != nil {
		return nil, err
	}
	seed := map[string]string{}
	for _, imp := range imports {
		defs, err := r.definitions(filepath.Join(filepath.Dir(path), imp), visiting)
		if err != nil {
			return nil, err
		}
		for k, v := range defs {
			seed[k] = v
		}
	}
	return seed, nil
}

// relativeImports lists `@import "./x.css";` targets. Package imports are
// left to the bundler.
func relativeImports(src []byte) ([]string, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	var out []string
	for i := 0; i < len(toks); i++ {
		if toks[i].tt != css.AtKeywordToken || !strings.EqualFold(toks[i].data, "@import") {
			continue
		}
		for j := i + 1; j < len(toks); j++ {
			t := toks[j]
			if t.tt == css.WhitespaceToken {
				continue
			}
			var target string
			switch t.tt {
			case css.StringToken:
				target = strings.Trim(t.data, `"'`)
			case css.URLToken:
				target = strings.Trim(strings.TrimSuffix(strings.TrimPrefix(t.data, "url("), ")"), ` "'`)
			}
			if strings.HasPrefix(target, "./") || strings.HasPrefix(target, "../") {
				out = append(out, filepath.FromSlash(target))
			}
			break
		}
	}
	return out, nil
}
