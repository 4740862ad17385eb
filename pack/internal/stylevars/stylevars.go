// Package stylevars implements the variable substitution stage of the
// style chain: "$name: value;" declarations are recorded and removed, and
// every "$name" use is replaced by its value.
package stylevars

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type token struct {
	tt   css.TokenType
	data string
}

// Substitute rewrites src. vars seeds the variable table and is not modified.
func Substitute(src []byte, vars map[string]string) ([]byte, error) {
	out, _, err := run(src, vars)
	return out, err
}

// run substitutes src and also returns the variable table at end of file.
func run(src []byte, vars map[string]string) ([]byte, map[string]string, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, nil, err
	}

	defined := make(map[string]string, len(vars))
	for k, v := range vars {
		defined[k] = v
	}

	var out bytes.Buffer
	out.Grow(len(src))
	atStatementStart := true

	for i := 0; i < len(toks); i++ {
		if !isVarRef(toks, i) {
			out.WriteString(toks[i].data)
			switch toks[i].tt {
			case css.SemicolonToken, css.LeftBraceToken, css.RightBraceToken:
				atStatementStart = true
			case css.WhitespaceToken, css.CommentToken:
			default:
				atStatementStart = false
			}
			continue
		}

		name := toks[i+1].data
		if atStatementStart {
			if colon, ok := colonAfter(toks, i+2); ok {
				value, end, err := collectValue(toks, colon+1, defined)
				if err != nil {
					return nil, nil, err
				}
				defined[name] = value
				i = end
				continue
			}
		}

		v, ok := defined[name]
		if !ok {
			return nil, nil, fmt.Errorf("stylevars: undefined variable $%s", name)
		}
		out.WriteString(v)
		i++
		atStatementStart = false
	}

	return out.Bytes(), defined, nil
}

func lex(src []byte) ([]token, error) {
	l := css.NewLexer(parse.NewInputBytes(src))
	var toks []token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, fmt.Errorf("stylevars: %w", err)
			}
			return toks, nil
		}
		toks = append(toks, token{tt: tt, data: string(data)})
	}
}

func isVarRef(toks []token, i int) bool {
	return i+1 < len(toks) &&
		toks[i].tt == css.DelimToken && toks[i].data == "$" &&
		toks[i+1].tt == css.IdentToken
}

// colonAfter skips whitespace from i and reports the index of a colon.
func colonAfter(toks []token, i int) (int, bool) {
	for ; i < len(toks); i++ {
		switch toks[i].tt {
		case css.WhitespaceToken:
			continue
		case css.ColonToken:
			return i, true
		default:
			return 0, false
		}
	}
	return 0, false
}

// collectValue reads a declaration value starting at i. It returns the
// trimmed value and the index of the last token consumed: the terminating
// semicolon, or the token before a closing brace.
func collectValue(toks []token, i int, defined map[string]string) (string, int, error) {
	var b strings.Builder
	for ; i < len(toks); i++ {
		switch toks[i].tt {
		case css.SemicolonToken:
			return strings.TrimSpace(b.String()), i, nil
		case css.RightBraceToken:
			return strings.TrimSpace(b.String()), i - 1, nil
		}
		if isVarRef(toks, i) {
			v, ok := defined[toks[i+1].data]
			if !ok {
				return "", 0, fmt.Errorf("stylevars: undefined variable $%s", toks[i+1].data)
			}
			b.WriteString(v)
			i++
			continue
		}
		b.WriteString(toks[i].data)
	}
	return strings.TrimSpace(b.String()), len(toks) - 1, nil
}
