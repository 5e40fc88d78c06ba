// Package input expands text flag values and arguments that use - (stdin) or
// @file syntax, so long comments and notes can be piped or kept in files.
package input

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader expands text values. Stdin is consumed at most once.
type Reader struct {
	Stdin     io.Reader
	stdinUsed bool
}

// New returns a Reader over the process stdin.
func New() *Reader {
	return &Reader{Stdin: os.Stdin}
}

// Text returns v with "-" replaced by the contents of stdin and "@path" by
// the contents of path. Anything else is returned unchanged. Surrounding
// whitespace is trimmed either way.
func (r *Reader) Text(v string) (string, error) {
	switch {
	case v == "-":
		if r.stdinUsed {
			return "", fmt.Errorf("stdin already used by another value")
		}
		r.stdinUsed = true
		data, err := io.ReadAll(r.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	case strings.HasPrefix(v, "@") && len(v) > 1:
		data, err := os.ReadFile(v[1:])
		if err != nil {
			return "", fmt.Errorf("read %s: %w", v[1:], err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(v), nil
}

// Args joins args into one text value. A single "-" or "@path" argument is
// expanded.
func (r *Reader) Args(args []string) (string, error) {
	if len(args) == 1 {
		return r.Text(args[0])
	}
	return strings.TrimSpace(strings.Join(args, " ")), nil
}
