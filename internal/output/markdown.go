package output

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"golang.org/x/term"

	"github.com/marcus/giftwell/internal/theme"
)

const minMarkdownWidth = 20

// TerminalWidth returns the width of stdout, then $COLUMNS, then fallback.
func TerminalWidth(fallback int) int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && cols > 0 {
		return cols
	}
	return fallback
}

type rendererKey struct {
	width int
	style string
}

// Building a renderer parses a full style sheet, and a detail view renders
// every comment on an entity, so renderers are kept per width and style.
var (
	renderersMu sync.Mutex
	renderers   = make(map[rendererKey]*glamour.TermRenderer)
)

func markdownStyle(t theme.Theme) string {
	if t.Resolve() == theme.Light {
		return styles.LightStyle
	}
	return styles.DarkStyle
}

func renderer(width int, t theme.Theme) (*glamour.TermRenderer, error) {
	key := rendererKey{width: width, style: markdownStyle(t)}

	renderersMu.Lock()
	defer renderersMu.Unlock()
	if r, ok := renderers[key]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(key.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	renderers[key] = r
	return r, nil
}

// RenderMarkdown renders a comment body for the given theme, wrapped to width.
func RenderMarkdown(text string, width int, t theme.Theme) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	width = max(width, minMarkdownWidth)

	r, err := renderer(width, t)
	if err != nil {
		return "", err
	}
	// Renderers are shared between detail fetches.
	renderersMu.Lock()
	rendered, err := r.Render(text)
	renderersMu.Unlock()
	if err != nil {
		return "", err
	}
	return strings.Trim(rendered, "\n"), nil
}
