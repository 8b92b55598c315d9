package session

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const clearToEOL = "\x1b[K"

// Console writes transcript output for a person watching the terminal.
// When interim display is on, the latest partial text is redrawn in place on
// the current line and erased before the next final line.
type Console struct {
	mu           sync.Mutex
	out          io.Writer
	interim      bool
	width        int
	interimStyle lipgloss.Style
	lastInterim  string
}

// NewConsole returns a console writing to out. width limits the interim line
// to the terminal width; zero disables the limit.
func NewConsole(out io.Writer, interim bool, width int) *Console {
	return &Console{
		out:          out,
		interim:      interim,
		width:        width,
		interimStyle: lipgloss.NewStyle().Faint(true),
	}
}

func (c *Console) Println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearInterimLocked()
	c.write(line + "\n")
}

func (c *Console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearInterimLocked()
	c.write(fmt.Sprintf(format, args...) + "\n")
}

func (c *Console) HandleInterim(text string) {
	if !c.interim {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	text = tailRunes(text, c.width-1)
	if text == c.lastInterim {
		return
	}
	c.lastInterim = text
	c.write("\r" + c.interimStyle.Render(text) + clearToEOL)
}

func (c *Console) HandleOutcome(elapsed time.Duration, o Outcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearInterimLocked()
	for _, line := range transcriptLines(elapsed, o) {
		c.write(line + "\n")
	}
	return nil
}

// ReportOnce prints the single-shot report of o.
func (c *Console) ReportOnce(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range onceLines(o) {
		c.write(line + "\n")
	}
}

func (c *Console) clearInterimLocked() {
	if c.lastInterim == "" {
		return
	}
	c.lastInterim = ""
	c.write("\r" + clearToEOL)
}

func (c *Console) write(s string) {
	if _, err := io.WriteString(c.out, s); err != nil {
		slog.Debug("console write failed", "error", err)
	}
}

// tailRunes keeps the last n runes of s, so the newest words stay visible.
func tailRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
