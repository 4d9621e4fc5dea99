package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// console writes the human-readable run diagnostics.
type console struct {
	w io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

func (c *console) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.w, format, args...)
}

func (c *console) Println(args ...any) {
	_, _ = fmt.Fprintln(c.w, args...)
}

// Section prints a "=== title ===" header preceded by a blank line.
func (c *console) Section(title string) {
	c.Println()
	c.Println(sectionStyle.Render("=== " + title + " ==="))
}

func (c *console) OK(format string, args ...any) {
	c.Println(okStyle.Render("✅ " + fmt.Sprintf(format, args...)))
}

func (c *console) Warn(format string, args ...any) {
	c.Println(warnStyle.Render("⚠️  " + fmt.Sprintf(format, args...)))
}

func (c *console) Error(format string, args ...any) {
	c.Println(errStyle.Render("❌ " + fmt.Sprintf(format, args...)))
}

// Check prints a yes/no verification line.
func (c *console) Check(label string, ok bool, no string) {
	if ok {
		c.Printf("%s: %s\n", label, okStyle.Render("✅ Yes"))
		return
	}
	c.Printf("%s: %s\n", label, warnStyle.Render(no))
}
