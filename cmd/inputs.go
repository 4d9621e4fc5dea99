package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// InputFile is one data file read verbatim for prompt interpolation.
type InputFile struct {
	Label   string
	Path    string
	Content string
	// Size is the length of Content in characters.
	Size int
}

// BaseName returns the file name without its directory.
func (f InputFile) BaseName() string {
	return filepath.Base(f.Path)
}

// Inputs is the ordered set of files read for one algorithm.
type Inputs struct {
	Algorithm string
	Files     []InputFile
}

// TotalChars sums the character counts of every file.
func (in Inputs) TotalChars() int {
	total := 0
	for _, f := range in.Files {
		total += f.Size
	}
	return total
}

// Content concatenates every file's content, used for the context estimate.
func (in Inputs) Content() string {
	var b strings.Builder
	for _, f := range in.Files {
		b.WriteString(f.Content)
	}
	return b.String()
}

// AllNonEmpty reports whether every file had content.
func (in Inputs) AllNonEmpty() bool {
	for _, f := range in.Files {
		if f.Size == 0 {
			return false
		}
	}
	return len(in.Files) > 0
}

// readFileContent reads path as text, reporting progress on c.
func readFileContent(c *console, label, path string) (InputFile, error) {
	c.Printf("Attempting to read: %s\n", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return InputFile{}, fmt.Errorf("error reading %s: %w", path, err)
	}
	content := string(data)
	f := InputFile{
		Label:   label,
		Path:    path,
		Content: content,
		Size:    utf8.RuneCountInString(content),
	}
	c.Printf("Successfully read %s characters from %s\n", comma(f.Size), f.BaseName())
	return f, nil
}

// readInputs reads exactly the files the selected algorithm needs.
func readInputs(c *console, opts RunOptions) (Inputs, error) {
	in := Inputs{Algorithm: opts.Algorithm}
	required := opts.requiredInputs()
	c.Printf("Reading files for %s algorithm:\n", opts.Algorithm)
	for _, r := range required {
		c.Printf("  - %s: %s\n", r.Label, r.Path)
	}
	for _, r := range required {
		f, err := readFileContent(c, r.Label, r.Path)
		if err != nil {
			return Inputs{}, err
		}
		in.Files = append(in.Files, f)
	}
	return in, nil
}

// parseCellPair splits "sender-receiver" on the first dash.
// Without a dash the whole string is the sender.
func parseCellPair(cell string) (sender, receiver string, ok bool) {
	s, r, found := strings.Cut(cell, "-")
	if !found {
		return strings.TrimSpace(cell), "receiver cell", false
	}
	return strings.TrimSpace(s), strings.TrimSpace(r), true
}
