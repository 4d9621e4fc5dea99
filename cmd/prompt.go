package cmd

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed prompts/system.txt
var systemPrompt string

//go:embed prompts/*.tmpl
var promptFS embed.FS

var promptTemplates = template.Must(
	template.New("prompts").Funcs(template.FuncMap{"comma": comma}).ParseFS(promptFS, "prompts/*.tmpl"),
)

// PromptData holds the variables available in the prompt templates.
type PromptData struct {
	Cell     string
	Disease  string
	Sender   string
	Receiver string
	Files    []InputFile
}

// promptTemplateName picks the template for an algorithm and prompt style.
// lianaplus only has the zero-shot form.
func promptTemplateName(algorithm, style string) (string, error) {
	switch algorithm {
	case AlgorithmS2C2:
		if style == PromptEnhancedFewShot {
			return "enhanced_few_shot.tmpl", nil
		}
		return "simple_zero_shot.tmpl", nil
	case AlgorithmLianaPlus:
		return "simple_zero_shot.tmpl", nil
	case AlgorithmNicheNet:
		return "nichenet.tmpl", nil
	}
	return "", fmt.Errorf("no prompt template for algorithm %q", algorithm)
}

// buildPrompt renders the user content for the selected algorithm.
func buildPrompt(opts RunOptions, inputs Inputs) (string, error) {
	name, err := promptTemplateName(opts.Algorithm, opts.PromptStyle)
	if err != nil {
		return "", err
	}
	sender, receiver, _ := parseCellPair(opts.Cell)
	data := PromptData{
		Cell:     opts.Cell,
		Disease:  opts.Disease,
		Sender:   sender,
		Receiver: receiver,
		Files:    inputs.Files,
	}
	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
