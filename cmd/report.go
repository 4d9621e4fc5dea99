package cmd

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var reportTemplates = template.Must(
	template.New("reports").Funcs(template.FuncMap{"comma": comma}).ParseFS(templateFS, "templates/*.tmpl"),
)

// Report is the data bound into report.html.tmpl.
type Report struct {
	ProviderTitle string
	GeneratedAt   time.Time
	Metadata      []MetadataItem
	Files         []InputFile
	TotalChars    int
	Body          template.HTML
}

// ErrorReport is the data bound into error.html.tmpl.
type ErrorReport struct {
	ProviderTitle string
	GeneratedAt   time.Time
	Items         []MetadataItem
}

// reportInput gathers what a successful run knows when it writes its report.
type reportInput struct {
	Spec        providerSpec
	Opts        RunOptions
	RunID       string
	Inputs      Inputs
	Response    *ChatResponse
	Text        string
	Elapsed     time.Duration
	GeneratedAt time.Time
	Markdown    bool
}

func buildReport(in reportInput) (Report, error) {
	body, err := renderMarkdown(in.Text, in.Markdown)
	if err != nil {
		return Report{}, err
	}

	contextLabel := "Context limit"
	if in.Spec.ContextFromFlag {
		contextLabel = "Context size"
	}
	items := []MetadataItem{
		{"Generated at", in.GeneratedAt.Format(time.DateTime)},
		{"Cell communication type", in.Opts.Cell},
		{"Disease context", in.Opts.Disease},
		{"Model", in.Opts.Model},
		{"Temperature", formatFloat(in.Opts.Temperature)},
		{"Max tokens", strconv.Itoa(in.Opts.MaxTokens)},
		{contextLabel, comma(in.Spec.ContextLimit(in.Opts)) + " tokens"},
	}
	if in.Spec.Metadata != nil {
		items = append(items, in.Spec.Metadata(in.Opts)...)
	}
	items = append(items,
		MetadataItem{"Algorithm", in.Opts.Algorithm},
		MetadataItem{"Prompt", in.Opts.PromptStyle},
		MetadataItem{"Processing time", fmt.Sprintf("%.2f seconds", in.Elapsed.Seconds())},
		MetadataItem{"Response length", comma(len([]rune(in.Text))) + " characters"},
		MetadataItem{"Estimated tokens", comma(estimateTokens(in.Text))},
	)
	if in.Response != nil && in.Response.Usage != nil && in.Response.Usage.TotalTokens > 0 {
		items = append(items, MetadataItem{"Actual tokens used", comma(in.Response.Usage.TotalTokens)})
	}
	if in.RunID != "" {
		items = append(items, MetadataItem{"Run ID", in.RunID})
	}

	return Report{
		ProviderTitle: in.Spec.Title,
		GeneratedAt:   in.GeneratedAt,
		Metadata:      items,
		Files:         in.Inputs.Files,
		TotalChars:    in.Inputs.TotalChars(),
		Body:          body,
	}, nil
}

func buildErrorReport(spec providerSpec, opts RunOptions, cause error, at time.Time) ErrorReport {
	return ErrorReport{
		ProviderTitle: spec.Title,
		GeneratedAt:   at,
		Items: []MetadataItem{
			{"Timestamp", at.Format(time.DateTime)},
			{"Error Type", errorTypeName(cause)},
			{"Error Message", cause.Error()},
			{"Model", opts.Model},
			{"Algorithm", opts.Algorithm},
			{"Context Limit", comma(spec.ContextLimit(opts)) + " tokens"},
			{"Max Tokens", strconv.Itoa(opts.MaxTokens)},
		},
	}
}

// errorTypeName names the outermost error type in err's chain that is not a
// plain fmt.Errorf wrapper, e.g. *cmd.APIError, genai.APIError or *url.Error.
func errorTypeName(err error) string {
	for err != nil {
		t := reflect.TypeOf(err)
		if !isWrapperType(t) {
			return t.String()
		}
		next := errors.Unwrap(err)
		if next == nil {
			return t.String()
		}
		err = next
	}
	return "error"
}

func isWrapperType(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath() == "fmt"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func renderTemplate(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// writeHTML renders the named template to path, creating parent directories.
// It returns the number of bytes written.
func writeHTML(path, name string, data any) (int, error) {
	out, err := renderTemplate(name, data)
	if err != nil {
		return 0, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return len(out), nil
}

func writeReport(path string, r Report) (int, error) {
	return writeHTML(path, "report.html.tmpl", r)
}

func writeErrorReport(path string, r ErrorReport) (int, error) {
	return writeHTML(path, "error.html.tmpl", r)
}
