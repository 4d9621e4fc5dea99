package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// completeResponseChars is the length above which a reply is assumed untruncated.
const completeResponseChars = 1000

// runner executes one hypothesis-generation run against one provider.
type runner struct {
	spec     providerSpec
	opts     RunOptions
	markdown bool

	out         io.Writer
	now         func() time.Time
	newProvider func(ctx context.Context, opts RunOptions) (LLMProvider, error)
}

func newRunner(spec providerSpec, opts RunOptions, out io.Writer) *runner {
	return &runner{
		spec:        spec,
		opts:        opts,
		markdown:    true,
		out:         out,
		now:         time.Now,
		newProvider: spec.New,
	}
}

// runResult is what a finished run reports back to the command.
type runResult struct {
	OutputPath string
	RunID      string
	Text       string
}

// Run validates the options, reads the inputs, sends one chat request and
// writes the HTML report. Any returned error means the run failed.
func (r *runner) Run(ctx context.Context) (*runResult, error) {
	c := newConsole(r.out)
	opts := r.opts

	if err := r.spec.Validate(opts); err != nil {
		c.Error("Error: %s", err)
		return nil, err
	}
	keySource, err := r.spec.ResolveAPIKey(&opts)
	if err != nil {
		c.Error("Error: %s", err)
		return nil, err
	}
	c.OK("All required parameters validated successfully!")
	if keySource != "" {
		c.Printf("Using %s API key from %s\n", r.spec.Title, keySource)
	}
	if r.spec.ContextFromFlag {
		r.adviseContextSize(c, opts)
	}

	startedAt := r.now()
	runID := uuid.NewString()
	outputPath := reportPath(r.spec.Name, opts, startedAt)
	log := logger.With(
		zap.String("run_id", runID),
		zap.String("provider", r.spec.Name),
		zap.String("model", opts.Model),
		zap.String("algorithm", opts.Algorithm),
	)
	c.Printf("Output file will be saved to: %s\n", outputPath)

	sender, receiver, ok := parseCellPair(opts.Cell)
	if !ok {
		c.Warn("No '-' found in cell type '%s'. Using default receiver.", opts.Cell)
		log.Warn("cell pair has no separator", zap.String("cell", opts.Cell))
	}
	c.Printf("Parsed cell types - Sender: '%s', Receiver: '%s'\n", sender, receiver)

	provider, err := r.newProvider(ctx, opts)
	if err != nil {
		c.Error("Error initializing %s client: %s", r.spec.Title, err)
		return nil, err
	}

	limit := r.spec.ContextLimit(opts)
	c.Section(fmt.Sprintf("Analysis Started at %s", startedAt.Format(time.DateTime)))
	c.Println("Reading files...")
	c.Printf("Algorithm: %s\n", opts.Algorithm)
	c.Printf("Model: %s\n", opts.Model)
	c.Printf("Temperature: %s\n", formatFloat(opts.Temperature))
	c.Printf("Max tokens: %d\n", opts.MaxTokens)
	c.Printf("Context limit: %s tokens\n", comma(limit))
	for _, item := range r.spec.Metadata(opts) {
		c.Printf("%s: %s\n", item.Label, item.Value)
	}
	c.Printf("Output file: %s\n", outputPath)
	c.Println()

	inputs, err := readInputs(c, opts)
	if err != nil {
		c.Error("Error reading files: %s. Aborting...", err)
		return nil, err
	}
	defer r.printSummary(c, startedAt, inputs)

	analysis := analyzeContext(inputs, limit)
	r.printContextAnalysis(c, analysis)

	buildStart := r.now()
	userContent, err := buildPrompt(opts, inputs)
	if err != nil {
		c.Error("Error building prompt: %s", err)
		return nil, err
	}

	c.Section("Request Details")
	c.Printf("Model: %s\n", opts.Model)
	c.Printf("Context limit: %s tokens\n", comma(limit))
	c.Printf("Temperature: %s\n", formatFloat(opts.Temperature))
	c.Printf("Max tokens: %d\n", opts.MaxTokens)
	c.Printf("Prompt: %s\n", opts.PromptStyle)
	c.Printf("Cell type: %s\n", opts.Cell)
	c.Printf("Disease context: %s\n", opts.Disease)
	c.Printf("Total content size: %s characters\n", comma(inputs.TotalChars()))
	c.Printf("Request build time: %.2f seconds\n", r.now().Sub(buildStart).Seconds())

	c.Section(fmt.Sprintf("Sending request to %s %s", r.spec.Title, opts.Model))
	callStart := r.now()
	log.Debug("sending chat request", zap.Int("prompt_chars", len([]rune(userContent))))
	resp, err := provider.Chat(ctx, ChatRequest{
		Model:          opts.Model,
		System:         systemPrompt,
		User:           userContent,
		Temperature:    opts.Temperature,
		MaxTokens:      opts.MaxTokens,
		Seed:           opts.SeedPtr(),
		ThinkingBudget: opts.ThinkingBudgetPtr(),
		ContextSize:    opts.ContextSize,
	})
	elapsed := r.now().Sub(callStart)
	if err != nil {
		log.Error("chat request failed",
			zap.String("error_type", errorTypeName(err)),
			zap.Error(err),
			zap.Duration("elapsed", elapsed))
		r.writeFailure(c, outputPath, opts, err)
		return nil, fmt.Errorf("%s request failed: %w", r.spec.Title, err)
	}
	log.Info("chat request completed", zap.Duration("elapsed", elapsed))

	text := r.printResponseDiagnostics(c, resp)

	finishedAt := r.now()
	c.Section("Timing Results")
	c.Printf("File reading time: %.2f seconds\n", buildStart.Sub(startedAt).Seconds())
	c.Printf("%s processing time: %.2f seconds\n", r.spec.Title, elapsed.Seconds())
	c.Printf("Total execution time: %.2f seconds\n", finishedAt.Sub(startedAt).Seconds())
	c.Printf("Analysis completed at: %s\n", finishedAt.Format(time.DateTime))

	if u := resp.Usage; u != nil {
		c.Section("Token Usage")
		c.Printf("Prompt tokens: %s\n", comma(u.PromptTokens))
		c.Printf("Completion tokens: %s\n", comma(u.CompletionTokens))
		c.Printf("Total tokens: %s\n", comma(u.TotalTokens))
	}

	r.printQualityCheck(c, text, inputs)

	c.Section("Saving LLM Response")
	c.Printf("Writing response to: %s\n", outputPath)
	report, err := buildReport(reportInput{
		Spec:        r.spec,
		Opts:        opts,
		RunID:       runID,
		Inputs:      inputs,
		Response:    resp,
		Text:        text,
		Elapsed:     elapsed,
		GeneratedAt: finishedAt,
		Markdown:    r.markdown,
	})
	if err == nil {
		var size int
		size, err = writeReport(outputPath, report)
		if err == nil {
			c.OK("Successfully saved LLM response to: %s", outputPath)
			c.Printf("   File size: %s bytes\n", comma(size))
		}
	}
	if err != nil {
		log.Error("failed to save report", zap.String("path", outputPath), zap.Error(err))
		c.Error("Error saving LLM response to file: %s", err)
		c.Println("   Response will only be displayed in console")
		outputPath = ""
	}

	c.Section(fmt.Sprintf("%s Response", r.spec.Title))
	c.Println(text)

	return &runResult{OutputPath: outputPath, RunID: runID, Text: text}, nil
}

func (r *runner) adviseContextSize(c *console, opts RunOptions) {
	suggested, ok := r.spec.SuggestedContext(opts.Model)
	switch {
	case !ok:
		c.Printf("ℹ️  No specific context limit found for model '%s', using provided context size: %s\n", opts.Model, comma(opts.ContextSize))
	case opts.ContextSize > suggested:
		c.Warn("Requested context size (%s) exceeds suggested limit for %s (%s)", comma(opts.ContextSize), opts.Model, comma(suggested))
		c.Printf("   Using requested context size: %s\n", comma(opts.ContextSize))
	default:
		c.OK("Context size (%s) is within suggested limit for %s (%s)", comma(opts.ContextSize), opts.Model, comma(suggested))
	}
}

func (r *runner) printContextAnalysis(c *console, a ContextAnalysis) {
	c.Section("Context Analysis")
	c.Printf("Total content characters: %s\n", comma(a.Chars))
	c.Printf("Estimated tokens: %s\n", comma(a.EstimatedTokens))
	c.Printf("Context limit: %s tokens\n", comma(a.Limit))
	c.Printf("Context usage: %.1f%%\n", a.UsagePercent())
	if a.Fits() {
		c.OK("Content should fit within context limit")
		return
	}
	c.Warn("WARNING: Content may exceed context limit!")
}

// printResponseDiagnostics prints provider diagnostics and returns the text
// to report, substituting a placeholder for an empty reply.
func (r *runner) printResponseDiagnostics(c *console, resp *ChatResponse) string {
	if len(resp.Diagnostics) > 0 {
		c.Section("Response Diagnostics")
		for _, line := range resp.Diagnostics {
			c.Println(line)
		}
	}
	if strings.TrimSpace(resp.Text) != "" {
		return resp.Text
	}
	c.Println()
	c.Warn("Warning: %s returned an empty response", r.spec.Title)
	c.Println("This is likely due to:")
	c.Println("1. Content safety filters")
	c.Println("2. Input too long for the model")
	c.Println("3. Model unable to process the request")
	c.Println("4. API rate limiting or temporary issues")
	if resp.FinishReason != "" {
		c.Printf("→ Finish reason: %s\n", resp.FinishReason)
	}
	return fmt.Sprintf("No content generated by %s API. Check the diagnostics above for details.", r.spec.Title)
}

func (r *runner) printQualityCheck(c *console, text string, inputs Inputs) {
	length := len([]rune(text))
	c.Section("Response Quality Check")
	c.Printf("Response length: %s characters\n", comma(length))
	c.Printf("Estimated response tokens: %s\n", comma(estimateTokens(text)))
	c.Check("Response seems complete", length > completeResponseChars, "⚠️  Possibly truncated or empty")

	lower := strings.ToLower(text)
	c.Section("Content Inclusion Verification")
	c.Check("Pathway data referenced", strings.Contains(lower, "pathway") || strings.Contains(lower, "branch"), "❌ No")
	c.Check("Hypotheses generated", strings.Contains(lower, "hypothes"), "❌ No")
	c.Check("PAS scores mentioned", strings.Contains(lower, "pas") || strings.Contains(lower, "pathway activity score"), "❌ No")
	c.Check("Step-by-step analysis", strings.Contains(lower, "step"), "❌ No")
	c.Check("All files successfully read", inputs.AllNonEmpty(), "❌ Check file paths")
}

// writeFailure reports a failed provider call and writes the error report.
// A failed write only downgrades the run to console output.
func (r *runner) writeFailure(c *console, path string, opts RunOptions, cause error) {
	c.Error("Error communicating with %s: %s", r.spec.Title, cause)
	c.Printf("Error type: %s\n", errorTypeName(cause))
	report := buildErrorReport(r.spec, opts, cause, r.now())
	if _, err := writeErrorReport(path, report); err != nil {
		logger.Warn("failed to write error report", zap.String("path", path), zap.Error(err))
		return
	}
	c.Printf("Error report written to: %s\n", path)
}

func (r *runner) printSummary(c *console, startedAt time.Time, inputs Inputs) {
	end := r.now()
	c.Section("Analysis Summary")
	c.Printf("Start time: %s\n", startedAt.Format(time.DateTime))
	c.Printf("End time: %s\n", end.Format(time.DateTime))
	c.Printf("Total duration: %.2f seconds\n", end.Sub(startedAt).Seconds())
	c.Println("Files processed: ")
	for _, f := range inputs.Files {
		c.Printf("  - %s (%s chars)\n", f.BaseName(), comma(f.Size))
	}
	c.Printf("  - Total: %s characters\n", comma(inputs.TotalChars()))
	c.Printf("Algorithm: %s\n", inputs.Algorithm)
}
