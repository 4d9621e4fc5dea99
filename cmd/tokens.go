package cmd

import (
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// comma formats n with thousands separators.
func comma(n int) string {
	return humanize.Comma(int64(n))
}

// estimateTokens approximates the token count of text at four characters per token.
func estimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// ContextAnalysis summarises how much of a model's window the inputs use.
type ContextAnalysis struct {
	Chars           int
	EstimatedTokens int
	Limit           int
}

// UsagePercent is the share of the limit consumed by the estimate.
func (a ContextAnalysis) UsagePercent() float64 {
	if a.Limit <= 0 {
		return 0
	}
	return float64(a.EstimatedTokens) / float64(a.Limit) * 100
}

// Fits reports whether the estimate is within the limit.
func (a ContextAnalysis) Fits() bool {
	return a.EstimatedTokens <= a.Limit
}

func analyzeContext(in Inputs, limit int) ContextAnalysis {
	content := in.Content()
	return ContextAnalysis{
		Chars:           in.TotalChars(),
		EstimatedTokens: estimateTokens(content),
		Limit:           limit,
	}
}
