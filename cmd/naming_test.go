package cmd

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilenameComponent(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"astrocyte-excitatory neuron", "astrocyte_excitatory_neuron"},
		{"Alzheimer's disease", "Alzheimers_disease"},
		{"openai/gpt-4o", "openai_gpt_4o"},
		{"llama4:scout", "llama4scout"},
		{"gemini-2.5-pro", "gemini_25_pro"},
		{`a\b (c) [d] {e}; f, "g"`, "a_b_c_d_e_f_g"},
		{"astro\tcyte neuron\n", "astro_cyte_neuron_"},
		{"AD\r\ncohort\u00a0B", "AD__cohort_B"},
	}
	for _, c := range testCases {
		assert.Equal(t, c.expected, sanitizeFilenameComponent(c.input))
	}
}

func TestReportFileNameEmbedsRunParameters(t *testing.T) {
	now := time.Date(2024, 12, 1, 14, 30, 52, 0, time.Local)
	algorithms := []string{AlgorithmS2C2, AlgorithmLianaPlus, AlgorithmNicheNet}
	models := []string{"gemini-2.0-flash", "llama4:scout", "meta-llama/llama-3.1-8b-instruct"}

	for _, algorithm := range algorithms {
		for _, model := range models {
			opts := RunOptions{
				Cell:      "microglia - oligodendrocyte\t(OPC)\n",
				Disease:   "Parkinson's disease: early/late",
				Model:     model,
				Algorithm: algorithm,
			}
			name := reportFileName("openrouter", opts, now)

			assert.True(t, strings.HasPrefix(name, "llm_report_openrouter_"), name)
			assert.True(t, strings.HasSuffix(name, "_"+algorithm+"_20241201_143052.html"), name)
			assert.Contains(t, name, sanitizeFilenameComponent(opts.Cell))
			assert.Contains(t, name, sanitizeFilenameComponent(opts.Disease))
			assert.Contains(t, name, sanitizeFilenameComponent(model))
			for _, forbidden := range []string{"/", ":", " ", `\`, "\t", "\n", "\r"} {
				assert.NotContains(t, name, forbidden, name)
			}
		}
	}
}

func TestReportPath(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 5, 1, 0, time.Local)
	opts := RunOptions{Cell: "a-b", Disease: "d", Model: "m", Algorithm: AlgorithmNicheNet}

	// Unset and "." both fall back to a per-run directory.
	for _, dir := range []string{"", ".", "./"} {
		opts.ResultsDir = dir
		path := reportPath("ollama", opts, now)
		assert.Equal(t, filepath.Join("results", "run_20250309_080501"), filepath.Dir(path))
	}

	opts.ResultsDir = filepath.Join("out", "reports")
	path := reportPath("ollama", opts, now)
	assert.Equal(t, filepath.Join("out", "reports", "llm_report_ollama_a_b_d_m_nichenet_20250309_080501.html"), path)
}

func TestParseCellPair(t *testing.T) {
	testCases := []struct {
		cell     string
		sender   string
		receiver string
		ok       bool
	}{
		{"astrocyte-excitatory neuron", "astrocyte", "excitatory neuron", true},
		{" microglia - OPC ", "microglia", "OPC", true},
		{"T cell-B-cell", "T cell", "B-cell", true},
		{"astrocyte", "astrocyte", "receiver cell", false},
	}
	for _, c := range testCases {
		sender, receiver, ok := parseCellPair(c.cell)
		assert.Equal(t, c.sender, sender)
		assert.Equal(t, c.receiver, receiver)
		assert.Equal(t, c.ok, ok)
	}
}
