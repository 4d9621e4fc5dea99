package cmd

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixtureInputs(t *testing.T, opts RunOptions) Inputs {
	t.Helper()
	in, err := readInputs(newConsole(io.Discard), opts)
	require.NoError(t, err)
	return in
}

func TestBuildPromptEnhancedFewShot(t *testing.T) {
	opts := fixtureOptions(t, t.TempDir())
	opts.Disease = "Parkinson's disease"
	prompt, err := buildPrompt(opts, readFixtureInputs(t, opts))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "Here are the actual contents of my cell-cell crosstalk data files and example files:"))
	assert.Contains(t, prompt, "=== LLM_significant_branches.csv Content (")
	assert.Contains(t, prompt, "APOE,LRP1,0.91,0.001,LRP1___MAPK1___JUN")
	for _, label := range []string{"Example 1", "Example 2", "Example 3"} {
		assert.Contains(t, prompt, "=== "+label+" (")
	}
	assert.Contains(t, prompt, "Example hypothesis 3")
	assert.Contains(t, prompt, "between **astrocyte (sender)** and **excitatory neuron (receiver)** in **Parkinson's disease**")
	assert.Contains(t, prompt, `assert len(set(top_3[["ligand", "receptor"]].itertuples(index=False))) == 3`)
	assert.NotContains(t, prompt, "{{")
	assert.NotContains(t, prompt, "<no value>")
}

func TestBuildPromptSimpleZeroShot(t *testing.T) {
	opts := fixtureOptions(t, t.TempDir())

	for _, algorithm := range []string{AlgorithmS2C2, AlgorithmLianaPlus} {
		t.Run(algorithm, func(t *testing.T) {
			o := opts
			o.Algorithm = algorithm
			o.PromptStyle = PromptSimpleZeroShot
			in := readFixtureInputs(t, o)
			prompt, err := buildPrompt(o, in)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(prompt, "Based on the provided cell-cell crosstalk data file "+in.Files[0].Content))
			assert.Contains(t, prompt, " between astrocyte-excitatory neuron communication in Alzheimer's disease, generate three biologically meaningful hypotheses")
			assert.NotContains(t, prompt, "Example hypothesis")
		})
	}
}

func TestBuildPromptLianaPlusIgnoresPromptStyle(t *testing.T) {
	opts := fixtureOptions(t, t.TempDir())
	opts.Algorithm = AlgorithmLianaPlus
	opts.PromptStyle = PromptEnhancedFewShot

	prompt, err := buildPrompt(opts, readFixtureInputs(t, opts))
	require.NoError(t, err)
	assert.Contains(t, prompt, "ligand_complex,receptor_complex")
	assert.NotContains(t, prompt, "Step-by-Step Instructions")
}

func TestBuildPromptNicheNet(t *testing.T) {
	opts := fixtureOptions(t, t.TempDir())
	opts.Algorithm = AlgorithmNicheNet
	in := readFixtureInputs(t, opts)

	prompt, err := buildPrompt(opts, in)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "Based on the provided cell-cell crosstalk data files LR.csv, LT.csv between astrocyte-excitatory neuron communication"))
	assert.Contains(t, prompt, "=== LR.csv Content ("+comma(in.Files[0].Size)+" characters) ===\nfrom,to,weight\nAPOE,LRP1,0.8\n")
	assert.Contains(t, prompt, "=== LT.csv Content ("+comma(in.Files[1].Size)+" characters) ===\nligand,target,weight")
}

func TestPromptTemplateName(t *testing.T) {
	name, err := promptTemplateName(AlgorithmS2C2, PromptEnhancedFewShot)
	require.NoError(t, err)
	assert.Equal(t, "enhanced_few_shot.tmpl", name)

	_, err = promptTemplateName("cellchat", PromptEnhancedFewShot)
	assert.Error(t, err)
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, "You are a systems biologist specializing in cell-cell communication and neurodegenerative diseases.", systemPrompt)
}
