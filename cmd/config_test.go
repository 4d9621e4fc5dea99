package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlagSet(opts *RunOptions) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringVar(&opts.Disease, "disease", "", "")
	fs.StringVar(&opts.Algorithm, "algorithm", AlgorithmS2C2, "")
	fs.StringVar(&opts.LRFile, "lr-file", "", "")
	fs.Float64Var(&opts.Temperature, "temperature", 0.7, "")
	fs.IntVar(&opts.Seed, "seed", 0, "")
	return fs
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "crosstalk.yaml", `
disease: Parkinson's disease
algorithm: nichenet
lr_file: data/LR.csv
temperature: 0.2
seed: 7
`)
	var opts RunOptions
	fs := testFlagSet(&opts)
	require.NoError(t, fs.Parse([]string{"--temperature", "0.9"}))

	skipped, err := loadConfigDefaults(path, fs, nil)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, "Parkinson's disease", opts.Disease)
	assert.Equal(t, AlgorithmNicheNet, opts.Algorithm)
	assert.Equal(t, "data/LR.csv", opts.LRFile)
	assert.Equal(t, 7, opts.Seed)
	assert.True(t, fs.Changed("seed"))
	// The command line wins over the config file.
	assert.InDelta(t, 0.9, opts.Temperature, 1e-9)
}

func TestLoadConfigDefaultsErrors(t *testing.T) {
	dir := t.TempDir()
	var opts RunOptions

	_, err := loadConfigDefaults(writeFixture(t, dir, "unknown.yaml", "colour: blue\nmodel_name: x\n"), testFlagSet(&opts), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys: colour, model_name")

	_, err = loadConfigDefaults(writeFixture(t, dir, "bad.yaml", "seed: many\n"), testFlagSet(&opts), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid value for seed")

	_, err = loadConfigDefaults(writeFixture(t, dir, "list.yaml", "- a\n- b\n"), testFlagSet(&opts), nil)
	assert.Error(t, err)

	_, err = loadConfigDefaults(filepath.Join(dir, "missing.yaml"), testFlagSet(&opts), nil)
	assert.Error(t, err)

	_, err = loadConfigDefaults("", testFlagSet(&opts), nil)
	assert.NoError(t, err)

	for name, content := range map[string]string{
		"sequence": "lr-file:\n  - a.csv\n  - b.csv\n",
		"mapping":  "disease:\n  name: AD\n",
	} {
		_, err = loadConfigDefaults(writeFixture(t, dir, name+".yaml", content), testFlagSet(&opts), nil)
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "must be a single value", name)
	}

	_, err = loadConfigDefaults(writeFixture(t, dir, "self.yaml", "config: other.yaml\n"), testFlagSet(&opts), map[string]bool{"config": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be set from a config file")
}

func TestLoadConfigDefaultsSkipsEmptyValues(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "empty.yaml", "lr-file:\ndisease: ~\nalgorithm: nichenet\n")
	var opts RunOptions
	fs := testFlagSet(&opts)

	_, err := loadConfigDefaults(path, fs, nil)
	require.NoError(t, err)
	assert.Empty(t, opts.LRFile)
	assert.Empty(t, opts.Disease)
	assert.False(t, fs.Changed("lr-file"))
	assert.Equal(t, AlgorithmNicheNet, opts.Algorithm)
}

func TestLoadConfigDefaultsSharedAcrossCommands(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "shared.yaml", "disease: Parkinson's disease\ncontext-size: 4096\nsite_name: lab\n")
	known := knownFlagNames(rootCmd)
	for _, name := range []string{"context-size", "thinking-budget", "site-url", "host", "verbose", "env-file", "no-markdown"} {
		assert.True(t, known[name], name)
	}

	var opts RunOptions
	skipped, err := loadConfigDefaults(path, testFlagSet(&opts), known)
	require.NoError(t, err)
	assert.Equal(t, []string{"context-size", "site_name"}, skipped)
	assert.Equal(t, "Parkinson's disease", opts.Disease)

	var checkOpts RunOptions
	checkFlags := pflag.NewFlagSet("check", pflag.ContinueOnError)
	checkFlags.StringVar(&checkOpts.Model, "model", "", "")
	skipped, err = loadConfigDefaults(path, checkFlags, known)
	require.NoError(t, err)
	assert.Equal(t, []string{"context-size", "disease", "site_name"}, skipped)
}

func TestLoadConfigDefaultsSetsInheritedFlags(t *testing.T) {
	var verboseFlag bool
	var envPath string
	root := &cobra.Command{Use: "root"}
	root.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "")
	root.PersistentFlags().StringVar(&envPath, "env-file", ".env", "")
	sub := newRunCommand(ollamaSpec)
	root.AddCommand(sub)
	require.NoError(t, sub.ParseFlags(nil))

	path := writeFixture(t, t.TempDir(), "root.yaml", "verbose: true\nenv-file: secrets.env\n")
	_, err := loadConfigDefaults(path, sub.Flags(), knownFlagNames(root))
	require.NoError(t, err)
	assert.True(t, verboseFlag)
	assert.Equal(t, "secrets.env", envPath)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, loadEnvFile(filepath.Join(dir, ".env")))
	assert.NoError(t, loadEnvFile(""))

	t.Setenv(OpenRouterAPIKeyEnv, "from-shell")
	t.Setenv(GeminiAPIKeyEnv, "")
	require.NoError(t, os.Unsetenv(GeminiAPIKeyEnv))
	path := writeFixture(t, dir, ".env", "GEMINI_API_KEY='from-dotenv'\nOPENROUTER_API_KEY=from-file\n")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-dotenv", os.Getenv(GeminiAPIKeyEnv))
	assert.Equal(t, "from-shell", os.Getenv(OpenRouterAPIKeyEnv))
}
