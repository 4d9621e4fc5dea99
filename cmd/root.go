package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose    bool
	envFile    string
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "crosstalk-llm",
	Short: "Generate ligand–receptor hypotheses from cell–cell crosstalk data with an LLM",
	Long: `crosstalk-llm reads ligand–receptor signaling tables (s2c2, LIANA+ or NicheNet
output), builds a hypothesis-generation prompt for a cell pair and disease, sends
it to Gemini, a local Ollama server or OpenRouter, and writes the reply as a
styled HTML report.`,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The config file may set --verbose and --env-file, so it goes first.
		skipped, err := loadConfigDefaults(configFile, cmd.Flags(), knownFlagNames(cmd.Root()))
		if err != nil {
			return err
		}
		l, err := newLogger(verbose)
		if err != nil {
			return err
		}
		logger = l
		if len(skipped) > 0 {
			logger.Debug("config keys ignored by this command",
				zap.String("command", cmd.Name()),
				zap.Strings("keys", skipped))
		}
		if err := loadEnvFile(envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		logger.Debug("configuration loaded",
			zap.String("command", cmd.Name()),
			zap.String("env_file", envFile),
			zap.String("config", configFile))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before API keys are looked up")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML file of flag defaults (keys are flag names)")

	for _, spec := range []providerSpec{geminiSpec, ollamaSpec, openRouterSpec} {
		rootCmd.AddCommand(newRunCommand(spec))
	}
	rootCmd.AddCommand(newCheckCommand())
}

// newRunCommand builds the subcommand that runs one analysis against spec's provider.
func newRunCommand(spec providerSpec) *cobra.Command {
	opts := &RunOptions{}
	var noMarkdown bool
	cmd := &cobra.Command{
		Use:   spec.Name,
		Short: fmt.Sprintf("Run hypothesis generation against %s", spec.Title),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			opts.SeedSet = opts.SeedSet || cmd.Flags().Changed("seed")
			opts.ThinkingSet = cmd.Flags().Changed("thinking-budget")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := newRunner(spec, *opts, cmd.OutOrStdout())
			r.markdown = !noMarkdown
			_, err := r.Run(ctx)
			return err
		},
	}
	bindRunFlags(cmd, spec, opts)
	cmd.Flags().BoolVar(&noMarkdown, "no-markdown", false, "Embed the response as preformatted text instead of rendering Markdown")
	return cmd
}

func bindRunFlags(cmd *cobra.Command, spec providerSpec, opts *RunOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.Cell, "cell", "astrocyte-excitatory neuron", "Cell-cell communication type as sender-receiver (e.g., astrocyte-excitatory neuron)")
	f.StringVar(&opts.Disease, "disease", "Alzheimer's disease", "Disease context (e.g., Alzheimer's disease)")
	f.StringVar(&opts.Model, "model", spec.DefaultModel, fmt.Sprintf("%s model to use", spec.Title))
	f.Float64Var(&opts.Temperature, "temperature", spec.DefaultTemperature, "Model temperature")
	f.IntVar(&opts.MaxTokens, "max-tokens", spec.DefaultMaxTokens, "Maximum tokens to generate")
	f.StringVar(&opts.Algorithm, "algorithm", AlgorithmS2C2, "Algorithm whose output is analysed: s2c2, lianaplus or nichenet")
	f.StringVar(&opts.PromptStyle, "prompt", spec.DefaultPrompt, "Prompt type for s2c2: enhanced-few-shot or simple-zero-shot")
	f.StringVar(&opts.BranchesFile, "significant-branches-file", "./LLM_significant_branches.csv", "Path to the significant branches file (s2c2)")
	for i := range opts.ExampleFiles {
		n := i + 1
		f.StringVar(&opts.ExampleFiles[i], fmt.Sprintf("example%d-file", n), fmt.Sprintf("./prompt/example%d.txt", n),
			fmt.Sprintf("Path to analogical example %d (s2c2 with enhanced-few-shot)", n))
	}
	f.StringVar(&opts.LianaFile, "liana-result", "./liana_result.csv", "Path to the LIANA+ result file (lianaplus)")
	f.StringVar(&opts.LRFile, "lr-file", "", "Path to the LR.csv file (nichenet)")
	f.StringVar(&opts.LTFile, "lt-file", "", "Path to the LT.csv file (nichenet)")
	f.StringVar(&opts.ResultsDir, "results-dir", ".", "Directory to save output files (default: results/run_<timestamp>)")

	if spec.DefaultSeed != nil {
		opts.SeedSet = true
		f.IntVar(&opts.Seed, "seed", *spec.DefaultSeed, "Random seed for reproducible outputs")
	} else {
		f.IntVar(&opts.Seed, "seed", 0, "Random seed for reproducible outputs (default: random)")
	}

	switch spec.Name {
	case geminiSpec.Name:
		f.StringVar(&opts.APIKey, "api-key", "", "Gemini API key (default: $"+GeminiAPIKeyEnv+")")
		f.IntVar(&opts.ThinkingBudget, "thinking-budget", 0, "Thinking budget in tokens; 0 disables thinking (default: model default)")
	case ollamaSpec.Name:
		f.IntVar(&opts.ContextSize, "context-size", spec.DefaultContextLimit, "Context window size")
		f.StringVar(&opts.Host, "host", "", "Ollama server URL (default: $OLLAMA_HOST or http://127.0.0.1:11434)")
	case openRouterSpec.Name:
		f.StringVar(&opts.APIKey, "api-key", "", "OpenRouter API key (default: $"+OpenRouterAPIKeyEnv+")")
		f.StringVar(&opts.SiteURL, "site-url", "", "Site URL sent as HTTP-Referer for openrouter.ai rankings")
		f.StringVar(&opts.SiteName, "site-name", "", "Site name sent as X-Title for openrouter.ai rankings")
	}
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil && !IsValidationError(err) {
		// Validation failures were already reported by the run itself.
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
