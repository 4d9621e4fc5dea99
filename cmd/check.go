package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrModelUnavailable is returned by check when the provider does not list the model.
var ErrModelUnavailable = errors.New("model not available")

func newCheckCommand() *cobra.Command {
	opts := &RunOptions{}
	names := make([]string, 0, len(providerSpecs))
	for name := range providerSpecs {
		names = append(names, name)
	}
	slices.Sort(names)

	cmd := &cobra.Command{
		Use:       "check <provider>",
		Short:     "Check that a model is reachable on a provider",
		Long:      "Check asks the provider whether --model (or the provider's default model) is available, without sending a prompt.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			spec := providerSpecs[args[0]]
			return runCheck(cmd.Context(), cmd.OutOrStdout(), spec, *opts, spec.New)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Model, "model", "", "Model to look up (default: the provider's default model)")
	f.StringVar(&opts.APIKey, "api-key", "", "API key (default: provider environment variable)")
	f.StringVar(&opts.Host, "host", "", "Ollama server URL")
	return cmd
}

func runCheck(ctx context.Context, out io.Writer, spec providerSpec, opts RunOptions,
	newProvider func(context.Context, RunOptions) (LLMProvider, error)) error {
	c := newConsole(out)
	if opts.Model == "" {
		opts.Model = spec.DefaultModel
	}
	if _, err := spec.ResolveAPIKey(&opts); err != nil {
		c.Error("Error: %s", err)
		return err
	}
	provider, err := newProvider(ctx, opts)
	if err != nil {
		c.Error("Error initializing %s client: %s", spec.Title, err)
		return err
	}
	ok, err := provider.Available(ctx, opts.Model)
	if err != nil {
		logger.Error("availability check failed", zap.String("provider", spec.Name), zap.Error(err))
		c.Error("Error checking %s on %s: %s", opts.Model, spec.Title, err)
		return err
	}
	if !ok {
		c.Error("Model %s is not available on %s", opts.Model, spec.Title)
		return fmt.Errorf("%s on %s: %w", opts.Model, spec.Name, ErrModelUnavailable)
	}
	c.OK("Model %s is available on %s", opts.Model, spec.Title)
	return nil
}
