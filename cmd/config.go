package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// configFlagName is the flag that names the config file; it cannot be set from it.
const configFlagName = "config"

// loadEnvFile loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// knownFlagNames collects the flag names of root and every subcommand, so one
// config file can serve all of them.
func knownFlagNames(root *cobra.Command) map[string]bool {
	names := make(map[string]bool)
	add := func(f *pflag.Flag) { names[f.Name] = true }
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.PersistentFlags().VisitAll(add)
		c.LocalFlags().VisitAll(add)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(root)
	return names
}

// loadConfigDefaults reads a YAML mapping of flag names to values and applies
// each value to the matching flag unless the user set that flag explicitly.
//
//	disease: Parkinson's disease
//	algorithm: nichenet
//	lr-file: data/LR.csv
//
// Keys that flags does not define but known does belong to another command
// and are returned as skipped. Keys nobody defines are an error. Empty
// values are ignored.
func loadConfigDefaults(path string, flags *pflag.FlagSet, known map[string]bool) (skipped []string, err error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var unknown []string
	for _, key := range keys {
		name := strings.ReplaceAll(key, "_", "-")
		if name == configFlagName {
			return nil, fmt.Errorf("config %s: %s cannot be set from a config file", path, key)
		}
		f := flags.Lookup(name)
		if f == nil {
			if known[name] {
				skipped = append(skipped, key)
			} else {
				unknown = append(unknown, key)
			}
			continue
		}
		value := values[key]
		switch value.(type) {
		case nil:
			continue
		case []any, map[string]any:
			return nil, fmt.Errorf("config %s: %s must be a single value, not a list or mapping", path, key)
		}
		if f.Changed {
			continue
		}
		if err := f.Value.Set(fmt.Sprint(value)); err != nil {
			return nil, fmt.Errorf("config %s: invalid value for %s: %w", path, key, err)
		}
		// Mark as set so optional flags such as --seed count as given.
		f.Changed = true
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(unknown, ", "))
	}
	return skipped, nil
}
