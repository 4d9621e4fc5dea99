package cmd

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
)

const (
	AlgorithmS2C2      = "s2c2"
	AlgorithmLianaPlus = "lianaplus"
	AlgorithmNicheNet  = "nichenet"

	PromptEnhancedFewShot = "enhanced-few-shot"
	PromptSimpleZeroShot  = "simple-zero-shot"
)

// Algorithms lists the accepted --algorithm values.
var Algorithms = []string{AlgorithmS2C2, AlgorithmLianaPlus, AlgorithmNicheNet}

// PromptStyles lists the accepted --prompt values.
var PromptStyles = []string{PromptEnhancedFewShot, PromptSimpleZeroShot}

// RunOptions is the flat run configuration collected from flags.
type RunOptions struct {
	Cell        string
	Disease     string
	Model       string
	Temperature float64
	MaxTokens   int

	Seed           int
	SeedSet        bool
	ThinkingBudget int
	ThinkingSet    bool
	ContextSize    int

	APIKey   string
	SiteURL  string
	SiteName string
	Host     string

	Algorithm   string
	PromptStyle string

	BranchesFile string
	ExampleFiles [3]string
	LianaFile    string
	LRFile       string
	LTFile       string

	ResultsDir string
}

// SeedPtr returns the seed when one was given, nil otherwise.
func (o RunOptions) SeedPtr() *int {
	if !o.SeedSet {
		return nil
	}
	seed := o.Seed
	return &seed
}

// ThinkingBudgetPtr returns the thinking budget when one was given, nil otherwise.
func (o RunOptions) ThinkingBudgetPtr() *int {
	if !o.ThinkingSet {
		return nil
	}
	budget := o.ThinkingBudget
	return &budget
}

// ValidationError reports a configuration problem found before any network call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// requiredInput names one flag-supplied path the algorithm needs.
type requiredInput struct {
	Flag  string
	Label string
	Path  string
}

// requiredInputs returns the files the algorithm reads, in prompt order.
// Paths belonging to other algorithms are never included.
func (o RunOptions) requiredInputs() []requiredInput {
	switch o.Algorithm {
	case AlgorithmS2C2:
		inputs := []requiredInput{{"significant-branches-file", "Significant branches file", o.BranchesFile}}
		if o.PromptStyle == PromptEnhancedFewShot {
			for i, p := range o.ExampleFiles {
				inputs = append(inputs, requiredInput{
					Flag:  fmt.Sprintf("example%d-file", i+1),
					Label: fmt.Sprintf("Example %d", i+1),
					Path:  p,
				})
			}
		}
		return inputs
	case AlgorithmLianaPlus:
		return []requiredInput{{"liana-result", "Liana result file", o.LianaFile}}
	case AlgorithmNicheNet:
		return []requiredInput{
			{"lr-file", "LR file", o.LRFile},
			{"lt-file", "LT file", o.LTFile},
		}
	}
	return nil
}

// Validate checks the options in the order a user would fix them. It only
// stats files of the selected algorithm.
func (o RunOptions) Validate() error {
	if strings.TrimSpace(o.Cell) == "" {
		return invalidf("--cell parameter is required")
	}
	if strings.TrimSpace(o.Disease) == "" {
		return invalidf("--disease parameter is required")
	}
	if strings.TrimSpace(o.Model) == "" {
		return invalidf("--model parameter is required")
	}
	if !slices.Contains(Algorithms, o.Algorithm) {
		return invalidf("invalid --algorithm %q (choose from %s)", o.Algorithm, strings.Join(Algorithms, ", "))
	}
	if !slices.Contains(PromptStyles, o.PromptStyle) {
		return invalidf("invalid --prompt %q (choose from %s)", o.PromptStyle, strings.Join(PromptStyles, ", "))
	}
	if o.MaxTokens <= 0 || o.MaxTokens > math.MaxInt32 {
		return invalidf("--max-tokens must be between 1 and %d, got %d", math.MaxInt32, o.MaxTokens)
	}
	// Gemini sends these as 32-bit integers.
	if o.SeedSet && (o.Seed < math.MinInt32 || o.Seed > math.MaxInt32) {
		return invalidf("--seed must fit in 32 bits, got %d", o.Seed)
	}
	if o.ThinkingSet && (o.ThinkingBudget < math.MinInt32 || o.ThinkingBudget > math.MaxInt32) {
		return invalidf("--thinking-budget must fit in 32 bits, got %d", o.ThinkingBudget)
	}
	inputs := o.requiredInputs()
	for _, in := range inputs {
		if in.Path == "" {
			return invalidf("--%s is required for %s algorithm", in.Flag, o.Algorithm)
		}
	}
	for _, in := range inputs {
		info, err := os.Stat(in.Path)
		if err != nil {
			return invalidf("File not found: %s", in.Path)
		}
		if info.IsDir() {
			return invalidf("Not a regular file: %s", in.Path)
		}
	}
	return nil
}
