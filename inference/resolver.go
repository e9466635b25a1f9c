package inference

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/0uali-Yassine/Machine-Learning-deployment-system/config"
)

// package-level seams, replaced in tests
var (
	statFile   = os.Stat
	executable = os.Executable
	getwd      = os.Getwd
	lookupEnv  = os.LookupEnv
)

// Outcome is what one resolution strategy found. Path is empty when the
// strategy could not even name a candidate.
type Outcome struct {
	Strategy string
	Path     string
	Exists   bool
	Err      error
}

type Strategy interface {
	Name() string
	Locate() Outcome
}

// BundledStrategy looks in the directory a packaged executable unpacks its
// resources into: $EnvVar when set, else the executable's own directory.
type BundledStrategy struct {
	EnvVar   string
	Artifact string
}

func (s BundledStrategy) Name() string { return "bundled" }

func (s BundledStrategy) Locate() Outcome {
	base, err := s.baseDir()
	if err != nil {
		return Outcome{Strategy: s.Name(), Err: err}
	}
	return probe(s.Name(), filepath.Join(base, s.Artifact))
}

func (s BundledStrategy) baseDir() (string, error) {
	if s.EnvVar != "" {
		if dir, ok := lookupEnv(s.EnvVar); ok && dir != "" {
			return dir, nil
		}
	}
	exe, err := executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	return filepath.Dir(exe), nil
}

// DevelopmentStrategy looks relative to the project root.
type DevelopmentStrategy struct {
	Root         string
	RelativePath string
}

func (s DevelopmentStrategy) Name() string { return "development" }

func (s DevelopmentStrategy) Locate() Outcome {
	root := s.Root
	if root == "" {
		wd, err := getwd()
		if err != nil {
			return Outcome{Strategy: s.Name(), Err: fmt.Errorf("locating project root: %w", err)}
		}
		root = wd
	}
	return probe(s.Name(), filepath.Join(root, s.RelativePath))
}

func probe(strategy, path string) Outcome {
	_, err := statFile(path)
	switch {
	case err == nil:
		return Outcome{Strategy: strategy, Path: path, Exists: true}
	case errors.Is(err, fs.ErrNotExist):
		return Outcome{Strategy: strategy, Path: path}
	default:
		return Outcome{Strategy: strategy, Path: path, Err: err}
	}
}

// Resolution is the chosen artifact path and how it was reached.
type Resolution struct {
	Path     string
	Strategy string
	Outcomes []Outcome
}

type Resolver struct {
	Strategies []Strategy
}

// NewResolver tries the bundled location first, then the development one.
func NewResolver(cfg config.ModelConfig) *Resolver {
	return &Resolver{Strategies: []Strategy{
		BundledStrategy{EnvVar: cfg.BundleEnv, Artifact: cfg.ArtifactName},
		DevelopmentStrategy{Root: cfg.ProjectRoot, RelativePath: cfg.RelativePath},
	}}
}

// Resolve returns explicit verbatim when given. Otherwise the first
// strategy whose candidate exists wins; when none exists the last named
// candidate is returned unchecked so loading reports it as not found.
// Strategy errors never stop the walk. A ResolutionError is returned only
// when no strategy produced a candidate at all.
func (r *Resolver) Resolve(explicit string) (Resolution, error) {
	if explicit != "" {
		return Resolution{Path: explicit, Strategy: "explicit"}, nil
	}

	var (
		resolution Resolution
		fallback   *Outcome
		failures   []string
	)
	for _, strategy := range r.Strategies {
		outcome := strategy.Locate()
		resolution.Outcomes = append(resolution.Outcomes, outcome)
		if outcome.Exists {
			resolution.Path = outcome.Path
			resolution.Strategy = outcome.Strategy
			return resolution, nil
		}
		if outcome.Err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", outcome.Strategy, outcome.Err))
		}
		if outcome.Path != "" {
			last := outcome
			fallback = &last
		}
	}

	if fallback != nil {
		resolution.Path = fallback.Path
		resolution.Strategy = fallback.Strategy
		return resolution, nil
	}
	if len(failures) == 0 {
		failures = append(failures, "no resolution strategies configured")
	}
	return resolution, &Error{
		Kind:    ResolutionError,
		Message: "Unable to resolve model path: " + strings.Join(failures, "; "),
	}
}
