package dependency

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

/* Loader manages dependency configuration from dependencies.yaml
 * Provides in-memory lookup for fast access
 */

// Config represents the structure of dependencies.yaml
type Config struct {
	Dependencies []DependencyConfig `yaml:"dependencies"`
}

// duration wraps time.Duration so YAML values like "10s" parse directly
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", value.Value, err)
	}
	*d = duration(parsed)
	return nil
}

// DependencyConfig represents a single dependency in the YAML file
type DependencyConfig struct {
	Name             string   `yaml:"name"`
	Timeout          duration `yaml:"timeout"`
	MaxRetries       int      `yaml:"max_retries"`
	RetryBaseDelay   duration `yaml:"retry_base_delay"`
	RetryMaxDelay    duration `yaml:"retry_max_delay"`
	FailureThreshold int      `yaml:"failure_threshold"`
	ResetTimeout     duration `yaml:"reset_timeout"`
	HalfOpenRequests int      `yaml:"half_open_requests"`
	DedupTTL         duration `yaml:"dedup_ttl"`
}

// Loader holds the loaded dependencies
type Loader struct {
	dependencies map[string]*Dependency
	order        []string
}

// NewLoader creates a new dependency loader
func NewLoader() *Loader {
	return &Loader{
		dependencies: make(map[string]*Dependency),
	}
}

// Load reads and parses the dependencies.yaml file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading dependencies file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing dependencies YAML: %w", err)
	}

	for _, dc := range config.Dependencies {
		// Defaults for optional settings
		timeout := time.Duration(dc.Timeout)
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		failureThreshold := dc.FailureThreshold
		if failureThreshold == 0 {
			failureThreshold = 5
		}
		resetTimeout := time.Duration(dc.ResetTimeout)
		if resetTimeout == 0 {
			resetTimeout = 30 * time.Second
		}
		halfOpenRequests := dc.HalfOpenRequests
		if halfOpenRequests == 0 {
			halfOpenRequests = 2
		}

		dep := &Dependency{
			Name:             dc.Name,
			Timeout:          timeout,
			MaxRetries:       dc.MaxRetries,
			RetryBaseDelay:   time.Duration(dc.RetryBaseDelay),
			RetryMaxDelay:    time.Duration(dc.RetryMaxDelay),
			FailureThreshold: failureThreshold,
			ResetTimeout:     resetTimeout,
			HalfOpenRequests: halfOpenRequests,
			DedupTTL:         time.Duration(dc.DedupTTL),
		}

		if err := dep.Validate(); err != nil {
			return fmt.Errorf("validating dependency: %w", err)
		}

		if _, exists := l.dependencies[dep.Name]; exists {
			return fmt.Errorf("duplicate dependency name: %s", dep.Name)
		}
		l.dependencies[dep.Name] = dep
		l.order = append(l.order, dep.Name)
	}

	return nil
}

// Get retrieves a dependency by its name
func (l *Loader) Get(name string) (*Dependency, error) {
	dep, exists := l.dependencies[name]
	if !exists {
		return nil, fmt.Errorf("dependency not found: %s", name)
	}
	return dep, nil
}

// List returns all dependencies in file order
func (l *Loader) List() []*Dependency {
	deps := make([]*Dependency, 0, len(l.order))
	for _, name := range l.order {
		deps = append(deps, l.dependencies[name])
	}
	return deps
}
