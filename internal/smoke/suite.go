// Package smoke runs status-code smoke suites against a live backend and
// reports the outcome of every endpoint.
package smoke

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Errors returned by the smoke package.
var (
	// ErrInvalidSuite is returned when a suite fails validation.
	ErrInvalidSuite = errors.New("smoke: invalid suite")
	// ErrSuiteNotFound is returned when a suite file does not exist.
	ErrSuiteNotFound = errors.New("smoke: suite file not found")
)

// PlaceholderID replaces every path parameter before a request is sent.
const PlaceholderID = "test-id"

// Mode selects how status codes are judged.
type Mode string

const (
	// ModeFixed passes only 2xx, or exactly ExpectedStatus when one is set.
	ModeFixed Mode = "fixed"
	// ModeRealBackend also tolerates 401 and 404 from a live deployment.
	ModeRealBackend Mode = "real-backend"
)

// Endpoint is one request in a suite.
type Endpoint struct {
	Method string `yaml:"method" json:"method"`
	Path   string `yaml:"path" json:"path"`

	// ExpectedStatus pins the status code; zero means any 2xx.
	ExpectedStatus int    `yaml:"expectedStatus,omitempty" json:"expectedStatus,omitempty"`
	Description    string `yaml:"description,omitempty" json:"description,omitempty"`

	// Category overrides the suite category, e.g. for OpenAPI tags.
	Category string `yaml:"category,omitempty" json:"category,omitempty"`

	// RequiresAuth overrides the suite setting when present.
	RequiresAuth *bool `yaml:"requiresAuth,omitempty" json:"requiresAuth,omitempty"`

	// Body is sent as JSON. String values of the form "$fake:<kind>" are
	// replaced with generated data on every run.
	Body map[string]any `yaml:"body,omitempty" json:"body,omitempty"`
}

// Suite is a named group of endpoints sharing a category and mode.
type Suite struct {
	Name         string     `yaml:"name" json:"name"`
	Category     string     `yaml:"category,omitempty" json:"category,omitempty"`
	Mode         Mode       `yaml:"mode,omitempty" json:"mode,omitempty"`
	RequiresAuth bool       `yaml:"requiresAuth,omitempty" json:"requiresAuth,omitempty"`
	Endpoints    []Endpoint `yaml:"endpoints" json:"endpoints"`
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
	http.MethodHead:   true,
}

// LoadSuite reads one YAML suite file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSuiteNotFound, path)
		}
		return nil, fmt.Errorf("reading suite file: %w", err)
	}
	suite, err := ParseSuite(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return suite, nil
}

// LoadSuites reads every path in order. A directory contributes its *.yaml
// and *.yml files sorted by name.
func LoadSuites(paths ...string) ([]*Suite, error) {
	var suites []*Suite
	for _, p := range paths {
		files, err := suiteFiles(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			s, err := LoadSuite(f)
			if err != nil {
				return nil, err
			}
			suites = append(suites, s)
		}
	}
	return suites, nil
}

func suiteFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSuiteNotFound, path)
		}
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ParseSuite decodes, validates and defaults a suite from YAML bytes.
func ParseSuite(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing suite: %w", err)
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ApplyDefaults fills the mode, category and method casing.
func (s *Suite) ApplyDefaults() {
	if s.Mode == "" {
		s.Mode = ModeFixed
	}
	if s.Category == "" {
		s.Category = s.Name
	}
	for i := range s.Endpoints {
		s.Endpoints[i].Method = strings.ToUpper(strings.TrimSpace(s.Endpoints[i].Method))
	}
}

// Validate checks the suite after defaults are applied.
func (s *Suite) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSuite)
	}
	if s.Mode != ModeFixed && s.Mode != ModeRealBackend {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSuite, s.Mode)
	}
	if len(s.Endpoints) == 0 {
		return fmt.Errorf("%w: suite %q has no endpoints", ErrInvalidSuite, s.Name)
	}
	for i, ep := range s.Endpoints {
		if !allowedMethods[ep.Method] {
			return fmt.Errorf("%w: endpoints[%d]: unsupported method %q", ErrInvalidSuite, i, ep.Method)
		}
		if strings.TrimSpace(ep.Path) == "" {
			return fmt.Errorf("%w: endpoints[%d]: path is required", ErrInvalidSuite, i)
		}
		if ep.ExpectedStatus != 0 && (ep.ExpectedStatus < 100 || ep.ExpectedStatus > 599) {
			return fmt.Errorf("%w: endpoints[%d]: expectedStatus %d out of range", ErrInvalidSuite, i, ep.ExpectedStatus)
		}
	}
	return nil
}

// CategoryOf returns the category a result for ep is filed under: the
// endpoint's own, then the suite's, then the suite name.
func (s *Suite) CategoryOf(ep Endpoint) string {
	if ep.Category != "" {
		return ep.Category
	}
	if s.Category != "" {
		return s.Category
	}
	return s.Name
}

// AuthRequired reports whether ep should carry the bearer token.
func (s *Suite) AuthRequired(ep Endpoint) bool {
	if ep.RequiresAuth != nil {
		return *ep.RequiresAuth
	}
	return s.RequiresAuth
}

var (
	leadingTemplate = regexp.MustCompile(`^\$\{[^}]*\}`)
	templateParam   = regexp.MustCompile(`\$\{[^}]*\}`)
	colonParam      = regexp.MustCompile(`:[A-Za-z_][A-Za-z0-9_]*`)
	braceParam      = regexp.MustCompile(`\{[^}/]+\}`)
)

// ResolvePath substitutes PlaceholderID for ":id", "${id}" and "{id}"
// parameters. A template at the very start names the base URL and is
// dropped.
func ResolvePath(path string) string {
	p := strings.TrimSpace(path)
	p = leadingTemplate.ReplaceAllString(p, "")
	p = templateParam.ReplaceAllString(p, PlaceholderID)
	p = colonParam.ReplaceAllString(p, PlaceholderID)
	p = braceParam.ReplaceAllString(p, PlaceholderID)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
