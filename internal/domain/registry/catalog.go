package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

//go:embed providers.yaml
var builtinProviders []byte

var (
	ErrDuplicateType = errors.New("provider type already registered")
	ErrInvalid       = errors.New("invalid provider")
)

// Provider describes a document type
type Provider struct {
	Kind      string            `yaml:"type" json:"type"`
	Name      string            `yaml:"name" json:"name"`
	Extension string            `yaml:"extension" json:"extension"`
	Patterns  []string          `yaml:"patterns" json:"patterns"`
	Help      []types.MenuEntry `yaml:"helpMenu" json:"helpMenu,omitempty"`
	NewFile   []types.MenuEntry `yaml:"newFileMenu" json:"newFileMenu,omitempty"`
}

func (p *Provider) Type() string                  { return p.Kind }
func (p *Provider) HelpMenu() []types.MenuEntry    { return p.Help }
func (p *Provider) NewFileMenu() []types.MenuEntry { return p.NewFile }

func (p *Provider) validate() error {
	if p.Kind == "" {
		return fmt.Errorf("%w: type is required", ErrInvalid)
	}
	for _, pattern := range p.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: %s: bad pattern %q", ErrInvalid, p.Kind, pattern)
		}
	}
	return nil
}

// Matches reports whether the file name matches one of the provider patterns
func (p *Provider) Matches(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, pattern := range p.Patterns {
		if ok, _ := doublestar.Match(strings.ToLower(pattern), name); ok {
			return true
		}
	}
	return false
}

type document struct {
	Providers []*Provider `yaml:"providers"`
}

// Catalog keeps providers in registration order
type Catalog struct {
	mu     sync.RWMutex
	order  []string
	byType map[string]*Provider
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{byType: make(map[string]*Provider)}
}

// Default creates a catalog with the built-in providers
func Default() (*Catalog, error) {
	c := NewCatalog()
	if _, err := c.Load(builtinProviders); err != nil {
		return nil, fmt.Errorf("failed to load built-in providers: %w", err)
	}
	return c, nil
}

// Load registers every provider of a YAML document and returns how many were added
func (c *Catalog) Load(data []byte) (int, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("failed to parse providers: %w", err)
	}

	for i, p := range doc.Providers {
		if err := c.Register(p); err != nil {
			return i, err
		}
	}
	return len(doc.Providers), nil
}

// Register adds a provider
func (c *Catalog) Register(p *Provider) error {
	if p == nil {
		return fmt.Errorf("%w: nil provider", ErrInvalid)
	}
	if err := p.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byType[p.Kind]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, p.Kind)
	}
	c.byType[p.Kind] = p
	c.order = append(c.order, p.Kind)
	return nil
}

// Get returns the provider for a document type
func (c *Catalog) Get(docType string) (*Provider, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.byType[docType]
	return p, ok
}

// List returns all providers in registration order
func (c *Catalog) List() []*Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]*Provider, 0, len(c.order))
	for _, kind := range c.order {
		list = append(list, c.byType[kind])
	}
	return list
}

// Providers lists the providers for menu registration
func (c *Catalog) Providers() []types.Provider {
	list := c.List()
	providers := make([]types.Provider, len(list))
	for i, p := range list {
		providers[i] = p
	}
	return providers
}

// TypeFor resolves the document type of a file from its name
func (c *Catalog) TypeFor(path string) (string, bool) {
	for _, p := range c.List() {
		if p.Matches(path) {
			return p.Kind, true
		}
	}
	return "", false
}

// Len returns the number of registered providers
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
