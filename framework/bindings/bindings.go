// Package bindings loads container definitions from a YAML or JSON file.
//
//	aliases:
//	  clock: github.com/km-arc/go-autowire/app.Clock
//	types:
//	  - github.com/km-arc/go-autowire/app.ConsoleGreeter
//	lazy:
//	  - type: github.com/km-arc/go-autowire/app.Clock
//	    args: ["UTC"]
//	    calls:
//	      - method: Freeze
//	        args: [false]
package bindings

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-autowire/framework/container"
)

// File is a parsed bindings file.
type File struct {
	// Aliases maps alias → target.
	Aliases map[string]string `json:"aliases" yaml:"aliases"`
	// Types are registered as type-name definitions, built with no
	// arguments on first execution.
	Types []string `json:"types" yaml:"types"`
	// Lazy entries become lazy wrappers.
	Lazy []LazyDef `json:"lazy" yaml:"lazy"`
}

// LazyDef describes one lazy wrapper. Key overrides the registry key, which
// otherwise derives from Type.
type LazyDef struct {
	Type  string    `json:"type" yaml:"type"`
	Key   string    `json:"key,omitempty" yaml:"key,omitempty"`
	Args  []any     `json:"args,omitempty" yaml:"args,omitempty"`
	Calls []CallDef `json:"calls,omitempty" yaml:"calls,omitempty"`
}

// CallDef is a method queued on a lazy wrapper.
type CallDef struct {
	Method string `json:"method" yaml:"method"`
	Args   []any  `json:"args,omitempty" yaml:"args,omitempty"`
}

// Load reads and parses path. The format follows the extension.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bindings: failed to read file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data in the format named by ext (".yaml", ".yml" or ".json").
func Parse(data []byte, ext string) (*File, error) {
	var f File
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("bindings: failed to parse YAML: %w", err)
		}
	case ".json":
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("bindings: failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("bindings: unsupported file format: %s (expected .yaml, .yml, or .json)", ext)
	}
	return &f, f.validate()
}

func (f *File) validate() error {
	for i, l := range f.Lazy {
		if l.Type == "" {
			return fmt.Errorf("bindings: lazy entry %d has no type", i)
		}
		for j, c := range l.Calls {
			if c.Method == "" {
				return fmt.Errorf("bindings: lazy entry %d (%s): call %d has no method", i, l.Type, j)
			}
		}
	}
	return nil
}

// Apply registers everything in f on c. It stops at the first error, which
// is the container's own (duplicate or invalid definition).
func (f *File) Apply(c *container.Container) error {
	for alias, target := range f.Aliases {
		c.Alias(alias, target)
	}
	for _, name := range f.Types {
		if err := c.Register(name); err != nil {
			return err
		}
	}
	for _, l := range f.Lazy {
		lazy := c.Lazy(l.Type, l.Args...)
		for _, call := range l.Calls {
			lazy.SetCallback(call.Method, call.Args...)
		}

		var err error
		if l.Key != "" {
			err = c.RegisterAs(l.Key, lazy)
		} else {
			err = c.Register(lazy)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
