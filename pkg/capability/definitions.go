package capability

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Definition describes one command-backed capability in a definitions file.
type Definition struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Priority    int      `yaml:"priority,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty"`
	Command     []string `yaml:"command"`
	Workdir     string   `yaml:"workdir,omitempty"`
	TimeoutSec  int      `yaml:"timeout_sec,omitempty"`
}

// DefinitionsFile is the structure of a capabilities.yaml file.
type DefinitionsFile struct {
	Capabilities []Definition `yaml:"capabilities"`
}

// LoadDefinitions reads a capabilities file and builds a registry from it.
func LoadDefinitions(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file DefinitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse capabilities file %s: %w", path, err)
	}

	return BuildRegistry(file.Capabilities)
}

// BuildRegistry turns definitions into a registry of command capabilities.
func BuildRegistry(defs []Definition) (*Registry, error) {
	entries := make([]Entry, 0, len(defs))
	for _, def := range defs {
		timeout := time.Duration(def.TimeoutSec) * time.Second
		cap, err := NewCommandCapability(def.Name, def.Description, def.Command, def.Workdir, timeout)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Capability: cap,
			Priority:   def.Priority,
			Keywords:   def.Keywords,
		})
	}
	return NewRegistry(entries...)
}
