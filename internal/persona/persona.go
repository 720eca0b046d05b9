// Package persona loads named system-prompt profiles from a TOML file.
// A persona bundles the system prompt with per-persona generation
// settings so users can switch the assistant's behavior with one flag.
package persona

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
)

// Persona is a named system-prompt profile.
type Persona struct {
	Name         string  `toml:"-"`
	SystemPrompt string  `toml:"system_prompt"`
	Temperature  float64 `toml:"temperature"`
	Model        string  `toml:"model"` // optional per-persona model override
}

// DefaultSystemPrompt guides the assistant when no persona file exists.
const DefaultSystemPrompt = "You are a helpful code and general assistant. " +
	"Answer precisely and concisely. When context snippets are provided, " +
	"ground your answer in them and cite the source paths you used. " +
	"If the context does not contain the answer, say so instead of guessing."

// Default returns the built-in persona.
func Default() Persona {
	return Persona{
		Name:         "default",
		SystemPrompt: DefaultSystemPrompt,
		Temperature:  0.7,
	}
}

// Library is a set of personas loaded from disk plus the built-in default.
type Library struct {
	personas map[string]Persona
}

type personaFile struct {
	Personas map[string]Persona `toml:"personas"`
}

// LoadLibrary reads personas from a TOML file. A missing file yields a
// library containing only the built-in default.
func LoadLibrary(path string) (*Library, error) {
	lib := &Library{personas: map[string]Persona{"default": Default()}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return nil, fmt.Errorf("read personas file: %w", err)
	}

	var pf personaFile
	if err := toml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse personas file: %w", err)
	}

	for name, p := range pf.Personas {
		p.Name = name
		if p.SystemPrompt == "" {
			return nil, fmt.Errorf("persona %q has no system_prompt", name)
		}
		if p.Temperature == 0 {
			p.Temperature = Default().Temperature
		}
		lib.personas[name] = p
	}

	return lib, nil
}

// Get returns the named persona.
func (l *Library) Get(name string) (Persona, error) {
	if name == "" {
		name = "default"
	}
	p, ok := l.personas[name]
	if !ok {
		return Persona{}, fmt.Errorf("unknown persona %q (available: %v)", name, l.Names())
	}
	return p, nil
}

// Names returns all persona names, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.personas))
	for name := range l.personas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
