// Package templates holds the catalog of ready-made rooms.
package templates

import (
	"fmt"
	"os"
	"sort"

	"github.com/mcdev12/roomtimer/go/internal/models"
	"gopkg.in/yaml.v3"
)

// TimerSpec describes one timer of a template.
type TimerSpec struct {
	Title   string             `yaml:"title" json:"title"`
	Message string             `yaml:"message" json:"message"`
	Seconds int                `yaml:"seconds" json:"seconds"`
	Alerts  []models.AlertRule `yaml:"alerts,omitempty" json:"alerts,omitempty"`
}

// Template is a named room blueprint.
type Template struct {
	Key    string      `yaml:"-" json:"key"`
	Name   string      `yaml:"name" json:"name"`
	Icon   string      `yaml:"icon" json:"icon"`
	Timers []TimerSpec `yaml:"timers" json:"timers"`
}

// Instantiate builds the template's timers with fresh IDs.
func (t Template) Instantiate() []models.Timer {
	out := make([]models.Timer, 0, len(t.Timers))
	for _, spec := range t.Timers {
		out = append(out, models.NewTimer(spec.Title, spec.Message, spec.Seconds, spec.Alerts))
	}
	return out
}

// Catalog is a keyed set of templates.
type Catalog struct {
	templates map[string]Template
}

// Get returns the template for key.
func (c *Catalog) Get(key string) (Template, bool) {
	t, ok := c.templates[key]
	return t, ok
}

// List returns all templates sorted by key.
func (c *Catalog) List() []Template {
	out := make([]Template, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

type catalogFile struct {
	Templates map[string]Template `yaml:"templates"`
}

// Load returns the built-in catalog overlaid with the templates in path. An
// empty path yields the built-ins only.
func Load(path string) (*Catalog, error) {
	c := Builtin()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse templates file: %w", err)
	}

	for key, t := range file.Templates {
		if err := validate(key, t); err != nil {
			return nil, err
		}
		t.Key = key
		c.templates[key] = t
	}
	return c, nil
}

func validate(key string, t Template) error {
	if t.Name == "" {
		return fmt.Errorf("template %s: name is required", key)
	}
	if len(t.Timers) == 0 {
		return fmt.Errorf("template %s: at least one timer is required", key)
	}
	for i, spec := range t.Timers {
		if spec.Seconds <= 0 {
			return fmt.Errorf("template %s: timer %d must have a positive duration", key, i+1)
		}
		for _, a := range spec.Alerts {
			if !a.Type.Valid() || a.Percentage < 0 || a.Percentage > 100 {
				return fmt.Errorf("template %s: timer %d has an invalid alert rule", key, i+1)
			}
		}
	}
	return nil
}
