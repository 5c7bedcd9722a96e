// Package graphspec loads view models declared in YAML, builds them on top
// of notify and replays scripted mutations against them.
package graphspec

import (
	"errors"
	"fmt"
	"io"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v3"
)

// Derive operations understood by Build.
const (
	DeriveSum     = "sum"
	DeriveProduct = "product"
	DeriveConcat  = "concat"
	DeriveCount   = "count"
)

var deriveOps = mapset.NewSet(DeriveSum, DeriveProduct, DeriveConcat, DeriveCount)

type Graph struct {
	Name         string           `yaml:"name"`
	Properties   []PropertySpec   `yaml:"properties"`
	Dependencies []DependencySpec `yaml:"dependencies"`
	Steps        []Step           `yaml:"steps"`
}

// PropertySpec declares a stored property (Initial) or a derived one
// (Derive over From).
type PropertySpec struct {
	Name      string   `yaml:"name"`
	Initial   any      `yaml:"initial,omitempty"`
	Derive    string   `yaml:"derive,omitempty"`
	From      []string `yaml:"from,omitempty"`
	Separator string   `yaml:"separator,omitempty"`
}

func (p PropertySpec) Derived() bool { return p.Derive != "" }

type DependencySpec struct {
	Property  string   `yaml:"property"`
	DependsOn []string `yaml:"dependsOn"`
}

type Assignment struct {
	Property string
	Value    any
}

// Step is one scripted mutation. Assignments keep their document order.
type Step struct {
	Set []Assignment
}

func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Set yaml.Node `yaml:"set"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Set.Kind != yaml.MappingNode {
		return fmt.Errorf("graphspec: line %d: step needs a set mapping", node.Line)
	}
	for i := 0; i+1 < len(raw.Set.Content); i += 2 {
		var v any
		if err := raw.Set.Content[i+1].Decode(&v); err != nil {
			return err
		}
		s.Set = append(s.Set, Assignment{Property: raw.Set.Content[i].Value, Value: v})
	}
	return nil
}

// Load decodes and validates a graph.
func Load(r io.Reader) (*Graph, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	g := &Graph{}
	if err := dec.Decode(g); err != nil {
		return nil, fmt.Errorf("graphspec: decode: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Names returns the declared property names in document order.
func (g *Graph) Names() []string {
	names := make([]string, len(g.Properties))
	for i, p := range g.Properties {
		names[i] = p.Name
	}
	return names
}

func (g *Graph) property(name string) (PropertySpec, bool) {
	for _, p := range g.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertySpec{}, false
}

// Validate reports every problem it finds, joined.
func (g *Graph) Validate() error {
	var errs []error
	known := mapset.NewThreadUnsafeSet[string]()

	for i, p := range g.Properties {
		switch {
		case p.Name == "":
			errs = append(errs, fmt.Errorf("graphspec: property %d has no name", i))
			continue
		case !known.Add(p.Name):
			errs = append(errs, fmt.Errorf("graphspec: property %q declared twice", p.Name))
		}
		if p.Derived() && !deriveOps.Contains(p.Derive) {
			errs = append(errs, fmt.Errorf("graphspec: property %q: unknown derive %q", p.Name, p.Derive))
		}
		if p.Derived() && len(p.From) == 0 {
			errs = append(errs, fmt.Errorf("graphspec: property %q: derive needs at least one source", p.Name))
		}
	}

	unknown := func(context, name string) {
		if !known.Contains(name) {
			errs = append(errs, fmt.Errorf("graphspec: %s: unknown property %q", context, name))
		}
	}
	for _, p := range g.Properties {
		for _, from := range p.From {
			unknown(fmt.Sprintf("property %q", p.Name), from)
		}
	}
	for _, d := range g.Dependencies {
		unknown("dependency", d.Property)
		for _, source := range d.DependsOn {
			unknown(fmt.Sprintf("dependency %q", d.Property), source)
		}
	}
	for i, s := range g.Steps {
		for _, a := range s.Set {
			p, ok := g.property(a.Property)
			if !ok {
				unknown(fmt.Sprintf("step %d", i+1), a.Property)
				continue
			}
			if p.Derived() {
				errs = append(errs, fmt.Errorf("graphspec: step %d: %q is derived and cannot be set", i+1, a.Property))
			}
		}
	}
	return errors.Join(errs...)
}
