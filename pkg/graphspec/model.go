package graphspec

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/delaneyj/reactnotify/notify"
)

// Model is a live notifier built from a Graph. Derived properties are
// computed values cached by the notifier until one of their sources fires.
type Model struct {
	*notify.Notifier
	graph *Graph
}

// Build validates g and wires it onto a new notifier bound to sys.
func Build(sys *notify.System, g *Graph) (*Model, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	m := &Model{graph: g}
	m.Notifier = notify.NewNotifier(sys, notify.WithOwner(m))

	for _, p := range g.Properties {
		if !p.Derived() {
			m.InitializeValue(p.Name, p.Initial)
			continue
		}
		mapper := m.PropertyOf(p.Name)
		for _, from := range p.From {
			mapper.DependsOnProperty(from)
		}
	}
	for _, d := range g.Dependencies {
		mapper := m.PropertyOf(d.Property)
		for _, source := range d.DependsOn {
			mapper.DependsOnProperty(source)
		}
	}
	if err := m.ValidateProperties(g.Names()...); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) Graph() *Graph { return m.graph }

// Value returns the current value of name, computing it when derived.
func (m *Model) Value(name string) any {
	p, ok := m.graph.property(name)
	if !ok {
		return nil
	}
	if !p.Derived() {
		return m.GetValue(name)
	}
	return m.GetComputed(name, func() any {
		return m.derive(p)
	})
}

// Set assigns a stored property.
func (m *Model) Set(name string, value any) error {
	p, ok := m.graph.property(name)
	switch {
	case !ok:
		return fmt.Errorf("graphspec: unknown property %q", name)
	case p.Derived():
		return fmt.Errorf("graphspec: %q is derived and cannot be set", name)
	}
	m.SetValue(name, value)
	return nil
}

func (m *Model) derive(p PropertySpec) any {
	values := make([]any, len(p.From))
	for i, from := range p.From {
		values[i] = m.Value(from)
	}

	switch p.Derive {
	case DeriveSum:
		total := 0.0
		for _, v := range values {
			total += number(v)
		}
		return total
	case DeriveProduct:
		total := 1.0
		for _, v := range values {
			total *= number(v)
		}
		return total
	case DeriveConcat:
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = fmt.Sprint(v)
		}
		return strings.Join(parts, p.Separator)
	case DeriveCount:
		count := 0
		for _, v := range values {
			count += size(v)
		}
		return count
	}
	return nil
}

func number(v any) float64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		if rv.Bool() {
			return 1
		}
	}
	return 0
}

// size counts list and map entries, and any other non-nil value as one.
func size(v any) int {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	case reflect.String:
		if rv.Len() == 0 {
			return 0
		}
	}
	return 1
}
