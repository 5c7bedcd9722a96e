package notify

import (
	"sync"

	"github.com/delaneyj/reactnotify/internal/syncmap"
)

// Definitions is what a single source property affects: an ordered set of
// dependent properties and an ordered list of side effects run whenever the
// source fires, before the dependents are raised.
type Definitions struct {
	mu         sync.RWMutex
	properties []*Property
	executions []func()
}

func newDefinitions() *Definitions {
	return &Definitions{}
}

// Affects registers name as a dependent. Registering an existing name keeps
// its position and merges the new conditions in.
func (d *Definitions) Affects(name string, conditions ...Condition) *Definitions {
	d.mu.Lock()
	var p *Property
	for _, existing := range d.properties {
		if existing.name == name {
			p = existing
			break
		}
	}
	if p == nil {
		p = newProperty(name)
		d.properties = append(d.properties, p)
	}
	d.mu.Unlock()

	p.AddConditions(conditions...)
	return d
}

// Execute appends a side effect. Nil functions are ignored.
func (d *Definitions) Execute(fn func()) *Definitions {
	if fn == nil {
		return d
	}
	d.mu.Lock()
	d.executions = append(d.executions, fn)
	d.mu.Unlock()
	return d
}

// Free removes the dependent called name.
func (d *Definitions) Free(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.properties[:0]
	for _, p := range d.properties {
		if p.name != name {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(d.properties); i++ {
		d.properties[i] = nil
	}
	d.properties = kept
}

// Properties returns the dependents in declaration order.
func (d *Definitions) Properties() []*Property {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Property, len(d.properties))
	copy(out, d.properties)
	return out
}

// Executions returns the side effects in declaration order.
func (d *Definitions) Executions() []func() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]func(), len(d.executions))
	copy(out, d.executions)
	return out
}

// Has reports whether name is registered as a dependent.
func (d *Definitions) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.properties {
		if p.name == name {
			return true
		}
	}
	return false
}

// DependencyMap maps a source name to its Definitions. Entries are created
// lazily and never removed.
type DependencyMap struct {
	m *syncmap.Map[string, *Definitions]
}

func NewDependencyMap() *DependencyMap {
	return &DependencyMap{m: syncmap.NewString[*Definitions]()}
}

// Get returns the definitions for source, creating them when absent.
func (dm *DependencyMap) Get(source string) *Definitions {
	return dm.m.GetOrAdd(source, newDefinitions)
}

// Lookup returns the definitions for source without creating them.
func (dm *DependencyMap) Lookup(source string) (*Definitions, bool) {
	return dm.m.Load(source)
}

func (dm *DependencyMap) Range(fn func(source string, defs *Definitions) bool) {
	dm.m.Range(fn)
}

func (dm *DependencyMap) free(name string) {
	dm.m.Range(func(_ string, defs *Definitions) bool {
		defs.Free(name)
		return true
	})
}

// ReferenceDependencyMap maps a reference name to the dependency map of the
// referenced object's properties.
type ReferenceDependencyMap struct {
	m *syncmap.Map[string, *DependencyMap]
}

func NewReferenceDependencyMap() *ReferenceDependencyMap {
	return &ReferenceDependencyMap{m: syncmap.NewString[*DependencyMap]()}
}

// Retrieve returns the inner map for reference, creating it when absent.
func (rm *ReferenceDependencyMap) Retrieve(reference string) *DependencyMap {
	return rm.m.GetOrAdd(reference, NewDependencyMap)
}

func (rm *ReferenceDependencyMap) Lookup(reference string) (*DependencyMap, bool) {
	return rm.m.Load(reference)
}

func (rm *ReferenceDependencyMap) Range(fn func(reference string, inner *DependencyMap) bool) {
	rm.m.Range(fn)
}

func (rm *ReferenceDependencyMap) free(name string) {
	rm.m.Range(func(_ string, inner *DependencyMap) bool {
		inner.free(name)
		return true
	})
}
