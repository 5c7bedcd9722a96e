package notify

import (
	"errors"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// Mapper declares what a single dependent property depends on.
//
//	n.PropertyOf("Total").
//	    DependsOnProperty("Quantity").
//	    DependsOnReferenceProperty("Product", "Price")
type Mapper struct {
	n    *Notifier
	name string
}

func (n *Notifier) PropertyOf(name string) *Mapper {
	return &Mapper{n: n, name: name}
}

func (m *Mapper) Name() string { return m.name }

// DependsOnProperty raises the dependent whenever the local property source
// fires and every condition holds.
func (m *Mapper) DependsOnProperty(source string, conditions ...Condition) *Mapper {
	m.n.local.Get(source).Affects(m.name, conditions...)
	return m
}

// DependsOnCollection raises the dependent whenever the collection stored
// under reference changes.
func (m *Mapper) DependsOnCollection(reference string, conditions ...Condition) *Mapper {
	m.n.refCollections.Get(reference).Affects(m.name, conditions...)
	return m
}

// DependsOnReferenceProperty raises the dependent whenever property fires on
// the object stored under reference.
func (m *Mapper) DependsOnReferenceProperty(reference, property string, conditions ...Condition) *Mapper {
	m.n.refProperties.Retrieve(reference).Get(property).Affects(m.name, conditions...)
	return m
}

// DependsOnCollectionItemProperty raises the dependent whenever property fires
// on any item of the collection stored under reference.
func (m *Mapper) DependsOnCollectionItemProperty(reference, property string, conditions ...Condition) *Mapper {
	m.n.refItemProperties.Retrieve(reference).Get(property).Affects(m.name, conditions...)
	return m
}

// OverridesWithoutBaseReference forgets every dependency declared so far for
// this dependent, in all four maps.
func (m *Mapper) OverridesWithoutBaseReference() *Mapper {
	m.n.local.free(m.name)
	m.n.refCollections.free(m.name)
	m.n.refItemProperties.free(m.name)
	m.n.refProperties.free(m.name)
	return m
}

// ValidateProperties checks every declared source, reference and dependent
// name against known. Properties of referenced objects are not checked.
func (n *Notifier) ValidateProperties(known ...string) error {
	return n.validate(mapset.NewThreadUnsafeSet[string](known...))
}

func (n *Notifier) validate(known mapset.Set[string], extra ...*Definitions) error {
	sources := mapset.NewThreadUnsafeSet[string]()
	dependents := mapset.NewThreadUnsafeSet[string]()

	addDependents := func(defs *Definitions) {
		for _, p := range defs.Properties() {
			dependents.Add(p.Name())
		}
	}

	n.local.Range(func(source string, defs *Definitions) bool {
		sources.Add(source)
		addDependents(defs)
		return true
	})
	n.refCollections.Range(func(reference string, defs *Definitions) bool {
		sources.Add(reference)
		addDependents(defs)
		return true
	})
	for _, rm := range []*ReferenceDependencyMap{n.refProperties, n.refItemProperties} {
		rm.Range(func(reference string, inner *DependencyMap) bool {
			sources.Add(reference)
			inner.Range(func(_ string, defs *Definitions) bool {
				addDependents(defs)
				return true
			})
			return true
		})
	}
	for _, defs := range extra {
		addDependents(defs)
	}

	var errs []error
	errs = appendUnknown(errs, sources.Difference(known), "source")
	errs = appendUnknown(errs, dependents.Difference(known), "dependent")
	return errors.Join(errs...)
}

func appendUnknown(errs []error, unknown mapset.Set[string], role string) []error {
	names := unknown.ToSlice()
	sort.Strings(names)
	for _, name := range names {
		errs = append(errs, &UnknownPropertyError{Name: name, Role: role})
	}
	return errs
}
