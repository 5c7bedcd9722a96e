package notify

import "sync"

// Condition gates whether a dependent property is raised. Conditions are
// evaluated at raise time, never cached.
type Condition func() bool

// Property is a named handle to a tracked dependent property. Equality is by
// name.
type Property struct {
	name string

	mu         sync.RWMutex
	conditions []Condition
}

func newProperty(name string) *Property {
	return &Property{name: name}
}

func (p *Property) Name() string {
	return p.name
}

func (p *Property) String() string {
	return p.name
}

// AddConditions appends conditions, skipping nil ones.
func (p *Property) AddConditions(conditions ...Condition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range conditions {
		if c != nil {
			p.conditions = append(p.conditions, c)
		}
	}
}

// CanRaise reports whether every condition currently holds.
func (p *Property) CanRaise() bool {
	p.mu.RLock()
	conditions := p.conditions
	p.mu.RUnlock()

	for _, c := range conditions {
		if !c() {
			return false
		}
	}
	return true
}
