package notify_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/delaneyj/reactnotify/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reaction struct {
	session notify.SessionID
	name    string
}

// recorder captures both the session reactions and the flushed change
// notifications of a notifier.
type recorder struct {
	mu        sync.Mutex
	reactions []reaction
	changed   []string
}

func record(n *notify.Notifier) *recorder {
	r := &recorder{}
	n.OnPropertyReaction(func(_ any, session notify.SessionID, name string) {
		r.mu.Lock()
		r.reactions = append(r.reactions, reaction{session, name})
		r.mu.Unlock()
	})
	n.OnPropertyChanged(func(_ any, name string) {
		r.mu.Lock()
		r.changed = append(r.changed, name)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.changed...)
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.changed {
		if c == name {
			n++
		}
	}
	return n
}

func (r *recorder) sessions() map[notify.SessionID]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[notify.SessionID]struct{}{}
	for _, re := range r.reactions {
		out[re.session] = struct{}{}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.reactions, r.changed = nil, nil
	r.mu.Unlock()
}

func TestShouldRaiseChainOncePerSession(t *testing.T) {
	sys := notify.NewSystem()
	n := notify.NewNotifier(sys)

	//  A
	//  |
	//  B
	//  |
	//  C
	n.PropertyOf("B").DependsOnProperty("A")
	n.PropertyOf("C").DependsOnProperty("B")
	r := record(n)

	assert.True(t, n.SetValue("A", 1))
	assert.Equal(t, []string{"A", "B", "C"}, r.names())
	assert.Len(t, r.reactions, 3)
	assert.Len(t, r.sessions(), 1)
	assert.Zero(t, sys.PendingSessions())
}

func TestShouldRunExecutionsOncePerSessionDiamond(t *testing.T) {
	sys := notify.NewSystem()
	n := notify.NewNotifier(sys)

	//     A
	//   /   \
	//  B     C
	//   \   /
	//     D
	n.PropertyOf("B").DependsOnProperty("A")
	n.PropertyOf("C").DependsOnProperty("A")
	n.PropertyOf("D").DependsOnProperty("B").DependsOnProperty("C")

	runs := 0
	n.PropertyChangeFor("A").Execute(func() { runs++ })
	r := record(n)

	n.SetValue("A", "a")
	assert.Equal(t, 1, runs)
	assert.Equal(t, []string{"A", "B", "D", "C"}, r.names())
	assert.Equal(t, 1, r.count("D"))

	n.SetValue("A", "b")
	assert.Equal(t, 2, runs)
	assert.Equal(t, 2, r.count("D"))
}

func TestSetValue(t *testing.T) {
	t.Run("unchanged value is silent", func(t *testing.T) {
		n := notify.NewNotifier(notify.NewSystem())
		n.SetValue("Name", "ada")
		r := record(n)

		assert.False(t, n.SetValue("Name", "ada"))
		assert.Empty(t, r.names())
	})

	t.Run("slices compare by value", func(t *testing.T) {
		n := notify.NewNotifier(notify.NewSystem())
		n.SetValue("Tags", []string{"a", "b"})
		r := record(n)

		assert.False(t, n.SetValue("Tags", []string{"a", "b"}))
		assert.True(t, n.SetValue("Tags", []string{"a"}))
		assert.Equal(t, []string{"Tags"}, r.names())
	})

	t.Run("struct holding a slice compares by value", func(t *testing.T) {
		type boxed struct{ V any }
		n := notify.NewNotifier(notify.NewSystem())
		n.SetValue("X", boxed{V: []int{1}})
		r := record(n)

		assert.NotPanics(t, func() {
			assert.False(t, n.SetValue("X", boxed{V: []int{1}}))
		})
		assert.True(t, n.SetValue("X", boxed{V: []int{2}}))
		assert.Equal(t, []string{"X"}, r.names())
	})

	t.Run("forced notification", func(t *testing.T) {
		n := notify.NewNotifier(notify.NewSystem())
		n.SetValue("Name", "ada")
		r := record(n)

		assert.False(t, n.SetValue("Name", "ada", notify.NotifyWhenUnchanged()))
		assert.Equal(t, []string{"Name"}, r.names())
	})

	t.Run("typed get", func(t *testing.T) {
		n := notify.NewNotifier(notify.NewSystem())
		n.SetValue("Age", 36)
		assert.Equal(t, 36, notify.Get[int](n, "Age"))
		assert.Equal(t, "", notify.Get[string](n, "Age"))
		assert.Nil(t, n.GetValue("Missing"))
	})

	t.Run("initialize is silent", func(t *testing.T) {
		n := notify.NewNotifier(notify.NewSystem())
		r := record(n)
		n.InitializeValue("Name", "ada")
		assert.Equal(t, "ada", n.GetValue("Name"))
		assert.Empty(t, r.names())
	})
}

func TestBlankPropertyNameIsIgnored(t *testing.T) {
	sys := notify.NewSystem()
	n := notify.NewNotifier(sys)
	r := record(n)

	sys.Run(func(session notify.SessionID) {
		n.ReactToProperty(session, "")
		n.ReactToProperty(session, "   ")
	})
	assert.Empty(t, r.names())
	assert.Zero(t, sys.PendingSessions())
}

func TestConditionsAreEvaluatedAtRaiseTime(t *testing.T) {
	n := notify.NewNotifier(notify.NewSystem())
	enabled := false
	n.PropertyOf("B").DependsOnProperty("A", func() bool { return enabled })
	r := record(n)

	n.SetValue("A", 1)
	assert.Equal(t, []string{"A"}, r.names())

	r.reset()
	enabled = true
	n.SetValue("A", 2)
	assert.Equal(t, []string{"A", "B"}, r.names())
}

func TestOverridesWithoutBaseReference(t *testing.T) {
	n := notify.NewNotifier(notify.NewSystem())
	n.PropertyOf("B").DependsOnProperty("A")
	n.PropertyOf("B").OverridesWithoutBaseReference().DependsOnProperty("X")
	r := record(n)

	n.SetValue("A", 1)
	assert.Equal(t, []string{"A"}, r.names())

	n.SetValue("X", 1)
	assert.Equal(t, []string{"A", "X", "B"}, r.names())
}

func TestReferencePropertyDependency(t *testing.T) {
	sys := notify.NewSystem()
	owner := notify.NewNotifier(sys)
	owner.PropertyOf("ChildName").DependsOnReferenceProperty("Child", "Name")
	r := record(owner)

	first := notify.NewNotifier(sys)
	second := notify.NewNotifier(sys)
	owner.SetValue("Child", first)

	first.SetValue("Name", "one")
	assert.Equal(t, []string{"Child", "ChildName"}, r.names())

	r.reset()
	owner.SetValue("Child", second)
	observed, ok := owner.Observing("Child")
	require.True(t, ok)
	assert.Same(t, second, observed)

	first.SetValue("Name", "stale")
	assert.Equal(t, []string{"Child"}, r.names())

	second.SetValue("Name", "two")
	assert.Equal(t, []string{"Child", "ChildName"}, r.names())

	r.reset()
	owner.SetValue("Child", nil)
	_, ok = owner.Observing("Child")
	assert.False(t, ok)
	second.SetValue("Name", "gone")
	assert.Equal(t, []string{"Child"}, r.names())
}

func TestSharedReferenceSurvivesDetachOfOtherName(t *testing.T) {
	sys := notify.NewSystem()
	owner := notify.NewNotifier(sys)
	owner.PropertyOf("BName").DependsOnReferenceProperty("B", "Name")
	child := notify.NewNotifier(sys)

	owner.SetValue("A", child)
	owner.SetValue("B", child)
	owner.SetValue("A", nil)
	_, ok := owner.Observing("A")
	assert.False(t, ok)

	r := record(owner)
	child.SetValue("Name", "x")
	assert.Equal(t, []string{"BName"}, r.names())

	r.reset()
	owner.SetValue("B", nil)
	child.SetValue("Name", "y")
	assert.Empty(t, r.names())
}

func TestStoredReferenceSurvivesComputedInvalidation(t *testing.T) {
	sys := notify.NewSystem()
	owner := notify.NewNotifier(sys)
	owner.PropertyOf("ChildName").DependsOnReferenceProperty("Child", "Name")
	owner.PropertyOf("Selected").DependsOnProperty("Index")
	child := notify.NewNotifier(sys)

	owner.SetValue("Child", child)
	assert.Same(t, child, owner.GetComputed("Selected", func() any { return child }))
	owner.SetValue("Index", 1)
	_, ok := owner.Observing("Selected")
	assert.False(t, ok)

	r := record(owner)
	child.SetValue("Name", "x")
	assert.Equal(t, []string{"ChildName"}, r.names())
}

func TestReferenceChainSharesSession(t *testing.T) {
	sys := notify.NewSystem()
	leaf := notify.NewNotifier(sys)
	mid := notify.NewNotifier(sys)
	root := notify.NewNotifier(sys)

	mid.PropertyOf("LeafValue").DependsOnReferenceProperty("Leaf", "Value")
	root.PropertyOf("Summary").DependsOnReferenceProperty("Mid", "LeafValue")
	mid.SetValue("Leaf", leaf)
	root.SetValue("Mid", mid)

	leafRec, midRec, rootRec := record(leaf), record(mid), record(root)
	leaf.SetValue("Value", 42)

	assert.Equal(t, []string{"Value"}, leafRec.names())
	assert.Equal(t, []string{"LeafValue"}, midRec.names())
	assert.Equal(t, []string{"Summary"}, rootRec.names())

	sessions := leafRec.sessions()
	for s := range midRec.sessions() {
		sessions[s] = struct{}{}
	}
	for s := range rootRec.sessions() {
		sessions[s] = struct{}{}
	}
	assert.Len(t, sessions, 1)
}

type person struct {
	*notify.Notifier
}

func newPerson(sys *notify.System, name string) *person {
	p := &person{}
	p.Notifier = notify.NewNotifier(sys, notify.WithOwner(p))
	p.InitializeValue("Name", name)
	return p
}

func TestEmbeddedNotifierReportsOwnerAsSource(t *testing.T) {
	sys := notify.NewSystem()
	p := newPerson(sys, "ada")

	var source any
	p.OnPropertyChanged(func(s any, _ string) { source = s })
	p.SetValue("Name", "grace")
	assert.Same(t, p, source)

	team := notify.NewNotifier(sys)
	team.PropertyOf("LeadName").DependsOnReferenceProperty("Lead", "Name")
	team.SetValue("Lead", p)
	r := record(team)

	p.SetValue("Name", "linus")
	assert.Equal(t, []string{"LeadName"}, r.names())
}

// plainNotifier only speaks the ordinary change protocol.
type plainNotifier struct {
	handlers map[notify.ListenerID]notify.PropertyChangedFunc
}

func (p *plainNotifier) AddPropertyChanged(id notify.ListenerID, fn notify.PropertyChangedFunc) {
	if p.handlers == nil {
		p.handlers = map[notify.ListenerID]notify.PropertyChangedFunc{}
	}
	p.handlers[id] = fn
}

func (p *plainNotifier) RemovePropertyChanged(id notify.ListenerID) {
	delete(p.handlers, id)
}

func (p *plainNotifier) fire(name string) {
	for _, fn := range p.handlers {
		fn(p, name)
	}
}

func TestPlainNotifierStartsOwnSession(t *testing.T) {
	sys := notify.NewSystem()
	owner := notify.NewNotifier(sys)
	owner.PropertyOf("Mirror").DependsOnReferenceProperty("Source", "Value")
	plain := &plainNotifier{}
	owner.SetValue("Source", plain)
	require.Len(t, plain.handlers, 1)

	r := record(owner)
	plain.fire("Value")
	assert.Equal(t, []string{"Mirror"}, r.names())
	assert.Zero(t, sys.PendingSessions())

	owner.Close()
	assert.Empty(t, plain.handlers)
}

func TestComputedValues(t *testing.T) {
	n := notify.NewNotifier(notify.NewSystem())
	n.InitializeValue("First", "Ada")
	n.InitializeValue("Last", "Lovelace")
	n.PropertyOf("Full").DependsOnProperty("First").DependsOnProperty("Last")

	calls := 0
	full := func() string {
		return notify.Computed(n, "Full", func() string {
			calls++
			return notify.Get[string](n, "First") + " " + notify.Get[string](n, "Last")
		})
	}

	assert.Equal(t, "Ada Lovelace", full())
	assert.Equal(t, "Ada Lovelace", full())
	assert.Equal(t, 1, calls)

	n.SetValue("First", "Augusta")
	assert.Equal(t, "Augusta Lovelace", full())
	assert.Equal(t, 2, calls)

	n.DisableNotifications()
	full()
	full()
	assert.Equal(t, 4, calls)

	n.EnableNotifications()
	full()
	full()
	assert.Equal(t, 5, calls)
}

func TestComputedReferenceIsListenedTo(t *testing.T) {
	sys := notify.NewSystem()
	owner := notify.NewNotifier(sys)
	owner.PropertyOf("SelectedName").DependsOnReferenceProperty("Selected", "Name")
	selected := notify.NewNotifier(sys)
	r := record(owner)

	got := owner.GetComputed("Selected", func() any { return selected })
	assert.Same(t, selected, got)

	selected.SetValue("Name", "x")
	assert.Equal(t, []string{"SelectedName"}, r.names())

	r.reset()
	owner.DisableNotifications()
	_, ok := owner.Observing("Selected")
	assert.False(t, ok)
	selected.SetValue("Name", "y")
	assert.Empty(t, r.names())
}

func TestDisabledNotifierIsSilent(t *testing.T) {
	n := notify.NewNotifier(notify.NewSystem())
	n.PropertyOf("B").DependsOnProperty("A")
	r := record(n)

	n.DisableNotifications()
	assert.False(t, n.NotificationsEnabled())
	assert.True(t, n.SetValue("A", 1))
	assert.Equal(t, 1, n.GetValue("A"))
	assert.Empty(t, r.names())

	n.EnableNotifications()
	n.SetValue("A", 2)
	assert.Equal(t, []string{"A", "B"}, r.names())
}

func TestDuplicateSubscriptionIsIgnored(t *testing.T) {
	n := notify.NewNotifier(notify.NewSystem())
	id := notify.NewListenerID()
	calls := 0
	fn := func(any, string) { calls++ }
	n.AddPropertyChanged(id, fn)
	n.AddPropertyChanged(id, fn)

	n.SetValue("A", 1)
	assert.Equal(t, 1, calls)

	n.RemovePropertyChanged(id)
	n.SetValue("A", 2)
	assert.Equal(t, 1, calls)
}

func TestValidateProperties(t *testing.T) {
	n := notify.NewNotifier(notify.NewSystem())
	n.PropertyOf("Total").DependsOnProperty("Quantity").DependsOnProperty("Price")
	n.PropertyOf("Label").DependsOnReferenceProperty("Product", "Name")

	require.NoError(t, n.ValidateProperties("Total", "Quantity", "Price", "Label", "Product"))

	err := n.ValidateProperties("Total", "Quantity", "Label")
	require.Error(t, err)

	var unknown *notify.UnknownPropertyError
	require.True(t, errors.As(err, &unknown))
	assert.Contains(t, err.Error(), `unknown source property "Price"`)
	assert.Contains(t, err.Error(), `unknown source property "Product"`)
}

func TestCommandExecutions(t *testing.T) {
	n := notify.NewNotifier(notify.NewSystem())

	allowed := false
	ran, raised := 0, 0
	save := notify.NewRelayCommand(func() { ran++ }, func() bool { return allowed })
	save.AddCanExecuteChanged(notify.NewListenerID(), func() { raised++ })

	n.PropertyChangeFor("Dirty").IfCanExecute(save).RaiseCommand(save)
	n.PropertyChangeFor("Force").ExecuteCommand(save)

	n.SetValue("Dirty", true)
	assert.Equal(t, 0, ran)
	assert.Equal(t, 1, raised)

	allowed = true
	n.SetValue("Dirty", false)
	assert.Equal(t, 1, ran)
	assert.Equal(t, 2, raised)

	allowed = false
	n.SetValue("Force", true)
	assert.Equal(t, 2, ran)
}
