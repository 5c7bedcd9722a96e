package notify

import "github.com/delaneyj/reactnotify/internal/syncmap"

// listenTo subscribes n to whatever capabilities value exposes and records
// it under name. The three capability groups are probed independently; within
// a group the session-aware interface wins over the plain one.
func (n *Notifier) listenTo(name string, value any) {
	if isNil(value) {
		return
	}

	switch v := value.(type) {
	case PropertyReactor:
		v.AddPropertyReaction(n.id, n.respondToPropertyReaction)
		n.propertyRefs.Store(name, value)
	case PropertyChangeNotifier:
		v.AddPropertyChanged(n.id, n.respondToPropertyChange)
		n.propertyRefs.Store(name, value)
	}

	switch v := value.(type) {
	case CollectionReactor:
		v.AddCollectionReaction(n.id, n.respondToCollectionReaction)
		n.collectionRefs.Store(name, value)
	case CollectionChangeNotifier:
		v.AddCollectionChanged(n.id, n.respondToCollectionChange)
		n.collectionRefs.Store(name, value)
	}

	if v, ok := value.(ItemPropertyReactor); ok {
		v.AddItemPropertyReaction(n.id, n.respondToItemPropertyReaction)
		n.itemRefs.Store(name, value)
	}
}

// ignore detaches n from whatever it observes through name. Subscriptions
// are keyed by n's id, so an object still held under another name keeps its
// single subscription.
func (n *Notifier) ignore(name string) {
	if v, ok := n.propertyRefs.LoadAndDelete(name); ok && !stillReferenced(n.propertyRefs, v) {
		n.detachProperty(v)
	}
	if v, ok := n.collectionRefs.LoadAndDelete(name); ok && !stillReferenced(n.collectionRefs, v) {
		n.detachCollection(v)
	}
	if v, ok := n.itemRefs.LoadAndDelete(name); ok && !stillReferenced(n.itemRefs, v) {
		n.detachItemProperty(v)
	}
}

func stillReferenced(refs *syncmap.Map[string, any], value any) bool {
	_, ok := referenceFor(refs, value)
	return ok
}

func (n *Notifier) detachProperty(value any) {
	switch v := value.(type) {
	case PropertyReactor:
		v.RemovePropertyReaction(n.id)
	case PropertyChangeNotifier:
		v.RemovePropertyChanged(n.id)
	}
}

func (n *Notifier) detachCollection(value any) {
	switch v := value.(type) {
	case CollectionReactor:
		v.RemoveCollectionReaction(n.id)
	case CollectionChangeNotifier:
		v.RemoveCollectionChanged(n.id)
	}
}

func (n *Notifier) detachItemProperty(value any) {
	if v, ok := value.(ItemPropertyReactor); ok {
		v.RemoveItemPropertyReaction(n.id)
	}
}

// referenceFor finds the name source is observed under. When one object is
// referenced under several names only the first one found is used.
func referenceFor(refs *syncmap.Map[string, any], source any) (string, bool) {
	var (
		found string
		ok    bool
	)
	refs.Range(func(name string, v any) bool {
		if sameObject(v, source) {
			found, ok = name, true
			return false
		}
		return true
	})
	return found, ok
}

func (n *Notifier) respondToPropertyReaction(source any, session SessionID, name string) {
	reference, ok := referenceFor(n.propertyRefs, source)
	if !ok {
		return
	}
	inner, ok := n.refProperties.Lookup(reference)
	if !ok {
		return
	}
	if defs, ok := inner.Lookup(name); ok {
		n.RaiseDependencies(session, defs)
	}
}

// respondToPropertyChange handles plain notifiers, which carry no session of
// their own.
func (n *Notifier) respondToPropertyChange(source any, name string) {
	n.sys.Run(func(session SessionID) {
		n.respondToPropertyReaction(source, session, name)
	})
}

func (n *Notifier) respondToCollectionReaction(source any, change CollectionChange) {
	reference, ok := referenceFor(n.collectionRefs, source)
	if !ok {
		return
	}
	if defs, ok := n.refCollections.Lookup(reference); ok {
		n.RaiseDependencies(change.Session, defs)
	}
}

func (n *Notifier) respondToCollectionChange(source any, change CollectionChange) {
	n.sys.Run(func(session SessionID) {
		change.Session = session
		n.respondToCollectionReaction(source, change)
	})
}

func (n *Notifier) respondToItemPropertyReaction(source any, reaction ItemPropertyReaction) {
	reference, ok := referenceFor(n.itemRefs, source)
	if !ok {
		return
	}
	inner, ok := n.refItemProperties.Lookup(reference)
	if !ok {
		return
	}
	if defs, ok := inner.Lookup(reaction.PropertyName); ok {
		n.RaiseDependencies(reaction.Session, defs)
	}
}
