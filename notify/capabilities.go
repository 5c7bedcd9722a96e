package notify

// PropertyChangedFunc receives plain change notifications, delivered when a
// session ends.
type PropertyChangedFunc func(source any, propertyName string)

// PropertyReactionFunc receives reactions as they are raised inside a session.
type PropertyReactionFunc func(source any, session SessionID, propertyName string)

// CollectionChangedFunc receives collection notifications at session end.
type CollectionChangedFunc func(source any, change CollectionChange)

// CollectionReactionFunc receives collection reactions inside a session.
type CollectionReactionFunc func(source any, change CollectionChange)

// ItemPropertyReactionFunc receives reactions raised by an item of a
// collection.
type ItemPropertyReactionFunc func(source any, reaction ItemPropertyReaction)

// PropertyChangeNotifier is the ordinary change-notification capability.
type PropertyChangeNotifier interface {
	AddPropertyChanged(id ListenerID, fn PropertyChangedFunc)
	RemovePropertyChanged(id ListenerID)
}

// PropertyReactor is the session-aware property capability implemented by
// Notifier.
type PropertyReactor interface {
	AddPropertyReaction(id ListenerID, fn PropertyReactionFunc)
	RemovePropertyReaction(id ListenerID)
}

// CollectionChangeNotifier is the ordinary collection-notification capability.
type CollectionChangeNotifier interface {
	AddCollectionChanged(id ListenerID, fn CollectionChangedFunc)
	RemoveCollectionChanged(id ListenerID)
}

// CollectionReactor is the session-aware collection capability. The session
// registry calls FlushCollectionChange when the originating session ends.
type CollectionReactor interface {
	CollectionChangeNotifier
	AddCollectionReaction(id ListenerID, fn CollectionReactionFunc)
	RemoveCollectionReaction(id ListenerID)
	FlushCollectionChange(change CollectionChange)
}

// ItemPropertyReactor reports property reactions of the items it holds.
type ItemPropertyReactor interface {
	AddItemPropertyReaction(id ListenerID, fn ItemPropertyReactionFunc)
	RemoveItemPropertyReaction(id ListenerID)
}

// NotificationToggler switches an object's change notifications on and off.
type NotificationToggler interface {
	DisableNotifications()
	EnableNotifications()
}

type CollectionAction int

const (
	ActionAdd CollectionAction = iota
	ActionRemove
	ActionReplace
	ActionReset
)

func (a CollectionAction) String() string {
	switch a {
	case ActionAdd:
		return "Add"
	case ActionRemove:
		return "Remove"
	case ActionReplace:
		return "Replace"
	case ActionReset:
		return "Reset"
	default:
		return "Unknown"
	}
}

// CollectionChange describes one structural change. Indexes are -1 when not
// applicable.
type CollectionChange struct {
	Session  SessionID
	Action   CollectionAction
	NewItems []any
	OldItems []any
	NewIndex int
	OldIndex int
}

func ResetChange(session SessionID) CollectionChange {
	return CollectionChange{Session: session, Action: ActionReset, NewIndex: -1, OldIndex: -1}
}

func AddChange(session SessionID, items []any, index int) CollectionChange {
	return CollectionChange{Session: session, Action: ActionAdd, NewItems: items, NewIndex: index, OldIndex: -1}
}

func RemoveChange(session SessionID, items []any, index int) CollectionChange {
	return CollectionChange{Session: session, Action: ActionRemove, OldItems: items, NewIndex: -1, OldIndex: index}
}

func ReplaceChange(session SessionID, newItem, oldItem any, index int) CollectionChange {
	return CollectionChange{
		Session:  session,
		Action:   ActionReplace,
		NewItems: []any{newItem},
		OldItems: []any{oldItem},
		NewIndex: index,
		OldIndex: index,
	}
}

// ItemPropertyReaction is a property reaction raised by a collection item.
type ItemPropertyReaction struct {
	Session      SessionID
	Item         any
	PropertyName string
}
