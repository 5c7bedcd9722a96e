// Package notify is a property-notification and dependency-propagation
// engine for view-models.
//
// An owner declares that property P depends on other local properties,
// on properties of objects it references, or on referenced collections.
// Whenever one of those sources changes, P's change notification is raised
// too, transitively, through chains of referenced notifiers and collections.
//
// # Sessions
//
// Every externally visible mutation runs inside a session. Reactions raised
// while the session is open are recorded once per (notifier, property) and
// flushed to PropertyChanged / CollectionChanged subscribers when the
// session ends:
//
//	sys := notify.NewSystem()
//	p := notify.NewNotifier(sys)
//	p.PropertyOf("FullName").
//	    DependsOnProperty("First").
//	    DependsOnProperty("Last")
//	p.OnPropertyChanged(func(source any, name string) {
//	    fmt.Println(name)
//	})
//	p.SetValue("First", "Ada") // First, FullName
//
// # Collections
//
// Collection[T] is an observable list built on Notifier. Composite
// operations (AddRange, InsertRange, RemoveAll, RemoveRange) group the
// notifications of their single-item steps into one substitute collection
// event plus one notification per affected property.
//
// # Thread Safety
//
// Registries are concurrent maps and may be touched from several
// goroutines. Propagation itself is synchronous on the calling goroutine and
// two goroutines mutating the same owner may interleave their sessions.
package notify
