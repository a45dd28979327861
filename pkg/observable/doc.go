// Package observable provides Array, an ordered collection that keeps any
// number of observers in step with its contents.
//
// Observers are held weakly: build an identity with ObserverOf and the array
// forgets the observer's handlers once the observer has been collected.
//
//	type listScreen struct{ rows []string }
//
//	screen := &listScreen{}
//	players := observable.New([]string{"alice", "bob"},
//	    observable.WithOrder(func(a, b string) bool { return a < b }))
//	players.Subscribe(observable.ObserverOf(screen), observable.Handlers[string]{
//	    Insert: func(v string, at int) { /* insert row at */ },
//	    Remove: func(v string, at int) { /* delete row at */ },
//	})
//	players.Append("amy") // inserted at 1
//
// Indices outside the collection bounds are caller bugs: the offending call
// panics with an *IndexError before touching any state.
package observable
