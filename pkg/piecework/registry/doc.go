// Package registry holds the ordered, concurrency-safe map behind piece
// pools and factory tables.
//
//	r := registry.New[string, piece.Constructor]()
//	r.Register("ping", newPing)
//	for name, ctor := range r.All() {
//		...
//	}
//
// Keys come back in first-registration order. Replacing a key leaves it in
// place; deleting and re-registering moves it to the end.
package registry
