package cache

import "sync"

// Object is a refcounted handle to a cached value. Each call to
// Manager.Load that returns the same underlying value shares one Object;
// the value's free function (Store.Free) runs exactly once, the moment the
// last outstanding handle calls Release.
//
// The Rust original freed a value from its Drop impl once the last Arc
// reference was gone; Go has no destructor, so release is explicit here —
// callers must call Release when done with a loaded Object.
type Object[V any] struct {
	inner *objectInner[V]
}

type objectInner[V any] struct {
	mu    sync.Mutex
	value V
	free  func(V)
	refs  int
}

func newObject[V any](value V, free func(V)) Object[V] {
	return Object[V]{inner: &objectInner[V]{value: value, free: free, refs: 1}}
}

// Value returns the cached value. It remains valid until this Object (and
// every clone of it) has been Released.
func (o Object[V]) Value() V {
	return o.inner.value
}

// Clone returns a new handle to the same underlying value, incrementing
// its refcount. Each clone must be Released independently.
func (o Object[V]) Clone() Object[V] {
	o.inner.mu.Lock()
	o.inner.refs++
	o.inner.mu.Unlock()
	return o
}

// Release decrements the shared refcount, running the value's free function
// once it reaches zero. Each handle must be Released exactly once: a second
// Release on the same handle drops another holder's reference. Calls made
// after the count has reached zero are no-ops.
func (o Object[V]) Release() {
	o.inner.mu.Lock()
	if o.inner.refs <= 0 {
		o.inner.mu.Unlock()
		return
	}
	o.inner.refs--
	refs := o.inner.refs
	free := o.inner.free
	value := o.inner.value
	o.inner.mu.Unlock()
	if refs == 0 && free != nil {
		free(value)
	}
}
