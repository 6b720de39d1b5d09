package embedder

import "sync"

// Handle is an opaque token identifying a registered instance. Tokens are
// never reused, so a stale handle can never alias a newer instance. The zero
// Handle is never issued and acts as the null handle.
type Handle uintptr

var registry = struct {
	mu        sync.Mutex
	next      Handle
	instances map[Handle]*Instance
}{
	next:      1,
	instances: make(map[Handle]*Instance),
}

// Register assigns a fresh handle to inst and returns it.
func Register(inst *Instance) Handle {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	h := registry.next
	registry.next++
	registry.instances[h] = inst
	return h
}

// Lookup returns the instance for h, or false for the null handle, an
// unknown token, or a handle that has already been unregistered.
func Lookup(h Handle) (*Instance, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	inst, ok := registry.instances[h]
	return inst, ok
}

// Unregister removes h from the registry and returns its instance. The
// second call for the same handle returns false, which makes free idempotent
// at the boundary.
func Unregister(h Handle) (*Instance, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	inst, ok := registry.instances[h]
	if ok {
		delete(registry.instances, h)
	}
	return inst, ok
}
