package ops

import (
	"slices"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/opkit/types/tensors"
)

// Registry maps OperatorKey to Handler.
//
// It has two phases: during registration -- single-threaded, at initialization -- bindings
// are added with Register. After Freeze the table is read-only, and Resolve/Invoke may be
// called concurrently without any locking in the registry (handlers themselves are
// stateless and operate on caller-supplied buffers).
type Registry struct {
	handlers map[OperatorKey]Handler
	frozen   bool
}

// NewRegistry returns an empty, unfrozen Registry.
//
// Registries are meant to be explicitly constructed and passed along (dependency
// injection), so initialization order is deterministic and tests can build isolated
// tables.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[OperatorKey]Handler)}
}

// Register binds key to handler.
//
// It returns a *DuplicateRegistrationError if the key is already bound, and a plain error
// if the registry was already frozen or the handler is nil. Register must only be called
// during the initialization phase, before any concurrent lookup starts.
func (r *Registry) Register(key OperatorKey, handler Handler) error {
	if r.frozen {
		return errors.Errorf("cannot register operator %s: registry is frozen", key)
	}
	if handler == nil {
		return errors.Errorf("cannot register operator %s with a nil handler", key)
	}
	if _, found := r.handlers[key]; found {
		return errors.WithStack(&DuplicateRegistrationError{Key: key})
	}
	klog.V(1).Infof("ops: registered %s", key)
	r.handlers[key] = handler
	return nil
}

// Freeze ends the registration phase. Afterwards, Register fails and the table is
// read-only, making concurrent Resolve/Invoke safe without locks. Freezing twice is a
// no-op.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool { return r.frozen }

// Resolve returns the handler bound to exactly key.
//
// Device, variant and direction must all match: a Generic handler is never returned for
// an IntAxes request even when the names match, because the two accept differently shaped
// attributes. It returns a *UnregisteredOperatorError if there is no exact match.
func (r *Registry) Resolve(key OperatorKey) (Handler, error) {
	handler, found := r.handlers[key]
	if !found {
		return nil, errors.WithStack(&UnregisteredOperatorError{Key: key})
	}
	return handler, nil
}

// Invoke resolves key and calls the handler on the given buffers.
//
// Handler errors (*ComputeError) propagate to the caller unmodified -- this layer doesn't
// catch or retry. Invocations for disjoint buffers may run concurrently once the registry
// is frozen.
func (r *Registry) Invoke(key OperatorKey, inputs []*tensors.Tensor, attrs any, outputs []*tensors.Tensor) error {
	handler, err := r.Resolve(key)
	if err != nil {
		return err
	}
	return handler(inputs, attrs, outputs)
}

// Keys returns a sorted snapshot of all registered keys, for diagnostics and tooling.
func (r *Registry) Keys() []OperatorKey {
	keys := make([]OperatorKey, 0, len(r.handlers))
	for key := range r.handlers {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b OperatorKey) int {
		if cmp := strings.Compare(a.Name, b.Name); cmp != 0 {
			return cmp
		}
		if a.Device != b.Device {
			return int(a.Device) - int(b.Device)
		}
		if a.Variant != b.Variant {
			return int(a.Variant) - int(b.Variant)
		}
		return int(a.Direction) - int(b.Direction)
	})
	return keys
}
