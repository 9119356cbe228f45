// Package ops implements the operator registry: the table binding named operators --
// like "tensordot" -- to their device- and variant-specific compute handlers, and the
// exact-match lookup used at dispatch time.
//
// One logical operator can have several independent bindings: per device (CPU, GPU), per
// structural variant (the generic axis-pair form vs. the integer-axes form) and per
// direction (forward vs. backward). Each combination is a distinct OperatorKey and is
// registered separately, so backend selection never branches inside a handler body: it is
// decided entirely by which handler was registered for the key.
//
// A Registry is an explicit object, passed to whoever needs to dispatch (no package-level
// global), with a two-phase lifecycle:
//
//	reg := ops.NewRegistry()
//	err := tensordot.Register(reg)   // registration phase, single-threaded
//	...
//	reg.Freeze()                     // table becomes read-only
//	err = reg.Invoke(key, inputs, attrs, outputs)  // concurrent lookups, no locking
//
// Resolution is exact: a generic-axes forward handler is never substituted for an
// integer-axes forward request, since the two variants take structurally different
// attribute values and silently substituting one for the other would compute the wrong
// contraction.
package ops

import (
	"fmt"

	"github.com/gomlx/opkit/types/tensors"
)

// OperatorKey uniquely identifies one registered handler: the operator name plus the
// execution variant flags. It is a comparable struct and is used directly as the
// registry's map key.
type OperatorKey struct {
	Name      string
	Device    DeviceType
	Variant   Variant
	Direction Direction
}

// String implements fmt.Stringer. E.g.: "tensordot[CPU,IntAxes,Backward]".
func (k OperatorKey) String() string {
	return fmt.Sprintf("%s[%s,%s,%s]", k.Name, k.Device, k.Variant, k.Direction)
}

// Handler is a compute handler bound to one OperatorKey.
//
// Handlers are stateless: they read the inputs, interpret attrs -- whose concrete type is
// variant-specific (e.g. tensordot.Axes for the generic variant, an int for the
// integer-axes variant) -- and fill the caller-allocated outputs. Any scratch space is
// local to the call, so handlers for disjoint buffers can run concurrently.
//
// Backward handlers receive the original forward inputs followed by the gradient of the
// output as the last input, and must fill one gradient output per forward input, in the
// same order the forward inputs were supplied. The caller's autodiff machinery zips
// gradients back to input slots positionally.
//
// Handlers report failures (shape mismatch, bad axis, unsupported dtype) as a
// *ComputeError; the registry propagates it unmodified.
type Handler func(inputs []*tensors.Tensor, attrs any, outputs []*tensors.Tensor) error
