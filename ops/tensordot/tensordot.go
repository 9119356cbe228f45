// Package tensordot implements the CPU handlers for the "tensordot" operator: a
// generalized tensor contraction that sums products over paired axes of two inputs.
//
// Two variants are provided, each with a forward and a backward binding, so the package
// registers four independent keys:
//
//   - Generic: attrs is an Axes value, the ordered list of (lhsAxis, rhsAxis) pairs to
//     contract.
//   - IntAxes: attrs is a single int N, meaning "contract the last N axes of the first
//     input against the first N axes of the second". It expands N into explicit pairs and
//     delegates to the generic path.
//
// The contraction is computed by normalizing both operands to matrices: lhs is transposed
// so its contracted axes come last and flattened to [M, K]; rhs is transposed so its
// contracted axes come first and flattened to [K, N]. The product [M, N] is then the
// output, whose shape is the lhs free dimensions followed by the rhs free dimensions.
//
// Backward handlers receive (lhs, rhs, gradOutput) and fill (gradLhs, gradRhs), in the
// same order the forward inputs were supplied. In matrix form, with A=[M,K], B=[K,N] and
// G=[M,N]: gradA = G·Bᵀ and gradB = Aᵀ·G, un-transposed back to the operands' layouts.
package tensordot

import (
	"github.com/pkg/errors"

	"github.com/gomlx/opkit/ops"
)

// Name of the operator all four keys bind under.
const Name = "tensordot"

// Axes is the attributes value for the Generic variant: the ordered (lhsAxis, rhsAxis)
// pairs to contract. Negative axis values count from the end of the corresponding input.
// An empty Axes computes the outer product.
type Axes [][2]int

// Keys of the four CPU bindings registered by Register.
var (
	GenericForward  = ops.OperatorKey{Name: Name, Device: ops.DeviceCPU, Variant: ops.VariantGeneric, Direction: ops.DirectionForward}
	GenericBackward = ops.OperatorKey{Name: Name, Device: ops.DeviceCPU, Variant: ops.VariantGeneric, Direction: ops.DirectionBackward}
	IntAxesForward  = ops.OperatorKey{Name: Name, Device: ops.DeviceCPU, Variant: ops.VariantIntAxes, Direction: ops.DirectionForward}
	IntAxesBackward = ops.OperatorKey{Name: Name, Device: ops.DeviceCPU, Variant: ops.VariantIntAxes, Direction: ops.DirectionBackward}
)

// Register binds the four CPU tensordot handlers into reg. It must be called during the
// registration phase, before reg is frozen.
func Register(reg *ops.Registry) error {
	bindings := []struct {
		key     ops.OperatorKey
		handler ops.Handler
	}{
		{GenericForward, execGenericForward},
		{GenericBackward, execGenericBackward},
		{IntAxesForward, execIntAxesForward},
		{IntAxesBackward, execIntAxesBackward},
	}
	for _, binding := range bindings {
		if err := reg.Register(binding.key, binding.handler); err != nil {
			return err
		}
	}
	return nil
}

// computeErrorf wraps a handler failure as *ops.ComputeError for the given binding.
func computeErrorf(key ops.OperatorKey, format string, args ...any) error {
	return &ops.ComputeError{Key: key, Err: errors.Errorf(format, args...)}
}

// axesFromInt expands the IntAxes attribute value n into explicit contraction pairs:
// the last n axes of an operand with rank lhsRank against the first n axes of the other.
func axesFromInt(key ops.OperatorKey, n, lhsRank, rhsRank int) (Axes, error) {
	if n < 0 {
		return nil, computeErrorf(key, "axes count must be non-negative, got %d", n)
	}
	if n > lhsRank || n > rhsRank {
		return nil, computeErrorf(key, "axes count %d exceeds operand ranks (lhs=%d, rhs=%d)", n, lhsRank, rhsRank)
	}
	axes := make(Axes, n)
	for ii := range n {
		axes[ii] = [2]int{lhsRank - n + ii, ii}
	}
	return axes, nil
}
