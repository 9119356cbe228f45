package tensordot

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"

	"github.com/gomlx/opkit/ops"
	"github.com/gomlx/opkit/types/shapes"
	"github.com/gomlx/opkit/types/tensors"
)

// execGenericBackward is the handler bound to GenericBackward.
//
// Inputs are the forward inputs plus the output gradient: (lhs, rhs, gradOutput).
// Outputs are one gradient per forward input, positionally: (gradLhs, gradRhs).
func execGenericBackward(inputs []*tensors.Tensor, attrs any, outputs []*tensors.Tensor) error {
	return backward(GenericBackward, inputs, attrs, outputs)
}

// execIntAxesBackward is the handler bound to IntAxesBackward; attrs is the int count.
func execIntAxesBackward(inputs []*tensors.Tensor, attrs any, outputs []*tensors.Tensor) error {
	return backward(IntAxesBackward, inputs, attrs, outputs)
}

func backward(key ops.OperatorKey, inputs []*tensors.Tensor, attrs any, outputs []*tensors.Tensor) error {
	if len(inputs) != 3 {
		return computeErrorf(key, "wants 3 inputs (lhs, rhs, gradOutput), got %d", len(inputs))
	}
	if len(outputs) != 2 {
		return computeErrorf(key, "wants 2 outputs (gradLhs, gradRhs), got %d", len(outputs))
	}
	lhs, rhs, gradOut := inputs[0], inputs[1], inputs[2]
	gradLhs, gradRhs := outputs[0], outputs[1]
	axes, err := attrsToAxes(key, attrs, lhs.Rank(), rhs.Rank())
	if err != nil {
		return err
	}
	dtype := lhs.DType()
	if dtype != rhs.DType() || dtype != gradOut.DType() {
		return computeErrorf(key, "inputs dtypes don't match: lhs=%s, rhs=%s, gradOutput=%s",
			dtype, rhs.DType(), gradOut.DType())
	}
	plan, err := buildPlan(key, lhs.Shape(), rhs.Shape(), axes)
	if err != nil {
		return err
	}
	if wantShape := plan.outputShape(dtype); !gradOut.Shape().Equal(wantShape) {
		return computeErrorf(key, "gradOutput shape is %s, wanted %s", gradOut.Shape(), wantShape)
	}
	if !gradLhs.Shape().Equal(lhs.Shape()) {
		return computeErrorf(key, "gradLhs shape is %s, wanted the lhs shape %s", gradLhs.Shape(), lhs.Shape())
	}
	if !gradRhs.Shape().Equal(rhs.Shape()) {
		return computeErrorf(key, "gradRhs shape is %s, wanted the rhs shape %s", gradRhs.Shape(), rhs.Shape())
	}

	switch dtype {
	case dtypes.Float32:
		backwardFlat(flat[float32](lhs), flat[float32](rhs), flat[float32](gradOut),
			flat[float32](gradLhs), flat[float32](gradRhs), lhs.Shape(), rhs.Shape(), plan)
	case dtypes.Float64:
		backwardFlat(flat[float64](lhs), flat[float64](rhs), flat[float64](gradOut),
			flat[float64](gradLhs), flat[float64](gradRhs), lhs.Shape(), rhs.Shape(), plan)
	case dtypes.Float16:
		gradLhsF32 := make([]float32, gradLhs.Size())
		gradRhsF32 := make([]float32, gradRhs.Size())
		backwardFlat(float16ToFloat32(flat[float16.Float16](lhs)), float16ToFloat32(flat[float16.Float16](rhs)),
			float16ToFloat32(flat[float16.Float16](gradOut)), gradLhsF32, gradRhsF32, lhs.Shape(), rhs.Shape(), plan)
		float32ToFloat16(gradLhsF32, flat[float16.Float16](gradLhs))
		float32ToFloat16(gradRhsF32, flat[float16.Float16](gradRhs))
	case dtypes.BFloat16:
		gradLhsF32 := make([]float32, gradLhs.Size())
		gradRhsF32 := make([]float32, gradRhs.Size())
		backwardFlat(bfloat16ToFloat32(flat[bfloat16.BFloat16](lhs)), bfloat16ToFloat32(flat[bfloat16.BFloat16](rhs)),
			bfloat16ToFloat32(flat[bfloat16.BFloat16](gradOut)), gradLhsF32, gradRhsF32, lhs.Shape(), rhs.Shape(), plan)
		float32ToBFloat16(gradLhsF32, flat[bfloat16.BFloat16](gradLhs))
		float32ToBFloat16(gradRhsF32, flat[bfloat16.BFloat16](gradRhs))
	default:
		return computeErrorf(key, "unsupported dtype %s", dtype)
	}
	return nil
}

// backwardFlat computes both gradients in the normalized matrix space and un-transposes
// them back to the operands' original layouts. gradOutput needs no transposing: its
// natural layout already is the normalized [m, n].
func backwardFlat[T podFloatConstraints](lhsFlat, rhsFlat, gradOutFlat, gradLhsFlat, gradRhsFlat []T,
	lhs, rhs shapes.Shape, plan *contractionPlan) {
	lhsMatrix := make([]T, len(lhsFlat))
	transposeCopy(lhsFlat, lhs.Dimensions, plan.lhsPerm, lhsMatrix)
	rhsMatrix := make([]T, len(rhsFlat))
	transposeCopy(rhsFlat, rhs.Dimensions, plan.rhsPerm, rhsMatrix)

	gradLhsMatrix := make([]T, len(lhsFlat))
	matmulNT(gradOutFlat, rhsMatrix, gradLhsMatrix, plan.m, plan.n, plan.k)
	gradRhsMatrix := make([]T, len(rhsFlat))
	matmulTN(lhsMatrix, gradOutFlat, gradRhsMatrix, plan.m, plan.k, plan.n)

	transposeCopy(gradLhsMatrix, permutedDims(lhs.Dimensions, plan.lhsPerm), inversePermutation(plan.lhsPerm), gradLhsFlat)
	transposeCopy(gradRhsMatrix, permutedDims(rhs.Dimensions, plan.rhsPerm), inversePermutation(plan.rhsPerm), gradRhsFlat)
}

// matmulNT computes out[m,k] = Σ_n g[m,n]·b[k,n], i.e. G·Bᵀ.
func matmulNT[T podFloatConstraints](g, b, out []T, m, n, k int) {
	for row := range m {
		gRow := g[row*n : (row+1)*n]
		outRow := out[row*k : (row+1)*k]
		for col := range k {
			bRow := b[col*n : (col+1)*n]
			var sum T
			for nn, gValue := range gRow {
				sum += gValue * bRow[nn]
			}
			outRow[col] = sum
		}
	}
}

// matmulTN computes out[k,n] = Σ_m a[m,k]·g[m,n], i.e. Aᵀ·G.
func matmulTN[T podFloatConstraints](a, g, out []T, m, k, n int) {
	for ii := range out {
		out[ii] = 0
	}
	for row := range m {
		aRow := a[row*k : (row+1)*k]
		gRow := g[row*n : (row+1)*n]
		for kk, aValue := range aRow {
			if aValue == 0 {
				continue
			}
			outRow := out[kk*n : (kk+1)*n]
			for nn, gValue := range gRow {
				outRow[nn] += aValue * gValue
			}
		}
	}
}
