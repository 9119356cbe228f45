package tensordot

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"

	"github.com/gomlx/opkit/ops"
	"github.com/gomlx/opkit/types/shapes"
	"github.com/gomlx/opkit/types/tensors"
)

// contractionPlan is the normalized form of one contraction: the permutations that bring
// each operand to its matrix layout, and the matrix sizes.
//
// lhsPerm reorders lhs axes to (free..., contracted...), flattened to [m, k].
// rhsPerm reorders rhs axes to (contracted..., free...), flattened to [k, n].
// The output dimensions are the lhs free dimensions followed by the rhs free dimensions.
type contractionPlan struct {
	lhsPerm, rhsPerm []int
	m, k, n          int
	outDims          []int
}

// podFloatConstraints are the Go float types the kernels run on natively. Half-precision
// inputs are converted to float32, computed, and converted back.
type podFloatConstraints interface {
	float32 | float64
}

// adjustAxisToRank returns a non-negative axis, adjusting negative values to the rank.
func adjustAxisToRank(rank, axis int) (int, bool) {
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return -1, false
	}
	return axis, true
}

// buildPlan validates axes against the operand shapes and computes the normalization.
func buildPlan(key ops.OperatorKey, lhs, rhs shapes.Shape, axes Axes) (*contractionPlan, error) {
	lhsRank, rhsRank := lhs.Rank(), rhs.Rank()
	lhsContracted := make([]bool, lhsRank)
	rhsContracted := make([]bool, rhsRank)
	lhsContracting := make([]int, 0, len(axes))
	rhsContracting := make([]int, 0, len(axes))
	for _, pair := range axes {
		lhsAxis, ok := adjustAxisToRank(lhsRank, pair[0])
		if !ok {
			return nil, computeErrorf(key, "lhs axis %d is out of range for shape %s", pair[0], lhs)
		}
		rhsAxis, ok := adjustAxisToRank(rhsRank, pair[1])
		if !ok {
			return nil, computeErrorf(key, "rhs axis %d is out of range for shape %s", pair[1], rhs)
		}
		if lhsContracted[lhsAxis] {
			return nil, computeErrorf(key, "lhs axis %d appears more than once in the contraction", lhsAxis)
		}
		if rhsContracted[rhsAxis] {
			return nil, computeErrorf(key, "rhs axis %d appears more than once in the contraction", rhsAxis)
		}
		if lhs.Dimensions[lhsAxis] != rhs.Dimensions[rhsAxis] {
			return nil, computeErrorf(key, "contracting dimensions don't match: lhs[%d]=%d != rhs[%d]=%d",
				lhsAxis, lhs.Dimensions[lhsAxis], rhsAxis, rhs.Dimensions[rhsAxis])
		}
		lhsContracted[lhsAxis] = true
		rhsContracted[rhsAxis] = true
		lhsContracting = append(lhsContracting, lhsAxis)
		rhsContracting = append(rhsContracting, rhsAxis)
	}

	plan := &contractionPlan{m: 1, k: 1, n: 1}
	plan.lhsPerm = make([]int, 0, lhsRank)
	for axis := range lhsRank {
		if !lhsContracted[axis] {
			plan.lhsPerm = append(plan.lhsPerm, axis)
			plan.m *= lhs.Dimensions[axis]
			plan.outDims = append(plan.outDims, lhs.Dimensions[axis])
		}
	}
	plan.lhsPerm = append(plan.lhsPerm, lhsContracting...)

	plan.rhsPerm = make([]int, 0, rhsRank)
	plan.rhsPerm = append(plan.rhsPerm, rhsContracting...)
	for axis := range rhsRank {
		if !rhsContracted[axis] {
			plan.rhsPerm = append(plan.rhsPerm, axis)
			plan.n *= rhs.Dimensions[axis]
			plan.outDims = append(plan.outDims, rhs.Dimensions[axis])
		}
	}
	for _, lhsAxis := range lhsContracting {
		plan.k *= lhs.Dimensions[lhsAxis]
	}
	return plan, nil
}

// outputShape of the contraction: lhs free dims ++ rhs free dims, scalar if none remain.
func (p *contractionPlan) outputShape(dtype dtypes.DType) shapes.Shape {
	if len(p.outDims) == 0 {
		return shapes.Shape{DType: dtype}
	}
	return shapes.Make(dtype, p.outDims...)
}

// transposeCopy copies src (with the given dims) into dst, contiguous in the axis order
// given by perm: dst axis ii iterates over src axis perm[ii]. Scalars copy through.
func transposeCopy[T any](src []T, dims, perm []int, dst []T) {
	rank := len(dims)
	if rank == 0 {
		dst[0] = src[0]
		return
	}
	srcStrides := make([]int, rank)
	stride := 1
	for axis := rank - 1; axis >= 0; axis-- {
		srcStrides[axis] = stride
		stride *= dims[axis]
	}
	permStrides := make([]int, rank)
	permDims := make([]int, rank)
	for ii, axis := range perm {
		permStrides[ii] = srcStrides[axis]
		permDims[ii] = dims[axis]
	}

	// Odometer walk over the permuted index space, tracking the source offset.
	indices := make([]int, rank)
	srcOffset := 0
	for dstOffset := range dst {
		dst[dstOffset] = src[srcOffset]
		for axis := rank - 1; axis >= 0; axis-- {
			indices[axis]++
			srcOffset += permStrides[axis]
			if indices[axis] < permDims[axis] {
				break
			}
			indices[axis] = 0
			srcOffset -= permStrides[axis] * permDims[axis]
		}
	}
}

// inversePermutation returns the permutation that undoes perm.
func inversePermutation(perm []int) []int {
	inverse := make([]int, len(perm))
	for ii, axis := range perm {
		inverse[axis] = ii
	}
	return inverse
}

// permutedDims returns dims reordered by perm.
func permutedDims(dims, perm []int) []int {
	permuted := make([]int, len(perm))
	for ii, axis := range perm {
		permuted[ii] = dims[axis]
	}
	return permuted
}

// matmul computes out[m,n] = Σ_k a[m,k]·b[k,n]. All matrices are flat, row-major.
func matmul[T podFloatConstraints](a, b, out []T, m, k, n int) {
	for row := range m {
		outRow := out[row*n : (row+1)*n]
		for ii := range outRow {
			outRow[ii] = 0
		}
		aRow := a[row*k : (row+1)*k]
		for kk, aValue := range aRow {
			if aValue == 0 {
				continue
			}
			bRow := b[kk*n : (kk+1)*n]
			for col, bValue := range bRow {
				outRow[col] += aValue * bValue
			}
		}
	}
}

// execGenericForward is the handler bound to GenericForward: inputs are (lhs, rhs),
// attrs is an Axes value and outputs is the single contraction result.
func execGenericForward(inputs []*tensors.Tensor, attrs any, outputs []*tensors.Tensor) error {
	return forward(GenericForward, inputs, attrs, outputs)
}

// execIntAxesForward is the handler bound to IntAxesForward: attrs is the int count of
// contracted axes, expanded to pairs and delegated to the generic path.
func execIntAxesForward(inputs []*tensors.Tensor, attrs any, outputs []*tensors.Tensor) error {
	return forward(IntAxesForward, inputs, attrs, outputs)
}

func forward(key ops.OperatorKey, inputs []*tensors.Tensor, attrs any, outputs []*tensors.Tensor) error {
	if len(inputs) != 2 {
		return computeErrorf(key, "wants 2 inputs (lhs, rhs), got %d", len(inputs))
	}
	if len(outputs) != 1 {
		return computeErrorf(key, "wants 1 output, got %d", len(outputs))
	}
	lhs, rhs, out := inputs[0], inputs[1], outputs[0]
	axes, err := attrsToAxes(key, attrs, lhs.Rank(), rhs.Rank())
	if err != nil {
		return err
	}
	dtype := lhs.DType()
	if dtype != rhs.DType() {
		return computeErrorf(key, "lhs and rhs dtypes don't match: %s and %s", dtype, rhs.DType())
	}
	plan, err := buildPlan(key, lhs.Shape(), rhs.Shape(), axes)
	if err != nil {
		return err
	}
	wantShape := plan.outputShape(dtype)
	if !out.Shape().Equal(wantShape) {
		return computeErrorf(key, "output shape is %s, wanted %s", out.Shape(), wantShape)
	}

	switch dtype {
	case dtypes.Float32:
		forwardFlat(flat[float32](lhs), flat[float32](rhs), flat[float32](out), lhs.Shape(), rhs.Shape(), plan)
	case dtypes.Float64:
		forwardFlat(flat[float64](lhs), flat[float64](rhs), flat[float64](out), lhs.Shape(), rhs.Shape(), plan)
	case dtypes.Float16:
		outF32 := make([]float32, out.Size())
		forwardFlat(float16ToFloat32(flat[float16.Float16](lhs)), float16ToFloat32(flat[float16.Float16](rhs)),
			outF32, lhs.Shape(), rhs.Shape(), plan)
		float32ToFloat16(outF32, flat[float16.Float16](out))
	case dtypes.BFloat16:
		outF32 := make([]float32, out.Size())
		forwardFlat(bfloat16ToFloat32(flat[bfloat16.BFloat16](lhs)), bfloat16ToFloat32(flat[bfloat16.BFloat16](rhs)),
			outF32, lhs.Shape(), rhs.Shape(), plan)
		float32ToBFloat16(outF32, flat[bfloat16.BFloat16](out))
	default:
		return computeErrorf(key, "unsupported dtype %s", dtype)
	}
	return nil
}

// forwardFlat runs the normalized contraction on flat slices: transpose both operands to
// their matrix layouts and multiply. The output needs no un-transposing, its natural
// layout is already (lhs free dims ++ rhs free dims).
func forwardFlat[T podFloatConstraints](lhsFlat, rhsFlat, outFlat []T, lhs, rhs shapes.Shape, plan *contractionPlan) {
	lhsMatrix := make([]T, len(lhsFlat))
	transposeCopy(lhsFlat, lhs.Dimensions, plan.lhsPerm, lhsMatrix)
	rhsMatrix := make([]T, len(rhsFlat))
	transposeCopy(rhsFlat, rhs.Dimensions, plan.rhsPerm, rhsMatrix)
	matmul(lhsMatrix, rhsMatrix, outFlat, plan.m, plan.k, plan.n)
}

// attrsToAxes interprets the variant-specific attrs value.
func attrsToAxes(key ops.OperatorKey, attrs any, lhsRank, rhsRank int) (Axes, error) {
	switch key.Variant {
	case ops.VariantGeneric:
		axes, ok := attrs.(Axes)
		if !ok {
			return nil, computeErrorf(key, "attrs must be a tensordot.Axes, got %T", attrs)
		}
		return axes, nil
	case ops.VariantIntAxes:
		n, ok := attrs.(int)
		if !ok {
			return nil, computeErrorf(key, "attrs must be an int, got %T", attrs)
		}
		return axesFromInt(key, n, lhsRank, rhsRank)
	}
	return nil, computeErrorf(key, "unsupported variant %s", key.Variant)
}

func flat[T dtypes.Supported](t *tensors.Tensor) []T {
	var data []T
	tensors.MutableFlatData(t, func(f []T) { data = f })
	return data
}

func float16ToFloat32(values []float16.Float16) []float32 {
	converted := make([]float32, len(values))
	for ii, value := range values {
		converted[ii] = value.Float32()
	}
	return converted
}

func float32ToFloat16(values []float32, to []float16.Float16) {
	for ii, value := range values {
		to[ii] = float16.Fromfloat32(value)
	}
}

func bfloat16ToFloat32(values []bfloat16.BFloat16) []float32 {
	converted := make([]float32, len(values))
	for ii, value := range values {
		converted[ii] = value.Float32()
	}
	return converted
}

func float32ToBFloat16(values []float32, to []bfloat16.BFloat16) {
	for ii, value := range values {
		to[ii] = bfloat16.FromFloat32(value)
	}
}
