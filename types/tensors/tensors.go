/*
 *	Copyright 2025 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package tensors implements Tensor, a host-memory multi-dimensional array used as input
// and output buffers of operator handlers.
//
// A Tensor is defined by its shape (see github.com/gomlx/opkit/types/shapes) and its
// content, stored as a flat (1D) slice of the Go type corresponding to the shape's DType.
//
// Construction:
//
//   - FromShape(shape): a tensor of the given shape, zero-initialized.
//   - FromFlatDataAndDimensions(data, dimensions...): a tensor with the given dimensions,
//     with the flattened values set from data. Example:
//
//     t := tensors.FromFlatDataAndDimensions([]float32{1, 2, 3, 4}, 2, 2)  // [[1,2],[3,4]]
//
// Tensors are plain host buffers: ownership stays with the caller, and handlers operating
// on disjoint tensors may run concurrently. There is no synchronization inside Tensor.
package tensors

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/gomlx/opkit/types/shapes"
	"github.com/x448/float16"
)

// Tensor is a multi-dimensional array of one of the supported DTypes, stored flat in
// row-major order.
type Tensor struct {
	shape shapes.Shape
	flat  any // Slice of the Go type corresponding to shape.DType.
}

// FromShape returns a zero-initialized Tensor of the given shape.
// It panics on an invalid shape or unsupported dtype -- those are programming errors.
func FromShape(shape shapes.Shape) *Tensor {
	if !shape.Ok() {
		exceptions.Panicf("tensors.FromShape(%s): invalid shape", shape)
	}
	return &Tensor{
		shape: shape.Clone(),
		flat:  allocFlat(shape.DType, shape.Size()),
	}
}

// FromFlatDataAndDimensions returns a Tensor with the given dimensions, with its
// flattened content copied from data. The data length must match the product of the
// dimensions.
func FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int) *Tensor {
	shape := shapes.Make(dtypes.FromGenericsType[T](), dimensions...)
	if len(data) != shape.Size() {
		exceptions.Panicf("tensors.FromFlatDataAndDimensions: got %d values for shape %s, which requires %d values",
			len(data), shape, shape.Size())
	}
	flat := make([]T, len(data))
	copy(flat, data)
	return &Tensor{shape: shape, flat: flat}
}

// FromScalar returns a scalar (rank-0) Tensor with the given value.
func FromScalar[T dtypes.Supported](value T) *Tensor {
	return &Tensor{shape: shapes.Scalar[T](), flat: []T{value}}
}

// Shape of the tensor.
func (t *Tensor) Shape() shapes.Shape { return t.shape }

// DType of the tensor's elements, a shortcut to Shape().DType.
func (t *Tensor) DType() dtypes.DType { return t.shape.DType }

// Rank of the tensor, a shortcut to Shape().Rank().
func (t *Tensor) Rank() int { return t.shape.Rank() }

// Size is the number of elements stored, a shortcut to Shape().Size().
func (t *Tensor) Size() int { return t.shape.Size() }

// Flat returns the tensor's underlying flat slice as an `any`. The concrete type is a
// slice of the Go type corresponding to the DType. The slice is owned by the tensor.
func (t *Tensor) Flat() any { return t.flat }

// ConstFlatData calls accessFn with the flattened data. The slice is the actual tensor
// storage, not a copy, and must not be modified.
//
// It panics if T doesn't correspond to the tensor's dtype.
func ConstFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	accessFn(flatData[T](t))
}

// MutableFlatData calls accessFn with the flattened data, which may be modified in place.
//
// It panics if T doesn't correspond to the tensor's dtype.
func MutableFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	accessFn(flatData[T](t))
}

// CopyFlatData returns a copy of the tensor's flattened data.
func CopyFlatData[T dtypes.Supported](t *Tensor) []T {
	flat := flatData[T](t)
	flatCopy := make([]T, len(flat))
	copy(flatCopy, flat)
	return flatCopy
}

// AssignFlatData copies fromFlat into the tensor's storage. It panics if the dtypes or
// sizes don't match.
func AssignFlatData[T dtypes.Supported](toTensor *Tensor, fromFlat []T) {
	flat := flatData[T](toTensor)
	if len(flat) != len(fromFlat) {
		var v T
		exceptions.Panicf("tensors.AssignFlatData[%T] is trying to store %d values into shape %s, which requires %d values",
			v, len(fromFlat), toTensor.Shape(), toTensor.Shape().Size())
	}
	copy(flat, fromFlat)
}

// ToScalar returns the value of a scalar (rank-0) Tensor.
// It panics if the tensor is not a scalar or T doesn't match the dtype.
func ToScalar[T dtypes.Supported](t *Tensor) T {
	if !t.shape.IsScalar() {
		var v T
		exceptions.Panicf("tensors.ToScalar[%T] requires a scalar Tensor, got shape %s instead", v, t.shape)
	}
	return flatData[T](t)[0]
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	clone := FromShape(t.shape)
	copyAny(clone.flat, t.flat, t.shape.DType)
	return clone
}

func flatData[T dtypes.Supported](t *Tensor) []T {
	if t.shape.DType != dtypes.FromGenericsType[T]() {
		var v T
		exceptions.Panicf("flat data access with type %T is incompatible with tensor's dtype %s", v, t.shape.DType)
	}
	return t.flat.([]T)
}

func allocFlat(dtype dtypes.DType, size int) any {
	switch dtype {
	case dtypes.Bool:
		return make([]bool, size)
	case dtypes.Int8:
		return make([]int8, size)
	case dtypes.Int16:
		return make([]int16, size)
	case dtypes.Int32:
		return make([]int32, size)
	case dtypes.Int64:
		return make([]int64, size)
	case dtypes.Uint8:
		return make([]uint8, size)
	case dtypes.Uint16:
		return make([]uint16, size)
	case dtypes.Uint32:
		return make([]uint32, size)
	case dtypes.Uint64:
		return make([]uint64, size)
	case dtypes.Float16:
		return make([]float16.Float16, size)
	case dtypes.BFloat16:
		return make([]bfloat16.BFloat16, size)
	case dtypes.Float32:
		return make([]float32, size)
	case dtypes.Float64:
		return make([]float64, size)
	default:
		exceptions.Panicf("tensors: unsupported dtype %s", dtype)
	}
	return nil
}

func copyAny(dst, src any, dtype dtypes.DType) {
	switch dtype {
	case dtypes.Bool:
		copy(dst.([]bool), src.([]bool))
	case dtypes.Int8:
		copy(dst.([]int8), src.([]int8))
	case dtypes.Int16:
		copy(dst.([]int16), src.([]int16))
	case dtypes.Int32:
		copy(dst.([]int32), src.([]int32))
	case dtypes.Int64:
		copy(dst.([]int64), src.([]int64))
	case dtypes.Uint8:
		copy(dst.([]uint8), src.([]uint8))
	case dtypes.Uint16:
		copy(dst.([]uint16), src.([]uint16))
	case dtypes.Uint32:
		copy(dst.([]uint32), src.([]uint32))
	case dtypes.Uint64:
		copy(dst.([]uint64), src.([]uint64))
	case dtypes.Float16:
		copy(dst.([]float16.Float16), src.([]float16.Float16))
	case dtypes.BFloat16:
		copy(dst.([]bfloat16.BFloat16), src.([]bfloat16.BFloat16))
	case dtypes.Float32:
		copy(dst.([]float32), src.([]float32))
	case dtypes.Float64:
		copy(dst.([]float64), src.([]float64))
	default:
		exceptions.Panicf("tensors: unsupported dtype %s", dtype)
	}
}
