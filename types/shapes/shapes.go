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

// Package shapes defines Shape, the (DType, dimensions) description of a tensor buffer.
//
// A Shape describes the rank, the dimension of each axis and the element type (DType) of
// a tensor. It is used by operator handlers to describe their inputs and outputs.
// The DType enumeration comes from github.com/gomlx/gopjrt/dtypes.
//
// Glossary:
//
//   - Rank: number of axes (dimensions) of a tensor.
//   - Axis: the index of a dimension. A shape of dimensions [2, 3] has axes 0 and 1.
//   - Dimension: the size along one axis.
//   - Scalar: a shape with no axes, holding a single value.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// Shape represents the shape of a tensor buffer: its element type and the dimension of
// each axis.
//
// Use Make to create a new Shape.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// Make returns a Shape with the given dtype and dimensions.
// It panics if any dimension is not positive: shapes are invariants of buffers, a bad
// dimension is a programming error.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim <= 0 {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with an axis with dimension <= 0", s)
		}
	}
	return s
}

// Scalar returns a scalar Shape for the given Go type.
func Scalar[T dtypes.Supported]() Shape {
	return Shape{DType: dtypes.FromGenericsType[T]()}
}

// Invalid returns an invalid shape. Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: dtypes.InvalidDType}
}

// Ok returns whether this is a valid Shape.
// The zero value Shape{} is invalid.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, the number of axes.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape represents a scalar: no axes, one value.
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// Dim returns the dimension of the given axis.
// A negative axis counts from the end, so Dim(-1) is the dimension of the last axis.
// It panics on an out-of-bounds axis.
func (s Shape) Dim(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// Shape returns a shallow copy of itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// String implements fmt.Stringer, pretty-prints the shape.
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	return fmt.Sprintf("(%s)%v", s.DType, s.Dimensions)
}

// Size returns the number of elements of DType needed for this shape, the product of all
// dimensions. A scalar has size 1.
func (s Shape) Size() (size int) {
	size = 1
	for _, d := range s.Dimensions {
		size *= d
	}
	return
}

// Memory returns the number of bytes needed to store a buffer of this shape.
func (s Shape) Memory() uintptr {
	return s.DType.Memory() * uintptr(s.Size())
}

// Equal compares two shapes for equality: dtype and dimensions must match.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType {
		return false
	}
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// EqualDimensions compares the dimensions of two shapes. DTypes can differ.
func (s Shape) EqualDimensions(s2 Shape) bool {
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(s.Dimensions)}
}

// Strides returns the row-major strides for each axis, in elements (not bytes).
// The last axis has stride 1.
func (s Shape) Strides() []int {
	rank := s.Rank()
	if rank == 0 {
		return nil
	}
	strides := make([]int, rank)
	stride := 1
	for axis := rank - 1; axis >= 0; axis-- {
		strides[axis] = stride
		stride *= s.Dimensions[axis]
	}
	return strides
}

// HasShape is the interface for anything that can report its Shape, typically tensor
// buffers and shapes themselves.
type HasShape interface {
	Shape() Shape
}

// ConcatDimensions returns the concatenation of the dimensions of the given shapes, in
// order. It is used to build the output shape of a contraction: lhs free dimensions
// followed by rhs free dimensions.
func ConcatDimensions(shs ...Shape) []int {
	var total int
	for _, sh := range shs {
		total += sh.Rank()
	}
	dims := make([]int, 0, total)
	for _, sh := range shs {
		dims = append(dims, sh.Dimensions...)
	}
	return dims
}

// CheckDims checks that the shape has the given dimensions, with -1 accepting any value.
// It returns an error (and doesn't panic), so it can be used for validating inputs of
// operator handlers.
func (s Shape) CheckDims(dimensions ...int) error {
	if s.Rank() != len(dimensions) {
		return fmt.Errorf("shape %s has rank %d, wanted rank %d", s, s.Rank(), len(dimensions))
	}
	for axis, dim := range dimensions {
		if dim != -1 && s.Dimensions[axis] != dim {
			wanted := make([]string, len(dimensions))
			for ii, d := range dimensions {
				if d == -1 {
					wanted[ii] = "*"
				} else {
					wanted[ii] = fmt.Sprintf("%d", d)
				}
			}
			return fmt.Errorf("shape %s doesn't match wanted dimensions [%s]", s, strings.Join(wanted, " "))
		}
	}
	return nil
}
