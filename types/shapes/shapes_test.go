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

package shapes

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	s := Make(dtypes.Float32, 2, 3)
	assert.Equal(t, 2, s.Rank())
	assert.Equal(t, 6, s.Size())
	assert.Equal(t, "(Float32)[2 3]", s.String())
	assert.True(t, s.Ok())

	assert.Panics(t, func() { Make(dtypes.Float32, 2, 0) })
	assert.Panics(t, func() { Make(dtypes.Float32, -1) })
}

func TestScalar(t *testing.T) {
	s := Scalar[float64]()
	assert.True(t, s.IsScalar())
	assert.Equal(t, 0, s.Rank())
	assert.Equal(t, 1, s.Size())
	assert.Equal(t, dtypes.Float64, s.DType)
}

func TestDim(t *testing.T) {
	s := Make(dtypes.Int32, 2, 3, 5)
	assert.Equal(t, 5, s.Dim(2))
	assert.Equal(t, 5, s.Dim(-1))
	assert.Equal(t, 2, s.Dim(-3))
	assert.Panics(t, func() { s.Dim(3) })
	assert.Panics(t, func() { s.Dim(-4) })
}

func TestEqual(t *testing.T) {
	a := Make(dtypes.Float32, 2, 3)
	assert.True(t, a.Equal(Make(dtypes.Float32, 2, 3)))
	assert.False(t, a.Equal(Make(dtypes.Float64, 2, 3)))
	assert.False(t, a.Equal(Make(dtypes.Float32, 3, 2)))
	assert.True(t, a.EqualDimensions(Make(dtypes.Float64, 2, 3)))
}

func TestClone(t *testing.T) {
	a := Make(dtypes.Float32, 2, 3)
	b := a.Clone()
	b.Dimensions[0] = 7
	assert.Equal(t, 2, a.Dimensions[0])
}

func TestStrides(t *testing.T) {
	assert.Equal(t, []int{15, 5, 1}, Make(dtypes.Float32, 2, 3, 5).Strides())
	assert.Nil(t, Scalar[float32]().Strides())
}

func TestConcatDimensions(t *testing.T) {
	dims := ConcatDimensions(Make(dtypes.Float32, 2, 3), Make(dtypes.Float32, 5))
	assert.Equal(t, []int{2, 3, 5}, dims)
}

func TestCheckDims(t *testing.T) {
	s := Make(dtypes.Float32, 2, 3)
	require.NoError(t, s.CheckDims(2, 3))
	require.NoError(t, s.CheckDims(-1, 3))
	require.Error(t, s.CheckDims(2))
	require.Error(t, s.CheckDims(2, 4))
}
