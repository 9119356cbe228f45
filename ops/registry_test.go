package ops

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/opkit/types/tensors"
)

// markerHandler returns a handler that records which binding was invoked in *got.
func markerHandler(got *string, marker string) Handler {
	return func(inputs []*tensors.Tensor, attrs any, outputs []*tensors.Tensor) error {
		*got = marker
		return nil
	}
}

func TestRegistry_ExactMatch(t *testing.T) {
	reg := NewRegistry()
	var got string

	// Four independent bindings sharing the same name, as tensordot registers them.
	keys := map[string]OperatorKey{
		"genericFwd": {Name: "tensordot", Device: DeviceCPU, Variant: VariantGeneric, Direction: DirectionForward},
		"genericBwd": {Name: "tensordot", Device: DeviceCPU, Variant: VariantGeneric, Direction: DirectionBackward},
		"intFwd":     {Name: "tensordot", Device: DeviceCPU, Variant: VariantIntAxes, Direction: DirectionForward},
		"intBwd":     {Name: "tensordot", Device: DeviceCPU, Variant: VariantIntAxes, Direction: DirectionBackward},
	}
	for marker, key := range keys {
		require.NoError(t, reg.Register(key, markerHandler(&got, marker)))
	}
	reg.Freeze()

	for marker, key := range keys {
		handler, err := reg.Resolve(key)
		require.NoError(t, err)
		require.NoError(t, handler(nil, nil, nil))
		assert.Equal(t, marker, got, "resolved the wrong binding for %s", key)
	}

	// Near misses must not resolve: same name, one flag off.
	var unregErr *UnregisteredOperatorError
	_, err := reg.Resolve(OperatorKey{Name: "tensordot", Device: DeviceGPU, Variant: VariantGeneric, Direction: DirectionForward})
	require.Error(t, err)
	require.True(t, errors.As(err, &unregErr))

	_, err = reg.Resolve(OperatorKey{Name: "tensordot2", Device: DeviceCPU, Variant: VariantGeneric, Direction: DirectionForward})
	require.Error(t, err)
	require.True(t, errors.As(err, &unregErr))
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	key := OperatorKey{Name: "tensordot", Device: DeviceCPU, Variant: VariantGeneric, Direction: DirectionForward}
	var got string
	require.NoError(t, reg.Register(key, markerHandler(&got, "first")))

	err := reg.Register(key, markerHandler(&got, "second"))
	require.Error(t, err)
	var dupErr *DuplicateRegistrationError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, key, dupErr.Key)

	// Distinct keys sharing the name register independently.
	other := key
	other.Direction = DirectionBackward
	require.NoError(t, reg.Register(other, markerHandler(&got, "backward")))

	// The original binding survived the failed re-registration.
	handler, err := reg.Resolve(key)
	require.NoError(t, err)
	require.NoError(t, handler(nil, nil, nil))
	assert.Equal(t, "first", got)
}

func TestRegistry_Freeze(t *testing.T) {
	reg := NewRegistry()
	key := OperatorKey{Name: "tensordot", Device: DeviceCPU, Variant: VariantGeneric, Direction: DirectionForward}
	var got string
	require.NoError(t, reg.Register(key, markerHandler(&got, "fwd")))

	require.False(t, reg.Frozen())
	reg.Freeze()
	require.True(t, reg.Frozen())

	err := reg.Register(OperatorKey{Name: "late"}, markerHandler(&got, "late"))
	require.ErrorContains(t, err, "frozen")

	// Lookups still work after freeze.
	require.NoError(t, reg.Invoke(key, nil, nil, nil))
	assert.Equal(t, "fwd", got)
}

func TestRegistry_InvokePropagatesComputeError(t *testing.T) {
	reg := NewRegistry()
	key := OperatorKey{Name: "tensordot", Device: DeviceCPU, Variant: VariantGeneric, Direction: DirectionForward}
	computeErr := &ComputeError{Key: key, Err: errors.New("contracting dimensions don't match")}
	require.NoError(t, reg.Register(key, func(inputs []*tensors.Tensor, attrs any, outputs []*tensors.Tensor) error {
		return computeErr
	}))
	reg.Freeze()

	err := reg.Invoke(key, nil, nil, nil)
	require.Error(t, err)
	var gotErr *ComputeError
	require.True(t, errors.As(err, &gotErr))
	assert.Same(t, computeErr, gotErr, "handler errors must propagate unmodified")
}

func TestRegistry_Keys(t *testing.T) {
	reg := NewRegistry()
	var got string
	unsorted := []OperatorKey{
		{Name: "tensordot", Device: DeviceCPU, Variant: VariantIntAxes, Direction: DirectionForward},
		{Name: "matmul", Device: DeviceGPU, Variant: VariantGeneric, Direction: DirectionForward},
		{Name: "tensordot", Device: DeviceCPU, Variant: VariantGeneric, Direction: DirectionBackward},
		{Name: "matmul", Device: DeviceCPU, Variant: VariantGeneric, Direction: DirectionForward},
	}
	for _, key := range unsorted {
		require.NoError(t, reg.Register(key, markerHandler(&got, key.String())))
	}

	want := []OperatorKey{
		{Name: "matmul", Device: DeviceCPU, Variant: VariantGeneric, Direction: DirectionForward},
		{Name: "matmul", Device: DeviceGPU, Variant: VariantGeneric, Direction: DirectionForward},
		{Name: "tensordot", Device: DeviceCPU, Variant: VariantGeneric, Direction: DirectionBackward},
		{Name: "tensordot", Device: DeviceCPU, Variant: VariantIntAxes, Direction: DirectionForward},
	}
	assert.Equal(t, want, reg.Keys())
}

func TestRegistry_ConcurrentInvoke(t *testing.T) {
	reg := NewRegistry()
	key := OperatorKey{Name: "fill", Device: DeviceCPU, Variant: VariantGeneric, Direction: DirectionForward}
	require.NoError(t, reg.Register(key, func(inputs []*tensors.Tensor, attrs any, outputs []*tensors.Tensor) error {
		value := attrs.(float32)
		tensors.MutableFlatData(outputs[0], func(flat []float32) {
			for ii := range flat {
				flat[ii] = value
			}
		})
		return nil
	}))
	reg.Freeze()

	const numWorkers = 8
	results := make([]*tensors.Tensor, numWorkers)
	var wg sync.WaitGroup
	for worker := range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[worker] = tensors.FromFlatDataAndDimensions(make([]float32, 4), 2, 2)
			_ = reg.Invoke(key, nil, float32(worker), []*tensors.Tensor{results[worker]})
		}()
	}
	wg.Wait()

	for worker := range numWorkers {
		assert.Equal(t, []float32{float32(worker), float32(worker), float32(worker), float32(worker)},
			tensors.CopyFlatData[float32](results[worker]))
	}
}

func TestOperatorKeyString(t *testing.T) {
	key := OperatorKey{Name: "tensordot", Device: DeviceCPU, Variant: VariantIntAxes, Direction: DirectionBackward}
	assert.Equal(t, "tensordot[CPU,IntAxes,Backward]", key.String())
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "CPU", DeviceCPU.String())
	assert.Equal(t, "GPU", DeviceGPU.String())
	assert.Equal(t, "Generic", VariantGeneric.String())
	assert.Equal(t, "IntAxes", VariantIntAxes.String())
	assert.Equal(t, "Forward", DirectionForward.String())
	assert.Equal(t, "Backward", DirectionBackward.String())

	variant, err := VariantString("IntAxes")
	require.NoError(t, err)
	assert.Equal(t, VariantIntAxes, variant)
}
