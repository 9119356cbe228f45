package ops

// DeviceType selects which device's handler implementation an OperatorKey binds to.
// Registering handlers for a new device doesn't touch the dispatch code: it only adds
// keys under the new DeviceType.
type DeviceType int

//go:generate go tool enumer -type=DeviceType -trimprefix=Device -output=gen_devicetype_enumer.go enums.go

const (
	// DeviceCPU handlers run on the host.
	DeviceCPU DeviceType = iota

	// DeviceGPU handlers run on an accelerator. No GPU handlers ship with this module;
	// the key space exists so a plugin can bind them without changes here.
	DeviceGPU
)

// Variant distinguishes structural specializations of an operator that take differently
// shaped attributes. They are separate registrations, never substituted for one another.
type Variant int

//go:generate go tool enumer -type=Variant -trimprefix=Variant -output=gen_variant_enumer.go enums.go

const (
	// VariantGeneric takes the operator's full attribute form. For tensordot: the ordered
	// list of (lhsAxis, rhsAxis) contraction pairs.
	VariantGeneric Variant = iota

	// VariantIntAxes takes a single integer attribute. For tensordot: contract the last N
	// axes of the first input against the first N axes of the second.
	VariantIntAxes
)

// Direction distinguishes the forward computation from its backward (gradient) pass.
type Direction int

//go:generate go tool enumer -type=Direction -trimprefix=Direction -output=gen_direction_enumer.go enums.go

const (
	DirectionForward Direction = iota
	DirectionBackward
)
