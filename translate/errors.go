package translate

import (
	"fmt"
)

// DuplicateRegistrationError is returned by Registry.RegisterGenerator when the layer
// type is already bound. Like its counterpart in package ops, it indicates a startup
// misconfiguration, not a runtime condition.
type DuplicateRegistrationError struct {
	LayerType string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("a generator for layer type %q is already registered", e.LayerType)
}

// UnsupportedLayerError reports a layer whose type has no registered generator. During a
// full-model pass these are collected, one per offending layer, rather than aborting the
// pass.
type UnsupportedLayerError struct {
	LayerName string
	LayerType string
}

func (e *UnsupportedLayerError) Error() string {
	return fmt.Sprintf("layer %q has unsupported type %q", e.LayerName, e.LayerType)
}

// GenerationError reports a generator failure while rendering one layer -- typically a
// malformed attribute value. It is terminal for that layer (reported and skipped, not
// retried) and collected during a full-model pass.
type GenerationError struct {
	LayerName string
	LayerType string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating layer %q (type %q): %v", e.LayerName, e.LayerType, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
