package translate

import (
	"fmt"
	"strings"
)

// Naming helpers shared by all generators: target-format variable names are derived from
// layer and blob identities with the rules below, so every generator names things the
// same way and successor layers can predict their inputs' names.
//
// These are free functions, not a base type: generators have no state to share beyond
// this naming scheme.

// VarName derives a target-format variable name from a layer or blob name: every rune
// that is not a letter, digit or underscore becomes an underscore, and a leading digit
// gets an underscore prefix.
func VarName(name string) string {
	var builder strings.Builder
	builder.Grow(len(name) + 1)
	for ii, r := range name {
		isWord := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if ii == 0 && r >= '0' && r <= '9' {
			builder.WriteByte('_')
		}
		if isWord {
			builder.WriteRune(r)
		} else {
			builder.WriteByte('_')
		}
	}
	return builder.String()
}

// OutputVars returns the variable names for a layer's numOutputs outputs. A single-output
// layer uses the layer's own variable name; multi-output layers get positional suffixes.
func OutputVars(layer *Layer, numOutputs int) []string {
	base := VarName(layer.Name)
	if numOutputs == 1 {
		return []string{base}
	}
	names := make([]string, numOutputs)
	for ii := range names {
		names[ii] = fmt.Sprintf("%s_out%d", base, ii)
	}
	return names
}

// InputVar resolves the variable holding a blob: the name recorded by the producing
// layer during this pass if any, otherwise the sanitized blob name (model inputs have no
// producing layer).
func InputVar(model *Model, blob string) string {
	if varName, found := model.BlobVar(blob); found {
		return varName
	}
	return VarName(blob)
}

// InputVars resolves all of a layer's input (bottom) variables, in order.
func InputVars(model *Model, layer *Layer) []string {
	vars := make([]string, len(layer.Bottoms))
	for ii, blob := range layer.Bottoms {
		vars[ii] = InputVar(model, blob)
	}
	return vars
}
