// Package generators implements the standard layer generators: one Generator per
// supported source layer type, each rendering the layer as one MXNet-style symbol
// expression in the target format.
//
// All generators share the naming scheme from package translate (VarName, InputVars) and
// follow the same shape: extract the documented attribute keys for the layer type, apply
// the documented default for each optional attribute, render one template, report the
// layer's true output arity.
package generators

import (
	"strconv"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/gomlx/opkit/translate"
)

// RegisterStandard binds all generators in this package into reg.
func RegisterStandard(reg *translate.Registry) error {
	bindings := []struct {
		layerType string
		generator translate.Generator
	}{
		{"Permute", Permute{}},
		{"Flatten", Flatten{}},
		{"Concat", Concat{}},
		{"Dropout", Dropout{}},
		{"Power", Power{}},
		{"ReLU", ReLU{}},
	}
	for _, binding := range bindings {
		if err := reg.RegisterGenerator(binding.layerType, binding.generator); err != nil {
			return err
		}
	}
	return nil
}

// baseData builds the template data every generator starts from: the layer's name, its
// output variable and its resolved input variables ("data" is the first input, the
// common single-input case).
func baseData(layer *translate.Layer, model *translate.Model) map[string]any {
	data := map[string]any{
		"name": layer.Name,
		"var":  translate.VarName(layer.Name),
	}
	inputs := translate.InputVars(model, layer)
	if len(inputs) > 0 {
		data["data"] = inputs[0]
	}
	data["inputs"] = strings.Join(inputs, ", ")
	return data
}

func render(tmpl *template.Template, data map[string]any) (string, error) {
	var builder strings.Builder
	if err := tmpl.Execute(&builder, data); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// intAttr returns the attribute value if present and a valid integer, or defaultValue if
// absent. A present but malformed value is an error, not a fallback to the default.
func intAttr(layer *translate.Layer, key, defaultValue string) (string, error) {
	value, found := layer.Attr(key)
	if !found {
		return defaultValue, nil
	}
	if _, err := strconv.Atoi(value); err != nil {
		return "", errors.Errorf("attribute %q must be an integer, got %q", key, value)
	}
	return value, nil
}

// floatAttr is intAttr for floating point attributes.
func floatAttr(layer *translate.Layer, key, defaultValue string) (string, error) {
	value, found := layer.Attr(key)
	if !found {
		return defaultValue, nil
	}
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return "", errors.Errorf("attribute %q must be a number, got %q", key, value)
	}
	return value, nil
}
