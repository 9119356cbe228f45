package generators

import (
	"text/template"

	"github.com/gomlx/opkit/translate"
)

// Flatten collapses the input dimensions from the given axis onwards into one.
//
// Attributes:
//   - "flatten_param.axis": first axis to flatten. Default: 1 (keep the batch axis).
//
// Produces exactly one output.
type Flatten struct{}

var flattenTemplate = template.Must(template.New("flatten").Parse(
	`{{.var}} = mx.sym.flatten(data={{.data}}, axis={{.axis}}, name='{{.name}}')`))

// Generate implements translate.Generator.
func (Flatten) Generate(layer *translate.Layer, model *translate.Model) (translate.GeneratorOutput, error) {
	data := baseData(layer, model)
	axis, err := intAttr(layer, "flatten_param.axis", "1")
	if err != nil {
		return translate.GeneratorOutput{}, err
	}
	data["axis"] = axis
	code, err := render(flattenTemplate, data)
	if err != nil {
		return translate.GeneratorOutput{}, err
	}
	return translate.GeneratorOutput{Code: code, NumOutputs: 1}, nil
}
