package generators

import (
	"text/template"

	"github.com/pkg/errors"

	"github.com/gomlx/opkit/translate"
)

// Concat joins all of its inputs along one axis.
//
// Attributes:
//   - "concat_param.axis": the axis to concatenate along. Default: 1 (the channel axis).
//
// Produces exactly one output.
type Concat struct{}

var concatTemplate = template.Must(template.New("concat").Parse(
	`{{.var}} = mx.sym.concat({{.inputs}}, dim={{.axis}}, name='{{.name}}')`))

// Generate implements translate.Generator.
func (Concat) Generate(layer *translate.Layer, model *translate.Model) (translate.GeneratorOutput, error) {
	if len(layer.Bottoms) == 0 {
		return translate.GeneratorOutput{}, errors.New("concat layer has no inputs")
	}
	data := baseData(layer, model)
	axis, err := intAttr(layer, "concat_param.axis", "1")
	if err != nil {
		return translate.GeneratorOutput{}, err
	}
	data["axis"] = axis
	code, err := render(concatTemplate, data)
	if err != nil {
		return translate.GeneratorOutput{}, err
	}
	return translate.GeneratorOutput{Code: code, NumOutputs: 1}, nil
}
