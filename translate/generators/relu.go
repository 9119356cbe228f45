package generators

import (
	"text/template"

	"github.com/gomlx/opkit/translate"
)

// ReLU is the rectified-linear activation. No attributes; one output.
type ReLU struct{}

var reluTemplate = template.Must(template.New("relu").Parse(
	`{{.var}} = mx.sym.Activation(data={{.data}}, act_type='relu', name='{{.name}}')`))

// Generate implements translate.Generator.
func (ReLU) Generate(layer *translate.Layer, model *translate.Model) (translate.GeneratorOutput, error) {
	code, err := render(reluTemplate, baseData(layer, model))
	if err != nil {
		return translate.GeneratorOutput{}, err
	}
	return translate.GeneratorOutput{Code: code, NumOutputs: 1}, nil
}
