package generators

import (
	"text/template"

	"github.com/gomlx/opkit/translate"
)

// Dropout randomly zeroes a fraction of its input during training.
//
// Attributes:
//   - "dropout_param.dropout_ratio": fraction of values dropped. Default: 0.5.
//
// Produces exactly one output.
type Dropout struct{}

var dropoutTemplate = template.Must(template.New("dropout").Parse(
	`{{.var}} = mx.sym.Dropout(data={{.data}}, p={{.ratio}}, name='{{.name}}')`))

// Generate implements translate.Generator.
func (Dropout) Generate(layer *translate.Layer, model *translate.Model) (translate.GeneratorOutput, error) {
	data := baseData(layer, model)
	ratio, err := floatAttr(layer, "dropout_param.dropout_ratio", "0.5")
	if err != nil {
		return translate.GeneratorOutput{}, err
	}
	data["ratio"] = ratio
	code, err := render(dropoutTemplate, data)
	if err != nil {
		return translate.GeneratorOutput{}, err
	}
	return translate.GeneratorOutput{Code: code, NumOutputs: 1}, nil
}
