package generators

import (
	"text/template"

	"github.com/gomlx/opkit/translate"
)

// Power computes (scale·x + shift) ^ power element-wise.
//
// Attributes, all optional:
//   - "power_param.power": the exponent. Default: 1.
//   - "power_param.scale": the input multiplier. Default: 1.
//   - "power_param.shift": the input offset. Default: 0.
//
// Produces exactly one output.
type Power struct{}

var powerTemplate = template.Must(template.New("power").Parse(
	`{{.var}} = mx.sym.pow({{.scale}} * {{.data}} + {{.shift}}, {{.power}})`))

// Generate implements translate.Generator.
func (Power) Generate(layer *translate.Layer, model *translate.Model) (translate.GeneratorOutput, error) {
	data := baseData(layer, model)
	for _, attr := range []struct {
		field, key, defaultValue string
	}{
		{"power", "power_param.power", "1"},
		{"scale", "power_param.scale", "1"},
		{"shift", "power_param.shift", "0"},
	} {
		value, err := floatAttr(layer, attr.key, attr.defaultValue)
		if err != nil {
			return translate.GeneratorOutput{}, err
		}
		data[attr.field] = value
	}
	code, err := render(powerTemplate, data)
	if err != nil {
		return translate.GeneratorOutput{}, err
	}
	return translate.GeneratorOutput{Code: code, NumOutputs: 1}, nil
}
