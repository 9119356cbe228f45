package generators

import (
	"strconv"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/gomlx/opkit/translate"
)

// Permute reorders the axes of its single input.
//
// Attributes:
//   - "permute_param.order": the new axis order, a list of axis indices forming a
//     permutation of 0..rank-1. Default: absent means identity -- the axes argument is
//     omitted and the target format performs no permute.
//
// Produces exactly one output.
type Permute struct{}

var permuteTemplate = template.Must(template.New("permute").Parse(
	`{{.var}} = mx.sym.transpose(data={{.data}}{{if .axes}}, axes=({{.axes}}){{end}}, name='{{.name}}')`))

// Generate implements translate.Generator.
func (Permute) Generate(layer *translate.Layer, model *translate.Model) (translate.GeneratorOutput, error) {
	data := baseData(layer, model)
	if order := layer.AttrList("permute_param.order"); order != nil {
		seen := make(map[int]bool, len(order))
		for _, value := range order {
			axis, err := strconv.Atoi(value)
			if err != nil {
				return translate.GeneratorOutput{}, errors.Errorf(
					"attribute %q must hold axis indices, got %q", "permute_param.order", value)
			}
			if seen[axis] {
				return translate.GeneratorOutput{}, errors.Errorf(
					"attribute %q repeats axis %d", "permute_param.order", axis)
			}
			seen[axis] = true
		}
		data["axes"] = strings.Join(order, ",")
	}
	code, err := render(permuteTemplate, data)
	if err != nil {
		return translate.GeneratorOutput{}, err
	}
	return translate.GeneratorOutput{Code: code, NumOutputs: 1}, nil
}
