package translate_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/gomlx/opkit/translate"
	"github.com/gomlx/opkit/translate/generators"
)

func newStandardRegistry(t *testing.T) *translate.Registry {
	reg := translate.NewRegistry()
	require.NoError(t, generators.RegisterStandard(reg))
	reg.Freeze()
	return reg
}

func permuteLayer(order ...string) *translate.Layer {
	layer := &translate.Layer{
		Name:    "perm1",
		Type:    "Permute",
		Bottoms: []string{"data"},
		Tops:    []string{"perm1_blob"},
	}
	if order != nil {
		layer.Attributes = map[string][]string{"permute_param.order": order}
	}
	return layer
}

func TestTranslateModel_Permute(t *testing.T) {
	reg := newStandardRegistry(t)
	model := &translate.Model{Name: "net", Layers: []*translate.Layer{permuteLayer("1", "0", "2")}}

	outputs, err := reg.TranslateModel(model)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, 1, outputs[0].NumOutputs)
	assert.Contains(t, outputs[0].Code, "1,0,2")
	assert.Contains(t, outputs[0].Code, "name='perm1'")
}

func TestTranslateModel_PermuteDefaultIsIdentity(t *testing.T) {
	reg := newStandardRegistry(t)
	model := &translate.Model{Name: "net", Layers: []*translate.Layer{permuteLayer()}}

	// A missing order doesn't fail: the documented default is identity, rendered by
	// omitting the axes argument.
	outputs, err := reg.TranslateModel(model)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.NotContains(t, outputs[0].Code, "axes=")
}

func TestTranslateModel_CollectsUnsupportedLayers(t *testing.T) {
	reg := newStandardRegistry(t)
	model := &translate.Model{Name: "net", Layers: []*translate.Layer{
		permuteLayer("1", "0"),
		{Name: "lrn1", Type: "LRN", Bottoms: []string{"perm1_blob"}, Tops: []string{"lrn1_blob"}},
		{Name: "act1", Type: "ReLU", Bottoms: []string{"lrn1_blob"}, Tops: []string{"act1_blob"}},
	}}

	outputs, err := reg.TranslateModel(model)
	// The pass doesn't abort: the two supported layers still translate.
	require.Len(t, outputs, 2)
	assert.Equal(t, "perm1", outputs[0].Layer.Name)
	assert.Equal(t, "act1", outputs[1].Layer.Name)

	require.Error(t, err)
	collected := multierr.Errors(err)
	require.Len(t, collected, 1)
	var unsupportedErr *translate.UnsupportedLayerError
	require.True(t, errors.As(collected[0], &unsupportedErr))
	assert.Equal(t, "lrn1", unsupportedErr.LayerName)
	assert.Equal(t, "LRN", unsupportedErr.LayerType)
}

func TestTranslateModel_CollectsGenerationErrors(t *testing.T) {
	reg := newStandardRegistry(t)
	model := &translate.Model{Name: "net", Layers: []*translate.Layer{
		permuteLayer("not-a-number"),
		{Name: "act1", Type: "ReLU", Bottoms: []string{"data"}, Tops: []string{"act1_blob"}},
	}}

	outputs, err := reg.TranslateModel(model)
	require.Len(t, outputs, 1)
	require.Error(t, err)
	var generationErr *translate.GenerationError
	require.True(t, errors.As(err, &generationErr))
	assert.Equal(t, "perm1", generationErr.LayerName)
}

func TestTranslateModel_NamingFollowsBlobProducers(t *testing.T) {
	reg := newStandardRegistry(t)
	model := &translate.Model{Name: "net", Layers: []*translate.Layer{
		{Name: "flat", Type: "Flatten", Bottoms: []string{"data"}, Tops: []string{"flat_blob"}},
		{Name: "act", Type: "ReLU", Bottoms: []string{"flat_blob"}, Tops: []string{"act_blob"}},
	}}

	outputs, err := reg.TranslateModel(model)
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	// The second layer consumes the first layer's output variable, not the blob name.
	assert.Contains(t, outputs[1].Code, "data=flat,")
}

// splitStub pretends to be a two-output layer generator, to exercise positional output
// naming.
type splitStub struct{}

func (splitStub) Generate(layer *translate.Layer, model *translate.Model) (translate.GeneratorOutput, error) {
	return translate.GeneratorOutput{Code: layer.Name + " = split(...)", NumOutputs: 2}, nil
}

func TestTranslateModel_MultiOutputNaming(t *testing.T) {
	reg := translate.NewRegistry()
	require.NoError(t, generators.RegisterStandard(reg))
	require.NoError(t, reg.RegisterGenerator("Split", splitStub{}))
	reg.Freeze()

	model := &translate.Model{Name: "net", Layers: []*translate.Layer{
		{Name: "split1", Type: "Split", Bottoms: []string{"data"}, Tops: []string{"left", "right"}},
		{Name: "act", Type: "ReLU", Bottoms: []string{"right"}, Tops: []string{"act_blob"}},
	}}

	outputs, err := reg.TranslateModel(model)
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Contains(t, outputs[1].Code, "data=split1_out1,")
}

func TestTranslateLayer_Idempotent(t *testing.T) {
	reg := newStandardRegistry(t)
	model := &translate.Model{Name: "net"}
	layer := permuteLayer("2", "1", "0")

	first, err := reg.TranslateLayer(layer, model)
	require.NoError(t, err)
	second, err := reg.TranslateLayer(layer, model)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(first, second))
}

func TestRegistry_DuplicateAndFreeze(t *testing.T) {
	reg := translate.NewRegistry()
	require.NoError(t, reg.RegisterGenerator("Split", splitStub{}))

	err := reg.RegisterGenerator("Split", splitStub{})
	require.Error(t, err)
	var dupErr *translate.DuplicateRegistrationError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "Split", dupErr.LayerType)

	reg.Freeze()
	require.True(t, reg.Frozen())
	err = reg.RegisterGenerator("Other", splitStub{})
	require.ErrorContains(t, err, "frozen")
}

func TestVarName(t *testing.T) {
	assert.Equal(t, "conv_1", translate.VarName("conv/1"))
	assert.Equal(t, "_3fc", translate.VarName("3fc"))
	assert.Equal(t, "plain_name", translate.VarName("plain_name"))
}

func TestOutputVars(t *testing.T) {
	layer := &translate.Layer{Name: "split/1"}
	assert.Equal(t, []string{"split_1"}, translate.OutputVars(layer, 1))
	assert.Equal(t, []string{"split_1_out0", "split_1_out1", "split_1_out2"}, translate.OutputVars(layer, 3))
}

func TestReadModelJSON(t *testing.T) {
	const modelJSON = `{
		"name": "net",
		"layers": [
			{"name": "perm1", "type": "Permute", "bottoms": ["data"], "tops": ["perm1_blob"],
			 "attributes": {"permute_param.order": ["1", "0", "2"]}},
			{"name": "act1", "type": "ReLU", "bottoms": ["perm1_blob"], "tops": ["act1_blob"]}
		]
	}`
	model, err := translate.ReadModelJSON(strings.NewReader(modelJSON))
	require.NoError(t, err)
	assert.Equal(t, "net", model.Name)
	require.Len(t, model.Layers, 2)
	assert.Equal(t, []string{"1", "0", "2"}, model.Layers[0].AttrList("permute_param.order"))

	_, err = translate.ReadModelJSON(strings.NewReader(`{"layers": [{"type": "ReLU"}]}`))
	require.ErrorContains(t, err, "missing a name")

	_, err = translate.ReadModelJSON(strings.NewReader(`not json`))
	require.Error(t, err)
}
