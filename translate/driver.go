package translate

import (
	"go.uber.org/multierr"
	"k8s.io/klog/v2"
)

// LayerOutput pairs a successfully translated layer with its generator output.
type LayerOutput struct {
	Layer *Layer
	GeneratorOutput
}

// TranslateModel runs one full translation pass over the model.
//
// Layers are visited strictly in declared order: a layer's generated code references the
// variables recorded for its predecessors' outputs, so the pass is not reorderable and
// not parallelizable. Each layer failure -- unsupported type or generation error -- is
// collected and the pass continues, so one bad layer doesn't hide problems in the rest of
// the model. The combined error (see go.uber.org/multierr) holds one entry per offending
// layer; outputs holds one entry per successful layer, in order.
func (r *Registry) TranslateModel(model *Model) (outputs []LayerOutput, err error) {
	model.resetDerived()
	outputs = make([]LayerOutput, 0, len(model.Layers))
	for _, layer := range model.Layers {
		output, layerErr := r.TranslateLayer(layer, model)
		if layerErr != nil {
			klog.V(1).Infof("translate: layer %q (type %q) failed: %v", layer.Name, layer.Type, layerErr)
			err = multierr.Append(err, layerErr)
			continue
		}
		outputs = append(outputs, LayerOutput{Layer: layer, GeneratorOutput: output})

		// Record where this layer's outputs live, for successor layers' inputs.
		for ii, varName := range OutputVars(layer, output.NumOutputs) {
			if ii >= len(layer.Tops) {
				break
			}
			model.RecordBlobVar(layer.Tops[ii], varName)
		}
	}
	return outputs, err
}
