// Package translate implements the layer-generator registry and the model translation
// pass: mapping each layer of a source model graph, by its type tag, to a generator that
// renders the layer into the target format.
//
// A Generator is a plugin implementing one uniform contract -- Generate(layer, model)
// returning the rendered text and the layer's output arity. New layer types are supported
// purely by registering another Generator; the dispatch core never changes.
//
// Like the operator registry (package ops), the Registry here is an explicit object with
// a registration phase followed by a frozen, lookup-only phase:
//
//	reg := translate.NewRegistry()
//	err := generators.RegisterStandard(reg)
//	reg.Freeze()
//	outputs, errs := reg.TranslateModel(model)
//
// TranslateModel walks the model's layers in declared order -- later layers reference the
// variable names derived from earlier layers' outputs, so the pass is sequential -- and
// collects per-layer errors instead of aborting on the first, so a single unsupported
// layer doesn't block diagnosis of the rest of the model.
package translate

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Layer is a named node in the source model graph: a type tag selecting the generator,
// the names of its input (bottom) and output (top) blobs, and its attributes.
//
// Attribute keys are dotted, namespaced by parameter block and field -- e.g.
// "permute_param.order" -- so one layer type's attributes never collide with another's.
// Values are lists of strings; scalar attributes are single-element lists.
//
// Layers are owned by the model and are read-only to generators.
type Layer struct {
	Name       string
	Type       string
	Bottoms    []string
	Tops       []string
	Attributes map[string][]string
}

// Attr returns the first value of the given attribute key, if present.
func (l *Layer) Attr(key string) (string, bool) {
	values := l.Attributes[key]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// AttrList returns all values of the given attribute key, nil if absent.
func (l *Layer) AttrList(key string) []string {
	return l.Attributes[key]
}

// Model is the source graph: its layers in declared order plus the derived facts recorded
// during one translation pass.
//
// Generators may read the model freely but must not mutate it destructively; they may
// record derived facts (RecordBlobVar) for downstream layers. Derived facts are reset at
// the start of each TranslateModel pass.
type Model struct {
	Name   string
	Layers []*Layer

	blobVars map[string]string
}

// RecordBlobVar records that the blob with the given name is held by the target-format
// variable varName. Downstream layers resolve their inputs through these records.
func (m *Model) RecordBlobVar(blob, varName string) {
	if m.blobVars == nil {
		m.blobVars = make(map[string]string)
	}
	m.blobVars[blob] = varName
}

// BlobVar returns the variable name recorded for a blob, if any.
func (m *Model) BlobVar(blob string) (string, bool) {
	varName, found := m.blobVars[blob]
	return varName, found
}

func (m *Model) resetDerived() {
	m.blobVars = nil
}

// GeneratorOutput is the result of translating one layer: the rendered target-format text
// and how many output tensors the layer produces. NumOutputs feeds the naming of this
// layer's outputs as referenced by successor layers; generators for multi-output layer
// types must report the true count so downstream names don't collide.
type GeneratorOutput struct {
	Code       string
	NumOutputs int
}

// Generator translates one layer type into the target format.
//
// Implementations must read only the documented attribute keys for their layer type,
// apply the documented default for each optional attribute, and be deterministic: two
// calls on the same (layer, model) with no intervening model mutation yield the same
// output.
type Generator interface {
	Generate(layer *Layer, model *Model) (GeneratorOutput, error)
}

// Registry maps a layer type tag to its Generator. Registration is single-threaded and
// must finish (Freeze) before lookups start.
type Registry struct {
	generators map[string]Generator
	frozen     bool
}

// NewRegistry returns an empty, unfrozen Registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// RegisterGenerator binds layerType to generator. It returns a
// *DuplicateRegistrationError if the type is already bound, and a plain error after
// Freeze or for a nil generator.
func (r *Registry) RegisterGenerator(layerType string, generator Generator) error {
	if r.frozen {
		return errors.Errorf("cannot register generator for layer type %q: registry is frozen", layerType)
	}
	if generator == nil {
		return errors.Errorf("cannot register a nil generator for layer type %q", layerType)
	}
	if _, found := r.generators[layerType]; found {
		return errors.WithStack(&DuplicateRegistrationError{LayerType: layerType})
	}
	klog.V(1).Infof("translate: registered generator for layer type %q", layerType)
	r.generators[layerType] = generator
	return nil
}

// Freeze ends the registration phase; the table becomes read-only and lookups are safe
// without locking.
func (r *Registry) Freeze() { r.frozen = true }

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool { return r.frozen }

// SupportedTypes returns the registered layer types, unsorted.
func (r *Registry) SupportedTypes() []string {
	layerTypes := make([]string, 0, len(r.generators))
	for layerType := range r.generators {
		layerTypes = append(layerTypes, layerType)
	}
	return layerTypes
}

// TranslateLayer looks up the generator for layer.Type and runs it.
//
// It returns a *UnsupportedLayerError when no generator is bound for the type -- a
// recoverable condition the caller may report and continue past -- and a
// *GenerationError when the generator itself fails (e.g. a malformed attribute value).
// Generation failures are terminal for the layer: there is no retry.
func (r *Registry) TranslateLayer(layer *Layer, model *Model) (GeneratorOutput, error) {
	generator, found := r.generators[layer.Type]
	if !found {
		return GeneratorOutput{}, errors.WithStack(&UnsupportedLayerError{LayerName: layer.Name, LayerType: layer.Type})
	}
	output, err := generator.Generate(layer, model)
	if err != nil {
		return GeneratorOutput{}, errors.WithStack(&GenerationError{LayerName: layer.Name, LayerType: layer.Type, Err: err})
	}
	if output.NumOutputs < 1 {
		return GeneratorOutput{}, errors.WithStack(&GenerationError{
			LayerName: layer.Name, LayerType: layer.Type,
			Err: errors.Errorf("generator reported %d outputs", output.NumOutputs),
		})
	}
	return output, nil
}
