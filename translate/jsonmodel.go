package translate

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// jsonModel is the wire form of a Model as consumed by the translation tooling. Parsing
// of original source-framework formats is out of scope here; this is only the neutral
// serialization of the Layer/Model structures.
type jsonModel struct {
	Name   string       `json:"name"`
	Layers []*jsonLayer `json:"layers"`
}

type jsonLayer struct {
	Name       string              `json:"name"`
	Type       string              `json:"type"`
	Bottoms    []string            `json:"bottoms,omitempty"`
	Tops       []string            `json:"tops,omitempty"`
	Attributes map[string][]string `json:"attributes,omitempty"`
}

// ReadModelJSON decodes a Model from its JSON description.
func ReadModelJSON(reader io.Reader) (*Model, error) {
	var decoded jsonModel
	if err := json.NewDecoder(reader).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "decoding model JSON")
	}
	model := &Model{Name: decoded.Name, Layers: make([]*Layer, 0, len(decoded.Layers))}
	for ii, layer := range decoded.Layers {
		if layer.Name == "" {
			return nil, errors.Errorf("model layer #%d is missing a name", ii)
		}
		if layer.Type == "" {
			return nil, errors.Errorf("model layer %q is missing a type", layer.Name)
		}
		model.Layers = append(model.Layers, &Layer{
			Name:       layer.Name,
			Type:       layer.Type,
			Bottoms:    layer.Bottoms,
			Tops:       layer.Tops,
			Attributes: layer.Attributes,
		})
	}
	return model, nil
}
