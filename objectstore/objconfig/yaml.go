package objconfig

import (
	"io"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/scioflow/objectstore/objerr"
)

// ParseYAML decodes a structured-dict configuration document (the
// modern replacement for the XML form) via a generic map first, then
// mapstructure into the same Document shape ParseXML produces, so
// Factory.Build never needs to know which form a given config file used.
func ParseYAML(r io.Reader) (Document, error) {
	var raw map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return Document{}, objerr.InvalidObjectf("parse object store YAML: %v", err)
	}

	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return Document{}, objerr.IOErrorf(err, "construct config decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return Document{}, objerr.InvalidObjectf("decode object store config: %v", err)
	}

	if len(doc.Backends) == 0 && doc.Type != "distributed" && doc.Type != "hierarchical" {
		var self BackendDoc
		selfDecoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result: &self, WeaklyTypedInput: true, TagName: "mapstructure",
		})
		if err != nil {
			return Document{}, objerr.IOErrorf(err, "construct config decoder")
		}
		if err := selfDecoder.Decode(raw); err != nil {
			return Document{}, objerr.InvalidObjectf("decode object store config: %v", err)
		}
		self.Type = doc.Type
		doc.Backends = []BackendDoc{self}
	}
	return doc, nil
}
