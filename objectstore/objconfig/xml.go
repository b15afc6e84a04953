package objconfig

import (
	"encoding/xml"
	"io"

	"github.com/scioflow/objectstore/objerr"
)

// The object store's XML configuration format has no third-party parser
// anywhere in the retrieved corpus; encoding/xml is the one ambient
// concern in this module built directly on the standard library rather
// than an ecosystem package (see DESIGN.md).

type xmlExtraDir struct {
	Type string `xml:"type,attr"`
	Path string `xml:"path,attr"`
}

type xmlFilesDir struct {
	Path string `xml:"path,attr"`
}

type xmlBackend struct {
	ID               string        `xml:"id,attr"`
	Type             string        `xml:"type,attr"`
	Order            int           `xml:"order,attr"`
	Weight           int           `xml:"weight,attr"`
	MaxPercent       float64       `xml:"max_percent,attr"`
	GlobalMaxPercent float64       `xml:"global_max_percent_full,attr"`
	StoreBy          string        `xml:"store_by,attr"`
	CheckOldStyle    bool          `xml:"check_old_style,attr"`
	FilesDir         xmlFilesDir   `xml:"files_dir"`
	ExtraDirs        []xmlExtraDir `xml:"extra_dir"`

	Bucket           string `xml:"bucket,attr"`
	Container        string `xml:"container,attr"`
	Endpoint         string `xml:"endpoint,attr"`
	AccessKeyID      string `xml:"access_key,attr"`
	SecretAccessKey  string `xml:"secret_key,attr"`
	ConnectionString string `xml:"connection_string,attr"`
	Secure           bool   `xml:"secure,attr"`
	Prefix           string `xml:"prefix,attr"`

	Backends struct {
		Backend []xmlBackend `xml:"backend"`
	} `xml:"backends"`
}

type xmlObjectStore struct {
	XMLName xml.Name `xml:"object_store"`
	Type    string   `xml:"type,attr"`
	xmlBackend
}

func (b xmlBackend) toDoc() BackendDoc {
	extras := make([]ExtraDir, 0, len(b.ExtraDirs))
	for _, e := range b.ExtraDirs {
		extras = append(extras, ExtraDir{Type: e.Type, Path: e.Path})
	}
	children := make([]BackendDoc, 0, len(b.Backends.Backend))
	for _, c := range b.Backends.Backend {
		children = append(children, c.toDoc())
	}
	return BackendDoc{
		ID:               b.ID,
		Type:             b.Type,
		Order:            b.Order,
		Weight:           b.Weight,
		MaxPercent:       b.MaxPercent,
		GlobalMaxPercent: b.GlobalMaxPercent,
		FilesDir:         b.FilesDir.Path,
		ExtraDirs:        extras,
		StoreBy:          b.StoreBy,
		CheckOldStyle:    b.CheckOldStyle,
		Bucket:           b.Bucket,
		Container:        b.Container,
		Endpoint:         b.Endpoint,
		AccessKeyID:      b.AccessKeyID,
		SecretAccessKey:  b.SecretAccessKey,
		ConnectionString: b.ConnectionString,
		Secure:           b.Secure,
		Prefix:           b.Prefix,
		Backends:         children,
	}
}

// ParseXML decodes an <object_store> configuration document, matching
// the element/attribute layout of object_store_conf.xml: a root type
// attribute, a <backends> list of <backend id type order weight>
// elements, each optionally carrying <files_dir path> and repeated
// <extra_dir type path> children.
func ParseXML(r io.Reader) (Document, error) {
	var root xmlObjectStore
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return Document{}, objerr.InvalidObjectf("parse object store XML: %v", err)
	}
	doc := Document{Type: root.Type, GlobalMaxPercent: root.GlobalMaxPercent}
	for _, b := range root.Backends.Backend {
		doc.Backends = append(doc.Backends, b.toDoc())
	}
	// A bare non-composite root (<object_store type="disk" .../> with no
	// nested <backends>) describes itself directly; treat the root
	// element's own attributes as the sole backend.
	if len(doc.Backends) == 0 && root.Type != "distributed" && root.Type != "hierarchical" {
		self := root.xmlBackend
		self.Type = root.Type
		doc.Backends = []BackendDoc{self.toDoc()}
	}
	return doc, nil
}
