// Package objconfig implements the configuration-document-driven backend
// tree builder. It reads either an XML or a structured-dict (YAML)
// config document — element
// and attribute names grounded on the original's object_store_conf.xml
// layout (<object_store type><backends><backend id type order weight>
// <files_dir path><extra_dir type path>) — into one typed Document, then
// recursively constructs the matching Backend tree.
package objconfig

// ExtraDir names one of a backend's auxiliary directories (temp,
// job_work, ...), keyed by the "type" attribute/key in both document
// forms.
type ExtraDir struct {
	Type string `xml:"type,attr" yaml:"type" mapstructure:"type"`
	Path string `xml:"path,attr" yaml:"path" mapstructure:"path"`
}

// BackendDoc is the unified, provider-agnostic representation of one
// <backend>/backend-dict entry, after either decoder has run. Fields
// irrelevant to a given Type are simply left zero.
type BackendDoc struct {
	ID               string  `mapstructure:"id"`
	Type             string  `mapstructure:"type"`
	Order            int     `mapstructure:"order"`
	Weight           int     `mapstructure:"weight"`
	MaxPercent       float64 `mapstructure:"max_percent"`
	GlobalMaxPercent float64 `mapstructure:"global_max_percent_full"`

	// disk
	FilesDir      string     `mapstructure:"files_dir"`
	ExtraDirs     []ExtraDir `mapstructure:"extra_dirs"`
	StoreBy       string     `mapstructure:"store_by"`
	CheckOldStyle bool       `mapstructure:"check_old_style"`

	// cloud (aws_s3 or s3, azure_blob)
	Bucket            string `mapstructure:"bucket"`
	Container         string `mapstructure:"container"`
	Endpoint          string `mapstructure:"endpoint"`
	AccessKeyID       string `mapstructure:"access_key"`
	SecretAccessKey   string `mapstructure:"secret_key"`
	ConnectionString  string `mapstructure:"connection_string"`
	Secure            bool   `mapstructure:"secure"`
	Prefix            string `mapstructure:"prefix"`

	// nested/composite
	Backends []BackendDoc `mapstructure:"backends"`
}

// Document is the root of a parsed configuration: the outer store's own
// type (disk, distributed, hierarchical, or a single cloud type) plus
// its backend list. A non-composite root (a bare "disk" object_store,
// say) is represented as a single-element Backends slice whose ID is
// empty.
type Document struct {
	Type             string       `mapstructure:"type"`
	GlobalMaxPercent float64      `mapstructure:"global_max_percent_full"`
	Backends         []BackendDoc `mapstructure:"backends"`
}
