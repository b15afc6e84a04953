package objectstore

// BasicObject is a minimal, mutable LogicalObject implementation for
// hosts that don't want to adapt their own domain model, and for tests.
// It is not required: any type satisfying LogicalObject works.
type BasicObject struct {
	ID           int64
	HasID        bool
	UUID         string
	HasUUID      bool
	StoreID      string
	HasStoreID   bool
	MediaList    []PluggedMedium
	JobContext   bool
	ClassNameStr string
}

func (o *BasicObject) ObjectID() (int64, bool) { return o.ID, o.HasID }

func (o *BasicObject) ObjectUUID() (string, bool) { return o.UUID, o.HasUUID }

func (o *BasicObject) ObjectStoreID() (string, bool) { return o.StoreID, o.HasStoreID }

func (o *BasicObject) SetObjectStoreID(id string) {
	o.StoreID = id
	o.HasStoreID = true
}

func (o *BasicObject) Media() []PluggedMedium { return o.MediaList }

func (o *BasicObject) IsJobContext() bool { return o.JobContext }

func (o *BasicObject) ClassName() string {
	if o.ClassNameStr == "" {
		return "Dataset"
	}
	return o.ClassNameStr
}
