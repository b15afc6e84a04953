package cloudstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scioflow/objectstore/objectstore"
)

func TestStubBackendsFailLoudly(t *testing.T) {
	ctx := context.Background()
	obj := &objectstore.BasicObject{ID: 1, HasID: true}

	for _, b := range []objectstore.Backend{
		NewSwiftBackend(),
		NewIRODSBackend(),
		NewPithosBackend(),
	} {
		_, err := b.Exists(ctx, obj, objectstore.Options{})
		require.Error(t, err)
		d := objectstore.Describe(b)
		assert.Equal(t, false, d["implemented"])
	}
}
