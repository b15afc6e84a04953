package cloudstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scioflow/objectstore/objectstore"
)

func withID(id int64) *objectstore.BasicObject {
	return &objectstore.BasicObject{ID: id, HasID: true}
}

func TestObjectKeyShard(t *testing.T) {
	k, err := ObjectKey(withID(1234567), objectstore.Options{}, KeyParams{})
	require.NoError(t, err)
	assert.Equal(t, "001/234/567/dataset_1234567.dat", k)
}

func TestObjectKeyPrefix(t *testing.T) {
	k, err := ObjectKey(withID(1), objectstore.Options{}, KeyParams{Prefix: "galaxy"})
	require.NoError(t, err)
	assert.Equal(t, "galaxy/000/dataset_1.dat", k)
}

func TestObjectKeyAltNameEscapeRejected(t *testing.T) {
	_, err := ObjectKey(withID(1), objectstore.Options{AltName: "../escape"}, KeyParams{})
	require.Error(t, err)
}

func TestObjectKeyMissingIdentity(t *testing.T) {
	_, err := ObjectKey(&objectstore.BasicObject{}, objectstore.Options{}, KeyParams{})
	require.Error(t, err)

	k, err := ObjectKey(&objectstore.BasicObject{}, objectstore.Options{DirOnly: true}, KeyParams{})
	require.NoError(t, err)
	assert.Equal(t, "000", k)
}
