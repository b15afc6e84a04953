package objerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := InvalidObjectf("extraDir escapes root: %s", "../x")
	assert.True(t, errors.Is(err, InvalidObject))
	assert.False(t, errors.Is(err, NotFound))
}

func TestIOErrorWrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := IOErrorf(cause, "write failed")
	assert.True(t, errors.Is(err, IOError))
	assert.Same(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestCauseMatchesPkgErrorsConvention(t *testing.T) {
	cause := errors.New("boom")
	err := IOErrorf(cause, "op failed")
	assert.Equal(t, cause, err.Cause())
}
