package errs

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfiguration(t *testing.T) {
	err := Configuration("missing %s", "key")
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.EqualError(t, err, "configuration error: missing key")
}

func TestIO(t *testing.T) {
	err := IO("write out.png", fs.ErrPermission)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestUpstreamError(t *testing.T) {
	var err error = &UpstreamError{StatusCode: 500, Status: "500 Internal Server Error", Detail: "boom"}
	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrResponseFormat)
	assert.EqualError(t, err, "upstream error: 500 Internal Server Error: boom")

	var upstream *UpstreamError
	if assert.True(t, errors.As(err, &upstream)) {
		assert.Equal(t, 500, upstream.StatusCode)
	}
}
