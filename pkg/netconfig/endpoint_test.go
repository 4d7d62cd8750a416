package netconfig

import (
	"testing"

	"agrilink/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrimary = "http://10.100.155.236:8000"

func TestNewEndpointDefaults(t *testing.T) {
	endpoint, err := NewEndpoint(testPrimary + "/")
	require.NoError(t, err)

	assert.Equal(t, testPrimary, endpoint.BaseURL())
	assert.Equal(t, testPrimary, endpoint.PrimaryOrigin())
	assert.Equal(t, models.ModeOnline, endpoint.Mode())
}

func TestNewEndpointRejectsMalformedOrigins(t *testing.T) {
	for _, origin := range []string{"", "10.100.155.236:8000", "ftp://host", "http://", "://bad"} {
		_, err := NewEndpoint(origin)
		assert.ErrorIs(t, err, ErrInvalidOrigin, origin)
	}
}

func TestOriginForMode(t *testing.T) {
	online, err := OriginForMode(testPrimary, models.ModeOnline)
	require.NoError(t, err)
	assert.Equal(t, testPrimary, online)

	offline, err := OriginForMode(testPrimary, models.ModeOffline)
	require.NoError(t, err)
	assert.Equal(t, testPrimary+"/hybrid", offline)

	_, err = OriginForMode(testPrimary, models.NetworkMode("satellite"))
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestSetBaseURL(t *testing.T) {
	endpoint, err := NewEndpoint(testPrimary)
	require.NoError(t, err)

	require.NoError(t, endpoint.SetBaseURL("http://10.0.2.2:8000/"))
	assert.Equal(t, "http://10.0.2.2:8000", endpoint.BaseURL())

	assert.ErrorIs(t, endpoint.SetBaseURL(""), ErrInvalidOrigin)
	assert.Equal(t, "http://10.0.2.2:8000", endpoint.BaseURL(), "invalid origin leaves base URL untouched")
}
