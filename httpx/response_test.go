package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseBufferFlush(t *testing.T) {
	buf := NewResponseBuffer()
	buf.Header().Set("content-type", "application/json")
	buf.WriteHeader(http.StatusCreated)
	buf.WriteHeader(http.StatusTeapot)
	_, err := buf.Write([]byte(`{"id":3}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, buf.Status())
	var body struct{ ID int }
	require.NoError(t, buf.DecodeJSON(&body))
	assert.Equal(t, 3, body.ID)

	rec := httptest.NewRecorder()
	require.NoError(t, buf.Flush(rec))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("content-type"))
	assert.JSONEq(t, `{"id":3}`, rec.Body.String())
}

func TestResponseBufferImplicitStatus(t *testing.T) {
	buf := NewResponseBuffer()
	assert.Equal(t, 0, buf.Status())
	assert.Empty(t, buf.Body())

	buf.Write([]byte("ok"))
	assert.Equal(t, http.StatusOK, buf.Status())
}
