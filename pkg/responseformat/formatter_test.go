package responseformat

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestWriteResponseJSON(t *testing.T) {
	f := NewFormatter()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)

	require.NoError(t, f.WriteResponse(rr, req, http.StatusCreated, payload{"a", 1.5}))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, ContentTypeJSON, rr.Header().Get("Content-Type"))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"name":"a","value":1.5}`, rr.Body.String())
}

func TestWriteResponseMsgPack(t *testing.T) {
	f := NewFormatter()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/runs?format=msgpack", nil)

	require.NoError(t, f.WriteResponse(rr, req, http.StatusOK, payload{"b", 2}))
	assert.Equal(t, ContentTypeMsgPack, rr.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, msgpack.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "b", got["name"])
}

func TestWriteError(t *testing.T) {
	f := NewFormatter()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/runs/x", nil)

	require.NoError(t, f.WriteError(rr, req, http.StatusNotFound, errors.New("run not found")))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, ErrorResponse{Error: "run not found", Status: http.StatusNotFound}, got)
}

func TestDecodeRequest(t *testing.T) {
	f := NewFormatter()

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"c","value":3}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		var p payload
		require.NoError(t, f.DecodeRequest(req, &p))
		assert.Equal(t, payload{"c", 3}, p)
	})

	t.Run("json unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nme":"c"}`))
		var p payload
		assert.Error(t, f.DecodeRequest(req, &p))
	})

	t.Run("msgpack", func(t *testing.T) {
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		require.NoError(t, enc.Encode(payload{"d", 4}))

		req := httptest.NewRequest(http.MethodPost, "/", &buf)
		req.Header.Set("Content-Type", ContentTypeMsgPack)
		var p payload
		require.NoError(t, f.DecodeRequest(req, &p))
		assert.Equal(t, payload{"d", 4}, p)
	})
}
