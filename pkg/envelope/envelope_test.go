package envelope

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	t.Parallel()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)

	err := JSON(c, http.StatusCreated, "Created", map[string]int{"id": 7})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rr.Code)

	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Created", body["message"])
	assert.Equal(t, map[string]interface{}{"id": float64(7)}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestMessage_OmitsData(t *testing.T) {
	t.Parallel()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)

	require.NoError(t, Message(c, http.StatusOK, "Logout successful"))

	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Logout successful", body["message"])
	assert.NotContains(t, body, "data")
}

func TestFailure(t *testing.T) {
	t.Parallel()
	env := Failure(http.StatusNotFound, "not_found", "Book not found.")
	assert.False(t, env.Success)
	assert.Equal(t, "Book not found.", env.Message)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Code)
	assert.Equal(t, http.StatusNotFound, env.Error.StatusCode)
}
