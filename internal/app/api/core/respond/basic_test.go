package respond

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	w := httptest.NewRecorder()

	Status(w, 204)

	assert.Equal(t, 204, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestString(t *testing.T) {
	w := httptest.NewRecorder()

	String(w, 200, "hello")

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "text/plain;charset=utf-8", w.Header().Get("Content-Type"))
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, 200, map[string]int{"a": 1})

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"a":1}`, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestJSON_nilData(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, 200, nil)

	assert.Equal(t, "null", w.Body.String())
}
