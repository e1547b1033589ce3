package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validationf("bad amount")))
	assert.Equal(t, KindNotFound, KindOf(NotFoundf("bill %d not found", 7)))
	assert.Equal(t, KindForbidden, KindOf(Forbiddenf("locked")))
	assert.Equal(t, KindInternal, KindOf(errors.New("connection refused")))
	assert.Equal(t, KindInternal, KindOf(Internal("query failed", errors.New("timeout"))))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("applying payment: %w", NotFoundf("bill 3 not found"))
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
	assert.Equal(t, "bill 3 not found", Message(err))
}

func TestMessageFlattensInternal(t *testing.T) {
	err := Internal("failed to insert payment", errors.New("pq: deadlock detected"))
	assert.Equal(t, "internal server error", Message(err))
	assert.Contains(t, err.Error(), "deadlock")

	assert.Equal(t, "internal server error", Message(errors.New("raw")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validationf("x")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFoundf("x")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbiddenf("x")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("x")))
}
