package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusByKind(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, AuthenticationRequired().Kind.Status())
	assert.Equal(t, http.StatusForbidden, InsufficientRole("ADMIN").Kind.Status())
	assert.Equal(t, http.StatusForbidden, AccessDenied().Kind.Status())
	assert.Equal(t, http.StatusNotFound, NotFound("employee").Kind.Status())
	assert.Equal(t, http.StatusBadRequest, Validation("bad").Kind.Status())
	assert.Equal(t, http.StatusConflict, AlreadyExists("employee ID").Kind.Status())
	assert.Equal(t, http.StatusInternalServerError, KindStore.Status())
}

func TestStoreWrapsOnlyUnclassified(t *testing.T) {
	cause := errors.New("connection reset")
	err := Store("find employees", cause)
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "find employees failed: connection reset", err.Error())

	nf := NotFound("employee")
	assert.Same(t, nf, Store("find employee", nf))
	assert.Nil(t, Store("noop", nil))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("persist: %w", Conflict("employee was modified concurrently", nil))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindStore, KindOf(errors.New("plain")))
}
