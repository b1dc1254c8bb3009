package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := New(Conflict, "already following")
	wrapped := fmt.Errorf("follow: %w", base)

	assert.Equal(t, Conflict, KindOf(base))
	assert.Equal(t, Conflict, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, base))
	assert.Equal(t, Unavailable, KindOf(errors.New("connection reset")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(Unavailable, cause, "could not load posts")

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "could not load posts: dial tcp: timeout", err.Error())
	assert.Equal(t, "could not load posts", Message(err))
	assert.Equal(t, "internal error", Message(cause))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		InvalidInput:    http.StatusBadRequest,
		Unauthenticated: http.StatusUnauthorized,
		Forbidden:       http.StatusForbidden,
		NotFound:        http.StatusNotFound,
		Conflict:        http.StatusBadRequest,
		Unavailable:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), string(kind))
	}
}
