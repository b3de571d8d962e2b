package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
)

func TestHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.ErrConflict, http.StatusConflict},
		{apperr.ErrUnauthenticated, http.StatusUnauthorized},
		{apperr.Forbidden("nope"), http.StatusForbidden},
		{apperr.NotFound("post", "p1"), http.StatusNotFound},
		{apperr.Transient("op", errors.New("down")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
		{echo.NewHTTPError(http.StatusTeapot), http.StatusTeapot},
	}

	for _, tt := range tests {
		var he *echo.HTTPError
		require.ErrorAs(t, httpError(tt.err), &he)
		assert.Equal(t, tt.want, he.Code, tt.err.Error())
	}

	var he *echo.HTTPError
	require.ErrorAs(t, httpError(apperr.Transient("op", errors.New("dsn=secret"))), &he)
	assert.Equal(t, http.StatusText(http.StatusServiceUnavailable), he.Message)

	assert.NoError(t, httpError(nil))
}
