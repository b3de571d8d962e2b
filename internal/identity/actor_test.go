package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	require.Nil(t, FromContext(context.Background()))

	actor := &Actor{ID: "u1", DisplayName: "alice@example.com"}
	ctx := WithActor(context.Background(), actor)
	require.Same(t, actor, FromContext(ctx))
}

func TestRequire(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Require(nil), apperr.ErrUnauthenticated)
	require.ErrorIs(t, Require(&Actor{}), apperr.ErrUnauthenticated)
	require.NoError(t, Require(&Actor{ID: "u1"}))
}
