package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/threads/internal/middleware"
	"github.com/anonto42/nano-midea/threads/internal/store"
	"github.com/anonto42/nano-midea/threads/pkg/config"
	"github.com/anonto42/nano-midea/threads/pkg/firebase"
	"github.com/anonto42/nano-midea/threads/validators"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

type client struct {
	t *testing.T
	e *echo.Echo
}

func newClient(t *testing.T) *client {
	t.Helper()

	e := echo.New()
	e.Validator = validators.NewValidator()
	SetupRoutes(e, Deps{
		Store:  store.NewMemory(),
		Auth:   middleware.HeaderAuth(),
		Logger: slog.New(slog.DiscardHandler),
	})
	return &client{t: t, e: e}
}

func (c *client) do(method, path, actor, body string) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if actor != "" {
		req.Header.Set("X-Actor-ID", actor)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Code < 300 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type idOnly struct {
	ID string `json:"id"`
}

func TestAPI_PostReplyLikeFlow(t *testing.T) {
	t.Parallel()

	c := newClient(t)

	rec, env := c.do(http.MethodPost, "/api/v1/posts", "alice", `{"body":"first post"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[idOnly](t, env.Data)

	rec, env = c.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/replies", "bob", `{"body":"top"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	top := decode[idOnly](t, env.Data)

	rec, _ = c.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/replies", "alice", `{"body":"nested","parent_reply_id":"`+top.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env = c.do(http.MethodPost, "/api/v1/likes/reply/"+top.ID, "alice", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state := decode[map[string]any](t, env.Data)
	assert.Equal(t, true, state["liked"])
	assert.EqualValues(t, 1, state["like_count"])

	rec, env = c.do(http.MethodGet, "/api/v1/posts/"+post.ID+"/replies", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	thread := decode[struct {
		Count   int `json:"count"`
		Replies []struct {
			ID        string `json:"id"`
			LikeCount int64  `json:"like_count"`
			Replies   []struct {
				Depth int `json:"depth"`
			} `json:"replies"`
		} `json:"replies"`
		Liked []string `json:"liked_reply_ids"`
	}](t, env.Data)
	assert.Equal(t, 2, thread.Count)
	require.Len(t, thread.Replies, 1)
	assert.EqualValues(t, 1, thread.Replies[0].LikeCount)
	require.Len(t, thread.Replies[0].Replies, 1)
	assert.Equal(t, 1, thread.Replies[0].Replies[0].Depth)
	assert.Equal(t, []string{top.ID}, thread.Liked)

	rec, _ = c.do(http.MethodDelete, "/api/v1/replies/"+top.ID, "alice", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = c.do(http.MethodDelete, "/api/v1/posts/"+post.ID, "alice", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = c.do(http.MethodGet, "/api/v1/posts/"+post.ID+"/replies", "alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Feed(t *testing.T) {
	t.Parallel()

	c := newClient(t)

	var ids []string
	for _, body := range []string{"one", "two", "three"} {
		rec, env := c.do(http.MethodPost, "/api/v1/posts", "alice", `{"body":"`+body+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, decode[idOnly](t, env.Data).ID)
	}
	rec, _ := c.do(http.MethodPost, "/api/v1/likes/post/"+ids[0], "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)

	type feedData struct {
		Posts []struct {
			ID      string `json:"id"`
			IsLiked bool   `json:"is_liked"`
		} `json:"posts"`
	}

	rec, env := c.do(http.MethodGet, "/api/v1/feed", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	recency := decode[feedData](t, env.Data)
	require.Len(t, recency.Posts, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{recency.Posts[0].ID, recency.Posts[1].ID, recency.Posts[2].ID})
	assert.True(t, recency.Posts[2].IsLiked)

	rec, env = c.do(http.MethodGet, "/api/v1/feed?policy=popularity&limit=2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	popular := decode[feedData](t, env.Data)
	require.Len(t, popular.Posts, 2)
	assert.Equal(t, ids[0], popular.Posts[0].ID)
	assert.Equal(t, ids[2], popular.Posts[1].ID)
	assert.EqualValues(t, 2, env.Meta["totalPages"])

	rec, _ = c.do(http.MethodGet, "/api/v1/feed?policy=random", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_AuthAndValidation(t *testing.T) {
	t.Parallel()

	c := newClient(t)

	rec, _ := c.do(http.MethodPost, "/api/v1/posts", "", `{"body":"anon"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = c.do(http.MethodPost, "/api/v1/posts", "alice", `{"body":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = c.do(http.MethodPost, "/api/v1/posts", "alice", `{"body":"`+strings.Repeat("x", 281)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// the visible limit is counted after tags are stripped
	rec, env := c.do(http.MethodPost, "/api/v1/posts", "alice", `{"body":"<b>`+strings.Repeat("x", 280)+`</b>"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[struct {
		ID   string `json:"id"`
		Body string `json:"body"`
	}](t, env.Data)
	assert.Equal(t, strings.Repeat("x", 280), post.Body)

	rec, _ = c.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/replies", "bob", `{"body":"<i>`+strings.Repeat("y", 500)+`</i>"}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = c.do(http.MethodPost, "/api/v1/likes/story/x", "alice", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = c.do(http.MethodPost, "/api/v1/likes/post/missing", "alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = c.do(http.MethodPost, "/api/v1/media", "alice", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPI_Reconcile(t *testing.T) {
	t.Parallel()

	c := newClient(t)

	rec, env := c.do(http.MethodPost, "/api/v1/posts", "alice", `{"body":"p"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	post := decode[idOnly](t, env.Data)

	rec, _ = c.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/reconcile", "bob", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = c.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/reconcile", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[[]map[string]any](t, env.Data)
	require.Len(t, results, 1)
	assert.Equal(t, post.ID, results[0]["target_id"])
}

func TestAPI_RateLimit(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Validator = validators.NewValidator()
	SetupRoutes(e, Deps{
		Store:     store.NewMemory(),
		Auth:      middleware.HeaderAuth(),
		Logger:    slog.New(slog.DiscardHandler),
		RateLimit: 0.001,
		RateBurst: 2,
	})
	c := &client{t: t, e: e}

	for range 2 {
		rec, _ := c.do(http.MethodGet, "/api/v1/feed", "alice", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ := c.do(http.MethodGet, "/api/v1/feed", "alice", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = c.do(http.MethodGet, "/api/v1/feed", "bob", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	c := newClient(t)

	rec, _ := c.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = c.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Modes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	_, err := AuthMiddleware(ctx, &config.Config{
		AuthMode:                config.AuthFirebase,
		FirebaseCredentialsPath: t.TempDir() + "/absent.json",
	}, logger)
	require.ErrorIs(t, err, firebase.ErrCredentials)

	_, err = AuthMiddleware(ctx, &config.Config{AuthMode: config.AuthJWT}, logger)
	require.Error(t, err)

	_, err = AuthMiddleware(ctx, &config.Config{AuthMode: config.AuthNone, Env: "production"}, logger)
	require.Error(t, err)

	mw, err := AuthMiddleware(ctx, &config.Config{AuthMode: config.AuthJWT, JWTSecret: "s3cret"}, logger)
	require.NoError(t, err)
	assert.NotNil(t, mw)

	_, err = AuthMiddleware(ctx, &config.Config{AuthMode: "ldap"}, logger)
	require.Error(t, err)
}
