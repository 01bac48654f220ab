package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/channel-feed/internal/api/handler"
	"github.com/d60-Lab/channel-feed/internal/api/middleware"
	"github.com/d60-Lab/channel-feed/internal/cache"
	"github.com/d60-Lab/channel-feed/internal/event"
	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
	"github.com/d60-Lab/channel-feed/internal/service"
	"github.com/d60-Lab/channel-feed/internal/testutil"
)

const (
	secret = "router-secret"
	issuer = "channel-feed"
)

type app struct {
	t      *testing.T
	router *gin.Engine
	seed   *testutil.Seeder
	fanout *service.FanoutWorker
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newApp(t *testing.T) *app {
	t.Helper()
	db := testutil.NewDB(t)

	users := repository.NewUserRepository(db)
	channels := repository.NewChannelRepository(db)
	posts := repository.NewPostRepository(db)
	reactions := repository.NewReactionRepository(db)
	follows := repository.NewFollowRepository(db)
	feeds := repository.NewFeedRepository(db)
	facts := repository.NewFactRepository(db)
	polls := repository.NewPollRepository(db)

	bus := event.NewBus(64)
	t.Cleanup(bus.Close)
	defaults := cache.NewDefaultChannelCache(channels, nil, 0)
	recomputer := service.NewRecomputer(repository.NewCounterRepository(db), nil, service.RecomputeOptions{Workers: 1, QueueSize: 16})

	h := handler.New(handler.Services{
		Users:      service.NewUserService(users),
		Channels:   service.NewChannelService(users, channels, repository.NewOutboxRepository(db), defaults),
		Posts:      service.NewPostService(users, channels, posts, reactions, facts, polls, bus),
		Feed:       service.NewFeedService(users, channels, posts, feeds, follows, facts, polls, defaults, 50),
		Follows:    service.NewFollowService(users, channels, posts, follows, bus),
		Engagement: service.NewEngagementService(users, channels, posts, reactions, facts, bus),
		Reactions:  service.NewReactionService(users, channels, posts, reactions, bus),
		Polls:      service.NewPollService(users, channels, posts, polls),
		Blocks:     service.NewBlockService(users, repository.NewBlockRepository(db)),
		Recomputer: recomputer,
	})

	return &app{
		t: t,
		router: NewRouter(h, RouterOptions{
			Mode:        gin.TestMode,
			JWTSecret:   secret,
			JWTIssuer:   issuer,
			RateLimiter: middleware.NewRateLimiter(1000, 1000),
		}),
		seed: testutil.NewSeeder(t, db),
		fanout: service.NewFanoutWorker(repository.NewOutboxRepository(db), posts, channels, feeds, nil, service.FanoutOptions{
			ClaimLimit:  16,
			BaseBackoff: time.Millisecond,
			MaxBackoff:  time.Millisecond,
		}),
	}
}

func (a *app) token(userID string) string {
	a.t.Helper()
	tok, err := middleware.IssueToken(secret, issuer, userID, time.Hour)
	require.NoError(a.t, err)
	return tok
}

func (a *app) do(method, path, userID string, body any) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(userID))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestRouter_HealthAndAuth(t *testing.T) {
	a := newApp(t)

	code, _ := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodGet, "/api/v1/feed?org_id=o1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_RegisterIsPublic(t *testing.T) {
	a := newApp(t)

	code, env := a.do(http.MethodPost, "/api/v1/users", "", map[string]any{"username": "alice"})
	require.Equal(t, http.StatusCreated, code)
	var u model.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "alice", u.Username)
	assert.NotEmpty(t, u.ID)

	code, _ = a.do(http.MethodPost, "/api/v1/users", "", map[string]any{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRouter_PostFansOutToFollowerFeed(t *testing.T) {
	a := newApp(t)
	author := a.seed.User("author")
	reader := a.seed.User("reader")

	code, env := a.do(http.MethodPost, "/api/v1/channels", author.ID, map[string]any{"org_id": "org-1", "title": "news"})
	require.Equal(t, http.StatusCreated, code)
	var ch model.Channel
	require.NoError(t, json.Unmarshal(env.Data, &ch))

	code, _ = a.do(http.MethodPost, "/api/v1/channels/"+ch.ID+"/follow", reader.ID, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodPost, "/api/v1/channels/"+ch.ID+"/follow", reader.ID, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = a.do(http.MethodPost, "/api/v1/posts", author.ID, map[string]any{"channel_id": ch.ID, "message": "hello"})
	require.Equal(t, http.StatusCreated, code)
	var post model.Post
	require.NoError(t, json.Unmarshal(env.Data, &post))

	_, err := a.fanout.ProcessOnce(context.Background())
	require.NoError(t, err)

	code, env = a.do(http.MethodGet, "/api/v1/feed?org_id=org-1", reader.ID, nil)
	require.Equal(t, http.StatusOK, code)
	var page service.FeedPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, post.ID, page.Items[0].Post.ID)
	assert.False(t, page.HasMore)

	code, env = a.do(http.MethodGet, "/api/v1/channels/following", reader.ID, nil)
	require.Equal(t, http.StatusOK, code)
	var following struct {
		List []string `json:"list"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &following))
	assert.Equal(t, []string{ch.ID}, following.List)

	code, _ = a.do(http.MethodGet, "/api/v1/feed", reader.ID, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(http.MethodGet, "/api/v1/feed?org_id=org-1&date=yesterday", reader.ID, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRouter_ToggleLikeAndRecompute(t *testing.T) {
	a := newApp(t)
	admin := a.seed.Admin("admin")
	user := a.seed.User("user")
	ch := a.seed.Channel("general")
	post := a.seed.Post(ch.ID, admin.ID)

	like := map[string]any{"target_kind": "post", "target_id": post.ID, "desired": true}
	code, _ := a.do(http.MethodPut, "/api/v1/likes", user.ID, like)
	require.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodPut, "/api/v1/likes", user.ID, like)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.do(http.MethodPut, "/api/v1/likes", user.ID, map[string]any{"target_kind": "channel", "target_id": post.ID, "desired": true})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(http.MethodPut, "/api/v1/likes", user.ID, map[string]any{"target_kind": "post", "target_id": "missing", "desired": true})
	assert.Equal(t, http.StatusNotFound, code)

	body := map[string]any{"kind": string(repository.CountPostLikes), "target_id": post.ID}
	code, _ = a.do(http.MethodPost, "/internal/recompute", user.ID, body)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := a.do(http.MethodPost, "/internal/recompute", admin.ID, body)
	require.Equal(t, http.StatusOK, code)
	var res struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, int64(1), res.Count)

	code, _ = a.do(http.MethodPost, "/internal/recompute", admin.ID, map[string]any{"kind": "bogus", "target_id": post.ID})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRouter_ReactionLifecycle(t *testing.T) {
	a := newApp(t)
	author := a.seed.User("author")
	other := a.seed.User("other")
	ch := a.seed.Channel("general")
	post := a.seed.Post(ch.ID, author.ID)

	code, env := a.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/reactions", other.ID, map[string]any{"message": "nice"})
	require.Equal(t, http.StatusCreated, code)
	var r model.Reaction
	require.NoError(t, json.Unmarshal(env.Data, &r))

	code, _ = a.do(http.MethodDelete, "/api/v1/reactions/"+r.ID, author.ID, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodDelete, "/api/v1/reactions/"+r.ID, other.ID, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodDelete, "/api/v1/reactions/"+r.ID, other.ID, nil)
	assert.Equal(t, http.StatusConflict, code)
}
