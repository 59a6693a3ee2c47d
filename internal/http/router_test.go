package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crmpush/internal/auth"
	"crmpush/internal/config"
	"crmpush/internal/push"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopPush struct{}

func (noopPush) CreateJob(context.Context, []push.Profile) (*push.PushJob, error) {
	return &push.PushJob{ID: 1}, nil
}
func (noopPush) GetJob(context.Context, uint64) (*push.PushJob, error) {
	return nil, push.ErrJobNotFound
}
func (noopPush) ListJobs(context.Context, push.JobStatus, int) ([]push.PushJob, error) {
	return nil, nil
}
func (noopPush) JobContacts(context.Context, uint64) ([]push.Contact, error) {
	return nil, push.ErrJobNotFound
}

type noopSched struct{}

func (noopSched) SchedulePushJob(uint64) error { return nil }

func serve(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{"profiles":[{"email":"a@example.com"}]}`))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_OpenWhenAuthDisabled(t *testing.T) {
	h := NewRouter(config.Config{}, Deps{Push: noopPush{}, Sched: noopSched{}, Log: zerolog.Nop()})

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusCreated, serve(h, http.MethodPost, "/push", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/push/5", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/me", "").Code)
}

func TestRouter_ProtectsPushWhenAuthEnabled(t *testing.T) {
	cfg := config.Config{JWTSecret: "s3cret", JWTTTL: time.Hour}
	jwtSvc := auth.NewJWT(cfg.JWTSecret, cfg.JWTTTL)
	h := NewRouter(cfg, Deps{Push: noopPush{}, Sched: noopSched{}, JWT: jwtSvc, Log: zerolog.Nop()})

	tok, _, err := jwtSvc.Sign("importer")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodPost, "/push", "").Code)
	assert.Equal(t, http.StatusCreated, serve(h, http.MethodPost, "/push", tok).Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/push", tok).Code)

	me := serve(h, http.MethodGet, "/me", tok)
	assert.Equal(t, http.StatusOK, me.Code)
	assert.JSONEq(t, `{"client":"importer"}`, me.Body.String())
}

func TestRouter_AccessLog(t *testing.T) {
	var buf bytes.Buffer
	h := NewRouter(config.Config{}, Deps{Push: noopPush{}, Sched: noopSched{}, Log: zerolog.New(&buf)})

	serve(h, http.MethodGet, "/health", "")

	assert.Contains(t, buf.String(), `"url":"/health"`)
	assert.Contains(t, buf.String(), `"status":200`)
	assert.Contains(t, buf.String(), `"request_id":`)
}
