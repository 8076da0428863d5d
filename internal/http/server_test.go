package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Superskyyy/niuniu-plus/internal/alliance"
	"github.com/Superskyyy/niuniu-plus/internal/cache"
	"github.com/Superskyyy/niuniu-plus/internal/game"
	"github.com/Superskyyy/niuniu-plus/internal/stock"
	"github.com/Superskyyy/niuniu-plus/internal/store"
)

type nullDeliverer struct{}

func (nullDeliverer) Deliver(context.Context, string, string) error { return nil }

func testHandler(t *testing.T, secret string) http.Handler {
	t.Helper()
	root := t.TempDir()
	reg := alliance.NewRegistryStore(root)
	parts := store.New(root)
	locks := alliance.NewLockSet()
	isAdmin := func(a string) bool { return a == "42" }

	svc := game.New(game.Deps{
		Parts:     parts,
		Registry:  reg,
		Resolver:  alliance.NewResolver(reg),
		Sync:      alliance.NewSynchronizer(reg, parts, locks),
		Lifecycle: alliance.NewLifecycle(reg, parts, locks, isAdmin, func() int64 { return time.Now().Unix() }),
		Broadcast: alliance.NewBroadcaster(reg, nullDeliverer{}),
		Market:    stock.New(root, 1),
		Cache:     cache.NewMemory("t", 0),
		IsAdmin:   isAdmin,
		Seed:      1,
	})
	return NewServer(svc, secret).Handler()
}

func post(t *testing.T, h http.Handler, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/event", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	h := testHandler(t, "")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"ok"`)
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsExposed(t *testing.T) {
	h := testHandler(t, "")
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestEventQuickReply(t *testing.T) {
	h := testHandler(t, "")

	// group_id numérico, como manda OneBot
	w := post(t, h, `{"post_type":"message","message_type":"group","group_id":100,"user_id":42,"raw_message":"牛牛开","sender":{"nickname":"admin"}}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "已开启")

	// comando desconocido: sin respuesta
	w = post(t, h, `{"post_type":"message","message_type":"group","group_id":"100","user_id":"7","raw_message":"hola","sender":{"nickname":"ana"}}`, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestEventIgnoresNonGroup(t *testing.T) {
	h := testHandler(t, "")
	w := post(t, h, `{"post_type":"notice","notice_type":"poke"}`, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestEventRejectsBadJSON(t *testing.T) {
	h := testHandler(t, "")
	w := post(t, h, `{nope`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventAuth(t *testing.T) {
	h := testHandler(t, "s3cr3t")

	w := post(t, h, `{"post_type":"message","message_type":"group","group_id":1,"user_id":42,"raw_message":"牛牛开"}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(t, h, `{"post_type":"message","message_type":"group","group_id":1,"user_id":42,"raw_message":"牛牛开"}`,
		map[string]string{"Authorization": "Bearer s3cr3t"})
	require.Equal(t, http.StatusOK, w.Code)
}
