package onebot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeliver(t *testing.T) {
	var got sendGroupMsgReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/send_group_msg", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"ok","retcode":0}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", time.Second)
	require.NoError(t, c.Deliver(context.Background(), "G1", "hola"))
	require.Equal(t, "G1", got.GroupID)
	require.Equal(t, "hola", got.Message)
}

func TestDeliverRetcodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failed","retcode":100}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	err := c.Deliver(context.Background(), "G1", "hola")
	require.Error(t, err)
	require.Contains(t, err.Error(), "retcode=100")
}

func TestDeliverHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	require.Error(t, c.Deliver(context.Background(), "G1", "hola"))
}
