// Package http expone el servicio al bot: el endpoint de eventos
// entrantes (estilo OneBot v11, reporte HTTP con quick-reply), salud
// y métricas.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Superskyyy/niuniu-plus/internal/game"
	mw "github.com/Superskyyy/niuniu-plus/internal/http/middlewares"
	"github.com/Superskyyy/niuniu-plus/internal/observability/logger"
)

// Server arma el handler HTTP del plugin.
type Server struct {
	svc    *game.Service
	secret string
	log    *zap.Logger
}

func NewServer(svc *game.Service, secret string) *Server {
	return &Server{
		svc:    svc,
		secret: secret,
		log:    logger.Named("http"),
	}
}

// Handler arma el router con la cadena de middlewares estándar.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/event", s.handleEvent)

	return mw.Chain(r,
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
	)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// inboundEvent es el reporte OneBot v11 de un mensaje de grupo. Los
// ids numéricos llegan como número o string según el bot; flexID come
// los dos.
type inboundEvent struct {
	PostType    string `json:"post_type"`
	MessageType string `json:"message_type"`
	GroupID     flexID `json:"group_id"`
	UserID      flexID `json:"user_id"`
	RawMessage  string `json:"raw_message"`
	Message     string `json:"message"`
	Sender      struct {
		Card     string `json:"card"`
		Nickname string `json:"nickname"`
	} `json:"sender"`
}

type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*f = flexID(s)
	return nil
}

type quickReply struct {
	Reply string `json:"reply"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if s.secret != "" {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+s.secret {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
	}

	var in inboundEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&in); err != nil {
		http.Error(w, `{"error":"bad_request"}`, http.StatusBadRequest)
		return
	}
	// Solo mensajes de grupo; el resto se acusa recibo y listo.
	if in.PostType != "message" || in.MessageType != "group" || in.GroupID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	msg := in.RawMessage
	if msg == "" {
		msg = in.Message
	}
	nick := in.Sender.Card
	if nick == "" {
		nick = in.Sender.Nickname
	}

	reply, err := s.svc.Handle(r.Context(), game.Event{
		GroupID:  string(in.GroupID),
		UserID:   string(in.UserID),
		Nickname: nick,
		Message:  msg,
	})
	if err != nil {
		logger.From(r.Context()).Error("event handling failed",
			logger.GroupID(string(in.GroupID)),
			logger.UserID(string(in.UserID)),
			logger.Err(err),
		)
		http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
		return
	}
	if reply == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(quickReply{Reply: reply})
}

// Start levanta el servidor y bloquea hasta que falle o el contexto
// se cancele; en ese caso apaga con gracia.
func Start(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}
