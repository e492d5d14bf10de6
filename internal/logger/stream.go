package logger

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/gab-cat/auth-gateway/internal/auth/domain"
	autherror "github.com/gab-cat/auth-gateway/internal/errors"
)

const streamService = "LogStream"

// envelope is the wire frame for every event the stream emits.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type authChallenge struct {
	Type    string `json:"type"`
	Realm   string `json:"realm"`
	Message string `json:"message"`
}

// StreamHandler upgrades observer connections, runs the authentication
// negotiation and pumps broadcast entries out until disconnect.
type StreamHandler struct {
	bus        *Broadcaster
	log        *Logger
	strategies []Strategy
}

func NewStreamHandler(bus *Broadcaster, log *Logger, strategies ...Strategy) *StreamHandler {
	return &StreamHandler{bus: bus, log: log, strategies: strategies}
}

// Upgrade gates the route on websocket upgrade requests.
func (h *StreamHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler returns the websocket endpoint.
func (h *StreamHandler) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		h.serve(conn)
	})
}

func (h *StreamHandler) serve(conn *websocket.Conn) {
	ctx := context.Background()

	hs := Handshake{
		CookieHeader:  conn.Headers(fiber.HeaderCookie),
		Authorization: conn.Headers(fiber.HeaderAuthorization),
	}

	user, err := h.authenticate(ctx, hs)
	if err != nil {
		// Not escalated; the observer channel is best-effort.
		h.log.Warn("Unauthorized log viewer connection attempt",
			Fields{"remote": conn.RemoteAddr().String(), "error": err.Error()}, streamService)

		_ = conn.WriteJSON(envelope{Event: "auth-required", Data: authChallenge{
			Type:    "basic",
			Realm:   "Log Viewer Access",
			Message: "Authentication required to access log viewer",
		}})
		_ = conn.Close()
		return
	}

	sub, backlog := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	h.log.Info("Log viewer client connected", Fields{"email": user.Email}, streamService)
	defer h.log.Info("Log viewer client disconnected", Fields{"email": user.Email}, streamService)

	if err := conn.WriteJSON(envelope{Event: "initial-logs", Data: backlog}); err != nil {
		return
	}

	// Read pump: we expect no frames from observers, but reading is the
	// only way to notice a transport-level disconnect promptly.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case entry, ok := <-sub.C():
			if !ok {
				return
			}
			if err := conn.WriteJSON(envelope{Event: "log", Data: entry}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *StreamHandler) authenticate(ctx context.Context, hs Handshake) (*domain.User, error) {
	for _, strategy := range h.strategies {
		if user, err := strategy.Authenticate(ctx, hs); err == nil && user != nil {
			return user, nil
		}
	}
	return nil, autherror.ErrObserverAuthFailed
}
