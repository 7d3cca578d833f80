package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

const (
	// sseBufferSize — глубина буфера на подписчика; медленный клиент
	// теряет события, а не блокирует публикатора.
	sseBufferSize = 64
	// sseHeartbeatInterval — период keep-alive комментариев.
	sseHeartbeatInterval = 15 * time.Second
)

// Events обрабатывает GET /api/v1/events: подписывается на шину и
// транслирует доменные события как text/event-stream до отключения
// клиента. Отписка гарантирована при любом исходе.
func (s *Server) Events(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	events := make(chan domain.Event, sseBufferSize)
	unsubscribe := s.bus.Subscribe(func(event domain.Event) {
		select {
		case events <- event:
		default:
			s.logger.WithField("event", event.Kind()).
				Warn("slow sse client, event dropped")
		}
	})
	defer unsubscribe()

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-events:
			if err := writeSSE(w, event); err != nil {
				return nil
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

// writeSSE пишет одно событие в формате event/data и сбрасывает буфер.
func writeSSE(w *echo.Response, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).WithField("event", event.Kind()).
			Error("failed to marshal sse event")
		return nil
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind(), data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
