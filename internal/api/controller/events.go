package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/service/statistics"
)

const (
	eventBuffer      = 32
	keepAliveTimeout = 25 * time.Second
)

type readyEvent struct {
	LastModified time.Time `json:"lastModified"`
	Version      uint64    `json:"version"`
}

// StreamEvents forwards store notifications as server-sent events until the client
// goes away. Slow clients lose events rather than block the store.
func (c *Controller) StreamEvents(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	events := make(chan statistics.Event, eventBuffer)
	unsubscribe := c.store.Subscribe(func(ev statistics.Event) {
		select {
		case events <- ev:
		default:
			logger.Warnf(reqCtx, "events: dropped %s for slow client", ev.Kind)
		}
	})
	defer unsubscribe()

	w := ctx.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(name string, payload interface{}) error {
		b, err := sonic.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, b); err != nil {
			return err
		}
		w.Flush()
		return nil
	}

	snap := c.store.Snapshot()
	if err := send("ready", readyEvent{LastModified: snap.LastModified, Version: snap.Version}); err != nil {
		return nil
	}

	ticker := time.NewTicker(keepAliveTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-reqCtx.Done():
			return nil
		case ev := <-events:
			if err := send(string(ev.Kind), ev); err != nil {
				logger.Debugf(reqCtx, "events: client gone: %s", err.Error())
				return nil
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
