package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/unitrack/core/watch"
)

var sseHeartbeat = 15 * time.Second

// streamSnapshots writes every snapshot of stream as a server-sent event until the stream
// closes (the request context is done). Failed snapshots are sent as "error" events.
func streamSnapshots[T any](ctx echo.Context, stream <-chan watch.Snapshot[T]) error {
	w := ctx.Response()
	if _, ok := w.Writer.(http.Flusher); !ok {
		return errStreamingUnsup
	}
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			w.Flush()
		case snap, ok := <-stream:
			if !ok {
				return nil
			}
			event, payload := "snapshot", interface{}(snap.Value)
			if snap.Err != nil {
				ctx.Logger().Error(snap.Err)
				event, payload = "error", echo.Map{"error": "could not load data"}
			}
			data, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
			w.Flush()
		}
	}
}
