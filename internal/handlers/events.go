package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/templates"
)

// SSE event names. The page swaps each into the panel with the matching
// sse-swap attribute.
const (
	EventStats = "stats"
	EventWall  = "wall"
)

type sseEvent struct {
	name string
	c    templ.Component
}

// events streams re-rendered stats and wall fragments whenever the live views
// apply a refresh. Slow clients miss intermediate frames; each frame is a full
// replacement so the next one catches them up.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates := make(chan sseEvent, 8)
	push := func(ev sseEvent) {
		select {
		case updates <- ev:
		default:
		}
	}
	cancelStats := h.stats.OnUpdate(func(s domain.Stats) {
		push(sseEvent{EventStats, templates.Stats(templates.NewStatsView(s, true))})
	})
	defer cancelStats()
	cancelWall := h.wall.OnUpdate(func(rows []domain.Pledge) {
		push(sseEvent{EventWall, templates.Wall(templates.NewWallView(rows, true))})
	})
	defer cancelWall()

	h.metrics.SSEConnected()
	defer h.metrics.SSEDisconnected()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	var buf bytes.Buffer
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev := <-updates:
			buf.Reset()
			if err := ev.c.Render(r.Context(), &buf); err != nil {
				h.log.Warn("render sse fragment", "event", ev.name, "error", err)
				continue
			}
			if err := writeEvent(w, ev.name, buf.String()); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent frames data as one SSE message, prefixing every line with
// "data: " so multi-line HTML survives intact.
func writeEvent(w io.Writer, name, data string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", name)
	for _, line := range strings.Split(strings.TrimRight(data, "\n"), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
