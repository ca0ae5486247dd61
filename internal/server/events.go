package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// handleEvents streams dashboard updates over server-sent events until the
// viewer disconnects.
func handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	viewerID := fmt.Sprintf("%s-%d", r.RemoteAddr, time.Now().UnixNano())
	updates := orc.Listeners.Listen(viewerID)
	defer orc.Listeners.Remove(viewerID)

	log.Println("dashboard viewer connected:", r.RemoteAddr)
	defer log.Println("dashboard viewer disconnected:", r.RemoteAddr)

	// Heartbeat comments keep proxies from reaping the idle connection.
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case update, open := <-updates:
			if !open {
				return
			}
			data, err := json.Marshal(update)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", update.Kind, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
