// Package server exposes the dashboard API: aggregate status, participant
// state, alert controls, holiday management, and a live event stream.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Baehyeonu/classwatch/internal/orchestrator"
)

var (
	Port   string
	server *http.Server
	orc    *orchestrator.Orchestrator
)

func Start(o *orchestrator.Orchestrator) error {
	orc = o

	api := http.NewServeMux()
	api.HandleFunc("GET /api/status", handleStatus)
	api.HandleFunc("GET /api/participants", handleParticipants)
	api.HandleFunc("POST /api/alerts/pause", handlePauseAlerts)
	api.HandleFunc("POST /api/alerts/resume", handleResumeAlerts)
	api.HandleFunc("POST /api/resync", handleResync)
	api.HandleFunc("GET /api/holidays", handleListHolidays)
	api.HandleFunc("POST /api/holidays", handleAddHoliday)
	api.HandleFunc("DELETE /api/holidays", handleRemoveHoliday)

	router := http.NewServeMux()
	// The event stream is long-lived and must stay outside the timeout
	// wrapper.
	router.HandleFunc("GET /api/events", handleEvents)
	router.Handle("/", http.TimeoutHandler(api, 10*time.Second, "Oops, timed out!"))

	server = &http.Server{
		Addr:              Port,
		Handler:           router,
		ReadTimeout:       1 * time.Second,
		IdleTimeout:       30 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	log.Println("dashboard API starting on", Port)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("could not start dashboard API: %w", err)
	}
	return nil
}

func Stop() error {
	if server == nil {
		return nil
	}

	fmt.Print("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("could not shutdown server gracefully: %w", err)
	}

	fmt.Print("Done!\n")
	return nil
}
