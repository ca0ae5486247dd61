package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// participantView is the wire shape of one participant row; internal
// bookkeeping stays off the wire.
type participantView struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	IsAdmin     bool      `json:"is_admin"`
	CameraOn    bool      `json:"camera_on"`
	Left        bool      `json:"left"`
	JoinedToday bool      `json:"joined_today"`
	Status      string    `json:"status,omitempty"`
	Excused     bool      `json:"excused,omitempty"`
	LastChange  time.Time `json:"last_change"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("could not write response:", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	snap, err := orc.Snapshot(r.Context(), startTime)
	if err != nil {
		log.Println("could not build snapshot:", err)
		writeError(w, http.StatusInternalServerError, "snapshot unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snap)

	log.Printf("%s '%s' in %s\n", r.Method, r.URL.Path, time.Since(startTime))
}

func handleParticipants(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	all, err := orc.Participants(r.Context())
	if err != nil {
		log.Println("could not list participants:", err)
		writeError(w, http.StatusInternalServerError, "participant list unavailable")
		return
	}

	joined := make(map[int64]struct{})
	for _, id := range orc.JoinedToday() {
		joined[id] = struct{}{}
	}

	views := make([]participantView, 0, len(all))
	for i := range all {
		p := &all[i]
		_, joinedToday := joined[p.ID]
		views = append(views, participantView{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			IsAdmin:     p.IsAdmin,
			CameraOn:    p.CameraOn,
			Left:        p.Left(),
			JoinedToday: joinedToday,
			Status:      string(p.Status),
			Excused:     p.Excused,
			LastChange:  p.LastStatusChange,
		})
	}
	writeJSON(w, http.StatusOK, views)

	log.Printf("%s '%s' in %s\n", r.Method, r.URL.Path, time.Since(startTime))
}

func handlePauseAlerts(w http.ResponseWriter, r *http.Request) {
	orc.PauseAlerts()
	log.Println("alerts paused via dashboard API")
	writeJSON(w, http.StatusOK, map[string]string{"alerts": "paused"})
}

func handleResumeAlerts(w http.ResponseWriter, r *http.Request) {
	orc.ResumeAlerts()
	log.Println("alerts resumed via dashboard API")
	writeJSON(w, http.StatusOK, map[string]string{"alerts": "active"})
}

func handleResync(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	if err := orc.Resync(r.Context()); err != nil {
		log.Println("manual resync failed:", err)
		writeError(w, http.StatusBadGateway, "chat history could not be fetched")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"resync": "completed"})

	log.Printf("%s '%s' in %s\n", r.Method, r.URL.Path, time.Since(startTime))
}

func handleListHolidays(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"holidays": orc.ManualHolidays()})
}

func handleAddHoliday(w http.ResponseWriter, r *http.Request) {
	date, ok := holidayDate(w, r)
	if !ok {
		return
	}
	added, err := orc.AddHoliday(date)
	if err != nil {
		log.Println("could not add holiday:", err)
		writeError(w, http.StatusInternalServerError, "could not save holiday")
		return
	}
	if !added {
		writeError(w, http.StatusConflict, "holiday already registered")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"added": date.Format("2006-01-02")})
}

func handleRemoveHoliday(w http.ResponseWriter, r *http.Request) {
	date, ok := holidayDate(w, r)
	if !ok {
		return
	}
	removed, err := orc.RemoveHoliday(date)
	if err != nil {
		log.Println("could not remove holiday:", err)
		writeError(w, http.StatusInternalServerError, "could not remove holiday")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "not a manually registered holiday")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": date.Format("2006-01-02")})
}

func holidayDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		var body struct {
			Date string `json:"date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			raw = body.Date
		}
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}
