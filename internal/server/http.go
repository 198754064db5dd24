package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"programaxis/internal/persistence"
)

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/debug/state", a.serveDebugState)
	return mux
}

// serveDebugState dumps one player's snapshot as JSON. Read-only; it loads
// from the save store and never touches live sessions.
func (a *App) serveDebugState(w http.ResponseWriter, r *http.Request) {
	player := r.URL.Query().Get("player")
	if player == "" {
		http.Error(w, "missing player", http.StatusBadRequest)
		return
	}
	snap, err := a.store.Load(player)
	if errors.Is(err, persistence.ErrNoSave) {
		http.Error(w, "no save", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Player  string                  `json:"player"`
		SavedAt time.Time               `json:"saved_at"`
		Snap    persistence.SnapshotV1  `json:"snapshot"`
	}{player, snap.SavedAt(), snap})
}
