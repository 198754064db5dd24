// Package server exposes the game over WebSocket: one session per player,
// JSON state pushes at a fixed rate, JSON intents inbound.
package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"programaxis/internal/content"
	"programaxis/internal/game"
	"programaxis/internal/persistence"
	"programaxis/internal/tuning"
)

// App wires content, persistence, and the session hub behind an HTTP server.
type App struct {
	log        *zap.Logger
	cfg        tuning.Tuning
	hub        *Hub
	store      *persistence.Store
	milestones []game.Milestone

	srv  *http.Server
	stop chan struct{}
}

// NewApp validates and loads the embedded content, opens the save store, and
// builds the hub. It does not start listening.
func NewApp(cfg tuning.Tuning, log *zap.Logger) (*App, error) {
	graph, err := content.LoadGraph()
	if err != nil {
		return nil, err
	}
	milestones, err := content.LoadMilestones()
	if err != nil {
		return nil, err
	}
	store, err := persistence.Open(cfg.SaveDBPath, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		log:        log,
		cfg:        cfg,
		store:      store,
		milestones: milestones,
		stop:       make(chan struct{}),
	}
	a.hub = NewHub(cfg, log, graph, milestones, store)
	a.srv = &http.Server{Addr: cfg.Addr, Handler: a.routes()}
	return a, nil
}

// Run starts the background maintenance loops and serves until the listener
// fails or Shutdown is called.
func (a *App) Run() error {
	go a.autosaveLoop()
	go a.cleanupLoop()

	a.log.Info("listening", zap.String("addr", a.cfg.Addr))
	err := a.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (a *App) autosaveLoop() {
	ticker := time.NewTicker(time.Duration(a.cfg.AutosaveSeconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.hub.SaveAll()
		}
	}
}

func (a *App) cleanupLoop() {
	maxIdle := time.Duration(a.cfg.SessionIdleMinutes) * time.Minute
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.hub.CleanupIdle(maxIdle)
		}
	}
}

// Shutdown stops the listener, flushes every session to disk, and closes the
// store.
func (a *App) Shutdown(ctx context.Context) error {
	close(a.stop)
	err := a.srv.Shutdown(ctx)
	a.hub.Shutdown()
	if cerr := a.store.Close(); err == nil {
		err = cerr
	}
	return err
}
