package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"programaxis/internal/game"
	"programaxis/internal/persistence"
	"programaxis/internal/tech"
	"programaxis/internal/tuning"
)

// Hub tracks live game sessions keyed by player ID. A session comes alive on
// first attach (loading its save and crediting offline time), keeps ticking
// while attached, and is saved and dropped after sitting idle with no
// connections.
type Hub struct {
	log        *zap.Logger
	cfg        tuning.Tuning
	graph      *tech.Graph
	milestones []game.Milestone
	store      *persistence.Store

	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	sess     *game.Session
	loop     *game.Loop
	stop     chan struct{}
	refs     int
	lastSeen time.Time
}

// NewHub creates an empty hub.
func NewHub(cfg tuning.Tuning, log *zap.Logger, graph *tech.Graph, milestones []game.Milestone, store *persistence.Store) *Hub {
	return &Hub{
		log:        log,
		cfg:        cfg,
		graph:      graph,
		milestones: milestones,
		store:      store,
		sessions:   make(map[string]*liveSession),
	}
}

// Acquire attaches a connection to the player's session, creating and
// restoring it if needed.
func (h *Hub) Acquire(player string) (*game.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ls, ok := h.sessions[player]; ok {
		ls.refs++
		ls.lastSeen = time.Now()
		return ls.sess, nil
	}

	sess, err := h.restore(player)
	if err != nil {
		return nil, err
	}
	ls := &liveSession{
		sess:     sess,
		loop:     game.NewLoop(sess, time.Duration(h.cfg.TickMs)*time.Millisecond),
		stop:     make(chan struct{}),
		refs:     1,
		lastSeen: time.Now(),
	}
	ls.loop.Start()
	go h.watchDirty(player, ls)
	h.sessions[player] = ls
	return sess, nil
}

// restore builds the player's session from their save slot. No save, or a
// corrupt save, starts a fresh game; a corrupt slot is deleted.
func (h *Hub) restore(player string) (*game.Session, error) {
	sess := game.NewSession(player, h.graph, h.milestones)

	snap, err := h.store.Load(player)
	switch {
	case errors.Is(err, persistence.ErrNoSave):
		h.log.Info("new player", zap.String("player", player))
		return sess, nil
	case errors.Is(err, persistence.ErrCorrupt):
		h.log.Warn("corrupt save, starting fresh", zap.String("player", player))
		_ = h.store.Delete(player)
		return sess, nil
	case err != nil:
		return nil, fmt.Errorf("restore %s: %w", player, err)
	}

	st, err := snap.RestoreState(h.graph)
	if errors.Is(err, persistence.ErrCorrupt) {
		h.log.Warn("corrupt save, starting fresh", zap.String("player", player))
		_ = h.store.Delete(player)
		return sess, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", player, err)
	}
	sess.Restore(st)

	if savedAt := snap.SavedAt(); !savedAt.IsZero() {
		report := sess.CatchUp(time.Since(savedAt), h.cfg.OfflineCapHours, time.Now())
		if report.Seconds > 0 {
			h.log.Info("offline catch-up",
				zap.String("player", player),
				zap.Float64("seconds", report.Seconds),
				zap.Float64("loc", report.Loc),
				zap.Float64("revenue", report.Revenue),
				zap.Int("milestones", report.Milestones))
		}
	}
	return sess, nil
}

// Release detaches one connection from the player's session.
func (h *Hub) Release(player string) {
	h.mu.Lock()
	ls, ok := h.sessions[player]
	if ok {
		if ls.refs > 0 {
			ls.refs--
		}
		ls.lastSeen = time.Now()
	}
	h.mu.Unlock()
	if ok {
		h.save(player, ls.sess)
	}
}

// watchDirty saves opportunistically after high-value transitions.
func (h *Hub) watchDirty(player string, ls *liveSession) {
	for {
		select {
		case <-ls.stop:
			return
		case <-ls.sess.Dirty():
			h.save(player, ls.sess)
		}
	}
}

// save captures a consistent snapshot and writes it. Failures are logged and
// retried on the next autosave; they never interrupt gameplay.
func (h *Hub) save(player string, sess *game.Session) {
	snap := persistence.FromState(sess.CloneState(), time.Now())
	if err := h.store.Save(player, snap); err != nil {
		h.log.Warn("save failed", zap.String("player", player), zap.Error(err))
	}
}

// SaveAll persists every live session (periodic autosave).
func (h *Hub) SaveAll() {
	h.mu.Lock()
	live := make(map[string]*game.Session, len(h.sessions))
	for player, ls := range h.sessions {
		live[player] = ls.sess
	}
	h.mu.Unlock()
	for player, sess := range live {
		h.save(player, sess)
	}
}

// CleanupIdle stops and evicts sessions with no connections that have been
// idle past the threshold, saving them first.
func (h *Hub) CleanupIdle(maxIdle time.Duration) {
	h.mu.Lock()
	var evict []string
	for player, ls := range h.sessions {
		if ls.refs == 0 && time.Since(ls.lastSeen) > maxIdle {
			evict = append(evict, player)
		}
	}
	evicted := make([]*liveSession, 0, len(evict))
	for _, player := range evict {
		evicted = append(evicted, h.sessions[player])
		delete(h.sessions, player)
	}
	h.mu.Unlock()

	for i, player := range evict {
		ls := evicted[i]
		ls.loop.Stop()
		close(ls.stop)
		h.save(player, ls.sess)
		h.log.Info("session evicted", zap.String("player", player))
	}
}

// Shutdown stops all loops and saves everything.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	all := h.sessions
	h.sessions = make(map[string]*liveSession)
	h.mu.Unlock()
	for player, ls := range all {
		ls.loop.Stop()
		close(ls.stop)
		h.save(player, ls.sess)
	}
}
