package tui

import (
	"context"
	"time"

	"github.com/sadopc/actra/internal/store"
	"github.com/sadopc/actra/internal/tracker"
)

// timerModel mirrors the service's currently active trackable. The service
// owns the state; the model only reads it back after each tick or change.
type timerModel struct {
	svc *tracker.Service

	running bool
	id      string
	name    string
	color   store.Color
	started float64
	now     float64
}

func newTimerModel(svc *tracker.Service) timerModel {
	t := timerModel{svc: svc}
	t.sync()
	return t
}

func (t *timerModel) sync() {
	t.now = t.svc.Now()
	tr, start, ok := t.svc.Running()
	if !ok {
		t.running = false
		t.id, t.name = "", ""
		t.started = 0
		return
	}
	t.running = true
	t.id = tr.ID()
	t.name = tr.Name()
	t.color = tr.Color()
	t.started = start
}

func (t timerModel) ctx() context.Context { return context.Background() }

func (t *timerModel) start(id string) (tracker.Status, error) {
	st, err := t.svc.Start(t.ctx(), id)
	t.sync()
	return st, err
}

// stop closes the running interval. With nothing running it is a no-op.
func (t *timerModel) stop() (tracker.Status, error) {
	if !t.running {
		return tracker.Status{}, nil
	}
	st, err := t.svc.Stop(t.ctx(), t.id)
	t.sync()
	return st, err
}

func (t *timerModel) tick() {
	t.sync()
}

func (t timerModel) currentElapsed() time.Duration {
	if !t.running || t.now < t.started {
		return 0
	}
	return time.Duration((t.now - t.started) * float64(time.Second))
}
