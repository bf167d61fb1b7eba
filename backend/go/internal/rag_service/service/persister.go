package service

import (
	"context"
	"fmt"
	"sync"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
	"docsearch/backend/go/internal/rag_service/rag/schema"
	"docsearch/backend/go/pkg/logger"
)

// Persister writes index snapshots from a single background goroutine.
// Save requests are coalesced: while a save is running at most one more is
// queued, and it captures the index state at the moment it starts, so the
// latest state always wins and saves never interleave.
type Persister struct {
	store    interfaces.SnapshotStore
	snapshot func() *schema.Snapshot
	log      *logger.Logger

	pending chan struct{}
	done    chan struct{}

	saveMu    sync.Mutex // serializes writes between the worker and Flush
	stateMu   sync.Mutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewPersister starts the writer goroutine. snapshot is called for every
// save to capture the current index.
func NewPersister(store interfaces.SnapshotStore, snapshot func() *schema.Snapshot, log *logger.Logger) *Persister {
	p := &Persister{
		store:    store,
		snapshot: snapshot,
		log:      log,
		pending:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

// Load reads the persisted snapshot. Failures are logged and an empty
// snapshot is returned so startup can continue.
func (p *Persister) Load(ctx context.Context) *schema.Snapshot {
	snap, err := p.store.Load(ctx)
	if err != nil {
		p.log.WithErr(err, "persistence_error").Warn("Could not load snapshot, starting with an empty index")
	}
	if snap == nil {
		snap = schema.NewSnapshot()
	}
	return snap
}

// Request schedules a save and returns immediately.
func (p *Persister) Request() {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.pending <- struct{}{}:
	default:
		// a save is already queued and will pick up the latest state
	}
}

// Flush saves the current state synchronously.
func (p *Persister) Flush(ctx context.Context) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()
	if err := p.store.Save(ctx, p.snapshot()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Close stops the writer after it drains queued work, then performs a
// final synchronous save. Calling Close again returns the first result.
func (p *Persister) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.stateMu.Lock()
		p.closed = true
		close(p.pending)
		p.stateMu.Unlock()

		select {
		case <-p.done:
		case <-ctx.Done():
			p.closeErr = ctx.Err()
			return
		}
		p.closeErr = p.Flush(ctx)
	})
	return p.closeErr
}

func (p *Persister) run() {
	defer close(p.done)
	for range p.pending {
		if err := p.Flush(context.Background()); err != nil {
			p.log.WithErr(err, "persistence_error").Error("Background snapshot save failed")
			continue
		}
		p.log.Debug("Snapshot saved")
	}
}
