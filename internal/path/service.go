package path

import (
	"sync"
	"sync/atomic"

	"timberline/core/internal/grid"
)

// Requester is the narrow interface agents use to ask for paths. Tests
// substitute a synchronous implementation; the scene wires in Service.
type Requester interface {
	Request(snap *grid.Snapshot, start, goal grid.Tile, done func(tiles []grid.Tile)) bool
}

type request struct {
	snap   *grid.Snapshot
	start  grid.Tile
	goal   grid.Tile
	budget int
	done   func([]grid.Tile)
}

type completion struct {
	tiles []grid.Tile
	done  func([]grid.Tile)
}

// Service runs path calculations on a small worker pool and delivers results
// through a completion queue. Callbacks never run on a pool goroutine:
// Drain executes them on the caller's goroutine, so the simulation stays
// single-threaded over world state. Each request captures its own snapshot,
// which keeps concurrent outstanding requests isolated from grid rebuilds
// and from each other.
type Service struct {
	requests    chan request
	completions chan completion
	budget      int
	wg          sync.WaitGroup
	closed      atomic.Bool
	pending     atomic.Int64
}

// NewService starts a pool with the given worker count and queue depth.
func NewService(workers, depth int) *Service {
	if workers < 1 {
		workers = 1
	}
	if depth < workers {
		depth = workers * 4
	}
	s := &Service{
		requests:    make(chan request, depth),
		completions: make(chan completion, depth),
		budget:      DefaultIterationBudget,
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

func (s *Service) worker() {
	defer s.wg.Done()
	for req := range s.requests {
		tiles, ok := FindPath(req.snap, req.start, req.goal, req.budget)
		if !ok {
			tiles = nil
		}
		s.completions <- completion{tiles: tiles, done: req.done}
	}
}

// Request enqueues a calculation. Returns false if the queue is full or the
// service is closed; the callback is then never invoked and the caller
// should retry on a later tick.
func (s *Service) Request(snap *grid.Snapshot, start, goal grid.Tile, done func([]grid.Tile)) bool {
	if s == nil || s.closed.Load() || done == nil {
		return false
	}
	req := request{snap: snap, start: start, goal: goal, budget: s.budget, done: done}
	select {
	case s.requests <- req:
		s.pending.Add(1)
		return true
	default:
		return false
	}
}

// Drain invokes up to max completed callbacks on the calling goroutine and
// reports how many ran. max <= 0 drains everything currently queued.
func (s *Service) Drain(max int) int {
	if s == nil {
		return 0
	}
	ran := 0
	for {
		if max > 0 && ran >= max {
			return ran
		}
		select {
		case c := <-s.completions:
			s.pending.Add(-1)
			c.done(c.tiles)
			ran++
		default:
			return ran
		}
	}
}

// Pending reports requests enqueued but not yet drained.
func (s *Service) Pending() int {
	if s == nil {
		return 0
	}
	return int(s.pending.Load())
}

// Close stops the pool. Outstanding completions can still be drained.
func (s *Service) Close() {
	if s == nil || !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.requests)
	s.wg.Wait()
}
