package layout

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/observability"
)

// Completion is the outcome of one submitted request. Exactly one of
// Result and Err is set.
type Completion struct {
	RequestID string
	Result    *Result
	Err       error
	Duration  time.Duration
}

// Superseded reports whether the request was replaced before it finished.
func (c Completion) Superseded() bool {
	return errors.Is(c.Err, errors.ErrCodeSuperseded)
}

// Scheduler runs at most one layout at a time. Submitting a request
// cancels the one in flight; the cancelled request still completes, with
// a SUPERSEDED error, so callers never wait forever.
type Scheduler struct {
	engine Engine
	logger *log.Logger

	mu      sync.Mutex
	gen     uint64
	current string
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler returns a scheduler running requests on engine.
func NewScheduler(engine Engine, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{engine: engine, logger: logger}
}

// Submit starts req and returns a channel that receives its completion
// and is then closed. Requests without an id get one.
func (s *Scheduler) Submit(ctx context.Context, req Request) <-chan Completion {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	ch := make(chan Completion, 1)
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	prev, prevCancel := s.current, s.cancel
	s.gen++
	gen := s.gen
	s.current, s.cancel = req.ID, cancel
	s.wg.Add(1)
	s.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		s.logger.Debug("layout superseded", "request", prev, "by", req.ID)
		observability.Layout().OnLayoutSuperseded(ctx, prev)
	}

	go s.run(runCtx, cancel, gen, req, ch)
	return ch
}

func (s *Scheduler) run(ctx context.Context, cancel context.CancelFunc, gen uint64, req Request, ch chan<- Completion) {
	defer s.wg.Done()
	defer close(ch)
	defer cancel()

	nodes := 0
	if req.Graph != nil {
		nodes = req.Graph.NodeCount()
	}
	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, req.ID, nodes)
	start := time.Now()

	res, err := s.engine.Layout(ctx, req)

	s.mu.Lock()
	superseded := s.gen != gen
	if !superseded {
		s.current, s.cancel = "", nil
	}
	s.mu.Unlock()

	if superseded {
		res = nil
		err = errors.New(errors.ErrCodeSuperseded, "layout %s superseded", req.ID)
	} else if err == nil && res == nil {
		err = errors.New(errors.ErrCodeLayout, "engine %s returned no result", s.engine.Name())
	}

	d := time.Since(start)
	hooks.OnLayoutComplete(ctx, req.ID, d, err)
	if err != nil && !superseded {
		s.logger.Error("layout failed", "request", req.ID, "err", err)
	} else if err == nil {
		s.logger.Debug("layout complete", "request", req.ID, "nodes", nodes, "took", d)
	}
	ch <- Completion{RequestID: req.ID, Result: res, Err: err, Duration: d}
}

// Pending returns the id of the request in flight, if any.
func (s *Scheduler) Pending() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.cancel != nil
}

// Cancel supersedes the request in flight without starting a new one.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	prev, cancel := s.current, s.cancel
	s.gen++
	s.current, s.cancel = "", nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		observability.Layout().OnLayoutSuperseded(context.Background(), prev)
	}
}

// Wait blocks until every submitted request has completed.
func (s *Scheduler) Wait() { s.wg.Wait() }
