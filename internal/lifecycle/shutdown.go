package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Phase orders shutdown hooks. Lower phases finish before higher ones start.
type Phase int

const (
	// PhaseWorkers stops producers of new work: the job server and scheduler.
	PhaseWorkers Phase = iota
	// PhaseStorage closes connections the workers were using.
	PhaseStorage
)

func (p Phase) String() string {
	switch p {
	case PhaseWorkers:
		return "workers"
	case PhaseStorage:
		return "storage"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type hook struct {
	name  string
	phase Phase
	fn    func(ctx context.Context) error
}

// Shutdown runs registered hooks phase by phase. Hooks sharing a phase run
// concurrently.
type Shutdown struct {
	mu    sync.Mutex
	hooks []hook
	log   *slog.Logger
}

// NewShutdown constructs a new Shutdown coordinator.
func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{log: log.With(slog.String("component", "shutdown"))}
}

// Register adds a named hook to phase. Nil functions are ignored.
func (s *Shutdown) Register(phase Phase, name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, hook{name: name, phase: phase, fn: fn})
}

// Execute runs every hook and returns all their failures combined. A phase
// whose context expires still lets the next phase run.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	hooks := append([]hook(nil), s.hooks...)
	s.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].phase < hooks[j].phase })

	start := time.Now()
	s.log.Info("shutdown sequence started", slog.Int("hook_count", len(hooks)))

	var result *multierror.Error
	for i := 0; i < len(hooks); {
		j := i
		for j < len(hooks) && hooks[j].phase == hooks[i].phase {
			j++
		}
		if err := s.runPhase(ctx, hooks[i].phase, hooks[i:j]); err != nil {
			result = multierror.Append(result, err)
		}
		i = j
	}

	s.log.Info("shutdown sequence finished", slog.Duration("elapsed", time.Since(start)))

	return result.ErrorOrNil()
}

func (s *Shutdown) runPhase(ctx context.Context, phase Phase, hooks []hook) error {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result *multierror.Error
	)

	for _, h := range hooks {
		wg.Add(1)
		go func(h hook) {
			defer wg.Done()

			log := s.log.With(slog.String("hook", h.name), slog.String("phase", phase.String()))
			if err := h.fn(ctx); err != nil {
				log.Error("shutdown hook failed", slog.Any("error", err))
				mu.Lock()
				result = multierror.Append(result, fmt.Errorf("%s: %w", h.name, err))
				mu.Unlock()
				return
			}
			log.Debug("shutdown hook completed")
		}(h)
	}

	wg.Wait()

	return result.ErrorOrNil()
}
