package docker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// spawner creates and destroys sandbox containers. The Executor implements it
// over the Docker client; tests use a fake.
type spawner interface {
	spawn(ctx context.Context, language string, rt Runtime) (string, error)
	destroy(id string)
}

// Pool keeps a fixed number of pre-warmed containers for one runtime, so an
// execution never waits for a container to boot.
type Pool struct {
	language   string
	runtime    Runtime
	spawner    spawner
	logger     *slog.Logger
	containers chan string
	done       chan struct{}
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once

	// retryDelay is the backoff after a failed spawn; idleDelay is the poll
	// interval while the pool is full.
	retryDelay time.Duration
	idleDelay  time.Duration
}

func newPool(language string, rt Runtime, size int, s spawner, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		language:   language,
		runtime:    rt,
		spawner:    s,
		logger:     logger.With(slog.String("language", language)),
		containers: make(chan string, size),
		done:       make(chan struct{}),
		retryDelay: time.Second,
		idleDelay:  100 * time.Millisecond,
	}
}

// Start begins filling the pool in the background.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting container pool", slog.Int("poolSize", cap(p.containers)))
		p.wg.Add(1)
		go p.manager()
	})
}

// Stop shuts down the manager and removes every pre-warmed container.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()

		for {
			select {
			case id := <-p.containers:
				p.spawner.destroy(id)
			default:
				return
			}
		}
	})
}

// Get hands out a ready container. The caller owns it and must destroy it.
// It blocks until one is available or ctx is done.
func (p *Pool) Get(ctx context.Context) (string, error) {
	select {
	case id := <-p.containers:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// manager keeps the pool at capacity until Stop.
func (p *Pool) manager() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		default:
		}

		if len(p.containers) == cap(p.containers) {
			p.sleep(p.idleDelay)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		id, err := p.spawner.spawn(ctx, p.language, p.runtime)
		cancel()
		if err != nil {
			p.logger.Error("failed to create pre-warmed container", slog.String("error", err.Error()))
			p.sleep(p.retryDelay)
			continue
		}

		select {
		case p.containers <- id:
		case <-p.done:
			p.spawner.destroy(id)
			return
		}
	}
}

// sleep waits for d or until Stop, whichever comes first.
func (p *Pool) sleep(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-p.done:
	}
}
