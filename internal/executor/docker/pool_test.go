package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSpawner records containers without talking to Docker.
type fakeSpawner struct {
	mu        sync.Mutex
	next      int
	live      map[string]bool
	failFirst int
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{live: make(map[string]bool)}
}

func (f *fakeSpawner) spawn(_ context.Context, language string, _ Runtime) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFirst > 0 {
		f.failFirst--
		return "", errors.New("daemon busy")
	}
	f.next++
	id := fmt.Sprintf("%s-%d", language, f.next)
	f.live[id] = true
	return id, nil
}

func (f *fakeSpawner) destroy(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, id)
}

func (f *fakeSpawner) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPool(s spawner, size int) *Pool {
	p := newPool("python", Runtime{Image: "python:3.12-alpine"}, size, s, testLogger())
	p.retryDelay = time.Millisecond
	p.idleDelay = time.Millisecond
	return p
}

func TestPool_FillsToCapacity(t *testing.T) {
	s := newFakeSpawner()
	p := newTestPool(s, 3)
	p.Start()
	defer p.Stop()

	assert.Eventually(t, func() bool { return len(p.containers) == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, 3, s.liveCount())
}

func TestPool_GetRefills(t *testing.T) {
	s := newFakeSpawner()
	p := newTestPool(s, 1)
	p.Start()
	defer p.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	first, err := p.Get(ctx)
	require.NoError(t, err)
	second, err := p.Get(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPool_RetriesAfterSpawnFailure(t *testing.T) {
	s := newFakeSpawner()
	s.failFirst = 2
	p := newTestPool(s, 1)
	p.Start()
	defer p.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	id, err := p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "python-1", id)
}

func TestPool_GetHonoursContext(t *testing.T) {
	p := newTestPool(newFakeSpawner(), 1) // never started, so never filled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_StopRemovesIdleContainers(t *testing.T) {
	s := newFakeSpawner()
	p := newTestPool(s, 2)
	p.Start()

	require.Eventually(t, func() bool { return len(p.containers) == 2 }, time.Second, time.Millisecond)
	p.Stop()
	p.Stop() // idempotent

	assert.Equal(t, 0, s.liveCount())
}

func TestScript(t *testing.T) {
	got := script(Runtime{File: "main.py", Command: "python3 main.py"})
	assert.Equal(t, `printf '%s' "$SOURCE" > main.py && unset SOURCE && python3 main.py`, got)
}

func TestConfig_MemoryFor(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.MemoryLimit, cfg.memoryFor(cfg.Runtimes["python"]))
	assert.Equal(t, int64(512*1024*1024), cfg.memoryFor(cfg.Runtimes["cpp"]))
}
