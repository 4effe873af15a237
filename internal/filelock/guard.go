package filelock

import (
	"context"
	"path/filepath"
	"sync"
)

// PathGuard serializes work on the same path within one process. flock
// cannot do this alone: the lock is per open file description, so two
// goroutines using separate handles must still be ordered here.
type PathGuard struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	token chan struct{}
	refs  int // holders plus waiters
}

// Acquire blocks until path is free or ctx is done. The returned release
// function must be called exactly once.
func (g *PathGuard) Acquire(ctx context.Context, path string) (func(), error) {
	key := absPath(path)

	g.mu.Lock()
	if g.locks == nil {
		g.locks = make(map[string]*pathLock)
	}
	l, ok := g.locks[key]
	if !ok {
		l = &pathLock{token: make(chan struct{}, 1)}
		g.locks[key] = l
	}
	l.refs++
	g.mu.Unlock()

	select {
	case l.token <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.token
				g.drop(key, l)
			})
		}, nil
	case <-ctx.Done():
		g.drop(key, l)
		return nil, ctx.Err()
	}
}

func (g *PathGuard) drop(key string, l *pathLock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(g.locks, key)
	}
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
