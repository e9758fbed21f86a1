package devserver

import (
	"sync"

	"github.com/go-drift/viewbridge/pkg/errors"
)

// uiLoop is the single goroutine all registry work runs on. Installed as
// the platform dispatch function it plays the role a native main thread
// plays on a device.
type uiLoop struct {
	tasks    chan func()
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// mu orders post against stop: once closed is set no task can enter
	// tasks, so the final drain in stop sees every queued task.
	mu     sync.RWMutex
	closed bool
}

func newUILoop() *uiLoop {
	l := &uiLoop{
		tasks:   make(chan func(), 64),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *uiLoop) run() {
	defer close(l.stopped)
	for {
		select {
		case task := <-l.tasks:
			l.exec(task)
		case <-l.done:
			l.drain()
			return
		}
	}
}

func (l *uiLoop) drain() {
	for {
		select {
		case task := <-l.tasks:
			l.exec(task)
		default:
			return
		}
	}
}

func (l *uiLoop) exec(task func()) {
	defer errors.Recover("devserver.uiLoop")
	task()
}

// post queues task. After stop, task runs on the caller instead so that
// a waiting DispatchAndWait never hangs.
func (l *uiLoop) post(task func()) {
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		l.exec(task)
		return
	}
	select {
	case l.tasks <- task:
		l.mu.RUnlock()
	case <-l.done:
		l.mu.RUnlock()
		l.exec(task)
	}
}

// stop ends the loop. Tasks queued before it returns have all run.
func (l *uiLoop) stop() {
	l.stopOnce.Do(func() {
		close(l.done)
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		<-l.stopped
		l.drain()
	})
}
