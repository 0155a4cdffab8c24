// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent worker pool that runs independent
// tasks in submission order and can cancel everything that has not started.
//
// Usage:
//
//	pool := workerpool.New(runtime.NumCPU() + 1)
//	defer pool.Close()
//
//	tasks := make([]*workerpool.Task, len(jobs))
//	for i, job := range jobs {
//	    tasks[i] = pool.Submit(job.Run)
//	}
//	for _, task := range tasks {
//	    if err := task.Wait(); err != nil {
//	        pool.Cancel()
//	        return err
//	    }
//	}
package workerpool

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

var (
	// ErrCancelled is returned by Task.Wait for tasks skipped after Cancel.
	ErrCancelled = errors.New("workerpool: task cancelled")
	// ErrClosed is returned by Task.Wait for tasks submitted after Close.
	ErrClosed = errors.New("workerpool: pool closed")
)

// Task is the handle of a submitted function.
type Task struct {
	fn   func() error
	done chan struct{}
	err  error
}

// Wait blocks until the task has run or been skipped and returns its error.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Done is closed once the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) finish(err error) {
	t.err = err
	close(t.done)
}

func (t *Task) run() {
	defer func() {
		if r := recover(); r != nil {
			t.finish(fmt.Errorf("workerpool: task panicked: %v", r))
		}
	}()
	t.finish(t.fn())
}

// Pool is a fixed set of workers consuming an unbounded FIFO queue.
// Submit never blocks.
type Pool struct {
	numWorkers int

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*Task
	closing bool

	closeOnce sync.Once
	cancelled atomic.Bool
	workers   sync.WaitGroup
}

// New creates a pool with numWorkers workers. Workers are spawned
// immediately and persist until Close is called. If numWorkers <= 0, uses
// GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{numWorkers: numWorkers}
	p.cond = sync.NewCond(&p.mu)

	p.workers.Add(numWorkers)
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closing {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		t := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		if p.cancelled.Load() {
			t.finish(ErrCancelled)
			continue
		}
		t.run()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Submit queues fn and returns its handle.
func (p *Pool) Submit(fn func() error) *Task {
	t := &Task{fn: fn, done: make(chan struct{})}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closing {
		t.finish(ErrClosed)
		return t
	}
	p.queue = append(p.queue, t)
	p.cond.Signal()
	return t
}

// Cancel makes every task that has not started yet finish with
// ErrCancelled. Running tasks are not interrupted.
func (p *Pool) Cancel() {
	p.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (p *Pool) Cancelled() bool {
	return p.cancelled.Load()
}

// Close stops accepting tasks, lets the workers drain the queue and waits
// for them to exit. Calling Close multiple times is safe.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closing = true
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	p.workers.Wait()
}
