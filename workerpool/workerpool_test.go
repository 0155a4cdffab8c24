// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package workerpool

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	if pool.NumWorkers() != 4 {
		t.Errorf("NumWorkers() = %d, want 4", pool.NumWorkers())
	}
}

func TestNewDefault(t *testing.T) {
	pool := New(0)
	defer pool.Close()

	if pool.NumWorkers() != runtime.GOMAXPROCS(0) {
		t.Errorf("NumWorkers() = %d, want %d", pool.NumWorkers(), runtime.GOMAXPROCS(0))
	}
}

func TestSubmit(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	n := 100
	results := make([]int, n)
	tasks := make([]*Task, n)
	for i := range n {
		tasks[i] = pool.Submit(func() error {
			results[i] = i * 2
			return nil
		})
	}
	for i, task := range tasks {
		if err := task.Wait(); err != nil {
			t.Fatalf("task %d: %v", i, err)
		}
	}
	for i := range n {
		if results[i] != i*2 {
			t.Errorf("results[%d] = %d, want %d", i, results[i], i*2)
		}
	}
}

func TestSubmitReturnsError(t *testing.T) {
	pool := New(2)
	defer pool.Close()

	want := errors.New("boom")
	if err := pool.Submit(func() error { return want }).Wait(); !errors.Is(err, want) {
		t.Errorf("Wait() = %v, want %v", err, want)
	}
}

func TestSubmitRecoversPanic(t *testing.T) {
	pool := New(1)
	defer pool.Close()

	err := pool.Submit(func() error { panic("bad task") }).Wait()
	if err == nil {
		t.Fatal("Wait() = nil, want error from panicking task")
	}
	// The worker survives.
	if err := pool.Submit(func() error { return nil }).Wait(); err != nil {
		t.Errorf("Wait() after panic = %v", err)
	}
}

func TestFIFOWithSingleWorker(t *testing.T) {
	pool := New(1)
	defer pool.Close()

	var mu sync.Mutex
	var order []int
	var tasks []*Task
	for i := range 20 {
		tasks = append(tasks, pool.Submit(func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
	}
	for _, task := range tasks {
		task.Wait()
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("order = %v, want ascending", order)
		}
	}
}

func TestCancel(t *testing.T) {
	pool := New(1)
	defer pool.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	first := pool.Submit(func() error {
		close(started)
		<-release
		return nil
	})
	<-started

	var ran atomic.Int32
	var pending []*Task
	for range 10 {
		pending = append(pending, pool.Submit(func() error {
			ran.Add(1)
			return nil
		}))
	}

	pool.Cancel()
	if !pool.Cancelled() {
		t.Error("Cancelled() = false after Cancel")
	}
	close(release)

	if err := first.Wait(); err != nil {
		t.Errorf("running task: Wait() = %v, want nil", err)
	}
	for i, task := range pending {
		if err := task.Wait(); !errors.Is(err, ErrCancelled) {
			t.Errorf("pending task %d: Wait() = %v, want ErrCancelled", i, err)
		}
	}
	if ran.Load() != 0 {
		t.Errorf("%d cancelled tasks ran", ran.Load())
	}
}

func TestClose(t *testing.T) {
	pool := New(2)

	var ran atomic.Int32
	for range 10 {
		pool.Submit(func() error {
			time.Sleep(time.Millisecond)
			ran.Add(1)
			return nil
		})
	}
	pool.Close()
	if ran.Load() != 10 {
		t.Errorf("ran = %d after Close, want 10", ran.Load())
	}

	if err := pool.Submit(func() error { return nil }).Wait(); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit after Close: Wait() = %v, want ErrClosed", err)
	}

	// Closing twice is safe.
	pool.Close()
}
