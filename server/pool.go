package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/codetesla51/raw-http-db/store"
	"github.com/rs/zerolog"
)

// readerPool holds 4KB buffered readers for connections
var readerPool = sync.Pool{
	New: func() interface{} {
		return bufio.NewReaderSize(nil, 4096)
	},
}

// responseBufferPool holds bytes.Buffer for building responses
var responseBufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Pool size limits - buffers larger than this are discarded
const (
	maxPoolBufferSize = 16384 // 16KB
)

func getReader(r io.Reader) *bufio.Reader {
	br := readerPool.Get().(*bufio.Reader)
	br.Reset(r)
	return br
}

func putReader(br *bufio.Reader) {
	br.Reset(nil)
	readerPool.Put(br)
}

// ErrPoolClosed is returned when submitting to a closed pool
var ErrPoolClosed = errors.New("worker pool closed")

// Task runs on a pool worker with that worker's executor, which is nil
// when the server has no database.
type Task func(exec store.Executor)

// Dispatcher decides where and when accepted connections run.
// The default is WorkerPool; a different scheduling policy can be plugged
// in with WithDispatcher.
type Dispatcher interface {
	Submit(task Task) error
	Close()
}

// Opener creates the executor owned by one worker
type Opener func() (store.Executor, error)

// WorkerPool runs tasks on a fixed number of goroutines. The queue is
// unbounded: Submit never blocks and never rejects work while open.
type WorkerPool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Task
	closed  bool
	running int

	execs  []store.Executor
	wg     sync.WaitGroup
	logger zerolog.Logger
}

// NewWorkerPool starts size workers. When open is non-nil each worker gets
// its own executor, created here; a failure closes the ones already open.
func NewWorkerPool(size int, open Opener, logger zerolog.Logger) (*WorkerPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid pool size %d", size)
	}

	p := &WorkerPool{logger: logger}
	p.cond = sync.NewCond(&p.mu)

	p.execs = make([]store.Executor, size)
	if open != nil {
		for i := range p.execs {
			exec, err := open()
			if err != nil {
				p.closeExecutors()
				return nil, fmt.Errorf("worker %d: %w", i, err)
			}
			p.execs[i] = exec
		}
	}

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(i, p.execs[i])
	}
	return p, nil
}

// Submit queues a task
func (p *WorkerPool) Submit(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return nil
}

// Close stops accepting tasks, waits for queued and running ones to finish
// and releases the workers' executors.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	p.closeExecutors()
}

// size returns the number of workers
func (p *WorkerPool) size() int {
	return len(p.execs)
}

// pending returns the number of queued tasks not yet picked up
func (p *WorkerPool) pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// runningTasks returns the number of tasks currently executing
func (p *WorkerPool) runningTasks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *WorkerPool) worker(id int, exec store.Executor) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.running++
		p.mu.Unlock()

		p.run(id, task, exec)

		p.mu.Lock()
		p.running--
		p.mu.Unlock()
	}
}

func (p *WorkerPool) run(id int, task Task, exec store.Executor) {
	defer func() {
		if err := recover(); err != nil {
			p.logger.Error().Int("worker", id).Interface("panic", err).Msg("task panicked")
		}
	}()
	task(exec)
}

func (p *WorkerPool) closeExecutors() {
	for i, exec := range p.execs {
		if exec == nil {
			continue
		}
		if err := exec.Close(); err != nil {
			p.logger.Warn().Err(err).Int("worker", i).Msg("failed to close executor")
		}
		p.execs[i] = nil
	}
}
