package gridlaunch

import (
	"fmt"
	"sync"
)

// Stream represents an ordered sequence of operations that execute
// asynchronously. Operations within a stream execute in order, but
// operations in different streams may execute concurrently.
//
// The first failing operation puts the stream into an error state: later
// transfers and launches are skipped, while event records still complete so
// that waiters are released. Synchronize reports the error.
type Stream struct {
	id    int
	tasks chan streamTask
	wg    sync.WaitGroup

	submitMu sync.Mutex
	closed   bool

	errMu sync.Mutex
	err   error
}

type streamTask struct {
	fn     func() error
	always bool // runs even after the stream recorded an error
}

func newStream(id int) *Stream {
	s := &Stream{
		id:    id,
		tasks: make(chan streamTask, StreamQueueDepth),
	}
	go s.worker()
	return s
}

// ID returns the stream identifier within its context.
func (s *Stream) ID() int {
	return s.id
}

// worker processes tasks for a stream
func (s *Stream) worker() {
	for task := range s.tasks {
		s.run(task)
		s.wg.Done()
	}
}

func (s *Stream) run(task streamTask) {
	if !task.always && s.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.setErr(NewLaunchError("Stream", fmt.Sprintf("task panicked on stream %d: %v", s.id, r), nil))
		}
	}()
	if err := task.fn(); err != nil {
		s.setErr(err)
	}
}

// Submit adds a task to the stream. The task's error, if any, becomes the
// stream's sticky error.
func (s *Stream) Submit(task func() error) error {
	return s.submit(streamTask{fn: task})
}

func (s *Stream) submit(task streamTask) error {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	s.wg.Add(1)
	s.tasks <- task
	return nil
}

// Synchronize waits for all tasks in the stream to complete and returns the
// stream's sticky error, if any.
func (s *Stream) Synchronize() error {
	s.wg.Wait()
	return s.Err()
}

// Err returns the first error recorded on the stream.
func (s *Stream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Stream) setErr(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}

func (s *Stream) close() {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.tasks)
	}
}
