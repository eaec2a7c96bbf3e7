package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// asyncWriter decouples log producers from the sinks: lines are queued and
// written by a single background goroutine, so a slow disk never blocks the
// caller.
type asyncWriter struct {
	lines   chan []byte
	flushes chan chan error
	stopped chan struct{}
	closing sync.Once

	mu      sync.Mutex
	out     []*bufio.Writer
	failure error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	out := make([]*bufio.Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			out = append(out, bufio.NewWriterSize(w, bufSize))
		}
	}
	aw := &asyncWriter{
		lines:   make(chan []byte, 256),
		flushes: make(chan chan error),
		stopped: make(chan struct{}),
		out:     out,
	}
	go aw.run()
	return aw
}

func (w *asyncWriter) run() {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.flushSinks()
				close(w.stopped)
				return
			}
			if len(line) == 0 {
				continue
			}
			if err := w.writeLine(line); err != nil {
				w.recordFailure(err)
			}
		case ack := <-w.flushes:
			ack <- w.flushSinks()
		}
	}
}

// Write queues a copy of p for the background goroutine. When the queue is
// full the call blocks rather than dropping the line.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.firstFailure(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	line := make([]byte, len(p))
	copy(line, p)
	w.lines <- line
	return nil
}

// Flush blocks until everything queued so far has reached the sinks.
func (w *asyncWriter) Flush() error {
	if err := w.firstFailure(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.flushes <- ack
	return <-ack
}

// Close drains the queue, flushes the sinks and reports the first write
// error seen over the writer's lifetime.
func (w *asyncWriter) Close() error {
	w.closing.Do(func() {
		close(w.lines)
	})
	<-w.stopped
	return w.firstFailure()
}

func (w *asyncWriter) writeLine(p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sink := range w.out {
		if _, err := sink.Write(p); err != nil {
			return err
		}
		if err := sink.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flushSinks() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, sink := range w.out {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) firstFailure() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failure
}

func (w *asyncWriter) recordFailure(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failure == nil {
		w.failure = err
	}
}
