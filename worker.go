package ftgs

import (
	"io"

	"github.com/hupe1980/ftgs/stream"
)

// Worker owns an ordered set of output streams and a single shared
// last-error slot. One worker serves one execution goroutine; workers
// are never shared.
type Worker struct {
	streams    []*stream.Stream
	transports []stream.Transport
	lastErr    error

	log     *Logger
	prof    Profiler
	metrics MetricsCollector

	closed bool
}

// NewWorker opens one output stream per transport, each starting in
// IDLE. The transports are closed by Close if they implement
// io.Closer.
func NewWorker(transports []stream.Transport, optFns ...Option) *Worker {
	opts := options{
		logger:   NoopLogger(),
		profiler: NoopProfiler{},
		metrics:  NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	w := &Worker{
		streams: make([]*stream.Stream, len(transports)),
		log:     opts.logger,
		prof:    opts.profiler,
		metrics: opts.metrics,
	}
	for i, t := range transports {
		w.streams[i] = stream.New(t)
		w.transports = append(w.transports, t)
	}
	return w
}

// NumStreams returns the number of output streams.
func (w *Worker) NumStreams() int { return len(w.streams) }

// LastError returns the worker's shared error slot: the error of the
// most recent failing operation. Errors are also returned directly by
// every operation; the slot exists for callers that inspect state
// after the fact.
func (w *Worker) LastError() error { return w.lastErr }

// fail stores err in the shared slot and returns it.
func (w *Worker) fail(err error) error {
	w.lastErr = err
	return err
}

// resolveStream validates index without touching any stream state.
func (w *Worker) resolveStream(index int) (*stream.Stream, error) {
	if w.closed {
		return nil, ErrWorkerClosed
	}
	if index < 0 || index >= len(w.streams) {
		return nil, &ErrInvalidStreamIndex{Index: index, Count: len(w.streams)}
	}
	return w.streams[index], nil
}

// propagate hands a stream-local failure to the worker slot. The
// stream's captured error is consumed (one-shot); if the stream holds
// none, the returned error itself is stored.
func (w *Worker) propagate(s *stream.Stream, err error) error {
	if we := s.TakeError(); we != nil {
		return w.fail(we)
	}
	return w.fail(err)
}

// StartField writes a field-start marker on the addressed stream.
func (w *Worker) StartField(streamIndex int, name string, termType TermType) error {
	s, err := w.resolveStream(streamIndex)
	if err != nil {
		return w.fail(err)
	}
	if err := s.StartField(name, termType.wire()); err != nil {
		w.log.WithStream(streamIndex).WithField(name).Error("field start failed", "error", err)
		return w.propagate(s, err)
	}
	return nil
}

// EndField writes a field-end marker on the addressed stream.
func (w *Worker) EndField(streamIndex int) error {
	s, err := w.resolveStream(streamIndex)
	if err != nil {
		return w.fail(err)
	}
	if err := s.EndField(); err != nil {
		w.log.WithStream(streamIndex).Error("field end failed", "error", err)
		return w.propagate(s, err)
	}
	return nil
}

// EndStream writes the terminal stream-end marker on the addressed
// stream.
func (w *Worker) EndStream(streamIndex int) error {
	s, err := w.resolveStream(streamIndex)
	if err != nil {
		return w.fail(err)
	}
	if err := s.EndStream(); err != nil {
		w.log.WithStream(streamIndex).Error("stream end failed", "error", err)
		return w.propagate(s, err)
	}
	return nil
}

// Close releases every stream regardless of its framing state, closing
// the underlying transports that support it. Idempotent.
func (w *Worker) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var firstErr error
	for _, t := range w.transports {
		if c, ok := t.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	w.streams = nil
	w.transports = nil
	return firstErr
}
