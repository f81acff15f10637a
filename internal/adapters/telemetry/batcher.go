package telemetry

import (
	"bytes"
	"errors"
	"sync"
)

// DefaultSizeLimit is the default buffer size if not specified.
const DefaultSizeLimit = 4096

// errBatcherClosed is returned by writes after Close.
var errBatcherClosed = errors.New("batch processor is closed")

// BatchProcessor coalesces writes into chunks of whole lines of at most
// sizeLimit bytes, except for single lines that are longer. It is safe for
// concurrent use.
type BatchProcessor struct {
	sizeLimit int
	onFlush   func([]byte)

	mu     sync.Mutex
	buffer bytes.Buffer
	closed bool
}

// NewBatchProcessor returns a new BatchProcessor calling onFlush with every
// completed chunk.
func NewBatchProcessor(sizeLimit int, onFlush func([]byte)) *BatchProcessor {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	return &BatchProcessor{sizeLimit: sizeLimit, onFlush: onFlush}
}

// Write buffers p and flushes complete lines once the limit is reached.
func (bp *BatchProcessor) Write(p []byte) (int, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return 0, errBatcherClosed
	}

	bp.buffer.Write(p)
	for bp.buffer.Len() >= bp.sizeLimit {
		data := bp.buffer.Bytes()
		cut := bytes.LastIndexByte(data[:bp.sizeLimit], '\n') + 1
		if cut == 0 {
			// One line longer than the limit.
			cut = bytes.IndexByte(data, '\n') + 1
			if cut == 0 {
				break
			}
		}
		bp.emit(bp.buffer.Next(cut))
	}
	return len(p), nil
}

// Close flushes whatever is buffered. Further writes fail.
func (bp *BatchProcessor) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}
	bp.closed = true
	if bp.buffer.Len() > 0 {
		bp.emit(bp.buffer.Bytes())
		bp.buffer.Reset()
	}
	return nil
}

// emit must be called with mu held. data is copied before the callback.
func (bp *BatchProcessor) emit(data []byte) {
	if bp.onFlush != nil {
		bp.onFlush(bytes.Clone(data))
	}
}
