package utils

import (
	"io"
	"sync"
)

type errorFlusher interface {
	Flush() error
}

type plainFlusher interface {
	Flush()
}

type flushingWriter struct {
	mutex  sync.Mutex
	writer io.Writer
}

// NewFlushingWriter serializes writes to writer and flushes after each one when the writer buffers output.
// Console command events go through it so step progress appears before the next subprocess starts.
func NewFlushingWriter(writer io.Writer) io.Writer {
	if writer == nil {
		return io.Discard
	}
	if _, alreadyFlushing := writer.(*flushingWriter); alreadyFlushing {
		return writer
	}
	return &flushingWriter{writer: writer}
}

func (flushing *flushingWriter) Write(data []byte) (int, error) {
	flushing.mutex.Lock()
	defer flushing.mutex.Unlock()

	bytesWritten, writeError := flushing.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	switch flusher := flushing.writer.(type) {
	case errorFlusher:
		return bytesWritten, flusher.Flush()
	case plainFlusher:
		flusher.Flush()
	}
	return bytesWritten, nil
}
