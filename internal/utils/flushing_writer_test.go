package utils

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingFlusher struct {
	bytes.Buffer
	flushes int
}

func (flusher *countingFlusher) Flush() {
	flusher.flushes++
}

func TestFlushingWriterFlushesBufferedWriters(testInstance *testing.T) {
	var destination bytes.Buffer
	bufferedWriter := bufio.NewWriter(&destination)
	writer := NewFlushingWriter(bufferedWriter)

	bytesWritten, writeError := writer.Write([]byte("git fetch origin\n"))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, len("git fetch origin\n"), bytesWritten)
	require.Equal(testInstance, "git fetch origin\n", destination.String())
}

func TestFlushingWriterCallsPlainFlush(testInstance *testing.T) {
	flusher := &countingFlusher{}
	writer := NewFlushingWriter(flusher)

	_, writeError := writer.Write([]byte("step"))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, 1, flusher.flushes)
	require.Equal(testInstance, "step", flusher.String())
}

func TestFlushingWriterWrapsOnce(testInstance *testing.T) {
	writer := NewFlushingWriter(&bytes.Buffer{})
	require.Same(testInstance, writer, NewFlushingWriter(writer))

	_, writeError := NewFlushingWriter(nil).Write([]byte("discarded"))
	require.NoError(testInstance, writeError)
}
