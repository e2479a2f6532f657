//go:build linux || darwin

package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBoundedStopsAtLimitOnPipe(t *testing.T) {
	dir := t.TempDir()
	fifo := filepath.Join(dir, "Gen.java")
	require.NoError(t, syscall.Mkfifo(fifo, 0o600))

	const total = 4 << 20
	written := make(chan int, 1)
	go func() {
		f, err := os.OpenFile(fifo, os.O_WRONLY, 0)
		if err != nil {
			written <- 0
			return
		}
		defer f.Close()
		chunk := make([]byte, 4096)
		n := 0
		for n < total {
			w, err := f.Write(chunk)
			n += w
			if err != nil {
				break
			}
		}
		written <- n
	}()

	data, err := readBounded(context.Background(), fifo, 1024, 5*time.Second)
	assert.Nil(t, data)
	var big *oversizedError
	require.True(t, errors.As(err, &big), "got %v", err)
	assert.True(t, big.partial)
	assert.Equal(t, int64(1024), big.limit)

	select {
	case n := <-written:
		assert.Less(t, n, total, "reader must stop before draining the writer")
	case <-time.After(5 * time.Second):
		t.Fatal("writer still blocked after the reader gave up")
	}
}
