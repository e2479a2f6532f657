package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

type oversizedError struct {
	size  int64
	limit int64
	// partial is set when the size was not known up front and reading
	// stopped at the limit.
	partial bool
}

func (e *oversizedError) Error() string {
	if e.partial {
		return fmt.Sprintf("file has more than %d bytes", e.limit)
	}
	return fmt.Sprintf("file has %d bytes, limit is %d", e.size, e.limit)
}

// readBounded reads a whole file subject to a size ceiling and a timeout.
// The ceiling also holds while reading, so pipes, devices and growing files
// never buffer more than limit+1 bytes. A read that outlives the timeout is
// abandoned; its goroutine finishes on its own and the buffered channel lets
// it exit.
func readBounded(ctx context.Context, path string, limit int64, timeout time.Duration) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if limit > 0 && info.Size() > limit {
		return nil, &oversizedError{size: info.Size(), limit: limit}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := readCapped(path, limit)
		ch <- result{data: data, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		if limit > 0 && int64(len(r.data)) > limit {
			return nil, &oversizedError{size: int64(len(r.data)), limit: limit, partial: true}
		}
		return r.data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// readCapped returns at most limit+1 bytes; the extra byte tells the caller
// the file is over the limit. A limit of zero or less reads everything.
func readCapped(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	return io.ReadAll(r)
}
