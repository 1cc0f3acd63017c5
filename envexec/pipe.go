package envexec

import (
	"bytes"
	"io"
	"os"
	"time"
)

// collector reads one end of a pipe into memory while the child runs
type collector struct {
	W *os.File

	r         *os.File
	buffer    bytes.Buffer
	limit     Size
	truncated bool
	done      chan struct{}
}

func newCollector(limit Size) (*collector, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	c := &collector{
		W:     w,
		r:     r,
		limit: limit,
		done:  make(chan struct{}),
	}
	go c.collect()
	return c, nil
}

func (c *collector) collect() {
	defer close(c.done)
	if c.limit == 0 {
		io.Copy(&c.buffer, c.r)
		return
	}
	n, _ := io.CopyN(&c.buffer, c.r, int64(c.limit)+1)
	if n > int64(c.limit) {
		c.buffer.Truncate(int(c.limit))
		c.truncated = true
	}
	// ensure no blocking / SIGPIPE on the other end
	io.Copy(io.Discard, c.r)
}

// Finish waits for the writer side to be closed by every holder. Descendants
// of the child may keep the pipe open, so after grace the read end is closed.
func (c *collector) Finish(grace time.Duration) string {
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-c.done:
	case <-t.C:
	}
	c.r.Close()
	<-c.done
	return c.buffer.String()
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		if f == nil {
			continue
		}
		f.Close()
	}
}
