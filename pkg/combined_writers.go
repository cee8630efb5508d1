package pkg

import (
	"io"
	"os"

	"go.uber.org/multierr"
)

// CombinedWriter fans every write out to all of its writers.
// One failing writer does not keep the others from receiving the data.
type CombinedWriter struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		writers: append([]io.Writer(nil), writers...),
	}
}

// Write reports len(p) as written as long as at least one writer took the data.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var err error
	failed := 0
	for _, w := range cw.writers {
		if _, werr := w.Write(p); werr != nil {
			err = multierr.Append(err, werr)
			failed++
		}
	}
	if len(cw.writers) > 0 && failed == len(cw.writers) {
		return 0, err
	}
	return len(p), err
}

// Close closes the writers that are closers, leaving the process std streams open.
func (cw *CombinedWriter) Close() error {
	var err error
	for _, w := range cw.writers {
		if w == os.Stdout || w == os.Stderr {
			continue
		}
		if c, ok := w.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
