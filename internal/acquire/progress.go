package acquire

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

// progressWriter counts bytes as they are written and prints a progress
// line every progressStep bytes.
type progressWriter struct {
	w       io.Writer
	total   int64 // -1 when the server sent no Content-Length
	written int64
	next    int64
	counter prometheus.Counter
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	p.counter.Add(float64(len(b)))

	if p.written >= p.next {
		p.next = p.written + progressStep
		if p.total > 0 {
			fmt.Fprintf(p.w, "  %d / %d MiB (%.0f%%)\n",
				p.written>>20, p.total>>20, 100*float64(p.written)/float64(p.total))
		} else {
			fmt.Fprintf(p.w, "  %d MiB\n", p.written>>20)
		}
	}
	return len(b), nil
}
