package store

import (
	"io"

	"dataroom/internal/dataroom"
)

// progressReader wraps a reader and reports the running byte count to a
// progress callback as the bytes are consumed.
type progressReader struct {
	reader   io.Reader
	total    int64
	read     int64
	progress dataroom.ProgressFunc
}

// newProgressReader returns r unchanged when progress is nil.
func newProgressReader(r io.Reader, total int64, progress dataroom.ProgressFunc) io.Reader {
	if progress == nil {
		return r
	}
	return &progressReader{reader: r, total: total, progress: progress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.reader.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.progress(p.read, p.total)
	}
	return n, err
}
