package process

// capWriter keeps the first max bytes written and drops the rest,
// recording that truncation happened. Runaway stage output must not
// balloon the report or the runner's memory.
type capWriter struct {
	buf       []byte
	max       int64
	truncated bool
}

func newCapWriter(max int64) *capWriter {
	return &capWriter{max: max}
}

// Write never reports an error: the subprocess keeps running and
// producing output even after the cap is reached.
func (w *capWriter) Write(p []byte) (int, error) {
	n := len(p)
	if w.max <= 0 {
		w.buf = append(w.buf, p...)
		return n, nil
	}

	room := w.max - int64(len(w.buf))
	if room <= 0 {
		w.truncated = true
		return n, nil
	}
	if int64(n) > room {
		w.buf = append(w.buf, p[:room]...)
		w.truncated = true
		return n, nil
	}
	w.buf = append(w.buf, p...)
	return n, nil
}

func (w *capWriter) Bytes() []byte {
	return w.buf
}
