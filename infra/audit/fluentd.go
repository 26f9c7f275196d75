package audit

import (
	"net"
	"strconv"
	"sync"
	"time"
)

// fluentdWriter ships JSON lines to a fluentd in_tcp source. The connection
// is opened on first write and re-opened once when a write fails.
type fluentdWriter struct {
	addr    string
	timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

func newFluentdWriter(host string, port int, timeout time.Duration) *fluentdWriter {
	return &fluentdWriter{addr: net.JoinHostPort(host, strconv.Itoa(port)), timeout: timeout}
}

func (w *fluentdWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if w.conn == nil {
			if w.conn, err = net.DialTimeout("tcp", w.addr, w.timeout); err != nil {
				w.conn = nil
				continue
			}
		}
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.timeout))
		var n int
		if n, err = w.conn.Write(p); err == nil {
			return n, nil
		}
		_ = w.conn.Close()
		w.conn = nil
	}
	return 0, err
}

func (w *fluentdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}
