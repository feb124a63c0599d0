package main

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/blues/note-c-zero/internal/server"
	"github.com/blues/note-c-zero/internal/transport"
)

// initBackend opens the selected device link and returns a serialized
// transact function plus a cleanup. It returns an error instead of exiting
// the process to allow graceful handling by the caller.
func initBackend(cfg *appConfig, l *slog.Logger) (server.TransactFunc, func(), error) {
	switch cfg.backend {
	case "i2c":
		return initI2CBackend(cfg, l)
	case "serial":
		return initSerialBackend(cfg, l)
	default:
		return nil, func() {}, fmt.Errorf("unknown backend %q (use i2c|serial)", cfg.backend)
	}
}

// growDouble is the buffer growth policy shared by both backends.
func growDouble(buf []byte, needed int) ([]byte, bool) {
	nb := make([]byte, len(buf)*2+needed)
	copy(nb, buf)
	return nb, true
}

// newTransact wraps a Transactor into a server.TransactFunc. The device is a
// single shared resource, so transactions are serialized under a mutex; the
// response is copied out because the transactor's buffer is reused.
func newTransact(tr transport.Transactor, bufSize int) server.TransactFunc {
	var mu sync.Mutex
	buf := make([]byte, bufSize)
	return func(req []byte) ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		// One extra byte beyond the request for the chunk-length header.
		if len(req)+1 > len(buf) {
			buf = make([]byte, len(req)*2)
		}
		copy(buf, req)
		rsp, err := tr.Transaction(0, buf)
		if err != nil {
			return nil, err
		}
		out := append([]byte(nil), rsp...)
		// Growth may have replaced the transaction buffer; keep using it.
		if cap(rsp) > len(buf) {
			buf = rsp[:cap(rsp)]
		}
		return out, nil
	}
}
