package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/blues/note-c-zero/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"transactions", snap.Transactions,
					"i2c_tx_chunks", snap.I2CTxChunks,
					"i2c_rx_chunks", snap.I2CRxChunks,
					"serial_tx", snap.SerialTx,
					"serial_rx", snap.SerialRx,
					"tcp_rx", snap.TCPRx,
					"tcp_tx", snap.TCPTx,
					"malformed", snap.Malformed,
					"errors", snap.Errors,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
