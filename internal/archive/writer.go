package archive

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const flushTimeout = 5 * time.Second

// Writer moves turn records from rooms to the store off the rooms' goroutines.
type Writer struct {
	store   Store
	queue   chan TurnRecord
	logger  *zap.Logger
	dropped atomic.Int64
}

func NewWriter(store Store, size int, logger *zap.Logger) *Writer {
	return &Writer{
		store:  store,
		queue:  make(chan TurnRecord, size),
		logger: logger,
	}
}

// Submit never blocks; a full queue drops the record.
func (w *Writer) Submit(rec TurnRecord) bool {
	select {
	case w.queue <- rec:
		return true
	default:
		w.dropped.Add(1)
		w.logger.Warn("archive queue full, dropping turn",
			zap.String("room", rec.RoomCode), zap.Int("turn", rec.Turn))
		return false
	}
}

func (w *Writer) Dropped() int64 { return w.dropped.Load() }

// Run saves records until ctx is cancelled, then flushes what is still queued.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case rec := <-w.queue:
			w.save(ctx, rec)
		case <-ctx.Done():
			w.flush()
			return nil
		}
	}
}

func (w *Writer) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case rec := <-w.queue:
			w.save(ctx, rec)
		default:
			return
		}
	}
}

func (w *Writer) save(ctx context.Context, rec TurnRecord) {
	if err := w.store.SaveTurn(ctx, rec); err != nil {
		w.logger.Error("archive turn", zap.String("room", rec.RoomCode), zap.Int("turn", rec.Turn), zap.Error(err))
	}
}
