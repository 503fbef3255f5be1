package ingest

import (
	"context"
	"fmt"
	"time"

	"max-notify/internal/model"
	pkgLog "max-notify/pkg/log"
)

const callbackLogLimit = 500

type usecase struct {
	dedup      *DedupStore
	dispatcher *Dispatcher
	pool       *workerPool
	now        func() time.Time
	l          pkgLog.Logger
}

// Process dedups, normalizes and dispatches one update. A panic while reading
// the update is turned into ErrMalformedUpdate.
func (uc *usecase) Process(ctx context.Context, inst model.Instance, upd model.Update) (out ProcessOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = ProcessOutput{}
			err = fmt.Errorf("%w: %v", ErrMalformedUpdate, r)
		}
	}()

	key := DedupKey(upd)
	if !uc.dedup.ShouldProcess(key, updateTypeOf(upd), uc.now()) {
		uc.l.Debugf(ctx, "ingest: skip duplicate update (recent): %s", truncate(key, 80))
		return ProcessOutput{Status: StatusDuplicate, Key: key}, nil
	}

	ev := normalize(inst, upd, key)
	if ev.UpdateType == model.UpdateMessageCallback && ev.CallbackData == nil {
		uc.l.Debugf(ctx, "ingest: message_callback without callback_data, callback = %s",
			truncate(scalarString(upd["callback"]), callbackLogLimit))
	}
	uc.l.Debugf(ctx, "ingest: update received: entry_id=%s update_type=%s chat_id=%v user_id=%v group=%t",
		inst.ID, ev.UpdateType, ev.ChatID, ev.UserID, ev.IsGroupChat())

	fired, err := uc.dispatcher.MaybeEmit(ctx, inst, ev)
	if err != nil {
		return ProcessOutput{Status: StatusFired, Key: key, Event: ev}, err
	}
	if !fired {
		return ProcessOutput{Status: StatusFiltered, Key: key, Event: ev}, nil
	}
	return ProcessOutput{Status: StatusFired, Key: key, Event: ev}, nil
}

func (uc *usecase) Submit(inst model.Instance, upd model.Update) {
	ok := uc.pool.submit(func(ctx context.Context) {
		if _, err := uc.Process(ctx, inst, upd); err != nil {
			uc.l.Warnf(ctx, "ingest: failed to process update for entry %s: %v", inst.ID, err)
		}
	})
	if !ok {
		uc.l.Warnf(context.Background(), "ingest: %v, update for entry %s dropped", ErrClosed, inst.ID)
	}
}

func (uc *usecase) Close(ctx context.Context) error {
	if err := uc.pool.close(ctx); err != nil {
		return fmt.Errorf("drain ingest queue (%d pending): %w", uc.pool.pending(), err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
