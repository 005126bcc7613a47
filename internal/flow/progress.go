package flow

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pavelc4/clipnova-tg-bot/internal/extractor"
	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
)

// progressReporter renders progress snapshots into one status message.
// Post never blocks: the mailbox holds a single value and a newer snapshot
// replaces an unrendered one. One goroutine renders, so at most one edit is
// in flight per download.
type progressReporter struct {
	conv    Conversation
	msgID   int
	limiter *rate.Limiter

	slot   chan extractor.Progress
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	rendered int
	dropped  int
}

func newProgressReporter(conv Conversation, msgID int, interval time.Duration) *progressReporter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &progressReporter{
		conv:    conv,
		msgID:   msgID,
		limiter: rate.NewLimiter(limit, 1),
		slot:    make(chan extractor.Progress, 1),
	}
}

func (r *progressReporter) Post(p extractor.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	select {
	case <-r.slot:
		r.dropped++
	default:
	}
	r.slot <- p
}

// Start launches the renderer. Edits run on ctx; stopping the reporter
// does not abort an edit that is already in flight.
func (r *progressReporter) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			if err := r.limiter.Wait(runCtx); err != nil {
				return
			}
			var p extractor.Progress
			select {
			case <-runCtx.Done():
				return
			case p = <-r.slot:
			}
			if err := r.conv.ShowProgress(ctx, r.msgID, p); err != nil {
				logger.Warn("Progress update failed", "msg_id", r.msgID, "error", err)
				continue
			}
			r.rendered++
		}
	}()
}

// Stop waits for the renderer to exit. Snapshots still in the mailbox are
// dropped; the caller renders the terminal state itself.
func (r *progressReporter) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
	logger.Debug("Progress reporter stopped", "msg_id", r.msgID, "rendered", r.rendered, "dropped", r.dropped)
}
