package invoker

import (
	"context"
	"log/slog"
	"time"
)

const (
	pingCheckInterval = time.Second
	pingLowWater      = 15 * time.Second
	pingLease         = 30 * time.Second
)

// pinger renews a claimed task's lease while its Handler runs. Every
// pingCheckInterval it checks whether the lease is already gone, in which
// case it cancels the handler's context instead of continuing, or due to
// expire within pingLowWater, in which case it extends the lease by
// another pingLease.
type pinger struct {
	guard *Guard
	log   *slog.Logger
}

func (p *pinger) run(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			if p.guard.isExpiredAt(now) {
				p.log.Warn("task lease already expired, cancelling handler", "task_id", p.guard.ID())
				cancel()
				return
			}
			if !p.guard.isExpiredAt(now.Add(pingLowWater)) {
				continue
			}
			if err := p.guard.ping(ctx, pingLease); err != nil {
				p.log.Warn("cannot ping task", "task_id", p.guard.ID(), "error", err)
				continue
			}
			p.log.Debug("pinged task", "task_id", p.guard.ID())
		}
	}
}
