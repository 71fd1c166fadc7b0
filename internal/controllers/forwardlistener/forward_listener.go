package forwardlistener

import (
	"context"
	"time"

	"github.com/DIMO-Network/webhook-router/internal/queue"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds the forwards in flight when no limit is given.
const DefaultWorkers = 64

// Forwarder delivers one event body to a destination.
type Forwarder interface {
	Forward(ctx context.Context, destination string, body []byte) (int, error)
}

// ForwardListener delivers queued forward jobs. Every job is attempted once.
type ForwardListener struct {
	log       zerolog.Logger
	forwarder Forwarder
	workers   int
}

// NewForwardListener creates a ForwardListener that runs at most workers forwards at once.
func NewForwardListener(logger zerolog.Logger, forwarder Forwarder, workers int) *ForwardListener {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &ForwardListener{
		log:       logger,
		forwarder: forwarder,
		workers:   workers,
	}
}

// ProcessForwards handles messages until the channel is closed, then waits
// for the forwards still in flight. Messages are acked before their forward
// starts. Forwards run concurrently, at most l.workers at a time.
func (l *ForwardListener) ProcessForwards(messages <-chan *message.Message) {
	var group errgroup.Group
	group.SetLimit(l.workers)
	for msg := range messages {
		job, err := queue.DecodeForwardJob(msg)
		msg.Ack()
		if err != nil {
			l.log.Error().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed forward job")
			continue
		}
		ctx := msg.Context()
		group.Go(func() error {
			l.forward(ctx, job)
			return nil
		})
	}
	_ = group.Wait()
}

func (l *ForwardListener) forward(ctx context.Context, job queue.ForwardJob) {
	start := time.Now()
	status, err := l.forwarder.Forward(ctx, job.Destination, job.Body)
	if err != nil {
		l.log.Error().
			Err(err).
			Str("phone_id", job.PhoneID).
			Str("destination", job.Destination).
			Dur("elapsed", time.Since(start)).
			Msg("Error forwarding event")
		return
	}
	l.log.Info().
		Str("phone_id", job.PhoneID).
		Str("destination", job.Destination).
		Int("status", status).
		Dur("elapsed", time.Since(start)).
		Msg("Forwarded event")
}
