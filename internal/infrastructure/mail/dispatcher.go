package mail

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/studioperennis/auth-api/internal/api/metrics"
	"github.com/studioperennis/auth-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// message is one queued delivery.
type message struct {
	To      string
	Subject string
	HTML    string
}

// Dispatcher routes outgoing mail to a fixed set of workers using consistent
// hashing on the recipient, keeping per-recipient delivery ordered. Each
// message is attempted exactly once; a failed send is logged and metered,
// never retried.
type Dispatcher struct {
	workers []chan message
	mailer  ports.Mailer
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan message, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan message, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a message to the worker responsible for its recipient. The
// call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(to, subject, html string) {
	d.workers[d.shardIndex(to)] <- message{To: to, Subject: subject, HTML: html}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(to))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := d.mailer.Send(ctx, msg.To, msg.Subject, msg.HTML); err != nil {
				metrics.ResetEmailsTotal.WithLabelValues("error").Inc()
				d.log.Warn().Err(err).
					Str("to", msg.To).
					Int("worker_id", id).
					Msg("email delivery failed")
				continue
			}
			metrics.ResetEmailsTotal.WithLabelValues("sent").Inc()
			d.log.Info().Str("to", msg.To).Msg("email sent")
		}
	}
}
