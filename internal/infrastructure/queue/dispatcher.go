package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventix/ticketing/internal/api/metrics"
	"github.com/eventix/ticketing/internal/infrastructure/mail"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 30 * time.Second
)

var ErrQueueFull = errors.New("mail queue full")

// Dispatcher delivers mail in the background through a fixed set of workers.
// Messages are sharded by recipient so mails to one address keep their order.
// It satisfies mail.Sender, so the Mailer can use it in place of SMTP.
type Dispatcher struct {
	workers []chan mail.Message
	sender  mail.Sender
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender mail.Sender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan mail.Message, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan mail.Message, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Send enqueues msg and returns without waiting for delivery. It fails with
// ErrQueueFull when the worker's buffer stays full until ctx is done.
func (d *Dispatcher) Send(ctx context.Context, msg mail.Message) error {
	idx := d.shardIndex(msg.To)
	select {
	case d.workers[idx] <- msg:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	case <-ctx.Done():
		return ErrQueueFull
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(to)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan mail.Message) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			metrics.MailQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			err := d.sender.Send(sendCtx, msg)
			cancel()
			if err != nil {
				d.log.Error().Err(err).
					Str("to", msg.To).
					Str("subject", msg.Subject).
					Int("worker_id", id).
					Msg("mail delivery failed")
			}
		}
	}
}
