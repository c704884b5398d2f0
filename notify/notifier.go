package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"olx-monitor/models"
	"olx-monitor/utils"
)

// Notifier delivers one batch of new offers to a single channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, items []models.NotifyItem) error
}

// Dispatcher fans a batch out to every configured notifier. A failing channel
// is logged and does not stop the others.
type Dispatcher struct {
	notifiers []Notifier
	logger    *utils.Logger
	pool      *utils.WorkerPool
}

// NewDispatcher creates a Dispatcher. Channels are notified concurrently.
func NewDispatcher(logger *utils.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		logger:    logger,
		pool:      utils.NewWorkerPool(len(notifiers), 0),
	}
}

// Len returns the number of configured channels.
func (d *Dispatcher) Len() int {
	return len(d.notifiers)
}

// Notify sends items to every channel and returns the joined failures. An
// empty batch sends nothing.
func (d *Dispatcher) Notify(ctx context.Context, items []models.NotifyItem) error {
	if len(items) == 0 || len(d.notifiers) == 0 {
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	for _, n := range d.notifiers {
		n := n
		d.pool.Submit(func() {
			if err := n.Notify(ctx, items); err != nil {
				d.logger.Error("[notify] %s failed: %v", n.Name(), err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
				mu.Unlock()
				return
			}
			d.logger.Info("[notify] %s: sent %d offers", n.Name(), len(items))
		})
	}
	d.pool.Wait()

	return errors.Join(errs...)
}
