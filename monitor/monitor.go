package monitor

import (
	"context"
	"time"

	"olx-monitor/models"
	"olx-monitor/notify"
	"olx-monitor/scraper"
	"olx-monitor/services"
	"olx-monitor/storage"
	"olx-monitor/utils"
)

// Notifier is the delivery side of a cycle; notify.Dispatcher satisfies it.
type Notifier interface {
	Notify(ctx context.Context, items []models.NotifyItem) error
}

// Monitor owns the tracker state of one target URL and drives scan cycles
// against it. RunOnce and Run must not be called concurrently.
type Monitor struct {
	targetURL  string
	extractor  scraper.Extractor
	controller *services.Controller
	logger     *utils.Logger

	display   *services.Display
	insights  *services.InsightService
	snapshots storage.SnapshotSaver
	rawWriter storage.RawCandidateWriter
	archive   storage.OfferWriter
	notifier  Notifier

	state  services.TrackerState
	passes int
}

// New creates a Monitor with empty tracker state and no output sinks.
func New(targetURL string, extractor scraper.Extractor, controller *services.Controller, logger *utils.Logger) *Monitor {
	return &Monitor{
		targetURL:  targetURL,
		extractor:  extractor,
		controller: controller,
		logger:     logger,
		state:      services.NewTrackerState(),
	}
}

// WithDisplay prints each batch and its insights.
func (m *Monitor) WithDisplay(d *services.Display, insights *services.InsightService) *Monitor {
	m.display = d
	m.insights = insights
	return m
}

// WithSnapshots saves each batch to its own JSON file.
func (m *Monitor) WithSnapshots(s storage.SnapshotSaver) *Monitor {
	m.snapshots = s
	return m
}

// WithRawWriter records every extracted candidate before validation.
func (m *Monitor) WithRawWriter(w storage.RawCandidateWriter) *Monitor {
	m.rawWriter = w
	return m
}

// WithArchive stores new offers in a database.
func (m *Monitor) WithArchive(w storage.OfferWriter) *Monitor {
	m.archive = w
	return m
}

// WithNotifier announces new offers found after the initial pass.
func (m *Monitor) WithNotifier(n Notifier) *Monitor {
	m.notifier = n
	return m
}

// State returns the committed tracker state.
func (m *Monitor) State() services.TrackerState {
	return m.state
}

// Passes returns how many cycles have committed state.
func (m *Monitor) Passes() int {
	return m.passes
}

// Run performs a pass immediately and then one per interval until ctx is
// done. A failed pass is logged and the next tick tries again.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) error {
	m.logger.Info("[monitor] Watching %s every %v", m.targetURL, interval)

	_, _ = m.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("[monitor] Stopping after %d passes, %d offers seen", m.passes, m.state.Len())
			return nil
		case <-ticker.C:
			_, _ = m.RunOnce(ctx)
		}
	}
}

// RunOnce performs one scan cycle. Tracker state is committed before any
// output is written, so a failing sink or notifier never causes offers to be
// reported twice. Only an extraction failure is returned.
func (m *Monitor) RunOnce(ctx context.Context) (services.CycleResult, error) {
	raw, err := m.extractor.Extract(ctx, m.targetURL)
	if err != nil {
		m.logger.Error("[monitor] Extraction failed, will retry next cycle: %v", err)
		return services.CycleResult{State: m.state}, err
	}

	if m.rawWriter != nil && len(raw) > 0 {
		if err := m.rawWriter.WriteRaw(raw); err != nil {
			m.logger.Warn("[storage] Raw CSV write failed: %v", err)
		}
	}

	result := m.controller.RunCycle(raw, m.state)

	m.state = result.State
	m.passes++
	initial := m.passes == 1

	if result.Empty {
		return result, nil
	}
	if len(result.NewOffers) == 0 {
		m.logger.Info("[monitor] No new offers")
		return result, nil
	}

	m.show(result.NewOffers)
	m.persist(ctx, result.NewOffers, initial)

	if initial {
		m.logger.Info("[monitor] Initial pass: %d offers recorded", len(result.NewOffers))
		return result, nil
	}

	m.logger.Info("[monitor] %s", notify.Summary(len(result.NewOffers)))
	if m.notifier != nil {
		if err := m.notifier.Notify(ctx, notify.Items(result.NewOffers)); err != nil {
			m.logger.Warn("[notify] Delivery incomplete: %v", err)
		}
	}
	return result, nil
}

func (m *Monitor) show(offers []models.Offer) {
	if m.display == nil {
		return
	}
	m.display.PrintOffers(offers)
	if m.insights != nil {
		m.display.PrintInsights(m.insights.Generate(offers))
	}
}

func (m *Monitor) persist(ctx context.Context, offers []models.Offer, initial bool) {
	if m.snapshots != nil {
		prefix := storage.PrefixNew
		if initial {
			prefix = storage.PrefixInitial
		}
		path, err := m.snapshots.Save(offers, prefix)
		if err != nil {
			m.logger.Warn("[storage] Snapshot failed: %v", err)
		} else {
			m.logger.Info("[storage] Saved %d offers to %s", len(offers), path)
		}
	}

	if m.archive != nil {
		if err := m.archive.Write(ctx, offers); err != nil {
			m.logger.Warn("[storage] Archive write failed: %v", err)
		}
	}
}
