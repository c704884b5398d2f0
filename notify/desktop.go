package notify

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"

	"olx-monitor/models"
)

// DesktopNotifier pops up a system notification for the newest offer.
type DesktopNotifier struct {
	send func(title, message, icon string) error
}

func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{send: beeep.Notify}
}

func (d *DesktopNotifier) Name() string { return "desktop" }

// DesktopMessage returns the popup title and body: the batch summary, then
// the first offer's title and link.
func DesktopMessage(items []models.NotifyItem) (title, message string) {
	first := items[0]
	return Summary(len(items)), first.Title + "\n" + first.URL
}

func (d *DesktopNotifier) Notify(_ context.Context, items []models.NotifyItem) error {
	if len(items) == 0 {
		return nil
	}
	title, message := DesktopMessage(items)
	if err := d.send(title, message, ""); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}
