package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"olx-monitor/models"
	"olx-monitor/utils"
)

// Discord caps message content at 2000 characters.
const discordMaxContent = 2000

type discordPayload struct {
	Content string `json:"content"`
}

// DiscordNotifier posts to a Discord channel webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	retry      *utils.RetryConfig
}

// NewDiscordNotifier creates a DiscordNotifier. A nil client gets a 10s timeout.
func NewDiscordNotifier(webhookURL string, client *http.Client, logger *utils.Logger) *DiscordNotifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &DiscordNotifier{
		webhookURL: webhookURL,
		client:     client,
		retry: &utils.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
	}
}

func (d *DiscordNotifier) Name() string { return "discord" }

// DiscordContent formats the webhook message: bold summary, then one line per
// offer.
func DiscordContent(items []models.NotifyItem) string {
	content := "**" + Summary(len(items)) + "**\n" + PlainBody(items)
	if r := []rune(content); len(r) > discordMaxContent {
		content = string(r[:discordMaxContent-3]) + "..."
	}
	return content
}

func (d *DiscordNotifier) Notify(ctx context.Context, items []models.NotifyItem) error {
	if len(items) == 0 {
		return nil
	}

	body, err := json.Marshal(discordPayload{Content: DiscordContent(items)})
	if err != nil {
		return fmt.Errorf("discord: encode: %w", err)
	}

	return d.retry.Do(ctx, "discord-webhook", func() error {
		return d.post(ctx, body)
	})
}

func (d *DiscordNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
