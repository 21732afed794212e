package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"log-analyzer/internal/types"
)

// maxContent is Discord's message size limit
const maxContent = 2000

// Notifier delivers the alerts of one run somewhere outside the host
type Notifier interface {
	Notify(ctx context.Context, alerts []types.Alert) error
}

// DiscordNotifier posts alerts to a Discord webhook
type DiscordNotifier struct {
	webhook string
	client  *http.Client
}

// NewDiscordNotifier creates a notifier for the given webhook URL
func NewDiscordNotifier(webhook string) *DiscordNotifier {
	return &DiscordNotifier{
		webhook: webhook,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type discordMsg struct {
	Content string `json:"content"`
}

// Notify sends all alerts as a single message
func (n *DiscordNotifier) Notify(ctx context.Context, alerts []types.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	body, err := json.Marshal(discordMsg{Content: buildContent(alerts)})
	if err != nil {
		return fmt.Errorf("failed to marshal discord message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send discord alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord returned status: %s", resp.Status)
	}
	return nil
}

func buildContent(alerts []types.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Suspicious Activity Alert** (%d)\n", len(alerts))
	for i, a := range alerts {
		line := "- " + a.Line() + "\n"
		if b.Len()+len(line) > maxContent-32 {
			fmt.Fprintf(&b, "... and %d more", len(alerts)-i)
			break
		}
		b.WriteString(line)
	}
	return b.String()
}
