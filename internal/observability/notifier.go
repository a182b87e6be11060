package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Notifier sends deadline alerts to an external channel.
type Notifier interface {
	Notify(alerts []Alert) error
}

// webhookNotifier posts alerts to a generic JSON webhook, e.g. a Slack
// incoming webhook.
type webhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier creates a Notifier that posts alerts to the given
// webhook URL.
func NewWebhookNotifier(webhookURL string) Notifier {
	return &webhookNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{},
	}
}

type webhookMessage struct {
	Text string `json:"text"`
}

// Notify posts the given alerts to the configured webhook. It returns
// nil without making a request if the alerts slice is empty.
func (n *webhookNotifier) Notify(alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	body, err := json.Marshal(webhookMessage{Text: formatAlerts(alerts)})
	if err != nil {
		return fmt.Errorf("marshalling webhook message: %w", err)
	}

	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// formatAlerts renders alerts as a plain-text summary, one line each.
func formatAlerts(alerts []Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "taskdeck: %d task(s) need attention\n", len(alerts))
	for _, a := range alerts {
		marker := "!"
		if a.Severity == SeverityHigh {
			marker = "!!"
		}
		fmt.Fprintf(&b, "%s %s: %s\n", marker, a.Title, a.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}
