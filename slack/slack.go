// Package slack posts meal plan summaries to a Slack webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"nutriplan"
	"nutriplan/ai"
	"nutriplan/meal"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

// PostAnalysis renders a completed meal analysis as a single message and
// posts it to channel.
func (c *Client) PostAnalysis(ctx context.Context, channel string, entries []meal.SelectedIngredient, stats nutriplan.MealStats, analysis ai.MealAnalysis) error {
	return c.PostMessage(ctx, channel, FormatAnalysis(entries, stats, analysis))
}

// FormatAnalysis builds the message body posted for a meal analysis.
func FormatAnalysis(entries []meal.SelectedIngredient, stats nutriplan.MealStats, analysis ai.MealAnalysis) string {
	var b strings.Builder

	verdict := "Needs work"
	if analysis.IsBalanced {
		verdict = "Balanced"
	}
	fmt.Fprintf(&b, "*%s* (%s)\n", analysis.RecipeSuggestion, verdict)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Quantity > 1 {
			names = append(names, fmt.Sprintf("%s x%g", e.Name, e.Quantity))
		} else {
			names = append(names, e.Name)
		}
	}
	if len(names) > 0 {
		fmt.Fprintf(&b, "Plate: %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(&b, "%.0f kcal | %.1fg protein | %.1fg carbs | %.1fg fibre\n",
		stats.TotalCalories, stats.TotalProtein, stats.TotalCarbs, stats.TotalFibre)

	if analysis.HealthNote != "" {
		fmt.Fprintf(&b, "> %s\n", analysis.HealthNote)
	}
	for _, swap := range analysis.SmartSwaps {
		fmt.Fprintf(&b, "Swap %s for %s: %s\n", swap.Remove, swap.Add, swap.Reason)
	}

	return strings.TrimRight(b.String(), "\n")
}
