package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/calc/pkg/events"
)

// SubscribeEvents opens the daemon's event stream. The returned channel is
// closed when ctx is done or the daemon goes away.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan events.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://unix/events", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("got %d when subscribing to events", resp.StatusCode)
	}

	ch := make(chan events.Event)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		var name string
		var data []string

		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			switch {
			case line == "":
				if name == "" && len(data) == 0 {
					continue
				}
				ev := events.Event{Name: name, Data: json.RawMessage(strings.Join(data, "\n"))}
				name, data = "", nil
				select {
				case ch <- ev:
				case <-ctx.Done():
					return
				}
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			}
		}
		if err := sc.Err(); err != nil && ctx.Err() == nil {
			logrus.Debugf("event stream ended: %v", err)
		}
	}()

	return ch, nil
}
