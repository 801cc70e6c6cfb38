package flowcore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client writes events to the Flowcore ingestion endpoint. Writes are
// at-least-once with no read-your-writes guarantee; callers that need the
// write to be visible must poll the read API afterwards.
type Client struct {
	baseURL  string
	tenant   string
	dataCore string
	apiKey   string
	http     *http.Client

	attempts int
	backoff  time.Duration
}

func NewClient(baseURL, tenant, dataCore, apiKey string) *Client {
	return &Client{
		baseURL:  baseURL,
		tenant:   tenant,
		dataCore: dataCore,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
}

type envelope struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	EmittedAt time.Time `json:"emitted_at"`
	Payload   any       `json:"payload"`
}

// EmitEvent posts one event, retrying with exponential backoff. After the
// last attempt the error is surfaced to the caller; nothing here rolls back
// state a caller may already have returned.
func (c *Client) EmitEvent(ctx context.Context, flowType, eventType string, payload any) error {
	body, err := json.Marshal(envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		EmittedAt: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("flowcore: failed to marshal %s payload: %w", eventType, err)
	}

	u := fmt.Sprintf("%s/event/%s/%s/%s/%s", c.baseURL, c.tenant, c.dataCore, flowType, eventType)

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = c.post(ctx, u, body)
		if lastErr == nil {
			return nil
		}
		log.Printf("flowcore: emit %s attempt %d/%d failed: %v", eventType, attempt+1, c.attempts, lastErr)
	}

	return fmt.Errorf("flowcore: emit %s failed after %d attempts: %w", eventType, c.attempts, lastErr)
}

func (c *Client) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	return nil
}
