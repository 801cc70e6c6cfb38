package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"calendrunAPI/internal/types/challenge"
	"calendrunAPI/internal/types/club"
	"calendrunAPI/internal/types/run"
	"calendrunAPI/internal/types/template"
)

// ErrNotFound is returned for any missing record. Callers must treat it as
// a real 404, never as an empty state.
var ErrNotFound = errors.New("backend: not found")

// Client talks to the read side of the system of record. All authoritative
// state lives there; this service never caches across requests.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("backend: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend: GET %s returned %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) GetTemplate(ctx context.Context, id string) (*template.ChallengeTemplate, error) {
	tmpl := &template.ChallengeTemplate{}
	if err := c.get(ctx, "/templates/"+id, nil, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

func (c *Client) TemplateForMonth(ctx context.Context, year int, month time.Month) (*template.ChallengeTemplate, error) {
	q := url.Values{}
	q.Set("year", fmt.Sprintf("%d", year))
	q.Set("month", fmt.Sprintf("%d", int(month)))

	tmpl := &template.ChallengeTemplate{}
	if err := c.get(ctx, "/templates/current", q, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

func (c *Client) GetInstance(ctx context.Context, id string) (*challenge.Instance, error) {
	inst := &challenge.Instance{}
	if err := c.get(ctx, "/instances/"+id, nil, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// ActiveInstance finds the user's active enrollment in a template.
// ErrNotFound when there is none.
func (c *Client) ActiveInstance(ctx context.Context, userID, templateID string) (*challenge.Instance, error) {
	q := url.Values{}
	q.Set("userId", userID)
	q.Set("templateId", templateID)
	q.Set("status", "active")

	var instances []*challenge.Instance
	if err := c.get(ctx, "/instances", q, &instances); err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, ErrNotFound
	}
	return instances[0], nil
}

func (c *Client) InstancesForTemplate(ctx context.Context, templateID string) ([]*challenge.InstanceSummary, error) {
	q := url.Values{}
	q.Set("templateId", templateID)

	var summaries []*challenge.InstanceSummary
	if err := c.get(ctx, "/instances", q, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (c *Client) RunsForInstance(ctx context.Context, instanceID string) ([]*run.Performance, error) {
	q := url.Values{}
	q.Set("instanceId", instanceID)

	var runs []*run.Performance
	if err := c.get(ctx, "/runs", q, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (c *Client) ClubMembers(ctx context.Context, clubID string) ([]*club.Member, error) {
	var members []*club.Member
	if err := c.get(ctx, "/clubs/"+clubID+"/members", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) ClubByInviteToken(ctx context.Context, token string) (*club.Club, error) {
	q := url.Values{}
	q.Set("inviteToken", token)

	var clubs []*club.Club
	if err := c.get(ctx, "/clubs", q, &clubs); err != nil {
		return nil, err
	}
	if len(clubs) == 0 {
		return nil, ErrNotFound
	}
	return clubs[0], nil
}
