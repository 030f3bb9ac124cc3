package pterodactyl

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nduyhai/placement/internal/allocation"
	"github.com/nduyhai/placement/internal/node"
	"resty.dev/v3"
)

const allocationsPerPage = 100

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retries int
}

// Client talks to the panel's application API.
type Client struct {
	http *resty.Client
}

func NewClient(cfg Config) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries)
	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: c}
}

func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) GetNode(ctx context.Context, id int) (node.Node, error) {
	var out nodeResource
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(id)).
		SetResult(&out).
		Get("/api/application/nodes/{id}")
	if err != nil {
		return node.Node{}, fmt.Errorf("get node %d: %w", id, err)
	}
	if resp.IsError() {
		return node.Node{}, newAPIError(resp.StatusCode(), resp.String())
	}
	return out.toNode()
}

// ListAllocations reads every page of a node's allocations in panel order.
func (c *Client) ListAllocations(ctx context.Context, nodeID int) ([]allocation.Allocation, error) {
	var all []allocation.Allocation
	for page := 1; ; page++ {
		var out allocationList
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("id", strconv.Itoa(nodeID)).
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("per_page", strconv.Itoa(allocationsPerPage)).
			SetResult(&out).
			Get("/api/application/nodes/{id}/allocations")
		if err != nil {
			return nil, fmt.Errorf("list allocations for node %d: %w", nodeID, err)
		}
		if resp.IsError() {
			return nil, newAPIError(resp.StatusCode(), resp.String())
		}
		if out.Object != "list" {
			return nil, fmt.Errorf("%w: allocations page %d for node %d is not a list", ErrMalformed, page, nodeID)
		}

		for _, r := range out.Data {
			a, err := r.toAllocation(nodeID)
			if err != nil {
				return nil, err
			}
			all = append(all, a)
		}

		if len(out.Data) == 0 || page >= out.Meta.Pagination.TotalPages {
			return all, nil
		}
	}
}

// APIError is a non-2xx answer from the panel.
type APIError struct {
	StatusCode int
	Body       string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("panel returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("panel returned %d", e.StatusCode)
}

func newAPIError(status int, body string) *APIError {
	e := &APIError{StatusCode: status, Body: body}

	var payload struct {
		Errors []struct {
			Code   string `json:"code"`
			Status string `json:"status"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil && len(payload.Errors) > 0 {
		e.Detail = payload.Errors[0].Detail
	}
	return e
}
