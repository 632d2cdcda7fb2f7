// Package client talks to the shift production REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/render"

	"shift-production/internal/form"
	"shift-production/internal/storage"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	login   string
	pass    string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// WithBasicAuth sets the credentials sent with submissions.
func (c *Client) WithBasicAuth(login, pass string) *Client {
	c.login, c.pass = login, pass
	return c
}

// Receipt is the server's answer to a successful submission.
type Receipt struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Report  string `json:"report,omitempty"`
	Rows    int    `json:"rows,omitempty"`
}

func (c *Client) FetchTypes(ctx context.Context) ([]string, error) {
	var out []string
	err := c.get(ctx, "client.FetchTypes", "/api/types", nil, &out)
	return out, err
}

func (c *Client) FetchMachines(ctx context.Context, typeName string) ([]storage.Machine, error) {
	var out []storage.Machine
	err := c.get(ctx, "client.FetchMachines", "/api/machines", url.Values{"type": {typeName}}, &out)
	return out, err
}

func (c *Client) FetchItems(ctx context.Context, machineType string) ([]storage.Item, error) {
	var out []storage.Item
	err := c.get(ctx, "client.FetchItems", "/api/items", url.Values{"type": {machineType}}, &out)
	return out, err
}

func (c *Client) FetchDoers(ctx context.Context) ([]storage.Person, error) {
	var out []storage.Person
	err := c.get(ctx, "client.FetchDoers", "/api/doers", nil, &out)
	return out, err
}

func (c *Client) FetchSupervisors(ctx context.Context) ([]storage.Person, error) {
	var out []storage.Person
	err := c.get(ctx, "client.FetchSupervisors", "/api/supervisors", nil, &out)
	return out, err
}

// Entries reads back appended rows. report is "shift" or "daily"; empty
// dates leave the range open.
func (c *Client) Entries(ctx context.Context, report, from, to string) ([]storage.ProductionRow, error) {
	q := url.Values{}
	for k, v := range map[string]string{"report": report, "from": from, "to": to} {
		if v != "" {
			q.Set(k, v)
		}
	}

	var out []storage.ProductionRow
	err := c.get(ctx, "client.Entries", "/api/entries", q, &out)
	return out, err
}

func (c *Client) Submit(ctx context.Context, tree *form.Tree) error {
	_, err := c.SubmitEntries(ctx, tree)
	return err
}

func (c *Client) SubmitEntries(ctx context.Context, tree *form.Tree) (Receipt, error) {
	const op = "client.SubmitEntries"

	body, err := json.Marshal(tree)
	if err != nil {
		return Receipt{}, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/entries", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.login != "" {
		req.SetBasicAuth(c.login, c.pass)
	}

	var receipt Receipt
	if err := c.do(req, &receipt); err != nil {
		return Receipt{}, fmt.Errorf("%s: %w", op, err)
	}
	return receipt, nil
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := c.do(req, out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	return render.DecodeJSON(resp.Body, out)
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Message != "":
			msg = body.Message
		case body.Error != "":
			msg = body.Error
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &APIError{Status: resp.StatusCode, Message: msg}
}
