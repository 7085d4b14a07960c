package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	perrors "github.com/julianstephens/skillpulse/internal/errors"
	"github.com/julianstephens/skillpulse/internal/engine"
	"github.com/julianstephens/skillpulse/internal/models"
)

// Client talks to a running daemon. It implements engine.Caller.
type Client struct {
	base string
	http *http.Client
}

// wireResponse keeps the result raw until the caller picks a type.
type wireResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
}

func NewClient(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Ping reports whether a daemon answers at the client's address.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon health check returned %s", resp.Status)
	}
	return nil
}

func (c *Client) Call(ctx context.Context, cmdType string, payload, out any) error {
	req, err := engine.NewRequest(cmdType, payload)
	if err != nil {
		return perrors.Wrap(perrors.CodeValidation, err, "invalid payload")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return perrors.Wrap(perrors.CodeInternal, err, "encode request")
	}
	return c.do(ctx, http.MethodPost, "/api/command", body, out)
}

func (c *Client) Achievements(ctx context.Context) ([]models.Achievement, error) {
	var out []models.Achievement
	if err := c.do(ctx, http.MethodGet, "/api/achievements", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Badge(ctx context.Context) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/badge", nil, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
	if err != nil {
		return perrors.Wrap(perrors.CodeInternal, err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return perrors.Wrap(perrors.CodeInternal, err, "daemon unreachable")
	}
	defer resp.Body.Close()

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return perrors.Wrap(perrors.CodeInternal, err, fmt.Sprintf("bad response (%s)", resp.Status))
	}
	if !wire.OK {
		code := perrors.Code(wire.Code)
		if code == "" {
			code = perrors.CodeInternal
		}
		return perrors.New(code, wire.Error)
	}
	if out == nil || len(wire.Result) == 0 {
		return nil
	}
	return engine.DecodeResult(wire.Result, out)
}
