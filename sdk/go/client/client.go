// Package client is the Go SDK for the wargrid battle service: typed calls
// for every query and commit endpoint, plus a websocket subscription to the
// battle event stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wargrid/wargrid/internal/core/battle"
	"github.com/wargrid/wargrid/internal/core/geometry"
	"github.com/wargrid/wargrid/internal/server"
)

// Config holds client configuration.
type Config struct {
	// BaseURL is the server's HTTP root, e.g. "http://127.0.0.1:8080".
	BaseURL string
	// RequestTimeout bounds each HTTP call when HTTPClient is nil.
	RequestTimeout time.Duration
	// HTTPClient overrides the default client, e.g. for tests.
	HTTPClient *http.Client
	// EventBuffer is the channel capacity of Subscribe; events beyond it
	// are dropped rather than stalling the read loop.
	EventBuffer int
}

// DefaultConfig returns client defaults for a local server.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://127.0.0.1:8080",
		RequestTimeout: 10 * time.Second,
		EventBuffer:    64,
	}
}

// Client talks to one battle service.
type Client struct {
	cfg  Config
	http *http.Client
}

// New builds a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("client: empty base url")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

// State fetches the battle snapshot, digest included.
func (c *Client) State(ctx context.Context) (battle.State, error) {
	var out battle.State
	err := c.get(ctx, "/api/state", &out)
	return out, err
}

// Units lists the roster.
func (c *Client) Units(ctx context.Context) ([]battle.Unit, error) {
	var out server.UnitsOutput
	err := c.get(ctx, "/api/units", &out)
	return out.Units, err
}

// ValidateMove probes a move without committing it.
func (c *Client) ValidateMove(ctx context.Context, unit uuid.UUID, target geometry.Vec2) (battle.Result, error) {
	var out battle.Result
	err := c.post(ctx, "/api/move/validate", server.MoveInput{Unit: unit, Target: target}, &out)
	return out, err
}

// Move validates and commits a move.
func (c *Client) Move(ctx context.Context, unit uuid.UUID, target geometry.Vec2) (battle.Result, error) {
	var out battle.Result
	err := c.post(ctx, "/api/move", server.MoveInput{Unit: unit, Target: target}, &out)
	return out, err
}

// ValidateDeployment probes a deployment.
func (c *Client) ValidateDeployment(ctx context.Context, unit uuid.UUID, pos geometry.Vec2) (battle.Result, error) {
	var out battle.Result
	err := c.post(ctx, "/api/deploy/validate", server.DeployInput{Unit: unit, Position: pos}, &out)
	return out, err
}

// Deploy validates and commits a deployment.
func (c *Client) Deploy(ctx context.Context, unit uuid.UUID, pos geometry.Vec2) (battle.Result, error) {
	var out battle.Result
	err := c.post(ctx, "/api/deploy", server.DeployInput{Unit: unit, Position: pos}, &out)
	return out, err
}

// PathClear reports whether unit's straight path to dest is collision free.
func (c *Client) PathClear(ctx context.Context, unit uuid.UUID, dest geometry.Vec2) (bool, error) {
	var out server.PathOutput
	err := c.post(ctx, "/api/path-clear", server.PathInput{Unit: unit, To: dest}, &out)
	return out.Clear, err
}

// Sight reports whether from sees to, and whether other bases intervene.
func (c *Client) Sight(ctx context.Context, from, to uuid.UUID) (server.SightOutput, error) {
	var out server.SightOutput
	err := c.post(ctx, "/api/sight", server.SightInput{From: from, To: to}, &out)
	return out, err
}

// Visibility estimates the visible fraction of to's silhouette from from.
func (c *Client) Visibility(ctx context.Context, from, to uuid.UUID, samples int) (float64, error) {
	var out server.VisibilityOutput
	err := c.post(ctx, "/api/visibility", server.VisibilityInput{From: from, To: to, Samples: samples}, &out)
	return out.Fraction, err
}

// Cover reports whether unit has cover against fire along dir.
func (c *Client) Cover(ctx context.Context, unit uuid.UUID, dir geometry.Vec2) (bool, error) {
	var out server.CoverOutput
	err := c.post(ctx, "/api/cover", server.CoverInput{Unit: unit, Direction: dir}, &out)
	return out.Covered, err
}

// NearestFree asks for the closest free spot for a base of radius at pos.
func (c *Client) NearestFree(ctx context.Context, pos geometry.Vec2, radius float64) (geometry.Vec2, error) {
	var out server.NearestFreeOutput
	err := c.post(ctx, "/api/nearest-free", server.NearestFreeInput{Position: pos, Radius: radius}, &out)
	return out.Position, err
}

// Suggest ranks candidate destinations for unit, best first.
func (c *Client) Suggest(ctx context.Context, unit uuid.UUID, candidates []geometry.Vec2) (server.SuggestOutput, error) {
	var out server.SuggestOutput
	err := c.post(ctx, "/api/suggest", server.SuggestInput{Unit: unit, Candidates: candidates}, &out)
	return out, err
}

// AdvancePhase moves the battle to the next phase.
func (c *Client) AdvancePhase(ctx context.Context) (server.PhaseOutput, error) {
	var out server.PhaseOutput
	err := c.post(ctx, "/api/phase/advance", struct{}{}, &out)
	return out, err
}

// EndTurn closes the active player's turn.
func (c *Client) EndTurn(ctx context.Context) (server.PhaseOutput, error) {
	var out server.PhaseOutput
	err := c.post(ctx, "/api/turn/end", struct{}{}, &out)
	return out, err
}

// Subscribe opens the websocket event stream. The returned channel closes
// when ctx is cancelled or the connection drops. Slow consumers lose events
// rather than stalling the stream.
func (c *Client) Subscribe(ctx context.Context) (<-chan server.EventFrame, error) {
	wsURL := "ws" + strings.TrimPrefix(c.cfg.BaseURL, "http") + "/ws/events"
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", wsURL, err)
	}

	events := make(chan server.EventFrame, c.cfg.EventBuffer)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go func() {
		defer close(events)
		defer func() { _ = conn.Close() }()
		for {
			var frame server.EventFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			select {
			case events <- frame:
			default:
			}
		}
	}()
	return events, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return newAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
