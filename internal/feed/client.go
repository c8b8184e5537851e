// Package feed provides access to the quote feed. The monitoring core
// depends only on the Source contract; Client below speaks a
// line-delimited JSON protocol over a plain TCP session.
package feed

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"stockmon/internal/models"
)

// SymbolKey identifies a security on the feed: exchange market code plus
// ticker code.
type SymbolKey struct {
	Market int    `json:"market"`
	Code   string `json:"code"`
}

// Source is the narrow contract the monitor needs from a quote feed.
type Source interface {
	Connect(host string, port int) error
	Fetch(keys []SymbolKey) ([]models.Quote, error)
	Disconnect()
}

// ErrNotConnected is returned by Fetch when no session is open.
var ErrNotConnected = errors.New("feed not connected")

// Client is a Source over a line-delimited JSON TCP session.
type Client struct {
	dialTimeout time.Duration
	readTimeout time.Duration

	conn net.Conn
	r    *bufio.Reader
}

// NewClient creates a disconnected client.
func NewClient(dialTimeout, readTimeout time.Duration) *Client {
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	if readTimeout <= 0 {
		readTimeout = 5 * time.Second
	}
	return &Client{
		dialTimeout: dialTimeout,
		readTimeout: readTimeout,
	}
}

type quoteRequest struct {
	Op      string      `json:"op"`
	Symbols []SymbolKey `json:"symbols"`
}

type quoteResponse struct {
	Quotes []models.Quote `json:"quotes"`
	Error  string         `json:"error,omitempty"`
}

// Connect dials the feed server. A previous session, if any, is dropped
// first.
func (c *Client) Connect(host string, port int) error {
	c.Disconnect()

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), c.dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to dial feed: %w", err)
	}
	c.conn = conn
	c.r = bufio.NewReader(conn)
	return nil
}

// Fetch requests one batch of quotes for the given symbols. Any transport
// or protocol error leaves the session in an undefined state; callers are
// expected to Disconnect and reconnect.
func (c *Client) Fetch(keys []SymbolKey) ([]models.Quote, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}

	req, err := json.Marshal(quoteRequest{Op: "quotes", Symbols: keys})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	if err := c.conn.SetDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}
	if _, err := c.conn.Write(append(req, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	line, err := c.r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp quoteResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("feed error: %s", resp.Error)
	}
	return resp.Quotes, nil
}

// Disconnect closes the session. Safe to call when not connected.
func (c *Client) Disconnect() {
	if c.conn == nil {
		return
	}
	_ = c.conn.Close()
	c.conn = nil
	c.r = nil
}
