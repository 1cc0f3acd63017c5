// Package client delivers submission results to caller supplied callback
// addresses
package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// SignatureHeader carries the HS256 token signing the delivered body
const SignatureHeader = "X-Judge-Signature"

// Config configures the callback client
type Config struct {
	Timeout    time.Duration // per attempt
	Retries    int           // attempts after the first
	RetryDelay time.Duration

	// SigningKey enables the signature header when not empty
	SigningKey []byte

	Logger *zap.Logger
}

// Client posts JSON payloads to callback addresses
type Client struct {
	conf   Config
	client *http.Client
	logger *zap.Logger
}

// New creates a callback client
func New(conf Config) *Client {
	logger := conf.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf.RetryDelay == 0 {
		conf.RetryDelay = 500 * time.Millisecond
	}
	return &Client{
		conf:   conf,
		client: &http.Client{Timeout: conf.Timeout},
		logger: logger,
	}
}

// StatusError is returned for non 2xx callback responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("callback responded %d: %s", e.StatusCode, e.Body)
}

// Deliver posts the payload as JSON. Network errors, 429 and 5xx responses are
// retried; other responses are final.
func (c *Client) Deliver(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	attempts := c.conf.Retries + 1
	for i := 0; ; i++ {
		err = c.post(ctx, url, body)
		if err == nil || i+1 >= attempts || !retryable(err) {
			break
		}
		c.logger.Debug("callback attempt failed", zap.String("url", url), zap.Int("attempt", i+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.conf.RetryDelay):
		}
	}
	if err != nil {
		return fmt.Errorf("deliver to %s: %w", url, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if len(c.conf.SigningKey) > 0 {
		sig, err := c.sign(body)
		if err != nil {
			return err
		}
		req.Header.Set(SignatureHeader, sig)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(msg)}
}

// sign binds the token to the body by its sha256 digest
func (c *Client) sign(body []byte) (string, error) {
	sum := sha256.Sum256(body)
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat":    jwt.NewNumericDate(now),
		"exp":    jwt.NewNumericDate(now.Add(5 * time.Minute)),
		"sha256": hex.EncodeToString(sum[:]),
	})
	s, err := token.SignedString(c.conf.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign payload: %w", err)
	}
	return s, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}
