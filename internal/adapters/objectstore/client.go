// Package objectstore talks to an S3-style storage REST API (Supabase Storage layout):
// buckets under /bucket, objects under /object/{bucket}/{key}, public reads under
// /object/public/{bucket}/{key}.
package objectstore

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"travelshop/internal/adapters/observability"
)

// MaxObjectSize bounds a single upload; bodies are buffered so retries can resend them.
const MaxObjectSize = 10 << 20

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("storage base URL is required")
	}
	if key == "" {
		return nil, fmt.Errorf("storage API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 30 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrNotFound     = errors.New("objectstore: not found")
	ErrConflict     = errors.New("objectstore: already exists")
	ErrUnauthorized = errors.New("objectstore: unauthorized")
	ErrForbidden    = errors.New("objectstore: forbidden")
	ErrTooLarge     = errors.New("objectstore: object too large")
)

// ---- Public API ----

// EnsureBucket creates the bucket unless it already exists. Safe to run repeatedly.
func (c *Client) EnsureBucket(ctx context.Context, bucket string, public bool) (bool, error) {
	err := c.do(ctx, "bucket_get", http.MethodGet, c.base+"/bucket/"+url.PathEscape(bucket), "", nil, nil)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	body, _ := json.Marshal(map[string]any{"id": bucket, "name": bucket, "public": public})
	err = c.do(ctx, "bucket_create", http.MethodPost, c.base+"/bucket", "application/json", body, nil)
	if errors.Is(err, ErrConflict) {
		// created concurrently by someone else
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Upload stores body under key, replacing any existing object, and returns its public URL.
func (c *Client) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) (string, error) {
	b, err := io.ReadAll(io.LimitReader(body, MaxObjectSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload body: %w", err)
	}
	if len(b) > MaxObjectSize {
		return "", ErrTooLarge
	}
	if contentType == "" {
		contentType = http.DetectContentType(b)
	}
	path := url.PathEscape(bucket) + "/" + escapeKey(key)
	if err := c.do(ctx, "object_upload", http.MethodPost, c.base+"/object/"+path, contentType, b, nil); err != nil {
		return "", err
	}
	return c.PublicURL(bucket, key), nil
}

// Delete removes one object. A missing object is not an error.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	path := url.PathEscape(bucket) + "/" + escapeKey(key)
	err := c.do(ctx, "object_delete", http.MethodDelete, c.base+"/object/"+path, "", nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (c *Client) PublicURL(bucket, key string) string {
	return c.base + "/object/public/" + url.PathEscape(bucket) + "/" + escapeKey(key)
}

func escapeKey(key string) string {
	parts := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// ---- Internals ----

// do sends one request with client-side rate limiting and retries, decoding JSON into out when set.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) do(ctx context.Context, endpoint, method, u, contentType string, body []byte, out any) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	status := 0
	defer func() { observability.ObserveExternal("objectstore", endpoint, status, time.Since(start)) }()

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rd)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.key)
		req.Header.Set("apikey", c.key)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "travelshop/1.0")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if method == http.MethodPost && strings.Contains(u, "/object/") {
			req.Header.Set("x-upsert", "true")
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		status = resp.StatusCode

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			defer resp.Body.Close()
			if out == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			return json.NewDecoder(resp.Body).Decode(out)

		case http.StatusNoContent:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusConflict:
			resp.Body.Close()
			return ErrConflict

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// some storage servers report a missing bucket as 400 with a JSON body
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			msg := strings.TrimSpace(string(b))
			low := strings.ToLower(msg)
			switch {
			case strings.Contains(low, "not found"):
				return ErrNotFound
			case strings.Contains(low, "already exists") || strings.Contains(low, "duplicate"):
				return ErrConflict
			}
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, msg)
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
