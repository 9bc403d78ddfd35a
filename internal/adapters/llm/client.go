// Package llm is a small OpenAI-compatible client used for two things:
// sentence embeddings backing the similarity engine, and a chat fallback
// that rescues URLs the deterministic cleaner gives up on.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	perr "scamwatch/internal/platform/errors"
	"scamwatch/internal/platform/logger"
)

const (
	baseURLDefault   = "https://api.openai.com/v1"
	defaultTimeout   = 30 * time.Second
	defaultMaxRetry  = 3
	defaultRetryBase = 500 * time.Millisecond

	defaultEmbedModel = "text-embedding-3-small"
	defaultChatModel  = "gpt-4o-mini"
)

// Options configures the Client
type Options struct {
	BaseURL    string
	EmbedModel string
	ChatModel  string
	Timeout    time.Duration

	// Comma separated API keys rotated round robin. Empty means
	// unauthenticated, which only works against local gateways
	KeysCSV string

	MaxRetries int
	RetryBase  time.Duration
}

// Client talks to an OpenAI-compatible endpoint with key rotation and
// retries on transient failures
type Client struct {
	http  *http.Client
	opts  Options
	keys  []string
	cur   atomic.Int32
	log   logger.Logger
	sleep func(time.Duration)
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.EmbedModel == "" {
		o.EmbedModel = defaultEmbedModel
	}
	if o.ChatModel == "" {
		o.ChatModel = defaultChatModel
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	var keys []string
	for _, k := range strings.Split(o.KeysCSV, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keys = append(keys, k)
		}
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		keys:  keys,
		log:   *logger.Named("llm"),
		sleep: time.Sleep,
	}
}

// getKey returns the next key in a round robin rotation
func (c *Client) getKey() string {
	n := int(c.cur.Add(1))
	if len(c.keys) == 0 {
		return ""
	}
	return c.keys[n%len(c.keys)]
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one embedding vector per input text, in input order
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(embedRequest{Model: c.opts.EmbedModel, Input: texts})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "llm marshal embed request failed")
	}

	var er embedResponse
	if err := c.post(ctx, "/embeddings", body, &er); err != nil {
		return nil, err
	}
	if len(er.Data) != len(texts) {
		return nil, perr.Newf(perr.ErrorCodeExternal, "llm embeddings count mismatch got %d want %d", len(er.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range er.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, perr.Newf(perr.ErrorCodeExternal, "llm embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const cleanURLPrompt = `Task: Clean and normalize the following URL by:
1. Removing any credentials (usernames, passwords, @ symbols)
2. Ensuring proper scheme (https://)
3. Preserving the core domain and path

URL: %s

Output ONLY the cleaned URL with no additional text or explanations.`

// CleanURL asks the chat model to repair a URL that defeated the
// deterministic cleaner. Callers must re-validate the answer; model
// output is never trusted as-is
func (c *Client) CleanURL(ctx context.Context, raw string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.opts.ChatModel,
		Messages: []chatMessage{
			{Role: "user", Content: strings.Replace(cleanURLPrompt, "%s", raw, 1)},
		},
	})
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "llm marshal chat request failed")
	}

	var cr chatResponse
	if err := c.post(ctx, "/chat/completions", body, &cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", perr.Newf(perr.ErrorCodeExternal, "llm chat returned no choices")
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

// post issues a JSON request with auth, retries, and backoff, decoding
// a 2xx body into out
func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	url := c.opts.BaseURL + path
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnknown, "llm new request failed")
		}
		req.Header.Set("Content-Type", "application/json")
		if k := c.getKey(); k != "" {
			req.Header.Set("Authorization", "Bearer "+k)
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		lat := time.Since(start)

		if err != nil {
			if !c.shouldRetry(attempts) {
				return perr.Wrapf(err, perr.ErrorCodeUnavailable, "llm do failed")
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("llm transport error retrying")
			c.sleep(back)
			attempts++
			continue
		}

		c.log.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Msg("llm http response")

		switch {
		case resp.StatusCode == http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return perr.Wrapf(err, perr.ErrorCodeExternal, "llm decode response failed")
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			if !c.shouldRetry(attempts) {
				return perr.Newf(perr.ErrorCodeTooManyRequests, "llm rate limited")
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Msg("llm rate limited backing off")
			c.sleep(back)
			attempts++
			continue
		case resp.StatusCode >= 500:
			resp.Body.Close()
			if !c.shouldRetry(attempts) {
				return perr.Newf(perr.ErrorCodeUnavailable, "llm transient server error")
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("llm transient error retrying")
			c.sleep(back)
			attempts++
			continue
		default:
			tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			return perr.Newf(perr.ErrorCodeExternal, "llm unexpected status %d body %s", resp.StatusCode, string(tail))
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	ms := int64(c.opts.RetryBase / time.Millisecond)
	ms = ms << uint(attempt)
	if max := int64(10 * time.Second / time.Millisecond); ms > max {
		ms = max
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}
