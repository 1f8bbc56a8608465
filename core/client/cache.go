package client

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"

	"github.com/avolkoff/microllm/providers/ai"
)

// cachedResponse is the on-disk cache payload. The continuation and prompt
// are call-scoped and never persisted.
type cachedResponse struct {
	Text string           `json:"text"`
	Raw  *ai.ChatResponse `json:"raw,omitempty"`
}

// cacheKey hashes the canonical JSON serialization of the configuration
// snapshot and the request. encoding/json sorts map keys, so logically
// identical calls produce identical keys regardless of insertion order.
func (c *Client) cacheKey(req ai.ChatRequest) (string, error) {
	payload := map[string]any{
		"config": map[string]any{
			"api_type": string(c.cfg.APIType),
			"api_base": c.cfg.APIBase,
			"model":    c.cfg.Model,
		},
		"request": map[string]any{
			"model":    req.Model,
			"messages": req.Messages,
			"args":     req.Args,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("derive cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func cachePath(prefix, key string) string {
	return path.Join("cache", prefix, key+".json")
}

func (c *Client) readCache(prefix, key string) (*Response, bool) {
	if c.store == nil {
		return nil, false
	}
	data, err := c.store.Read(cachePath(prefix, key))
	if err != nil {
		return nil, false
	}
	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		// Unreadable entries are dropped rather than served.
		_, _ = c.store.Delete(cachePath(prefix, key))
		return nil, false
	}
	return &Response{Text: cached.Text, Raw: cached.Raw, FromCache: true}, true
}

func (c *Client) writeCache(prefix, key string, resp *Response) error {
	if c.store == nil {
		return nil
	}
	data, err := json.Marshal(cachedResponse{Text: resp.Text, Raw: resp.Raw})
	if err != nil {
		return fmt.Errorf("serialize cache entry: %w", err)
	}
	return c.store.Write(cachePath(prefix, key), data)
}

func (c *Client) deleteCache(prefix, key string) {
	if c.store == nil {
		return
	}
	_, _ = c.store.Delete(cachePath(prefix, key))
}

// FlushCache removes every cached response under the given namespace
// prefix, or the whole cache when prefix is empty.
func (c *Client) FlushCache(prefix string) error {
	if c.store == nil {
		return nil
	}
	_, err := c.store.Flush(path.Join("cache", prefix))
	return err
}
