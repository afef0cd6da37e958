// Package qdrant is a minimal REST client to Qdrant implementing the
// vectorstore.Store capability. One collection per namespace isolates
// tenants; collections are created lazily on first upsert with cosine
// distance.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"documet/internal/vectorstore"
)

const scrollPageSize = 1000

type Client struct {
	baseURL string
	apiKey  string
	prefix  string
	client  *http.Client

	mu      sync.Mutex
	created map[string]bool
}

type Config struct {
	BaseURL          string
	APIKey           string
	CollectionPrefix string
	Timeout          time.Duration
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	prefix := cfg.CollectionPrefix
	if prefix == "" {
		prefix = "documet"
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		prefix:  prefix,
		client:  &http.Client{Timeout: timeout},
		created: make(map[string]bool),
	}
}

// Ping checks the Qdrant readiness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/readyz", nil)
	if err != nil {
		return err
	}
	c.auth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ping failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant ping status %s", resp.Status)
	}
	return nil
}

func (c *Client) Upsert(ctx context.Context, namespace string, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	collection := c.collection(namespace)
	if err := c.ensureCollection(ctx, collection, len(records[0].Vector)); err != nil {
		return err
	}

	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":     r.ID,
			"vector": r.Vector,
			"payload": map[string]any{
				"document_id":   r.Metadata.DocumentID,
				"subsection_id": r.Metadata.SubsectionID,
				"section_name":  r.Metadata.SectionName,
				"title":         r.Metadata.Title,
				"text":          r.Metadata.Text,
				"chunk_index":   r.Metadata.ChunkIndex,
			},
		}
	}
	body := map[string]any{"points": points}
	return c.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, collection), body)
}

func (c *Client) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]vectorstore.Match, error) {
	if topK <= 0 {
		topK = 10
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection(namespace))
	if err := c.postJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, vectorstore.Match{
			ID:       fmt.Sprint(r.ID),
			Score:    r.Score,
			Metadata: decodePayload(r.Payload),
		})
	}
	return matches, nil
}

// IDsByDocument scrolls the collection for all point ids tagged with the
// document id. Used by deletion and reconciliation.
func (c *Client) IDsByDocument(ctx context.Context, namespace string, documentID uint) ([]string, error) {
	var (
		ids    []string
		offset any
	)
	url := fmt.Sprintf("%s/collections/%s/points/scroll", c.baseURL, c.collection(namespace))
	for {
		req := map[string]any{
			"filter": map[string]any{
				"must": []map[string]any{
					{"key": "document_id", "match": map[string]any{"value": documentID}},
				},
			},
			"limit":        scrollPageSize,
			"with_payload": false,
			"with_vector":  false,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					ID any `json:"id"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := c.postJSON(ctx, url, req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			ids = append(ids, fmt.Sprint(p.ID))
		}
		if resp.Result.NextPageOffset == nil {
			return ids, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func (c *Client) DeleteByIDs(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	body := map[string]any{"points": ids}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.baseURL, c.collection(namespace))
	return c.postJSON(ctx, url, body, nil)
}

func (c *Client) collection(namespace string) string {
	return c.prefix + "_" + namespace
}

func (c *Client) ensureCollection(ctx context.Context, collection string, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid vector dimension")
	}
	c.mu.Lock()
	done := c.created[collection]
	c.mu.Unlock()
	if done {
		return nil
	}

	// Qdrant returns OK when the collection already exists with the same
	// schema, so the create is safe to repeat.
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := c.putJSON(ctx, fmt.Sprintf("%s/collections/%s", c.baseURL, collection), body); err != nil {
		return err
	}
	c.mu.Lock()
	c.created[collection] = true
	c.mu.Unlock()
	return nil
}

func decodePayload(payload map[string]any) vectorstore.Metadata {
	md := vectorstore.Metadata{}
	if v, ok := payload["document_id"].(float64); ok {
		md.DocumentID = uint(v)
	}
	if v, ok := payload["subsection_id"].(float64); ok {
		md.SubsectionID = uint(v)
	}
	if v, ok := payload["section_name"].(string); ok {
		md.SectionName = v
	}
	if v, ok := payload["title"].(string); ok {
		md.Title = v
	}
	if v, ok := payload["text"].(string); ok {
		md.Text = v
	}
	if v, ok := payload["chunk_index"].(float64); ok {
		md.ChunkIndex = int(v)
	}
	return md
}

func (c *Client) auth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
}

func (c *Client) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal qdrant request failed: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant PUT failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal qdrant request failed: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant POST failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
