package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PathstoreStore keeps documents in a pathstore-compatible hosted KV service.
// Documents live at <prefix>/<collection>/<id>.
type PathstoreStore struct {
	baseURL    string
	apiKey     string
	prefix     string
	httpClient *http.Client
}

func NewPathstoreStore(baseURL, apiKey, prefix string) *PathstoreStore {
	if prefix == "" {
		prefix = "budgetdesk"
	}
	return &PathstoreStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		prefix:  strings.Trim(prefix, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// nodeRequest is the body for PUT /kv/{key}.
type nodeRequest struct {
	Value     any    `json:"value"`
	MergeMode string `json:"merge_mode,omitempty"`
	Source    string `json:"source,omitempty"`
}

// nodeResponse is a single node from GET /kv/{key} or a prefix scan.
type nodeResponse struct {
	Key       string          `json:"key_path"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *PathstoreStore) key(collection, id string) string {
	return s.prefix + "/" + collection + "/" + url.PathEscape(id)
}

func (s *PathstoreStore) Get(ctx context.Context, collection, id string, out any) error {
	resp, err := s.do(ctx, http.MethodGet, "/kv/"+s.key(collection, id), nil)
	if err != nil {
		return fmt.Errorf("get node: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return statusError("get node", s.key(collection, id), resp)
	}

	var node nodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&node); err != nil {
		return fmt.Errorf("decode node: %w", err)
	}
	if err := json.Unmarshal(node.Value, out); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PathstoreStore) Put(ctx context.Context, collection, id string, doc any) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	return s.putNode(ctx, s.key(collection, id), nodeRequest{Value: doc, Source: "budgetdesk"})
}

func (s *PathstoreStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	return s.putNode(ctx, s.key(collection, id), nodeRequest{
		Value:     fields,
		MergeMode: "merge",
		Source:    "budgetdesk",
	})
}

func (s *PathstoreStore) putNode(ctx context.Context, key string, req nodeRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal node: %w", err)
	}
	resp, err := s.do(ctx, http.MethodPut, "/kv/"+key, body)
	if err != nil {
		return fmt.Errorf("put node: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return statusError("put node", key, resp)
	}
	return nil
}

func (s *PathstoreStore) Delete(ctx context.Context, collection, id string) error {
	key := s.key(collection, id)
	resp, err := s.do(ctx, http.MethodDelete, "/kv/"+key, nil)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError("delete node", key, resp)
	}
	return nil
}

func (s *PathstoreStore) List(ctx context.Context, collection string) ([]Record, error) {
	prefix := s.prefix + "/" + collection
	resp, err := s.do(ctx, http.MethodGet, "/kv/"+prefix+"/*?limit=10000", nil)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list children", prefix, resp)
	}

	var result struct {
		Nodes []nodeResponse `json:"nodes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode children: %w", err)
	}

	out := make([]Record, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		id, err := url.PathUnescape(lastSegment(n.Key))
		if err != nil {
			id = lastSegment(n.Key)
		}
		out = append(out, Record{ID: id, Data: n.Value, UpdatedAt: n.UpdatedAt})
	}
	sortRecords(out)
	return out, nil
}

// Close releases idle connections.
func (s *PathstoreStore) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *PathstoreStore) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	return s.httpClient.Do(req)
}

func statusError(op, key string, resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s %s: status %d: %s", op, key, resp.StatusCode, string(respBody))
}

// lastSegment returns the id part of a key path. Pathstore reports key paths
// with either "/" or "." separators.
func lastSegment(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '.' })
	if len(parts) == 0 {
		return key
	}
	return parts[len(parts)-1]
}
