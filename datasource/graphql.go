// Package datasource fetches off-chain pool and token catalogues used to
// build strategy options.
package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	repertoire "github.com/karpatkey/defi-repertoire"
)

const defaultHTTPTimeout = 15 * time.Second

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// graphqlClient posts queries to one GraphQL endpoint.
type graphqlClient struct {
	source string
	http   *http.Client
}

func newGraphQLClient(source string, httpClient *http.Client) *graphqlClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &graphqlClient{source: source, http: httpClient}
}

// query runs q against endpoint and decodes the data member into out.
// Transport, status and GraphQL-level failures are UpstreamErrors.
func (c *graphqlClient) query(ctx context.Context, endpoint, q string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: q, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal %s query: %w", c.source, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &repertoire.UpstreamError{Source: c.source, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &repertoire.UpstreamError{Source: c.source, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return &repertoire.UpstreamError{Source: c.source, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &repertoire.UpstreamError{Source: c.source, Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 256))}
	}

	var gr graphqlResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return &repertoire.UpstreamError{Source: c.source, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, len(gr.Errors))
		for i, e := range gr.Errors {
			msgs[i] = e.Message
		}
		return &repertoire.UpstreamError{Source: c.source, Err: fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))}
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return &repertoire.UpstreamError{Source: c.source, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
