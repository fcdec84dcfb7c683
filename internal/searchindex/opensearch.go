// Package searchindex stores and queries photo label documents in an Amazon
// OpenSearch Service domain. Requests are signed with SigV4 using the
// Lambda's ambient credentials.
package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	requestsigner "github.com/opensearch-project/opensearch-go/v4/signer/awsv2"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-search/internal/photos"
)

// DefaultIndex is used when no index name is configured.
const DefaultIndex = "photos"

// signingService is the SigV4 service name for OpenSearch Service domains.
const signingService = "es"

// labelsField is the document field the match query runs against.
const labelsField = "labels"

// Client implements photos.Index.
type Client struct {
	api   *opensearchapi.Client
	index string
}

var _ photos.Index = (*Client)(nil)

// New builds a SigV4-signing client for the domain at host. A bare host name
// is addressed over HTTPS on the default port.
func New(cfg aws.Config, host, index string) (*Client, error) {
	signer, err := requestsigner.NewSignerWithService(cfg, signingService)
	if err != nil {
		return nil, fmt.Errorf("create SigV4 signer: %w", err)
	}
	api, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: []string{Endpoint(host)},
			Signer:    signer,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create OpenSearch client: %w", err)
	}
	return NewWithClient(api, index), nil
}

// NewWithClient wraps an existing API client.
func NewWithClient(api *opensearchapi.Client, index string) *Client {
	if index == "" {
		index = DefaultIndex
	}
	return &Client{api: api, index: index}
}

// Index returns the name of the index this client reads and writes.
func (c *Client) Index() string { return c.index }

// Endpoint turns a configured host into a base URL.
func Endpoint(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

// Upsert writes rec with its object key as the document id, replacing any
// existing document for that key.
func (c *Client) Upsert(ctx context.Context, rec photos.ImageRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	resp, err := c.api.Index(ctx, opensearchapi.IndexReq{
		Index:      c.index,
		DocumentID: rec.ObjectKey,
		Body:       bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("OpenSearch index %s/%s: %w", c.index, rec.ObjectKey, err)
	}
	log.Debug().
		Str("index", c.index).
		Str("id", resp.ID).
		Str("result", resp.Result).
		Msg("Document indexed")
	return nil
}

// MatchQuery builds the bool/must/match query body for a label search.
func MatchQuery(text string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"match": map[string]interface{}{labelsField: text},
					},
				},
			},
		},
	}
}

// MatchLabels runs a match query over the labels field. Hits are returned in
// the index's ranking order.
func (c *Client) MatchLabels(ctx context.Context, query string) ([]photos.ImageRecord, error) {
	body, err := json.Marshal(MatchQuery(query))
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}
	resp, err := c.api.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{c.index},
		Body:    bytes.NewReader(body),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenSearch search %s: %w", c.index, err)
	}

	records := make([]photos.ImageRecord, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var rec photos.ImageRecord
		if err := json.Unmarshal(hit.Source, &rec); err != nil {
			return nil, fmt.Errorf("decode hit %s: %w", hit.ID, err)
		}
		records = append(records, rec)
	}
	log.Debug().
		Str("index", c.index).
		Int("hits", len(records)).
		Msg("Label search complete")
	return records, nil
}
