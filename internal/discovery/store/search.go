package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
)

// searchFields are the keyword fields of the supplier index that free-text
// search covers.
var searchFields = []string{
	"business_name",
	"short_description",
	"about",
	"location_label",
	"base_city",
	"categories",
}

// SearchIndex narrows free-text candidates with the supplier index before
// the SQL read. The pipeline still applies the exact substring filter.
type SearchIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewSearchIndex(client *elasticsearch.Client, index string) *SearchIndex {
	return &SearchIndex{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchIDs returns ids of published suppliers whose indexed fields contain
// term, case-insensitively. At most limit ids are returned.
func (s *SearchIndex) SearchIDs(ctx context.Context, term string, limit int) ([]string, error) {
	body, err := json.Marshal(buildSearchQuery(term, limit))
	if err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", s.index, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func buildSearchQuery(term string, limit int) map[string]interface{} {
	pattern := "*" + escapeWildcard(strings.ToLower(term)) + "*"
	should := make([]interface{}, 0, len(searchFields))
	for _, f := range searchFields {
		should = append(should, map[string]interface{}{
			"wildcard": map[string]interface{}{
				f: map[string]interface{}{"value": pattern, "case_insensitive": true},
			},
		})
	}
	return map[string]interface{}{
		"size":    limit,
		"_source": false,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter":               []interface{}{map[string]interface{}{"term": map[string]interface{}{"is_published": true}}},
				"should":               should,
				"minimum_should_match": 1,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"updated_at": "desc"},
			map[string]interface{}{"id": "asc"},
		},
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}
