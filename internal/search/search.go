// Package search maintains and queries the denormalized profile index
// used for candidate discovery. The index is eventually consistent with
// the relational store: writes are best-effort and readers must
// tolerate a staleness window.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"

	"github.com/walk-app/walk-profile/internal/config"
	"github.com/walk-app/walk-profile/internal/db"
	errs "github.com/walk-app/walk-profile/internal/errors"
)

// Document is the search projection of a profile. Only the fields the
// candidate query touches are indexed.
type Document struct {
	UserID    string   `json:"user_id"`
	Sex       string   `json:"sex,omitempty"`
	Interests []string `json:"interests,omitempty"`
	City      string   `json:"city,omitempty"`
}

// DocumentFromUser projects a profile row into its search document.
func DocumentFromUser(user *db.User) Document {
	return Document{
		UserID:    user.UserID,
		Sex:       string(user.Sex),
		Interests: user.Interests,
		City:      user.City,
	}
}

// Index is the Elasticsearch-backed search index client.
type Index struct {
	client *elasticsearch.Client
	index  string
}

// NewIndex creates a client for the configured cluster and index.
func NewIndex(cfg *config.Config) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Elastic.URL},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Index{client: client, index: cfg.Elastic.Index}, nil
}

// UpsertProfile writes the profile's search document, creating it if
// absent. Called from the async index-sync task after profile writes.
func (i *Index) UpsertProfile(ctx context.Context, user *db.User) error {
	body, err := json.Marshal(map[string]any{
		"doc":           DocumentFromUser(user),
		"doc_as_upsert": true,
	})
	if err != nil {
		return err
	}

	res, err := i.client.Update(
		i.index,
		user.UserID,
		bytes.NewReader(body),
		i.client.Update.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", user.UserID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("upsert document %s: %s", user.UserID, res.String())
	}
	return nil
}

// FindCandidates returns ranked candidate user ids for the requester:
// same city, not the requester, boosted by shared interests.
//
// A requester without a city cannot form a valid query; that surfaces
// as ErrProfileNotCompleted so callers can tell "cannot search yet"
// from "no candidates available".
func (i *Index) FindCandidates(ctx context.Context, requester *db.User) ([]string, error) {
	if requester.City == "" {
		return nil, errs.ErrProfileNotCompleted
	}

	body, err := json.Marshal(CandidateQuery(requester))
	if err != nil {
		return nil, err
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("candidate search: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusBadRequest {
		// structurally invalid query, profile data incomplete
		return nil, errs.ErrProfileNotCompleted
	}
	if res.IsError() {
		return nil, fmt.Errorf("candidate search: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.Source.UserID)
	}
	return ids, nil
}

// CandidateQuery builds the filter+boost query body: filter on the
// requester's city, exclude the requester, boost shared interests.
func CandidateQuery(requester *db.User) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"city.keyword": requester.City}},
					map[string]any{"bool": map[string]any{
						"must_not": map[string]any{"term": map[string]any{"user_id.keyword": requester.UserID}},
					}},
				},
				"should": []any{
					map[string]any{"terms": map[string]any{"interests": requester.Interests}},
				},
				"minimum_should_match": 0,
			},
		},
	}
}
