package search_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walk-app/walk-profile/internal/db"
	"github.com/walk-app/walk-profile/internal/search"
)

func TestDocumentFromUser(t *testing.T) {
	user := &db.User{
		UserID:    "user-a",
		Name:      "Alice",
		Sex:       db.SexFemale,
		City:      "London",
		Interests: []string{"running", "chess"},
	}

	doc := search.DocumentFromUser(user)
	assert.Equal(t, "user-a", doc.UserID)
	assert.Equal(t, "F", doc.Sex)
	assert.Equal(t, "London", doc.City)
	assert.Equal(t, []string{"running", "chess"}, doc.Interests)
}

func TestDocumentOmitsEmptyFields(t *testing.T) {
	doc := search.DocumentFromUser(&db.User{UserID: "user-a"})

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":"user-a"}`, string(data))
}

func TestCandidateQueryShape(t *testing.T) {
	requester := &db.User{
		UserID:    "user-a",
		City:      "London",
		Interests: []string{"running"},
	}

	data, err := json.Marshal(search.CandidateQuery(requester))
	require.NoError(t, err)

	var query struct {
		Query struct {
			Bool struct {
				Filter []map[string]any `json:"filter"`
				Should []struct {
					Terms map[string][]string `json:"terms"`
				} `json:"should"`
				MinimumShouldMatch int `json:"minimum_should_match"`
			} `json:"bool"`
		} `json:"query"`
	}
	require.NoError(t, json.Unmarshal(data, &query))

	// same-city filter with the requester excluded
	require.Len(t, query.Query.Bool.Filter, 2)
	cityTerm := query.Query.Bool.Filter[0]["term"].(map[string]any)
	assert.Equal(t, "London", cityTerm["city.keyword"])

	exclude := query.Query.Bool.Filter[1]["bool"].(map[string]any)
	mustNot := exclude["must_not"].(map[string]any)["term"].(map[string]any)
	assert.Equal(t, "user-a", mustNot["user_id.keyword"])

	// shared interests boost ranking but never gate results
	require.Len(t, query.Query.Bool.Should, 1)
	assert.Equal(t, []string{"running"}, query.Query.Bool.Should[0].Terms["interests"])
	assert.Equal(t, 0, query.Query.Bool.MinimumShouldMatch)
}
