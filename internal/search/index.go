package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"career-readiness/internal/common/database"
	"career-readiness/internal/common/errors"
	"career-readiness/internal/models"
	"career-readiness/internal/scoring"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Mapping is the admin search index definition.
const Mapping = `{
  "mappings": {
    "properties": {
      "id":             {"type": "keyword"},
      "userId":         {"type": "keyword"},
      "type":           {"type": "keyword"},
      "tier":           {"type": "keyword"},
      "status":         {"type": "keyword"},
      "reviewStatus":   {"type": "keyword"},
      "clerkId":        {"type": "keyword"},
      "fullName":       {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "email":          {"type": "text", "analyzer": "simple"},
      "summary":        {"type": "text"},
      "readinessLevel": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "overallScore":   {"type": "integer"},
      "createdAt":      {"type": "date"},
      "updatedAt":      {"type": "date"}
    }
  }
}`

// Document is the searchable projection of an assessment.
type Document struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Type           string    `json:"type"`
	Tier           string    `json:"tier"`
	Status         string    `json:"status"`
	ReviewStatus   string    `json:"reviewStatus,omitempty"`
	ClerkID        string    `json:"clerkId,omitempty"`
	FullName       string    `json:"fullName,omitempty"`
	Email          string    `json:"email,omitempty"`
	Summary        string    `json:"summary,omitempty"`
	ReadinessLevel string    `json:"readinessLevel,omitempty"`
	OverallScore   *int      `json:"overallScore,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func DocumentFrom(a *models.Assessment) Document {
	doc := Document{
		ID:             a.ID,
		UserID:         a.UserID,
		Type:           a.Type,
		Tier:           a.Tier,
		Status:         a.Status,
		ReviewStatus:   a.ReviewStatus,
		ClerkID:        a.ClerkID,
		Summary:        a.Data.Summary,
		ReadinessLevel: a.Data.ReadinessLevel,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if pi := a.Data.PersonalInfo; pi != nil {
		doc.FullName = pi.FullName
		doc.Email = pi.Email
	}
	if b, ok := scoring.ParseBundle(a.Data.Scores); ok {
		overall := b.OverallScore
		doc.OverallScore = &overall
	}
	return doc
}

type Index struct {
	es   *database.ElasticsearchClient
	name string
}

func NewIndex(es *database.ElasticsearchClient, name string) *Index {
	return &Index{es: es, name: name}
}

func (i *Index) Ensure(ctx context.Context) error {
	return i.es.EnsureIndex(ctx, i.name, Mapping)
}

// Upsert writes the document under the assessment id.
func (i *Index) Upsert(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.NewIndexFailedError(doc.ID, err)
	}
	client := i.es.Client
	res, err := client.Index(i.name, bytes.NewReader(body),
		client.Index.WithContext(ctx),
		client.Index.WithDocumentID(doc.ID),
	)
	if err != nil {
		return errors.NewIndexFailedError(doc.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.NewIndexFailedError(doc.ID, fmt.Errorf("%s", res.Status()))
	}
	return nil
}

// Delete removes a document; a missing document is not an error.
func (i *Index) Delete(ctx context.Context, id string) error {
	client := i.es.Client
	res, err := client.Delete(i.name, id, client.Delete.WithContext(ctx))
	if err != nil {
		return errors.NewIndexFailedError(id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return errors.NewIndexFailedError(id, fmt.Errorf("%s", res.Status()))
	}
	return nil
}

// Query is a free-text admin search with optional keyword filters.
type Query struct {
	Text    string
	Status  string
	Type    string
	Tier    string
	ClerkID string
	From    int
	Size    int
}

type Result struct {
	IDs   []string `json:"ids"`
	Total int      `json:"total"`
}

func buildQuery(q Query) map[string]interface{} {
	must := []interface{}{}
	if q.Text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"fullName^3", "email^2", "summary", "readinessLevel", "id"},
				"type":   "best_fields",
			},
		})
	}

	filter := []interface{}{}
	for field, v := range map[string]string{"status": q.Status, "type": q.Type, "tier": q.Tier, "clerkId": q.ClerkID} {
		if v != "" {
			filter = append(filter, map[string]interface{}{"term": map[string]interface{}{field: v}})
		}
	}

	size := q.Size
	if size <= 0 {
		size = 20
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must, "filter": filter},
		},
		"from":    q.From,
		"size":    size,
		"_source": []string{"id"},
		"sort":    []interface{}{"_score", map[string]interface{}{"createdAt": "desc"}},
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

func (i *Index) Search(ctx context.Context, q Query) (*Result, error) {
	body, err := json.Marshal(buildQuery(q))
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}
	req := esapi.SearchRequest{
		Index: []string{i.name},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.es.Client)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(fmt.Errorf("%s", res.Status()))
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}
	out := &Result{IDs: make([]string, 0, len(sr.Hits.Hits)), Total: sr.Hits.Total.Value}
	for _, h := range sr.Hits.Hits {
		out.IDs = append(out.IDs, h.ID)
	}
	return out, nil
}
