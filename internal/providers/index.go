package providers

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/spf13/afero"

	"courier/internal/domain"
	"courier/internal/search"
)

//go:embed dataset/sample.json
var sampleDataset []byte

const maxSuggestions = 8

// LocalIndex is an in-memory full-text index over a dataset of result
// records. It serves both searches and suggestions without a network.
type LocalIndex struct {
	index   bleve.Index
	records map[string]domain.Result
	now     func() time.Time
}

// OpenLocalIndex indexes the dataset at path, or the bundled sample
// dataset when path is empty
func OpenLocalIndex(fs afero.Fs, path string) (*LocalIndex, error) {
	data := sampleDataset
	if path != "" {
		var err error
		if data, err = afero.ReadFile(fs, path); err != nil {
			return nil, fmt.Errorf("failed to read dataset: %w", err)
		}
	}

	records, err := ParseDataset(data)
	if err != nil {
		return nil, err
	}
	return NewLocalIndex(records)
}

// ParseDataset accepts either a bare array of tagged records or an object
// with a "results" array, as returned by the search API
func ParseDataset(data []byte) ([]domain.Result, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		var wrapped searchResponse
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("failed to parse dataset: %w", err)
		}
		raws = wrapped.Results
	}

	records, _, err := domain.DecodeResults(raws)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	return records, nil
}

func NewLocalIndex(records []domain.Result) (*LocalIndex, error) {
	index, err := bleve.NewMemOnly(indexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	x := &LocalIndex{
		index:   index,
		records: make(map[string]domain.Result, len(records)),
		now:     time.Now,
	}

	batch := index.NewBatch()
	for _, r := range records {
		id := string(r.Kind()) + ":" + r.ResultID()
		x.records[id] = r
		if err := batch.Index(id, toDocument(r)); err != nil {
			return nil, fmt.Errorf("failed to index %s: %w", id, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to index dataset: %w", err)
	}
	return x, nil
}

func (x *LocalIndex) Close() error {
	return x.index.Close()
}

// Len returns the number of indexed records
func (x *LocalIndex) Len() int {
	return len(x.records)
}

func (x *LocalIndex) Search(ctx context.Context, req search.Request) (domain.SearchPage, error) {
	size := req.PageSize
	if size <= 0 {
		size = 20
	}
	page := max(req.Page, 1)
	from := (page - 1) * size

	sr := bleve.NewSearchRequestOptions(x.buildQuery(req), size, from, false)
	sr.SortBy(sortOrder(req.Filters.Sort))
	sr.AddFacet("type", bleve.NewFacetRequest("kind", 3))
	sr.AddFacet("community", bleve.NewFacetRequest("community", 10))

	res, err := x.index.SearchInContext(ctx, sr)
	if err != nil {
		return domain.SearchPage{}, fmt.Errorf("local search failed: %w", err)
	}

	results := make([]domain.Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if r, ok := x.records[hit.ID]; ok {
			results = append(results, r)
		}
	}

	facets := make(map[string][]domain.FacetCount)
	for name, fr := range res.Facets {
		if fr == nil || fr.Terms == nil {
			continue
		}
		for _, t := range fr.Terms.Terms() {
			facets[name] = append(facets[name], domain.FacetCount{Value: t.Term, Count: t.Count})
		}
	}

	total := int(res.Total)
	return domain.SearchPage{
		Results: results,
		Total:   total,
		Took:    res.Took,
		Facets:  facets,
		HasMore: from+len(res.Hits) < total,
	}, nil
}

// Suggest completes the last word of text against record titles
func (x *LocalIndex) Suggest(ctx context.Context, text string) ([]string, error) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return nil, nil
	}

	conjuncts := make([]query.Query, 0, len(words))
	for _, w := range words[:len(words)-1] {
		m := bleve.NewMatchQuery(w)
		m.SetField("title")
		conjuncts = append(conjuncts, m)
	}
	prefix := bleve.NewPrefixQuery(words[len(words)-1])
	prefix.SetField("title")
	conjuncts = append(conjuncts, prefix)

	sr := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(conjuncts...), maxSuggestions*2, 0, false)
	res, err := x.index.SearchInContext(ctx, sr)
	if err != nil {
		return nil, fmt.Errorf("local suggest failed: %w", err)
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, maxSuggestions)
	for _, hit := range res.Hits {
		r, ok := x.records[hit.ID]
		if !ok {
			continue
		}
		title := titleOf(r)
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out, nil
}

func (x *LocalIndex) buildQuery(req search.Request) query.Query {
	var must []query.Query

	text := strings.ToLower(strings.TrimSpace(req.Query))
	if text == "" {
		must = append(must, bleve.NewMatchAllQuery())
	} else {
		words := strings.Fields(text)
		prefix := bleve.NewPrefixQuery(words[len(words)-1])
		prefix.SetField("title")
		must = append(must, bleve.NewDisjunctionQuery(bleve.NewMatchQuery(text), prefix))
	}

	f := req.Filters
	if kind := kindFor(f.Type); kind != "" {
		must = append(must, termQuery("kind", kind))
	}
	if f.Community != "" {
		must = append(must, termQuery("community", strings.ToLower(f.Community)))
	}
	if f.Author != "" {
		must = append(must, termQuery("author", strings.ToLower(strings.TrimPrefix(f.Author, "@"))))
	}
	if since := rangeStart(f.DateRange, x.now()); !since.IsZero() {
		// only posts carry a date, so a date range narrows to posts
		dr := bleve.NewDateRangeQuery(since, time.Time{})
		dr.SetField("created_at")
		must = append(must, dr)
	}
	if f.MinScore > 0 {
		minScore := float64(f.MinScore)
		nr := bleve.NewNumericRangeQuery(&minScore, nil)
		nr.SetField("score")
		must = append(must, nr)
	}
	if f.Verified {
		bq := bleve.NewBoolFieldQuery(true)
		bq.SetField("verified")
		must = append(must, bq)
	}

	return bleve.NewConjunctionQuery(must...)
}

func termQuery(field, value string) query.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

func kindFor(contentType string) string {
	switch contentType {
	case "posts":
		return string(domain.KindPost)
	case "users":
		return string(domain.KindUser)
	case "communities":
		return string(domain.KindCommunity)
	default:
		return ""
	}
}

func rangeStart(dateRange string, now time.Time) time.Time {
	switch dateRange {
	case "day":
		return now.AddDate(0, 0, -1)
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return now.AddDate(0, -1, 0)
	case "year":
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

func sortOrder(sort string) []string {
	switch sort {
	case "newest":
		return []string{"-created_at", "-_score"}
	case "top":
		return []string{"-score", "-_score"}
	case "comments":
		return []string{"-comments", "-_score"}
	default:
		return []string{"-_score", "_id"}
	}
}

func titleOf(r domain.Result) string {
	if u, ok := r.(domain.UserResult); ok {
		return u.Username
	}
	return domain.ResultTitle(r)
}

// toDocument flattens a record into the indexed fields. score is likes,
// karma or members depending on the kind.
func toDocument(r domain.Result) map[string]any {
	doc := map[string]any{"kind": string(r.Kind())}
	switch v := r.(type) {
	case domain.PostResult:
		doc["title"] = v.Title
		doc["body"] = v.Snippet
		doc["author"] = strings.ToLower(v.Author)
		doc["community"] = strings.ToLower(v.Community)
		doc["score"] = float64(v.Likes)
		doc["comments"] = float64(v.Comments)
		if !v.CreatedAt.IsZero() {
			doc["created_at"] = v.CreatedAt
		}
	case domain.UserResult:
		doc["title"] = v.Username
		doc["body"] = v.Bio
		doc["author"] = strings.ToLower(v.Username)
		doc["score"] = float64(v.Karma)
		doc["verified"] = v.Verified
	case domain.CommunityResult:
		doc["title"] = v.Name
		doc["body"] = v.Description
		doc["community"] = strings.ToLower(v.Name)
		doc["score"] = float64(v.Members)
	}
	return doc
}

func indexMapping() mapping.IndexMapping {
	keyword := bleve.NewKeywordFieldMapping()
	text := bleve.NewTextFieldMapping()
	numeric := bleve.NewNumericFieldMapping()
	date := bleve.NewDateTimeFieldMapping()
	boolean := bleve.NewBooleanFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false
	doc.AddFieldMappingsAt("kind", keyword)
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("body", text)
	doc.AddFieldMappingsAt("author", keyword)
	doc.AddFieldMappingsAt("community", keyword)
	doc.AddFieldMappingsAt("score", numeric)
	doc.AddFieldMappingsAt("comments", numeric)
	doc.AddFieldMappingsAt("created_at", date)
	doc.AddFieldMappingsAt("verified", boolean)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}
