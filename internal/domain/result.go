package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ResultKind is the type tag of a search result record
type ResultKind string

const (
	KindPost      ResultKind = "post"
	KindUser      ResultKind = "user"
	KindCommunity ResultKind = "community"
)

// Result is a search result record. The set of implementations is closed:
// PostResult, UserResult and CommunityResult.
type Result interface {
	Kind() ResultKind
	ResultID() string
	isResult()
}

// PostResult is a post matched by a search
type PostResult struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Snippet   string    `json:"snippet"`
	Author    string    `json:"author"`
	Community string    `json:"community"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
}

func (PostResult) Kind() ResultKind { return KindPost }
func (r PostResult) ResultID() string { return r.ID }
func (PostResult) isResult() {}

// UserResult is a user profile matched by a search
type UserResult struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Avatar    string `json:"avatar"`
	Verified  bool   `json:"verified"`
	Karma     int    `json:"karma"`
	Followers int    `json:"followers"`
	Posts     int    `json:"posts"`
}

func (UserResult) Kind() ResultKind { return KindUser }
func (r UserResult) ResultID() string { return r.ID }
func (UserResult) isResult() {}

// CommunityResult is a community matched by a search
type CommunityResult struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Members     int     `json:"members"`
	Posts       int     `json:"posts"`
	Growth      float64 `json:"growth"`
}

func (CommunityResult) Kind() ResultKind { return KindCommunity }
func (r CommunityResult) ResultID() string { return r.ID }
func (CommunityResult) isResult() {}

type resultTag struct {
	Type ResultKind `json:"type"`
}

// DecodeResult decodes one tagged record. ok is false for unrecognised tags,
// which callers skip.
func DecodeResult(raw json.RawMessage) (r Result, ok bool, err error) {
	var tag resultTag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, false, fmt.Errorf("failed to read result tag: %w", err)
	}

	switch tag.Type {
	case KindPost:
		var p PostResult
		err = json.Unmarshal(raw, &p)
		r = p
	case KindUser:
		var u UserResult
		err = json.Unmarshal(raw, &u)
		r = u
	case KindCommunity:
		var c CommunityResult
		err = json.Unmarshal(raw, &c)
		r = c
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode %s result: %w", tag.Type, err)
	}
	return r, true, nil
}

// DecodeResults decodes a list of tagged records, dropping unknown variants.
// skipped counts the records that were dropped.
func DecodeResults(raws []json.RawMessage) (results []Result, skipped int, err error) {
	results = make([]Result, 0, len(raws))
	for _, raw := range raws {
		r, ok, err := DecodeResult(raw)
		if err != nil {
			return nil, skipped, err
		}
		if !ok {
			skipped++
			continue
		}
		results = append(results, r)
	}
	return results, skipped, nil
}

// EncodeResult encodes a record together with its type tag
func EncodeResult(r Result) ([]byte, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(r.Kind())
	return json.Marshal(fields)
}

// ResultTitle returns the headline text used when listing a record
func ResultTitle(r Result) string {
	switch v := r.(type) {
	case PostResult:
		return v.Title
	case UserResult:
		return "@" + v.Username
	case CommunityResult:
		return v.Name
	default:
		return r.ResultID()
	}
}
