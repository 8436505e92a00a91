package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FilterKey names one of the fixed search filters
type FilterKey string

const (
	FilterType      FilterKey = "type"
	FilterCommunity FilterKey = "community"
	FilterAuthor    FilterKey = "author"
	FilterDateRange FilterKey = "date_range"
	FilterSort      FilterKey = "sort"
	FilterHasMedia  FilterKey = "has_media"
	FilterMinScore  FilterKey = "min_score"
	FilterVerified  FilterKey = "verified"
)

// FilterKeys lists every filter in display order
var FilterKeys = []FilterKey{
	FilterType,
	FilterCommunity,
	FilterAuthor,
	FilterDateRange,
	FilterSort,
	FilterHasMedia,
	FilterMinScore,
	FilterVerified,
}

var (
	ErrUnknownFilter = errors.New("unknown filter")
	ErrInvalidFilter = errors.New("invalid filter value")
)

var (
	contentTypes = []string{"all", "posts", "users", "communities"}
	dateRanges   = []string{"all", "day", "week", "month", "year"}
	sortOrders   = []string{"relevance", "newest", "top", "comments"}
)

// Filters is the structured filter set of a search session
type Filters struct {
	Type      string
	Community string
	Author    string
	DateRange string
	Sort      string
	HasMedia  bool
	MinScore  int
	Verified  bool
}

// DefaultFilters returns the unconstrained filter set
func DefaultFilters() Filters {
	return Filters{
		Type:      "all",
		DateRange: "all",
		Sort:      "relevance",
	}
}

// IsDefault reports whether no filter deviates from its default value
func (f Filters) IsDefault() bool {
	return f == DefaultFilters()
}

// Set parses value and assigns it to the filter named by key
func (f *Filters) Set(key FilterKey, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case FilterType:
		return setEnum(&f.Type, key, value, contentTypes)
	case FilterCommunity:
		f.Community = value
	case FilterAuthor:
		f.Author = value
	case FilterDateRange:
		return setEnum(&f.DateRange, key, value, dateRanges)
	case FilterSort:
		return setEnum(&f.Sort, key, value, sortOrders)
	case FilterHasMedia:
		return setBool(&f.HasMedia, key, value)
	case FilterMinScore:
		if value == "" {
			f.MinScore = 0
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidFilter, key, value)
		}
		f.MinScore = n
	case FilterVerified:
		return setBool(&f.Verified, key, value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFilter, key)
	}
	return nil
}

// Get returns the string form of a single filter
func (f Filters) Get(key FilterKey) string {
	return f.Values()[key]
}

// Values returns every filter as strings, keyed by filter name
func (f Filters) Values() map[FilterKey]string {
	return map[FilterKey]string{
		FilterType:      f.Type,
		FilterCommunity: f.Community,
		FilterAuthor:    f.Author,
		FilterDateRange: f.DateRange,
		FilterSort:      f.Sort,
		FilterHasMedia:  strconv.FormatBool(f.HasMedia),
		FilterMinScore:  strconv.Itoa(f.MinScore),
		FilterVerified:  strconv.FormatBool(f.Verified),
	}
}

// Active returns only the filters that differ from their defaults
func (f Filters) Active() map[FilterKey]string {
	defaults := DefaultFilters().Values()
	active := make(map[FilterKey]string)
	for k, v := range f.Values() {
		if defaults[k] != v {
			active[k] = v
		}
	}
	return active
}

// ParseFilter splits a "key=value" expression
func ParseFilter(expr string) (FilterKey, string, error) {
	key, value, ok := strings.Cut(expr, "=")
	if !ok {
		return "", "", fmt.Errorf("%w: expected key=value, got %q", ErrInvalidFilter, expr)
	}
	return FilterKey(strings.TrimSpace(strings.ToLower(key))), value, nil
}

func setEnum(dst *string, key FilterKey, value string, allowed []string) error {
	value = strings.ToLower(value)
	if value == "" {
		value = allowed[0]
	}
	for _, a := range allowed {
		if a == value {
			*dst = value
			return nil
		}
	}
	return fmt.Errorf("%w: %s=%q (allowed: %s)", ErrInvalidFilter, key, value, strings.Join(allowed, ", "))
}

func setBool(dst *bool, key FilterKey, value string) error {
	if value == "" {
		*dst = false
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidFilter, key, value)
	}
	*dst = b
	return nil
}

// FilterChoices returns the allowed values of an enumerated or boolean
// filter, or nil for free-text filters
func FilterChoices(key FilterKey) []string {
	switch key {
	case FilterType:
		return contentTypes
	case FilterDateRange:
		return dateRanges
	case FilterSort:
		return sortOrders
	case FilterHasMedia, FilterVerified:
		return []string{"false", "true"}
	default:
		return nil
	}
}
