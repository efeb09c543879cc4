package query

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

// DefaultPageSize is the number of claims per list page
const DefaultPageSize = 10

// MaxPageSize caps the limit parameter
const MaxPageSize = 100

// ErrUnknownField is returned for filter or sort keys missing from the registry
var ErrUnknownField = errors.New("unknown query field")

var reserved = map[string]bool{
	"search":    true,
	"page":      true,
	"sortfield": true,
	"sortorder": true,
	"limit":     true,
}

// Filter is a typed match against one registered field
type Filter struct {
	Field   Field
	Text    string
	Int     int64
	Decimal float64
	Status  workflow.State
}

// Sort orders a list by one registered field
type Sort struct {
	Field      Field
	Descending bool
}

// ClaimQuery describes one list request
type ClaimQuery struct {
	Search   string
	Filters  []Filter
	Sort     Sort
	Page     int
	PageSize int

	// OwnerUserID restricts results to one owner when set
	OwnerUserID *int64
}

// New returns a query for the first page in default order
func New(pageSize int) ClaimQuery {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return ClaimQuery{
		Sort:     Sort{Field: DefaultSortField, Descending: true},
		Page:     1,
		PageSize: pageSize,
	}
}

// Parse builds a query from URL parameters. Every non-reserved parameter is a
// field filter and must name a registered field. Numeric filters whose value
// does not parse are ignored; an unknown status value is rejected.
func Parse(values url.Values, pageSize int) (ClaimQuery, error) {
	q := New(pageSize)

	q.Search = strings.TrimSpace(values.Get("search"))

	if p, err := strconv.Atoi(values.Get("page")); err == nil && p > 0 {
		q.Page = p
	}
	if l, err := strconv.Atoi(values.Get("limit")); err == nil && l > 0 {
		if l > MaxPageSize {
			l = MaxPageSize
		}
		q.PageSize = l
	}

	if key := strings.TrimSpace(values.Get("sortField")); key != "" {
		f, ok := Lookup(key)
		if !ok {
			return ClaimQuery{}, fmt.Errorf("%w: sort by %q", ErrUnknownField, key)
		}
		q.Sort.Field = f
	}
	if order := strings.ToLower(strings.TrimSpace(values.Get("sortOrder"))); order != "" {
		q.Sort.Descending = order != "asc" && order != "ascend"
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reserved[strings.ToLower(key)] {
			continue
		}
		raw := strings.TrimSpace(values.Get(key))
		if raw == "" {
			continue
		}
		f, ok := Lookup(key)
		if !ok {
			return ClaimQuery{}, fmt.Errorf("%w: filter %q", ErrUnknownField, key)
		}
		filter, ok, err := newFilter(f, raw)
		if err != nil {
			return ClaimQuery{}, err
		}
		if ok {
			q.Filters = append(q.Filters, filter)
		}
	}

	return q, nil
}

// newFilter converts a raw value. Unparseable numbers drop the filter;
// an unknown status is an error since dropping it would widen the result.
func newFilter(f Field, raw string) (Filter, bool, error) {
	filter := Filter{Field: f}
	switch f.Kind {
	case KindInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filter{}, false, nil
		}
		filter.Int = v
	case KindDecimal:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Filter{}, false, nil
		}
		filter.Decimal = v
	case KindStatus:
		s, ok := workflow.ParseState(raw)
		if !ok {
			return Filter{}, false, fmt.Errorf("%w: unknown %s %q", workflow.ErrValidation, f.Key, raw)
		}
		filter.Status = s
	default:
		filter.Text = strings.ToLower(raw)
	}
	return filter, true, nil
}

// RestrictToOwner limits the query to claims owned by the user
func (q ClaimQuery) RestrictToOwner(userID int64) ClaimQuery {
	q.OwnerUserID = &userID
	return q
}

// Offset returns the number of rows skipped before the current page
func (q ClaimQuery) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// Unpaged returns the query without pagination; used for exports
func (q ClaimQuery) Unpaged() ClaimQuery {
	q.Page = 1
	q.PageSize = 0
	return q
}
