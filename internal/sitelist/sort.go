// Package sitelist holds the pure sort and filter helpers behind the site
// table. Every comparator is a total order: records missing the sort key go
// last in both directions and ties fall back to the site id.
package sitelist

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/raysh454/sitesearch/internal/provider"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder maps user input onto an Order. Anything but "asc" is Desc.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), string(Asc)) {
		return Asc
	}
	return Desc
}

// Invert flips the direction.
func (o Order) Invert() Order {
	if o == Desc {
		return Asc
	}
	return Desc
}

type SortKey string

const (
	SortName        SortKey = "name"
	SortAccountName SortKey = "account_name"
	SortPublishedAt SortKey = "published_at"
	SortUpdatedAt   SortKey = "updated_at"
	SortCreatedAt   SortKey = "created_at"
	SortFunctions   SortKey = "functions"
	SortRepo        SortKey = "repo"
)

// DefaultSortKey is the column the table opens on.
const DefaultSortKey = SortPublishedAt

var sortKeys = []SortKey{
	SortName, SortAccountName, SortPublishedAt, SortUpdatedAt,
	SortCreatedAt, SortFunctions, SortRepo,
}

// ParseSortKey validates a column name.
func ParseSortKey(s string) (SortKey, bool) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(sortKeys, k) {
		return k, true
	}
	return DefaultSortKey, false
}

// Comparator orders two sites the way slices.SortFunc expects.
type Comparator func(a, b provider.Site) int

// For returns the comparator for a column. Unknown keys sort by publish date.
func For(key SortKey, order Order) Comparator {
	switch key {
	case SortName, SortAccountName:
		return ByName(key, order)
	case SortUpdatedAt, SortCreatedAt:
		return ByDate(key, order)
	case SortFunctions:
		return ByFunctions(order)
	case SortRepo:
		return ByRepo(order)
	default:
		return ByPublishDate(order)
	}
}

// ByName compares a text field case-insensitively. field is SortName or
// SortAccountName; anything else compares names.
func ByName(field SortKey, order Order) Comparator {
	get := func(s provider.Site) string { return s.Name }
	if field == SortAccountName {
		get = func(s provider.Site) string { return s.AccountName }
	}
	return func(a, b provider.Site) int {
		return withTiebreak(a, b, compareStrings(get(a), get(b), order))
	}
}

// ByDate compares created_at or updated_at.
func ByDate(field SortKey, order Order) Comparator {
	get := func(s provider.Site) *time.Time { return s.CreatedAt }
	if field == SortUpdatedAt {
		get = func(s provider.Site) *time.Time { return s.UpdatedAt }
	}
	return func(a, b provider.Site) int {
		return withTiebreak(a, b, compareTimes(get(a), get(b), order))
	}
}

// ByPublishDate compares the publish time of the live deploy.
func ByPublishDate(order Order) Comparator {
	return func(a, b provider.Site) int {
		return withTiebreak(a, b, compareTimes(a.PublishedAt(), b.PublishedAt(), order))
	}
}

// ByFunctions compares the number of deployed functions. A site without a
// published deploy counts as zero functions.
func ByFunctions(order Order) Comparator {
	return func(a, b provider.Site) int {
		c := cmp.Compare(len(a.Functions()), len(b.Functions()))
		if order == Desc {
			c = -c
		}
		return withTiebreak(a, b, c)
	}
}

// ByRepo compares linked repository URLs.
func ByRepo(order Order) Comparator {
	return func(a, b provider.Site) int {
		return withTiebreak(a, b, compareStrings(a.RepoURL(), b.RepoURL(), order))
	}
}

// Sort returns a sorted copy of sites.
func Sort(sites []provider.Site, key SortKey, order Order) []provider.Site {
	out := slices.Clone(sites)
	slices.SortStableFunc(out, For(key, order))
	return out
}

// Query is what the table is currently showing.
type Query struct {
	Text   string  `json:"text"`
	SortBy SortKey `json:"sort_by"`
	Order  Order   `json:"order"`
}

// Apply filters and sorts sites for display. The input is not modified.
func Apply(sites []provider.Site, q Query) []provider.Site {
	return Sort(Filter(sites, q.Text), q.SortBy, q.Order)
}

// compareStrings puts empty values last regardless of order.
func compareStrings(a, b string, order Order) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	c := cmp.Compare(strings.ToLower(a), strings.ToLower(b))
	if c == 0 {
		c = cmp.Compare(a, b)
	}
	if order == Desc {
		return -c
	}
	return c
}

// compareTimes puts nil or zero timestamps last regardless of order.
func compareTimes(a, b *time.Time, order Order) int {
	aMissing := a == nil || a.IsZero()
	bMissing := b == nil || b.IsZero()
	switch {
	case aMissing && bMissing:
		return 0
	case aMissing:
		return 1
	case bMissing:
		return -1
	}
	c := a.Compare(*b)
	if order == Desc {
		return -c
	}
	return c
}

func withTiebreak(a, b provider.Site, c int) int {
	if c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
