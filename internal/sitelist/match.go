package sitelist

import (
	"strings"

	"github.com/samber/lo"

	"github.com/raysh454/sitesearch/internal/provider"
)

// MatchText reports whether query is a case-insensitive substring of text.
// An undefined (empty) text never matches.
func MatchText(query, text string) bool {
	if text == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(query))
}

// Matches reports whether a site should be shown for the search box value.
// An empty query shows everything.
func Matches(site provider.Site, query string) bool {
	if query == "" {
		return true
	}
	return lo.SomeBy(searchFields(site), func(field string) bool {
		return MatchText(query, field)
	})
}

func searchFields(site provider.Site) []string {
	return []string{
		site.Name,
		site.SiteID,
		site.SSLURL,
		site.AccountName,
		site.RepoURL(),
	}
}

// Filter returns the sites matching query, preserving order.
func Filter(sites []provider.Site, query string) []provider.Site {
	return lo.Filter(sites, func(s provider.Site, _ int) bool {
		return Matches(s, query)
	})
}
