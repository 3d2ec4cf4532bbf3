package dashboard

import (
	"slices"

	"github.com/raysh454/sitesearch/internal/provider"
	"github.com/raysh454/sitesearch/internal/sitelist"
)

// State is the per-session application state behind the site table.
type State struct {
	// Sites is nil until the first fetch finishes.
	Sites      []provider.Site
	FilterText string
	Loading    bool
	SortBy     sitelist.SortKey
	SortOrder  sitelist.Order

	mounted bool
	// deleted holds ids pruned while a fetch was in flight so a stale
	// response does not bring them back.
	deleted map[string]struct{}
}

// NewState returns the initial state: nothing loaded, newest publish first.
func NewState() *State {
	return &State{
		SortBy:    sitelist.DefaultSortKey,
		SortOrder: sitelist.Desc,
	}
}

// ToggleSort selects a column and inverts the current direction. The
// direction flips even when a different column is picked.
func (s *State) ToggleSort(key sitelist.SortKey) {
	s.SortBy = key
	s.SortOrder = s.SortOrder.Invert()
}

// prune drops a site from the in-memory list.
func (s *State) prune(id string) {
	s.Sites = slices.DeleteFunc(s.Sites, func(site provider.Site) bool {
		return site.ID == id
	})
	if s.Loading {
		if s.deleted == nil {
			s.deleted = make(map[string]struct{})
		}
		s.deleted[id] = struct{}{}
	}
}

func (s *State) applyFetch(sites []provider.Site) {
	if len(s.deleted) > 0 {
		sites = slices.DeleteFunc(sites, func(site provider.Site) bool {
			_, gone := s.deleted[site.ID]
			return gone
		})
	}
	if sites == nil {
		sites = []provider.Site{}
	}
	s.Sites = sites
	s.Loading = false
	s.deleted = nil
}

func (s *State) find(id string) (provider.Site, bool) {
	i := slices.IndexFunc(s.Sites, func(site provider.Site) bool { return site.ID == id })
	if i < 0 {
		return provider.Site{}, false
	}
	return s.Sites[i], true
}

// View is an immutable snapshot of State ready for rendering.
type View struct {
	Loading    bool
	Loaded     bool
	FilterText string
	SortBy     sitelist.SortKey
	SortOrder  sitelist.Order
	Total      int
	// Rows are the sites after filtering and sorting.
	Rows []provider.Site
}

func (s *State) view() View {
	v := View{
		Loading:    s.Loading,
		Loaded:     s.Sites != nil,
		FilterText: s.FilterText,
		SortBy:     s.SortBy,
		SortOrder:  s.SortOrder,
		Total:      len(s.Sites),
	}
	if v.Loaded {
		v.Rows = sitelist.Apply(s.Sites, sitelist.Query{
			Text:   s.FilterText,
			SortBy: s.SortBy,
			Order:  s.SortOrder,
		})
	}
	return v
}

// Empty reports whether the table has nothing to show for the filter.
func (v View) Empty() bool {
	return v.Loaded && !v.Loading && len(v.Rows) == 0
}
