package sitelist_test

import (
	"testing"

	"github.com/raysh454/sitesearch/internal/provider"
	"github.com/raysh454/sitesearch/internal/sitelist"
	"github.com/raysh454/sitesearch/internal/testutil"
)

func TestMatchText(t *testing.T) {
	t.Parallel()
	cases := []struct {
		query, text string
		want        bool
	}{
		{"blog", "alpha-blog", true},
		{"BLOG", "alpha-blog", true},
		{"Alpha", "ALPHA-blog", true},
		{"", "alpha-blog", true},
		{"gamma", "alpha-blog", false},
		{"blog", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		if got := sitelist.MatchText(tc.query, tc.text); got != tc.want {
			t.Errorf("MatchText(%q, %q) = %v, want %v", tc.query, tc.text, got, tc.want)
		}
	}
}

func TestMatches_Fields(t *testing.T) {
	t.Parallel()
	site := testutil.SampleSites()[0]

	for _, q := range []string{"alpha", "id-alp", "netlify.app", "personal", "github.com/acme"} {
		if !sitelist.Matches(site, q) {
			t.Errorf("expected %q to match", q)
		}
	}
	if sitelist.Matches(site, "gitlab") {
		t.Error("gitlab should not match alpha")
	}
	// admin_url is not searchable
	if sitelist.Matches(provider.Site{ID: "x", AdminURL: "https://app.netlify.com/sites/x"}, "app.netlify") {
		t.Error("admin_url must not be searched")
	}
}

func TestMatches_EmptyQueryShowsAll(t *testing.T) {
	t.Parallel()
	if !sitelist.Matches(provider.Site{}, "") {
		t.Error("empty query should match even an empty record")
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	t.Parallel()
	got := names(sitelist.Filter(testutil.SampleSites(), "netlify.app"))
	if want := []string{"alpha-blog", "Bravo-Shop", "charlie-docs"}; !equal(got, want) {
		t.Errorf("got %v want %v", got, want)
	}
	if got := sitelist.Filter(testutil.SampleSites(), "nothing-here"); len(got) != 0 {
		t.Errorf("expected no matches, got %v", names(got))
	}
}
