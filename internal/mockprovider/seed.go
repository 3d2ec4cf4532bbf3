package mockprovider

import (
	"fmt"
	"time"

	"github.com/raysh454/sitesearch/internal/provider"
)

// seedEpoch anchors the seeded timestamps so listings are stable.
var seedEpoch = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

type seed struct {
	name      string
	team      string
	slug      string
	repo      string
	functions []string
	// ages in days before seedEpoch; zero leaves the field unset
	createdDaysAgo   int
	publishedDaysAgo int
}

var seeds = []seed{
	{name: "gatsby-starter-blog", team: "Personal", slug: "personal", repo: "https://github.com/friend/gatsby-starter-blog", functions: []string{"hello", "subscribe"}, createdDaysAgo: 400, publishedDaysAgo: 3},
	{name: "hugo-docs", team: "Docs Team", slug: "docs-team", repo: "https://github.com/docs-team/hugo-docs", createdDaysAgo: 700, publishedDaysAgo: 30},
	{name: "next-commerce", team: "Acme Corp", slug: "acme", repo: "https://gitlab.com/acme/next-commerce", functions: []string{"checkout", "webhook", "auth-start", "auth-callback"}, createdDaysAgo: 120, publishedDaysAgo: 1},
	{name: "landing-page", team: "Acme Corp", slug: "acme", createdDaysAgo: 60},
	{name: "old-portfolio", team: "Personal", slug: "personal", repo: "https://bitbucket.org/friend/old-portfolio", createdDaysAgo: 1500, publishedDaysAgo: 1400},
	{name: "Status-Page", team: "Docs Team", slug: "docs-team", functions: []string{"ping"}, publishedDaysAgo: 10},
}

// SeedSites returns the site list a fresh mock provider serves.
func SeedSites() []provider.Site {
	sites := make([]provider.Site, 0, len(seeds))
	for i, sd := range seeds {
		id := fmt.Sprintf("site-%04d", i+1)
		s := provider.Site{
			ID:            id,
			SiteID:        id,
			Name:          sd.name,
			URL:           fmt.Sprintf("http://%s.netlify.app", sd.name),
			SSLURL:        fmt.Sprintf("https://%s.netlify.app", sd.name),
			AdminURL:      fmt.Sprintf("https://app.netlify.com/sites/%s", sd.name),
			ScreenshotURL: fmt.Sprintf("https://d33wubrfki0l68.cloudfront.net/%s/screenshot.png", id),
			AccountName:   sd.team,
			AccountSlug:   sd.slug,
		}
		if sd.createdDaysAgo > 0 {
			s.CreatedAt = daysAgo(sd.createdDaysAgo)
			s.UpdatedAt = daysAgo(sd.createdDaysAgo / 2)
		}
		if sd.repo != "" {
			s.BuildSettings = &provider.BuildSettings{
				RepoURL:    sd.repo,
				RepoBranch: "main",
				Cmd:        "npm run build",
				Dir:        "public",
			}
		}
		if sd.publishedDaysAgo > 0 {
			deploy := &provider.PublishedDeploy{
				ID:          fmt.Sprintf("deploy-%04d", i+1),
				PublishedAt: daysAgo(sd.publishedDaysAgo),
			}
			for j, fn := range sd.functions {
				deploy.AvailableFunctions = append(deploy.AvailableFunctions, provider.Function{
					Name:   fn,
					ID:     fmt.Sprintf("fn-%d-%d", i+1, j+1),
					Digest: fmt.Sprintf("%040d", i*10+j),
				})
			}
			s.Published = deploy
		}
		sites = append(sites, s)
	}
	return sites
}

func daysAgo(n int) *time.Time {
	t := seedEpoch.AddDate(0, 0, -n)
	return &t
}
