package provider

import "time"

// Site is a provider-hosted deployment record as returned by the REST API.
// Only the fields the dashboard reads are decoded; the API sends many more.
type Site struct {
	ID            string           `json:"id"`
	SiteID        string           `json:"site_id"`
	Name          string           `json:"name"`
	URL           string           `json:"url,omitempty"`
	SSLURL        string           `json:"ssl_url,omitempty"`
	AdminURL      string           `json:"admin_url,omitempty"`
	ScreenshotURL string           `json:"screenshot_url,omitempty"`
	AccountName   string           `json:"account_name,omitempty"`
	AccountSlug   string           `json:"account_slug,omitempty"`
	CreatedAt     *time.Time       `json:"created_at,omitempty"`
	UpdatedAt     *time.Time       `json:"updated_at,omitempty"`
	BuildSettings *BuildSettings   `json:"build_settings,omitempty"`
	Published     *PublishedDeploy `json:"published_deploy,omitempty"`
}

// BuildSettings is the repository wiring of a site.
type BuildSettings struct {
	RepoURL    string `json:"repo_url,omitempty"`
	RepoBranch string `json:"repo_branch,omitempty"`
	Cmd        string `json:"cmd,omitempty"`
	Dir        string `json:"dir,omitempty"`
}

// PublishedDeploy describes the deploy currently live for a site.
type PublishedDeploy struct {
	ID                 string     `json:"id,omitempty"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	AvailableFunctions []Function `json:"available_functions,omitempty"`
}

// Function is a serverless function bundled with a deploy.
type Function struct {
	Name   string `json:"n"`
	Digest string `json:"d,omitempty"`
	ID     string `json:"id,omitempty"`
}

// RepoURL returns the linked repository or "" when the site has none.
func (s Site) RepoURL() string {
	if s.BuildSettings == nil {
		return ""
	}
	return s.BuildSettings.RepoURL
}

// PublishedAt returns the publish time of the live deploy, or nil.
func (s Site) PublishedAt() *time.Time {
	if s.Published == nil {
		return nil
	}
	return s.Published.PublishedAt
}

// Functions returns the functions of the live deploy. Never nil.
func (s Site) Functions() []Function {
	if s.Published == nil || s.Published.AvailableFunctions == nil {
		return []Function{}
	}
	return s.Published.AvailableFunctions
}

// User is the account behind a bearer token.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
