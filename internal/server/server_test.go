package server_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/sitesearch/internal/auth"
	"github.com/raysh454/sitesearch/internal/dashboard"
	"github.com/raysh454/sitesearch/internal/mockprovider"
	"github.com/raysh454/sitesearch/internal/provider"
	"github.com/raysh454/sitesearch/internal/server"
	"github.com/raysh454/sitesearch/internal/store"
	"github.com/raysh454/sitesearch/internal/testutil"
	"github.com/raysh454/sitesearch/internal/view"
	"github.com/raysh454/sitesearch/internal/webclient"
)

type harness struct {
	app   *httptest.Server
	mock  *mockprovider.Server
	dash  *dashboard.Manager
	store *store.Store
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st, err := store.New(db, &testutil.DummyLogger{})
	require.NoError(t, err)
	return st
}

// newHarness runs the dashboard against a mock provider over real HTTP.
func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := &testutil.DummyLogger{}

	mock := mockprovider.New(mockprovider.DefaultConfig(), logger)
	mockSrv := httptest.NewServer(mock)
	t.Cleanup(mockSrv.Close)

	wc, err := webclient.NewNetHTTPClient(webclient.Config{Timeout: 5 * time.Second}, logger, nil)
	require.NoError(t, err)
	providers := func(token string) server.Provider {
		return provider.NewClient(wc, mockSrv.URL+mockprovider.APIPrefix, token, logger)
	}

	st := newTestStore(t)
	dash := dashboard.NewManager(dashboard.Config{}, func(token string) dashboard.SiteService {
		return providers(token)
	}, st, logger)
	t.Cleanup(dash.Close)

	h := &harness{mock: mock, dash: dash, store: st}

	// PublicURL is only known once the listener exists.
	var srv *server.Server
	h.app = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.ServeHTTP(w, r)
	}))
	t.Cleanup(h.app.Close)

	cfg := server.DefaultConfig()
	cfg.PublicURL = h.app.URL + "/"
	cfg.AuthStartURL = mockSrv.URL + mockprovider.AuthStartPath
	srv, err = server.NewServer(cfg, server.Deps{
		Store:     st,
		Providers: providers,
		Dashboard: dash,
		Renderer:  view.New(view.Config{AppBaseURL: "https://app.example.com"}),
		Logger:    logger,
	})
	require.NoError(t, err)
	return h
}

// browser is a cookie-keeping client that does not follow redirects.
func browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, c *http.Client, u string) *http.Response {
	t.Helper()
	resp, err := c.Get(u)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func postForm(t *testing.T, c *http.Client, u string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(u, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func page(t *testing.T, resp *http.Response) *goquery.Document {
	t.Helper()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

func rowIDs(doc *goquery.Document) []string {
	var ids []string
	doc.Find("tr.site-row").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("data-id")
		ids = append(ids, id)
	})
	return ids
}

// login walks the redirect dance and returns once the session cookie is set.
func (h *harness) login(t *testing.T, c *http.Client) {
	t.Helper()

	resp := postForm(t, c, h.app.URL+"/login", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	authStart := resp.Header.Get("Location")
	require.NotEmpty(t, authStart)

	start, err := url.Parse(authStart)
	require.NoError(t, err)
	assert.Equal(t, h.app.URL+"/", start.Query().Get("url"))
	assert.NotEmpty(t, start.Query().Get("csrf"))

	resp = get(t, c, authStart)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	_, fragment, ok := strings.Cut(resp.Header.Get("Location"), "#")
	require.True(t, ok)

	resp = postForm(t, c, h.app.URL+"/auth/callback", url.Values{"hash": {"#" + fragment}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode, "callback should redirect home")
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

// loadedPage fetches the dashboard after the mount fetch has finished.
func (h *harness) loadedPage(t *testing.T, c *http.Client, path string) *goquery.Document {
	t.Helper()
	get(t, c, h.app.URL+"/")
	h.dash.Wait()
	return page(t, get(t, c, h.app.URL+path))
}

// ─── Pages ─────────────────────────────────────────────────────────────

func TestServer_LoginPageWhenLoggedOut(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	doc := page(t, get(t, browser(t), h.app.URL+"/"))
	assert.Equal(t, "Netlify Site Search", doc.Find("title").Text())
	assert.Equal(t, 1, doc.Find("form.login").Length())
}

func TestServer_FullFlow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	c := browser(t)
	seeded := len(mockprovider.SeedSites())

	h.login(t, c)

	doc := h.loadedPage(t, c, "/")
	assert.Equal(t, "Hi Mock Friend", doc.Find(".greeting").Text())
	ids := rowIDs(doc)
	require.Len(t, ids, seeded)
	assert.Equal(t, "site-0003", ids[0], "newest publish first by default")

	// sort by name, ascending after the first toggle
	resp := get(t, c, h.app.URL+"/sort/name")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	doc = page(t, get(t, c, h.app.URL+"/"))
	names := doc.Find("tr.site-row td.name a:first-child").Map(func(_ int, s *goquery.Selection) string { return s.Text() })
	assert.Equal(t, "gatsby-starter-blog", names[0])

	// filter
	doc = page(t, get(t, c, h.app.URL+"/?q=docs"))
	assert.ElementsMatch(t, []string{"site-0002", "site-0006"}, rowIDs(doc))

	// no match
	doc = page(t, get(t, c, h.app.URL+"/?q=nothing-here"))
	assert.Equal(t, "No 'nothing-here' examples found. Clear your search and try again.", doc.Find(".empty").Text())

	// clear filter and delete
	page(t, get(t, c, h.app.URL+"/?q="))
	resp = postForm(t, c, h.app.URL+"/sites/site-0001/delete", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Len(t, h.mock.Sites(), seeded-1)

	doc = page(t, get(t, c, h.app.URL+"/"))
	assert.NotContains(t, rowIDs(doc), "site-0001")
	assert.Len(t, rowIDs(doc), seeded-1)

	// deletion was audited
	resp = get(t, c, h.app.URL+"/api/deletions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var audit server.DeletionsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&audit))
	require.Len(t, audit.Deletions, 1)
	assert.Equal(t, "site-0001", audit.Deletions[0].SiteID)
	assert.Equal(t, "gatsby-starter-blog", audit.Deletions[0].SiteName)
	assert.Equal(t, "friend@example.com", audit.Deletions[0].DeletedBy)
	assert.Equal(t, "user-1", audit.Deletions[0].UserID)

	// a caller whose token the provider rejects sees nothing
	req, err := http.NewRequest(http.MethodGet, h.app.URL+"/api/deletions", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	stranger, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	stranger.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, stranger.StatusCode)

	// deleting again fails at the provider and leaves the list alone
	resp = postForm(t, c, h.app.URL+"/sites/site-0001/delete", nil)
	assert.Equal(t, "/?notice=delete-not-found", resp.Header.Get("Location"))
	doc = page(t, get(t, c, h.app.URL+resp.Header.Get("Location")))
	assert.NotEmpty(t, doc.Find(".notice").Text())
	assert.Len(t, rowIDs(doc), seeded-1)

	// logout
	resp = postForm(t, c, h.app.URL+"/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	doc = page(t, get(t, c, h.app.URL+"/"))
	assert.Equal(t, 1, doc.Find("form.login").Length())
}

func TestServer_ShowsLoadingBeforeFetchCompletes(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeSites{Sites: testutil.SampleSites(), Gate: make(chan struct{})}
	srv, st, _ := newUnitServer(t, fake)
	defer close(fake.Gate)

	sess, err := st.CreateSession(context.Background(), store.NewSession{Token: "tok", UserID: "user-tok"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sitesearch_session", Value: sess.ID})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "Loading sites...", doc.Find(".loading").Text())
	assert.Equal(t, "Hi Friend", doc.Find(".greeting").Text())
}

func TestServer_CallbackRejectsCSRFMismatch(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	c := browser(t)

	resp := postForm(t, c, h.app.URL+"/login", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	forged := auth.User{Token: auth.EncodeToken("mock-token"), CSRF: "not-the-nonce"}.Fragment()
	resp = postForm(t, c, h.app.URL+"/auth/callback", url.Values{"hash": {"#" + forged}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	doc := page(t, get(t, c, h.app.URL+"/"))
	assert.Equal(t, 1, doc.Find("form.login").Length(), "no session must be created")
}

func TestServer_CallbackWithoutCookieIsRejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	frag := auth.User{Token: auth.EncodeToken("mock-token"), CSRF: "x"}.Fragment()
	resp := postForm(t, browser(t), h.app.URL+"/auth/callback", url.Values{"hash": {frag}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServer_UnknownSessionCookieShowsLogin(t *testing.T) {
	t.Parallel()
	srv, _, _ := newUnitServer(t, &testutil.FakeSites{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sitesearch_session", Value: "stale"})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/login"`)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "sitesearch_session=;")
}

// ─── JSON API ──────────────────────────────────────────────────────────

// newUnitServer wires the server over an in-memory fake provider.
func newUnitServer(t *testing.T, fake *testutil.FakeSites) (*server.Server, *store.Store, *dashboard.Manager) {
	t.Helper()
	logger := &testutil.DummyLogger{}
	st := newTestStore(t)
	dash := dashboard.NewManager(dashboard.Config{}, func(string) dashboard.SiteService { return fake }, st, logger)
	t.Cleanup(dash.Close)

	srv, err := server.NewServer(server.DefaultConfig(), server.Deps{
		Store:     st,
		Providers: func(token string) server.Provider { return fakeProvider{fake, token} },
		Dashboard: dash,
		Logger:    logger,
	})
	require.NoError(t, err)
	return srv, st, dash
}

// fakeProvider answers CurrentUser with an account derived from its token.
// The token "bad" is rejected.
type fakeProvider struct {
	*testutil.FakeSites
	token string
}

func (p fakeProvider) CurrentUser(context.Context) (*provider.User, error) {
	if p.token == "bad" {
		return nil, &provider.APIError{StatusCode: http.StatusUnauthorized, Message: "Unauthorized"}
	}
	return &provider.User{ID: "user-" + p.token, FullName: "Fake User", Email: p.token + "@example.com"}, nil
}

func doJSON(t *testing.T, h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

func TestAPI_ListSites_RequiresToken(t *testing.T) {
	t.Parallel()
	srv, _, _ := newUnitServer(t, &testutil.FakeSites{})

	rec := doJSON(t, srv, http.MethodGet, "/api/sites", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body server.ErrorResponse
	decodeJSON(t, rec, &body)
	assert.Equal(t, "missing bearer token", body.Error)
}

func TestAPI_ListSites_FilterAndSort(t *testing.T) {
	t.Parallel()
	srv, _, _ := newUnitServer(t, &testutil.FakeSites{Sites: testutil.SampleSites()})

	rec := doJSON(t, srv, http.MethodGet, "/api/sites?q=acme&sort=name&order=asc", "tok")
	require.Equal(t, http.StatusOK, rec.Code)

	var body server.SitesResponse
	decodeJSON(t, rec, &body)
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, 3, body.Count, "acme matches a repo url and two team names")
	require.Len(t, body.Sites, 3)
	assert.Equal(t, "alpha-blog", body.Sites[0].Name)
	assert.Equal(t, "name", string(body.Query.SortBy))
	assert.Equal(t, "asc", string(body.Query.Order))
}

func TestAPI_ListSites_DefaultsAndUnknownSort(t *testing.T) {
	t.Parallel()
	srv, _, _ := newUnitServer(t, &testutil.FakeSites{Sites: testutil.SampleSites()})

	rec := doJSON(t, srv, http.MethodGet, "/api/sites?sort=bogus", "tok")
	require.Equal(t, http.StatusOK, rec.Code)

	var body server.SitesResponse
	decodeJSON(t, rec, &body)
	assert.Equal(t, "published_at", string(body.Query.SortBy))
	assert.Equal(t, "desc", string(body.Query.Order))
	assert.Equal(t, "id-alpha", body.Sites[0].ID)
	assert.Equal(t, "id-charlie", body.Sites[2].ID, "unpublished sites sort last")
}

func TestAPI_ListSites_ProviderErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized", &provider.APIError{StatusCode: 401}, http.StatusUnauthorized},
		{"forbidden", &provider.APIError{StatusCode: 403}, http.StatusUnauthorized},
		{"server error", &provider.APIError{StatusCode: 500}, http.StatusBadGateway},
		{"transport", testutil.ErrFake, http.StatusBadGateway},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv, _, _ := newUnitServer(t, &testutil.FakeSites{ListErr: tc.err})
			rec := doJSON(t, srv, http.MethodGet, "/api/sites", "tok")
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAPI_DeleteSite(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeSites{Sites: testutil.SampleSites()}
	srv, _, _ := newUnitServer(t, fake)

	rec := doJSON(t, srv, http.MethodDelete, "/api/sites/id-bravo", "tok")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"id-bravo"}, fake.Deleted())

	rec = doJSON(t, srv, http.MethodDelete, "/api/sites/id-bravo", "tok")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/deletions", "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	var audit server.DeletionsResponse
	decodeJSON(t, rec, &audit)
	require.Len(t, audit.Deletions, 1)
	assert.Equal(t, "id-bravo", audit.Deletions[0].SiteID)
	assert.Equal(t, "tok@example.com", audit.Deletions[0].DeletedBy, "header callers are named after their account")
	assert.Equal(t, "user-tok", audit.Deletions[0].UserID)
}

func TestAPI_Deletions_OnlyShowCallersOwn(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeSites{Sites: testutil.SampleSites()}
	srv, _, _ := newUnitServer(t, fake)

	rec := doJSON(t, srv, http.MethodDelete, "/api/sites/id-alpha", "tok")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/deletions", "other")
	require.Equal(t, http.StatusOK, rec.Code)
	var audit server.DeletionsResponse
	decodeJSON(t, rec, &audit)
	assert.Empty(t, audit.Deletions)

	rec = doJSON(t, srv, http.MethodGet, "/api/deletions", "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &audit)
	assert.Len(t, audit.Deletions, 1)
}

func TestAPI_RejectsUnverifiedBearer(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeSites{Sites: testutil.SampleSites()}
	srv, _, _ := newUnitServer(t, fake)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/deletions"},
		{http.MethodGet, "/api/sites"},
		{http.MethodDelete, "/api/sites/id-alpha"},
	} {
		rec := doJSON(t, srv, tc.method, tc.path, "bad")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
	assert.Empty(t, fake.Deleted())
}

func TestServer_SessionWithoutUserIsDropped(t *testing.T) {
	t.Parallel()
	srv, st, _ := newUnitServer(t, &testutil.FakeSites{})

	sess, err := st.CreateSession(context.Background(), store.NewSession{Token: "tok"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sitesearch_session", Value: sess.ID})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `action="/login"`)
	_, err = st.GetSession(context.Background(), sess.ID)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestAPI_DeleteSite_Unauthorized(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeSites{Sites: testutil.SampleSites(), DeleteErr: &provider.APIError{StatusCode: 401}}
	srv, _, _ := newUnitServer(t, fake)

	rec := doJSON(t, srv, http.MethodDelete, "/api/sites/id-alpha", "tok")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_CurrentUser(t *testing.T) {
	t.Parallel()
	srv, _, _ := newUnitServer(t, &testutil.FakeSites{})

	rec := doJSON(t, srv, http.MethodGet, "/api/user", "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	var u provider.User
	decodeJSON(t, rec, &u)
	assert.Equal(t, "Fake User", u.FullName)
}

func TestServer_HealthAndCORS(t *testing.T) {
	t.Parallel()
	srv, _, _ := newUnitServer(t, &testutil.FakeSites{})

	rec := doJSON(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body server.HealthResponse
	decodeJSON(t, rec, &body)
	assert.Equal(t, "ok", body.Status)

	rec = doJSON(t, srv, http.MethodOptions, "/api/sites", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestServer_LoginRedirect(t *testing.T) {
	t.Parallel()
	srv, _, _ := newUnitServer(t, &testutil.FakeSites{})

	rec := doJSON(t, srv, http.MethodPost, "/login", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/.netlify/functions/auth-start", loc.Path)
	assert.Equal(t, "http://localhost:8080/", loc.Query().Get("url"))

	csrf := loc.Query().Get("csrf")
	require.NotEmpty(t, csrf)
	cookie := rec.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, "sitesearch_csrf="+csrf)
	assert.Contains(t, cookie, "HttpOnly")
}

func TestNewServer_RequiresDeps(t *testing.T) {
	t.Parallel()
	_, err := server.NewServer(server.DefaultConfig(), server.Deps{})
	assert.Error(t, err)
}
