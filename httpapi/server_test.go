package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/cropgenius/authflow/flows"
	"github.com/cropgenius/authflow/httpapi"
	"github.com/cropgenius/authflow/identity"
	"github.com/cropgenius/authflow/identity/identityfakes"
	"github.com/cropgenius/authflow/pkce"
	"github.com/cropgenius/authflow/storagetier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	server  *httpapi.Server
	client  *identityfakes.FakeClient
	manager *flows.Manager
}

func setupAPI(t *testing.T, options ...httpapi.ServerOption) *apiFixture {
	t.Helper()

	store, err := pkce.NewStore([]storagetier.Tier{storagetier.NewMemoryTier(storagetier.Memory)}, "httpapi-test-")
	require.NoError(t, err)
	state, err := pkce.NewStateManager(pkce.NewCrypto(), store, pkce.Config{})
	require.NoError(t, err)

	client := identityfakes.NewFakeClient()
	manager, err := flows.NewManager(state, client, "google")
	require.NoError(t, err)

	server, err := httpapi.New(manager, client, options...)
	require.NoError(t, err)
	return &apiFixture{server: server, client: client, manager: manager}
}

func TestNewValidatesDependencies(t *testing.T) {
	f := setupAPI(t)

	_, err := httpapi.New(nil, f.client)
	require.Error(t, err)

	_, err = httpapi.New(f.manager, nil)
	require.Error(t, err)
}

func TestLoginRedirectsToProvider(t *testing.T) {
	f := setupAPI(t)

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, httpapi.RouteLogin+"?redirect_to=/dashboard", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, f.client.RedirectURL, rec.Header().Get("Location"))
	assert.Equal(t, "/dashboard", f.client.LastRedirectRequest().RedirectTarget)
	assert.NotEmpty(t, f.client.LastRedirectRequest().CodeChallenge)
}

func TestLoginReportsUnsupportedEnvironment(t *testing.T) {
	f := setupAPI(t)

	// An empty strategy registry means nothing is supported.
	store, err := pkce.NewStore([]storagetier.Tier{storagetier.NewMemoryTier(storagetier.Memory)}, "x-")
	require.NoError(t, err)
	state, err := pkce.NewStateManager(pkce.NewCrypto(), store, pkce.Config{})
	require.NoError(t, err)
	manager, err := flows.NewManager(state, f.client, "google", flows.WithStrategies())
	require.NoError(t, err)
	server, err := httpapi.New(manager, f.client)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, httpapi.RouteLogin, nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Code      string `json:"code"`
		Retryable bool   `json:"retryable"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "FLOW_001", body.Code)
	assert.False(t, body.Retryable)
}

func startLogin(t *testing.T, f *apiFixture) string {
	t.Helper()

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, httpapi.RouteLogin+"?redirect_to=/fields", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	token := f.client.LastRedirectRequest().CorrelationToken
	require.NotEmpty(t, token)
	return token
}

func TestCallbackCompletesSignIn(t *testing.T) {
	f := setupAPI(t)
	f.client.Session = &identity.Session{AccessToken: "at", Subject: "user-1"}

	token := startLogin(t, f)

	rec := httptest.NewRecorder()
	target := httpapi.RouteCallback + "?state=" + url.QueryEscape(token) + "&code=auth-code"
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/fields", rec.Header().Get("Location"))
	require.Len(t, f.client.ExchangedWith, 1)
	assert.Equal(t, "auth-code", f.client.ExchangedWith[0].Code)
	assert.NotEmpty(t, f.client.ExchangedWith[0].CodeVerifier)
}

func TestCallbackAcceptsFormPost(t *testing.T) {
	f := setupAPI(t, httpapi.WithFallbackRedirect("/home"))
	f.client.Session = &identity.Session{AccessToken: "at"}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, httpapi.RouteLogin, nil))
	require.Equal(t, http.StatusFound, rec.Code)
	token := f.client.LastRedirectRequest().CorrelationToken

	form := url.Values{"state": {token}, "code": {"auth-code"}}
	req := httptest.NewRequest(http.MethodPost, httpapi.RouteCallback, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"), "empty redirect target falls back")
}

func TestCallbackRejectsMissingSession(t *testing.T) {
	// The fake exchanges without error but yields no session.
	f := setupAPI(t)

	token := startLogin(t, f)

	rec := httptest.NewRecorder()
	target := httpapi.RouteCallback + "?state=" + url.QueryEscape(token) + "&code=auth-code"
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "FLOW_003")
}

func TestCallbackRejectsProviderError(t *testing.T) {
	f := setupAPI(t)

	rec := httptest.NewRecorder()
	target := httpapi.RouteCallback + "?error=access_denied&error_description=user+cancelled"
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_denied")
}

func TestCallbackRejectsMissingParameters(t *testing.T) {
	f := setupAPI(t)

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, httpapi.RouteCallback+"?code=only-code", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	f := setupAPI(t)

	rec := httptest.NewRecorder()
	target := httpapi.RouteCallback + "?state=never-issued&code=auth-code"
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FLOW_004")
	assert.Empty(t, f.client.ExchangedWith, "no exchange without a matching flow record")
}

func TestSignOut(t *testing.T) {
	f := setupAPI(t)

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, httpapi.RouteSignOut, nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, f.client.SignedOut)
}

func TestDiagnosticsEndpoint(t *testing.T) {
	f := setupAPI(t)

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, httpapi.RouteDiagnostics, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var report flows.Diagnostics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, flows.TypePKCE, report.OptimalStrategy)
	assert.True(t, report.Capabilities.SecureRandom)
}

func TestHealthEndpoint(t *testing.T) {
	f := setupAPI(t)

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, httpapi.RouteHealth, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
