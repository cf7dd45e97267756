package identityfakes

import (
	"context"
	"sync"

	"github.com/cropgenius/authflow/identity"
)

var _ identity.Client = (*FakeClient)(nil)

// FakeClient is a scriptable identity.Client for tests. Each call is
// recorded; errors and return values are injected through the public
// fields.
type FakeClient struct {
	lock sync.Mutex

	RedirectURL      string
	RedirectErr      error
	RedirectRequests []identity.RedirectRequest

	Session      *identity.Session
	ExchangeErr  error
	ExchangedWith []struct {
		Code         string
		CodeVerifier string
	}

	SignedOut bool
}

func NewFakeClient() *FakeClient {
	return &FakeClient{RedirectURL: "https://idp.example.com/authorize"}
}

func (f *FakeClient) RequestOAuthRedirectURL(_ context.Context, req identity.RedirectRequest) (*identity.Redirect, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.RedirectRequests = append(f.RedirectRequests, req)
	if f.RedirectErr != nil {
		return nil, f.RedirectErr
	}
	if f.RedirectURL == "" {
		// Simulates a provider that reports success without a URL.
		return &identity.Redirect{CorrelationToken: req.CorrelationToken}, nil
	}
	return &identity.Redirect{URL: f.RedirectURL, CorrelationToken: req.CorrelationToken}, nil
}

func (f *FakeClient) ExchangeCodeForSession(_ context.Context, code, codeVerifier string) (*identity.Session, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.ExchangedWith = append(f.ExchangedWith, struct {
		Code         string
		CodeVerifier string
	}{Code: code, CodeVerifier: codeVerifier})
	if f.ExchangeErr != nil {
		return nil, f.ExchangeErr
	}
	return f.Session, nil
}

func (f *FakeClient) CurrentSession(context.Context) (*identity.Session, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.Session, nil
}

func (f *FakeClient) SignOut(context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.SignedOut = true
	f.Session = nil
	return nil
}

// LastRedirectRequest returns the most recent redirect request, or a zero
// value when none was made.
func (f *FakeClient) LastRedirectRequest() identity.RedirectRequest {
	f.lock.Lock()
	defer f.lock.Unlock()

	if len(f.RedirectRequests) == 0 {
		return identity.RedirectRequest{}
	}
	return f.RedirectRequests[len(f.RedirectRequests)-1]
}
