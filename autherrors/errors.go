// Package autherrors defines the structured failure type returned by the
// PKCE and flow-management layers. Failures carry a stable code, a message
// suitable for end users, a developer message, and a retryable flag so that
// callers can map them to retry affordances without string matching.
package autherrors

import (
	"fmt"
	"time"
)

// Kind categorises a failure.
type Kind string

const (
	// KindGeneration covers secure-random or digest primitive failures.
	KindGeneration Kind = "generation"

	// KindStorage means every storage tier rejected a write.
	KindStorage Kind = "storage"

	// KindRetrieval means a stored payload could not be read back or parsed.
	KindRetrieval Kind = "retrieval"

	// KindExpired means a flow record existed but its TTL had elapsed.
	KindExpired Kind = "expired"

	// KindConfiguration means the environment cannot run any flow at all.
	KindConfiguration Kind = "configuration"

	// KindProvider covers errors reported by the external identity provider.
	KindProvider Kind = "provider"

	// KindExchange covers failures exchanging an authorization code for a session.
	KindExchange Kind = "exchange"

	// KindTimeout means the identity-provider round trip exceeded its deadline.
	KindTimeout Kind = "timeout"
)

// Stable failure codes, carried over from the original client error catalogue.
const (
	CodeVerifierGenerationFailed  = "PKCE_001"
	CodeChallengeGenerationFailed = "PKCE_002"
	CodeStateGenerationFailed     = "PKCE_003"
	CodeStorageFailed             = "PKCE_004"
	CodeFlowExpired               = "PKCE_005"
	CodeRetrievalFailed           = "PKCE_006"
	CodeImplicitProviderError     = "IMPLICIT_001"
	CodeImplicitNoURL             = "IMPLICIT_002"
	CodeNoSupportedStrategy       = "FLOW_001"
	CodeProviderTimeout           = "FLOW_002"
	CodeExchangeFailed            = "FLOW_003"
	CodeStateMismatch             = "FLOW_004"
)

// Failure is the structured, non-panicking error result used throughout the
// crypto, store, and manager layers. It implements error so it can travel
// through ordinary Go error returns.
type Failure struct {
	Kind             Kind
	Code             string
	UserMessage      string
	DeveloperMessage string
	Retryable        bool
	Timestamp        time.Time

	cause error
}

func (f *Failure) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", f.Kind, f.Code, f.DeveloperMessage, f.cause)
	}
	return fmt.Sprintf("%s (%s): %s", f.Kind, f.Code, f.DeveloperMessage)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (f *Failure) Unwrap() error {
	return f.cause
}

func newFailure(kind Kind, code, userMsg, devMsg string, retryable bool, cause error) *Failure {
	return &Failure{
		Kind:             kind,
		Code:             code,
		UserMessage:      userMsg,
		DeveloperMessage: devMsg,
		Retryable:        retryable,
		Timestamp:        time.Now().UTC(),
		cause:            cause,
	}
}

// Generation reports a secure-random or digest primitive failure. These are
// retryable: a transient environment issue may clear on the next attempt.
func Generation(code, devMsg string, cause error) *Failure {
	return newFailure(KindGeneration, code,
		"Authentication setup failed. Please try again.",
		devMsg, true, cause)
}

// Storage reports that every storage tier rejected a write.
func Storage(devMsg string, cause error) *Failure {
	return newFailure(KindStorage, CodeStorageFailed,
		"Authentication setup failed. Please enable storage and try again.",
		devMsg, true, cause)
}

// Retrieval reports a corrupted or unreadable stored record. The record
// itself is unrecoverable; the overall flow is retried by starting over.
func Retrieval(devMsg string, cause error) *Failure {
	return newFailure(KindRetrieval, CodeRetrievalFailed,
		"Sign-in was interrupted. Please try signing in again.",
		devMsg, false, cause)
}

// Expired reports that a flow record outlived its TTL before the callback.
func Expired(correlationToken string) *Failure {
	return newFailure(KindExpired, CodeFlowExpired,
		"Sign-in took too long. Please try signing in again.",
		fmt.Sprintf("flow record for state %q expired before consumption", correlationToken),
		true, nil)
}

// NoSupportedStrategy reports that the environment cannot run any OAuth flow.
// This is a configuration problem, not a transient one.
func NoSupportedStrategy() *Failure {
	return newFailure(KindConfiguration, CodeNoSupportedStrategy,
		"Your environment does not support the required authentication features.",
		"no OAuth flow strategy is supported in this environment",
		false, nil)
}

// Provider reports an error surfaced by the external identity provider.
func Provider(code, devMsg string, cause error) *Failure {
	return newFailure(KindProvider, code,
		"Sign-in failed. Please try again.",
		devMsg, true, cause)
}

// NoRedirectURL reports that the provider claimed success but returned no
// sign-in URL. Distinct from a transport error and not retryable as-is.
func NoRedirectURL() *Failure {
	return newFailure(KindProvider, CodeImplicitNoURL,
		"Sign-in setup failed. Please try again.",
		"identity provider reported success but returned no redirect URL",
		false, nil)
}

// Timeout reports that the identity-provider round trip exceeded its deadline.
func Timeout(operation string, cause error) *Failure {
	return newFailure(KindTimeout, CodeProviderTimeout,
		"The request timed out. Please try again.",
		fmt.Sprintf("%s did not complete within the configured timeout", operation),
		true, cause)
}

// Exchange reports a failed code-for-session exchange.
func Exchange(devMsg string, cause error) *Failure {
	return newFailure(KindExchange, CodeExchangeFailed,
		"Unable to complete sign-in. Please try again.",
		devMsg, true, cause)
}

// StateMismatch reports a callback whose state has no matching client record.
func StateMismatch(correlationToken string) *Failure {
	return newFailure(KindProvider, CodeStateMismatch,
		"Authentication security check failed. Please try signing in again.",
		fmt.Sprintf("no flow record found for state %q", correlationToken),
		true, nil)
}

// As extracts a *Failure from an error chain.
func As(err error) (*Failure, bool) {
	for err != nil {
		if f, ok := err.(*Failure); ok {
			return f, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// KindOf returns the failure kind, or an empty Kind for non-Failure errors.
func KindOf(err error) Kind {
	if f, ok := As(err); ok {
		return f.Kind
	}
	return ""
}

// IsRetryable reports whether the caller may usefully retry. Non-Failure
// errors are treated as non-retryable.
func IsRetryable(err error) bool {
	if f, ok := As(err); ok {
		return f.Retryable
	}
	return false
}
