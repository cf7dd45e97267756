package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cropgenius/authflow/autherrors"
	"github.com/rs/zerolog/log"
)

// LoginHandler starts a sign-in flow and redirects the user agent to the
// provider. An optional redirect_to query parameter carries the post-auth
// destination through the flow record.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.manager.ExecuteOptimalFlow(r.Context(), r.URL.Query().Get("redirect_to"))
		if err != nil {
			writeFailure(w, err)
			return
		}
		http.Redirect(w, r, result.URL, http.StatusFound)
	}
}

// CallbackHandler completes a sign-in. It accepts GET query parameters and
// POST form data (form_post response mode).
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		if errorParam != "" {
			http.Error(w, fmt.Sprintf("Authorization failed: %s - %s", errorParam, errorDesc), http.StatusBadRequest)
			return
		}
		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		session, record, err := s.manager.HandleCallback(r.Context(), state, code)
		if err != nil {
			writeFailure(w, err)
			return
		}
		if session == nil {
			writeFailure(w, autherrors.Exchange("identity client returned no session for the exchanged code", nil))
			return
		}
		log.Debug().Str("subject", session.Subject).Msg("sign-in completed")

		target := record.RedirectTarget
		if target == "" {
			target = s.fallbackRedirect
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// SignOutHandler discards the active session.
func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.client.SignOut(r.Context()); err != nil {
			http.Error(w, "Sign-out failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DiagnosticsHandler reports the flow manager's view of the environment.
func (s *Server) DiagnosticsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.manager.RunDiagnostics())
	}
}

// HealthHandler is a plain liveness probe.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// failureResponse is the JSON body returned for structured failures.
type failureResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func writeFailure(w http.ResponseWriter, err error) {
	failure, ok := autherrors.As(err)
	if !ok {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch failure.Kind {
	case autherrors.KindConfiguration:
		status = http.StatusServiceUnavailable
	case autherrors.KindExpired:
		status = http.StatusBadRequest
	case autherrors.KindProvider:
		status = http.StatusBadGateway
	case autherrors.KindTimeout:
		status = http.StatusGatewayTimeout
	case autherrors.KindExchange:
		status = http.StatusBadGateway
	}
	if failure.Code == autherrors.CodeStateMismatch {
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(failureResponse{
		Code:      failure.Code,
		Message:   failure.UserMessage,
		Retryable: failure.Retryable,
	})
}
