package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	badgeservice "aqualedger/contexts/confidential-ledger/badge-service"
	badgeerrors "aqualedger/contexts/confidential-ledger/badge-service/domain/errors"
	badgehttp "aqualedger/contexts/confidential-ledger/badge-service/transport/http"
	ledgerservice "aqualedger/contexts/confidential-ledger/ledger-service"
	ledgererrors "aqualedger/contexts/confidential-ledger/ledger-service/domain/errors"
	ledgerhttp "aqualedger/contexts/confidential-ledger/ledger-service/transport/http"
	"aqualedger/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	auth   *Authenticator
	ledger ledgerservice.Module
	badges badgeservice.Module
}

func New(
	ledger ledgerservice.Module,
	badges badgeservice.Module,
	auth *Authenticator,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		auth:   auth,
		ledger: ledger,
		badges: badges,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /swagger/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(docs.OpenAPI)
	})
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/ledger/v1/submissions", s.handleSubmitAction)
	s.mux.HandleFunc("GET /api/ledger/v1/users/{user_address}/stats", s.handleGetUserStats)
	s.mux.HandleFunc("GET /api/ledger/v1/users/{user_address}/submissions", s.handleListSubmissions)

	s.mux.HandleFunc("POST /api/badges/v1/claims", s.handleClaimBadge)
	s.mux.HandleFunc("POST /api/badges/v1/revocations", s.handleRevokeBadge)
	s.mux.HandleFunc("GET /api/badges/v1/users/{user_address}", s.handleGetUserBadge)
	s.mux.HandleFunc("GET /api/badges/v1/users/{user_address}/eligibility", s.handleEligibility)
	s.mux.HandleFunc("GET /api/badges/v1/levels/{level}", s.handleBadgeName)
}

func (s *Server) handleSubmitAction(w http.ResponseWriter, r *http.Request) {
	actor, err := s.auth.Subject(r)
	if err != nil {
		writeLedgerError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
		return
	}

	var req ledgerhttp.SubmitActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.SubmitActionHandler(r.Context(), actor, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetUserStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GetUserStatsHandler(r.Context(), r.PathValue("user_address"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListSubmissionsHandler(r.Context(), r.PathValue("user_address"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaimBadge(w http.ResponseWriter, r *http.Request) {
	actor, err := s.auth.Subject(r)
	if err != nil {
		writeBadgeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
		return
	}

	var req badgehttp.ClaimBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadgeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.badges.Handler.ClaimBadgeHandler(r.Context(), actor, req)
	if err != nil {
		writeBadgeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevokeBadge(w http.ResponseWriter, r *http.Request) {
	actor, err := s.auth.Subject(r)
	if err != nil {
		writeBadgeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
		return
	}

	var req badgehttp.RevokeBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadgeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.badges.Handler.RevokeBadgeHandler(r.Context(), actor, req)
	if err != nil {
		writeBadgeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetUserBadge(w http.ResponseWriter, r *http.Request) {
	resp, err := s.badges.Handler.GetUserBadgeHandler(r.Context(), r.PathValue("user_address"))
	if err != nil {
		writeBadgeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	resp, err := s.badges.Handler.EligibilityHandler(r.Context(), r.PathValue("user_address"))
	if err != nil {
		writeBadgeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBadgeName(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.ParseUint(r.PathValue("level"), 10, 8)
	if err != nil {
		writeBadgeError(w, http.StatusBadRequest, "invalid_level", "level must be an integer")
		return
	}
	resp, err := s.badges.Handler.BadgeNameHandler(r.Context(), uint8(level))
	if err != nil {
		writeBadgeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrInvalidAddress):
		writeLedgerError(w, http.StatusBadRequest, "invalid_address", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidActionType):
		writeLedgerError(w, http.StatusBadRequest, "invalid_action_type", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidCityCode):
		writeLedgerError(w, http.StatusBadRequest, "invalid_city_code", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidCiphertext):
		writeLedgerError(w, http.StatusBadRequest, "invalid_ciphertext", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidProof):
		writeLedgerError(w, http.StatusBadRequest, "invalid_proof", err.Error())
	case errors.Is(err, ledgererrors.ErrAlreadySubmittedToday):
		writeLedgerError(w, http.StatusConflict, "already_submitted_today", err.Error())
	case errors.Is(err, ledgererrors.ErrClockSkew):
		writeLedgerError(w, http.StatusConflict, "clock_skew", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeBadgeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, badgeerrors.ErrInvalidAddress):
		writeBadgeError(w, http.StatusBadRequest, "invalid_address", err.Error())
	case errors.Is(err, badgeerrors.ErrInvalidLevel):
		writeBadgeError(w, http.StatusBadRequest, "invalid_level", err.Error())
	case errors.Is(err, badgeerrors.ErrNotEligible):
		writeBadgeError(w, http.StatusForbidden, "not_eligible", err.Error())
	case errors.Is(err, badgeerrors.ErrNotAuthorized):
		writeBadgeError(w, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, badgeerrors.ErrAlreadyClaimed):
		writeBadgeError(w, http.StatusConflict, "already_claimed", err.Error())
	case errors.Is(err, badgeerrors.ErrNotClaimed):
		writeBadgeError(w, http.StatusNotFound, "not_claimed", err.Error())
	default:
		writeBadgeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeBadgeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, badgehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
