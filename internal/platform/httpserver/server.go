package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	podledger "arboretum/contexts/garden-core/pod-ledger"
	poderrors "arboretum/contexts/garden-core/pod-ledger/domain/errors"
	podhttp "arboretum/contexts/garden-core/pod-ledger/transport/http"
	rewarddistributor "arboretum/contexts/garden-core/reward-distributor"
	rewarderrors "arboretum/contexts/garden-core/reward-distributor/domain/errors"
	rewardhttp "arboretum/contexts/garden-core/reward-distributor/transport/http"
	_ "arboretum/internal/platform/httpserver/docs"
	"arboretum/internal/platform/messaging"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	pods    podledger.Module
	rewards rewarddistributor.Module
	bus     *messaging.Kafka
}

func New(
	pods podledger.Module,
	rewards rewarddistributor.Module,
	bus *messaging.Kafka,
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
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		pods:    pods,
		rewards: rewards,
		bus:     bus,
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

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/garden/pods", s.handleCreatePod)
	s.mux.HandleFunc("GET /v1/garden/pods", s.handleListPods)
	s.mux.HandleFunc("GET /v1/garden/pods/{pod_id}", s.handleGetPod)
	s.mux.HandleFunc("POST /v1/garden/pods/{pod_id}/water", s.handleWaterPod)
	s.mux.HandleFunc("POST /v1/garden/pods/{pod_id}/harvest", s.handleHarvestPod)

	s.mux.HandleFunc("POST /v1/garden/rewards/fund", s.handleFundPool)
	s.mux.HandleFunc("POST /v1/garden/rewards/shake", s.handleShake)
	s.mux.HandleFunc("GET /v1/garden/rewards/pool", s.handleGetPool)

	s.mux.HandleFunc("PUT /v1/garden/parameters", s.handleTweakParameters)
	s.mux.HandleFunc("GET /v1/garden/parameters", s.handleGetParameters)

	s.mux.HandleFunc("GET /v1/garden/events/stream", s.handleEventStream)
}

func (s *Server) handleCreatePod(w http.ResponseWriter, r *http.Request) {
	gardenerID := r.Header.Get("X-User-Id")
	if gardenerID == "" {
		writePodError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req podhttp.CreatePodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePodError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.pods.Handler.CreatePodHandler(r.Context(), gardenerID, req)
	if err != nil {
		writePodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPods(w http.ResponseWriter, r *http.Request) {
	gardenerID := r.Header.Get("X-User-Id")
	if gardenerID == "" {
		writePodError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.pods.Handler.ListPodsHandler(r.Context(), gardenerID)
	if err != nil {
		writePodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPod(w http.ResponseWriter, r *http.Request) {
	podID, ok := parsePodID(w, r)
	if !ok {
		return
	}
	resp, err := s.pods.Handler.GetPodHandler(r.Context(), podID)
	if err != nil {
		writePodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWaterPod(w http.ResponseWriter, r *http.Request) {
	gardenerID := r.Header.Get("X-User-Id")
	if gardenerID == "" {
		writePodError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	podID, ok := parsePodID(w, r)
	if !ok {
		return
	}

	var req podhttp.WaterPodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePodError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.pods.Handler.WaterPodHandler(r.Context(), gardenerID, podID, req)
	if err != nil {
		writePodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHarvestPod(w http.ResponseWriter, r *http.Request) {
	gardenerID := r.Header.Get("X-User-Id")
	if gardenerID == "" {
		writePodError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	podID, ok := parsePodID(w, r)
	if !ok {
		return
	}

	resp, err := s.pods.Handler.HarvestPodHandler(r.Context(), gardenerID, podID)
	if err != nil {
		writePodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFundPool(w http.ResponseWriter, r *http.Request) {
	funderID := r.Header.Get("X-User-Id")
	if funderID == "" {
		writeRewardError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req rewardhttp.FundPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRewardError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.rewards.Handler.FundPoolHandler(r.Context(), funderID, req)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShake(w http.ResponseWriter, r *http.Request) {
	gardenerID := r.Header.Get("X-User-Id")
	if gardenerID == "" {
		writeRewardError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.rewards.Handler.ShakeHandler(r.Context(), gardenerID)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rewards.Handler.GetPoolHandler(r.Context())
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTweakParameters(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeRewardError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req rewardhttp.TweakParametersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRewardError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.rewards.Handler.TweakParametersHandler(r.Context(), callerID, req)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetParameters(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rewards.Handler.GetParametersHandler(r.Context())
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parsePodID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	podID, err := strconv.ParseUint(r.PathValue("pod_id"), 10, 64)
	if err != nil {
		writePodError(w, http.StatusBadRequest, "invalid_pod_id", "pod_id must be an unsigned integer")
		return 0, false
	}
	return podID, true
}

func writePodDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, poderrors.ErrInvalidAmount):
		writePodError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, poderrors.ErrPodNotFound):
		writePodError(w, http.StatusNotFound, "pod_not_found", err.Error())
	case errors.Is(err, poderrors.ErrNotOwner):
		writePodError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, poderrors.ErrAlreadyHarvested):
		writePodError(w, http.StatusConflict, "already_harvested", err.Error())
	case errors.Is(err, poderrors.ErrTransferFailed):
		writePodError(w, http.StatusPaymentRequired, "transfer_failed", err.Error())
	case errors.Is(err, poderrors.ErrArithmeticOverflow):
		writePodError(w, http.StatusInternalServerError, "arithmetic_overflow", err.Error())
	default:
		writePodError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRewardDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rewarderrors.ErrInvalidAmount):
		writeRewardError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, rewarderrors.ErrTooSoon):
		writeRewardError(w, http.StatusTooManyRequests, "too_soon", err.Error())
	case errors.Is(err, rewarderrors.ErrEmptyPool):
		writeRewardError(w, http.StatusConflict, "empty_pool", err.Error())
	case errors.Is(err, rewarderrors.ErrTransferFailed):
		writeRewardError(w, http.StatusPaymentRequired, "transfer_failed", err.Error())
	case errors.Is(err, rewarderrors.ErrNotAuthorized):
		writeRewardError(w, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, rewarderrors.ErrArithmeticOverflow):
		writeRewardError(w, http.StatusInternalServerError, "arithmetic_overflow", err.Error())
	default:
		writeRewardError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePodError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, podhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeRewardError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, rewardhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
