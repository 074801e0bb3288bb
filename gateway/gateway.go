// Package gateway exposes the custody contract over HTTP JSON for operators
// and backoffice tooling. It is a thin adapter: identity comes from request
// headers set by an authenticating reverse proxy (or from a configured
// fallback in dev), and every handler delegates straight to the contract.
package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/foodtrace/audit"
	"github.com/c360studio/foodtrace/contract"
	"github.com/c360studio/foodtrace/identity"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// Identity headers. A deployment fronts the gateway with a proxy that
// authenticates callers and stamps these; the values feed the same attribute
// checks the chaincode applies to certificate attributes.
const (
	HeaderOrganisation = "X-Foodtrace-Org"
	HeaderUser         = "X-Foodtrace-User"
)

// Server handles the HTTP surface for one contract instance.
type Server struct {
	core    *contract.Contract
	publish *audit.Publisher
	logger  *slog.Logger
	metrics *metrics

	// fallback identity for requests without headers (dev mode). Empty
	// organisation disables the fallback.
	fallbackOrg  string
	fallbackUser string
}

// NewServer returns a gateway over the given contract. publish may be nil.
func NewServer(core *contract.Contract, publish *audit.Publisher, fallbackOrg, fallbackUser string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if publish == nil {
		publish = audit.NewPublisher(nil, "", logger)
	}
	return &Server{
		core:         core,
		publish:      publish,
		logger:       logger,
		metrics:      newMetrics(),
		fallbackOrg:  fallbackOrg,
		fallbackUser: fallbackUser,
	}
}

// Handler returns the gateway's route table:
//
//	POST   /api/assets
//	GET    /api/assets
//	GET    /api/assets/{id}
//	DELETE /api/assets/{id}
//	GET    /api/assets/{id}/history
//	POST   /api/assets/{id}/transfer-request
//	POST   /api/assets/{id}/transfer-complete
//	POST   /api/assets/{id}/location
//	POST   /api/assets/{id}/temperature
//	POST   /api/assets/{id}/weight
//	POST   /api/assets/{id}/useby
//	POST   /api/assets/{id}/experiments
//	GET    /metrics
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/assets", s.handleCreate)
	mux.HandleFunc("GET /api/assets", s.handleList)
	mux.HandleFunc("GET /api/assets/{id}", s.handleRead)
	mux.HandleFunc("DELETE /api/assets/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/assets/{id}/history", s.handleHistory)
	mux.HandleFunc("POST /api/assets/{id}/transfer-request", s.handleTransferRequest)
	mux.HandleFunc("POST /api/assets/{id}/transfer-complete", s.handleTransferComplete)
	mux.HandleFunc("POST /api/assets/{id}/location", s.handleUpdateLocation)
	mux.HandleFunc("POST /api/assets/{id}/temperature", s.handleUpdateTemperature)
	mux.HandleFunc("POST /api/assets/{id}/weight", s.handleUpdateWeight)
	mux.HandleFunc("POST /api/assets/{id}/useby", s.handleUpdateUseBy)
	mux.HandleFunc("POST /api/assets/{id}/experiments", s.handleLinkExperiment)

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	return mux
}

// caller builds the request's identity context. Requests with neither an
// organisation header nor a configured fallback are rejected upstream by the
// contract's authorization gate, so no separate check happens here.
func (s *Server) caller(r *http.Request) identity.Caller {
	org := strings.TrimSpace(r.Header.Get(HeaderOrganisation))
	user := strings.TrimSpace(r.Header.Get(HeaderUser))
	if org == "" {
		org = s.fallbackOrg
		if user == "" {
			user = s.fallbackUser
		}
	}
	return identity.NewStatic(org, user)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", slog.String("error", err.Error()))
	}
}

// writeError maps contract errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, contract.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, contract.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, contract.ErrAlreadyExists),
		errors.Is(err, contract.ErrTransferPending),
		errors.Is(err, contract.ErrTransferNotRequested):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}

// receipt finalises a mutating handler: publish the receipt (best effort) and
// return it to the client.
func (s *Server) receipt(w http.ResponseWriter, r *contract.Receipt) {
	if err := s.publish.Publish(r); err != nil {
		s.logger.Warn("receipt not published", slog.String("error", err.Error()))
	}
	s.writeJSON(w, http.StatusOK, r)
}

type createRequest struct {
	Type        string  `json:"type"`
	Location    string  `json:"location"`
	Weight      float64 `json:"weight"`
	Temperature float64 `json:"temperature"`
	UseByDate   string  `json:"useByDate"`
	Seed        string  `json:"seed"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	receipt, err := s.core.CreateAsset(r.Context(), s.caller(r), req.Type, req.Location, req.Weight, req.Temperature, req.UseByDate, req.Seed)
	s.metrics.observe(string(contract.OpCreateAsset), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.receipt(w, receipt)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	assets, err := s.core.GetAllAssets(r.Context(), s.caller(r))
	s.metrics.observe("get-all-assets", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	a, err := s.core.ReadAsset(r.Context(), s.caller(r), r.PathValue("id"))
	s.metrics.observe("read-asset", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.core.GetProductHistory(r.Context(), s.caller(r), r.PathValue("id"))
	s.metrics.observe("get-product-history", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshots)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.core.DeleteAsset(r.Context(), s.caller(r), r.PathValue("id"))
	s.metrics.observe(string(contract.OpDeleteAsset), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.receipt(w, receipt)
}

func (s *Server) handleTransferRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetOrg string `json:"target_org"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	receipt, err := s.core.RequestTransfer(r.Context(), s.caller(r), req.TargetOrg, r.PathValue("id"))
	s.metrics.observe(string(contract.OpRequestTransfer), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.receipt(w, receipt)
}

func (s *Server) handleTransferComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewOwnerUser string  `json:"new_owner_user"`
		Location     string  `json:"location"`
		Temperature  float64 `json:"temperature"`
		Weight       float64 `json:"weight"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	receipt, err := s.core.TransferComplete(r.Context(), s.caller(r), r.PathValue("id"), req.NewOwnerUser, req.Location, req.Temperature, req.Weight)
	s.metrics.observe(string(contract.OpTransferComplete), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.receipt(w, receipt)
}

func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	receipt, err := s.core.UpdateLocation(r.Context(), s.caller(r), r.PathValue("id"), req.Value)
	s.metrics.observe(string(contract.OpUpdateLocation), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.receipt(w, receipt)
}

func (s *Server) handleUpdateTemperature(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value float64 `json:"value"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	receipt, err := s.core.UpdateTemperature(r.Context(), s.caller(r), r.PathValue("id"), req.Value)
	s.metrics.observe(string(contract.OpUpdateTemp), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.receipt(w, receipt)
}

func (s *Server) handleUpdateWeight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value float64 `json:"value"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	receipt, err := s.core.UpdateWeight(r.Context(), s.caller(r), r.PathValue("id"), req.Value)
	s.metrics.observe(string(contract.OpUpdateWeight), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.receipt(w, receipt)
}

func (s *Server) handleUpdateUseBy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	receipt, err := s.core.UpdateUseBy(r.Context(), s.caller(r), r.PathValue("id"), req.Value)
	s.metrics.observe(string(contract.OpUpdateUseBy), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.receipt(w, receipt)
}

func (s *Server) handleLinkExperiment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExperimentID string `json:"experiment_id"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	receipt, err := s.core.LinkExperiment(r.Context(), s.caller(r), r.PathValue("id"), req.ExperimentID)
	s.metrics.observe(string(contract.OpLinkExperiment), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.receipt(w, receipt)
}
