package verifierd

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxVerifyBodyBytes = 1 << 20

// Server exposes the verification HTTP API.
type Server struct {
	detector   *Detector
	fetcher    *Fetcher
	node       NodeClient
	oracleAddr string
	logger     *slog.Logger
	router     http.Handler
}

// VerifyRequest is the payload accepted by POST /verify. Either a
// scenario name or inline post data must be supplied. When a deal ID
// is present and submit is true the resulting score is pushed to the
// ledger node as the oracle.
type VerifyRequest struct {
	PostURL  string    `json:"postUrl"`
	Scenario string    `json:"scenario,omitempty"`
	Post     *PostData `json:"post,omitempty"`
	DealID   string    `json:"dealId,omitempty"`
	Submit   bool      `json:"submit,omitempty"`
}

// VerifyResponse wraps the detection report returned to the caller.
type VerifyResponse struct {
	ReportID  string `json:"reportId"`
	DealID    string `json:"dealId,omitempty"`
	Score     uint8  `json:"score"`
	Submitted bool   `json:"submitted"`
	Report    Report `json:"report"`
}

// NewServer wires the verification pipeline behind a chi router.
func NewServer(detector *Detector, fetcher *Fetcher, node NodeClient, oracleAddr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		detector:   detector,
		fetcher:    fetcher,
		node:       node,
		oracleAddr: oracleAddr,
		logger:     logger,
	}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/thresholds", s.handleThresholds)
	r.Get("/scenarios", s.handleScenarios)
	r.Post("/verify", s.handleVerify)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleThresholds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"passThreshold": s.detector.PassThreshold(),
		"weights":       s.detector.Weights(),
	})
}

func (s *Server) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"scenarios": Scenarios()})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req VerifyRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxVerifyBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	var post PostData
	switch {
	case req.Post != nil:
		post = *req.Post
		if post.PostURL == "" {
			post.PostURL = req.PostURL
		}
	case strings.TrimSpace(req.Scenario) != "":
		var err error
		post, err = s.fetcher.Fetch(req.PostURL, strings.TrimSpace(req.Scenario))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	default:
		writeJSONError(w, http.StatusBadRequest, "scenario or post data required")
		return
	}

	report := s.detector.Detect(post)
	resp := VerifyResponse{
		ReportID: uuid.NewString(),
		DealID:   strings.TrimSpace(req.DealID),
		Score:    report.Score(),
		Report:   report,
	}

	s.logger.Info("verification complete",
		"reportId", resp.ReportID,
		"postUrl", post.PostURL,
		"score", resp.Score,
		"recommendation", report.Recommendation,
		"flags", len(report.FraudFlags),
	)

	if req.Submit && resp.DealID != "" {
		if s.node == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "node submission not configured")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		if err := s.node.SubmitScore(ctx, resp.DealID, s.oracleAddr, resp.Score); err != nil {
			s.logger.Error("score submission failed", "dealId", resp.DealID, "error", err)
			writeJSONError(w, http.StatusBadGateway, "score submission failed")
			return
		}
		resp.Submitted = true
		s.logger.Info("score submitted", "dealId", resp.DealID, "score", resp.Score, "oracle", s.oracleAddr)
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
