package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"scorechain/internal/chain"
	"scorechain/internal/config"
	"scorechain/internal/hmacauth"
	"scorechain/internal/idempotency"
	"scorechain/internal/opstatus"
)

// Server is the presentation boundary: it feeds validated borrower input to
// the chain client and renders the status and record the core produces.
type Server struct {
	cfg         *config.AppConfig
	chain       chain.Client
	store       idempotency.Store
	tracker     *opstatus.Tracker
	hmac        *hmacauth.Verifier
	httpServer  *http.Server
	metrics     *metricsRegistry
	logger      *slog.Logger
	dbHealthFn  func(context.Context) error
	rpcHealthFn func(context.Context) error
}

func NewServer(cfg *config.AppConfig, chainClient chain.Client, store idempotency.Store, tracker *opstatus.Tracker, logger *slog.Logger) *Server {
	verifier := &hmacauth.Verifier{
		Secret:  cfg.Seed.Secrets.HMACSalt,
		MaxSkew: cfg.Service.HMACClockSkew,
	}

	s := &Server{
		cfg:     cfg,
		chain:   chainClient,
		store:   store,
		tracker: tracker,
		hmac:    verifier,
		metrics: newMetricsRegistry(),
		logger:  logger,
	}

	if checker, ok := store.(interface{ Ping(context.Context) error }); ok {
		s.dbHealthFn = checker.Ping
	}
	if checker, ok := chainClient.(chain.HealthChecker); ok {
		s.rpcHealthFn = checker.Ping
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/borrowers", s.hmac.Middleware(http.HandlerFunc(s.handleSubmitBorrower)))
	mux.HandleFunc("/api/v1/borrowers/", s.handleGetBorrower)
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.Handle("/api/v1/metrics", s.metrics.handler())
	mux.HandleFunc("/api/v1/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Service.HTTPPort),
		Handler:           requestIDMiddleware(mux),
		ReadHeaderTimeout: 15 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("API listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type submitBorrowerResponse struct {
	NID    string `json:"nid"`
	TxHash string `json:"txHash"`
	Status string `json:"status"`
}

func (s *Server) handleSubmitBorrower(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimSpace(r.Header.Get("X-Idempotency-Key"))
	if key == "" {
		http.Error(w, "missing X-Idempotency-Key header", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if existing, _ := s.store.Get(ctx, key); existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.StatusCode)
		_, _ = w.Write(existing.Response)
		s.metrics.incWrite("cached")
		return
	}

	var input chain.BorrowerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid json payload", http.StatusBadRequest)
		return
	}
	if err := input.Validate(); err != nil {
		s.metrics.incWrite("invalid")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.tracker.StartWrite()
	s.syncInProgress()

	txHash, err := s.chain.SubmitBorrower(ctx, input)
	if err != nil {
		s.tracker.WriteFailed(err.Error())
		s.syncInProgress()
		s.metrics.incWrite("failed")
		s.logger.Error("borrower submit failed", "nid", input.NID, "err", err)
		http.Error(w, "failed to submit borrower: "+err.Error(), statusFromWriteErr(err))
		return
	}

	s.tracker.WriteSucceeded(txHash)
	s.syncInProgress()
	s.logger.Info("borrower submitted", "nid", input.NID, "txHash", txHash)

	respBody := submitBorrowerResponse{
		NID:    strings.TrimSpace(input.NID),
		TxHash: txHash,
		Status: "submitted",
	}
	b, _ := json.Marshal(respBody)

	record := idempotency.Record{
		StatusCode: http.StatusCreated,
		Response:   b,
		CreatedAt:  time.Now(),
		ExpiresAt:  time.Now().Add(s.cfg.Service.IdempotencyWindow),
	}
	_ = s.store.Save(ctx, key, record)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(b)
	s.metrics.incWrite("created")
}

func (s *Server) handleGetBorrower(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	nid := strings.TrimPrefix(r.URL.Path, "/api/v1/borrowers/")

	s.tracker.StartRead()
	s.syncInProgress()

	record, err := s.chain.GetBorrower(r.Context(), nid)
	if err != nil {
		s.tracker.ReadFailed(err.Error())
		s.syncInProgress()
		s.writeReadError(w, nid, err)
		return
	}

	s.tracker.ReadSucceeded(record)
	s.syncInProgress()
	s.metrics.incRead("ok")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(record)
}

func (s *Server) writeReadError(w http.ResponseWriter, nid string, err error) {
	switch {
	case errors.Is(err, chain.ErrInvalidInput):
		s.metrics.incRead("invalid")
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, chain.ErrNotFound):
		s.metrics.incRead("not_found")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		// The contract returns an all-default tuple for unknown borrowers,
		// so "never written" and "written with all-zero scores" are the
		// same outcome here.
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "borrower not found",
			"nid":   nid,
			"note":  "the contract does not distinguish an absent borrower from one stored with all default values",
		})
	default:
		s.metrics.incRead("failed")
		s.logger.Error("borrower read failed", "nid", nid, "err", err)
		http.Error(w, "failed to fetch borrower: "+err.Error(), http.StatusBadGateway)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.tracker.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	overallHealthy := true

	rpcInfo := struct {
		Connected bool    `json:"connected"`
		LatencyMs float64 `json:"latency_ms"`
		Error     string  `json:"error,omitempty"`
	}{}

	if s.rpcHealthFn != nil {
		start := time.Now()
		rpcCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.rpcHealthFn(rpcCtx); err != nil {
			rpcInfo.Connected = false
			rpcInfo.Error = err.Error()
			overallHealthy = false
		} else {
			rpcInfo.Connected = true
			rpcInfo.LatencyMs = float64(time.Since(start).Microseconds()) / 1000.0
		}
	} else {
		rpcInfo.Connected = true
	}

	dbInfo := struct {
		Connected bool   `json:"connected"`
		Error     string `json:"error,omitempty"`
	}{Connected: true}

	if s.dbHealthFn != nil {
		dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.dbHealthFn(dbCtx); err != nil {
			dbInfo.Connected = false
			dbInfo.Error = err.Error()
			overallHealthy = false
		}
	}

	status := "healthy"
	if !overallHealthy {
		status = "degraded"
	}

	resp := struct {
		Status   string      `json:"status"`
		RPC      interface{} `json:"rpc"`
		Database interface{} `json:"database"`
	}{
		Status:   status,
		RPC:      rpcInfo,
		Database: dbInfo,
	}

	w.Header().Set("Content-Type", "application/json")
	if !overallHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) syncInProgress() {
	s.metrics.setInProgress(s.tracker.Snapshot().InProgress)
}

func statusFromWriteErr(err error) int {
	if errors.Is(err, chain.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-Id") == "" {
			r.Header.Set("X-Request-Id", strconv.FormatInt(time.Now().UnixNano(), 10))
		}
		next.ServeHTTP(w, r)
	})
}
