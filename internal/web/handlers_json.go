package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vitos/solidity_screener/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultScanListLimit = 20
	maxKlineLimit        = 1000
)

type errorBody struct {
	Error string `json:"error"`
}

type symbolsResponse struct {
	MinVolume float64  `json:"min_volume"`
	Symbols   []string `json:"symbols"`
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	minVolume, err := floatParam(r, "min_volume", s.defaults.MinVolume)
	if err != nil || minVolume < 0 {
		http.Error(w, "min_volume must be a non-negative number", http.StatusBadRequest)
		return
	}

	symbols, err := s.lister.ListEligibleSymbols(r.Context(), minVolume)
	if err != nil {
		s.writeError(w, "Failed to list symbols", err)
		return
	}
	s.writeJSON(w, http.StatusOK, symbolsResponse{MinVolume: minVolume, Symbols: symbols})
}

func (s *Server) handleSolidity(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	ratio, err := ratioParam(r, s.defaults.Ratio)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.analyzer.AnalyzeSolidity(r.Context(), symbol, ratio)
	if err != nil {
		s.writeError(w, "Failed to analyze solidity", err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	minVolume, err := floatParam(r, "min_volume", s.defaults.MinVolume)
	if err != nil || minVolume < 0 {
		http.Error(w, "min_volume must be a non-negative number", http.StatusBadRequest)
		return
	}
	ratio, err := ratioParam(r, s.defaults.Ratio)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := s.scanner.Scan(r.Context(), minVolume, ratio)
	if err != nil {
		s.writeError(w, "Scan failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultScanListLimit)
	if err != nil || limit <= 0 {
		http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}

	if s.scanRepo == nil {
		s.writeJSON(w, http.StatusOK, []*domain.ScanSummary{})
		return
	}

	scans, err := s.scanRepo.ListScanReports(r.Context(), limit)
	if err != nil {
		s.writeError(w, "Failed to list scans", err)
		return
	}
	if scans == nil {
		scans = []*domain.ScanSummary{}
	}
	s.writeJSON(w, http.StatusOK, scans)
}

func (s *Server) handleGetCandles(w http.ResponseWriter, r *http.Request) {
	symbol, interval, limit, ok := s.klineParams(w, r)
	if !ok {
		return
	}

	candles, err := s.streamer.History(r.Context(), symbol, interval, limit)
	if err != nil {
		s.writeError(w, "Failed to fetch candles", err)
		return
	}
	if candles == nil {
		candles = []domain.Candle{}
	}
	s.writeJSON(w, http.StatusOK, candles)
}

// klineParams validates symbol, interval and limit. It writes the 400 itself.
func (s *Server) klineParams(w http.ResponseWriter, r *http.Request) (string, string, int, bool) {
	symbol := symbolParam(r)
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return "", "", 0, false
	}
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = s.defaults.Interval
	}
	limit, err := intParam(r, "limit", s.defaults.Limit)
	if err != nil || limit <= 0 || limit > maxKlineLimit {
		http.Error(w, fmt.Sprintf("limit must be between 1 and %d", maxKlineLimit), http.StatusBadRequest)
		return "", "", 0, false
	}
	return symbol, interval, limit, true
}

// writeError maps use case failures to a status code and logs them.
func (s *Server) writeError(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Warn(msg, zap.Int("status", status), zap.Error(err))
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads this.
		return 499
	case errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrParse), errors.Is(err, domain.ErrStream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Int("status", status), zap.Error(err))
	}
}

func symbolParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
}

func ratioParam(r *http.Request, def float64) (float64, error) {
	ratio, err := floatParam(r, "ratio", def)
	if err != nil || ratio <= 0 || ratio > 100 {
		return 0, errors.New("ratio must be a percentage in (0, 100]")
	}
	return ratio, nil
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
