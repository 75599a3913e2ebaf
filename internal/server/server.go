package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/costing-forecast/internal/compare"
	"github.com/iwvelando/costing-forecast/internal/config"
	"github.com/iwvelando/costing-forecast/internal/costing"
	"github.com/iwvelando/costing-forecast/internal/export"
	"github.com/iwvelando/costing-forecast/internal/forecast"
	"github.com/iwvelando/costing-forecast/internal/simulation"
	"github.com/iwvelando/costing-forecast/internal/store"
	"github.com/iwvelando/costing-forecast/pkg/constants"
	"github.com/iwvelando/costing-forecast/pkg/output"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ReportReader serves stored reports.
type ReportReader interface {
	ListReports(ctx context.Context) ([]store.ReportSummary, error)
	GetReport(ctx context.Context, id string) (*store.Snapshot, error)
}

// ReportSubmitter accepts finished reports for background persistence.
type ReportSubmitter interface {
	Submit(snapshot store.Snapshot) (id string, ok bool)
}

// Options wires the handler's collaborators. Reports and Recorder may be nil
// when storage is disabled.
type Options struct {
	MaxBodySize int64
	Version     string
	Reports     ReportReader
	Recorder    ReportSubmitter
}

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
	reports     ReportReader
	recorder    ReportSubmitter
}

// NewHandler constructs the HTTP handler serving the costing API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
		reports:     opts.Reports,
		recorder:    opts.Recorder,
	}

	r := chi.NewRouter()
	r.Use(h.limitBody)

	r.Route("/api", func(r chi.Router) {
		// Forecast of every active scenario in an uploaded configuration
		r.Post("/forecast", h.handleForecast)

		// Single snapshot recompute, the editor's live path
		r.Post("/recompute", h.handleRecompute)
		r.Post("/simulate", h.handleSimulate)
		r.Post("/export", h.handleExport)

		// Configuration serialization for editor downloads
		r.Post("/config/export", h.handleConfigExport)

		r.Get("/reports", h.handleListReports)
		r.Get("/reports/{id}", h.handleGetReport)
		r.Get("/compare", h.handleCompare)

		r.Get("/version", h.handleVersion)
	})

	return r
}

func (h *handler) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// recomputeRequest carries one parameter snapshot. Missing parameters fall
// back to the reference operation; a simulation block enables the projection.
type recomputeRequest struct {
	Name       string                       `json:"name"`
	Params     *costing.OperatingParameters `json:"params"`
	Simulation *simulationRequest           `json:"simulation,omitempty"`
}

type simulationRequest struct {
	Days             int     `json:"days"`
	SigmaVolume      float64 `json:"sigmaVolume"`
	DriverIngredient string  `json:"driverIngredient"`
	MinCost          float64 `json:"minCost"`
	MaxCost          float64 `json:"maxCost"`
	ModeCost         float64 `json:"modeCost"`
	Seed             uint64  `json:"seed"`
}

func (s *simulationRequest) config() config.SimulationConfig {
	if s == nil {
		return config.SimulationConfig{}
	}
	sim := config.SimulationConfig{
		Enabled:          true,
		Days:             s.Days,
		SigmaVolume:      s.SigmaVolume,
		DriverIngredient: s.DriverIngredient,
		MinCost:          s.MinCost,
		MaxCost:          s.MaxCost,
		ModeCost:         s.ModeCost,
		Seed:             s.Seed,
	}
	if sim.Days <= 0 {
		sim.Days = constants.DefaultSimulationDays
	}
	if sim.DriverIngredient == "" {
		sim.DriverIngredient = constants.DefaultDriverIngredient
	}
	return sim
}

func (r recomputeRequest) parameters() costing.OperatingParameters {
	if r.Params != nil {
		return r.Params.Clone()
	}
	return defaultParameters()
}

func defaultParameters() costing.OperatingParameters {
	cfg, err := config.LoadConfigurationFromReader(strings.NewReader(""))
	if err != nil {
		return costing.OperatingParameters{}
	}
	return cfg.Common.ToOperatingParameters()
}

type reportResponse struct {
	ReportID string   `json:"reportId,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Duration string   `json:"duration,omitempty"`
	forecast.Forecast
}

type forecastResponse struct {
	Scenarios []reportResponse `json:"scenarios"`
	CSV       string           `json:"csv"`
	Warnings  []string         `json:"warnings,omitempty"`
	Duration  string           `json:"duration"`
}

type simulateResponse struct {
	Params simulation.Params          `json:"params"`
	Series simulation.SimulatedSeries `json:"series"`
}

func (h *handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleForecast"
	start := time.Now()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r.Body); err != nil {
		h.respondBodyError(w, err, "failed to read configuration", op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := cfg.ValidateConfiguration()

	results, err := forecast.GetForecast(h.logger, *cfg)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to compute forecast: %v", err), op)
		return
	}

	response := forecastResponse{
		Scenarios: make([]reportResponse, 0, len(results)),
		CSV:       output.CsvString(results),
		Warnings:  warnings,
	}
	for _, result := range results {
		response.Scenarios = append(response.Scenarios, reportResponse{
			ReportID: h.record(result, op),
			Forecast: result,
		})
	}
	elapsed := time.Since(start)
	response.Duration = elapsed.String()

	h.logger.Info("forecast computed",
		zap.String("op", op),
		zap.Int("scenarios", len(response.Scenarios)),
		zap.Duration("duration", elapsed),
	)
	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRecompute"
	start := time.Now()

	req, ok := h.decodeRecompute(w, r, op)
	if !ok {
		return
	}

	result, warnings, err := h.compute(req)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Debug("recompute finished",
		zap.String("op", op),
		zap.String("name", result.Name),
		zap.Bool("traditional", result.Results.Traditional != nil),
		zap.Duration("duration", elapsed),
	)
	h.writeJSON(w, http.StatusOK, reportResponse{
		ReportID: h.record(result, op),
		Warnings: warnings,
		Duration: elapsed.String(),
		Forecast: result,
	})
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"

	req, ok := h.decodeRecompute(w, r, op)
	if !ok {
		return
	}
	if req.Simulation == nil {
		req.Simulation = &simulationRequest{}
	}

	sim := req.Simulation.config()
	params := sim.SimulationParams(req.parameters())
	if err := params.Validate(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	series := forecast.NewGenerator(sim.Seed).Simulate(params)
	h.writeJSON(w, http.StatusOK, simulateResponse{Params: params, Series: series})
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"

	req, ok := h.decodeRecompute(w, r, op)
	if !ok {
		return
	}
	result, _, err := h.compute(req)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, export.FromForecast(result)); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to build workbook: %v", err), op)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(result.Name)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("failed to write workbook",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func exportFilename(name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '_':
			return '-'
		default:
			return -1
		}
	}, strings.TrimSpace(name))
	if slug == "" {
		slug = "costing-report"
	}
	return slug + ".xlsx"
}

func (h *handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListReports"
	if !h.requireStorage(w, op) {
		return
	}

	reports, err := h.reports.ListReports(r.Context())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to list reports: %v", err), op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

func (h *handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetReport"
	if !h.requireStorage(w, op) {
		return
	}

	snapshot, ok := h.loadReport(r.Context(), w, chi.URLParam(r, "id"), op)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	if !h.requireStorage(w, op) {
		return
	}

	baseID := strings.TrimSpace(r.URL.Query().Get("base"))
	otherID := strings.TrimSpace(r.URL.Query().Get("other"))
	if baseID == "" || otherID == "" {
		h.respondErrorWithOp(w, http.StatusBadRequest, "both base and other report identifiers are required", op)
		return
	}
	if baseID == otherID {
		h.respondErrorWithOp(w, http.StatusBadRequest, compare.ErrSameReport.Error(), op)
		return
	}

	base, ok := h.loadReport(r.Context(), w, baseID, op)
	if !ok {
		return
	}
	other, ok := h.loadReport(r.Context(), w, otherID, op)
	if !ok {
		return
	}

	comparison, err := compare.Compare(base, other)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, comparison)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// handleConfigExport turns an editor payload into a configuration document
// with the sections in a stable order.
func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondBodyError(w, err, "failed to decode configuration", op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

// configSectionOrder lists the sections written first; other keys follow
// sorted by name.
var configSectionOrder = []string{"logging", "output", "storage", "simulation", "common", "scenarios"}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range configSectionOrder {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	return yaml.Marshal(orderedConfig{items: items})
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func (h *handler) decodeRecompute(w http.ResponseWriter, r *http.Request, op string) (recomputeRequest, bool) {
	var req recomputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondBodyError(w, err, "failed to decode request", op)
		return req, false
	}
	return req, true
}

func (h *handler) compute(req recomputeRequest) (forecast.Forecast, []string, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = config.CommonScenarioName
	}
	params := req.parameters()

	var warnings []string
	if err := params.Validate(); err != nil {
		if errors.Is(err, costing.ErrNonFinite) {
			return forecast.Forecast{Name: name, Params: params}, nil, err
		}
		warnings = strings.Split(err.Error(), "\n")
	}

	result, err := forecast.RunScenario(h.logger, name, params, req.Simulation.config())
	if err != nil {
		return result, warnings, err
	}
	if result.Results.TraditionalError != "" {
		warnings = append(warnings, result.Results.TraditionalError)
	}
	return result, warnings, nil
}

// record hands result to the recorder and returns the identifier it will be
// stored under, or an empty string when nothing is recorded.
func (h *handler) record(result forecast.Forecast, op string) string {
	if h.recorder == nil {
		return ""
	}
	id, ok := h.recorder.Submit(store.NewSnapshot(result.Name, result.GeneratedAt, result.Results))
	if !ok {
		h.logger.Warn("report not recorded",
			zap.String("op", op),
			zap.String("name", result.Name),
		)
		return ""
	}
	return id
}

func (h *handler) requireStorage(w http.ResponseWriter, op string) bool {
	if h.reports == nil {
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, "report storage is not configured", op)
		return false
	}
	return true
}

func (h *handler) loadReport(ctx context.Context, w http.ResponseWriter, id, op string) (*store.Snapshot, bool) {
	snapshot, err := h.reports.GetReport(ctx, id)
	if errors.Is(err, store.ErrReportNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return nil, false
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to load report: %v", err), op)
		return nil, false
	}
	return snapshot, true
}

func (h *handler) respondBodyError(w http.ResponseWriter, err error, msg, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", msg, err), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
