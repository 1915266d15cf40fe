// Package httpapi exposes the control plane over HTTP. Routes map one to one
// onto the lifecycle managers; all responses are structured JSON records.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"simcore/internal/adapters/covexport"
	"simcore/internal/core"
	"simcore/pkg/domain"
)

const (
	defaultStepCount     = 1
	defaultMemorySize    = 256
	defaultMemoryAddress = "0x00000000"
	defaultTimeStepNS    = 1000
)

// Handler routes control-plane requests.
type Handler struct {
	plane    *core.ControlPlane
	exporter *covexport.Exporter
	metrics  *Metrics
}

// NewHandler constructs the HTTP handler. metrics may be nil to disable the
// scrape endpoint and per-request instrumentation.
func NewHandler(plane *core.ControlPlane, exporter *covexport.Exporter, metrics *Metrics) *Handler {
	return &Handler{plane: plane, exporter: exporter, metrics: metrics}
}

// Router returns the fully wired mux with logging and instrumentation.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /simulation/create", h.simulationCreate)
	mux.HandleFunc("POST /simulation/{id}/start", h.simulationStart)
	mux.HandleFunc("POST /simulation/{id}/stop", h.simulationStop)
	mux.HandleFunc("GET /simulation/{id}/status", h.simulationStatus)
	mux.HandleFunc("GET /simulation/list", h.simulationList)
	mux.HandleFunc("DELETE /simulation/{id}", h.simulationDelete)

	mux.HandleFunc("POST /execution/load", h.executionLoad)
	mux.HandleFunc("POST /execution/{id}/step", h.executionStep)
	mux.HandleFunc("POST /execution/{id}/run", h.executionRun)
	mux.HandleFunc("POST /execution/{id}/breakpoint", h.executionSetBreakpoint)
	mux.HandleFunc("DELETE /execution/{id}/breakpoint/{address}", h.executionRemoveBreakpoint)
	mux.HandleFunc("GET /execution/{id}/registers", h.executionRegisters)
	mux.HandleFunc("GET /execution/{id}/memory", h.executionMemory)
	mux.HandleFunc("GET /execution/{id}/status", h.executionStatus)

	mux.HandleFunc("POST /coverage/{executionId}/start", h.coverageStart)
	mux.HandleFunc("POST /coverage/{id}/stop", h.coverageStop)
	mux.HandleFunc("GET /coverage/{id}/report", h.coverageReport)
	mux.HandleFunc("GET /coverage/{id}/export", h.coverageExport)
	mux.HandleFunc("GET /coverage/{id}/status", h.coverageStatus)

	mux.HandleFunc("POST /cosimulation/create", h.cosimCreate)
	mux.HandleFunc("POST /cosimulation/{id}/start", h.cosimStart)
	mux.HandleFunc("POST /cosimulation/{id}/sync-step", h.cosimSyncStep)
	mux.HandleFunc("POST /cosimulation/{id}/stop", h.cosimStop)
	mux.HandleFunc("GET /cosimulation/{id}/status", h.cosimStatus)
	mux.HandleFunc("POST /cosimulation/{id}/exchange", h.cosimExchange)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": "simcore"})
	})
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}

	return instrument(mux, h.metrics)
}

// --- simulation ---

func (h *Handler) simulationCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProcessorType string         `json:"processor_type"`
		Config        map[string]any `json:"config"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProcessorType == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "processor_type is required")
		return
	}
	inst := h.plane.Simulations.Create(req.ProcessorType, req.Config)
	writeJSON(w, http.StatusCreated, inst)
}

func (h *Handler) simulationStart(w http.ResponseWriter, r *http.Request) {
	inst, err := h.plane.Simulations.Start(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (h *Handler) simulationStop(w http.ResponseWriter, r *http.Request) {
	inst, err := h.plane.Simulations.Stop(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (h *Handler) simulationStatus(w http.ResponseWriter, r *http.Request) {
	inst, err := h.plane.Simulations.Status(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (h *Handler) simulationList(w http.ResponseWriter, _ *http.Request) {
	items, count := h.plane.Simulations.List()
	writeJSON(w, http.StatusOK, map[string]any{"simulations": items, "count": count})
}

func (h *Handler) simulationDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.plane.Simulations.Delete(id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": "deleted"})
}

// --- execution ---

func (h *Handler) executionLoad(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SimulationID string `json:"simulation_id"`
		ProgramPath  string `json:"program_path"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SimulationID == "" || req.ProgramPath == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "simulation_id and program_path are required")
		return
	}
	session := h.plane.Executions.LoadProgram(req.SimulationID, req.ProgramPath)
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) executionStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count *int `json:"count"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	count := defaultStepCount
	if req.Count != nil {
		count = *req.Count
	}
	session, err := h.plane.Executions.Step(r.Context(), r.PathValue("id"), count)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) executionRun(w http.ResponseWriter, r *http.Request) {
	session, err := h.plane.Executions.Run(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) executionSetBreakpoint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Address == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "address is required")
		return
	}
	session, err := h.plane.Executions.SetBreakpoint(r.PathValue("id"), req.Address)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) executionRemoveBreakpoint(w http.ResponseWriter, r *http.Request) {
	session, err := h.plane.Executions.RemoveBreakpoint(r.PathValue("id"), r.PathValue("address"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) executionRegisters(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	regs, err := h.plane.Executions.ReadRegisters(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"execution_id": id, "registers": regs})
}

func (h *Handler) executionMemory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	address := r.URL.Query().Get("address")
	if address == "" {
		address = defaultMemoryAddress
	}
	size := defaultMemorySize
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_argument", fmt.Sprintf("invalid size %q", raw))
			return
		}
		size = parsed
	}
	data, err := h.plane.Executions.ReadMemory(r.Context(), id, address, size)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"execution_id": id,
		"address":      address,
		"size":         size,
		"data":         data,
	})
}

func (h *Handler) executionStatus(w http.ResponseWriter, r *http.Request) {
	session, err := h.plane.Executions.Status(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// --- coverage ---

func (h *Handler) coverageStart(w http.ResponseWriter, r *http.Request) {
	session := h.plane.Coverage.Start(r.PathValue("executionId"))
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) coverageStop(w http.ResponseWriter, r *http.Request) {
	session, err := h.plane.Coverage.Stop(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) coverageReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.plane.Coverage.Report(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reportPayload(report))
}

func (h *Handler) coverageExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	report, err := h.plane.Coverage.Report(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if !validExportFormat(format) {
		writeError(w, http.StatusBadRequest, "invalid_argument", "format must contain only lowercase letters and digits")
		return
	}
	artifact, err := h.exporter.Export(r.Context(), report, covexport.Format(format))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"coverage_id": id, "artifact": artifact})
}

// validExportFormat accepts the empty string and lowercase alphanumeric
// tokens. The format becomes a blob key extension, so path characters are
// rejected here rather than surfacing as a storage error.
func validExportFormat(format string) bool {
	for _, r := range format {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func (h *Handler) coverageStatus(w http.ResponseWriter, r *http.Request) {
	session, err := h.plane.Coverage.Status(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func reportPayload(report core.CoverageReport) map[string]any {
	return map[string]any{
		"coverage_id":         report.Session.ID,
		"execution_id":        report.Session.ExecutionID,
		"status":              report.Session.Status,
		"total_lines":         report.Session.TotalLines,
		"covered_lines":       report.Session.CoveredLines,
		"coverage_percentage": report.Percentage,
		"files":               report.Files,
	}
}

// --- cosimulation ---

func (h *Handler) cosimCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Components []struct {
			Type   string         `json:"type"`
			Config map[string]any `json:"config"`
		} `json:"components"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Components) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_argument", "components list is required")
		return
	}
	specs := make([]core.ComponentSpec, 0, len(req.Components))
	for _, comp := range req.Components {
		specs = append(specs, core.ComponentSpec{Type: comp.Type, Config: comp.Config})
	}
	session := h.plane.CoSimulations.Create(specs)
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) cosimStart(w http.ResponseWriter, r *http.Request) {
	session, err := h.plane.CoSimulations.Start(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) cosimSyncStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TimeStepNS *int64 `json:"time_step_ns"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	step := int64(defaultTimeStepNS)
	if req.TimeStepNS != nil {
		step = *req.TimeStepNS
	}
	id := r.PathValue("id")
	result, err := h.plane.CoSimulations.SyncStep(id, step)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cosimulation_id": id,
		"sync_count":      result.SyncCount,
		"time_ns":         result.TimeNS,
	})
}

func (h *Handler) cosimStop(w http.ResponseWriter, r *http.Request) {
	session, err := h.plane.CoSimulations.Stop(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) cosimStatus(w http.ResponseWriter, r *http.Request) {
	session, err := h.plane.CoSimulations.Status(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) cosimExchange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string         `json:"source"`
		Target string         `json:"target"`
		Data   map[string]any `json:"data"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Source == "" || req.Target == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "source and target are required")
		return
	}
	id := r.PathValue("id")
	ack, err := h.plane.CoSimulations.ExchangeData(id, req.Source, req.Target, req.Data)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cosimulation_id": id,
		"status":          ack.Status,
		"source":          ack.Source,
		"target":          ack.Target,
	})
}

// --- helpers ---

// decodeBody tolerates an empty body so operations with all-optional fields
// can be called without one. A malformed body is a client error.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "malformed request body")
		return false
	}
	return true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case domain.IsInvalidArgument(err):
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]any{"kind": kind, "error": message})
}
