package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clebronrivera/reading-compass-sub001/internal/core"
	"github.com/clebronrivera/reading-compass-sub001/internal/logging"
	"github.com/clebronrivera/reading-compass-sub001/internal/schema"
	"github.com/clebronrivera/reading-compass-sub001/internal/tabular"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListImportTypes(w http.ResponseWriter, r *http.Request) {
	type typeInfo struct {
		Type     schema.ImportType `json:"type"`
		Label    string            `json:"label"`
		Vertical bool              `json:"vertical"`
		Columns  []string          `json:"columns"`
	}
	var out []typeInfo
	for _, ts := range schema.All() {
		cols := make([]string, len(ts.FieldSpecs))
		for i, fs := range ts.FieldSpecs {
			cols[i] = fs.Name
		}
		out = append(out, typeInfo{Type: ts.Type, Label: ts.Label, Vertical: ts.Vertical, Columns: cols})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	t := schema.ImportType(chi.URLParam(r, "importType"))
	tmpl, ok := schema.Template(t)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown import type "+string(t))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+string(t)+`_template.csv"`)
	_, _ = io.WriteString(w, tmpl)
}

// readGrid reads and parses the request body as a delimited grid with a
// header row. It writes the error response itself and returns ok=false on
// failure.
func (s *Server) readGrid(w http.ResponseWriter, r *http.Request) (header []string, rows [][]string, ok bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodySize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large or unreadable")
		return nil, nil, false
	}
	grid, err := tabular.Parse(string(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	if len(grid) == 0 {
		writeError(w, http.StatusBadRequest, "empty input")
		return nil, nil, false
	}
	return grid[0], grid[1:], true
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	t := schema.ImportType(chi.URLParam(r, "importType"))
	if _, ok := schema.Lookup(t); !ok {
		writeError(w, http.StatusNotFound, "unknown import type "+string(t))
		return
	}
	header, rows, ok := s.readGrid(w, r)
	if !ok {
		return
	}

	rowErrs := core.ValidateRows(t, header, rows)
	report, err := s.service.ValidateReferences(r.Context(), t, header, rows,
		r.URL.Query().Get("assessment"))
	if err != nil {
		logging.FromContext(r.Context()).Error("reference validation failed",
			"import_type", t, "error", err)
		writeError(w, http.StatusInternalServerError, "reference validation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":     len(rowErrs) == 0 && report.Valid,
		"rowErrors": rowErrs,
		"refErrors": report.Errors,
		"warnings":  report.Warnings,
		"analysis":  report.Analysis,
	})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	t := schema.ImportType(chi.URLParam(r, "importType"))
	if _, ok := schema.Lookup(t); !ok {
		writeError(w, http.StatusNotFound, "unknown import type "+string(t))
		return
	}
	header, rows, ok := s.readGrid(w, r)
	if !ok {
		return
	}

	result := s.service.ProcessImport(r.Context(), core.ImportRequest{
		Type:         t,
		Header:       header,
		Rows:         rows,
		Note:         r.URL.Query().Get("note"),
		Actor:        s.actor(r),
		AssessmentID: r.URL.Query().Get("assessment"),
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.service.ImportHistory(r.Context(), r.URL.Query().Get("assessment"), limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("list import history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list import history")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCheckActivation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "assessmentID")
	result, err := s.service.CheckAssessmentActivation(r.Context(), id)
	if err != nil {
		s.writeActivationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "assessmentID")
	if err := s.service.ActivateAssessment(r.Context(), id, s.actor(r)); err != nil {
		s.writeActivationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

func (s *Server) handleMarkValid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "specVersionID")
	if err := s.service.MarkSpecVersionValid(r.Context(), id, s.actor(r)); err != nil {
		s.writeActivationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"validationStatus": "valid"})
}

func (s *Server) handleMarkIncomplete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "specVersionID")
	if err := s.service.MarkSpecVersionIncomplete(r.Context(), id, s.actor(r)); err != nil {
		s.writeActivationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"validationStatus": "incomplete"})
}

// writeActivationError maps gate and lookup failures to status codes:
// blocked activations answer 409 with the complete reason list so the
// caller sees every unmet condition, not a generic forbidden.
func (s *Server) writeActivationError(w http.ResponseWriter, r *http.Request, err error) {
	var gateErr *core.GateError
	if errors.As(err, &gateErr) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   gateErr.Error(),
			"reasons": gateErr.Reasons,
		})
		return
	}
	var notFound *core.NotFoundError
	if errors.As(err, &notFound) {
		writeError(w, http.StatusNotFound, notFound.Error())
		return
	}
	logging.FromContext(r.Context()).Error("activation request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "activation request failed")
}

func (s *Server) actor(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return s.defaultActor
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
