package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"beamsim.klederson.com/internal/beam"
	"beamsim.klederson.com/internal/scenario"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

var errNotFound = errors.New("not found")

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusBadRequest
	if errors.Is(err, beam.ErrInvalidIndex) || errors.Is(err, errNotFound) {
		code = http.StatusNotFound
	}
	s.log.WithError(err).WithField("code", code).Debug("request rejected")
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func handleParam(r *http.Request) (beam.Handle, error) {
	n, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return beam.NoHandle, fmt.Errorf("array id %q: %w", r.PathValue("id"), errBadInput)
	}
	return beam.Handle(n), nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %v: %w", err, errBadInput)
	}
	return nil
}

func bodyFormat(r *http.Request) scenario.Format {
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		return scenario.FormatYAML
	}
	return scenario.FormatJSON
}

// ---------- scenario ----------

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Scenario())
}

type loadResponse struct {
	Active   beam.Handle `json:"active"`
	Warnings []string    `json:"warnings,omitempty"`
}

func (s *Server) handlePutScenario(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		s.writeError(w, fmt.Errorf("read body: %v: %w", err, errBadInput))
		return
	}
	sc, warnings, err := scenario.Decode(data, bodyFormat(r))
	if err != nil {
		s.writeError(w, fmt.Errorf("%v: %w", err, errBadInput))
		return
	}
	resp := loadResponse{Active: s.manager.Load(sc)}
	for _, wn := range warnings {
		s.log.WithField("field", wn.Path).Warn(wn.Reason)
		resp.Warnings = append(resp.Warnings, wn.String())
	}
	s.changed()
	writeJSON(w, http.StatusOK, resp)
}

// ---------- arrays ----------

type arrayResponse struct {
	Handle beam.Handle      `json:"handle"`
	Array  beam.ArrayConfig `json:"array"`
}

func (s *Server) handleListArrays(w http.ResponseWriter, r *http.Request) {
	arrays := s.manager.Arrays()
	out := make([]arrayResponse, len(arrays))
	for i, a := range arrays {
		out[i] = arrayResponse{Handle: beam.Handle(i), Array: a.Config()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetArray(w http.ResponseWriter, r *http.Request) {
	h, err := handleParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cfg, err := s.arrayConfig(h)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, arrayResponse{Handle: h, Array: cfg})
}

func (s *Server) handleAddArray(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		s.writeError(w, fmt.Errorf("read body: %v: %w", err, errBadInput))
		return
	}
	cfg, warnings, err := scenario.DecodeArray(data, bodyFormat(r))
	if err != nil {
		s.writeError(w, fmt.Errorf("%v: %w", err, errBadInput))
		return
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		cfg.Name = fmt.Sprintf("%s %d", beam.DefaultArrayName, s.manager.Len()+1)
	}
	for _, wn := range warnings {
		s.log.WithField("field", wn.Path).Warn(wn.Reason)
	}
	h, out, err := s.addArray(cfg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, arrayResponse{Handle: h, Array: out})
}

func (s *Server) handlePatchArray(w http.ResponseWriter, r *http.Request) {
	h, err := handleParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var p beam.ArrayPatch
	if err := decodeBody(r, &p); err != nil {
		s.writeError(w, err)
		return
	}
	cfg, err := s.patchArray(h, p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, arrayResponse{Handle: h, Array: cfg})
}

func (s *Server) handleDeleteArray(w http.ResponseWriter, r *http.Request) {
	h, err := handleParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.removeArray(h); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDuplicateArray(w http.ResponseWriter, r *http.Request) {
	h, err := handleParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	dup, err := s.manager.DuplicateArray(h)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.changed()
	cfg, err := s.arrayConfig(dup)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, arrayResponse{Handle: dup, Array: cfg})
}

func (s *Server) handleResetArray(w http.ResponseWriter, r *http.Request) {
	h, err := handleParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.manager.ResetArray(h); err != nil {
		s.writeError(w, err)
		return
	}
	s.changed()
	cfg, err := s.arrayConfig(h)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, arrayResponse{Handle: h, Array: cfg})
}

func (s *Server) handlePutElement(w http.ResponseWriter, r *http.Request) {
	h, err := handleParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		s.writeError(w, fmt.Errorf("element index %q: %w", r.PathValue("idx"), errBadInput))
		return
	}
	var u ElementUpdate
	if err := decodeBody(r, &u); err != nil {
		s.writeError(w, err)
		return
	}
	cfg, err := s.updateElement(h, idx, u)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, arrayResponse{Handle: h, Array: cfg})
}

// ---------- shared settings ----------

type statusResponse struct {
	beam.Status
	Grid     beam.Grid `json:"grid"`
	Sessions int       `json:"sessions"`
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var u SettingsUpdate
	if err := decodeBody(r, &u); err != nil {
		s.writeError(w, err)
		return
	}
	st, err := s.applySettings(u)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:   s.manager.Status(),
		Grid:     s.Grid(),
		Sessions: s.hub.count(),
	})
}

// ---------- synthesis ----------

// gridFromQuery overlays rows, cols, extent_x and extent_y onto the current
// window.
func (s *Server) gridFromQuery(r *http.Request) (beam.Grid, error) {
	g := s.Grid()
	q := r.URL.Query()
	ints := map[string]*int{"rows": &g.Rows, "cols": &g.Cols}
	for key, dst := range ints {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return g, fmt.Errorf("%s=%q: %w", key, v, errBadInput)
			}
			*dst = n
		}
	}
	floats := map[string]*float64{"extent_x": &g.ExtentX, "extent_y": &g.ExtentY}
	for key, dst := range floats {
		if v := q.Get(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return g, fmt.Errorf("%s=%q: %w", key, v, errBadInput)
			}
			*dst = f
		}
	}
	return g, g.Validate()
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	g, err := s.gridFromQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	hm, err := s.heatmap(r.Context(), g)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hm)
}

func (s *Server) handlePattern(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pattern(r.Context()))
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Overlay())
}

func (s *Server) handleBeamMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pattern(r.Context()).Metrics())
}

// ---------- presets ----------

type presetSummary struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Grid        beam.Grid `json:"grid"`
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	all := beam.Presets()
	out := make([]presetSummary, len(all))
	for i, p := range all {
		out[i] = presetSummary{Name: p.Name, Description: p.Description, Grid: p.Grid}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	p, err := s.loadPreset(r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presetSummary{Name: p.Name, Description: p.Description, Grid: p.Grid})
}
