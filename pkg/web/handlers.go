package web

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ritzau/campus-nav/pkg/engine"
	"github.com/ritzau/campus-nav/pkg/importer"
	"github.com/ritzau/campus-nav/pkg/logging"
	"github.com/ritzau/campus-nav/pkg/model"
	"github.com/ritzau/campus-nav/pkg/pathfind"
	"github.com/ritzau/campus-nav/pkg/records"
)

// LocationRequest creates or edits a location. Omitted fields are left unchanged on edit.
type LocationRequest struct {
	Name         *string  `json:"name"`
	X            *float64 `json:"x"`
	Y            *float64 `json:"y"`
	Introduction *string  `json:"introduction"`
}

// PathRequest creates or edits a path. Without endpoints the selected pair is connected.
type PathRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

// ClickRequest is a pointer event in map coordinates
type ClickRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Double bool    `json:"double"`
}

// HistoryResponse is returned by undo and redo
type HistoryResponse struct {
	Applied bool         `json:"applied"`
	Notice  string       `json:"notice,omitempty"`
	State   engine.State `json:"state"`
}

// RecordSet is the JSON form of an import or export
type RecordSet struct {
	Nodes []model.NodeRecord `json:"nodes"`
	Edges []model.EdgeRecord `json:"edges"`
}

// ImportResponse reports what an import changed
type ImportResponse struct {
	Summary importer.Summary `json:"summary"`
	State   engine.State     `json:"state"`
}

// RouteValidation is the result of validating a list of stops
type RouteValidation struct {
	Stops    []string `json:"stops"`
	Distance float64  `json:"distance"`
}

const maxUploadBytes = 8 << 20

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := s.engine.State()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := s.engine.Stats()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	s.mu.Lock()
	loc, err := s.engine.Location(name)
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == nil || req.X == nil || req.Y == nil {
		writeError(w, r, badRequest("name, x and y are required"))
		return
	}
	intro := ""
	if req.Introduction != nil {
		intro = *req.Introduction
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.AddLocation(*req.Name, *req.X, *req.Y, intro); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.engine.State())
}

// handleUpdateLocation moves a location, or renames it and edits its
// introduction. Each is one undo step, so they cannot be combined.
func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req LocationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	moving := req.X != nil || req.Y != nil
	editing := req.Name != nil || req.Introduction != nil
	switch {
	case moving && editing:
		writeError(w, r, badRequest("move and edit a location in separate requests"))
		return
	case !moving && !editing:
		writeError(w, r, badRequest("nothing to change"))
		return
	case moving && (req.X == nil || req.Y == nil):
		writeError(w, r, badRequest("moving needs both x and y"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if moving {
		err = s.engine.MoveLocation(name, *req.X, *req.Y)
	} else {
		err = s.editLocation(name, req)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.State())
}

// editLocation fills omitted fields from the current location. Callers hold mu.
func (s *Server) editLocation(name string, req LocationRequest) error {
	current, err := s.engine.Location(name)
	if err != nil {
		return err
	}
	newName, intro := current.Name, current.Introduction
	if req.Name != nil {
		newName = *req.Name
	}
	if req.Introduction != nil {
		intro = *req.Introduction
	}
	return s.engine.EditLocation(name, newName, intro)
}

func (s *Server) handleRemoveLocation(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.RemoveLocation(name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleAddPath(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch {
	case req.From == "" && req.To == "":
		err = s.engine.AddPathBetweenSelected(req.Weight)
	case req.From == "" || req.To == "":
		err = badRequest("from and to must both be set or both be empty")
	default:
		err = s.engine.AddPath(req.From, req.To, req.Weight)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.engine.State())
}

func (s *Server) handleUpdatePath(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req PathRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.UpdatePath(vars["from"], vars["to"], req.Weight); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleRemovePath(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.RemovePath(vars["from"], vars["to"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleRemoveSelected(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.RemoveSelected(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s.mu.Lock()
	res := s.engine.Click(req.X, req.Y, req.Double)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Reset()
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notice, applied := s.engine.Undo()
	writeJSON(w, http.StatusOK, HistoryResponse{Applied: applied, Notice: notice.Message, State: s.engine.State()})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notice, applied := s.engine.Redo()
	writeJSON(w, http.StatusOK, HistoryResponse{Applied: applied, Notice: notice.Message, State: s.engine.State()})
}

// handleRoute computes the shortest route between from and to, or between the
// selected locations when both are omitted.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		route pathfind.Route
		err   error
	)
	switch {
	case from == "" && to == "":
		route, err = s.engine.ShortestPathSelected()
	case from == "" || to == "":
		err = badRequest("from and to must both be set or both be empty")
	default:
		route, err = s.engine.ShortestPath(from, to)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

func (s *Server) handleRecommendedRoutes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	checks := s.engine.RecommendedRoutes()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, checks)
}

func (s *Server) handleValidateRoute(w http.ResponseWriter, r *http.Request) {
	var req pathfind.FixedRoute
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s.mu.Lock()
	dist, err := s.engine.ValidateRoute(req.Stops)
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RouteValidation{Stops: req.Stops, Distance: dist})
}

// handleImport accepts either a JSON RecordSet or a multipart form with
// "nodes" and "edges" CSV files. The mode query parameter overrides the
// configured import mode.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	mode := s.importMode
	if q := r.URL.Query().Get("mode"); q != "" {
		m, err := importer.ParseMode(q)
		if err != nil {
			writeError(w, r, badRequest(err.Error()))
			return
		}
		mode = m
	}

	set, err := readRecordSet(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	summary, err := s.engine.Import(set.Nodes, set.Edges, mode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Summary: summary, State: s.engine.State()})
}

// handleExport returns all records as JSON, or one table as CSV with
// ?format=csv&table=nodes|edges.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	nodes, edges := s.engine.Export()
	s.mu.Unlock()

	q := r.URL.Query()
	if q.Get("format") != "csv" {
		writeJSON(w, http.StatusOK, RecordSet{Nodes: nodes, Edges: edges})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	var err error
	switch q.Get("table") {
	case "nodes", "":
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", records.NodesFile))
		err = records.WriteNodes(w, nodes)
	case "edges":
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", records.EdgesFile))
		err = records.WriteEdges(w, edges)
	default:
		w.Header().Del("Content-Type")
		writeError(w, r, badRequest("table must be nodes or edges"))
		return
	}
	if err != nil {
		logging.WarnContext(r.Context(), "export failed", "error", err)
	}
}

func readRecordSet(r *http.Request) (RecordSet, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var set RecordSet
		if err := decodeJSON(r, &set); err != nil {
			return RecordSet{}, err
		}
		return set, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return RecordSet{}, badRequest(err.Error())
	}

	var set RecordSet
	if f, _, err := r.FormFile("nodes"); err == nil {
		defer f.Close()
		if set.Nodes, err = records.ReadNodes(f); err != nil {
			return RecordSet{}, badRequest(fmt.Sprintf("nodes: %v", err))
		}
	}
	if f, _, err := r.FormFile("edges"); err == nil {
		defer f.Close()
		if set.Edges, err = records.ReadEdges(f); err != nil {
			return RecordSet{}, badRequest(fmt.Sprintf("edges: %v", err))
		}
	}
	return set, nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxUploadBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}
