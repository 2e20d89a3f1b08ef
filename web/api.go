// Package web exposes snap and route queries over HTTP. The graph, the snap
// index and the planner are bundled into one immutable snapshot held behind
// an atomic pointer. A reload builds a complete new snapshot and swaps it in
// wholesale, requests that started on the old snapshot simply finish on it.
package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"

	"tobmap/graph"
	"tobmap/route"
	"tobmap/snap"
	"tobmap/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SnapResponse struct {
	Edge graph.EdgeIndex `json:"edge"`
}

type RouteResponse struct {
	Path []graph.EdgeIndex `json:"path"`
	Cost uint32            `json:"cost"`
}

type Snapshot struct {
	Graph   *graph.Graph
	Index   *snap.Index
	Planner *route.Planner
}

type Server struct {
	graphFile string
	snapFile  string
	snapshot  atomic.Pointer[Snapshot]
}

func LoadSnapshot(graphFile string, snapFile string) (*Snapshot, error) {
	g, err := storage.LoadGraph(graphFile)
	if err != nil {
		return nil, err
	}

	index, err := storage.LoadSnapIndex(snapFile, g)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Graph:   g,
		Index:   index,
		Planner: route.NewPlanner(g, nil),
	}, nil
}

func StartServer(port string, graphFile string, snapFile string) error {
	server := &Server{graphFile: graphFile, snapFile: snapFile}

	snapshot, err := LoadSnapshot(graphFile, snapFile)
	if err != nil {
		return err
	}
	server.snapshot.Store(snapshot)

	r := server.initRouter()
	sigolo.Infof("Start server on port %s", port)
	return errors.Wrap(http.ListenAndServe(":"+port, r), "Server stopped")
}

func (s *Server) initRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/snap", s.handleSnap).Methods(http.MethodGet)
	r.HandleFunc("/route", s.handleRoute).Methods(http.MethodGet)
	r.HandleFunc("/reload", s.handleReload).Methods(http.MethodPost)
	return r
}

func (s *Server) handleSnap(writer http.ResponseWriter, request *http.Request) {
	snapshot := s.snapshot.Load()

	lat, latErr := strconv.ParseFloat(request.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(request.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		writeJson(writer, http.StatusBadRequest, ErrorResponse{Error: "Parameters 'lat' and 'lng' must be valid coordinates"})
		return
	}

	edge, ok := snapshot.Index.Snap(lat, lng)
	if !ok {
		writeJson(writer, http.StatusNotFound, ErrorResponse{Error: "No edge near the given coordinate"})
		return
	}

	sigolo.Debugf("Snapped (%f, %f) to edge %d", lat, lng, edge)
	writeJson(writer, http.StatusOK, SnapResponse{Edge: edge})
}

func (s *Server) handleRoute(writer http.ResponseWriter, request *http.Request) {
	snapshot := s.snapshot.Load()
	query := request.URL.Query()

	start, startErr := strconv.ParseUint(query.Get("start"), 10, 32)
	end, endErr := strconv.ParseUint(query.Get("end"), 10, 32)
	if startErr != nil || endErr != nil {
		writeJson(writer, http.StatusBadRequest, ErrorResponse{Error: "Parameters 'start' and 'end' must be edge indices"})
		return
	}

	mode, err := graph.ParseMode(query.Get("mode"))
	if err != nil {
		writeJson(writer, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	maxVisitedNodes := 0
	if rawBudget := query.Get("maxNodes"); rawBudget != "" {
		maxVisitedNodes, err = strconv.Atoi(rawBudget)
		if err != nil {
			writeJson(writer, http.StatusBadRequest, ErrorResponse{Error: "Parameter 'maxNodes' must be an integer"})
			return
		}
	}

	result, err := snapshot.Planner.Route(graph.EdgeIndex(start), graph.EdgeIndex(end), mode, maxVisitedNodes)
	switch {
	case errors.Is(err, route.ErrUnreachable):
		writeJson(writer, http.StatusUnprocessableEntity, ErrorResponse{Error: "unreachable"})
	case errors.Is(err, route.ErrTruncated):
		writeJson(writer, http.StatusUnprocessableEntity, ErrorResponse{Error: "truncated"})
	case err != nil:
		sigolo.Errorf("Error routing from %d to %d: %+v", start, end, err)
		writeJson(writer, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		writeJson(writer, http.StatusOK, RouteResponse{Path: result.Path, Cost: result.Cost})
	}
}

// handleReload loads a fresh snapshot from disk and publishes it atomically.
func (s *Server) handleReload(writer http.ResponseWriter, request *http.Request) {
	snapshot, err := LoadSnapshot(s.graphFile, s.snapFile)
	if err != nil {
		sigolo.Errorf("Error reloading snapshot: %+v", err)
		writeJson(writer, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	s.snapshot.Store(snapshot)
	sigolo.Infof("Reloaded graph '%s' (%d nodes, %d edges)", snapshot.Graph.Name, len(snapshot.Graph.Nodes), len(snapshot.Graph.Edges))
	writer.WriteHeader(http.StatusNoContent)
}

func writeJson(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		sigolo.Errorf("Error writing response: %+v", err)
	}
}
