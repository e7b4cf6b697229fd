package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/signalsfoundry/sentinel-orbital/internal/logging"
)

const (
	defaultOrbitSamples = 100
	maxOrbitSamples     = 1000
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootPayload{System: "SENTINEL", Status: "ONLINE"})
}

func (s *Server) handleOrbit(w http.ResponseWriter, r *http.Request) {
	objects := s.engine.Catalog().List()
	out := make([]objectPayload, 0, len(objects))
	for _, obj := range objects {
		out = append(out, toObjectPayload(obj))
	}

	logging.LoggerFromContext(r.Context()).Debug(r.Context(), "orbit listed",
		logging.Int("objects", len(out)),
	)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOrbitPaths(w http.ResponseWriter, r *http.Request) {
	samples := defaultOrbitSamples
	if raw := r.URL.Query().Get("samples"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 2 || n > maxOrbitSamples {
			writeError(w, fmt.Errorf("%w: samples must be 2-%d", ErrBadRequest, maxOrbitSamples))
			return
		}
		samples = n
	}

	paths := s.engine.OrbitPaths(samples)
	out := make([]orbitPathPayload, 0, len(paths))
	for _, obj := range s.engine.Catalog().List() {
		points := paths[obj.ID]
		payload := orbitPathPayload{ID: obj.ID, Points: make([]vecPayload, 0, len(points))}
		for _, p := range points {
			payload.Points = append(payload.Points, toVecPayload(p))
		}
		out = append(out, payload)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	t, err := s.timeParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	positions := s.engine.PositionsAt(t)
	out := make([]positionPayload, 0, len(positions))
	for _, p := range positions {
		out = append(out, toPositionPayload(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleConjunctions(w http.ResponseWriter, r *http.Request) {
	t, err := s.timeParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, span := StartChildSpan(r.Context(), "engine.assess", "conjunction", "")
	conjunctions := s.engine.Assess(t)
	span.End()

	out := make([]conjunctionPayload, 0, len(conjunctions))
	for _, c := range conjunctions {
		out = append(out, toConjunctionPayload(c))
	}

	logging.LoggerFromContext(ctx).Debug(ctx, "conjunctions assessed",
		logging.Float64("sim_time", t),
		logging.Int("count", len(out)),
	)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	t, err := s.timeParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClustersPayload(t, s.engine.ClustersAt(t)))
}

type maneuverRequest struct {
	TargetID string `json:"target_id"`
}

func (s *Server) handleManeuver(w http.ResponseWriter, r *http.Request) {
	targetID := r.URL.Query().Get("target_id")
	if targetID == "" && r.Body != nil {
		var req maneuverRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			targetID = req.TargetID
		}
	}
	if targetID == "" {
		writeError(w, fmt.Errorf("%w: missing target_id", ErrBadRequest))
		return
	}

	ctx, span := StartChildSpan(r.Context(), "engine.plan_maneuver", "object", targetID)
	plan, projected, err := s.engine.PlanManeuver(targetID)
	span.End()
	if err != nil {
		writeError(w, err)
		return
	}

	logging.LoggerFromContext(ctx).Info(ctx, "maneuver planned",
		logging.String("target_id", targetID),
		logging.String("plan_id", plan.ID),
	)
	writeJSON(w, http.StatusOK, maneuverResponse{
		Status:    "MANEUVER_PLANNED",
		Plan:      toManeuverPayload(plan),
		Projected: toObjectPayload(projected),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// handleReadyz reports ready once the engine has published its first
// position frame.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if _, ok := s.engine.Catalog().LatestFrame(); !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("warming up\n"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready\n"))
}

// timeParam reads the optional time query parameter, defaulting to the
// controller's current simulation time.
func (s *Server) timeParam(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("time")
	if raw == "" {
		return s.currentSimTime(), nil
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("%w: invalid time %q", ErrBadRequest, raw)
	}
	return t, nil
}
