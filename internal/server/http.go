package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wargrid/wargrid/internal/core/battle"
	"github.com/wargrid/wargrid/internal/core/observability/log"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/units", s.handleUnits)

	mux.HandleFunc("POST /api/move/validate", s.handleValidateMove)
	mux.HandleFunc("POST /api/move", s.handleMove)
	mux.HandleFunc("POST /api/deploy/validate", s.handleValidateDeploy)
	mux.HandleFunc("POST /api/deploy", s.handleDeploy)
	mux.HandleFunc("POST /api/path-clear", s.handlePathClear)

	mux.HandleFunc("POST /api/sight", s.handleSight)
	mux.HandleFunc("POST /api/visibility", s.handleVisibility)
	mux.HandleFunc("POST /api/cover", s.handleCover)
	mux.HandleFunc("POST /api/nearest-free", s.handleNearestFree)
	mux.HandleFunc("POST /api/suggest", s.handleSuggest)

	mux.HandleFunc("POST /api/phase/advance", s.handleAdvancePhase)
	mux.HandleFunc("POST /api/turn/end", s.handleEndTurn)

	mux.HandleFunc("GET /ws/events", s.handleEvents)

	return mux
}

// writeJSON encodes v through a pooled buffer so hot query endpoints do not
// allocate a fresh encoder buffer per request.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	buf := s.encPool.Get()
	buf.Reset()
	defer s.encPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(v); err != nil {
		s.logger.Error("encode response", log.Error(err))
		writeError(w, http.StatusInternalServerError, "encoding failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeResult maps a rules Result onto HTTP: rule refusals are 200s with
// Valid false, never error statuses, so clients always get the reason and
// the optional suggestion.
func (s *Server) writeResult(w http.ResponseWriter, res battle.Result) {
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.b.State())
}

func (s *Server) handleUnits(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, UnitsOutput{Units: s.b.Roster().Units()})
}

func (s *Server) handleValidateMove(w http.ResponseWriter, r *http.Request) {
	var in MoveInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeResult(w, s.b.ValidateMove(in.Unit, in.Target))
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var in MoveInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeResult(w, s.b.Move(in.Unit, in.Target))
}

func (s *Server) handleValidateDeploy(w http.ResponseWriter, r *http.Request) {
	var in DeployInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeResult(w, s.b.ValidateDeployment(in.Unit, in.Position))
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var in DeployInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeResult(w, s.b.Deploy(in.Unit, in.Position))
}

func (s *Server) handlePathClear(w http.ResponseWriter, r *http.Request) {
	var in PathInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	clear, err := s.b.PathClear(in.Unit, in.To)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PathOutput{Clear: clear})
}

func (s *Server) handleSight(w http.ResponseWriter, r *http.Request) {
	var in SightInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	visible, err := s.b.LineOfSight(in.From, in.To)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	unitsBlock, err := s.b.UnitsBlockSight(in.From, in.To)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SightOutput{Visible: visible, UnitsBlock: unitsBlock})
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var in VisibilityInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fraction, err := s.b.Visibility(in.From, in.To, in.Samples)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, VisibilityOutput{Fraction: fraction})
}

func (s *Server) handleCover(w http.ResponseWriter, r *http.Request) {
	var in CoverInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	covered, err := s.b.CoverFrom(in.Unit, in.Direction)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, CoverOutput{Covered: covered})
}

func (s *Server) handleNearestFree(w http.ResponseWriter, r *http.Request) {
	var in NearestFreeInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pos, err := s.b.NearestFree(in.Position, in.Radius)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, NearestFreeOutput{Position: pos})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var in SuggestInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	moves, err := s.scorer.Rank(r.Context(), in.Unit, in.Candidates)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SuggestOutput{Moves: moves})
}

func (s *Server) handleAdvancePhase(w http.ResponseWriter, _ *http.Request) {
	if _, err := s.b.AdvancePhase(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writePhase(w)
}

func (s *Server) handleEndTurn(w http.ResponseWriter, _ *http.Request) {
	if _, err := s.b.EndTurn(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writePhase(w)
}

func (s *Server) writePhase(w http.ResponseWriter) {
	turns := s.b.Turns()
	s.writeJSON(w, http.StatusOK, PhaseOutput{
		Phase:  turns.Phase(),
		Active: turns.ActivePlayer(),
		Round:  turns.Round(),
	})
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, battle.ErrUnknownUnit) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
