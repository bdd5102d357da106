package play

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Zarux/tttagents/internal/logger"
	"github.com/Zarux/tttagents/pkg/game"
)

type httpHandler struct {
	svc *Service
}

func HTTPHandler(s *Service) http.Handler {
	h := &httpHandler{
		svc: s,
	}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /games", h.HandleNewGame)
	mux.HandleFunc("GET /games/{id}", h.HandleGetGame)
	mux.HandleFunc("DELETE /games/{id}", h.HandleDeleteGame)
	mux.HandleFunc("POST /games/{id}/moves", h.HandleNewMove)

	return mux
}

type newGameRequest struct {
	Opponent   string `json:"opponent"`
	HumanFirst bool   `json:"humanFirst"`
}

type moveRequest struct {
	Position *int `json:"position"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *httpHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req newGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body: " + err.Error()})
		return
	}

	snap, err := h.svc.NewGame(ctx, req.Opponent, req.HumanFirst)
	if err != nil {
		log.Warn("new game failed", "err", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, snap)
}

func (h *httpHandler) HandleNewMove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Position == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be {\"position\": 0-8}"})
		return
	}

	snap, err := h.svc.Move(ctx, r.PathValue("id"), *req.Position)
	if err != nil {
		log.Info("move rejected", "position", *req.Position, "err", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (h *httpHandler) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (h *httpHandler) HandleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrIllegalMove):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrGameOver), errors.Is(err, ErrNotTurn):
		status = http.StatusConflict
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
