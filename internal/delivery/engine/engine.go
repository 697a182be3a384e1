package engine

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ipvgo_bridge/internal/bootstrap"
	"ipvgo_bridge/internal/domain"
	"ipvgo_bridge/internal/errors"
	ownMiddleware "ipvgo_bridge/internal/middleware"
	"ipvgo_bridge/internal/utils"
)

type EngineUseCase interface {
	Ready() bool
	Closed() bool
	Init(ctx context.Context, req domain.InitRequest) error
	PlayMove(ctx context.Context, req domain.PlayMoveRequest) error
	GenMove(ctx context.Context, req domain.GenMoveRequest) (domain.GenMoveResponse, error)
}

type EngineHandler struct {
	cfg      bootstrap.Config
	log      *zap.SugaredLogger
	engineUC EngineUseCase
}

func NewEngineHandler(cfg bootstrap.Config, log *zap.SugaredLogger, engineUC EngineUseCase) *EngineHandler {
	return &EngineHandler{
		cfg:      cfg,
		log:      log,
		engineUC: engineUC,
	}
}

func (h *EngineHandler) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(ownMiddleware.Authorization(h.cfg.AuthorizationToken, h.log))

	r.Get("/check-ready", h.HandleCheckReady)
	r.Post("/init", h.HandleInit)
	r.Post("/play-move", h.HandlePlayMove)
	r.Post("/gen-move", h.HandleGenMove)
	return r
}

func (h *EngineHandler) HandleCheckReady(w http.ResponseWriter, r *http.Request) {
	if !h.engineUC.Ready() || h.engineUC.Closed() {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *EngineHandler) HandleInit(w http.ResponseWriter, r *http.Request) {
	var req domain.InitRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		writeJSONError(h.log, w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engineUC.Init(r.Context(), req); err != nil {
		h.engineError(w, "failed to init board", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *EngineHandler) HandlePlayMove(w http.ResponseWriter, r *http.Request) {
	var req domain.PlayMoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		writeJSONError(h.log, w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engineUC.PlayMove(r.Context(), req); err != nil {
		h.engineError(w, "failed to play move", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *EngineHandler) HandleGenMove(w http.ResponseWriter, r *http.Request) {
	var req domain.GenMoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		writeJSONError(h.log, w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.engineUC.GenMove(r.Context(), req)
	if err != nil {
		h.engineError(w, "failed to generate move", err)
		return
	}

	writeJSON(h.log, w, http.StatusOK, resp)
}

func (h *EngineHandler) engineError(w http.ResponseWriter, msg string, err error) {
	if goerrors.Is(err, errors.ErrGTPClosed) {
		writeJSONError(h.log, w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
		return
	}
	h.log.Errorf("%s: %v", msg, err)
	writeJSONError(h.log, w, http.StatusInternalServerError, msg)
}

func writeJSON(log *zap.SugaredLogger, w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Errorf("writeJSON encode error: %v", err)
	}
}

func writeJSONError(log *zap.SugaredLogger, w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
	log.Debugf("writeJSONError: %s", msg)
}
