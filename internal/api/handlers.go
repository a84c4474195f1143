package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/Deathfireofdoom/staged-kv-store/internal/kvstore"
	"github.com/Deathfireofdoom/staged-kv-store/internal/lifecycle"
	"github.com/Deathfireofdoom/staged-kv-store/internal/models"
	"github.com/gorilla/mux"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

// Handler serves the key/value routes against one shared ServerState.
type Handler struct {
	state  *kvstore.ServerState
	phase  *lifecycle.Lifecycle
	rd     *render.Render
	logger *zap.Logger
}

func NewHandler(state *kvstore.ServerState, phase *lifecycle.Lifecycle, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		state:  state,
		phase:  phase,
		rd:     render.New(render.Options{}),
		logger: logger,
	}
}

func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(mux.Vars(r)["key"])
	if err != nil {
		h.rd.JSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid key escaping"})
		return
	}

	value, ok := h.state.Read(key)
	if !ok {
		h.rd.JSON(w, http.StatusNotFound, models.ErrorResponse{Error: "key not found"})
		return
	}

	h.rd.JSON(w, http.StatusOK, models.GetResponse{key: value})
}

// SetHandler stages a Set. It answers 200 when the key was already
// committed and 201 when it was not.
func (h *Handler) SetHandler(w http.ResponseWriter, r *http.Request) {
	if !h.accepting(w) {
		return
	}

	var req models.SetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.rd.JSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid body"})
		return
	}
	key, value, ok := req.Pair()
	if !ok {
		h.rd.JSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "body must hold exactly one key/value pair"})
		return
	}
	if key == "" {
		h.rd.JSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "key must not be empty"})
		return
	}

	// the body may have taken a while; staging must not race the final save
	var existed bool
	if !h.phase.WhileRunning(func() { existed = h.state.StageSet(key, value) }) {
		h.unavailable(w)
		return
	}

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	h.rd.JSON(w, status, models.SetResponse{Key: key, Existed: existed})
}

func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if !h.accepting(w) {
		return
	}

	var req models.DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.rd.JSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid body"})
		return
	}
	if req == "" {
		h.rd.JSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "key must not be empty"})
		return
	}

	if !h.phase.WhileRunning(func() { h.state.StageDelete(string(req)) }) {
		h.unavailable(w)
		return
	}

	h.rd.JSON(w, http.StatusOK, models.DeleteResponse{Success: true})
}

func (h *Handler) CommitHandler(w http.ResponseWriter, r *http.Request) {
	var applied int
	if !h.phase.WhileRunning(func() { applied = h.state.Commit() }) {
		h.unavailable(w)
		return
	}
	h.logger.Debug("commit", zap.Int("applied", applied))

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.rd.JSON(w, http.StatusOK, models.HealthResponse{
		Phase:   h.phase.Phase().String(),
		Keys:    h.state.Len(),
		Pending: h.state.Pending(),
	})
}

// accepting rejects a write early, before its body is read. The write is
// checked again when it is staged.
func (h *Handler) accepting(w http.ResponseWriter) bool {
	if h.phase.Accepting() {
		return true
	}
	h.unavailable(w)
	return false
}

func (h *Handler) unavailable(w http.ResponseWriter) {
	h.rd.JSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "server is " + h.phase.Phase().String()})
}
