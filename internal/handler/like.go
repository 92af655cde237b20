package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/vocalcollab/internal/auth"
	"github.com/sakif/vocalcollab/internal/service"
)

type LikeHandler struct {
	likes  *service.LikeService
	logger *slog.Logger
}

func NewLikeHandler(likes *service.LikeService, logger *slog.Logger) *LikeHandler {
	return &LikeHandler{likes: likes, logger: logger}
}

// LikeCountResponse is the body of GET /tracks/{id}/likes/.
type LikeCountResponse struct {
	Track int64 `json:"track"`
	Likes int   `json:"likes"`
}

// HandleLike likes a track. A second like by the same user is a 400.
//
// HTTP: POST /tracks/{id}/like/ (auth required)
func (h *LikeHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	trackID, err := pathID(r, "id", "track")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.likes.Like(r.Context(), auth.CallerFromContext(r.Context()), trackID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, DetailResponse{Detail: "Liked successfully."})
}

// HandleCount reports how many users like a track.
//
// HTTP: GET /tracks/{id}/likes/
func (h *LikeHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	trackID, err := pathID(r, "id", "track")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	n, err := h.likes.Count(r.Context(), trackID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, LikeCountResponse{Track: trackID, Likes: n})
}
