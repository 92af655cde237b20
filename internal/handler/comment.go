package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/vocalcollab/internal/auth"
	"github.com/sakif/vocalcollab/internal/service"
)

// maxCommentBytes bounds a comment request body.
const maxCommentBytes = 64 << 10

type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

// HandleList returns a track's comments, newest first.
//
// HTTP: GET /tracks/{id}/comments/
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	trackID, err := pathID(r, "id", "track")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	comments, err := h.comments.List(r.Context(), trackID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommentList(comments))
}

// HandleCreate posts a comment, anonymously unless a token is sent.
//
// HTTP: POST /tracks/{id}/comments/
// REQUEST BODY: {"content": "love the chorus"}
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	trackID, err := pathID(r, "id", "track")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	req, err := readRequest(w, r, maxCommentBytes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), auth.CallerFromContext(r.Context()), trackID, req.get("content"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCommentResponse(comment))
}

// HandleDelete removes a comment.
//
// HTTP: DELETE /comments/{id}/ (auth required)
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "comment")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.comments.Delete(r.Context(), auth.CallerFromContext(r.Context()), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
