package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/vocalcollab/internal/auth"
	"github.com/sakif/vocalcollab/internal/service"
)

type FollowHandler struct {
	follows *service.FollowService
	logger  *slog.Logger
}

func NewFollowHandler(follows *service.FollowService, logger *slog.Logger) *FollowHandler {
	return &FollowHandler{follows: follows, logger: logger}
}

// ToggleResponse is the body of a follow toggle. Follow is omitted on
// unfollow.
type ToggleResponse struct {
	Detail      string          `json:"detail"`
	IsFollowing bool            `json:"is_following"`
	Follow      *FollowResponse `json:"follow,omitempty"`
}

type IsFollowingResponse struct {
	IsFollowing bool `json:"is_following"`
}

// HandleToggle follows or unfollows {username}.
//
// HTTP: POST /users/{username}/follow/ (auth required)
//
//	201 {"detail":"Followed successfully.","is_following":true,"follow":{...}}
//	200 {"detail":"Unfollowed successfully.","is_following":false}
func (h *FollowHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	res, err := h.follows.Toggle(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !res.Following {
		writeJSON(w, http.StatusOK, ToggleResponse{Detail: "Unfollowed successfully."})
		return
	}
	writeJSON(w, http.StatusCreated, ToggleResponse{
		Detail:      "Followed successfully.",
		IsFollowing: true,
		Follow:      newFollowResponse(res.Follow),
	})
}

// HandleIsFollowing reports whether the caller follows {username}.
//
// HTTP: GET /users/{username}/is_following/ (auth required)
func (h *FollowHandler) HandleIsFollowing(w http.ResponseWriter, r *http.Request) {
	following, err := h.follows.IsFollowing(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, IsFollowingResponse{IsFollowing: following})
}

// HandleFollowers lists who follows {username}.
//
// HTTP: GET /users/{username}/followers/
func (h *FollowHandler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	users, err := h.follows.Followers(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserBriefList(users))
}

// HandleFollowing lists whom {username} follows.
//
// HTTP: GET /users/{username}/following/
func (h *FollowHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	users, err := h.follows.Following(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserBriefList(users))
}
