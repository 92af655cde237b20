package handler

import (
	"time"

	"github.com/sakif/vocalcollab/internal/media"
	"github.com/sakif/vocalcollab/internal/model"
)

// SERIALIZATION:
// Responses are dedicated structs, never the model types. Read-only fields
// (id, timestamps, owner) therefore only appear on the way out, and request
// parsing can't set them because it never decodes into these types.

// TrackResponse is a track as clients see it. User is the owner's username,
// or null for anonymous uploads. Media fields are absolute URLs.
type TrackResponse struct {
	ID          int64     `json:"id"`
	User        *string   `json:"user"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AudioFile   *string   `json:"audio_file"`
	CoverImage  *string   `json:"cover_image"`
	Tags        string    `json:"tags"`
	CreatedTime time.Time `json:"created_time"`
}

type CommentResponse struct {
	ID        int64     `json:"id"`
	User      *string   `json:"user"`
	Content   string    `json:"content"`
	Track     int64     `json:"track"`
	CreatedAt time.Time `json:"created_at"`
}

type UserBriefResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type FollowResponse struct {
	ID        int64             `json:"id"`
	Follower  UserBriefResponse `json:"follower"`
	Following UserBriefResponse `json:"following"`
	CreatedAt time.Time         `json:"created_at"`
}

func newTrackResponse(t *model.Track, resolver *media.Resolver) TrackResponse {
	return TrackResponse{
		ID:          t.ID,
		User:        t.Username,
		Title:       t.Title,
		Description: t.Description,
		AudioFile:   resolver.URL(t.AudioFile),
		CoverImage:  resolver.URLPtr(t.CoverImage),
		Tags:        t.Tags,
		CreatedTime: t.CreatedTime,
	}
}

func newTrackList(tracks []model.Track, resolver *media.Resolver) []TrackResponse {
	out := make([]TrackResponse, 0, len(tracks))
	for i := range tracks {
		out = append(out, newTrackResponse(&tracks[i], resolver))
	}
	return out
}

func newCommentResponse(c *model.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		User:      c.Username,
		Content:   c.Content,
		Track:     c.TrackID,
		CreatedAt: c.CreatedAt,
	}
}

func newCommentList(comments []model.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, newCommentResponse(&comments[i]))
	}
	return out
}

func newUserBrief(u model.UserBrief) UserBriefResponse {
	return UserBriefResponse{ID: u.ID, Username: u.Username}
}

func newUserBriefList(users []model.UserBrief) []UserBriefResponse {
	out := make([]UserBriefResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserBrief(u))
	}
	return out
}

func newFollowResponse(f *model.Follow) *FollowResponse {
	if f == nil {
		return nil
	}
	return &FollowResponse{
		ID:        f.ID,
		Follower:  newUserBrief(f.Follower),
		Following: newUserBrief(f.Following),
		CreatedAt: f.CreatedAt,
	}
}
