package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/vocalcollab/internal/auth"
	"github.com/sakif/vocalcollab/internal/media"
	"github.com/sakif/vocalcollab/internal/service"
)

// TrackHandler serves the track feed, uploads and per-user listings.
type TrackHandler struct {
	tracks         *service.TrackService
	resolver       *media.Resolver
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewTrackHandler(tracks *service.TrackService, resolver *media.Resolver, maxUploadBytes int64, logger *slog.Logger) *TrackHandler {
	return &TrackHandler{
		tracks:         tracks,
		resolver:       resolver,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// HandleList returns every track, newest first.
//
// HTTP: GET /tracks/?limit=&offset=
func (h *TrackHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	tracks, err := h.tracks.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTrackList(tracks, h.resolver))
}

// HandleCreate uploads a track.
//
// HTTP: POST /tracks/
//
// Multipart:  title, description, tags, audio_file (file), cover_image (file)
// JSON:       {"title": ..., "tags": ..., "audio_file": "https://...", "cover_image": "https://..."}
//
// Authentication is optional: a logged-in caller becomes the owner.
func (h *TrackHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := readRequest(w, r, h.maxUploadBytes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	audio, closeAudio, err := req.upload("audio_file")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer closeAudio()

	cover, closeCover, err := req.upload("cover_image")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer closeCover()

	track, err := h.tracks.Create(r.Context(), auth.CallerFromContext(r.Context()), service.CreateTrackInput{
		Title:       req.get("title"),
		Description: req.get("description"),
		Tags:        req.get("tags"),
		Audio:       audio,
		AudioURL:    req.get("audio_file"),
		Cover:       cover,
		CoverURL:    req.get("cover_image"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newTrackResponse(track, h.resolver))
}

// HandleGet returns one track.
//
// HTTP: GET /tracks/{id}/
func (h *TrackHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "track")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	track, err := h.tracks.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTrackResponse(track, h.resolver))
}

// HandleListByUser returns one user's tracks, newest first. An unknown
// username gets an empty list.
//
// HTTP: GET /users/{username}/tracks/
func (h *TrackHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	tracks, err := h.tracks.ListByUser(r.Context(), chi.URLParam(r, "username"), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTrackList(tracks, h.resolver))
}
