package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"soundstream/internal/app/playlists"
)

// GET  /api/v1/playlists (caller's own)
// POST /api/v1/playlists (multipart: name, description, isPublic, thumbnail)
func (s *Server) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	user, token, ok := s.caller(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		owned, err := s.playlists.ListByOwner(r.Context(), user.ID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": owned})

	case http.MethodPost:
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "multipart form required")
			return
		}

		thumbnail, thumbnailMime, err := formFile(r, "thumbnail")
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}

		playlist, err := s.playlists.Create(r.Context(), token, playlists.CreateInput{
			Name:          r.FormValue("name"),
			Description:   r.FormValue("description"),
			IsPublic:      r.FormValue("isPublic") == "true",
			Thumbnail:     thumbnail,
			ThumbnailMime: thumbnailMime,
		}, user.ID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Playlist created successfully",
			"data":    playlist,
		})

	default:
		methodNotAllowed(w)
	}
}

// GET    /api/v1/playlists/{id}
// DELETE /api/v1/playlists/{id}
// GET    /api/v1/playlists/{id}/songs
// POST   /api/v1/playlists/{id}/songs
// DELETE /api/v1/playlists/{id}/songs/{songID}
func (s *Server) handlePlaylistSubpath(w http.ResponseWriter, r *http.Request) {
	user, token, ok := s.caller(w, r)
	if !ok {
		return
	}

	playlistID, tail, err := pathID(r.URL.Path, "/api/v1/playlists/")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case tail == "" && r.Method == http.MethodGet:
		playlist, err := s.playlists.Get(r.Context(), playlistID, user.ID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": playlist})

	case tail == "" && r.Method == http.MethodDelete:
		if err := s.playlists.Delete(r.Context(), token, playlistID, user.ID); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Playlist deleted successfully"})

	case tail == "songs" && r.Method == http.MethodGet:
		entries, err := s.playlists.Songs(r.Context(), playlistID, user.ID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": entries})

	case tail == "songs" && r.Method == http.MethodPost:
		var req struct {
			SongID int64 `json:"songId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SongID <= 0 {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "songId is required")
			return
		}
		entry, err := s.playlists.AddSong(r.Context(), playlistID, req.SongID, user.ID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"data": entry})

	case strings.HasPrefix(tail, "songs/") && r.Method == http.MethodDelete:
		songID, err := strconv.ParseInt(strings.TrimPrefix(tail, "songs/"), 10, 64)
		if err != nil || songID <= 0 {
			http.NotFound(w, r)
			return
		}
		if err := s.playlists.RemoveSong(r.Context(), playlistID, songID, user.ID); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Song removed from playlist"})

	default:
		methodNotAllowed(w)
	}
}
