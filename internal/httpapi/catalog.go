package httpapi

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"soundstream/internal/app/catalog"
)

const maxUploadMemory = 64 << 20

// GET /api/v1/albums
func (s *Server) handleAlbums(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	albums, cached, err := s.catalog.Albums(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": albums, "cached": cached})
}

// GET /api/v1/albums/{id}/songs
func (s *Server) handleAlbumSubpath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	albumID, tail, err := pathID(r.URL.Path, "/api/v1/albums/")
	if err != nil || tail != "songs" {
		http.NotFound(w, r)
		return
	}

	album, songs, cached, err := s.catalog.SongsByAlbum(r.Context(), albumID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":   map[string]any{"album": album, "songs": songs},
		"cached": cached,
	})
}

// GET /api/v1/songs
func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	songs, cached, err := s.catalog.Songs(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": songs, "cached": cached})
}

// GET /api/v1/songs/{id}
// PATCH /api/v1/songs/{id}/play-count
func (s *Server) handleSongSubpath(w http.ResponseWriter, r *http.Request) {
	songID, tail, err := pathID(r.URL.Path, "/api/v1/songs/")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case tail == "" && r.Method == http.MethodGet:
		song, cached, err := s.catalog.Song(r.Context(), songID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": song, "cached": cached})

	case tail == "play-count" && r.Method == http.MethodPatch:
		song, err := s.catalog.IncrementPlayCount(r.Context(), songID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": song})

	default:
		methodNotAllowed(w)
	}
}

// POST /api/v1/admin/albums
func (s *Server) handleAdminAlbums(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if _, ok := s.admin(w, r); !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "multipart form required")
		return
	}

	thumbnail, thumbnailMime, err := formFile(r, "thumbnail")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	album, err := s.catalog.AddAlbum(r.Context(), catalog.AddAlbumInput{
		Title:         r.FormValue("title"),
		Artist:        r.FormValue("artist"),
		ReleaseDate:   r.FormValue("releaseDate"),
		Description:   r.FormValue("description"),
		Thumbnail:     thumbnail,
		ThumbnailMime: thumbnailMime,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": album})
}

// DELETE /api/v1/admin/albums/{id}
func (s *Server) handleAdminAlbumSubpath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if _, ok := s.admin(w, r); !ok {
		return
	}

	albumID, tail, err := pathID(r.URL.Path, "/api/v1/admin/albums/")
	if err != nil || tail != "" {
		http.NotFound(w, r)
		return
	}

	if err := s.catalog.DeleteAlbum(r.Context(), albumID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Album deleted successfully"})
}

// POST /api/v1/admin/songs
func (s *Server) handleAdminSongs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if _, ok := s.admin(w, r); !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "multipart form required")
		return
	}

	audio, audioMime, err := formFile(r, "audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	thumbnail, thumbnailMime, err := formFile(r, "thumbnail")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	var albumID *int64
	if raw := r.FormValue("albumId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "albumId must be numeric")
			return
		}
		albumID = &parsed
	}

	song, err := s.catalog.AddSong(r.Context(), catalog.AddSongInput{
		Title:         r.FormValue("title"),
		Artist:        r.FormValue("artist"),
		AlbumID:       albumID,
		Duration:      r.FormValue("duration"),
		Genre:         r.FormValue("genre"),
		Audio:         audio,
		AudioMime:     audioMime,
		Thumbnail:     thumbnail,
		ThumbnailMime: thumbnailMime,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": song})
}

// DELETE /api/v1/admin/songs/{id}
// PATCH  /api/v1/admin/songs/{id}/thumbnail
// PATCH  /api/v1/admin/songs/{id}/active
func (s *Server) handleAdminSongSubpath(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.admin(w, r); !ok {
		return
	}

	songID, tail, err := pathID(r.URL.Path, "/api/v1/admin/songs/")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case tail == "" && r.Method == http.MethodDelete:
		if err := s.catalog.DeleteSong(r.Context(), songID); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Song deleted successfully"})

	case tail == "thumbnail" && r.Method == http.MethodPatch:
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "multipart form required")
			return
		}
		image, mimeType, err := formFile(r, "thumbnail")
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		url, err := s.catalog.UpdateSongThumbnail(r.Context(), songID, image, mimeType)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"thumbnail": url}})

	case tail == "active" && r.Method == http.MethodPatch:
		var req struct {
			Active *bool `json:"active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "active flag is required")
			return
		}
		if err := s.catalog.SetSongActive(r.Context(), songID, *req.Active); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Song visibility updated"})

	default:
		methodNotAllowed(w)
	}
}

// formFile reads an optional multipart file field fully into memory and
// reports its declared content type. A missing field is not an error.
func formFile(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, contentType(header), nil
}

func contentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
