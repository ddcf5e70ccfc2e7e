package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/desertthunder/tracklist/internal/models"
)

const maxBodyBytes = 1 << 20

type dataEnvelope struct {
	Data any `json:"data"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dataEnvelope{Data: v})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(messageBody{Message: msg})
}

// writeStoreError maps a [Store] error onto an HTTP status.
func writeStoreError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errConflict):
		status = http.StatusConflict
	case errors.Is(err, errInvalid), errors.Is(err, errCredentials):
		status = http.StatusBadRequest
	}
	writeError(w, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// APIHandler serves the playlist REST API from a [Store].
type APIHandler struct {
	store *Store
}

// NewAPIHandler creates an [APIHandler] for store.
func NewAPIHandler(store *Store) *APIHandler {
	return &APIHandler{store: store}
}

// Register adds the auth routes to public and the playlist routes to protected.
func (h *APIHandler) Register(public, protected Router) {
	public.Handle(http.MethodPost, "/auth/register", http.HandlerFunc(h.register))
	public.Handle(http.MethodPost, "/auth/login", http.HandlerFunc(h.login))

	protected.Handle(http.MethodGet, "/playlists", http.HandlerFunc(h.listPlaylists))
	protected.Handle(http.MethodPost, "/playlists", http.HandlerFunc(h.createPlaylist))
	protected.Handle(http.MethodGet, "/playlists/{id}", http.HandlerFunc(h.getPlaylist))
	protected.Handle(http.MethodPut, "/playlists/{id}", http.HandlerFunc(h.renamePlaylist))
	protected.Handle(http.MethodDelete, "/playlists/{id}", http.HandlerFunc(h.deletePlaylist))
	protected.Handle(http.MethodPost, "/playlists/{id}/songs", http.HandlerFunc(h.addSong))
	protected.Handle(http.MethodDelete, "/playlists/{id}/songs/{songId}", http.HandlerFunc(h.removeSong))
}

func (h *APIHandler) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := h.store.Register(body.Username, body.Email, body.Password)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusCreated, result)
}

func (h *APIHandler) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := h.store.Login(body.Email, body.Password)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (h *APIHandler) listPlaylists(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.store.Playlists(userFrom(r.Context())))
}

func (h *APIHandler) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	p, err := h.store.CreatePlaylist(userFrom(r.Context()), body.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

func (h *APIHandler) getPlaylist(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Playlist(userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *APIHandler) renamePlaylist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	p, err := h.store.RenamePlaylist(userFrom(r.Context()), r.PathValue("id"), body.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *APIHandler) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePlaylist(userFrom(r.Context()), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil)
}

func (h *APIHandler) addSong(w http.ResponseWriter, r *http.Request) {
	var song models.Song
	if !decodeBody(w, r, &song) {
		return
	}

	p, err := h.store.AddSong(userFrom(r.Context()), r.PathValue("id"), song)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

func (h *APIHandler) removeSong(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveSong(userFrom(r.Context()), r.PathValue("id"), r.PathValue("songId")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil)
}
