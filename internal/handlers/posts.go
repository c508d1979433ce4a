package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jeremyjsx/journal/internal/admin"
	"github.com/jeremyjsx/journal/internal/apierror"
	"github.com/jeremyjsx/journal/internal/posts"
	"github.com/jeremyjsx/journal/internal/poststore"
)

type PostsHandler struct {
	svc    *posts.Service
	logger *slog.Logger
}

func NewPostsHandler(svc *posts.Service, logger *slog.Logger) *PostsHandler {
	return &PostsHandler{
		svc:    svc,
		logger: logger,
	}
}

// postID reads the {id} URL parameter. Malformed ids cannot name a post, so
// they are answered like unknown ones.
func postID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, apierror.CodeNotFound, "post not found", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *PostsHandler) ListPublished() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := h.svc.ListPosts(r.Context(), posts.ListParams{
			PublishedOnly: true,
			Category:      q.Get("category"),
			Query:         q.Get("q"),
		})
		if err != nil {
			writePostError(w, h.logger, "list posts", err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (h *PostsHandler) GetPublished() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := postID(w, r)
		if !ok {
			return
		}
		post, err := h.svc.GetPublishedPost(r.Context(), id)
		if err != nil {
			writePostError(w, h.logger, "get post", err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func (h *PostsHandler) Categories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := h.svc.Categories(r.Context())
		if err != nil {
			writePostError(w, h.logger, "list categories", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"categories": cats,
			"presets":    posts.PresetCategories,
		})
	}
}

func (h *PostsHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params posts.ListParams
		if v := r.URL.Query().Get("published"); v != "" {
			published, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, apierror.CodeBadRequest, "published must be a boolean", nil)
				return
			}
			params.PublishedOnly = published
		}
		list, err := h.svc.ListPosts(r.Context(), params)
		if err != nil {
			writePostError(w, h.logger, "list posts", err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (h *PostsHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := postID(w, r)
		if !ok {
			return
		}
		post, err := h.svc.GetPost(r.Context(), id)
		if err != nil {
			writePostError(w, h.logger, "get post", err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func (h *PostsHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req posts.Fields
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, apierror.CodeBadRequest, "invalid JSON body", nil)
			return
		}

		post, err := h.svc.CreatePost(r.Context(), req)
		if err != nil {
			writePostError(w, h.logger, "create post", err)
			return
		}
		writeJSON(w, http.StatusCreated, post)
	}
}

func (h *PostsHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := postID(w, r)
		if !ok {
			return
		}
		var patch posts.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, apierror.CodeBadRequest, "invalid JSON body", nil)
			return
		}
		if patch.Empty() {
			writeError(w, http.StatusBadRequest, apierror.CodeBadRequest, "no fields to update", nil)
			return
		}

		post, err := h.svc.UpdatePost(r.Context(), id, patch)
		if err != nil {
			writePostError(w, h.logger, "update post", err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func (h *PostsHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := postID(w, r)
		if !ok {
			return
		}
		if err := h.svc.DeletePost(r.Context(), id); err != nil {
			writePostError(w, h.logger, "delete post", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type statsResponse struct {
	admin.Stats
	Categories []posts.CategoryCount `json:"categories"`
}

// Stats serves the dashboard counts from the same list controller the admin
// CLI uses, over the in-process store.
func (h *PostsHandler) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := admin.NewPostList(poststore.NewLocal(h.svc), nil)
		defer list.Close()
		if err := list.Load(r.Context()); err != nil {
			writePostError(w, h.logger, "load stats", err)
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{
			Stats:      list.Stats(),
			Categories: list.Categories(),
		})
	}
}
