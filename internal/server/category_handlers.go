package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopapp/internal/cache"
	"shopapp/internal/store"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.Cache != nil {
		if body, ok := s.Cache.Get(ctx, cache.CategoriesKey); ok {
			writeJSONBytes(w, http.StatusOK, body)
			return
		}
	}

	categories, err := s.Categories.List(ctx)
	if err != nil {
		log.Printf("categories: list failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if categories == nil {
		categories = []store.Category{}
	}

	message := "Categories retrieved successfully"
	if len(categories) == 0 {
		message = "No categories found"
	}
	payload := map[string]interface{}{
		"success":    true,
		"message":    message,
		"count":      len(categories),
		"categories": categories,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, cache.CategoriesKey, body); err != nil {
			log.Printf("categories: cache set failed: %v", err)
		}
	}
	writeJSONBytes(w, http.StatusOK, body)
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Image string `json:"image"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Category name is required")
		return
	}

	ctx := r.Context()
	category, err := s.Categories.Create(ctx, &store.Category{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
		Image: req.Image,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusBadRequest, "Category already exists")
			return
		}
		log.Printf("categories: create failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.invalidateCatalog(r)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"message":  "Category added successfully",
		"category": category,
	})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Category name is required")
		return
	}

	ctx := r.Context()
	category, err := s.Categories.Update(ctx, &store.Category{
		ID:    chi.URLParam(r, "id"),
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
		Image: req.Image,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Category not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusBadRequest, "Category already exists")
		default:
			log.Printf("categories: update failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	s.invalidateCatalog(r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Category updated successfully",
		"category": category,
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.Categories.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Category not found")
			return
		}
		log.Printf("categories: delete failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.invalidateCatalog(r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Category deleted successfully",
		"category": category,
	})
}

// invalidateCatalog drops both listing caches; products embed their category,
// so a category write stales the product listing too.
func (s *Server) invalidateCatalog(r *http.Request) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(r.Context(), cache.ProductsKey, cache.CategoriesKey); err != nil {
		log.Printf("catalog cache invalidate failed: %v", err)
	}
}
