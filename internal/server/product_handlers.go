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

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.Cache != nil {
		if body, ok := s.Cache.Get(ctx, cache.ProductsKey); ok {
			writeJSONBytes(w, http.StatusOK, body)
			return
		}
	}

	products, err := s.Products.List(ctx)
	if err != nil {
		log.Printf("products: list failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if products == nil {
		products = []store.Product{}
	}

	message := "Products retrieved successfully"
	if len(products) == 0 {
		message = "No products found"
	}
	payload := map[string]interface{}{
		"success":  true,
		"message":  message,
		"total":    len(products),
		"products": products,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, cache.ProductsKey, body); err != nil {
			log.Printf("products: cache set failed: %v", err)
		}
	}
	writeJSONBytes(w, http.StatusOK, body)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.Products.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Printf("products: get failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Product retrieved successfully",
		"product": product,
	})
}

type productRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	RichDescription string   `json:"richDescription"`
	Image           string   `json:"image"`
	Images          []string `json:"images"`
	Brand           string   `json:"brand"`
	Price           float64  `json:"price"`
	Category        string   `json:"category"`
	CountInStock    int      `json:"countInStock"`
	Rating          float64  `json:"rating"`
	NumReviews      int      `json:"numReviews"`
	IsFeatured      bool     `json:"isFeatured"`
}

func (req *productRequest) validate() string {
	if req.Name == "" || req.Description == "" || req.Price == 0 || req.Category == "" || req.CountInStock == 0 {
		return "Please fill all required fields"
	}
	return ""
}

func (req *productRequest) toProduct(id string) *store.Product {
	images := req.Images
	if images == nil {
		images = []string{}
	}
	return &store.Product{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		RichDescription: req.RichDescription,
		Image:           req.Image,
		Images:          images,
		Brand:           req.Brand,
		Price:           req.Price,
		CategoryID:      req.Category,
		CountInStock:    req.CountInStock,
		Rating:          req.Rating,
		NumReviews:      req.NumReviews,
		IsFeatured:      req.IsFeatured,
	}
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	if _, err := s.Products.FindByName(ctx, req.Name); err == nil {
		writeError(w, http.StatusBadRequest, "Product already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("products: lookup by name failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if _, err := s.Categories.FindByID(ctx, req.Category); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Category not found")
			return
		}
		log.Printf("products: category lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	product, err := s.Products.Create(ctx, req.toProduct(""))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusBadRequest, "Product already exists")
			return
		}
		log.Printf("products: create failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.invalidateCatalog(r)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Product created successfully",
		"product": product,
	})
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	if _, err := s.Categories.FindByID(ctx, req.Category); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Category not found")
			return
		}
		log.Printf("products: category lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	product, err := s.Products.Update(ctx, req.toProduct(chi.URLParam(r, "id")))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusBadRequest, "Product already exists")
		default:
			log.Printf("products: update failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	s.invalidateCatalog(r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Product updated successfully",
		"product": product,
	})
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.Products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Printf("products: delete failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.invalidateCatalog(r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Product deleted successfully",
	})
}
