package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/stockpilot/internal/core"
)

// parseID reads the {id} path parameter.
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "id", Value: raw, Message: "must be a positive integer"}
	}
	return id, nil
}

// decodeProductInput reads a JSON ProductInput body.
func decodeProductInput(r *http.Request) (core.ProductInput, error) {
	var in core.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, &core.ValidationError{Message: "invalid request body: " + err.Error()}
	}
	return in, nil
}

// handleListProducts returns all products, optionally filtered by ?category=.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.service.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, products)
}

// handleSearchProducts returns products whose name contains ?name=.
func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.service.Search(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, products)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	in, err := decodeProductInput(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	p, err := s.service.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	p, err := s.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// handleUpdateProduct replaces a product's editable fields. A stock change is
// logged by the service in the same transaction.
func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	in, err := decodeProductInput(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	p, err := s.service.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.service.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"message": "Product deleted successfully"})
}

// handleHistory returns a product's inventory logs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logs, err := s.service.History(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, logs)
}
