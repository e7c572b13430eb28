package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/samnang/facecheck/internal/identity"
	"github.com/samnang/facecheck/internal/store"
)

// EmployeesHandler serves the admin employee CRUD endpoints.
type EmployeesHandler struct {
	store      store.Store
	identifier identity.Identifier
}

// NewEmployeesHandler creates a new employees handler.
func NewEmployeesHandler(st store.Store, id identity.Identifier) *EmployeesHandler {
	return &EmployeesHandler{store: st, identifier: id}
}

// EmployeesResponse wraps the employee listing.
type EmployeesResponse struct {
	Employees []store.Employee `json:"employees"`
	Count     int              `json:"count"`
}

// List returns all registered employees.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.store.ListEmployees(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, EmployeesResponse{Employees: employees, Count: len(employees)})
}

// Get returns a single employee by ID.
func (h *EmployeesHandler) Get(w http.ResponseWriter, r *http.Request) {
	emp, err := h.store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, emp)
}

// updateEmployeeRequest carries the mutable employee fields. Pointers
// distinguish absent fields from empty ones.
type updateEmployeeRequest struct {
	Name        *string `json:"name"`
	Gender      *string `json:"gender"`
	DateOfBirth *string `json:"date_of_birth"`
	Position    *string `json:"position"`
	Address     *string `json:"address"`
}

// Update modifies an employee's profile fields.
func (h *EmployeesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	ctx := r.Context()
	emp, err := h.store.GetEmployee(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			respondError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		emp.Name = name
	}
	if req.Gender != nil {
		emp.Gender = strings.TrimSpace(*req.Gender)
	}
	if req.DateOfBirth != nil {
		emp.DateOfBirth = strings.TrimSpace(*req.DateOfBirth)
	}
	if req.Position != nil {
		emp.Position = strings.TrimSpace(*req.Position)
	}
	if req.Address != nil {
		emp.Address = strings.TrimSpace(*req.Address)
	}

	if err := h.store.UpdateEmployee(ctx, emp); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, emp)
}

// Delete removes an employee, their attendance records and their face from
// the matcher.
func (h *EmployeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	if err := h.store.DeleteEmployee(ctx, id); err != nil {
		respondStoreError(w, err)
		return
	}

	if err := h.identifier.Forget(ctx, id); err != nil {
		// The store delete already succeeded; an orphaned index entry only
		// costs a failed match until the next rebuild.
		log.Printf("failed to remove face for %s: %v", id, err)
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
