package contact

import (
	"encoding/json"
	"net/http"

	"github.com/alexvite/curriculum-vitae/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// SuccessMessage is returned once a submission has been handed to the mail server.
const SuccessMessage = "Email sent successfully!"

// Handler handles HTTP requests for the contact form.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new contact handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers the public contact route behind the given middlewares.
func (h *Handler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.With(middlewares...).Post("/contact", h.Submit)
}

// ContactRequest represents a contact form submission. Lengths and the address
// format are checked by the service after trimming.
type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// Submit handles POST /contact.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	err := h.service.Submit(r.Context(), Message(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err,
			httputil.ErrorMapping{Error: ErrUnavailable, Status: http.StatusServiceUnavailable, Message: ErrUnavailable.Error()},
			httputil.ErrorMapping{Error: ErrDeliveryFailed, Status: http.StatusInternalServerError, Message: ErrDeliveryFailed.Error()},
		)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"message": SuccessMessage})
}
