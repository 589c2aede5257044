package meetings

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/alexvite/curriculum-vitae/internal/domain"
	"github.com/alexvite/curriculum-vitae/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the meetings module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new meetings handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers public read routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/meetings", h.ListMeetings)
	r.Get("/meetings/{id}", h.GetMeeting)
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/meetings", h.CreateMeeting)
	r.Put("/meetings/{id}", h.UpdateMeeting)
}

// RegisterAdminRoutes registers routes that require the admin role.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Delete("/meetings/{id}", h.DeleteMeeting)
}

// MeetingRequest represents the request body for creating or updating a meeting.
// Client-supplied id and creator_id are ignored. Title length is checked by
// the service after trimming.
type MeetingRequest struct {
	Title        string   `json:"title" validate:"required"`
	Description  *string  `json:"description"`
	Date         string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time         *string  `json:"time"`
	Level        *string  `json:"level"`
	Participants []string `json:"participants"`
}

// ToInput converts the request to service input.
func (r *MeetingRequest) ToInput() (MeetingInput, error) {
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return MeetingInput{}, err
	}
	input := MeetingInput{
		Title:        r.Title,
		Description:  r.Description,
		Date:         date,
		Time:         r.Time,
		Participants: r.Participants,
	}
	if r.Level != nil {
		level := domain.MeetingLevel(*r.Level)
		input.Level = &level
	}
	return input, nil
}

// ListMeetings handles GET /meetings.
func (h *Handler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.service.ListMeetings(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, meetings)
}

// GetMeeting handles GET /meetings/{id}.
func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}

	meeting, err := h.service.GetMeeting(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, meeting)
}

// CreateMeeting handles POST /meetings.
func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	meeting, err := h.service.CreateMeeting(r.Context(), httputil.GetUserID(r.Context()), input)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, meeting)
}

// UpdateMeeting handles PUT /meetings/{id}.
func (h *Handler) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}

	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	meeting, err := h.service.UpdateMeeting(r.Context(), id, input)
	if err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, meeting)
}

// DeleteMeeting handles DELETE /meetings/{id}.
func (h *Handler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteMeeting(r.Context(), id); err != nil {
		httputil.HandleError(r.Context(), w, err)
		return
	}

	httputil.NoContent(w)
}

func (h *Handler) meetingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.Error(w, http.StatusBadRequest, ErrInvalidID.Error())
		return 0, false
	}
	return id, true
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (MeetingInput, bool) {
	var req MeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return MeetingInput{}, false
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return MeetingInput{}, false
	}

	input, err := req.ToInput()
	if err != nil {
		httputil.ValidationError(w, err)
		return MeetingInput{}, false
	}
	return input, true
}
