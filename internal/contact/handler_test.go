package contact

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(mailer Mailer) http.Handler {
	r := chi.NewRouter()
	NewHandler(NewService(mailer, testRecipient)).RegisterRoutes(r)
	return r
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Submit(t *testing.T) {
	mailer := &mockMailer{}
	router := newTestRouter(mailer)

	rec := post(t, router, `{"name": "Ada", "email": "ada@example.com", "message": "hello"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message": "Email sent successfully!"}`, rec.Body.String())
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ada@example.com", mailer.sent[0].ReplyTo)
}

func TestHandler_SubmitErrors(t *testing.T) {
	tests := []struct {
		name       string
		mailer     Mailer
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "invalid json",
			mailer:     &mockMailer{},
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid json",
		},
		{
			name:       "missing fields",
			mailer:     &mockMailer{},
			body:       `{"name": "Ada"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `"field":"email"`,
		},
		{
			name:       "bad email",
			mailer:     &mockMailer{},
			body:       `{"name": "Ada", "email": "nope", "message": "hi"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "email must be a valid address",
		},
		{
			name:       "not configured",
			mailer:     nil,
			body:       `{"name": "Ada", "email": "ada@example.com", "message": "hi"}`,
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "contact form is not configured",
		},
		{
			name:       "delivery failure hides smtp detail",
			mailer:     &mockMailer{err: errors.New("535 bad credentials")},
			body:       `{"name": "Ada", "email": "ada@example.com", "message": "hi"}`,
			wantStatus: http.StatusInternalServerError,
			wantBody:   "failed to send email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newTestRouter(tt.mailer), tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.NotContains(t, rec.Body.String(), "535")
		})
	}
}
