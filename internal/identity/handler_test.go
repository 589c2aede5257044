package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alexvite/curriculum-vitae/internal/domain"
	"github.com/alexvite/curriculum-vitae/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*Service, http.Handler) {
	t.Helper()
	svc, _ := newTestService()
	h := NewHandler(svc)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(httputil.AuthMiddleware(svc))
		h.RegisterProtectedRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(httputil.RequireRole(domain.RoleAdmin))
			h.RegisterAdminRoutes(r)
		})
	})
	return svc, r
}

func send(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body, token string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestHandler_Signup(t *testing.T) {
	_, router := newTestRouter(t)

	rec := send(router, jsonRequest(http.MethodPost, "/auth/signup", `{"email":"alex@example.com","password":"password123"}`, ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, SignupMessage, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	rec = send(router, jsonRequest(http.MethodPost, "/auth/signup", `{"email":"alex@example.com","password":"password123"}`, ""))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"email already registered"}}`, rec.Body.String())
}

func TestHandler_SignupValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"email":`},
		{"missing email", `{"password":"password123"}`},
		{"bad email", `{"email":"not-an-email","password":"password123"}`},
		{"short password", `{"email":"alex@example.com","password":"short"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, router := newTestRouter(t)
			rec := send(router, jsonRequest(http.MethodPost, "/auth/signup", tt.body, ""))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandler_Login(t *testing.T) {
	svc, router := newTestRouter(t)
	_, err := svc.Register(context.Background(), RegisterInput{Email: "alex@example.com", Password: "password123"})
	require.NoError(t, err)

	t.Run("query parameters", func(t *testing.T) {
		q := url.Values{"email": {"alex@example.com"}, "password": {"password123"}}
		rec := send(router, httptest.NewRequest(http.MethodPost, "/auth/login?"+q.Encode(), nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Body.String(), "token:"))
	})

	t.Run("form body", func(t *testing.T) {
		form := url.Values{"email": {"alex@example.com"}, "password": {"password123"}}
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := send(router, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("json body", func(t *testing.T) {
		rec := send(router, jsonRequest(http.MethodPost, "/auth/login", `{"email":"alex@example.com","password":"password123"}`, ""))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		q := url.Values{"email": {"alex@example.com"}, "password": {"wrong"}}
		rec := send(router, httptest.NewRequest(http.MethodPost, "/auth/login?"+q.Encode(), nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotContains(t, rec.Body.String(), "token:")
	})

	t.Run("missing credentials", func(t *testing.T) {
		rec := send(router, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_LoginMiddleware(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)

	called := false
	r := chi.NewRouter()
	h.RegisterRoutes(r, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			httputil.Error(w, http.StatusTooManyRequests, "too many requests")
		})
	})

	rec := send(r, httptest.NewRequest(http.MethodPost, "/auth/login?email=a&password=b", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.True(t, called)

	rec = send(r, jsonRequest(http.MethodPost, "/auth/signup", `{"email":"alex@example.com","password":"password123"}`, ""))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_Me(t *testing.T) {
	svc, router := newTestRouter(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "alex@example.com", Password: "password123"})
	require.NoError(t, err)
	token, err := svc.Authenticate(ctx, "alex@example.com", "password123")
	require.NoError(t, err)

	rec := send(router, jsonRequest(http.MethodGet, "/me", "", token))
	require.Equal(t, http.StatusOK, rec.Code)

	var user map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "alex@example.com", user["email"])
	assert.NotContains(t, user, "password")

	rec = send(router, jsonRequest(http.MethodGet, "/me", "", ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_AdminRoutes(t *testing.T) {
	svc, router := newTestRouter(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "alex@example.com", Password: "password123"})
	require.NoError(t, err)
	userToken, err := svc.Authenticate(ctx, "alex@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "admin-password"))
	adminToken, err := svc.Authenticate(ctx, "admin@example.com", "admin-password")
	require.NoError(t, err)

	rec := send(router, jsonRequest(http.MethodGet, "/users", "", userToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(router, jsonRequest(http.MethodGet, "/users?role=admin", "", adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "admin@example.com", users[0]["email"])

	rec = send(router, jsonRequest(http.MethodGet, "/users?role=root", "", adminToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(router, jsonRequest(http.MethodPut, "/users/"+user.ID+"/roles", `{"roles":["user","admin"]}`, adminToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.ElementsMatch(t, []interface{}{"user", "admin"}, updated["roles"])

	rec = send(router, jsonRequest(http.MethodPut, "/users/"+user.ID+"/roles", `{"roles":["root"]}`, adminToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(router, jsonRequest(http.MethodPut, "/users/missing/roles", `{"roles":["user"]}`, adminToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
