package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-process stand-in for the /auth endpoints.
type fakeAPI struct {
	mu        sync.Mutex
	validTok  map[string]*User
	callbacks atomic.Int32
	meCalls   atomic.Int32
	signOuts  atomic.Int32
	// block, when set, holds sign-in until it is closed.
	block chan struct{}
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{validTok: map[string]*User{}}
	srv := httptest.NewServer(f.routes())
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) issue(token string, u *User) {
	f.mu.Lock()
	f.validTok[token] = u
	f.mu.Unlock()
}

func (f *fakeAPI) revoke(token string) {
	f.mu.Lock()
	delete(f.validTok, token)
	f.mu.Unlock()
}

func (f *fakeAPI) userFor(r *http.Request) *User {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := r.Header.Get("Authorization")
	if len(h) < 7 {
		return nil
	}
	return f.validTok[h[7:]]
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signin", func(w http.ResponseWriter, r *http.Request) {
		if f.block != nil {
			<-f.block
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "hunter22" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password", "code": "INVALID_CREDENTIALS"})
			return
		}
		u := &User{ID: "u1", Email: body["email"], AccountType: "owner"}
		f.issue("local-token", u)
		writeJSON(w, http.StatusOK, AuthResponse{Token: "local-token", ExpiresIn: 3600, User: u})
	})
	mux.HandleFunc("POST /auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var req SignUpRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		u := &User{ID: "u2", Email: req.Email, AccountType: req.AccountType}
		f.issue("signup-token", u)
		writeJSON(w, http.StatusCreated, AuthResponse{Token: "signup-token", User: u})
	})
	mux.HandleFunc("POST /auth/callback", func(w http.ResponseWriter, r *http.Request) {
		f.callbacks.Add(1)
		var req CallbackRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		u := &User{ID: "ext-" + req.ExternalID, Email: req.Email, AuthMethod: "external"}
		f.issue("ext-token", u)
		writeJSON(w, http.StatusOK, AuthResponse{Token: "ext-token", User: u})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		f.meCalls.Add(1)
		u := f.userFor(r)
		if u == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]*User{"user": u})
	})
	mux.HandleFunc("PUT /auth/update-user", func(w http.ResponseWriter, r *http.Request) {
		u := f.userFor(r)
		if u == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			return
		}
		var req UpdateUserRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		updated := *u
		resp := UpdateUserResponse{User: &updated}
		if req.AccountType != nil {
			updated.AccountType = *req.AccountType
			f.issue("retyped-token", &updated)
			resp.Token = "retyped-token"
		}
		writeJSON(w, http.StatusOK, resp)
	})
	mux.HandleFunc("POST /auth/signout", func(w http.ResponseWriter, r *http.Request) {
		f.signOuts.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
	})
	return mux
}

func TestClient_SignInAndMe(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := New(srv.URL + "/")

	res, err := c.SignIn(context.Background(), "jane@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "local-token", res.Token)
	assert.EqualValues(t, 3600, res.ExpiresIn)

	u, err := c.Me(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestClient_APIError(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := New(srv.URL)

	_, err := c.SignIn(context.Background(), "jane@example.com", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
	assert.True(t, IsUnauthorized(err))
}

func TestClient_UpdateUserOmitsNilFields(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, UpdateUserResponse{User: &User{ID: "u1"}})
	}))
	t.Cleanup(srv.Close)

	name := "New Name"
	_, err := New(srv.URL).UpdateUser(context.Background(), "tok", UpdateUserRequest{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"fullName": "New Name"}, got)
}
