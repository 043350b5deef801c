// ABOUTME: HTTP tests for the web server over a real temp-dir SQLite store
// ABOUTME: Covers the session gate, login/register scenarios, and the JSON seat endpoints

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiethall/seatwatch/internal/store"
)

// newTestServer creates a Server over a real SQLite store in a temp directory
func newTestServer(t *testing.T) (*Server, *store.SQLiteStore, *http.ServeMux) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := New(st, Config{
		SessionSecret:   testSecret,
		SessionDuration: time.Hour,
	})

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	return srv, st, mux
}

// postForm issues a form POST against the mux, optionally with a session cookie
func postForm(mux *http.ServeMux, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// loginAs registers and logs in a user, returning the session cookie
func loginAs(t *testing.T, mux *http.ServeMux, username, password string) *http.Cookie {
	t.Helper()

	rec := postForm(mux, "/register", url.Values{"username": {username}, "password": {password}}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code, "register should redirect")

	rec = postForm(mux, "/login", url.Values{"username": {username}, "password": {password}}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code, "login should redirect")

	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set after login")
	return nil
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestProtectedPages_RedirectWhenAnonymous(t *testing.T) {
	_, _, mux := newTestServer(t)

	for _, path := range []string{"/", "/dashboard", "/seats", "/admin", "/rooms/RoomA/image"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code, "path %s", path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), "path %s", path)
	}
}

func TestProtectedJSON_401WhenAnonymous(t *testing.T) {
	_, _, mux := newTestServer(t)

	for _, path := range []string{"/reserve_seat", "/delete_seat"} {
		rec := postForm(mux, path, url.Values{"study_room": {"RoomA"}}, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "path %s", path)
		assert.Empty(t, rec.Header().Get("Location"), "JSON endpoints must not redirect")
		payload := decodeJSON(t, rec)
		assert.Equal(t, "not logged in", payload["error"])
	}
}

func TestRegisterLoginScenario(t *testing.T) {
	_, _, mux := newTestServer(t)

	rec := postForm(mux, "/register", url.Values{"username": {"alice"}, "password": {"pw1secret"}}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// Good credentials log in and gate-protected pages open up
	rec = postForm(mux, "/login", url.Values{"username": {"alice"}, "password": {"pw1secret"}}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set a session cookie")

	req := httptest.NewRequest(http.MethodGet, "/seats", nil)
	req.AddCookie(cookie)
	seatRec := httptest.NewRecorder()
	mux.ServeHTTP(seatRec, req)
	assert.Equal(t, http.StatusOK, seatRec.Code)

	// Bad credentials re-render the form with an error and set no session
	rec = postForm(mux, "/login", url.Values{"username": {"alice"}, "password": {"wrong"}}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password")
	for _, c := range rec.Result().Cookies() {
		assert.NotEqual(t, SessionCookieName, c.Name, "failed login must not create a session")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	_, _, mux := newTestServer(t)

	rec := postForm(mux, "/register", url.Values{"username": {"bob"}, "password": {"password1"}}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = postForm(mux, "/register", url.Values{"username": {"bob"}, "password": {"password2"}}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username already taken")
}

func TestRegister_Validation(t *testing.T) {
	_, _, mux := newTestServer(t)

	cases := []struct {
		name     string
		form     url.Values
		wantBody string
	}{
		{"missing fields", url.Values{}, "Username and password required"},
		{"short username", url.Values{"username": {"ab"}, "password": {"password1"}}, "at least 3 characters"},
		{"bad username", url.Values{"username": {"1alice"}, "password": {"password1"}}, "must start with a letter"},
		{"short password", url.Values{"username": {"alice"}, "password": {"pw"}}, "at least 8 characters"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postForm(mux, "/register", tc.form, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
		})
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	_, _, mux := newTestServer(t)
	cookie := loginAs(t, mux, "alice", "pw1secret")

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0, "logout must expire the cookie")
}

func TestHome_ListsUsers(t *testing.T) {
	_, st, mux := newTestServer(t)
	cookie := loginAs(t, mux, "alice", "pw1secret")

	require.NoError(t, st.CreateUser(context.Background(), "bob", "password1"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Welcome, alice")
	assert.Contains(t, body, "bob")
}

func TestSeats_ListsRoomCapacities(t *testing.T) {
	_, st, mux := newTestServer(t)
	cookie := loginAs(t, mux, "alice", "pw1secret")

	require.NoError(t, st.UpsertRoomSeats(context.Background(), "RoomA", 3, 10))

	req := httptest.NewRequest(http.MethodGet, "/seats", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "RoomA")
	assert.Contains(t, rec.Body.String(), "10")
}

func TestAdmin_ShowsUtilization(t *testing.T) {
	_, st, mux := newTestServer(t)
	cookie := loginAs(t, mux, "alice", "pw1secret")

	require.NoError(t, st.UpsertRoomSeats(context.Background(), "RoomA", 5, 10))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "RoomA")
}

func TestReserveSeat(t *testing.T) {
	_, st, mux := newTestServer(t)
	cookie := loginAs(t, mux, "alice", "pw1secret")

	require.NoError(t, st.UpsertRoomSeats(context.Background(), "RoomA", 1, 10))

	rec := postForm(mux, "/reserve_seat", url.Values{"study_room": {"RoomA"}}, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Seat reserved successfully", decodeJSON(t, rec)["message"])

	info, err := st.GetRoomSeats(context.Background(), "RoomA")
	require.NoError(t, err)
	assert.Equal(t, 0, info.VacantSeats)

	// Room is now full
	rec = postForm(mux, "/reserve_seat", url.Values{"study_room": {"RoomA"}}, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no vacant seats", decodeJSON(t, rec)["error"])
}

func TestReserveSeat_UnknownRoom(t *testing.T) {
	_, _, mux := newTestServer(t)
	cookie := loginAs(t, mux, "alice", "pw1secret")

	rec := postForm(mux, "/reserve_seat", url.Values{"study_room": {"Nowhere"}}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "room not found", decodeJSON(t, rec)["error"])
}

func TestReserveSeat_MissingField(t *testing.T) {
	_, _, mux := newTestServer(t)
	cookie := loginAs(t, mux, "alice", "pw1secret")

	rec := postForm(mux, "/reserve_seat", url.Values{}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "study_room is required", decodeJSON(t, rec)["error"])
}

func TestDeleteSeat(t *testing.T) {
	_, st, mux := newTestServer(t)
	cookie := loginAs(t, mux, "alice", "pw1secret")

	require.NoError(t, st.UpsertRoomSeats(context.Background(), "RoomA", 9, 10))

	rec := postForm(mux, "/delete_seat", url.Values{"study_room": {"RoomA"}}, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Seat deleted successfully", decodeJSON(t, rec)["message"])

	info, err := st.GetRoomSeats(context.Background(), "RoomA")
	require.NoError(t, err)
	assert.Equal(t, 10, info.VacantSeats)

	// Nothing left to release
	rec = postForm(mux, "/delete_seat", url.Values{"study_room": {"RoomA"}}, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no reserved seats", decodeJSON(t, rec)["error"])
}

func TestRoomImage(t *testing.T) {
	_, st, mux := newTestServer(t)
	cookie := loginAs(t, mux, "alice", "pw1secret")

	data := []byte("fake image bytes")
	require.NoError(t, st.SaveImage(context.Background(), "RoomA", data, "image/jpeg"))

	req := httptest.NewRequest(http.MethodGet, "/rooms/RoomA/image", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, data, rec.Body.Bytes())

	// Absent image is a 404, not a server error
	req = httptest.NewRequest(http.MethodGet, "/rooms/RoomB/image", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginPage_RedirectsAuthenticated(t *testing.T) {
	_, _, mux := newTestServer(t)
	cookie := loginAs(t, mux, "alice", "pw1secret")

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestHealth(t *testing.T) {
	_, _, mux := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeJSON(t, rec)["status"])
}
