// ABOUTME: Web UI package for study-room seat availability
// ABOUTME: Provides authentication, the session gate, and all HTTP routes

package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/quiethall/seatwatch/internal/store"
)

// Username validation regex: alphanumeric + underscores, 3-32 characters
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{2,31}$`)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const userContextKey contextKey = "session_user"

// Config holds web server configuration
type Config struct {
	// SessionSecret signs the session cookie. Required, never defaulted.
	SessionSecret []byte

	// SessionDuration is how long sessions last before expiring.
	SessionDuration time.Duration
}

// Server handles all seatwatch HTTP routes.
type Server struct {
	store    store.Store
	sessions *sessionManager
	logger   *slog.Logger
	notice   noticeHTML
}

// New creates a new web server over the given store.
func New(st store.Store, cfg Config) *Server {
	duration := cfg.SessionDuration
	if duration <= 0 {
		duration = 7 * 24 * time.Hour
	}

	s := &Server{
		store:    st,
		sessions: newSessionManager(cfg.SessionSecret, duration),
		logger:   slog.Default().With("component", "web"),
	}
	s.notice = s.renderNotice()
	return s
}

// RegisterRoutes registers all routes on the given mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Public routes (no auth required)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /register", s.handleRegisterPage)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Protected page routes (redirect to login when anonymous)
	mux.HandleFunc("GET /{$}", s.requirePage(s.handleHome))
	mux.HandleFunc("GET /dashboard", s.requirePage(s.handleDashboard))
	mux.HandleFunc("GET /seats", s.requirePage(s.handleSeats))
	mux.HandleFunc("GET /admin", s.requirePage(s.handleAdmin))
	mux.HandleFunc("GET /rooms/{room}/image", s.requirePage(s.handleRoomImage))

	// Protected JSON routes (401 payload when anonymous, never a redirect)
	mux.HandleFunc("POST /reserve_seat", s.requireJSON(s.handleReserveSeat))
	mux.HandleFunc("POST /delete_seat", s.requireJSON(s.handleDeleteSeat))

	s.logger.Info("routes registered")
}

// requirePage wraps a browser-facing handler: anonymous callers are
// redirected to the login page.
func (s *Server) requirePage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := s.sessions.usernameFromRequest(r)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, username)
		next(w, r.WithContext(ctx))
	}
}

// requireJSON wraps a JSON endpoint: anonymous callers get a structured
// 401 error payload.
func (s *Server) requireJSON(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := s.sessions.usernameFromRequest(r)
		if err != nil {
			s.writeJSONError(w, http.StatusUnauthorized, "not logged in")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, username)
		next(w, r.WithContext(ctx))
	}
}

// usernameFromContext retrieves the authenticated username from the request context
func usernameFromContext(r *http.Request) string {
	username, _ := r.Context().Value(userContextKey).(string)
	return username
}

// handleLoginPage renders the login form
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// Already logged in - go straight to the home page
	if _, err := s.sessions.usernameFromRequest(r); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderLoginPage(w, "")
}

// handleLogin processes the login form submission
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		s.renderLoginPage(w, "Invalid form data")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		w.WriteHeader(http.StatusBadRequest)
		s.renderLoginPage(w, "Username and password required")
		return
	}

	ok, err := s.store.VerifyUser(r.Context(), username, password)
	if err != nil {
		s.logger.Error("failed to verify user", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		s.renderLoginPage(w, "An error occurred")
		return
	}
	if !ok {
		s.renderLoginPage(w, "Invalid username or password")
		return
	}

	token, sessionID, err := s.sessions.issue(username)
	if err != nil {
		s.logger.Error("failed to issue session", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		s.renderLoginPage(w, "An error occurred")
		return
	}
	s.sessions.setCookie(w, r, token)

	s.logger.Info("login successful", "username", username, "session_id", sessionID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout clears the session and returns to the login page
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if username, err := s.sessions.usernameFromRequest(r); err == nil {
		s.logger.Info("logout", "username", username)
	}
	s.sessions.clearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleRegisterPage renders the registration form
func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.renderRegisterPage(w, "")
}

// handleRegister processes the registration form submission
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		s.renderRegisterPage(w, "Invalid form data")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		w.WriteHeader(http.StatusBadRequest)
		s.renderRegisterPage(w, "Username and password required")
		return
	}

	if errMsg := validateUsername(username); errMsg != "" {
		w.WriteHeader(http.StatusBadRequest)
		s.renderRegisterPage(w, errMsg)
		return
	}

	if len(password) < 8 {
		w.WriteHeader(http.StatusBadRequest)
		s.renderRegisterPage(w, "Password must be at least 8 characters")
		return
	}

	if err := s.store.CreateUser(r.Context(), username, password); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			w.WriteHeader(http.StatusConflict)
			s.renderRegisterPage(w, "Username already taken")
			return
		}
		s.logger.Error("failed to create user", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		s.renderRegisterPage(w, "An error occurred")
		return
	}

	s.logger.Info("user registered", "username", username)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleHome renders the home page with the registered user list
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		http.Error(w, "Failed to load users", http.StatusInternalServerError)
		return
	}

	s.renderHomePage(w, usernameFromContext(r), users)
}

// handleDashboard renders the dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, usernameFromContext(r), s.notice)
}

// handleSeats renders the room capacity list
func (s *Server) handleSeats(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.store.ListRoomTotals(r.Context())
	if err != nil {
		s.logger.Error("failed to list room totals", "error", err)
		http.Error(w, "Failed to load rooms", http.StatusInternalServerError)
		return
	}

	s.renderSeatsPage(w, usernameFromContext(r), rooms)
}

// handleAdmin renders the seat utilization table
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	utilization, err := s.store.ListUtilization(r.Context())
	if err != nil {
		s.logger.Error("failed to list utilization", "error", err)
		http.Error(w, "Failed to load utilization", http.StatusInternalServerError)
		return
	}

	s.renderAdminPage(w, usernameFromContext(r), utilization)
}

// handleRoomImage serves the stored image for a room
func (s *Server) handleRoomImage(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")
	if room == "" {
		http.Error(w, "Room required", http.StatusBadRequest)
		return
	}

	data, contentType, err := s.store.GetImage(r.Context(), room)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "No image for this room", http.StatusNotFound)
			return
		}
		s.logger.Error("failed to get image", "error", err, "room", room)
		http.Error(w, "Failed to load image", http.StatusInternalServerError)
		return
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}

// handleReserveSeat reserves one seat in a room (atomic decrement-if-positive)
func (s *Server) handleReserveSeat(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomFromForm(w, r)
	if !ok {
		return
	}

	if err := s.store.ReserveSeat(r.Context(), room); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.writeJSONError(w, http.StatusNotFound, "room not found")
		case errors.Is(err, store.ErrNoVacantSeats):
			s.writeJSONError(w, http.StatusConflict, "no vacant seats")
		default:
			s.logger.Error("failed to reserve seat", "error", err, "room", room)
			s.writeJSONError(w, http.StatusInternalServerError, "failed to reserve seat")
		}
		return
	}

	s.logger.Info("seat reserved", "room", room, "username", usernameFromContext(r))
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Seat reserved successfully"})
}

// handleDeleteSeat releases one reserved seat in a room (bounded increment)
func (s *Server) handleDeleteSeat(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomFromForm(w, r)
	if !ok {
		return
	}

	if err := s.store.ReleaseSeat(r.Context(), room); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.writeJSONError(w, http.StatusNotFound, "room not found")
		case errors.Is(err, store.ErrNoReservedSeats):
			s.writeJSONError(w, http.StatusConflict, "no reserved seats")
		default:
			s.logger.Error("failed to release seat", "error", err, "room", room)
			s.writeJSONError(w, http.StatusInternalServerError, "failed to release seat")
		}
		return
	}

	s.logger.Info("seat released", "room", room, "username", usernameFromContext(r))
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Seat deleted successfully"})
}

// handleHealth reports server liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// roomFromForm extracts the study_room form field, answering a 400 JSON
// error when it is missing.
func (s *Server) roomFromForm(w http.ResponseWriter, r *http.Request) (string, bool) {
	if err := r.ParseForm(); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid form data")
		return "", false
	}

	room := r.FormValue("study_room")
	if room == "" {
		s.writeJSONError(w, http.StatusBadRequest, "study_room is required")
		return "", false
	}
	return room, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// validateUsername checks if username meets requirements
// Returns an error message or empty string if valid
func validateUsername(username string) string {
	if len(username) < 3 {
		return "Username must be at least 3 characters"
	}
	if len(username) > 32 {
		return "Username must be at most 32 characters"
	}
	if !usernameRegex.MatchString(username) {
		return "Username must start with a letter and contain only letters, numbers, and underscores"
	}
	return ""
}
