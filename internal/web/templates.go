// ABOUTME: Template rendering functions for the web UI
// ABOUTME: Loads templates from the embedded filesystem and renders them

package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/quiethall/seatwatch/internal/store"
)

// noticeHTML is rendered markdown injected into the dashboard.
type noticeHTML = template.HTML

// Template data types
type loginData struct {
	Title    string
	Username string // always empty, keeps the shared nav hidden
	Error    string
}

type registerData struct {
	Title    string
	Username string
	Error    string
}

type homeData struct {
	Title    string
	Username string
	Users    []*store.User
}

type dashboardData struct {
	Title    string
	Username string
	Notice   noticeHTML
}

type seatsData struct {
	Title    string
	Username string
	Rooms    []store.RoomCapacity
}

type adminData struct {
	Title       string
	Username    string
	Utilization []*store.RoomSeatInfo
}

// renderLoginPage renders the login page
func (s *Server) renderLoginPage(w http.ResponseWriter, errorMsg string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/login.html"))

	data := loginData{
		Title: "Login",
		Error: errorMsg,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render login page", "error", err)
	}
}

// renderRegisterPage renders the registration page
func (s *Server) renderRegisterPage(w http.ResponseWriter, errorMsg string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/register.html"))

	data := registerData{
		Title: "Register",
		Error: errorMsg,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render register page", "error", err)
	}
}

// renderHomePage renders the home page with the user list
func (s *Server) renderHomePage(w http.ResponseWriter, username string, users []*store.User) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/index.html"))

	data := homeData{
		Title:    "Home",
		Username: username,
		Users:    users,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render home page", "error", err)
	}
}

// renderDashboard renders the dashboard page
func (s *Server) renderDashboard(w http.ResponseWriter, username string, notice noticeHTML) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/dashboard.html"))

	data := dashboardData{
		Title:    "Dashboard",
		Username: username,
		Notice:   notice,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render dashboard", "error", err)
	}
}

// renderSeatsPage renders the room capacity list
func (s *Server) renderSeatsPage(w http.ResponseWriter, username string, rooms []store.RoomCapacity) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/seats.html"))

	data := seatsData{
		Title:    "Seats",
		Username: username,
		Rooms:    rooms,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render seats page", "error", err)
	}
}

// renderAdminPage renders the seat utilization table
func (s *Server) renderAdminPage(w http.ResponseWriter, username string, utilization []*store.RoomSeatInfo) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/admin.html"))

	data := adminData{
		Title:       "Admin",
		Username:    username,
		Utilization: utilization,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render admin page", "error", err)
	}
}

// renderNotice converts the embedded dashboard notice from markdown to HTML.
// Rendering happens once at startup; the result is reused by every request.
func (s *Server) renderNotice() noticeHTML {
	mdContent, err := docsFS.ReadFile("docs/notice.md")
	if err != nil {
		s.logger.Warn("no dashboard notice found", "error", err)
		return ""
	}

	var htmlBuf bytes.Buffer
	if err := goldmark.Convert(mdContent, &htmlBuf); err != nil {
		s.logger.Error("failed to convert notice markdown", "error", err)
		return ""
	}

	return noticeHTML(htmlBuf.String())
}
