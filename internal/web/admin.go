package web

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/agroscan/agroscan/internal/admin"
	"github.com/agroscan/agroscan/internal/auth"
	"github.com/agroscan/agroscan/internal/store"
	"github.com/agroscan/agroscan/pkg/models"
)

var errLoginRequired = errors.New("please log in to continue")

type adminData struct {
	Tab        string
	Demo       bool
	SignedIn   bool
	Log        []models.HistoryEntry
	Components []admin.Component
	Retraining bool
	Datasets   []store.Dataset
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	data := adminData{
		Tab:  "login",
		Demo: s.auth.Mode() == auth.ModeDemo,
	}
	if r.URL.Query().Get("tab") == "register" {
		data.Tab = "register"
	}

	if auth.IsAuthenticated(r.Context()) {
		entries, err := s.adminLog(r.Context())
		if err != nil {
			log.Printf("Failed to load analysis log: %v", err)
		}
		datasets, err := s.admin.Datasets(r.Context())
		if err != nil {
			log.Printf("Failed to load datasets: %v", err)
		}
		data.SignedIn = true
		data.Log = entries
		data.Datasets = datasets
		data.Components = s.admin.Status()
		data.Retraining = s.admin.Retraining()
	}

	s.render(w, r, "admin", "admin", data)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess, err := s.auth.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
	switch {
	case errors.Is(err, auth.ErrMissingCredentials), errors.Is(err, auth.ErrInvalidCredentials):
		s.flashError(w, err)
		s.redirect(w, r, "/admin")
		return
	case err != nil:
		log.Printf("Login failed: %v", err)
		s.setFlash(w, "error", "Login failed, please try again")
		s.redirect(w, r, "/admin")
		return
	}

	auth.SetSessionCookie(w, sess.Token, sess.Expires, s.secure)
	log.Printf("Admin %s logged in", sess.Username)
	s.flashSuccess(w, "Login successful!")
	s.redirect(w, r, "/admin")
}

// handleRegister keeps the user on the register tab until an account exists.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	_, err := s.auth.Register(r.Context(), auth.Registration{
		FullName: r.FormValue("full_name"),
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
		Confirm:  r.FormValue("confirm_password"),
	})
	switch {
	case errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrUsernameTaken):
		s.flashError(w, err)
		s.redirect(w, r, "/admin?tab=register")
		return
	case err != nil:
		log.Printf("Registration failed: %v", err)
		s.setFlash(w, "error", "Registration failed, please try again")
		s.redirect(w, r, "/admin?tab=register")
		return
	}

	s.flashSuccess(w, "Registration successful! Please log in.")
	s.redirect(w, r, "/admin")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, s.secure)
	s.flashSuccess(w, "Logged out successfully")
	s.redirect(w, r, "/admin")
}

// requireAdmin returns the signed-in username or redirects to the login form.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !auth.IsAuthenticated(r.Context()) {
		s.flashError(w, errLoginRequired)
		s.redirect(w, r, "/admin")
		return "", false
	}
	return auth.Username(r.Context()), true
}

func (s *Server) handleDatasetUpload(w http.ResponseWriter, r *http.Request) {
	username, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.setFlash(w, "error", "Dataset is too large")
		} else {
			s.flashError(w, admin.ErrNoFiles)
		}
		s.redirect(w, r, "/admin")
		return
	}

	files, err := readFiles(r, "dataset")
	if err != nil {
		log.Printf("Failed to read dataset upload: %v", err)
		s.setFlash(w, "error", "Failed to read the uploaded dataset")
		s.redirect(w, r, "/admin")
		return
	}

	d, err := s.admin.AddDataset(r.Context(), files, username)
	if err != nil {
		if errors.Is(err, admin.ErrNoFiles) || errors.Is(err, admin.ErrNoImages) {
			s.flashError(w, err)
		} else {
			log.Printf("Dataset upload failed: %v", err)
			s.setFlash(w, "error", "Dataset upload failed")
		}
		s.redirect(w, r, "/admin")
		return
	}

	log.Printf("Dataset %q uploaded by %s: %d images", d.Name, username, d.Images)
	s.flashSuccess(w, fmt.Sprintf("Dataset uploaded successfully (%d images)", d.Images))
	s.redirect(w, r, "/admin")
}

func readFiles(r *http.Request, field string) ([]admin.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var files []admin.File
	for _, header := range r.MultipartForm.File[field] {
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, admin.File{Name: header.Filename, Data: data})
	}
	return files, nil
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	username, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}

	if err := s.admin.Retrain(username); err != nil {
		s.flashError(w, err)
		s.redirect(w, r, "/admin")
		return
	}

	s.flashSuccess(w, "Model retraining initiated")
	s.redirect(w, r, "/admin")
}
