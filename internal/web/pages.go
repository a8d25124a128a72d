package web

import (
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"
)

var errContactFields = errors.New("please fill in your name, a valid email and a message")

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	message := strings.TrimSpace(r.FormValue("message"))

	if name == "" || message == "" {
		s.flashError(w, errContactFields)
		s.redirect(w, r, "/contact")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		s.flashError(w, errContactFields)
		s.redirect(w, r, "/contact")
		return
	}

	log.Printf("Contact message from %s <%s> (%d chars)", name, email, len(message))
	s.flashSuccess(w, "Message sent successfully! We'll get back to you soon.")
	s.redirect(w, r, "/contact")
}
