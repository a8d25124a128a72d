package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"unicode"
	"unicode/utf8"
)

const flashCookie = "agroscan_flash"

// flash is a one-time notification shown on the next page view.
type flash struct {
	Kind    string `json:"kind"` // success | error
	Message string `json:"message"`
}

func (s *Server) setFlash(w http.ResponseWriter, kind, message string) {
	data, _ := json.Marshal(flash{Kind: kind, Message: message})
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) flashSuccess(w http.ResponseWriter, message string) {
	s.setFlash(w, "success", message)
}

func (s *Server) flashError(w http.ResponseWriter, err error) {
	s.setFlash(w, "error", sentence(err))
}

// popFlash reads the pending notification and clears it.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f flash
	if err := json.Unmarshal(data, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}

// sentence capitalizes an error message for display.
func sentence(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	r, size := utf8.DecodeRuneInString(msg)
	return string(unicode.ToUpper(r)) + msg[size:]
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
