package ui

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
)

const flashCookieName = "gd_flash"

const (
	flashSuccess = "success"
	flashError   = "error"
)

// flash is a one-shot toast carried across a post/redirect/get round trip.
type flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

func (h *Handler) setFlash(w http.ResponseWriter, kind, message string) {
	data, err := json.Marshal(flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	sealed, err := h.sealer.Seal(flashCookieName, base64.RawURLEncoding.EncodeToString(data))
	if err != nil {
		slog.Warn("sealing flash cookie", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    sealed,
		Path:     h.cookiePath(),
		MaxAge:   60,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending toast, if any, and clears it.
func (h *Handler) popFlash(w http.ResponseWriter, r *http.Request) *flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Path:     h.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})

	opened, err := h.sealer.Open(flashCookieName, cookie.Value)
	if err != nil {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(opened)
	if err != nil {
		return nil
	}
	var f flash
	if err := json.Unmarshal(data, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}
