package ui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alecgard/groupdesk/internal/crypto"
)

func TestFlashRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sealer, err := crypto.NewSealer(key)
	require.NoError(t, err)

	for name, s := range map[string]*crypto.Sealer{"sealed": sealer, "plain": nil} {
		t.Run(name, func(t *testing.T) {
			h := &Handler{sealer: s}

			rec := httptest.NewRecorder()
			h.setFlash(rec, flashError, `Name "x" is taken, try another`)
			cookie := rec.Result().Cookies()[0]

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(cookie)
			got := h.popFlash(httptest.NewRecorder(), req)
			require.NotNil(t, got)
			assert.Equal(t, flashError, got.Kind)
			assert.Equal(t, `Name "x" is taken, try another`, got.Message)
		})
	}
}

func TestFlashRejectsForeignCookie(t *testing.T) {
	key, _ := crypto.GenerateKey()
	sealer, _ := crypto.NewSealer(key)
	h := &Handler{sealer: sealer}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: flashCookieName, Value: "forged"})
	assert.Nil(t, h.popFlash(httptest.NewRecorder(), req))
}
