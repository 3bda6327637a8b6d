package regions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/Nbras002/MHV-PS/internal/shared"
)

func regionsRequest(t *testing.T, acceptLanguage string, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	NewHandler().MountRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if acceptLanguage != "" {
		req.Header.Set("Accept-Language", acceptLanguage)
	}
	if authenticated {
		sess := &shared.Session{}
		sess.SetUser("271f92bb-0f43-4f1c-9b4e-2ad672c2f2da")
		req = req.WithContext(shared.WithSession(req.Context(), sess))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type regionsResponse struct {
	Regions []regionView `json:"regions"`
}

func TestListRegionsRequiresSession(t *testing.T) {
	rec := regionsRequest(t, "", false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListRegionsEnglishDefault(t *testing.T) {
	rec := regionsRequest(t, "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body regionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Regions, 19)
	require.Equal(t, "headquarters", body.Regions[0].Code)
	require.Equal(t, "Headquarters", body.Regions[0].Name)
}

func TestListRegionsArabicNegotiation(t *testing.T) {
	rec := regionsRequest(t, "ar-SA,ar;q=0.9,en;q=0.5", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body regionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "المقر الرئيسي", body.Regions[0].Name)
}
