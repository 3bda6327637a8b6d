package regions

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/Nbras002/MHV-PS/internal/platform/httpx"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

var supportedLanguages = language.NewMatcher([]language.Tag{
	language.English,
	language.Arabic,
})

// Handler exposes the region catalog. Any authenticated caller may read it;
// there is no write path.
type Handler struct{}

// NewHandler builds a Handler instance.
func NewHandler() *Handler {
	return &Handler{}
}

// MountRoutes registers region routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listRegions)
}

type regionView struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h *Handler) listRegions(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFrom(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	tags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	tag, _, _ := supportedLanguages.Match(tags...)
	arabic := tag.Parent() == language.Arabic || tag == language.Arabic

	all := All()
	views := make([]regionView, 0, len(all))
	for _, region := range all {
		name := region.NameEN
		if arabic {
			name = region.NameAR
		}
		views = append(views, regionView{Code: region.Code, Name: name})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"regions": views})
}
