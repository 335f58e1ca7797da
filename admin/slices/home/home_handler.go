package home

import (
	"embed"
	"net/http"

	common "github.com/oexza/adminfront/admin/slices/common"
	"github.com/oexza/adminfront/admin/templates"
	l "github.com/oexza/adminfront/logging"
)

//go:embed *.html
var pageFS embed.FS

var (
	homePage     = templates.MustParse(pageFS, "home.html")
	notFoundPage = templates.MustParse(pageFS, "not_found.html")
)

type HomePage struct {
	templates.PageState
}

type NotFoundPage struct {
	Path string
}

type HomeHandler struct {
	logger  l.Logger
	message string
}

func NewHomeHandler(logger l.Logger, message string) *HomeHandler {
	return &HomeHandler{
		logger:  logger,
		message: message,
	}
}

func (h *HomeHandler) HandleHomePage(w http.ResponseWriter, r *http.Request) {
	common.RenderPage(w, r, h.logger, http.StatusOK, templates.Page(homePage, HomePage{
		PageState: templates.PageState{Message: h.message},
	}))
}

func (h *HomeHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	common.RenderPage(w, r, h.logger, http.StatusNotFound, templates.Page(notFoundPage, NotFoundPage{
		Path: r.URL.Path,
	}))
}
