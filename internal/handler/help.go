package handler

import (
	"net/http"

	"github.com/lootbay/lootbay/internal/api"
	"github.com/lootbay/lootbay/internal/service"
)

type helpHandler struct {
	helpService *service.HelpService
}

func NewHelpHandler(helpService *service.HelpService) *helpHandler {
	return &helpHandler{helpService: helpService}
}

func (h *helpHandler) List(w http.ResponseWriter, r *http.Request) {
	articles := h.helpService.Articles()

	items := make([]map[string]any, 0, len(articles))
	for _, a := range articles {
		items = append(items, map[string]any{
			"slug":        a.Slug,
			"title":       a.Title,
			"description": a.Description,
			"category":    a.Category,
		})
	}
	api.JSON(w, http.StatusOK, items)
}

func (h *helpHandler) Article(w http.ResponseWriter, r *http.Request) {
	article, ok := h.helpService.BySlug(r.PathValue("slug"))
	if !ok {
		api.Error(w, http.StatusNotFound, "Article not found")
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{
		"slug":        article.Slug,
		"title":       article.Title,
		"description": article.Description,
		"category":    article.Category,
		"html":        article.HTMLContent,
	})
}
