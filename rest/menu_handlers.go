package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/goliatone/go-marketplace/core"
)

type menuItem struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

type menuCategory struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Items []menuItem `json:"items"`
}

type menu struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Categories []menuCategory `json:"categories"`
}

// mockMenus is the canned catalog every store serves. Menu management is
// outside the simulator's remit; the endpoints exist so POS clients can
// exercise their sync flows end to end.
func mockMenus() []menu {
	return []menu{
		{
			ID:    "menu_1",
			Title: "Main Menu",
			Categories: []menuCategory{
				{
					ID:    "cat_1",
					Title: "Burgers",
					Items: []menuItem{
						{ID: "item_1", Title: "Classic Burger", Price: 12.99},
						{ID: "item_2", Title: "Cheese Burger", Price: 14.99},
					},
				},
			},
		},
	}
}

func (s *Server) handleGetMenus(w http.ResponseWriter, r *http.Request, _ core.AccessToken) {
	s.respondJSON(w, http.StatusOK, map[string]any{"menus": mockMenus()})
}

func (s *Server) handleUploadMenu(w http.ResponseWriter, r *http.Request, _ core.AccessToken) {
	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message":  "Menu uploaded successfully",
		"store_id": mux.Vars(r)["store_id"],
	})
}
