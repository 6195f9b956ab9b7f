package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fanguan/pos-app/models"
	"github.com/fanguan/pos-app/utils"
)

type CatalogController struct {
	Catalog *models.Catalog
}

func NewCatalogController(cat *models.Catalog) *CatalogController {
	return &CatalogController{Catalog: cat}
}

// GetCatalog returns the full menu definition in one shot; the displays
// cache it for the session.
func (cc *CatalogController) GetCatalog(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Catalog", cc.Catalog)
}

// GetCategoryItems returns the simple items of one category, the slice
// the menu grid renders.
func (cc *CatalogController) GetCategoryItems(c *gin.Context) {
	categoryID := c.Param("category_id")
	if _, ok := cc.Catalog.CategoryByID(categoryID); !ok {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("unknown category %q", categoryID))
		return
	}

	var items []models.CatalogItem
	for _, it := range cc.Catalog.Items {
		if it.Category == categoryID {
			items = append(items, it)
		}
	}
	utils.RespondJSON(c, http.StatusOK, "Category items", items)
}
