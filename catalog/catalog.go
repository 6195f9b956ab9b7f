package catalog

import (
	"encoding/json"
	"os"

	"github.com/fanguan/pos-app/models"
	"github.com/fanguan/pos-app/utils"
)

// Load reads the menu definition from path. A missing or broken file
// must not leave the displays blank, so any load failure falls back to
// the built-in emergency menu and is logged as a degraded-mode notice.
func Load(path string) *models.Catalog {
	data, err := os.ReadFile(path)
	if err != nil {
		utils.ErrorLogger.Printf("Failed to read menu file %s: %v - using built-in catalog", path, err)
		return Fallback()
	}

	var cat models.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		utils.ErrorLogger.Printf("Failed to parse menu file %s: %v - using built-in catalog", path, err)
		return Fallback()
	}

	if len(cat.Categories) == 0 || len(cat.Items) == 0 {
		utils.ErrorLogger.Printf("Menu file %s has no categories or items - using built-in catalog", path)
		return Fallback()
	}

	utils.InfoLogger.Printf("Loaded catalog: %d categories, %d items", len(cat.Categories), len(cat.Items))
	return &cat
}

// Fallback is the minimal built-in catalog. It keeps one category of
// every kind usable so the composers still work while degraded.
func Fallback() *models.Catalog {
	return &models.Catalog{
		Categories: []models.Category{
			{ID: "hot", Name: "Hot Dishes", Icon: "🍲", Kind: models.CategoryKindSimple},
			{ID: "staple", Name: "Staples", Icon: "🍜", Kind: models.CategoryKindCombo},
			{ID: "soup", Name: "Soups", Icon: "🥘", Kind: models.CategoryKindWeight},
			{ID: "drink", Name: "Drinks", Icon: "🥤", Kind: models.CategoryKindSimple, IsDrink: true},
		},
		Items: []models.CatalogItem{
			{ID: "1", Name: "Braised Pork", Price: 38, Icon: "🥩", Category: "hot"},
			{ID: "2", Name: "Mapo Tofu", Price: 18, Icon: "🌶️", Category: "hot"},
			{ID: "14", Name: "Cola", Price: 5, Icon: "🥤", Category: "drink"},
			{ID: "15", Name: "Herbal Tea", Price: 6, Icon: "🍵", Category: "drink"},
		},
		Ingredients: []models.ComboIngredient{
			{ID: "noodles", Name: "Noodles", Icon: "🍜", Category: "staple"},
			{ID: "rice", Name: "Rice", Icon: "🍚", Category: "staple"},
			{ID: "greens", Name: "Greens", Icon: "🥬", Category: "staple"},
		},
		PriceTiers: []float64{0, 2, 3, 5},
		Flavors: []models.FlavorOption{
			{ID: "sour", Name: "Hot & Sour", Icon: "🍋"},
			{ID: "plain", Name: "Clear Broth", Icon: "🥣"},
		},
		WeightItems: []models.WeightItem{
			{ID: "fish", Name: "Pickled Fish", Icon: "🐟", PricePerUnit: 12, UnitLabel: "jin"},
		},
	}
}
