package models

// Category kinds decide which composer the ordering screen opens when
// the category is selected.
const (
	CategoryKindSimple = "simple"
	CategoryKindCombo  = "combo"
	CategoryKindWeight = "weight"
)

type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	Kind    string `json:"kind"`
	IsDrink bool   `json:"is_drink,omitempty"`
}

type CatalogItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Icon     string  `json:"icon"`
	Category string  `json:"category"`
}

// ComboIngredient is one selectable ingredient of a combo category.
// The price a customer picks for it comes from the catalog's shared
// tier list.
type ComboIngredient struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Category string `json:"category"`
}

type FlavorOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// WeightItem is priced by weight rather than per piece.
type WeightItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Icon         string  `json:"icon"`
	PricePerUnit float64 `json:"price_per_unit"`
	UnitLabel    string  `json:"unit_label"`
}

// Catalog is the loaded menu definition. Read-only after load.
type Catalog struct {
	Categories  []Category        `json:"categories"`
	Items       []CatalogItem     `json:"items"`
	Ingredients []ComboIngredient `json:"ingredients"`
	PriceTiers  []float64         `json:"price_tiers"`
	Flavors     []FlavorOption    `json:"flavors"`
	WeightItems []WeightItem      `json:"weight_items"`
}

func (c *Catalog) ItemByID(id string) (CatalogItem, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return CatalogItem{}, false
}

func (c *Catalog) CategoryByID(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

func (c *Catalog) WeightItemByID(id string) (WeightItem, bool) {
	for _, it := range c.WeightItems {
		if it.ID == id {
			return it, true
		}
	}
	return WeightItem{}, false
}

func (c *Catalog) FlavorByID(id string) (FlavorOption, bool) {
	for _, f := range c.Flavors {
		if f.ID == id {
			return f, true
		}
	}
	return FlavorOption{}, false
}

// IngredientsOf returns the ingredient options of one combo category in
// catalog order.
func (c *Catalog) IngredientsOf(categoryID string) []ComboIngredient {
	var out []ComboIngredient
	for _, ing := range c.Ingredients {
		if ing.Category == categoryID {
			out = append(out, ing)
		}
	}
	return out
}

// FirstDrinkCategory is where the counter screen lands when it enters
// append mode.
func (c *Catalog) FirstDrinkCategory() (Category, bool) {
	for _, cat := range c.Categories {
		if cat.IsDrink {
			return cat, true
		}
	}
	return Category{}, false
}

// DefaultCategory is the category shown when a session starts or an
// append edit ends.
func (c *Catalog) DefaultCategory() string {
	if len(c.Categories) == 0 {
		return ""
	}
	return c.Categories[0].ID
}
