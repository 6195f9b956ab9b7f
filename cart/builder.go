package cart

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/fanguan/pos-app/models"
)

// ErrEmptySelection is returned when a composer confirms with nothing
// priced above zero. The caller notifies the operator; nothing is added.
var ErrEmptySelection = errors.New("selection has no priced items")

// ComboSelection is the ephemeral state of the combo composer before it
// collapses into one cart line. Ingredient values are the chosen tier
// price; zero means the ingredient was left out.
type ComboSelection struct {
	ComboID     string             `json:"combo_id"`
	Ingredients map[string]float64 `json:"ingredients"`
	FlavorID    string             `json:"flavor_id,omitempty"`
	Spicy       bool               `json:"spicy,omitempty"`
	Remark      string             `json:"remark,omitempty"`
}

// WeightSelection maps weight-priced item ids to the weighed amount.
type WeightSelection struct {
	Weights map[string]float64 `json:"weights"`
	Remark  string             `json:"remark,omitempty"`
}

// Builder accumulates selected catalog items into the two cart sections
// prior to submission. It holds raw lines only; totals are recomputed
// from the lines on every read.
type Builder struct {
	catalog *models.Catalog
	cart    *models.Cart
}

func NewBuilder(cat *models.Catalog) *Builder {
	return &Builder{catalog: cat, cart: models.NewCart()}
}

// NewBuilderFrom seeds a builder from an existing order's lines, deep
// copied so edits never mutate the live order before commit. Used when
// entering append mode.
func NewBuilderFrom(cat *models.Catalog, foods, drinks []models.CartLine) *Builder {
	return &Builder{
		catalog: cat,
		cart: &models.Cart{
			Food:  models.CloneLines(foods),
			Drink: models.CloneLines(drinks),
		},
	}
}

func (b *Builder) Cart() *models.Cart {
	return b.cart
}

// AddSimpleItem routes a catalog item into food or drink based on its
// category and bumps the quantity if the line already exists. Unknown
// ids are a silent no-op, reported by the false return.
func (b *Builder) AddSimpleItem(catalogID string) bool {
	item, ok := b.catalog.ItemByID(catalogID)
	if !ok {
		return false
	}
	section := models.SectionFood
	if cat, ok := b.catalog.CategoryByID(item.Category); ok && cat.IsDrink {
		section = models.SectionDrink
	}

	lines := b.cart.Section(section)
	for i := range *lines {
		if (*lines)[i].ID == item.ID {
			(*lines)[i].Quantity++
			return true
		}
	}
	*lines = append(*lines, models.CartLine{
		ID:       item.ID,
		Kind:     models.LineKindSimple,
		Name:     item.Name,
		Price:    item.Price,
		Quantity: 1,
		Icon:     item.Icon,
	})
	return true
}

// AddCombo collapses a combo selection into one food line with a minted
// identifier and a generated description. Selections that price to zero
// are rejected.
func (b *Builder) AddCombo(sel ComboSelection) error {
	category, ok := b.catalog.CategoryByID(sel.ComboID)
	if !ok || category.Kind != models.CategoryKindCombo {
		return fmt.Errorf("unknown combo category %q", sel.ComboID)
	}

	var total float64
	var parts []string
	// Walk the catalog's ingredient order so the description is stable.
	for _, ing := range b.catalog.IngredientsOf(sel.ComboID) {
		price := sel.Ingredients[ing.ID]
		if price <= 0 {
			continue
		}
		total += price
		parts = append(parts, fmt.Sprintf("¥%s %s", trimPrice(price), ing.Name))
	}
	if total <= 0 {
		return ErrEmptySelection
	}

	detail := strings.Join(parts, " + ")
	if flavor, ok := b.catalog.FlavorByID(sel.FlavorID); ok {
		detail += " · " + flavor.Name
	}
	if sel.Spicy {
		detail += " · spicy"
	}

	b.cart.Food = append(b.cart.Food, models.CartLine{
		ID:       uuid.NewString(),
		Kind:     models.LineKindCombo,
		Name:     category.Name,
		Price:    total,
		Quantity: 1,
		Icon:     category.Icon,
		Detail:   detail,
		Remark:   sel.Remark,
	})
	return nil
}

// AddWeight collapses a weight selection into one food line priced at
// round(sum of weight x unit price). Selections with no positive weight
// are rejected.
func (b *Builder) AddWeight(sel WeightSelection) error {
	var total float64
	var parts []string
	var names []string
	for _, it := range b.catalog.WeightItems {
		w := sel.Weights[it.ID]
		if w <= 0 {
			continue
		}
		total += w * it.PricePerUnit
		names = append(names, it.Name)
		parts = append(parts, fmt.Sprintf("%s %s%s", it.Name, trimPrice(w), it.UnitLabel))
	}
	if len(parts) == 0 {
		return ErrEmptySelection
	}

	b.cart.Food = append(b.cart.Food, models.CartLine{
		ID:       uuid.NewString(),
		Kind:     models.LineKindSoup,
		Name:     strings.Join(names, " / "),
		Price:    math.Round(total),
		Quantity: 1,
		Icon:     "🥘",
		Detail:   strings.Join(parts, " + "),
		Remark:   sel.Remark,
	})
	return nil
}

// ChangeQuantity adds delta to a line's quantity and removes the line
// once it would drop to zero or below. Quantities are never kept at
// zero or negative.
func (b *Builder) ChangeQuantity(lineID, section string, delta int) bool {
	lines := b.cart.Section(section)
	if lines == nil {
		return false
	}
	for i := range *lines {
		if (*lines)[i].ID != lineID {
			continue
		}
		(*lines)[i].Quantity += delta
		if (*lines)[i].Quantity <= 0 {
			*lines = append((*lines)[:i], (*lines)[i+1:]...)
		}
		return true
	}
	return false
}

func (b *Builder) RemoveLine(lineID, section string) bool {
	lines := b.cart.Section(section)
	if lines == nil {
		return false
	}
	for i := range *lines {
		if (*lines)[i].ID == lineID {
			*lines = append((*lines)[:i], (*lines)[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Builder) Clear() {
	b.cart = models.NewCart()
}

// trimPrice renders 2.5 as "2.5" and 3.0 as "3".
func trimPrice(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
