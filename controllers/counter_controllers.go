package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/fanguan/pos-app/cart"
	"github.com/fanguan/pos-app/models"
	"github.com/fanguan/pos-app/store"
	"github.com/fanguan/pos-app/utils"
)

// Counter session modes. Idle and Composing are distinguished only by
// whether the cart holds anything; Appending is entered explicitly by
// picking a pending order from history.
const (
	ModeIdle      = "idle"
	ModeComposing = "composing"
	ModeAppending = "appending"
)

// CounterController drives the ordering screen: one session per display
// process, holding the cart builder and the append target. Only one
// order can be the append target at a time.
type CounterController struct {
	Store   *store.Store
	Catalog *models.Catalog

	mu           sync.Mutex
	builder      *cart.Builder
	appending    bool
	appendTarget int64
	category     string
}

func NewCounterController(st *store.Store, cat *models.Catalog) *CounterController {
	return &CounterController{
		Store:    st,
		Catalog:  cat,
		builder:  cart.NewBuilder(cat),
		category: cat.DefaultCategory(),
	}
}

type sessionView struct {
	Mode         string       `json:"mode"`
	Category     string       `json:"category"`
	Cart         *models.Cart `json:"cart"`
	FoodTotal    float64      `json:"food_total"`
	DrinkTotal   float64      `json:"drink_total"`
	Total        float64      `json:"total"`
	TotalLabel   string       `json:"total_label"`
	NextNumber   int          `json:"next_number,omitempty"`
	AppendTarget int64        `json:"append_target,omitempty"`
	AppendLabel  string       `json:"append_label,omitempty"`
}

// sessionLocked builds the response view. Caller holds cc.mu.
func (cc *CounterController) sessionLocked() sessionView {
	c := cc.builder.Cart().Clone()
	view := sessionView{
		Category:   cc.category,
		Cart:       c,
		FoodTotal:  c.FoodTotal(),
		DrinkTotal: c.DrinkTotal(),
		Total:      c.Total(),
		TotalLabel: utils.FormatPrice(c.Total()),
	}
	switch {
	case cc.appending:
		view.Mode = ModeAppending
		view.AppendTarget = cc.appendTarget
		if order, ok := cc.Store.Order(cc.appendTarget); ok {
			view.AppendLabel = order.Label()
		}
	case c.IsEmpty():
		view.Mode = ModeIdle
		view.NextNumber = cc.Store.NextNumber()
	default:
		view.Mode = ModeComposing
		view.NextNumber = cc.Store.NextNumber()
	}
	return view
}

// GetSession -> current cart, totals and mode for the ordering screen.
func (cc *CounterController) GetSession(c *gin.Context) {
	cc.mu.Lock()
	view := cc.sessionLocked()
	cc.mu.Unlock()
	utils.RespondJSON(c, http.StatusOK, "Counter session", view)
}

// SelectCategory switches the menu grid. While appending, only drink
// categories are reachable.
func (cc *CounterController) SelectCategory(c *gin.Context) {
	var body struct {
		CategoryID string `json:"category_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	category, ok := cc.Catalog.CategoryByID(body.CategoryID)
	if !ok {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("unknown category %q", body.CategoryID))
		return
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.appending && !category.IsDrink {
		utils.RespondError(c, http.StatusBadRequest, errors.New("append mode shows drink categories only"))
		return
	}
	cc.category = category.ID
	utils.RespondJSON(c, http.StatusOK, "Category selected", cc.sessionLocked())
}

// AddItem puts one simple catalog item in the cart, bumping quantity on
// a repeat. Unknown ids are ignored without mutating anything.
func (cc *CounterController) AddItem(c *gin.Context) {
	var body struct {
		ItemID string `json:"item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.appending {
		item, ok := cc.Catalog.ItemByID(body.ItemID)
		if ok {
			if cat, found := cc.Catalog.CategoryByID(item.Category); !found || !cat.IsDrink {
				utils.RespondError(c, http.StatusBadRequest, errors.New("append mode accepts drinks only"))
				return
			}
		}
	}

	if !cc.builder.AddSimpleItem(body.ItemID) {
		// Unknown id: no-op per contract, the cart comes back as is.
		utils.RespondJSON(c, http.StatusOK, "Item not in catalog, ignored", cc.sessionLocked())
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item added", cc.sessionLocked())
}

// AddCombo confirms the combo composer into one food line.
func (cc *CounterController) AddCombo(c *gin.Context) {
	var sel cart.ComboSelection
	if err := c.ShouldBindJSON(&sel); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.appending {
		utils.RespondError(c, http.StatusBadRequest, errors.New("append mode accepts drinks only"))
		return
	}
	if err := cc.builder.AddCombo(sel); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Combo added", cc.sessionLocked())
}

// AddWeight confirms the weight composer into one food line.
func (cc *CounterController) AddWeight(c *gin.Context) {
	var sel cart.WeightSelection
	if err := c.ShouldBindJSON(&sel); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.appending {
		utils.RespondError(c, http.StatusBadRequest, errors.New("append mode accepts drinks only"))
		return
	}
	if err := cc.builder.AddWeight(sel); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Weighed item added", cc.sessionLocked())
}

// ChangeQuantity adds a delta to one line; the line disappears when the
// quantity would drop to zero.
func (cc *CounterController) ChangeQuantity(c *gin.Context) {
	var body struct {
		LineID  string `json:"line_id" binding:"required"`
		Section string `json:"section" binding:"required"`
		Delta   int    `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !models.ValidSection(body.Section) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown section %q", body.Section))
		return
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.builder.ChangeQuantity(body.LineID, body.Section, body.Delta) {
		utils.RespondError(c, http.StatusNotFound, errors.New("line not in cart"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Quantity changed", cc.sessionLocked())
}

func (cc *CounterController) RemoveLine(c *gin.Context) {
	section := c.Param("section")
	lineID := c.Param("line_id")
	if !models.ValidSection(section) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown section %q", section))
		return
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.builder.RemoveLine(lineID, section) {
		utils.RespondError(c, http.StatusNotFound, errors.New("line not in cart"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Line removed", cc.sessionLocked())
}

func (cc *CounterController) ClearCart(c *gin.Context) {
	cc.mu.Lock()
	cc.builder.Clear()
	view := cc.sessionLocked()
	cc.mu.Unlock()
	utils.RespondJSON(c, http.StatusOK, "Cart cleared", view)
}

// Submit commits the cart: a new order in normal flow, a merge into the
// append target in append mode. Either way the cart is cleared and the
// session returns to the default category.
func (cc *CounterController) Submit(c *gin.Context) {
	var body struct {
		DiningMode string `json:"dining_mode"`
	}
	// Body is optional; dine-in is the default.
	_ = c.ShouldBindJSON(&body)

	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.appending {
		target := cc.appendTarget
		ok := cc.Store.AppendTo(target, cc.builder.Cart())
		cc.exitAppendLocked()
		if !ok {
			// The other display completed or cleared it meanwhile.
			utils.RespondError(c, http.StatusNotFound, errors.New("order no longer pending"))
			return
		}
		order, _ := cc.Store.Order(target)
		utils.RespondJSON(c, http.StatusOK, "Order updated", order)
		return
	}

	order, err := cc.Store.Submit(cc.builder.Cart(), body.DiningMode)
	if err != nil {
		if errors.Is(err, store.ErrEmptyCart) {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	cc.builder.Clear()
	cc.category = cc.Catalog.DefaultCategory()
	utils.RespondJSON(c, http.StatusCreated, "Order submitted", order)
}

// History lists pending orders for the pick-an-order dialog, newest
// last (stored order).
func (cc *CounterController) History(c *gin.Context) {
	orders := cc.Store.PendingOrders()
	type entry struct {
		*models.Order
		Label      string `json:"label"`
		TotalLabel string `json:"total_label"`
	}
	out := make([]entry, 0, len(orders))
	for _, o := range orders {
		out = append(out, entry{Order: o, Label: o.Label(), TotalLabel: utils.FormatPrice(o.Total)})
	}
	utils.RespondJSON(c, http.StatusOK, "Pending orders", out)
}

// EnterAppend seeds the cart from a pending order's live lines (deep
// copied) and switches the session to append mode on the first drink
// category.
func (cc *CounterController) EnterAppend(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	order, ok := cc.Store.Order(orderID)
	if !ok || !order.Pending() || order.Separator {
		utils.RespondError(c, http.StatusNotFound, errors.New("no pending order with that id"))
		return
	}

	cc.mu.Lock()
	cc.builder = cart.NewBuilderFrom(cc.Catalog, order.Foods, order.Drinks)
	cc.appending = true
	cc.appendTarget = orderID
	if drink, found := cc.Catalog.FirstDrinkCategory(); found {
		cc.category = drink.ID
	}
	view := cc.sessionLocked()
	cc.mu.Unlock()

	utils.RespondJSON(c, http.StatusOK, "Append mode", view)
}

// CancelAppend abandons the edit without touching the live order.
func (cc *CounterController) CancelAppend(c *gin.Context) {
	cc.mu.Lock()
	cc.exitAppendLocked()
	view := cc.sessionLocked()
	cc.mu.Unlock()
	utils.RespondJSON(c, http.StatusOK, "Append cancelled", view)
}

func (cc *CounterController) exitAppendLocked() {
	cc.appending = false
	cc.appendTarget = 0
	cc.builder.Clear()
	cc.category = cc.Catalog.DefaultCategory()
}

// TogglePayment flips one section's paid flag on a submitted order.
func (cc *CounterController) TogglePayment(c *gin.Context) {
	togglePayment(c, cc.Store)
}

// ResetSequence starts the numbering over at 1 and drops a separator
// into history. Requires auth plus an explicit confirm.
func (cc *CounterController) ResetSequence(c *gin.Context) {
	if !confirmed(c) {
		utils.RespondError(c, http.StatusBadRequest, errors.New("confirmation required"))
		return
	}
	sep := cc.Store.ResetSequence()
	utils.InfoLogger.Printf("Order sequence reset, separator %d", sep.ID)
	utils.RespondJSON(c, http.StatusOK, "Sequence reset", sep)
}

// ClearHistory removes every completed order. Requires auth plus an
// explicit confirm.
func (cc *CounterController) ClearHistory(c *gin.Context) {
	if !confirmed(c) {
		utils.RespondError(c, http.StatusBadRequest, errors.New("confirmation required"))
		return
	}
	removed := cc.Store.ClearCompletedHistory()
	utils.InfoLogger.Printf("History cleared, %d orders removed", removed)
	utils.RespondJSON(c, http.StatusOK, "History cleared", gin.H{"removed": removed})
}

// confirmed reads the destructive-action opt-in from the body. These
// actions are never silent.
func confirmed(c *gin.Context) bool {
	var body struct {
		Confirm bool `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return false
	}
	return body.Confirm
}

// togglePayment is shared by the counter and kitchen controllers; both
// sides may flip payment flags.
func togglePayment(c *gin.Context, st *store.Store) {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}
	section := c.Param("section")
	if !models.ValidSection(section) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown section %q", section))
		return
	}

	if !st.TogglePayment(orderID, section) {
		utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}
	order, _ := st.Order(orderID)
	utils.RespondJSON(c, http.StatusOK, "Payment toggled", order)
}
