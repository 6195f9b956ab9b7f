package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fanguan/pos-app/models"
	"github.com/fanguan/pos-app/store"
	"github.com/fanguan/pos-app/utils"
)

// KitchenController is read-only over the order document except for
// the flags the kitchen owns: line fulfillment, section payment and
// order completion.
type KitchenController struct {
	Store *store.Store
}

func NewKitchenController(st *store.Store) *KitchenController {
	return &KitchenController{Store: st}
}

// GetOrders lists pending orders oldest first, the way tickets hang on
// the rail.
func (kc *KitchenController) GetOrders(c *gin.Context) {
	orders := kc.Store.PendingOrders()
	type entry struct {
		*models.Order
		Label string `json:"label"`
	}
	out := make([]entry, 0, len(orders))
	for _, o := range orders {
		out = append(out, entry{Order: o, Label: o.Label()})
	}
	utils.RespondJSON(c, http.StatusOK, "Pending orders", out)
}

// ToggleLineCompletion flips the fulfilled flag of one line.
func (kc *KitchenController) ToggleLineCompletion(c *gin.Context) {
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
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid line index"))
		return
	}

	if !kc.Store.ToggleLineCompletion(orderID, section, index) {
		utils.RespondError(c, http.StatusNotFound, errors.New("order or line not found"))
		return
	}
	order, _ := kc.Store.Order(orderID)
	utils.RespondJSON(c, http.StatusOK, "Line toggled", order)
}

// TogglePayment flips one section's paid flag from the kitchen side.
func (kc *KitchenController) TogglePayment(c *gin.Context) {
	togglePayment(c, kc.Store)
}

// Complete marks the whole order done; it drops off both displays'
// pending views on the next synchronization cycle.
func (kc *KitchenController) Complete(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	if !kc.Store.Complete(orderID) {
		utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}
	order, _ := kc.Store.Order(orderID)
	utils.RespondJSON(c, http.StatusOK, "Order completed", order)
}
