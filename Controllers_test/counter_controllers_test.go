package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fanguan/pos-app/catalog"
	"github.com/fanguan/pos-app/replication"
	"github.com/fanguan/pos-app/router"
	"github.com/fanguan/pos-app/store"
	"github.com/fanguan/pos-app/utils"
)

const testOperatorPassword = "888666"

func setupCounterRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	utils.InitLogger()
	utils.InitJWT()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	repl, err := replication.NewLocal(db, time.Hour)
	if err != nil {
		panic(err)
	}
	t.Cleanup(func() { repl.Close() })

	st := store.New(repl)
	r, err := router.SetupRouter(st, catalog.Fallback(), testOperatorPassword)
	if err != nil {
		panic(err)
	}
	return r, st
}

func doJSON(r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp utils.JSONResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]interface{})
	return data
}

func TestAddItemTwiceMergesIntoOneLine(t *testing.T) {
	r, _ := setupCounterRouter(t)

	w := doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "1"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "1"})
	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, "composing", data["mode"])
	assert.Equal(t, 76.0, data["total"])
	assert.Equal(t, "¥76", data["total_label"])

	cart := data["cart"].(map[string]interface{})
	food := cart["food"].([]interface{})
	assert.Len(t, food, 1)
	assert.Equal(t, 2.0, food[0].(map[string]interface{})["quantity"])
}

func TestAddItemUnknownIDLeavesCartUntouched(t *testing.T) {
	r, _ := setupCounterRouter(t)

	w := doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "no-such"})
	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, "idle", data["mode"])
	assert.Equal(t, 0.0, data["total"])
}

func TestAddItemRoutesDrinksToDrinkSection(t *testing.T) {
	r, _ := setupCounterRouter(t)

	w := doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "14"})
	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	cart := data["cart"].(map[string]interface{})
	assert.Len(t, cart["drink"], 1)
	assert.Empty(t, cart["food"])
	assert.Equal(t, 5.0, data["drink_total"])
}

func TestAddComboSumsTiers(t *testing.T) {
	r, _ := setupCounterRouter(t)

	w := doJSON(r, "POST", "/counter/cart/combo", map[string]interface{}{
		"combo_id":    "staple",
		"ingredients": map[string]float64{"noodles": 3, "greens": 5},
		"flavor_id":   "sour",
		"spicy":       true,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, 8.0, data["food_total"])

	cart := data["cart"].(map[string]interface{})
	line := cart["food"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "combo", line["kind"])
	assert.Contains(t, line["detail"], "Noodles")
	assert.Contains(t, line["detail"], "Hot & Sour")
}

func TestAddComboWithNothingSelectedRejected(t *testing.T) {
	r, _ := setupCounterRouter(t)

	w := doJSON(r, "POST", "/counter/cart/combo", map[string]interface{}{
		"combo_id":    "staple",
		"ingredients": map[string]float64{"noodles": 0},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddWeightComputesRoundedTotal(t *testing.T) {
	r, _ := setupCounterRouter(t)

	w := doJSON(r, "POST", "/counter/cart/weight", map[string]interface{}{
		"weights": map[string]float64{"fish": 2.5},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, 30.0, data["food_total"])
}

func TestChangeQuantityToZeroRemovesLine(t *testing.T) {
	r, _ := setupCounterRouter(t)

	doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "2"})
	w := doJSON(r, "PATCH", "/counter/cart/lines", map[string]interface{}{
		"line_id": "2", "section": "food", "delta": -1,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, "idle", data["mode"])
	cart := data["cart"].(map[string]interface{})
	assert.Empty(t, cart["food"])
}

func TestSubmitEmptyCartRejected(t *testing.T) {
	r, _ := setupCounterRouter(t)

	w := doJSON(r, "POST", "/counter/submit", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitCreatesOrderAndClearsSession(t *testing.T) {
	r, st := setupCounterRouter(t)

	doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "1"})
	doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "14"})

	w := doJSON(r, "POST", "/counter/submit", map[string]interface{}{"dining_mode": "takeout"})
	assert.Equal(t, http.StatusCreated, w.Code)

	order := decodeData(t, w)
	assert.Equal(t, 1.0, order["number"])
	assert.Equal(t, "takeout", order["dining_mode"])
	assert.Equal(t, 43.0, order["total"])
	assert.Equal(t, "pending", order["status"])

	// Session is back to idle and the next number advanced.
	w = doJSON(r, "GET", "/counter/session", nil)
	session := decodeData(t, w)
	assert.Equal(t, "idle", session["mode"])
	assert.Equal(t, 2.0, session["next_number"])
	assert.Equal(t, 1, st.PendingCount())
}

func TestAppendFlowKeepsPaymentAndMergesDrinks(t *testing.T) {
	r, st := setupCounterRouter(t)

	doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "1"})
	w := doJSON(r, "POST", "/counter/submit", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	orderID := int64(decodeData(t, w)["id"].(float64))

	// Food is paid before the table orders another round.
	w = doJSON(r, "POST", fmt.Sprintf("/counter/orders/%d/payment/food", orderID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, "POST", fmt.Sprintf("/counter/orders/%d/append", orderID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	session := decodeData(t, w)
	assert.Equal(t, "appending", session["mode"])
	assert.Equal(t, "drink", session["category"])

	// Food is locked in append mode, drinks go through.
	w = doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "14"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, "POST", "/counter/submit", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	live, ok := st.Order(orderID)
	assert.True(t, ok)
	assert.True(t, live.FoodPaid)
	assert.Len(t, live.Drinks, 1)
	assert.Equal(t, 43.0, live.Total)
	assert.Equal(t, 1, live.Number)

	// Session left append mode.
	w = doJSON(r, "GET", "/counter/session", nil)
	assert.Equal(t, "idle", decodeData(t, w)["mode"])
}

func TestCancelAppendLeavesOrderUntouched(t *testing.T) {
	r, st := setupCounterRouter(t)

	doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "1"})
	w := doJSON(r, "POST", "/counter/submit", nil)
	orderID := int64(decodeData(t, w)["id"].(float64))

	doJSON(r, "POST", fmt.Sprintf("/counter/orders/%d/append", orderID), nil)
	doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "14"})
	w = doJSON(r, "POST", "/counter/append/cancel", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	live, _ := st.Order(orderID)
	assert.Empty(t, live.Drinks)
	assert.Equal(t, 38.0, live.Total)
}

func TestAppendComposersRejected(t *testing.T) {
	r, _ := setupCounterRouter(t)

	doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "1"})
	w := doJSON(r, "POST", "/counter/submit", nil)
	orderID := int64(decodeData(t, w)["id"].(float64))
	doJSON(r, "POST", fmt.Sprintf("/counter/orders/%d/append", orderID), nil)

	w = doJSON(r, "POST", "/counter/cart/combo", map[string]interface{}{
		"combo_id": "staple", "ingredients": map[string]float64{"noodles": 3},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, "POST", "/counter/cart/weight", map[string]interface{}{
		"weights": map[string]float64{"fish": 1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryListsPendingWithLabels(t *testing.T) {
	r, _ := setupCounterRouter(t)

	doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "1"})
	doJSON(r, "POST", "/counter/submit", nil)

	w := doJSON(r, "GET", "/counter/orders", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp utils.JSONResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	entries := resp.Data.([]interface{})
	assert.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, "#001", entry["label"])
	assert.Equal(t, "¥38", entry["total_label"])
}

func TestAdminEndpointsRequireAuthAndConfirm(t *testing.T) {
	r, st := setupCounterRouter(t)

	doJSON(r, "POST", "/counter/cart/items", map[string]interface{}{"item_id": "1"})
	doJSON(r, "POST", "/counter/submit", nil)

	// No token at all.
	w := doJSON(r, "POST", "/admin/sequence/reset", map[string]interface{}{"confirm": true})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong password does not mint a token.
	w = doJSON(r, "POST", "/auth/login", map[string]interface{}{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, "POST", "/auth/login", map[string]interface{}{"password": testOperatorPassword})
	assert.Equal(t, http.StatusOK, w.Code)
	token := decodeData(t, w)["token"].(string)

	authed := func(path string, payload interface{}) *httptest.ResponseRecorder {
		b, _ := json.Marshal(payload)
		req, _ := http.NewRequest("POST", path, bytes.NewBuffer(b))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	// Token without the confirm flag is still refused.
	w = authed("/admin/sequence/reset", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = authed("/admin/sequence/reset", map[string]interface{}{"confirm": true})
	assert.Equal(t, http.StatusOK, w.Code)
	sep := decodeData(t, w)
	assert.Equal(t, true, sep["separator"])
	assert.NotEmpty(t, sep["banner"])
	assert.Equal(t, 1, st.NextNumber())

	w = authed("/admin/history/clear", map[string]interface{}{"confirm": true})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decodeData(t, w)["removed"], "only the separator is completed")
}
