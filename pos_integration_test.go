package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fanguan/pos-app/catalog"
	"github.com/fanguan/pos-app/models"
	"github.com/fanguan/pos-app/replication"
	"github.com/fanguan/pos-app/router"
	"github.com/fanguan/pos-app/store"
	"github.com/fanguan/pos-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	utils.InitJWT()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// display stands in for one device process: its own store and router
// over its own replicator, sharing only the database with the peer.
type display struct {
	store  *store.Store
	router *gin.Engine
}

func newDisplay(t *testing.T, dsn string, poll time.Duration) *display {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	repl, err := replication.NewLocal(db, poll)
	require.NoError(t, err)
	t.Cleanup(func() { repl.Close() })

	st := store.New(repl)
	r, err := router.SetupRouter(st, catalog.Fallback(), "888666")
	require.NoError(t, err)
	return &display{store: st, router: r}
}

func (d *display) post(t *testing.T, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest("POST", path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	return w
}

// Counter and kitchen run as separate processes over one shared state
// store. The counter takes an order, the kitchen picks it up by poll,
// works it and completes it, and the counter's view converges back.
func TestCounterKitchenConvergence(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	counter := newDisplay(t, dsn, 25*time.Millisecond)
	kitchen := newDisplay(t, dsn, 25*time.Millisecond)

	// Counter takes an order: two braised pork, one cola.
	w := counter.post(t, "/counter/cart/items", map[string]interface{}{"item_id": "1"})
	require.Equal(t, http.StatusOK, w.Code)
	w = counter.post(t, "/counter/cart/items", map[string]interface{}{"item_id": "1"})
	require.Equal(t, http.StatusOK, w.Code)
	w = counter.post(t, "/counter/cart/items", map[string]interface{}{"item_id": "14"})
	require.Equal(t, http.StatusOK, w.Code)

	w = counter.post(t, "/counter/submit", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	order := resp.Data.(map[string]interface{})
	orderID := int64(order["id"].(float64))
	assert.Equal(t, 81.0, order["total"])

	// The kitchen display converges on the new order by polling.
	require.Eventually(t, func() bool {
		return kitchen.store.PendingCount() == 1
	}, 2*time.Second, 10*time.Millisecond, "kitchen never saw the submitted order")

	live, ok := kitchen.store.Order(orderID)
	require.True(t, ok)
	assert.Equal(t, 1, live.Number)
	assert.Equal(t, 81.0, live.Total)

	// Kitchen delivers the pork line and completes the order.
	w = kitchen.post(t, fmt.Sprintf("/kitchen/orders/%d/lines/food/0/toggle", orderID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = kitchen.post(t, fmt.Sprintf("/kitchen/orders/%d/complete", orderID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The counter's pending view empties on its next poll.
	require.Eventually(t, func() bool {
		return counter.store.PendingCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "counter never saw the completion")

	done, ok := counter.store.Order(orderID)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, done.Status)
	require.NotNil(t, done.Foods[0].Completed)
	assert.True(t, *done.Foods[0].Completed)
}

// A sequence reset on the counter propagates so both sides agree on
// the next number.
func TestSequenceResetPropagates(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	counter := newDisplay(t, dsn, 25*time.Millisecond)
	kitchen := newDisplay(t, dsn, 25*time.Millisecond)

	w := counter.post(t, "/auth/login", map[string]interface{}{"password": "888666"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	token := resp.Data.(map[string]interface{})["token"].(string)

	// Burn a few numbers first.
	counter.post(t, "/counter/cart/items", map[string]interface{}{"item_id": "2"})
	counter.post(t, "/counter/submit", nil)
	counter.post(t, "/counter/cart/items", map[string]interface{}{"item_id": "2"})
	counter.post(t, "/counter/submit", nil)
	require.Equal(t, 3, counter.store.NextNumber())

	body, _ := json.Marshal(map[string]interface{}{"confirm": true})
	req, err := http.NewRequest("POST", "/admin/sequence/reset", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	counter.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		return kitchen.store.NextNumber() == 1
	}, 2*time.Second, 10*time.Millisecond, "kitchen never saw the reset")

	// Pre-reset orders keep their numbers on the kitchen side too.
	pending := kitchen.store.PendingOrders()
	require.Len(t, pending, 2)
	assert.Equal(t, 1, pending[0].Number)
	assert.Equal(t, 2, pending[1].Number)
}
