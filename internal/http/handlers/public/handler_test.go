package public

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dujiao-next/cartflow/internal/config"
	"github.com/dujiao-next/cartflow/internal/provider"
	"github.com/dujiao-next/cartflow/internal/repository"
	"github.com/dujiao-next/cartflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
)

func newTestEngine(t *testing.T) (*gin.Engine, repository.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := repository.NewFileStore(afero.NewMemMapFs(), "/data")
	if err != nil {
		t.Fatalf("open file store failed: %v", err)
	}
	h := New(provider.NewContainer(config.Defaults(), store))
	r := gin.New()
	r.GET("/products", h.GetProducts)
	r.GET("/products/:id", h.GetProduct)
	r.GET("/search_product_by_id", h.GetProductByQuery)
	r.POST("/products", h.CreateProduct)
	r.PUT("/products/:id", h.UpdateProduct)
	r.DELETE("/products/:id", h.DeleteProduct)
	r.DELETE("/delete_product", h.DeleteProductByQuery)
	r.GET("/cart", h.GetCart)
	r.POST("/cart/checkout", h.Checkout)
	r.POST("/cart/add", h.AddToCart)
	r.POST("/cart/cancel", h.CancelCart)
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.POST("/order", h.PlaceOrder)
	r.PUT("/order-status", h.UpdateOrderStatus)
	r.DELETE("/order", h.DeleteOrder)
	r.POST("/checkout", h.LegacyCheckout)
	r.PUT("/order_placed", h.LegacyUpdateOrderStatus)
	r.GET("/healthz", h.Healthz)
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return body
}

func createProduct(t *testing.T, r *gin.Engine, price float64, stock int) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/products", map[string]interface{}{
		"name":        "Widget",
		"description": "d",
		"price":       price,
		"stock":       stock,
		"imageUrl":    "u",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create product status want 201 got %d body=%s", w.Code, w.Body.String())
	}
	id, _ := decodeBody(t, w)["id"].(string)
	if id == "" {
		t.Fatalf("created product should carry an id: %s", w.Body.String())
	}
	return id
}

func TestProductEndpoints(t *testing.T) {
	r, _ := newTestEngine(t)

	id := createProduct(t, r, 10, 5)
	if id != "1" {
		t.Fatalf("first generated id want 1 got %s", id)
	}

	w := doJSON(t, r, http.MethodGet, "/products/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get product status want 200 got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, "/products/"+id, map[string]interface{}{"stock": 7, "id": "99"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status want 200 got %d body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["id"] != id || body["stock"] != float64(7) || body["name"] != "Widget" {
		t.Fatalf("update should merge fields and keep id: %v", body)
	}

	w = doJSON(t, r, http.MethodDelete, "/products/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status want 200 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, "/products/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status want 404 got %d", w.Code)
	}
	if decodeBody(t, w)["error"] != "Product not found" {
		t.Fatalf("404 body should carry error message: %s", w.Body.String())
	}
}

func TestCreateProductValidation(t *testing.T) {
	r, _ := newTestEngine(t)

	w := doJSON(t, r, http.MethodPost, "/products", map[string]interface{}{"name": "x"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing fields status want 400 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/products", "{bad json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status want 400 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/products", map[string]interface{}{
		"name": "x", "description": "d", "price": 1, "stock": 0, "imageUrl": "u",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("zero stock should be accepted, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/products", map[string]interface{}{
		"id": 1, "name": "x", "description": "d", "price": 1, "stock": 1, "imageUrl": "u",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate id status want 400 got %d", w.Code)
	}
}

func TestProductQueryAliases(t *testing.T) {
	r, _ := newTestEngine(t)
	id := createProduct(t, r, 3, 1)

	w := doJSON(t, r, http.MethodGet, "/search_product_by_id", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing query id status want 400 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/search_product_by_id?id="+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("query lookup status want 200 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, "/delete_product?id="+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("query delete status want 200 got %d", w.Code)
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	r, _ := newTestEngine(t)
	id := createProduct(t, r, 10, 5)

	w := doJSON(t, r, http.MethodPost, "/cart/checkout", map[string]interface{}{"productId": id, "quantity": 6})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("stock exceeded status want 400 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/cart/checkout", map[string]interface{}{"productId": "404", "quantity": 1})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown product status want 404 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/cart/checkout", map[string]interface{}{"productId": id})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing quantity status want 400 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/cart/checkout", map[string]interface{}{"id": 1, "quantity": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("legacy id checkout status want 200 got %d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/cart/add", map[string]interface{}{"productId": id})
	if w.Code != http.StatusOK {
		t.Fatalf("add default quantity status want 200 got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/cart", nil)
	var items []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("unmarshal cart failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("cart items want 1 got %d", len(items))
	}
	if items[0]["quantity"] != float64(3) || items[0]["lineTotal"] != float64(30) {
		t.Fatalf("cart item want quantity 3 lineTotal 30 got %v", items[0])
	}
}

func TestOrderLifecycleEndpoints(t *testing.T) {
	r, _ := newTestEngine(t)
	id := createProduct(t, r, 10, 5)

	w := doJSON(t, r, http.MethodPost, "/order", map[string]interface{}{"id": "o1", "date": "2024-01-01", "address": "X"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty cart status want 400 got %d", w.Code)
	}

	doJSON(t, r, http.MethodPost, "/cart/checkout", map[string]interface{}{"productId": id, "quantity": 2})
	w = doJSON(t, r, http.MethodPost, "/order", map[string]interface{}{"id": "o1", "date": "2024-01-01", "address": "X"})
	if w.Code != http.StatusCreated {
		t.Fatalf("place order status want 201 got %d body=%s", w.Code, w.Body.String())
	}
	order, _ := decodeBody(t, w)["order"].(map[string]interface{})
	if order["status"] != "pending" || order["totalCost"] != float64(20) {
		t.Fatalf("placed order want pending/20 got %v", order)
	}

	w = doJSON(t, r, http.MethodGet, "/cart", nil)
	if w.Body.String() != "[]" {
		t.Fatalf("cart should be empty after placement, got %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodPut, "/order-status", map[string]interface{}{"id": "o1", "status": "SHIPPED"})
	if w.Code != http.StatusOK {
		t.Fatalf("status update want 200 got %d", w.Code)
	}
	updated, _ := decodeBody(t, w)["updatedOrder"].(map[string]interface{})
	if updated["status"] != "shipped" || updated["address"] != "X" {
		t.Fatalf("updated order want shipped with address kept, got %v", updated)
	}
	w = doJSON(t, r, http.MethodPut, "/order-status", map[string]interface{}{"id": "o1", "status": "lost"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid status want 400 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPut, "/order-status", map[string]interface{}{"id": "o2", "status": "shipped"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown order want 404 got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/orders/o1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get order want 200 got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, "/order?id=o1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete by query want 200 got %d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodDelete, "/order", map[string]interface{}{"id": "o1"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("delete again want 404 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, "/order", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("delete without id want 400 got %d", w.Code)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	r, _ := newTestEngine(t)
	id := createProduct(t, r, 1, 1)
	doJSON(t, r, http.MethodPost, "/cart/checkout", map[string]interface{}{"productId": id, "quantity": 1})

	w := doJSON(t, r, http.MethodPost, "/order", map[string]interface{}{"id": "o1", "address": "X"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing date want 400 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/order", map[string]interface{}{"id": "o1", "date": "yesterday", "address": "X"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed date want 400 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/cart", nil)
	var items []map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &items)
	if len(items) != 1 {
		t.Fatalf("rejected placement should leave cart untouched, got %d", len(items))
	}
}

func TestCancelCartEndpoint(t *testing.T) {
	r, _ := newTestEngine(t)
	id := createProduct(t, r, 2, 9)
	doJSON(t, r, http.MethodPost, "/cart/checkout", map[string]interface{}{"productId": id, "quantity": 1})

	w := doJSON(t, r, http.MethodPost, "/cart/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel want 200 got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["removedItems"] != float64(1) || body["cancelledLines"] != float64(0) {
		t.Fatalf("cancel counts want removed 1 cancelled 0 got %v", body)
	}
}

func TestHealthz(t *testing.T) {
	r, _ := newTestEngine(t)
	w := doJSON(t, r, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz want 200 got %d", w.Code)
	}
	if decodeBody(t, w)["store"] != "file" {
		t.Fatalf("healthz should report the store driver: %s", w.Body.String())
	}
}

func TestRespondWithMappedErrorHidesCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	respondWithMappedError(c, errors.New("open /data/orders.json: permission denied"), orderLookupErrorRules)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("unmapped error want 500 got %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("permission denied")) {
		t.Fatalf("response should not expose the cause: %s", w.Body.String())
	}
}

func TestRespondWithMappedErrorMatchesWrapped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	wrapped := errors.Join(errors.New("ctx"), service.ErrOrderNotFound)
	respondWithMappedError(c, wrapped, orderLookupErrorRules)

	if w.Code != http.StatusNotFound {
		t.Fatalf("wrapped not found want 404 got %d", w.Code)
	}
}

func TestRequestBindingRejectsMissingFields(t *testing.T) {
	r, _ := newTestEngine(t)
	id := createProduct(t, r, 1, 5)

	cases := []struct {
		method string
		path   string
		body   interface{}
		msg    string
	}{
		{http.MethodPut, "/order-status", map[string]interface{}{"id": "o1"}, "Both order ID and status are required in the request body"},
		{http.MethodPut, "/order-status", map[string]interface{}{"id": " ", "status": "shipped"}, "Both order ID and status are required in the request body"},
		{http.MethodPost, "/order", map[string]interface{}{"date": "2024-01-01", "address": "X"}, "ID, date, and address are required in the request body"},
		{http.MethodPost, "/cart/checkout", map[string]interface{}{"quantity": 1}, "Both product ID and quantity are required in the request body"},
		{http.MethodPost, "/cart/checkout", map[string]interface{}{"productId": id, "quantity": -1}, "Both product ID and quantity are required in the request body"},
		{http.MethodPost, "/cart/add", map[string]interface{}{"productId": id, "quantity": 0}, "Both product ID and quantity are required in the request body"},
		{http.MethodPost, "/products", map[string]interface{}{"name": "x", "description": "d", "price": 1, "stock": -1, "imageUrl": "u"}, "Name, description, price, stock, and imageUrl are required in the request body"},
		{http.MethodPost, "/products", map[string]interface{}{"name": "x", "description": "d", "stock": 1, "imageUrl": "u"}, "Name, description, price, stock, and imageUrl are required in the request body"},
	}
	for _, tc := range cases {
		w := doJSON(t, r, tc.method, tc.path, tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s %s %v want 400 got %d", tc.method, tc.path, tc.body, w.Code)
		}
		if got := decodeBody(t, w)["error"]; got != tc.msg {
			t.Fatalf("%s %s %v want %q got %v", tc.method, tc.path, tc.body, tc.msg, got)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/cart", nil)
	if w.Body.String() != "[]" {
		t.Fatalf("rejected requests should leave cart empty, got %s", w.Body.String())
	}
}

func TestLegacyRoutesRenderLegacyShapes(t *testing.T) {
	r, _ := newTestEngine(t)
	id := createProduct(t, r, 10, 5)

	w := doJSON(t, r, http.MethodPost, "/checkout", map[string]interface{}{"id": id, "quantity": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("legacy checkout want 200 got %d body=%s", w.Code, w.Body.String())
	}
	item, _ := decodeBody(t, w)["item"].(map[string]interface{})
	if item["id"] != id || item["quantity"] != float64(3) || item["price"] != float64(30) {
		t.Fatalf("legacy item want id/quantity 3/price 30 got %v", item)
	}
	if _, ok := item["productId"]; ok {
		t.Fatalf("legacy item should not carry productId: %v", item)
	}

	doJSON(t, r, http.MethodPost, "/order", map[string]interface{}{"id": "o1", "date": "2024-01-01", "address": "X"})
	w = doJSON(t, r, http.MethodPut, "/order_placed", map[string]interface{}{"id": "o1", "status": "shipped"})
	if w.Code != http.StatusOK {
		t.Fatalf("legacy status update want 200 got %d body=%s", w.Code, w.Body.String())
	}
	order, _ := decodeBody(t, w)["updatedOrder"].(map[string]interface{})
	products, _ := order["products"].([]interface{})
	if order["status"] != "shipped" || order["totalCost"] != float64(30) || len(products) != 1 {
		t.Fatalf("legacy order want shipped/30 with 1 product got %v", order)
	}
	line, _ := products[0].(map[string]interface{})
	if line["id"] != id || line["quantity"] != float64(3) || line["price"] != float64(30) {
		t.Fatalf("legacy product want id/3/30 got %v", line)
	}
	if _, ok := order["items"]; ok {
		t.Fatalf("legacy order should not carry items: %v", order)
	}
}

func TestPlaceOrderCartChangedIsConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/order", nil)

	respondWithMappedError(c, service.ErrCartChanged, orderPlaceErrorRules)

	if w.Code != http.StatusConflict {
		t.Fatalf("cart changed want 409 got %d", w.Code)
	}
}
