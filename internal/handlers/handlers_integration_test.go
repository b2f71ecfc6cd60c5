package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/broadcast"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

// setupApp wires a Fiber app on in-memory repositories with all handlers
// registered the way the server does it.
func setupApp(t *testing.T) (*fiber.App, *services.AuthService) {
	t.Helper()

	productRepo := repositories.NewMockProductRepository()
	userRepo := repositories.NewMockUserRepository()
	orderRepo := repositories.NewMockOrderRepository()
	cartRepo := repositories.NewMockCartRepository()
	notificationRepo := repositories.NewMockNotificationRepository()

	hub := broadcast.NewHub()

	authService := services.NewAuthService(userRepo, "test_jwt_secret")
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	notificationService := services.NewNotificationService(notificationRepo, orderRepo, userRepo)
	orderService := services.NewOrderService(orderRepo, cartRepo, productRepo, userRepo, notificationService, hub, nil)

	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	cartHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)

	admin := protected.Group("", middleware.AdminRequired())
	orderHandler.RegisterAdminRoutes(admin)
	notificationHandler.RegisterRoutes(admin)

	// Seed a catalog and an admin account
	for _, p := range []models.Product{
		{ID: "prod-laptop", Name: "Laptop", Description: "High performance laptop", Price: 1200.00, Image: "/images/laptop.jpg", Stock: 10},
		{ID: "prod-mouse", Name: "Mouse", Description: "Ergonomic wireless mouse", Price: 25.00, Image: "/images/mouse.jpg", Stock: 50},
	} {
		product := p
		assert.NoError(t, productRepo.Create(&product))
	}
	err := authService.RegisterUser(&models.User{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "adminpass",
		Role:     models.RoleAdmin,
	})
	assert.NoError(t, err)

	return app, authService
}

// TestMain suppresses request logging for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	resp.Body.Close()
	if len(raw) > 0 {
		// Some endpoints return arrays; those callers decode raw themselves.
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func registerAndLogin(t *testing.T, app *fiber.App, username, email, password string) string {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

func loginAdmin(t *testing.T, app *fiber.App) string {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "admin",
		"password": "adminpass",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, authService := setupApp(t)

	userToRegister := map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "User registered successfully", body["message"])

	// Self-registration never yields an admin account
	registeredUser, _ := body["user"].(map[string]interface{})
	assert.Equal(t, models.RoleUser, registeredUser["role"])

	// Duplicate username conflicts
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Login and validate the issued token
	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "testuser",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)

	claims, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "testuser", claims["username"])
	assert.Equal(t, models.RoleUser, claims["role"])
}

func TestOrderLifecycleEndToEnd(t *testing.T) {
	app, _ := setupApp(t)
	userToken := registerAndLogin(t, app, "shopper", "shopper@example.com", "password123")
	adminToken := loginAdmin(t, app)

	// Fill the cart
	resp, _ := doJSON(t, app, http.MethodPut, "/api/v1/cart", userToken, map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": "prod-laptop", "quantity": 1},
			{"product_id": "prod-mouse", "quantity": 2},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Place a COD order; items and total come from the cart, not the body
	resp, order := doJSON(t, app, http.MethodPost, "/api/v1/orders", userToken, map[string]interface{}{
		"payment_method": "cod",
		"shipping_address": map[string]string{
			"full_name":   "Shopper One",
			"phone":       "9876543210",
			"street":      "12 MG Road",
			"city":        "Bengaluru",
			"state":       "Karnataka",
			"postal_code": "560001",
		},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID, _ := order["id"].(string)
	assert.NotEmpty(t, orderID)
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, false, order["is_paid"])
	assert.Equal(t, 1250.00, order["total_price"])
	items, _ := order["items"].([]interface{})
	assert.Len(t, items, 2)

	// Cart is emptied after placement
	resp, cart := doJSON(t, app, http.MethodGet, "/api/v1/cart", userToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	cartItems, _ := cart["items"].([]interface{})
	assert.Empty(t, cartItems)

	// A second order from the now-empty cart is rejected
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders", userToken, map[string]interface{}{
		"payment_method": "cod",
		"shipping_address": map[string]string{
			"full_name":   "Shopper One",
			"phone":       "9876543210",
			"street":      "12 MG Road",
			"city":        "Bengaluru",
			"state":       "Karnataka",
			"postal_code": "560001",
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Regular users cannot drive the status pipeline
	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/orders/"+orderID+"/status", userToken, map[string]string{"status": "processing"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin advances the order to delivered
	for _, status := range []string{"processing", "shipped", "out_for_delivery", "delivered"} {
		resp, updated := doJSON(t, app, http.MethodPut, "/api/v1/orders/"+orderID+"/status", adminToken, map[string]string{"status": status})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, status, updated["status"])
	}

	// Skipping backwards is rejected as an invalid transition
	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/orders/"+orderID+"/status", adminToken, map[string]string{"status": "processing"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Request a return on the first line item
	resp, fetched := doJSON(t, app, http.MethodGet, "/api/v1/orders/"+orderID, userToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	fetchedItems, _ := fetched["items"].([]interface{})
	firstItem, _ := fetchedItems[0].(map[string]interface{})
	itemID, _ := firstItem["id"].(string)
	assert.NotEmpty(t, itemID)

	resp, returnResp := doJSON(t, app, http.MethodPost, "/api/v1/orders/"+orderID+"/return", userToken, map[string]string{
		"item_id": itemID,
		"reason":  "damaged on arrival",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	returnID, _ := returnResp["return_id"].(string)
	assert.Regexp(t, `^RET\d+[A-Z0-9]{6}$`, returnID)

	// Repeating the request conflicts
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/"+orderID+"/return", userToken, map[string]string{
		"item_id": itemID,
		"reason":  "damaged on arrival",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The order now carries the return markers
	resp, fetched = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+orderID, userToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, fetched["has_returns"])

	// The user's order list has exactly this order
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/my", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	listResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
	var myOrders []models.Order
	assert.NoError(t, json.NewDecoder(listResp.Body).Decode(&myOrders))
	listResp.Body.Close()
	assert.Len(t, myOrders, 1)
	assert.Equal(t, orderID, myOrders[0].ID)
}

func TestOrderOwnershipIsolation(t *testing.T) {
	app, _ := setupApp(t)
	aliceToken := registerAndLogin(t, app, "alice", "alice@example.com", "password123")
	malloryToken := registerAndLogin(t, app, "mallory", "mallory@example.com", "password123")

	resp, _ := doJSON(t, app, http.MethodPut, "/api/v1/cart", aliceToken, map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": "prod-mouse", "quantity": 1}},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, order := doJSON(t, app, http.MethodPost, "/api/v1/orders", aliceToken, map[string]interface{}{
		"payment_method": "cod",
		"shipping_address": map[string]string{
			"full_name":   "Alice",
			"phone":       "9876543210",
			"street":      "1 First St",
			"city":        "Bengaluru",
			"state":       "Karnataka",
			"postal_code": "560001",
		},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID, _ := order["id"].(string)

	// A different user's lookup is a plain 404, same as a missing order
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+orderID, malloryToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/orders/does-not-exist", malloryToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminNotificationFeed(t *testing.T) {
	app, _ := setupApp(t)
	userToken := registerAndLogin(t, app, "buyer", "buyer@example.com", "password123")
	adminToken := loginAdmin(t, app)

	resp, _ := doJSON(t, app, http.MethodPut, "/api/v1/cart", userToken, map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": "prod-mouse", "quantity": 1}},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders", userToken, map[string]interface{}{
		"payment_method": "cod",
		"shipping_address": map[string]string{
			"full_name":   "Buyer",
			"phone":       "9876543210",
			"street":      "2 Second St",
			"city":        "Bengaluru",
			"state":       "Karnataka",
			"postal_code": "560001",
		},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// The feed merges the stored new_order record with synthetic entries for
	// the pending order and the fresh registration
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/notifications/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	feedResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, feedResp.StatusCode)
	var feed []models.Notification
	assert.NoError(t, json.NewDecoder(feedResp.Body).Decode(&feed))
	feedResp.Body.Close()
	assert.NotEmpty(t, feed)

	var sawStored, sawSynthetic bool
	for _, n := range feed {
		if n.Type == models.NotificationTypeNewOrder && !n.Ephemeral {
			sawStored = true
		}
		if n.Ephemeral {
			sawSynthetic = true
		}
	}
	assert.True(t, sawStored)
	assert.True(t, sawSynthetic)

	// Unread count covers stored records only
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/admin/notifications/unread-count", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["unread"])

	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/admin/notifications/read-all", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/admin/notifications/unread-count", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["unread"])

	// Notification endpoints are admin only
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/admin/notifications/", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminOrderEndpoints(t *testing.T) {
	app, _ := setupApp(t)
	userToken := registerAndLogin(t, app, "payer", "payer@example.com", "password123")
	adminToken := loginAdmin(t, app)

	resp, _ := doJSON(t, app, http.MethodPut, "/api/v1/cart", userToken, map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": "prod-laptop", "quantity": 1}},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Online payment with a confirmed gateway result is paid immediately
	resp, order := doJSON(t, app, http.MethodPost, "/api/v1/orders", userToken, map[string]interface{}{
		"payment_method": "card",
		"payment_result": map[string]string{
			"transaction_id": "txn-99",
			"status":         "success",
			"payer_email":    "payer@example.com",
		},
		"shipping_address": map[string]string{
			"full_name":   "Payer",
			"phone":       "9876543210",
			"street":      "3 Third St",
			"city":        "Bengaluru",
			"state":       "Karnataka",
			"postal_code": "560001",
		},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, order["is_paid"])
	assert.Equal(t, "processing", order["status"])

	// Admin order listing
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	listResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
	var orders []models.Order
	assert.NoError(t, json.NewDecoder(listResp.Body).Decode(&orders))
	listResp.Body.Close()
	assert.Len(t, orders, 1)

	// Paid revenue covers the one paid order
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/admin/orders/revenue", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1200.00, body["revenue"])

	// Both admin endpoints reject plain users
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/admin/orders", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/admin/orders/revenue", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProtectedEndpointsWithoutAuth(t *testing.T) {
	app, _ := setupApp(t)

	// Catalog reads are public
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Cart and orders are not
	for _, path := range []string{"/api/v1/cart", "/api/v1/orders/my"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}
}
