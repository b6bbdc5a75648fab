package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"kahawa/internal/handlers"
	"kahawa/internal/middleware"
	"kahawa/internal/models"
	"kahawa/internal/repositories"
	"kahawa/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite for users
// and in-memory repositories for inventory and orders.
func setupApp() (*fiber.App, *services.AuthService, error) {
	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	// In-memory repositories keep these tests free of cross-test database state.
	inventoryRepo := repositories.NewMockInventoryRepository()
	orderRepo := repositories.NewMockOrderRepository()

	inventoryService := services.NewInventoryService(inventoryRepo, orderRepo)
	orderService := services.NewOrderService(orderRepo, userRepo, inventoryService, nil) // nil notifier
	authService := services.NewAuthService(userRepo, jwtSecret, time.Hour)

	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	orderHandler := handlers.NewOrderHandler(orderService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)

	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	authHandler.RegisterProtectedRoutes(protectedRoutes)
	inventoryHandler.RegisterRoutes(protectedRoutes)
	orderHandler.RegisterRoutes(protectedRoutes)

	return app, authService, nil
}

// TestMain suppresses logging during tests for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// jsonRequest builds a JSON request, optionally with a bearer token.
func jsonRequest(t *testing.T, method, path, token string, payload interface{}) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		assert.NoError(t, err)
		body = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// decodeBody decodes a JSON response body into a generic map.
func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// registerCustomer registers a customer account through the public API and
// returns a login token.
func registerCustomer(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	payload := map[string]string{
		"username":     username,
		"email":        username + "@example.com",
		"password":     "password123",
		"name":         "Test Customer",
		"phone_number": "+254700000000",
	}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/register", "", payload), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	return login(t, app, username)
}

// registerEmployee creates an employee account directly through the auth
// service, bootstrapping past the employee-creates-employee rule, and
// returns a login token.
func registerEmployee(t *testing.T, app *fiber.App, authService *services.AuthService, username string) string {
	t.Helper()
	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "password123",
		Role:        models.RoleEmployee,
		Name:        "Test Employee",
		PhoneNumber: "+254700000099",
	}
	creator := &models.Actor{ID: "bootstrap", Role: models.RoleEmployee}
	assert.NoError(t, authService.RegisterUser(user, creator))
	return login(t, app, username)
}

func login(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	payload := map[string]string{"username": username, "password": "password123"}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/login", "", payload), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

// createItem creates an inventory item over the API with the given token.
func createItem(t *testing.T, app *fiber.App, token string, name string, price float64, onHand, warnLimit int) string {
	t.Helper()
	payload := map[string]interface{}{
		"name":          name,
		"beverage_type": "coffee",
		"caffeinated":   true,
		"price":         price,
		"on_hand":       onHand,
		"warn_limit":    warnLimit,
	}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/inventory", token, payload), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	id, _ := body["id"].(string)
	assert.NotEmpty(t, id)
	return id
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	payload := map[string]string{
		"username":     "authflow",
		"email":        "authflow@example.com",
		"password":     "password123",
		"name":         "Auth Flow",
		"phone_number": "+254700000001",
	}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/register", "", payload), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "User registered successfully", body["message"])

	// Duplicate registration conflicts.
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/register", "", payload), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Login with the right and wrong credentials.
	token := login(t, app, "authflow")
	assert.NotEmpty(t, token)

	bad := map[string]string{"username": "authflow", "password": "wrongpassword"}
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/login", "", bad), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestEmployeeRegistration(t *testing.T) {
	app, authService, err := setupApp()
	assert.NoError(t, err)

	customerToken := registerCustomer(t, app, "regcustomer")
	employeeToken := registerEmployee(t, app, authService, "regemployee")

	newHire := map[string]string{
		"username":     "newhire",
		"email":        "newhire@example.com",
		"password":     "password123",
		"name":         "New Hire",
		"phone_number": "+254700000002",
	}

	// Customers cannot mint employee accounts.
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/employees", customerToken, newHire), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Employees can.
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/employees", employeeToken, newHire), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// The new hire has employee powers, here creating an inventory item.
	newHireToken := login(t, app, "newhire")
	createItem(t, app, newHireToken, "Hire Brew", 2.00, 5, 2)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	for _, path := range []string{"/api/v1/inventory", "/api/v1/orders"} {
		resp, err := app.Test(jsonRequest(t, http.MethodGet, path, "", nil), -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "path %s", path)
		resp.Body.Close()
	}
}

func TestInventoryVisibilityByRole(t *testing.T) {
	app, authService, err := setupApp()
	assert.NoError(t, err)

	customerToken := registerCustomer(t, app, "invcustomer")
	employeeToken := registerEmployee(t, app, authService, "invemployee")
	itemID := createItem(t, app, employeeToken, "Visibility Mocha", 3.75, 2, 3)

	// Customers cannot create inventory items.
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/inventory", customerToken, map[string]interface{}{
		"name": "Forbidden Brew",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Customers see the derived state but never the raw quantities.
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/v1/inventory/"+itemID, customerToken, nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.NoError(t, err)
	assert.Contains(t, string(raw), `"state":"FEW_REMAINING"`)
	assert.NotContains(t, string(raw), "on_hand")
	assert.NotContains(t, string(raw), "warn_limit")

	// Employees get the full record.
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/v1/inventory/"+itemID, employeeToken, nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["on_hand"])
	assert.Equal(t, float64(3), body["warn_limit"])

	// Unknown items are a 404 either way.
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/v1/inventory/missing", customerToken, nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestStockAdjustmentOverHTTP(t *testing.T) {
	app, authService, err := setupApp()
	assert.NoError(t, err)

	employeeToken := registerEmployee(t, app, authService, "stockemployee")
	itemID := createItem(t, app, employeeToken, "Adjustable Espresso", 2.50, 5, 2)

	// Deducting more than on hand conflicts and reports the shortfall.
	resp, err := app.Test(jsonRequest(t, http.MethodPatch, "/api/v1/inventory/"+itemID+"/stock", employeeToken,
		map[string]int{"delta": -8}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(8), body["requested"])
	assert.Equal(t, float64(5), body["available"])

	// A valid restock succeeds.
	resp, err = app.Test(jsonRequest(t, http.MethodPatch, "/api/v1/inventory/"+itemID+"/stock", employeeToken,
		map[string]int{"delta": 10}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(15), body["on_hand"])
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	app, authService, err := setupApp()
	assert.NoError(t, err)

	customerToken := registerCustomer(t, app, "lifecustomer")
	employeeToken := registerEmployee(t, app, authService, "lifeemployee")
	itemID := createItem(t, app, employeeToken, "Lifecycle Chai", 3.25, 5, 2)

	// The customer opens an order.
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/orders", customerToken, nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	orderID, _ := body["id"].(string)
	assert.NotEmpty(t, orderID)
	assert.Equal(t, "CREATED", body["state"])

	// Adds a beverage.
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/orders/"+orderID+"/items", customerToken,
		map[string]interface{}{"inventory_item_id": itemID, "quantity": 3}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Submits it for review.
	resp, err = app.Test(jsonRequest(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/state", customerToken,
		map[string]string{"state": "PENDING"}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "PENDING", body["state"])

	// Customers cannot approve, not even their own orders.
	resp, err = app.Test(jsonRequest(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/state", customerToken,
		map[string]string{"state": "APPROVED"}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// An employee approves and the stock is deducted.
	resp, err = app.Test(jsonRequest(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/state", employeeToken,
		map[string]string{"state": "APPROVED", "comments": "on its way"}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "APPROVED", body["state"])
	assert.NotEmpty(t, body["handler_id"])
	assert.NotEmpty(t, body["review_date"])

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/v1/inventory/"+itemID, employeeToken, nil), -1)
	assert.NoError(t, err)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(2), body["on_hand"])
	assert.Equal(t, "FEW_REMAINING", body["state"])

	// The approved order is frozen: no further transitions or item edits.
	resp, err = app.Test(jsonRequest(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/state", employeeToken,
		map[string]string{"state": "CANCELED"}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/orders/"+orderID+"/items", customerToken,
		map[string]interface{}{"inventory_item_id": itemID, "quantity": 1}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestOrderOwnership(t *testing.T) {
	app, authService, err := setupApp()
	assert.NoError(t, err)

	ownerToken := registerCustomer(t, app, "orderowner")
	strangerToken := registerCustomer(t, app, "orderstranger")
	employeeToken := registerEmployee(t, app, authService, "orderemployee")

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/orders", ownerToken, nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	orderID, _ := body["id"].(string)

	// Another customer cannot view or cancel the order.
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/v1/orders/"+orderID, strangerToken, nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Test(jsonRequest(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/state", strangerToken,
		map[string]string{"state": "CANCELED"}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// An employee sees it fine.
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/v1/orders/"+orderID, employeeToken, nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
