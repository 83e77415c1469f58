package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esb/quicklist/internal/auth"
	"github.com/esb/quicklist/internal/catalog"
	"github.com/esb/quicklist/internal/directory"
	"github.com/esb/quicklist/internal/ipchecker"
	"github.com/esb/quicklist/internal/kv/memkv"
	"github.com/esb/quicklist/internal/models"
	"github.com/esb/quicklist/internal/registry"
	"github.com/esb/quicklist/internal/store"
)

const (
	testCookieName = "quicklist_session"
	testSubnet     = "10.0.0.0/8"
)

var testSigningKey = []byte("test-signing-key")

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	backend, err := memkv.New()
	require.NoError(t, err)
	theStore := store.New(backend)

	theDirectory := directory.New(theStore)
	theRegistry := registry.New(theStore)
	theCatalog := catalog.New(theStore)

	clientIPChecker, err := ipchecker.New(testSubnet)
	require.NoError(t, err)

	handler := New(
		theDirectory,
		theRegistry,
		theCatalog,
		auth.New(theDirectory, testCookieName, testSigningKey, time.Hour),
		theStore,
		clientIPChecker,
	)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func newClient(server *httptest.Server) *resty.Client {
	return resty.New().SetBaseURL(server.URL)
}

func registerAndLogin(t *testing.T, client *resty.Client, email string) {
	t.Helper()

	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(models.RegisterRequest{Email: email, Password: "Secret#11"}).
		Post("/api/user/register")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode())

	resp, err = client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(models.LoginRequest{Email: email, Password: "Secret#11"}).
		Post("/api/user/login")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestRegister(t *testing.T) {
	server := newTestServer(t)
	client := newClient(server)

	testCases := []struct {
		name         string
		body         models.RegisterRequest
		expectedCode int
	}{
		{
			name:         "positive",
			body:         models.RegisterRequest{Email: "first@example.com", Password: "Secret#11"},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "duplicate email",
			body:         models.RegisterRequest{Email: "first@example.com", Password: "Secret#11"},
			expectedCode: http.StatusConflict,
		},
		{
			name:         "password fails the policy",
			body:         models.RegisterRequest{Email: "second@example.com", Password: "short"},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "malformed email",
			body:         models.RegisterRequest{Email: "not-an-email", Password: "Secret#11"},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := client.R().
				SetHeader("Content-Type", "application/json").
				SetBody(tc.body).
				Post("/api/user/register")
			require.NoError(t, err)
			assert.Equal(t, tc.expectedCode, resp.StatusCode())
		})
	}
}

func TestLoginAndMe(t *testing.T) {
	server := newTestServer(t)
	client := newClient(server)

	resp, err := client.R().Get("/api/user/me")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode(), "unauthenticated access is rejected")

	registerAndLogin(t, client, "first@example.com")

	var me models.UserResponse
	resp, err = client.R().SetResult(&me).Get("/api/user/me")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "first@example.com", me.Email)
	assert.Equal(t, models.RoleUser, me.Role)

	t.Run("wrong password", func(t *testing.T) {
		resp, err := client.R().
			SetHeader("Content-Type", "application/json").
			SetBody(models.LoginRequest{Email: "first@example.com", Password: "Wrong#111"}).
			Post("/api/user/login")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	})

	t.Run("logout invalidates the cookie", func(t *testing.T) {
		resp, err := client.R().Post("/api/user/logout")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode())

		resp, err = client.R().Get("/api/user/me")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	})
}

func TestListLifecycle(t *testing.T) {
	server := newTestServer(t)
	creator := newClient(server)
	friend := newClient(server)

	registerAndLogin(t, creator, "creator@example.com")
	registerAndLogin(t, friend, "friend@example.com")

	var created models.CreateListResponse
	resp, err := creator.R().
		SetHeader("Content-Type", "application/json").
		SetBody(models.CreateListRequest{Name: "Groceries"}).
		SetResult(&created).
		Post("/api/lists")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode())
	require.Regexp(t, `^[A-Z0-9]{6}$`, created.ListCode)

	t.Run("lookup is case-insensitive on user input", func(t *testing.T) {
		var list models.ShoppingList
		resp, err := friend.R().SetResult(&list).Get("/api/lists/" + strings.ToLower(created.ListCode))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, created.ListCode, list.ListCode)
	})

	t.Run("join and member order", func(t *testing.T) {
		resp, err := friend.R().Post("/api/lists/" + created.ListCode + "/join")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())

		resp, err = friend.R().Post("/api/lists/" + created.ListCode + "/join")
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode(), "joining twice is a conflict")

		var members models.MembersResponse
		resp, err = creator.R().SetResult(&members).Get("/api/lists/" + created.ListCode + "/members")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, []string{"creator@example.com", "friend@example.com"}, members.Members)
	})

	t.Run("rename is guarded", func(t *testing.T) {
		resp, err := friend.R().
			SetHeader("Content-Type", "application/json").
			SetBody(models.RenameListRequest{Name: "Hijacked"}).
			Patch("/api/lists/" + created.ListCode)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode())

		resp, err = creator.R().
			SetHeader("Content-Type", "application/json").
			SetBody(models.RenameListRequest{Name: "Weekend shopping"}).
			Patch("/api/lists/" + created.ListCode)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
	})

	t.Run("created filter", func(t *testing.T) {
		var lists []models.ShoppingList
		resp, err := friend.R().SetResult(&lists).Get("/api/lists?created=true")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Empty(t, lists)

		resp, err = friend.R().SetResult(&lists).Get("/api/lists")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		require.Len(t, lists, 1)
		assert.Equal(t, created.ListCode, lists[0].ListCode)
	})

	t.Run("delete cascades and is guarded", func(t *testing.T) {
		resp, err := friend.R().Delete("/api/lists/" + created.ListCode)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode())

		resp, err = creator.R().Delete("/api/lists/" + created.ListCode)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode())

		resp, err = creator.R().Get("/api/lists/" + created.ListCode)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	})
}

func TestProductLifecycle(t *testing.T) {
	server := newTestServer(t)
	creator := newClient(server)
	outsider := newClient(server)

	registerAndLogin(t, creator, "creator@example.com")
	registerAndLogin(t, outsider, "outsider@example.com")

	var created models.CreateListResponse
	resp, err := creator.R().
		SetHeader("Content-Type", "application/json").
		SetBody(models.CreateListRequest{Name: "Groceries"}).
		SetResult(&created).
		Post("/api/lists")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode())

	t.Run("only members may add products", func(t *testing.T) {
		resp, err := outsider.R().
			SetHeader("Content-Type", "application/json").
			SetBody(models.AddProductRequest{Name: "Milk", Quantity: 1}).
			Post("/api/lists/" + created.ListCode + "/products")
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode())
	})

	var milk models.Product
	resp, err = creator.R().
		SetHeader("Content-Type", "application/json").
		SetBody(models.AddProductRequest{Name: "Milk", Quantity: 2, Price: 3.5}).
		SetResult(&milk).
		Post("/api/lists/" + created.ListCode + "/products")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode())
	assert.NotEmpty(t, milk.ID)
	assert.Equal(t, "creator@example.com", milk.AddedBy)

	t.Run("statistics in quantity units", func(t *testing.T) {
		var stats models.Statistics
		resp, err := creator.R().SetResult(&stats).Get("/api/lists/" + created.ListCode + "/stats")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, 2, stats.TotalItems)
		assert.Equal(t, 0, stats.PurchasedItems)
		assert.Equal(t, 2, stats.RemainingItems)
		assert.InDelta(t, 7.0, stats.TotalCost, 0.0001)
	})

	t.Run("toggle purchased", func(t *testing.T) {
		resp, err := creator.R().
			SetHeader("Content-Type", "application/json").
			SetBody(models.ToggleRequest{Purchased: true}).
			Post("/api/products/" + milk.ID + "/toggle")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())

		var stats models.Statistics
		resp, err = creator.R().SetResult(&stats).Get("/api/lists/" + created.ListCode + "/stats")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, 2, stats.PurchasedItems)
		assert.Equal(t, 0, stats.RemainingItems)
	})

	t.Run("update replaces the mutable fields", func(t *testing.T) {
		resp, err := creator.R().
			SetHeader("Content-Type", "application/json").
			SetBody(models.UpdateProductRequest{
				Name:     "Oat milk",
				Category: "Dairy",
				Quantity: 1,
				ListCode: created.ListCode,
				Price:    4.2,
			}).
			Put("/api/products/" + milk.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())

		var categories []string
		resp, err = creator.R().SetResult(&categories).Get("/api/lists/" + created.ListCode + "/categories")
		require.NoError(t, err)
		assert.Equal(t, []string{"Dairy"}, categories)
	})

	t.Run("delete by id only", func(t *testing.T) {
		resp, err := creator.R().Delete("/api/products/" + milk.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode())

		var products []models.Product
		resp, err = creator.R().SetResult(&products).Get("/api/lists/" + created.ListCode + "/products")
		require.NoError(t, err)
		assert.Empty(t, products)

		resp, err = creator.R().Delete("/api/products/" + milk.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	})
}

func TestInternalStats(t *testing.T) {
	server := newTestServer(t)
	client := newClient(server)

	registerAndLogin(t, client, "first@example.com")

	resp, err := client.R().Get("/api/internal/stats")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode(), "an address outside the trusted subnet is rejected")

	var stats models.InternalStatsResponse
	resp, err = client.R().
		SetHeader("X-Real-IP", "10.1.2.3").
		SetResult(&stats).
		Get("/api/internal/stats")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, 1, stats.Users)
	assert.Equal(t, 0, stats.Lists)
}

func TestPing(t *testing.T) {
	server := newTestServer(t)
	client := newClient(server)

	resp, err := client.R().Get("/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}
