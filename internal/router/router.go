// Package router wires the HTTP API of the service: user account
// operations, list management, product management and the operator
// endpoints. Handlers collect and validate raw input, then call into
// the core components; the core only re-checks structural and
// referential invariants.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/esb/quicklist/internal/auth"
	"github.com/esb/quicklist/internal/authz"
	"github.com/esb/quicklist/internal/gzippedhttp"
	"github.com/esb/quicklist/internal/ipchecker"
	"github.com/esb/quicklist/internal/logger"
	"github.com/esb/quicklist/internal/models"
	"github.com/esb/quicklist/internal/password"
	"github.com/esb/quicklist/internal/session"
)

type userDirectory interface {
	Register(ctx context.Context, email, pass string, role models.Role) error
	Authenticate(ctx context.Context, email, pass string) (*session.Session, error)
	Logout(ctx context.Context, sess *session.Session) error
	UserRecord(ctx context.Context, sess *session.Session) (*models.User, error)
	UserCount(ctx context.Context) (int, error)
}

type listRegistry interface {
	CreateList(ctx context.Context, sess *session.Session, name, category string) (string, error)
	List(ctx context.Context, listCode string) (*models.ShoppingList, error)
	JoinList(ctx context.Context, sess *session.Session, listCode string) error
	LeaveList(ctx context.Context, sess *session.Session, listCode string) error
	RemoveMember(ctx context.Context, sess *session.Session, listCode, memberEmail string) error
	RenameList(ctx context.Context, listCode, newName string) error
	DeleteList(ctx context.Context, sess *session.Session, listCode string) error
	ListsForUser(ctx context.Context, sess *session.Session) ([]models.ShoppingList, error)
	CreatedListsForUser(ctx context.Context, sess *session.Session) ([]models.ShoppingList, error)
	ListMembers(ctx context.Context, listCode string) ([]string, error)
	ListCount(ctx context.Context) (int, error)
}

type productCatalog interface {
	AddProduct(ctx context.Context, sess *session.Session, product models.Product) (*models.Product, error)
	Products(ctx context.Context, listCode string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product models.Product) error
	DeleteProduct(ctx context.Context, productID string) error
	TogglePurchased(ctx context.Context, productID string, purchased bool) error
	CategoriesForList(ctx context.Context, listCode string) ([]string, error)
	Statistics(ctx context.Context, listCode string) (models.Statistics, error)
}

type authenticator interface {
	IssueSession(response http.ResponseWriter, email string) error
	ClearSession(response http.ResponseWriter)
	RequireUser(h http.Handler) http.Handler
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Handlers binds the HTTP layer to the core components.
type Handlers struct {
	directory userDirectory
	registry  listRegistry
	catalog   productCatalog
	auth      authenticator
	db        pinger
	ipChecker *ipchecker.IPChecker
	validate  *validator.Validate
}

// New assembles the chi router with all routes and middleware.
func New(
	directory userDirectory,
	registry listRegistry,
	catalog productCatalog,
	authHandler authenticator,
	db pinger,
	ipChecker *ipchecker.IPChecker,
) *chi.Mux {
	h := &Handlers{
		directory: directory,
		registry:  registry,
		catalog:   catalog,
		auth:      authHandler,
		db:        db,
		ipChecker: ipChecker,
		validate:  validator.New(),
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(gzippedhttp.UngzipRequest)
	router.Use(gzippedhttp.GzipResponse)

	router.Get(`/ping`, h.GetPing)

	router.Post(`/api/user/register`, h.PostRegister)
	router.Post(`/api/user/login`, h.PostLogin)

	router.Group(func(authenticated chi.Router) {
		authenticated.Use(h.auth.RequireUser)

		authenticated.Post(`/api/user/logout`, h.PostLogout)
		authenticated.Get(`/api/user/me`, h.GetMe)

		authenticated.Post(`/api/lists`, h.PostCreateList)
		authenticated.Get(`/api/lists`, h.GetLists)
		authenticated.Get(`/api/lists/{code}`, h.GetList)
		authenticated.Patch(`/api/lists/{code}`, h.PatchRenameList)
		authenticated.Delete(`/api/lists/{code}`, h.DeleteList)
		authenticated.Post(`/api/lists/{code}/join`, h.PostJoinList)
		authenticated.Post(`/api/lists/{code}/leave`, h.PostLeaveList)
		authenticated.Get(`/api/lists/{code}/members`, h.GetListMembers)
		authenticated.Delete(`/api/lists/{code}/members/{email}`, h.DeleteListMember)

		authenticated.Post(`/api/lists/{code}/products`, h.PostAddProduct)
		authenticated.Get(`/api/lists/{code}/products`, h.GetProducts)
		authenticated.Get(`/api/lists/{code}/categories`, h.GetCategories)
		authenticated.Get(`/api/lists/{code}/stats`, h.GetStatistics)

		authenticated.Put(`/api/products/{id}`, h.PutUpdateProduct)
		authenticated.Delete(`/api/products/{id}`, h.DeleteProduct)
		authenticated.Post(`/api/products/{id}/toggle`, h.PostToggleProduct)
	})

	router.Get(`/api/internal/stats`, h.GetInternalStats)

	return router
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNoSession),
		errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrCodeSpaceExhausted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *Handlers) fail(response http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Log.Errorw("storage failure", "error", err)
		http.Error(response, "internal error", status)
		return
	}
	http.Error(response, err.Error(), status)
}

func writeJSON(response http.ResponseWriter, status int, value any) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(value); err != nil {
		logger.Log.Debugw("encoding response", "error", err)
	}
}

func (h *Handlers) decodeAndValidate(request *http.Request, into any) error {
	if err := json.NewDecoder(request.Body).Decode(into); err != nil {
		return models.ErrValidation
	}
	if err := h.validate.Struct(into); err != nil {
		return models.ErrValidation
	}
	return nil
}

// listCodeParam normalizes a user-entered list code: codes are
// generated uppercase but membership checks match exactly.
func listCodeParam(request *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(chi.URLParam(request, "code")))
}

// GetPing reports storage health.
func (h *Handlers) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := h.db.Ping(request.Context()); err != nil {
		h.fail(response, err)
		return
	}
	response.WriteHeader(http.StatusOK)
}

// PostRegister creates a new account after checking the email format
// and the password policy at the edge.
func (h *Handlers) PostRegister(response http.ResponseWriter, request *http.Request) {
	var body models.RegisterRequest
	if err := h.decodeAndValidate(request, &body); err != nil {
		h.fail(response, err)
		return
	}
	if !password.IsValid(body.Password) {
		http.Error(response, password.ErrorMessage(body.Password), http.StatusBadRequest)
		return
	}

	if err := h.directory.Register(request.Context(), body.Email, body.Password, body.Role); err != nil {
		h.fail(response, err)
		return
	}

	response.WriteHeader(http.StatusCreated)
}

// PostLogin authenticates and issues a session token.
func (h *Handlers) PostLogin(response http.ResponseWriter, request *http.Request) {
	var body models.LoginRequest
	if err := h.decodeAndValidate(request, &body); err != nil {
		h.fail(response, err)
		return
	}

	sess, err := h.directory.Authenticate(request.Context(), body.Email, body.Password)
	if err != nil {
		h.fail(response, err)
		return
	}

	if err := h.auth.IssueSession(response, sess.Email); err != nil {
		h.fail(response, err)
		return
	}

	writeJSON(response, http.StatusOK, map[string]string{"email": sess.Email})
}

// PostLogout clears both the persisted current user and the cookie.
func (h *Handlers) PostLogout(response http.ResponseWriter, request *http.Request) {
	sess := auth.SessionFromContext(request.Context())
	if err := h.directory.Logout(request.Context(), sess); err != nil {
		h.fail(response, err)
		return
	}
	h.auth.ClearSession(response)
	response.WriteHeader(http.StatusNoContent)
}

// GetMe returns the acting user's record without the password.
func (h *Handlers) GetMe(response http.ResponseWriter, request *http.Request) {
	sess := auth.SessionFromContext(request.Context())
	usr, err := h.directory.UserRecord(request.Context(), sess)
	if err != nil {
		h.fail(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.UserResponse{
		Email:        usr.Email,
		Role:         usr.Role,
		CreatedLists: usr.CreatedListCodes,
		JoinedLists:  usr.JoinedListCodes,
	})
}

// PostCreateList creates a list and returns its generated code.
func (h *Handlers) PostCreateList(response http.ResponseWriter, request *http.Request) {
	var body models.CreateListRequest
	if err := h.decodeAndValidate(request, &body); err != nil {
		h.fail(response, err)
		return
	}

	sess := auth.SessionFromContext(request.Context())
	listCode, err := h.registry.CreateList(request.Context(), sess, body.Name, body.Category)
	if err != nil {
		h.fail(response, err)
		return
	}

	writeJSON(response, http.StatusCreated, models.CreateListResponse{ListCode: listCode})
}

// GetLists returns the acting user's joined lists, or created lists
// when ?created=true.
func (h *Handlers) GetLists(response http.ResponseWriter, request *http.Request) {
	sess := auth.SessionFromContext(request.Context())

	var lists []models.ShoppingList
	var err error
	if request.URL.Query().Get("created") == "true" {
		lists, err = h.registry.CreatedListsForUser(request.Context(), sess)
	} else {
		lists, err = h.registry.ListsForUser(request.Context(), sess)
	}
	if err != nil {
		h.fail(response, err)
		return
	}

	writeJSON(response, http.StatusOK, lists)
}

// GetList returns a single list by code.
func (h *Handlers) GetList(response http.ResponseWriter, request *http.Request) {
	list, err := h.registry.List(request.Context(), listCodeParam(request))
	if err != nil {
		h.fail(response, err)
		return
	}
	writeJSON(response, http.StatusOK, list)
}

// PatchRenameList renames a list. Only users passing the management
// guard may rename.
func (h *Handlers) PatchRenameList(response http.ResponseWriter, request *http.Request) {
	var body models.RenameListRequest
	if err := h.decodeAndValidate(request, &body); err != nil {
		h.fail(response, err)
		return
	}

	listCode := listCodeParam(request)
	if err := h.requireManagement(request, listCode); err != nil {
		h.fail(response, err)
		return
	}

	if err := h.registry.RenameList(request.Context(), listCode, body.Name); err != nil {
		h.fail(response, err)
		return
	}
	response.WriteHeader(http.StatusOK)
}

// DeleteList deletes a list with its full cascade.
func (h *Handlers) DeleteList(response http.ResponseWriter, request *http.Request) {
	sess := auth.SessionFromContext(request.Context())
	if err := h.registry.DeleteList(request.Context(), sess, listCodeParam(request)); err != nil {
		h.fail(response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}

// PostJoinList adds the acting user to a list.
func (h *Handlers) PostJoinList(response http.ResponseWriter, request *http.Request) {
	sess := auth.SessionFromContext(request.Context())
	if err := h.registry.JoinList(request.Context(), sess, listCodeParam(request)); err != nil {
		h.fail(response, err)
		return
	}
	response.WriteHeader(http.StatusOK)
}

// PostLeaveList removes the acting user from a list.
func (h *Handlers) PostLeaveList(response http.ResponseWriter, request *http.Request) {
	sess := auth.SessionFromContext(request.Context())
	if err := h.registry.LeaveList(request.Context(), sess, listCodeParam(request)); err != nil {
		h.fail(response, err)
		return
	}
	response.WriteHeader(http.StatusOK)
}

// GetListMembers returns the members, creator first.
func (h *Handlers) GetListMembers(response http.ResponseWriter, request *http.Request) {
	listCode := listCodeParam(request)
	members, err := h.registry.ListMembers(request.Context(), listCode)
	if err != nil {
		h.fail(response, err)
		return
	}
	writeJSON(response, http.StatusOK, models.MembersResponse{
		ListCode: listCode,
		Members:  members,
	})
}

// DeleteListMember removes another member from a list.
func (h *Handlers) DeleteListMember(response http.ResponseWriter, request *http.Request) {
	sess := auth.SessionFromContext(request.Context())
	memberEmail := chi.URLParam(request, "email")
	if err := h.registry.RemoveMember(request.Context(), sess, listCodeParam(request), memberEmail); err != nil {
		h.fail(response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}

// PostAddProduct appends a product to a list. Only members may
// contribute.
func (h *Handlers) PostAddProduct(response http.ResponseWriter, request *http.Request) {
	var body models.AddProductRequest
	if err := h.decodeAndValidate(request, &body); err != nil {
		h.fail(response, err)
		return
	}

	listCode := listCodeParam(request)
	if err := h.requireMembership(request, listCode); err != nil {
		h.fail(response, err)
		return
	}

	sess := auth.SessionFromContext(request.Context())
	product, err := h.catalog.AddProduct(request.Context(), sess, models.Product{
		Name:     body.Name,
		Category: body.Category,
		Quantity: body.Quantity,
		ListCode: listCode,
		Notes:    body.Notes,
		Price:    body.Price,
	})
	if err != nil {
		h.fail(response, err)
		return
	}

	writeJSON(response, http.StatusCreated, product)
}

// GetProducts returns a list's products in insertion order.
func (h *Handlers) GetProducts(response http.ResponseWriter, request *http.Request) {
	products, err := h.catalog.Products(request.Context(), listCodeParam(request))
	if err != nil {
		h.fail(response, err)
		return
	}
	writeJSON(response, http.StatusOK, products)
}

// GetCategories returns the derived category labels of a list.
func (h *Handlers) GetCategories(response http.ResponseWriter, request *http.Request) {
	categories, err := h.catalog.CategoriesForList(request.Context(), listCodeParam(request))
	if err != nil {
		h.fail(response, err)
		return
	}
	writeJSON(response, http.StatusOK, categories)
}

// GetStatistics returns a list's aggregates.
func (h *Handlers) GetStatistics(response http.ResponseWriter, request *http.Request) {
	stats, err := h.catalog.Statistics(request.Context(), listCodeParam(request))
	if err != nil {
		h.fail(response, err)
		return
	}
	writeJSON(response, http.StatusOK, stats)
}

// PutUpdateProduct replaces the mutable fields of a product.
func (h *Handlers) PutUpdateProduct(response http.ResponseWriter, request *http.Request) {
	var body models.UpdateProductRequest
	if err := h.decodeAndValidate(request, &body); err != nil {
		h.fail(response, err)
		return
	}

	err := h.catalog.UpdateProduct(request.Context(), models.Product{
		ID:        chi.URLParam(request, "id"),
		Name:      body.Name,
		Category:  body.Category,
		Quantity:  body.Quantity,
		Purchased: body.Purchased,
		ListCode:  strings.ToUpper(strings.TrimSpace(body.ListCode)),
		Notes:     body.Notes,
		Price:     body.Price,
	})
	if err != nil {
		h.fail(response, err)
		return
	}
	response.WriteHeader(http.StatusOK)
}

// DeleteProduct removes a product, searching every list for its id.
func (h *Handlers) DeleteProduct(response http.ResponseWriter, request *http.Request) {
	if err := h.catalog.DeleteProduct(request.Context(), chi.URLParam(request, "id")); err != nil {
		h.fail(response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}

// PostToggleProduct flips the purchased flag of a product.
func (h *Handlers) PostToggleProduct(response http.ResponseWriter, request *http.Request) {
	var body models.ToggleRequest
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		h.fail(response, models.ErrValidation)
		return
	}

	if err := h.catalog.TogglePurchased(request.Context(), chi.URLParam(request, "id"), body.Purchased); err != nil {
		h.fail(response, err)
		return
	}
	response.WriteHeader(http.StatusOK)
}

// GetInternalStats reports service-wide totals to operators inside the
// trusted subnet.
func (h *Handlers) GetInternalStats(response http.ResponseWriter, request *http.Request) {
	if h.ipChecker.IsTrustedSubnetEmpty() {
		response.WriteHeader(http.StatusForbidden)
		return
	}
	clientIP, err := h.ipChecker.GetClientIP(request)
	if err != nil || !h.ipChecker.Check(clientIP) {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	users, err := h.directory.UserCount(request.Context())
	if err != nil {
		h.fail(response, err)
		return
	}
	lists, err := h.registry.ListCount(request.Context())
	if err != nil {
		h.fail(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.InternalStatsResponse{
		Users: users,
		Lists: lists,
	})
}

func (h *Handlers) requireManagement(request *http.Request, listCode string) error {
	usr, list, err := h.actorAndList(request, listCode)
	if err != nil {
		return err
	}
	if !authz.CanManageList(usr, list) {
		return models.ErrForbidden
	}
	return nil
}

func (h *Handlers) requireMembership(request *http.Request, listCode string) error {
	usr, list, err := h.actorAndList(request, listCode)
	if err != nil {
		return err
	}
	if !authz.CanContributeToList(usr, list) {
		return models.ErrForbidden
	}
	return nil
}

func (h *Handlers) actorAndList(request *http.Request, listCode string) (*models.User, *models.ShoppingList, error) {
	sess := auth.SessionFromContext(request.Context())
	usr, err := h.directory.UserRecord(request.Context(), sess)
	if err != nil {
		return nil, nil, err
	}
	list, err := h.registry.List(request.Context(), listCode)
	if err != nil {
		return nil, nil, err
	}
	return usr, list, nil
}
