// Package catalog manages products and the categories derived from
// them, scoped to one shopping list. Categories are never stored: a
// category exists exactly as long as a product carries it.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/esb/quicklist/internal/models"
	"github.com/esb/quicklist/internal/session"
)

type productStore interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()

	FindList(ctx context.Context, listCode string) (*models.ShoppingList, bool, error)
	ProductsByList(ctx context.Context) (map[string][]models.Product, error)
	SaveProductsByList(ctx context.Context, products map[string][]models.Product) error
	ListProducts(ctx context.Context, listCode string) ([]models.Product, error)
}

// Catalog is the product management component.
type Catalog struct {
	db productStore
}

// New creates a catalog over the typed store.
func New(db productStore) *Catalog {
	return &Catalog{db: db}
}

// AddProduct appends a product to its list's collection and returns
// the stored record. The list must exist, the quantity must be
// positive and the price non-negative. A missing id is filled with a
// random unique value; a supplied one must not collide within the
// list. The actor is recorded as AddedBy when the product carries
// none.
func (c *Catalog) AddProduct(ctx context.Context, sess *session.Session, product models.Product) (*models.Product, error) {
	if sess == nil {
		return nil, models.ErrNoSession
	}
	if product.Name == "" || product.Quantity <= 0 || product.Price < 0 {
		return nil, models.ErrValidation
	}
	if product.Category == "" {
		product.Category = models.DefaultCategory
	}
	if product.AddedBy == "" {
		product.AddedBy = sess.Email
	}
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.AddedAt == 0 {
		product.AddedAt = time.Now().UnixMilli()
	}

	c.db.Lock()
	defer c.db.Unlock()

	_, found, err := c.db.FindList(ctx, product.ListCode)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNotFound
	}

	products, err := c.db.ProductsByList(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range products[product.ListCode] {
		if existing.ID == product.ID {
			return nil, models.ErrConflict
		}
	}

	products[product.ListCode] = append(products[product.ListCode], product)
	if err := c.db.SaveProductsByList(ctx, products); err != nil {
		return nil, err
	}
	return &product, nil
}

// Products returns the list's products in insertion order. An unknown
// or emptied list yields an empty sequence, not an error.
func (c *Catalog) Products(ctx context.Context, listCode string) ([]models.Product, error) {
	c.db.RLock()
	defer c.db.RUnlock()

	return c.db.ListProducts(ctx, listCode)
}

// UpdateProduct replaces the mutable fields of the product matched by
// id within the product's own list scope.
func (c *Catalog) UpdateProduct(ctx context.Context, updated models.Product) error {
	if updated.Name == "" || updated.Quantity <= 0 || updated.Price < 0 {
		return models.ErrValidation
	}

	c.db.Lock()
	defer c.db.Unlock()

	products, err := c.db.ProductsByList(ctx)
	if err != nil {
		return err
	}

	listProducts := products[updated.ListCode]
	for i := range listProducts {
		if listProducts[i].ID != updated.ID {
			continue
		}
		listProducts[i].Name = updated.Name
		listProducts[i].Category = updated.Category
		listProducts[i].Quantity = updated.Quantity
		listProducts[i].Purchased = updated.Purchased
		listProducts[i].Notes = updated.Notes
		listProducts[i].Price = updated.Price

		products[updated.ListCode] = listProducts
		return c.db.SaveProductsByList(ctx, products)
	}

	return models.ErrNotFound
}

// DeleteProduct removes the first product with the given id, searching
// across all lists because callers do not always know the owning one.
func (c *Catalog) DeleteProduct(ctx context.Context, productID string) error {
	c.db.Lock()
	defer c.db.Unlock()

	products, err := c.db.ProductsByList(ctx)
	if err != nil {
		return err
	}

	for listCode, listProducts := range products {
		for i := range listProducts {
			if listProducts[i].ID != productID {
				continue
			}
			products[listCode] = append(listProducts[:i], listProducts[i+1:]...)
			return c.db.SaveProductsByList(ctx, products)
		}
	}

	return models.ErrNotFound
}

// TogglePurchased sets the purchased flag of the product with the
// given id, searched across all lists.
func (c *Catalog) TogglePurchased(ctx context.Context, productID string, purchased bool) error {
	c.db.Lock()
	defer c.db.Unlock()

	products, err := c.db.ProductsByList(ctx)
	if err != nil {
		return err
	}

	for listCode, listProducts := range products {
		for i := range listProducts {
			if listProducts[i].ID != productID {
				continue
			}
			listProducts[i].Purchased = purchased
			products[listCode] = listProducts
			return c.db.SaveProductsByList(ctx, products)
		}
	}

	return models.ErrNotFound
}

// CategoriesForList derives the distinct category labels of a list's
// products, in first-use order. Empty labels and the reserved "system"
// label are excluded.
func (c *Catalog) CategoriesForList(ctx context.Context, listCode string) ([]string, error) {
	c.db.RLock()
	defer c.db.RUnlock()

	listProducts, err := c.db.ListProducts(ctx, listCode)
	if err != nil {
		return nil, err
	}

	labels := []string{}
	for _, product := range listProducts {
		label := strings.TrimSpace(product.Category)
		if label == "" || label == models.ReservedCategory {
			continue
		}
		labels = append(labels, label)
	}

	return funk.UniqString(labels), nil
}

// Statistics aggregates a list's products. Counts are in quantity
// units and the total cost includes purchased items.
func (c *Catalog) Statistics(ctx context.Context, listCode string) (models.Statistics, error) {
	c.db.RLock()
	defer c.db.RUnlock()

	listProducts, err := c.db.ListProducts(ctx, listCode)
	if err != nil {
		return models.Statistics{}, err
	}

	stats := models.Statistics{}
	for _, product := range listProducts {
		stats.TotalItems += product.Quantity
		if product.Purchased {
			stats.PurchasedItems += product.Quantity
		}
		stats.TotalCost += product.TotalPrice()
	}
	stats.RemainingItems = stats.TotalItems - stats.PurchasedItems

	return stats, nil
}
