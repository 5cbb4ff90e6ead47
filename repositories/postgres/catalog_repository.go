package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/repositories"
	"go.uber.org/zap"
)

// productSummaryColumns maps the storefront product schema onto models.ProductSummary
const productSummaryColumns = `
	p.id,
	p.name,
	p.price,
	COALESCE(p.discount, 0),
	COALESCE((SELECT SUM(i.quantity) FROM inventories i WHERE i.product_id = p.id), 0)
`

// CatalogRepository implements the repositories.CatalogRepository interface
type CatalogRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *DB, logger *zap.Logger) repositories.CatalogRepository {
	return &CatalogRepository{
		db:     db,
		logger: logger,
	}
}

// RecommendByHistory returns the user's five most frequently ordered products
func (r *CatalogRepository) RecommendByHistory(ctx context.Context, userID int64, limit int) ([]models.ProductSummary, error) {
	query := `
		SELECT ` + productSummaryColumns + `
		FROM products p
		JOIN (
			SELECT oi.product_id, COUNT(*) AS cnt
			FROM order_items oi
			JOIN orders o ON oi.order_id = o.id
			WHERE o.user_id = $1
			GROUP BY oi.product_id
			ORDER BY cnt DESC
			LIMIT 5
		) rec ON rec.product_id = p.id
		ORDER BY rec.cnt DESC, p.id
		LIMIT $2
	`

	return r.queryProducts(ctx, query, userID, limit)
}

// TopDiscounted returns products ordered by discount, highest first
func (r *CatalogRepository) TopDiscounted(ctx context.Context, limit int) ([]models.ProductSummary, error) {
	query := `
		SELECT ` + productSummaryColumns + `
		FROM products p
		ORDER BY COALESCE(p.discount, 0) DESC, p.id
		LIMIT $1
	`

	return r.queryProducts(ctx, query, limit)
}

// Discounts returns products with a positive discount
func (r *CatalogRepository) Discounts(ctx context.Context, limit int) ([]models.Discount, error) {
	query := `
		SELECT p.id, p.name, p.price, p.discount
		FROM products p
		WHERE p.discount > 0
		ORDER BY p.discount DESC, p.id
		LIMIT $1
	`

	q := queryerFor(ctx, r.db)
	rows, err := q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query discounts: %w", err)
	}
	defer rows.Close()

	discounts := []models.Discount{}
	for rows.Next() {
		var d models.Discount
		if err := rows.Scan(&d.ID, &d.Title, &d.Price, &d.Discount); err != nil {
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		discounts = append(discounts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discount rows: %w", err)
	}

	return discounts, nil
}

// Search returns products matching the filter, highest discount first.
// Size and color are inventory attributes; category matches by category name.
func (r *CatalogRepository) Search(ctx context.Context, filter models.ProductFilter) ([]models.ProductSummary, error) {
	var where []string
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Category != nil {
		add("EXISTS (SELECT 1 FROM categories c WHERE c.id = p.category_id AND LOWER(c.name) = LOWER($%d))", *filter.Category)
	}
	if filter.Size != nil {
		add("EXISTS (SELECT 1 FROM inventories i WHERE i.product_id = p.id AND i.size = $%d)", *filter.Size)
	}
	if filter.Color != nil {
		add("EXISTS (SELECT 1 FROM inventories i WHERE i.product_id = p.id AND LOWER(i.color) = LOWER($%d))", *filter.Color)
	}
	if filter.MinPrice != nil {
		add("p.price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		add("p.price <= $%d", *filter.MaxPrice)
	}
	if filter.Budget != nil {
		add("p.price <= $%d", *filter.Budget)
	}

	whereSQL := "1=1"
	if len(where) > 0 {
		whereSQL = strings.Join(where, " AND ")
	}

	args = append(args, filter.Limit)
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		WHERE %s
		ORDER BY COALESCE(p.discount, 0) DESC, p.id
		LIMIT $%d
	`, productSummaryColumns, whereSQL, len(args))

	return r.queryProducts(ctx, query, args...)
}

// RecentPurchases returns the user's most recently ordered products
func (r *CatalogRepository) RecentPurchases(ctx context.Context, userID int64, limit int) ([]models.PurchasedItem, error) {
	query := `
		SELECT p.id, p.name
		FROM products p
		JOIN order_items oi ON p.id = oi.product_id
		JOIN orders o ON oi.order_id = o.id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
		LIMIT $2
	`

	q := queryerFor(ctx, r.db)
	rows, err := q.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent purchases: %w", err)
	}
	defer rows.Close()

	items := []models.PurchasedItem{}
	for rows.Next() {
		var it models.PurchasedItem
		if err := rows.Scan(&it.ID, &it.Title); err != nil {
			return nil, fmt.Errorf("failed to scan purchased item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase rows: %w", err)
	}

	return items, nil
}

// queryProducts is a helper method to query product summaries
func (r *CatalogRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]models.ProductSummary, error) {
	q := queryerFor(ctx, r.db)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []models.ProductSummary{}
	for rows.Next() {
		var p models.ProductSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.Price, &p.Discount, &p.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}

	return products, nil
}
