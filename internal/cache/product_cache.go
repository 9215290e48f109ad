package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"farm2city/internal/models"
	"farm2city/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyAllProducts       = "products:all"
	keyAvailableProducts = "products:available"
	notFoundMarker       = "notfound"
)

// CachedProductRepository is a read-through cache in front of the real
// product repository. Redis failures degrade to the database: the cache is
// never allowed to fail a read.
type CachedProductRepository struct {
	realRepo repository.ProductRepository
	redis    *redis.Client
	ttl      time.Duration
	log      *zap.SugaredLogger
}

func NewCachedProductRepository(realRepo repository.ProductRepository, rdb *redis.Client, log *zap.SugaredLogger) *CachedProductRepository {
	return &CachedProductRepository{
		realRepo: realRepo,
		redis:    rdb,
		ttl:      5 * time.Minute,
		log:      log,
	}
}

func productKey(id uuid.UUID) string {
	return "product:" + id.String()
}

func farmerKey(farmerID uuid.UUID) string {
	return "products:farmer:" + farmerID.String()
}

func categoryKey(category string) string {
	return "products:category:" + category
}

func (c *CachedProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	key := productKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()

	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, repository.ErrNotFound
		}

		var product models.Product
		if err := json.Unmarshal(data, &product); err != nil {
			c.log.Warnw("failed to unmarshal cached product, continuing with DB", "error", err)
			break
		}

		return &product, nil

	case errors.Is(err, redis.Nil):

	default:
		c.log.Warnw("redis error, continuing with DB", "error", err)
	}

	product, err := c.realRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, time.Minute).Err(); setErr != nil {
				c.log.Warnw("failed to cache notfound marker", "error", setErr)
			}
		}
		return nil, err
	}

	c.setJSON(ctx, key, product, c.ttl)

	return product, nil
}

func (c *CachedProductRepository) GetAll(ctx context.Context, onlyAvailable bool) ([]models.Product, error) {
	key := keyAllProducts
	if onlyAvailable {
		key = keyAvailableProducts
	}

	if products, ok := c.getProductList(ctx, key); ok {
		return products, nil
	}

	products, err := c.realRepo.GetAll(ctx, onlyAvailable)
	if err != nil {
		return nil, err
	}

	c.setJSON(ctx, key, products, c.ttl)

	return products, nil
}

func (c *CachedProductRepository) GetByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Product, error) {
	key := farmerKey(farmerID)

	if products, ok := c.getProductList(ctx, key); ok {
		return products, nil
	}

	products, err := c.realRepo.GetByFarmer(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	c.setJSON(ctx, key, products, c.ttl)

	return products, nil
}

func (c *CachedProductRepository) GetByCategory(ctx context.Context, category string) ([]models.Product, error) {
	key := categoryKey(category)

	if products, ok := c.getProductList(ctx, key); ok {
		return products, nil
	}

	products, err := c.realRepo.GetByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	c.setJSON(ctx, key, products, c.ttl)

	return products, nil
}

func (c *CachedProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := c.realRepo.Create(ctx, product); err != nil {
		return err
	}

	c.invalidate(ctx, product)
	return nil
}

func (c *CachedProductRepository) Update(ctx context.Context, product *models.Product) error {
	old, err := c.realRepo.GetByID(ctx, product.ID)
	if err == nil && old.Category != product.Category {
		c.del(ctx, categoryKey(old.Category))
	}

	if err := c.realRepo.Update(ctx, product); err != nil {
		c.invalidate(ctx, product)
		return err
	}

	c.invalidate(ctx, product)
	return nil
}

func (c *CachedProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := c.realRepo.GetByID(ctx, id)
	if err != nil {
		c.del(ctx, productKey(id), keyAllProducts, keyAvailableProducts)
		return err
	}

	if err := c.realRepo.Delete(ctx, id); err != nil {
		return err
	}

	c.invalidate(ctx, product)
	return nil
}

func (c *CachedProductRepository) ReserveQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	if err := c.realRepo.ReserveQuantity(ctx, id, quantity); err != nil {
		return err
	}

	c.invalidateByID(ctx, id)
	return nil
}

func (c *CachedProductRepository) ReleaseQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	if err := c.realRepo.ReleaseQuantity(ctx, id, quantity); err != nil {
		return err
	}

	c.invalidateByID(ctx, id)
	return nil
}

func (c *CachedProductRepository) getProductList(ctx context.Context, key string) ([]models.Product, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("redis error, continuing with DB", "key", key, "error", err)
		}
		return nil, false
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		c.log.Warnw("failed to unmarshal cached product list", "key", key, "error", err)
		return nil, false
	}

	return products, true
}

func (c *CachedProductRepository) setJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warnw("failed to marshal for cache", "key", key, "error", err)
		return
	}

	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		c.log.Warnw("failed to cache value", "key", key, "error", err)
	}
}

func (c *CachedProductRepository) invalidate(ctx context.Context, product *models.Product) {
	keys := []string{
		productKey(product.ID),
		keyAllProducts,
		keyAvailableProducts,
		farmerKey(product.FarmerID),
	}
	if product.Category != "" {
		keys = append(keys, categoryKey(product.Category))
	}
	c.del(ctx, keys...)
}

// invalidateByID covers quantity-only changes where the product's farmer
// and category are unknown here. Farmer and category lists may stay stale
// up to the TTL, which is acceptable for a quantity tick.
func (c *CachedProductRepository) invalidateByID(ctx context.Context, id uuid.UUID) {
	c.del(ctx, productKey(id), keyAllProducts, keyAvailableProducts)
}

func (c *CachedProductRepository) del(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := c.redis.Del(ctx, key).Err(); err != nil {
			c.log.Warnw("failed to delete cache key", "key", key, "error", err)
		}
	}
}
