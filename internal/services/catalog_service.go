package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"bazaar/internal/cache"
	"bazaar/internal/domain"
	applog "bazaar/internal/log"
	"bazaar/internal/media"
	"bazaar/internal/repos"
)

const searchLimit = 50

type CatalogService struct {
	DB    *sqlx.DB
	Cats  *repos.CategoryRepo
	Items *repos.ItemRepo
	Cache cache.ItemCache
	Media *media.Store

	group singleflight.Group
	gens  sync.Map // item id -> *atomic.Uint64, bumped on every evict
}

func NewCatalogService(db *sqlx.DB, c cache.ItemCache, m *media.Store) *CatalogService {
	if c == nil {
		c = cache.Nop{}
	}
	return &CatalogService{
		DB:    db,
		Cats:  repos.NewCategoryRepo(db),
		Items: repos.NewItemRepo(db),
		Cache: c,
		Media: m,
	}
}

// ItemInput carries an admin edit. An empty ID creates a new item; an
// empty ImageRef keeps the current image.
type ItemInput struct {
	ID          string
	CategoryID  string
	Name        string
	Description string
	Price       decimal.Decimal
	ImageRef    string
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	return s.Cats.Get(ctx, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, domain.ErrInvalidInput
	}
	c := domain.Category{ID: uuid.NewString(), Name: name}
	if err := s.Cats.Create(ctx, &c); err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (s *CatalogService) RenameCategory(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrInvalidInput
	}
	return s.Cats.Rename(ctx, id, name)
}

// DeleteCategory keeps the category's items, now uncategorized.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	var detached []domain.Item
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var err error
		if detached, err = repos.NewItemRepo(tx).List(ctx, id); err != nil {
			return err
		}
		return repos.NewCategoryRepo(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	for _, it := range detached {
		s.evict(ctx, it.ID)
	}
	return nil
}

func (s *CatalogService) ListItems(ctx context.Context, categoryID string) ([]domain.Item, error) {
	return s.Items.List(ctx, categoryID)
}

func (s *CatalogService) Search(ctx context.Context, q, categoryID string) ([]domain.Item, error) {
	return s.Items.Search(ctx, q, categoryID, searchLimit)
}

// GetItem reads through the item cache. Concurrent misses for the same id
// share one database read. A fill that raced an evict is dropped.
func (s *CatalogService) GetItem(ctx context.Context, id string) (domain.Item, error) {
	it, err := s.Cache.Get(ctx, id)
	if err == nil {
		return *it, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		applog.L().Warn("cache.get_failed", zap.String("item_id", id), zap.Error(err))
	}

	v, err, _ := s.group.Do(id, func() (any, error) {
		gen := s.generation(id)
		before := gen.Load()
		it, err := s.Items.Get(ctx, id)
		if err != nil {
			return domain.Item{}, err
		}
		if gen.Load() != before {
			return it, nil
		}
		if err := s.Cache.Set(ctx, &it); err != nil {
			applog.L().Warn("cache.set_failed", zap.String("item_id", id), zap.Error(err))
		}
		if gen.Load() != before {
			s.dropCached(ctx, id)
		}
		return it, nil
	})
	if err != nil {
		return domain.Item{}, err
	}
	return v.(domain.Item), nil
}

// UpsertItem creates or updates an item. A new price applies to future
// checkouts only; the ledger keeps the old one.
func (s *CatalogService) UpsertItem(ctx context.Context, in ItemInput) (domain.Item, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Price.IsNegative() {
		return domain.Item{}, domain.ErrInvalidInput
	}
	if in.CategoryID != "" {
		if _, err := s.Cats.Get(ctx, in.CategoryID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Item{}, domain.ErrInvalidInput
			}
			return domain.Item{}, err
		}
	}

	it := domain.Item{ID: in.ID}
	var oldImage string
	if in.ID == "" {
		it.ID = uuid.NewString()
	} else {
		cur, err := s.Items.Get(ctx, in.ID)
		switch {
		case err == nil:
			it.CreatedAt = cur.CreatedAt
			oldImage = cur.ImageRef
		case !errors.Is(err, domain.ErrNotFound):
			return domain.Item{}, err
		}
	}
	it.CategoryID = in.CategoryID
	it.Name = in.Name
	it.Description = strings.TrimSpace(in.Description)
	it.Price = in.Price
	it.ImageRef = in.ImageRef
	if it.ImageRef == "" {
		it.ImageRef = oldImage
	}

	if err := s.Items.Upsert(ctx, &it); err != nil {
		return domain.Item{}, err
	}
	s.evict(ctx, it.ID)
	if oldImage != "" && oldImage != it.ImageRef {
		s.dropImage(oldImage)
	}
	return it, nil
}

// DeleteItem removes the item with its favorites and questions. Cart lines
// stay so their owners learn at checkout that the item is gone; purchase
// records are never touched.
func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	var image string
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		items := repos.NewItemRepo(tx)
		it, err := items.Get(ctx, id)
		if err != nil {
			return err
		}
		image = it.ImageRef
		if err := items.Delete(ctx, id); err != nil {
			return err
		}
		if err := repos.NewFavoriteRepo(tx).RemoveItem(ctx, id); err != nil {
			return err
		}
		return repos.NewQuestionRepo(tx).DeleteByItem(ctx, id)
	})
	if err != nil {
		return err
	}
	s.evict(ctx, id)
	if image != "" {
		s.dropImage(image)
	}
	return nil
}

func (s *CatalogService) generation(id string) *atomic.Uint64 {
	v, _ := s.gens.LoadOrStore(id, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

// evict invalidates the cached copy of an item and any fill still in flight.
func (s *CatalogService) evict(ctx context.Context, id string) {
	s.generation(id).Add(1)
	s.group.Forget(id)
	s.dropCached(ctx, id)
}

func (s *CatalogService) dropCached(ctx context.Context, id string) {
	if err := s.Cache.Delete(ctx, id); err != nil {
		applog.L().Warn("cache.delete_failed", zap.String("item_id", id), zap.Error(err))
	}
}

func (s *CatalogService) dropImage(ref string) {
	if s.Media == nil {
		return
	}
	if err := s.Media.Delete(ref); err != nil {
		applog.L().Warn("media.delete_failed", zap.String("ref", ref), zap.Error(err))
	}
}
