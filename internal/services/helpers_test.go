package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bazaar/internal/cache"
	"bazaar/internal/domain"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

type env struct {
	db        *sqlx.DB
	auth      *services.AuthService
	catalog   *services.CatalogService
	cart      *services.CartService
	checkout  *services.CheckoutService
	purchases *services.PurchaseService
	favs      *services.FavoriteService
	questions *services.QuestionService
}

func newEnv(t *testing.T, c cache.ItemCache) *env {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	items := repos.NewItemRepo(db)
	co := services.NewCheckoutService(db)
	co.Now = func() time.Time { return time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC) }
	return &env{
		db:        db,
		auth:      services.NewAuthService(repos.NewUserRepo(db), bcrypt.MinCost),
		catalog:   services.NewCatalogService(db, c, nil),
		cart:      services.NewCartService(repos.NewCartRepo(db), items),
		checkout:  co,
		purchases: services.NewPurchaseService(repos.NewPurchaseRepo(db)),
		favs:      services.NewFavoriteService(repos.NewFavoriteRepo(db), items),
		questions: services.NewQuestionService(repos.NewQuestionRepo(db), items),
	}
}

func (e *env) item(t *testing.T, name, price string) domain.Item {
	t.Helper()
	it, err := e.catalog.UpsertItem(context.Background(), services.ItemInput{
		Name:  name,
		Price: decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return it
}

func (e *env) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), name, "Passw0rd!", false)
	require.NoError(t, err)
	return u
}
