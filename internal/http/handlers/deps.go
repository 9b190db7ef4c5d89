package handlers

import (
	"github.com/jmoiron/sqlx"

	"bazaar/internal/cache"
	"bazaar/internal/config"
	"bazaar/internal/media"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler     *AuthHandler
	CatalogHandler  *CatalogHandler
	SearchHandler   *SearchHandler
	CartHandler     *CartHandler
	CheckoutHandler *CheckoutHandler
	FavoriteHandler *FavoriteHandler
	QuestionHandler *QuestionHandler
	AdminHandler    *AdminHandler
	MediaHandler    *MediaHandler
}

// NewDeps wires repositories and services into the HTTP handlers. A nil
// cache disables item caching.
func NewDeps(db *sqlx.DB, cfg config.Config, c cache.ItemCache, m *media.Store) *Deps {
	userRepo := repos.NewUserRepo(db)
	itemRepo := repos.NewItemRepo(db)

	authSvc := services.NewAuthService(userRepo, cfg.BcryptCost)
	catalogSvc := services.NewCatalogService(db, c, m)
	cartSvc := services.NewCartService(repos.NewCartRepo(db), itemRepo)
	checkoutSvc := services.NewCheckoutService(db)
	purchaseSvc := services.NewPurchaseService(repos.NewPurchaseRepo(db))
	favSvc := services.NewFavoriteService(repos.NewFavoriteRepo(db), itemRepo)
	questionSvc := services.NewQuestionService(repos.NewQuestionRepo(db), itemRepo)

	return &Deps{
		Auth:            authSvc,
		AuthHandler:     &AuthHandler{Auth: authSvc, CookieSecure: cfg.CookieSecure},
		CatalogHandler:  &CatalogHandler{Catalog: catalogSvc, Favs: favSvc, Questions: questionSvc},
		SearchHandler:   &SearchHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc},
		CheckoutHandler: &CheckoutHandler{Checkout: checkoutSvc, Purchases: purchaseSvc},
		FavoriteHandler: &FavoriteHandler{Favs: favSvc},
		QuestionHandler: &QuestionHandler{Questions: questionSvc},
		AdminHandler: &AdminHandler{
			Catalog:   catalogSvc,
			Purchases: purchaseSvc,
			Questions: questionSvc,
			Auth:      authSvc,
			Media:     m,
		},
		MediaHandler: &MediaHandler{Store: m},
	}
}
