package handlers

import (
	"storefront/internal/backend"
	"storefront/internal/photos"
	"storefront/internal/services"
)

type Deps struct {
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	SearchHandler   *SearchHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler
	WishlistHandler *WishlistHandler
	AuthHandler     *AuthHandler
	ProxyHandler    *ProxyHandler
}

func NewDeps(api *backend.Client, pics photos.Resolver) *Deps {
	catalogSvc := services.NewCatalogService(api)
	orderSvc := services.NewOrderService(api)

	return &Deps{
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc, Photos: pics},
		SearchHandler:   &SearchHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Catalog: catalogSvc},
		OrderHandler:    &OrderHandler{Order: orderSvc},
		WishlistHandler: &WishlistHandler{Catalog: catalogSvc},
		AuthHandler:     &AuthHandler{},
		ProxyHandler:    &ProxyHandler{API: api},
	}
}
