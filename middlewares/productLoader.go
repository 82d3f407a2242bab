package middlewares

import (
	"context"
	"fmt"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/shop_console/client"
	"github.com/mmdatafocus/shop_console/models"
)

type productReader struct {
	api   *client.API
	token string
}

// the backend has no batch fetch; the cached product list serves every id
func (r *productReader) getProducts(ctx context.Context, ids []int) []*dataloader.Result[*models.Product] {
	products, err := r.api.Products.List(ctx, r.token, nil)
	if err != nil {
		return handleError[*models.Product](len(ids), err)
	}
	return generateLoaderResults(products, ids,
		func(p models.Product) int { return int(p.ID) },
		func(id int) error { return models.NewValidationError(fmt.Sprintf("product %d not found", id)) },
	)
}

func GetProduct(ctx context.Context, id int) (*models.Product, error) {
	loaders := For(ctx)
	return loaders.productLoader.Load(ctx, id)()
}

func GetProducts(ctx context.Context, ids []int) ([]*models.Product, []error) {
	loaders := For(ctx)
	return loaders.productLoader.LoadMany(ctx, ids)()
}

// GetCatalog resolves catalog prices for ids. Unknown products are left out.
func GetCatalog(ctx context.Context, ids []int) (models.CatalogMap, error) {
	catalog := models.CatalogMap{}
	ids = uniqueIds(ids)
	if len(ids) == 0 {
		return catalog, nil
	}
	products, errs := GetProducts(ctx, ids)
	for i, p := range products {
		if i < len(errs) && errs[i] != nil {
			if _, ok := errs[i].(*models.ValidationError); ok {
				continue
			}
			return nil, errs[i]
		}
		if p != nil {
			catalog[int(p.ID)] = p.Price
		}
	}
	return catalog, nil
}

func uniqueIds(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
