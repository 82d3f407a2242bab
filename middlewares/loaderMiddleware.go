package middlewares

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/shop_console/client"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/mmdatafocus/shop_console/utils"
)

const loadersKey = ctxKey("dataloaders")

// Loaders batch lookups of catalog records within one request.
type Loaders struct {
	productLoader  *dataloader.Loader[int, *models.Product]
	customerLoader *dataloader.Loader[int, *models.Customer]
}

// NewLoaders binds loaders to the caller's backend credential.
func NewLoaders(api *client.API, token string) *Loaders {
	productReader := &productReader{api: api, token: token}
	customerReader := &customerReader{api: api, token: token}
	return &Loaders{
		productLoader:  dataloader.NewBatchedLoader(productReader.getProducts, dataloader.WithWait[int, *models.Product](time.Millisecond)),
		customerLoader: dataloader.NewBatchedLoader(customerReader.getCustomers, dataloader.WithWait[int, *models.Customer](time.Millisecond)),
	}
}

// LoaderMiddleware must run after SessionMiddleware.
func LoaderMiddleware(api *client.API) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := utils.GetTokenFromContext(c.Request.Context())
		ctx := WithLoaders(c.Request.Context(), NewLoaders(api, token))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, l)
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// generateLoaderResults orders records by the requested ids. Unknown ids
// resolve to notFound(id).
func generateLoaderResults[T any](records []T, ids []int, id func(T) int, notFound func(int) error) []*dataloader.Result[*T] {
	byId := make(map[int]*T, len(records))
	for i := range records {
		byId[id(records[i])] = &records[i]
	}
	results := make([]*dataloader.Result[*T], 0, len(ids))
	for _, key := range ids {
		if rec, ok := byId[key]; ok {
			results = append(results, &dataloader.Result[*T]{Data: rec})
			continue
		}
		results = append(results, &dataloader.Result[*T]{Error: notFound(key)})
	}
	return results
}
