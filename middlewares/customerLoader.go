package middlewares

import (
	"context"
	"fmt"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/shop_console/client"
	"github.com/mmdatafocus/shop_console/models"
)

type customerReader struct {
	api   *client.API
	token string
}

func (r *customerReader) getCustomers(ctx context.Context, ids []int) []*dataloader.Result[*models.Customer] {
	customers, err := r.api.Customers.List(ctx, r.token, nil)
	if err != nil {
		return handleError[*models.Customer](len(ids), err)
	}
	return generateLoaderResults(customers, ids,
		func(c models.Customer) int { return int(c.ID) },
		func(id int) error { return models.NewValidationError(fmt.Sprintf("customer %d not found", id)) },
	)
}

func GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	loaders := For(ctx)
	return loaders.customerLoader.Load(ctx, id)()
}
