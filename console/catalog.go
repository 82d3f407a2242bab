package console

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/shop_console/client"
)

// listHandler forwards the allowed query keys; anything else is dropped so
// the cache key stays bounded.
func listHandler[T, C, U any](res *client.Resource[T, C, U], keys ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query url.Values
		for _, k := range keys {
			if v := c.Query(k); v != "" {
				if query == nil {
					query = url.Values{}
				}
				query.Set(k, v)
			}
		}
		items, err := res.List(c.Request.Context(), token(c), query)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, items)
	}
}

func getHandler[T, C, U any](res *client.Resource[T, C, U]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		item, err := res.Get(c.Request.Context(), token(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, item)
	}
}

func createHandler[T, C, U any](res *client.Resource[T, C, U]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input C
		if !bindJSON(c, &input) {
			return
		}
		created, err := res.Create(c.Request.Context(), token(c), input)
		if err != nil {
			respondError(c, err)
			return
		}
		if created == nil {
			respondMessage(c, http.StatusCreated, res.Name()+" created")
			return
		}
		respond(c, http.StatusCreated, created)
	}
}

func updateHandler[T, C, U any](res *client.Resource[T, C, U]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input U
		if !bindJSON(c, &input) {
			return
		}
		if err := res.Update(c.Request.Context(), token(c), id, input); err != nil {
			respondError(c, err)
			return
		}
		respondMessage(c, http.StatusOK, res.Name()+" updated")
	}
}

// deleteHandler forwards a hard delete. With confirm set the caller must pass
// confirm=true, the API form of the confirmation dialog.
func deleteHandler[T, C, U any](res *client.Resource[T, C, U], confirm bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if confirm && c.Query("confirm") != "true" {
			fail(c, http.StatusPreconditionRequired, "Deleting removes the record permanently. Repeat with confirm=true.")
			return
		}
		if err := res.Delete(c.Request.Context(), token(c), id); err != nil {
			respondError(c, err)
			return
		}
		respondMessage(c, http.StatusOK, res.Name()+" deleted")
	}
}
