package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/answer-images/storage"
)

// ServeMemoryBlob serves blobs from the in-process store so that URLs the
// memory backend hands out resolve when running locally.
func ServeMemoryBlob(store *storage.MemoryStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := url.PathUnescape(c.Params("*"))
		if err != nil {
			return fiber.ErrNotFound
		}

		data, contentType, ok := store.Get(c.Params("container"), key)
		if !ok {
			return fiber.ErrNotFound
		}

		c.Set(fiber.HeaderContentType, contentType)
		return c.Send(data)
	}
}
