package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Created answers 201 with the new resource.
func Created(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// ListBody is the envelope for collection responses.
type ListBody[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// List answers 200 with items wrapped in a ListBody. A nil slice is sent as
// an empty array.
func List[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, ListBody[T]{Items: items, Count: len(items)})
}
