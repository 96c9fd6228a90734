package main

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
)

// bindJSON decodes and validates the request body, recording a 400 on
// failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		_ = c.Error(apperr.BadRequest("invalid request body: %v", err))
		return false
	}
	return true
}

// queryInt64 parses an optional integer query parameter.
func queryInt64(c *gin.Context, key string) (*int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		_ = c.Error(apperr.BadRequest("%s must be an integer", key))
		return nil, false
	}
	return &n, true
}

// errorResponse documents the body written for every failed request.
type errorResponse struct {
	Error  string `json:"error" example:"order not found"`
	Detail string `json:"detail,omitempty"`
}
