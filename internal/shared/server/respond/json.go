package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 JSON response. Used for reads of existing papers and
// analyses.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Created writes a 201 JSON response for a fresh upload or analysis run.
func Created(c *gin.Context, payload any) {
	JSON(c, http.StatusCreated, payload)
}
