package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Created answers 201 pointing at the new resource.
func Created(c *gin.Context, location string, payload any) {
	c.Header("Location", location)
	JSON(c, http.StatusCreated, payload)
}

// Accepted answers 202 for work that finishes later; location is where to poll.
func Accepted(c *gin.Context, location string, payload any) {
	c.Header("Location", location)
	JSON(c, http.StatusAccepted, payload)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
