package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes the payload as a JSON body with the given status. Draft
// and session handlers return their domain structs directly; error
// responses go through Error instead.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes the payload with a 200 status.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}
