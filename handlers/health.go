package handlers

import (
	"net/http"

	"villamar/utils"

	"github.com/gin-gonic/gin"
)

// Health reports the latest mongo/redis health snapshot.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Mongo {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
