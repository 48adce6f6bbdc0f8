// internal/api/handlers/naming_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/dropgate/internal/naming"
)

type NamingHandler struct{}

func NewNamingHandler() *NamingHandler {
	return &NamingHandler{}
}

// Classify reports how a file name would be treated, without touching any
// file: GET /api/v1/classify?name=12-3-a-math.pdf
func (h *NamingHandler) Classify(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	class := naming.Classify(name)
	resp := gin.H{
		"name":           name,
		"classification": class.String(),
	}
	if class != naming.Invalid {
		resp["remote_key"] = naming.RemoteKey(name)
	}
	if key, ok := naming.Parse(name); ok {
		resp["fields"] = gin.H{
			"sequence": key.Sequence,
			"stage":    key.Stage,
			"section":  key.Section,
			"subject":  key.Subject,
		}
	}
	c.JSON(http.StatusOK, resp)
}
