package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	paymentdomain "github.com/dunamis-edu/dunamis/internal/payment/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err = s.webhookSvc.IngestWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventAlreadyProcessed) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
