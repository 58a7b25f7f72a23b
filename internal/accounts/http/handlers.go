package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/domain"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/auth"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/logging"
)

func (h *Handler) get(c *gin.Context) {
	acct, err := h.accounts.Get(c.Request.Context(), auth.CallerID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAccountResp(acct))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.accounts.Delete(c.Request.Context(), auth.CallerID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// upsert serves PUT for both creation and update; the service decides which
// applies by checking whether the id already exists.
func (h *Handler) upsert(c *gin.Context) {
	var req upsertReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Account == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	acct, _, err := h.accounts.Upsert(c.Request.Context(), auth.CallerID(c), c.Param("id"), &domain.UpsertAccountRequest{
		Description: req.Account.Description,
		Manager:     req.Account.Manager,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAccountResp(acct))
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
	case errors.Is(err, domain.ErrBadManager):
		c.JSON(http.StatusBadRequest, gin.H{"error": "manager does not exist"})
	case errors.Is(err, domain.ErrInvalidAccountID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "account id is required"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
	default:
		logging.For(c.Request.Context(), h.log).Error("account request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
