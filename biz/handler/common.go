package handler

import (
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"cryptovest/biz/store"
)

// fail maps ledger errors onto HTTP statuses.
func fail(c *app.RequestContext, err error) {
	switch {
	case store.IsValidation(err):
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": err.Error()})
	case errors.Is(err, store.ErrInsufficientFunds):
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "insufficient funds"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(consts.StatusNotFound, map[string]interface{}{"error": "not found"})
	case errors.Is(err, store.ErrUnauthorized):
		c.JSON(consts.StatusUnauthorized, map[string]interface{}{"error": "not authorized"})
	case errors.Is(err, store.ErrInvalidState), errors.Is(err, store.ErrInvalidTransition):
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": err.Error()})
	case errors.Is(err, store.ErrPriceUnavailable):
		c.JSON(consts.StatusServiceUnavailable, map[string]interface{}{"error": "price unavailable"})
	default:
		hlog.Errorf("internal error: %v", err)
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": "server error"})
	}
}
