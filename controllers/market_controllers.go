package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/mf-tracker/services"
	"github.com/yeremiapane/mf-tracker/utils"
)

const defaultNAVLimit = 5

type MarketController struct {
	Market *services.MarketService
}

func NewMarketController(market *services.MarketService) *MarketController {
	return &MarketController{Market: market}
}

// GetScheme returns scheme metadata and the latest NAV points (?limit=5).
func (mc *MarketController) GetScheme(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultNAVLimit)))
	if err != nil || limit < 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
		return
	}

	scheme, err := mc.Market.GetScheme(c.Request.Context(), c.Param("scheme"))
	if errors.Is(err, services.ErrSchemeNotFound) {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusBadGateway, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, gin.H{"scheme": services.Latest(scheme, limit)})
}
