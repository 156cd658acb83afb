package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/mf-tracker/utils"
)

type HealthController struct {
	DB *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{DB: db}
}

func (hc *HealthController) Root(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, gin.H{"msg": "Mutual funds API"})
}

func (hc *HealthController) Ping(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, gin.H{"message": "pong"})
}

// DebugDB reports the dialect and whether the database answers a ping.
func (hc *HealthController) DebugDB(c *gin.Context) {
	resp := gin.H{"driver": hc.DB.Dialector.Name()}

	sqlDB, err := hc.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		resp["connected"] = false
		resp["error"] = err.Error()
		utils.RespondJSON(c, http.StatusServiceUnavailable, resp)
		return
	}

	resp["connected"] = true
	resp["openConnections"] = sqlDB.Stats().OpenConnections
	utils.RespondJSON(c, http.StatusOK, resp)
}
