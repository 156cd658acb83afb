package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/mf-tracker/models"
	"github.com/yeremiapane/mf-tracker/services"
	"github.com/yeremiapane/mf-tracker/utils"
)

type SettingsController struct {
	Settings *services.ReminderSettingsService
}

func NewSettingsController(settings *services.ReminderSettingsService) *SettingsController {
	return &SettingsController{Settings: settings}
}

func (sc *SettingsController) GetReminderSettings(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, gin.H{"settings": sc.Settings.Get()})
}

// UpdateReminderSettings replaces the whole document; omitted fields take
// their default values.
func (sc *SettingsController) UpdateReminderSettings(c *gin.Context) {
	settings := models.DefaultReminderSettings()
	if err := c.ShouldBindJSON(&settings); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if err := sc.Settings.Save(settings); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"settings": settings})
}
