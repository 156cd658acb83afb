package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/mf-tracker/models"
	"github.com/yeremiapane/mf-tracker/notifications"
	"github.com/yeremiapane/mf-tracker/services"
	"github.com/yeremiapane/mf-tracker/utils"
)

const investmentsListLimit = 200

type InvestmentController struct {
	DB            *gorm.DB
	Notifications *notifications.Service
	Settings      *services.ReminderSettingsService
}

func NewInvestmentController(db *gorm.DB, notifs *notifications.Service, settings *services.ReminderSettingsService) *InvestmentController {
	return &InvestmentController{DB: db, Notifications: notifs, Settings: settings}
}

// CreateInvestment stores the investment and, when reminder settings allow
// it, schedules the next payment reminder. The reminder is mirrored into the
// reminders table; a failed mirror is reported as a warning only.
func (ic *InvestmentController) CreateInvestment(c *gin.Context) {
	var req struct {
		UserEmail string  `json:"userEmail"`
		Name      string  `json:"name"`
		Amount    float64 `json:"amount"`
		Date      string  `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("missing name"))
		return
	}
	if req.Date == "" {
		req.Date = time.Now().UTC().Format("2006-01-02")
	}

	inv := models.Investment{
		UserEmail: strings.ToLower(req.UserEmail),
		Name:      req.Name,
		Amount:    req.Amount,
		Date:      req.Date,
	}
	if err := ic.DB.Create(&inv).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	resp := gin.H{"investment": inv}
	settings := ic.Settings.Get()
	if settings.AutoCreate {
		reminder, warning := ic.scheduleReminder(inv, settings)
		if reminder != nil {
			resp["notification"] = reminder
		}
		if warning != "" {
			resp["warning"] = warning
		}
	}

	utils.RespondJSON(c, http.StatusOK, resp)
}

func (ic *InvestmentController) scheduleReminder(inv models.Investment, settings models.ReminderSettings) (*models.NotificationRecord, string) {
	payload, err := services.PlanPaymentReminder(inv, settings)
	if err != nil {
		return nil, "reminder not created: " + err.Error()
	}

	rec, err := ic.Notifications.AddNotification(payload)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("saving payment reminder failed")
		return nil, "reminder not saved: " + err.Error()
	}

	mirror := models.Reminder{
		UserEmail: inv.UserEmail,
		Type:      payload.Type,
		Title:     payload.Title,
		Body:      payload.Body,
		Amount:    payload.Amount,
		DueDate:   payload.DueDate,
		Recurring: payload.Recurring,
		Status:    rec.Status,
	}
	if at, ok := notifications.ParseTime(payload.ScheduledAt); ok {
		mirror.ScheduledAt = &at
	}
	if err := ic.DB.Create(&mirror).Error; err != nil {
		utils.ErrorLogger.WithError(err).Warn("mirroring payment reminder failed")
		return &rec, "reminder saved locally but not synced: " + err.Error()
	}
	return &rec, ""
}

func (ic *InvestmentController) GetInvestments(c *gin.Context) {
	query := ic.DB.Order("created_at DESC").Order("id DESC").Limit(investmentsListLimit)
	if email := c.Query("userEmail"); email != "" {
		query = query.Where("user_email = ?", strings.ToLower(email))
	}

	var items []models.Investment
	if err := query.Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"investments": items})
}
