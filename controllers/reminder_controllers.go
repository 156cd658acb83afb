package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/mf-tracker/models"
	"github.com/yeremiapane/mf-tracker/notifications"
	"github.com/yeremiapane/mf-tracker/utils"
)

const remindersListLimit = 500

type ReminderController struct {
	DB *gorm.DB
}

func NewReminderController(db *gorm.DB) *ReminderController {
	return &ReminderController{DB: db}
}

type reminderInput struct {
	UserEmail   *string  `json:"userEmail"`
	Type        *string  `json:"type"`
	Title       *string  `json:"title"`
	Body        *string  `json:"body"`
	Amount      *float64 `json:"amount"`
	DueDate     *string  `json:"dueDate"`
	ScheduledAt *string  `json:"scheduledAt"`
	Recurring   *string  `json:"recurring"`
	Status      *string  `json:"status"`
}

func parseScheduledAt(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	at, ok := notifications.ParseTime(raw)
	if !ok {
		return nil, fmt.Errorf("invalid scheduledAt %q", raw)
	}
	return &at, nil
}

// CreateReminder stores a reminder; it is scheduled when scheduledAt is
// given, active otherwise.
func (rc *ReminderController) CreateReminder(c *gin.Context) {
	var in reminderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	r := models.Reminder{
		UserEmail: strings.ToLower(deref(in.UserEmail)),
		Type:      deref(in.Type),
		Title:     deref(in.Title),
		Body:      deref(in.Body),
		Amount:    in.Amount,
		DueDate:   deref(in.DueDate),
		Recurring: deref(in.Recurring),
		Status:    models.NotificationStatusActive,
	}
	at, err := parseScheduledAt(deref(in.ScheduledAt))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if at != nil {
		r.ScheduledAt = at
		r.Status = models.NotificationStatusScheduled
	}

	if err := rc.DB.Create(&r).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"reminder": r})
}

func (rc *ReminderController) GetReminders(c *gin.Context) {
	query := rc.DB.Order("created_at DESC").Order("id DESC").Limit(remindersListLimit)
	if email := c.Query("userEmail"); email != "" {
		query = query.Where("user_email = ?", strings.ToLower(email))
	}

	var items []models.Reminder
	if err := query.Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"reminders": items})
}

// UpdateReminder applies the given fields. An unknown id yields reminder null.
func (rc *ReminderController) UpdateReminder(c *gin.Context) {
	var in reminderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondJSON(c, http.StatusOK, gin.H{"reminder": nil})
		return
	}

	var r models.Reminder
	if err := rc.DB.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondJSON(c, http.StatusOK, gin.H{"reminder": nil})
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	changes := map[string]interface{}{}
	setIf := func(column string, v *string) {
		if v != nil {
			changes[column] = *v
		}
	}
	if in.UserEmail != nil {
		changes["user_email"] = strings.ToLower(*in.UserEmail)
	}
	setIf("type", in.Type)
	setIf("title", in.Title)
	setIf("body", in.Body)
	setIf("due_date", in.DueDate)
	setIf("recurring", in.Recurring)
	setIf("status", in.Status)
	if in.Amount != nil {
		changes["amount"] = *in.Amount
	}
	if in.ScheduledAt != nil {
		at, err := parseScheduledAt(*in.ScheduledAt)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		changes["scheduled_at"] = at
	}

	if len(changes) > 0 {
		if err := rc.DB.Model(&r).Updates(changes).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		if err := rc.DB.First(&r, id).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"reminder": r})
}

// DeleteReminder succeeds whether or not the reminder exists.
func (rc *ReminderController) DeleteReminder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err == nil {
		if err := rc.DB.Delete(&models.Reminder{}, id).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
