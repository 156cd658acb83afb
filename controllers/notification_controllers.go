package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/mf-tracker/hub"
	"github.com/yeremiapane/mf-tracker/middlewares"
	"github.com/yeremiapane/mf-tracker/models"
	"github.com/yeremiapane/mf-tracker/notifications"
	"github.com/yeremiapane/mf-tracker/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NotificationController exposes the notification service over HTTP. The
// service treats unknown ids as no-ops, so mutations answer ok for them too.
type NotificationController struct {
	Service *notifications.Service
	Hub     *hub.Hub
}

func NewNotificationController(svc *notifications.Service, h *hub.Hub) *NotificationController {
	return &NotificationController{Service: svc, Hub: h}
}

// GetNotifications lists active notifications; ?status=scheduled or
// ?status=all switch the view.
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	var items []models.NotificationRecord
	switch c.DefaultQuery("status", models.NotificationStatusActive) {
	case models.NotificationStatusActive:
		items = nc.Service.Active()
	case models.NotificationStatusScheduled:
		items = nc.Service.Scheduled()
	case "all":
		items = nc.Service.List()
	default:
		utils.RespondError(c, http.StatusBadRequest, errors.New("status must be active, scheduled or all"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, gin.H{
		"notifications": items,
		"unread":        nc.Service.UnreadCount(),
	})
}

func (nc *NotificationController) GetNotification(c *gin.Context) {
	rec, ok := nc.Service.Get(c.Param("id"))
	if !ok {
		utils.RespondError(c, http.StatusNotFound, errors.New("notification not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"notification": rec})
}

func (nc *NotificationController) CreateNotification(c *gin.Context) {
	var payload notifications.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	rec, err := nc.Service.AddNotification(payload)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"notification": rec})
}

func (nc *NotificationController) MarkRead(c *gin.Context) {
	if err := nc.Service.MarkRead(c.Param("id")); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"unread": nc.Service.UnreadCount()})
}

func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	if err := nc.Service.MarkAllRead(); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"unread": nc.Service.UnreadCount()})
}

func (nc *NotificationController) UpdateNotification(c *gin.Context) {
	var changes notifications.Changes
	if err := c.ShouldBindJSON(&changes); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	id := c.Param("id")
	if err := nc.Service.UpdateNotification(id, changes); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	rec, ok := nc.Service.Get(id)
	if !ok {
		utils.RespondJSON(c, http.StatusOK, gin.H{"notification": nil})
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"notification": rec})
}

func (nc *NotificationController) DeleteNotification(c *gin.Context) {
	if err := nc.Service.RemoveNotification(c.Param("id")); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{})
}

func (nc *NotificationController) ClearNotifications(c *gin.Context) {
	if err := nc.Service.ClearAll(); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{})
}

// Stream upgrades to a websocket, sends the current summary and then every
// change the hub broadcasts.
func (nc *NotificationController) Stream(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	nc.Hub.Register(ws, c.GetString(middlewares.CtxEmail))
	defer nc.Hub.Unregister(ws)

	if err := nc.Hub.Send(ws, hub.Message{
		Event: hub.EventNotificationsSnapshot,
		Data:  nc.Service.Summary(),
	}); err != nil {
		return
	}

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}
