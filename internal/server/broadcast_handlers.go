package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/procharity/pcadmin/internal/models"
)

// NotificationRequest is a broadcast to volunteers. 4096 is Telegram's
// message limit.
type NotificationRequest struct {
	Message    string `json:"message" binding:"required,notblank,max=4096"`
	HasMailing bool   `json:"has_mailing"`
}

// @Summary Send Telegram notification
// @Description Queue a message for all volunteers, or only those with mailing enabled
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NotificationRequest true "Notification"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /send_telegram_notification/ [post]
func (s *Server) sendNotification(c *gin.Context) {
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	sessionData, _ := GetSessionData(c)
	ctx := c.Request.Context()

	broadcast := &models.Broadcast{
		Message:     strings.TrimSpace(req.Message),
		MailingOnly: req.HasMailing,
		SentByID:    sessionData.AdminID,
		Status:      models.BroadcastPending,
	}
	if err := s.db.WithContext(ctx).Create(broadcast).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to store broadcast")
		respondMessage(c, http.StatusInternalServerError, "Failed to send notification")
		return
	}

	if err := s.dispatcher.DispatchBroadcast(ctx, broadcast.ID); err != nil {
		s.logger.Error().Err(err).Str("broadcast_id", broadcast.ID).Msg("Failed to dispatch broadcast")
		s.db.WithContext(ctx).Model(broadcast).Update("status", models.BroadcastFailed)
		respondMessage(c, http.StatusInternalServerError, "Failed to send notification")
		return
	}

	s.logger.Info().
		Str("broadcast_id", broadcast.ID).
		Str("sent_by", sessionData.AdminID).
		Bool("mailing_only", broadcast.MailingOnly).
		Msg("Broadcast dispatched")

	respondMessage(c, http.StatusOK, "Notification sent")
}
