package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/procharity/pcadmin/internal/models"
)

const (
	defaultPage  = 1
	defaultLimit = 20

	// analyticsDays is the window of the per-day series
	analyticsDays = 30
	dayLayout     = "2006-01-02"
)

// UsersQuery holds the pagination parameters of the user table
type UsersQuery struct {
	// Capped so the row offset cannot overflow
	Page  int `form:"page" binding:"omitempty,min=1,max=1000000"`
	Limit int `form:"limit" binding:"omitempty,oneof=20 50 100"`
}

// UserDetail is one row of the user table
type UserDetail struct {
	TelegramID       int64     `json:"telegram_id"`
	FirstName        string    `json:"first_name"`
	LastName         *string   `json:"last_name"`
	Email            *string   `json:"email"`
	Username         *string   `json:"username"`
	HasMailing       bool      `json:"has_mailing"`
	DateRegistration time.Time `json:"date_registration"`
}

// UserPage is one page of the user table
type UserPage struct {
	Result      []UserDetail `json:"result"`
	CurrentPage int          `json:"current_page"`
	Total       int64        `json:"total"`
	Pages       int64        `json:"pages"`
}

// AnalyticsResponse summarizes volunteer sign-ups
type AnalyticsResponse struct {
	TotalUsers        int64          `json:"total_users"`
	UsersWithMailing  int64          `json:"users_with_mailing"`
	AddedUsersByDay   map[string]int `json:"added_users"`
	MailingUsersByDay map[string]int `json:"mailing_users"`
}

// @Summary List users
// @Description Paginated list of volunteers, newest first
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Rows per page (20, 50, 100)" default(20)
// @Success 200 {object} UserPage
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /users/ [get]
func (s *Server) listUsers(c *gin.Context) {
	var query UsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindingError(c, err)
		return
	}
	if query.Page == 0 {
		query.Page = defaultPage
	}
	if query.Limit == 0 {
		query.Limit = defaultLimit
	}

	db := s.db.WithContext(c.Request.Context())

	var total int64
	if err := db.Model(&models.Volunteer{}).Count(&total).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count volunteers")
		respondMessage(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	var volunteers []models.Volunteer
	if err := db.Order("date_registration DESC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&volunteers).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list volunteers")
		respondMessage(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	result := make([]UserDetail, len(volunteers))
	for i, v := range volunteers {
		result[i] = UserDetail{
			TelegramID:       v.TelegramID,
			FirstName:        v.FirstName,
			LastName:         v.LastName,
			Email:            v.Email,
			Username:         v.Username,
			HasMailing:       v.HasMailing,
			DateRegistration: v.DateRegistration,
		}
	}

	limit := int64(query.Limit)
	c.JSON(http.StatusOK, UserPage{
		Result:      result,
		CurrentPage: query.Page,
		Total:       total,
		Pages:       (total + limit - 1) / limit,
	})
}

// @Summary Analytics
// @Description Volunteer totals and per-day sign-ups for the last 30 days
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AnalyticsResponse
// @Failure 401 {object} map[string]interface{}
// @Router /analytics/ [get]
func (s *Server) analytics(c *gin.Context) {
	db := s.db.WithContext(c.Request.Context())
	resp := AnalyticsResponse{
		AddedUsersByDay:   map[string]int{},
		MailingUsersByDay: map[string]int{},
	}

	if err := db.Model(&models.Volunteer{}).Count(&resp.TotalUsers).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count volunteers")
		respondMessage(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := db.Model(&models.Volunteer{}).Where("has_mailing = ?", true).Count(&resp.UsersWithMailing).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count volunteers with mailing")
		respondMessage(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Bucketing happens here rather than in SQL so it does not depend on
	// how the driver stores timestamps
	since := s.now().AddDate(0, 0, -(analyticsDays - 1)).Truncate(24 * time.Hour)
	var recent []models.Volunteer
	if err := db.Select("date_registration", "has_mailing").
		Where("date_registration >= ?", since).
		Find(&recent).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load recent volunteers")
		respondMessage(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	for _, v := range recent {
		day := v.DateRegistration.UTC().Format(dayLayout)
		resp.AddedUsersByDay[day]++
		if v.HasMailing {
			resp.MailingUsersByDay[day]++
		}
	}

	c.JSON(http.StatusOK, resp)
}
