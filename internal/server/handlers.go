package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/walk-app/walk-profile/internal/auth"
	"github.com/walk-app/walk-profile/internal/db"
	errs "github.com/walk-app/walk-profile/internal/errors"
	"github.com/walk-app/walk-profile/internal/repository"
)

type userResponse struct {
	UserID    string   `json:"user_id"`
	Name      string   `json:"name"`
	Age       *int     `json:"age,omitempty"`
	Sex       string   `json:"sex,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	PhotoURL  string   `json:"photo_url,omitempty"`
	Interests []string `json:"interests,omitempty"`
	City      string   `json:"city,omitempty"`
	Zodiac    string   `json:"zodiac,omitempty"`
}

type likeResponse struct {
	LikeID      string    `json:"like_id"`
	UserID      string    `json:"user_id"`
	LikedUserID string    `json:"liked_user_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type updateProfileRequest struct {
	Name      *string   `json:"name"`
	Age       *int      `json:"age"`
	Sex       *string   `json:"sex"`
	Bio       *string   `json:"bio"`
	Interests *[]string `json:"interests"`
	City      *string   `json:"city"`
	Zodiac    *string   `json:"zodiac"`
}

type likeRequest struct {
	LikedUserID string `json:"liked_user_id" binding:"required"`
}

func toUserResponse(user *db.User) userResponse {
	return userResponse{
		UserID:    user.UserID,
		Name:      user.Name,
		Age:       user.Age,
		Sex:       string(user.Sex),
		Bio:       user.Bio,
		PhotoURL:  user.PhotoURL,
		Interests: user.Interests,
		City:      user.City,
		Zodiac:    user.Zodiac,
	}
}

func toLikeResponse(like *db.Like) likeResponse {
	return likeResponse{
		LikeID:      like.LikeID,
		UserID:      like.UserID,
		LikedUserID: like.LikedUserID,
		Status:      string(like.Status),
		CreatedAt:   like.CreatedAt,
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status, msg := errs.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"detail": msg})
}

func (s *Server) telegramAuth(c *gin.Context) {
	var login auth.TelegramLogin
	if err := c.ShouldBindJSON(&login); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid payload"})
		return
	}

	token, err := s.profiles.Authenticate(c.Request.Context(), login)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

func (s *Server) getMe(c *gin.Context) {
	user, err := s.profiles.Me(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) updateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid payload"})
		return
	}

	patch := repository.UserPatch{
		Name:      req.Name,
		Age:       req.Age,
		Bio:       req.Bio,
		Interests: req.Interests,
		City:      req.City,
		Zodiac:    req.Zodiac,
	}
	if req.Sex != nil {
		sex := db.Sex(*req.Sex)
		if sex != db.SexMale && sex != db.SexFemale {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "sex must be M or F"})
			return
		}
		patch.Sex = &sex
	}

	user, err := s.profiles.Update(c.Request.Context(), currentUserID(c), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) uploadPhoto(c *gin.Context) {
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "photo file is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer src.Close()

	user, err := s.profiles.UploadPhoto(
		c.Request.Context(),
		currentUserID(c),
		file.Filename,
		src,
		file.Size,
		file.Header.Get("Content-Type"),
	)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) createLike(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "liked_user_id is required"})
		return
	}

	like, err := s.profiles.CreateLike(c.Request.Context(), currentUserID(c), req.LikedUserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLikeResponse(like))
}

func (s *Server) listLikes(c *gin.Context) {
	limit := intQuery(c, "limit", 30)
	offset := intQuery(c, "offset", 0)

	likes, err := s.profiles.ListReceivedLikes(c.Request.Context(), currentUserID(c), limit, offset)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]likeResponse, 0, len(likes))
	for i := range likes {
		out = append(out, toLikeResponse(&likes[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) nextCandidate(c *gin.Context) {
	id, err := s.feed.NextCandidate(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if id == "" {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id})
}

// queueState exposes the raw candidate queue for diagnostics.
func (s *Server) queueState(c *gin.Context) {
	userID := currentUserID(c)
	ids, err := s.queue.All(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "queue": ids})
}

func intQuery(c *gin.Context, name string, def int) int {
	if v := c.Query(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
