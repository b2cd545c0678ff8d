package meals

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"mealhub/internal/auth"
	"mealhub/internal/live"
	"mealhub/pkg/apperr"
	"mealhub/pkg/models"
)

type Handler struct {
	Repo *Repo
	Hub  *live.Hub
}

func NewHandler(repo *Repo, hub *live.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

// RegisterPublicRoutes mounts the browse endpoints, expected at /meals.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/:id", h.getByID)
}

// RegisterMemberRoutes mounts the engagement endpoints, expected at /meals
// behind AuthMiddleware.
func (h *Handler) RegisterMemberRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/like", h.toggleLike)
	rg.POST("/:id/review", h.addReview)
}

// RegisterUserReviewRoutes mounts review edits, expected at /user/reviews
// behind AuthMiddleware. Reviews are addressed by their stable id.
func (h *Handler) RegisterUserReviewRoutes(rg *gin.RouterGroup) {
	rg.PUT("/:mealId/:reviewId", h.updateReview)
	rg.DELETE("/:mealId/:reviewId", h.removeReview)
}

// RegisterAdminRoutes mounts the staff moderation endpoints; the group must
// carry AuthMiddleware + RequireAdmin.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/meals", h.create)
	rg.DELETE("/meals/:id", h.delete)
	rg.DELETE("/admin/reviews/:mealId/:reviewId", h.adminRemoveReview)
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		Q:        c.Query("q"),
		Category: c.Query("category"),
		Limit:    parseInt(c.Query("limit"), 20),
		Offset:   parseInt(c.Query("offset"), 0),
	}

	items, total, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	m, err := h.Repo.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"message": "meal not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

type createReq struct {
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "title required"})
		return
	}
	if req.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "price must be >= 0"})
		return
	}

	m := models.Meal{
		Title:       req.Title,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Image:       strings.TrimSpace(req.Image),
	}

	if err := h.Repo.Create(c.Request.Context(), &m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "create failed"})
		return
	}

	c.JSON(http.StatusCreated, m)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.Repo.Delete(c.Request.Context(), id); err != nil {
		c.JSON(apperr.Status(err), gin.H{"message": "meal not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "meal deleted"})
}

type likeReq struct {
	UserID string `json:"userId"`
}

func (h *Handler) toggleLike(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req likeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}

	voter := req.UserID
	if voter == "" {
		if claims := auth.MustGetClaims(c); claims != nil {
			voter = claims.UserID
		}
	}

	count, liked, err := h.Repo.ToggleVote(c.Request.Context(), id, voter)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"message": err.Error()})
		return
	}

	if h.Hub != nil {
		ev := live.Event{
			Type:       live.MealLikedEvent,
			MealID:     id.Hex(),
			UserID:     voter,
			LikesCount: count,
			Liked:      liked,
			At:         time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, gin.H{"likesCount": count, "liked": liked})
}

type reviewReq struct {
	UserID   string   `json:"userId"`
	Rating   float64  `json:"rating"`
	Comment  string   `json:"comment"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	MealName string   `json:"mealName"`
	Likes    []string `json:"likes"`
}

func (h *Handler) addReview(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req reviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}

	rv := models.Review{
		UserID:   strings.TrimSpace(req.UserID),
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(strings.ToLower(req.Email)),
		Rating:   req.Rating,
		Comment:  strings.TrimSpace(req.Comment),
		MealName: strings.TrimSpace(req.MealName),
	}

	m, err := h.Repo.AddReview(c.Request.Context(), id, rv, req.Likes)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"message": err.Error()})
		return
	}

	if h.Hub != nil {
		ev := live.Event{
			Type:   live.MealReviewedEvent,
			MealID: id.Hex(),
			UserID: rv.UserID,
			At:     time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "review added",
		"meal":    m,
	})
}

type reviewEditReq struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

func (h *Handler) updateReview(c *gin.Context) {
	mealID, ok := parseObjectID(c, "mealId")
	if !ok {
		return
	}
	reviewID := strings.TrimSpace(c.Param("reviewId"))
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "review id required"})
		return
	}

	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	var req reviewEditReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}

	m, err := h.Repo.UpdateReview(c.Request.Context(), mealID, reviewID, claims.UserID, req.Rating, strings.TrimSpace(req.Comment))
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "review updated",
		"meal":    m,
	})
}

func (h *Handler) removeReview(c *gin.Context) {
	h.handleRemoveReview(c, false)
}

func (h *Handler) adminRemoveReview(c *gin.Context) {
	h.handleRemoveReview(c, true)
}

func (h *Handler) handleRemoveReview(c *gin.Context, staff bool) {
	mealID, ok := parseObjectID(c, "mealId")
	if !ok {
		return
	}
	reviewID := strings.TrimSpace(c.Param("reviewId"))
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "review id required"})
		return
	}

	callerID := ""
	if !staff {
		claims := auth.MustGetClaims(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
			return
		}
		callerID = claims.UserID
	}

	m, err := h.Repo.RemoveReview(c.Request.Context(), mealID, reviewID, callerID)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "review removed",
		"meal":    m,
	})
}

func parseObjectID(c *gin.Context, param string) (bson.ObjectID, bool) {
	raw := strings.TrimSpace(c.Param(param))
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
		return bson.ObjectID{}, false
	}
	return id, true
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
