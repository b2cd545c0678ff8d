package upcoming

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"mealhub/internal/auth"
	"mealhub/internal/live"
	"mealhub/internal/meals"
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

// RegisterPublicRoutes mounts the browse endpoints, expected at
// /upcomming-meals (the original API spells it that way; kept for wire
// compatibility).
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/:id", h.getByID)
}

// RegisterMemberRoutes mounts the vote endpoint, expected at
// /upcomming-meals behind AuthMiddleware.
func (h *Handler) RegisterMemberRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/like/:id", h.toggleLike)
}

// RegisterAdminRoutes mounts the staff endpoints; the group must carry
// AuthMiddleware + RequireAdmin.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/publish-upcoming-meal/:id", h.publish)
	rg.POST("/upcomming-meals", h.create)
	rg.DELETE("/upcomming-meals/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	q := meals.ListQuery{
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
		c.JSON(apperr.Status(err), gin.H{"message": "upcoming meal not found"})
		return
	}
	c.JSON(http.StatusOK, m)
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

	count, liked, promoted, err := h.Repo.ToggleVote(c.Request.Context(), id, voter)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"message": err.Error()})
		return
	}

	message := "vote recorded"
	if promoted {
		message = "meal published to the menu"
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
		if promoted {
			ev.Type = live.MealPromotedEvent
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"published":  promoted,
		"message":    message,
		"likesCount": count,
		"liked":      liked,
	})
}

func (h *Handler) publish(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.Repo.Publish(c.Request.Context(), id); err != nil {
		c.JSON(apperr.Status(err), gin.H{"message": err.Error()})
		return
	}

	if h.Hub != nil {
		ev := live.Event{
			Type:   live.MealPromotedEvent,
			MealID: id.Hex(),
			At:     time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "meal published"})
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
		c.JSON(apperr.Status(err), gin.H{"message": "upcoming meal not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "upcoming meal deleted"})
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
