package requests

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

// RegisterMemberRoutes mounts request creation, expected at /meals behind
// AuthMiddleware.
func (h *Handler) RegisterMemberRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/request", h.create)
}

// RegisterUserRoutes mounts the requester's own listing, expected at /user
// behind AuthMiddleware.
func (h *Handler) RegisterUserRoutes(rg *gin.RouterGroup) {
	rg.GET("/requests", h.listOwn)
}

// RegisterAdminRoutes mounts the staff endpoints; the group must carry
// AuthMiddleware + RequireAdmin.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/meal-requests/:id", h.setStatus)
	rg.GET("/meal-requests", h.list)
}

type createReq struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	MealName     string `json:"mealName"`
	Email        string `json:"email"`
	IsSubscribed bool   `json:"isSubscribed"`
}

func (h *Handler) create(c *gin.Context) {
	mealID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		if claims := auth.MustGetClaims(c); claims != nil {
			userID = claims.UserID
		}
	}

	mr := models.MealRequest{
		MealID:       mealID,
		MealName:     strings.TrimSpace(req.MealName),
		UserID:       userID,
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		IsSubscribed: req.IsSubscribed,
	}

	if err := h.Repo.Create(c.Request.Context(), &mr); err != nil {
		c.JSON(apperr.Status(err), gin.H{"message": err.Error()})
		return
	}

	if h.Hub != nil {
		ev := live.Event{
			Type:      live.RequestCreatedEvent,
			MealID:    mealID.Hex(),
			RequestID: mr.ID.Hex(),
			UserID:    userID,
			Status:    mr.Status,
			At:        time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "meal requested",
		"requestId": mr.ID.Hex(),
	})
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *Handler) setStatus(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}

	updated, err := h.Repo.SetStatus(c.Request.Context(), id, strings.TrimSpace(strings.ToLower(req.Status)))
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"message": err.Error()})
		return
	}

	if h.Hub != nil {
		ev := live.Event{
			Type:      live.RequestUpdatedEvent,
			RequestID: id.Hex(),
			UserID:    updated.UserID,
			Status:    updated.Status,
			At:        time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "request " + updated.Status,
		"request": updated,
	})
}

func (h *Handler) listOwn(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(), claims.UserID, strings.TrimSpace(c.Query("status")), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

func (h *Handler) list(c *gin.Context) {
	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(),
		strings.TrimSpace(c.Query("userId")),
		strings.TrimSpace(c.Query("status")),
		limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
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
