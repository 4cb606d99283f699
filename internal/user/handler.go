package user

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pcd-labs/smart-mobility/pkg/http/problems"
	"github.com/pcd-labs/smart-mobility/pkg/mongo"
)

type handler struct {
	service Service
}

func newHandler(service Service) *handler {
	return &handler{service: service}
}

func registerRoutes(r *gin.Engine, h *handler) {
	g := r.Group("/users")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.PATCH("/:id/driver-status", h.changeDriverStatus)
}

type userResponse struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	LicenseNumber string    `json:"license_number,omitempty"`
	DriverStatus  string    `json:"driver_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toResponse(u *User) userResponse {
	return userResponse{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		PhoneNumber:   u.PhoneNumber,
		LicenseNumber: u.LicenseNumber,
		DriverStatus:  string(u.DriverStatus),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type createRequest struct {
	FirstName     string `json:"first_name" binding:"required"`
	LastName      string `json:"last_name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	PhoneNumber   string `json:"phone_number"`
	LicenseNumber string `json:"license_number"`
	DriverStatus  string `json:"driver_status"`
}

func (h *handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.service.Create(c.Request.Context(), CreateInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		LicenseNumber: req.LicenseNumber,
		DriverStatus:  DriverStatus(req.DriverStatus),
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(u))
}

func (h *handler) get(c *gin.Context) {
	u, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(u))
}

func (h *handler) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	result, err := h.service.List(c.Request.Context(), page, size)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	items := make([]userResponse, 0, len(result.Items))
	for _, u := range result.Items {
		items = append(items, toResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"total":       result.Total,
		"page":        result.Page,
		"size":        result.Size,
		"total_pages": result.TotalPages,
	})
}

type updateRequest struct {
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	Email         *string `json:"email"`
	PhoneNumber   *string `json:"phone_number"`
	LicenseNumber *string `json:"license_number"`
}

func (h *handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.service.Update(c.Request.Context(), c.Param("id"), Patch{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(u))
}

func (h *handler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type driverStatusRequest struct {
	DriverStatus string `json:"driver_status" binding:"required"`
}

func (h *handler) changeDriverStatus(c *gin.Context) {
	var req driverStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.service.ChangeDriverStatus(c.Request.Context(), c.Param("id"), DriverStatus(req.DriverStatus))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(u))
}

func abortWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mongo.ErrEntityNotFound):
		abortWithProblem(c, http.StatusNotFound, "user not found")
	case errors.Is(err, ErrInvalidInput):
		abortWithProblem(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, mongo.ErrOptimisticLocking):
		abortWithProblem(c, http.StatusConflict, "user was modified concurrently, retry")
	default:
		abortWithProblem(c, http.StatusInternalServerError, err.Error())
	}
}

func abortWithProblem(c *gin.Context, status int, detail string) {
	problem := problems.New(status, detail)
	problem.Instance = c.Request.URL.Path
	_ = c.Error(errors.New(detail)).SetMeta(problem)
	c.Abort()
}
