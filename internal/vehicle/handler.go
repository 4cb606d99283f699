package vehicle

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
	g := r.Group("/vehicles")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.PATCH("/:id/status", h.changeStatus)
	g.POST("/:id/maintenance", h.scheduleMaintenance)
	g.PUT("/:id/location", h.updateLocation)
}

type vehicleResponse struct {
	ID                string    `json:"id"`
	Make              string    `json:"make"`
	Model             string    `json:"model"`
	Year              int       `json:"year,omitempty"`
	LicensePlate      string    `json:"license_plate"`
	VIN               string    `json:"vin,omitempty"`
	Color             string    `json:"color,omitempty"`
	Mileage           int64     `json:"mileage"`
	FuelType          string    `json:"fuel_type,omitempty"`
	SeatingCapacity   int       `json:"seating_capacity,omitempty"`
	RentalPricePerDay int64     `json:"rental_price_per_day,omitempty"`
	GPSEnabled        bool      `json:"gps_enabled"`
	Status            string    `json:"status"`
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toResponse(v *Vehicle) vehicleResponse {
	return vehicleResponse{
		ID:                v.ID,
		Make:              v.Make,
		Model:             v.Model,
		Year:              v.Year,
		LicensePlate:      v.LicensePlate,
		VIN:               v.VIN,
		Color:             v.Color,
		Mileage:           v.Mileage,
		FuelType:          v.FuelType,
		SeatingCapacity:   v.SeatingCapacity,
		RentalPricePerDay: v.RentalPricePerDay,
		GPSEnabled:        v.GPSEnabled,
		Status:            string(v.Status),
		Latitude:          v.Latitude,
		Longitude:         v.Longitude,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}

type createRequest struct {
	Make              string `json:"make" binding:"required"`
	Model             string `json:"model" binding:"required"`
	Year              int    `json:"year"`
	LicensePlate      string `json:"license_plate" binding:"required"`
	VIN               string `json:"vin"`
	Color             string `json:"color"`
	Mileage           int64  `json:"mileage"`
	FuelType          string `json:"fuel_type"`
	SeatingCapacity   int    `json:"seating_capacity"`
	RentalPricePerDay int64  `json:"rental_price_per_day"`
	GPSEnabled        bool   `json:"gps_enabled"`
	Status            string `json:"status"`
}

func (h *handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.service.Create(c.Request.Context(), CreateInput{
		Make:              req.Make,
		Model:             req.Model,
		Year:              req.Year,
		LicensePlate:      req.LicensePlate,
		VIN:               req.VIN,
		Color:             req.Color,
		Mileage:           req.Mileage,
		FuelType:          req.FuelType,
		SeatingCapacity:   req.SeatingCapacity,
		RentalPricePerDay: req.RentalPricePerDay,
		GPSEnabled:        req.GPSEnabled,
		Status:            Status(req.Status),
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(v))
}

func (h *handler) get(c *gin.Context) {
	v, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(v))
}

func (h *handler) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	result, err := h.service.List(c.Request.Context(), page, size)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	items := make([]vehicleResponse, 0, len(result.Items))
	for _, v := range result.Items {
		items = append(items, toResponse(v))
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
	Make              *string `json:"make"`
	Model             *string `json:"model"`
	Year              *int    `json:"year"`
	LicensePlate      *string `json:"license_plate"`
	VIN               *string `json:"vin"`
	Color             *string `json:"color"`
	Mileage           *int64  `json:"mileage"`
	FuelType          *string `json:"fuel_type"`
	SeatingCapacity   *int    `json:"seating_capacity"`
	RentalPricePerDay *int64  `json:"rental_price_per_day"`
	GPSEnabled        *bool   `json:"gps_enabled"`
}

func (h *handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.service.Update(c.Request.Context(), c.Param("id"), Patch{
		Make:              req.Make,
		Model:             req.Model,
		Year:              req.Year,
		LicensePlate:      req.LicensePlate,
		VIN:               req.VIN,
		Color:             req.Color,
		Mileage:           req.Mileage,
		FuelType:          req.FuelType,
		SeatingCapacity:   req.SeatingCapacity,
		RentalPricePerDay: req.RentalPricePerDay,
		GPSEnabled:        req.GPSEnabled,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(v))
}

func (h *handler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *handler) changeStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.service.ChangeStatus(c.Request.Context(), c.Param("id"), Status(req.Status))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(v))
}

type maintenanceRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

func (h *handler) scheduleMaintenance(c *gin.Context) {
	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.service.ScheduleMaintenance(c.Request.Context(), c.Param("id"), req.ScheduledAt)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(v))
}

type locationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (h *handler) updateLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.service.UpdateLocation(c.Request.Context(), c.Param("id"), req.Latitude, req.Longitude)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(v))
}

func abortWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mongo.ErrEntityNotFound):
		abortWithProblem(c, http.StatusNotFound, "vehicle not found")
	case errors.Is(err, ErrInvalidInput):
		abortWithProblem(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, mongo.ErrOptimisticLocking):
		abortWithProblem(c, http.StatusConflict, "vehicle was modified concurrently, retry")
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
