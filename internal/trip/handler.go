package trip

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
	g := r.Group("/trips")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.PUT("/:id/driver", h.assignDriver)
	g.PUT("/:id/vehicle", h.assignVehicle)
	g.POST("/:id/start", h.start)
	g.POST("/:id/complete", h.complete)
	g.POST("/:id/cancel", h.cancel)
}

type tripResponse struct {
	ID              string     `json:"id"`
	DriverID        *string    `json:"driver_id,omitempty"`
	VehicleID       *string    `json:"vehicle_id,omitempty"`
	TripType        string     `json:"trip_type"`
	Status          string     `json:"status"`
	StartLocation   string     `json:"start_location"`
	EndLocation     string     `json:"end_location"`
	Waypoints       []string   `json:"waypoints,omitempty"`
	ScheduledStart  time.Time  `json:"scheduled_start"`
	ActualStart     *time.Time `json:"actual_start,omitempty"`
	ActualEnd       *time.Time `json:"actual_end,omitempty"`
	DistanceKM      float64    `json:"distance_km,omitempty"`
	DurationMinutes int64      `json:"duration_minutes,omitempty"`
	BaseCost        int64      `json:"base_cost,omitempty"`
	TotalCost       int64      `json:"total_cost,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toResponse(t *Trip) tripResponse {
	return tripResponse{
		ID:              t.ID,
		DriverID:        t.DriverID,
		VehicleID:       t.VehicleID,
		TripType:        string(t.TripType),
		Status:          string(t.Status),
		StartLocation:   t.StartLocation,
		EndLocation:     t.EndLocation,
		Waypoints:       t.Waypoints,
		ScheduledStart:  t.ScheduledStart,
		ActualStart:     t.ActualStart,
		ActualEnd:       t.ActualEnd,
		DistanceKM:      t.DistanceKM,
		DurationMinutes: t.DurationMinutes,
		BaseCost:        t.BaseCost,
		TotalCost:       t.TotalCost,
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

type viewResponse struct {
	Trip    tripResponse `json:"trip"`
	Driver  *Driver      `json:"driver,omitempty"`
	Vehicle *VehicleRef  `json:"vehicle,omitempty"`
}

type createRequest struct {
	TripType       string    `json:"trip_type"`
	StartLocation  string    `json:"start_location" binding:"required"`
	EndLocation    string    `json:"end_location" binding:"required"`
	Waypoints      []string  `json:"waypoints"`
	ScheduledStart time.Time `json:"scheduled_start" binding:"required"`
	BaseCost       int64     `json:"base_cost"`
	Notes          string    `json:"notes"`
}

func (h *handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.service.Create(c.Request.Context(), CreateInput{
		TripType:       Type(req.TripType),
		StartLocation:  req.StartLocation,
		EndLocation:    req.EndLocation,
		Waypoints:      req.Waypoints,
		ScheduledStart: req.ScheduledStart,
		BaseCost:       req.BaseCost,
		Notes:          req.Notes,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(t))
}

// get returns the federated view: the trip plus the resolved driver and
// vehicle records from the owning services.
func (h *handler) get(c *gin.Context) {
	view, err := h.service.GetView(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewResponse{
		Trip:    toResponse(view.Trip),
		Driver:  view.Driver,
		Vehicle: view.Vehicle,
	})
}

func (h *handler) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	result, err := h.service.List(c.Request.Context(), page, size)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	items := make([]tripResponse, 0, len(result.Items))
	for _, t := range result.Items {
		items = append(items, toResponse(t))
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
	StartLocation  *string    `json:"start_location"`
	EndLocation    *string    `json:"end_location"`
	Waypoints      *[]string  `json:"waypoints"`
	ScheduledStart *time.Time `json:"scheduled_start"`
	BaseCost       *int64     `json:"base_cost"`
	Notes          *string    `json:"notes"`
}

func (h *handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.service.Update(c.Request.Context(), c.Param("id"), Patch{
		StartLocation:  req.StartLocation,
		EndLocation:    req.EndLocation,
		Waypoints:      req.Waypoints,
		ScheduledStart: req.ScheduledStart,
		BaseCost:       req.BaseCost,
		Notes:          req.Notes,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(t))
}

func (h *handler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignDriverRequest struct {
	DriverID string `json:"driver_id" binding:"required"`
}

func (h *handler) assignDriver(c *gin.Context) {
	var req assignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.service.AssignDriver(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(t))
}

type assignVehicleRequest struct {
	VehicleID string `json:"vehicle_id" binding:"required"`
}

func (h *handler) assignVehicle(c *gin.Context) {
	var req assignVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.service.AssignVehicle(c.Request.Context(), c.Param("id"), req.VehicleID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(t))
}

func (h *handler) start(c *gin.Context) {
	t, err := h.service.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(t))
}

type completeRequest struct {
	DistanceKM float64 `json:"distance_km"`
	TotalCost  int64   `json:"total_cost"`
}

func (h *handler) complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.service.Complete(c.Request.Context(), c.Param("id"), CompleteInput{
		DistanceKM: req.DistanceKM,
		TotalCost:  req.TotalCost,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(t))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *handler) cancel(c *gin.Context) {
	var req cancelRequest
	// Reason is optional; an empty body cancels without a note.
	_ = c.ShouldBindJSON(&req)

	t, err := h.service.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(t))
}

func abortWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mongo.ErrEntityNotFound):
		abortWithProblem(c, http.StatusNotFound, "trip not found")
	case errors.Is(err, ErrInvalidInput):
		abortWithProblem(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		abortWithProblem(c, http.StatusConflict, err.Error())
	case errors.Is(err, mongo.ErrOptimisticLocking):
		abortWithProblem(c, http.StatusConflict, "trip was modified concurrently, retry")
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
