package handler

import (
	"errors"
	"net/http"

	"github.com/blake-osondu/jobdroid-service/model"
	"github.com/blake-osondu/jobdroid-service/service"
	"github.com/gin-gonic/gin"
)

type AutomationHandler struct {
	registry *service.Registry
}

func NewAutomationHandler(registry *service.Registry) *AutomationHandler {
	return &AutomationHandler{registry: registry}
}

type StartRequest struct {
	UserID      string                 `json:"user_id" binding:"required"`
	Profile     model.ApplicantProfile `json:"profile" binding:"required"`
	Preferences model.Preferences      `json:"job_preferences" binding:"required"`
}

type StartResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// Start creates and starts an application run for a user
func (h *AutomationHandler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	runID, err := h.registry.Start(req.UserID, req.Profile, req.Preferences)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "A run is already active for this user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start run: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, StartResponse{
		RunID:  runID,
		Status: model.RunRunning,
	})
}

// Status returns the run snapshot for a user
func (h *AutomationHandler) Status(c *gin.Context) {
	userID := c.Param("user_id")

	snapshot, err := h.registry.Status(userID)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No run exists for this user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// Stop halts a user's run at its next checkpoint
func (h *AutomationHandler) Stop(c *gin.Context) {
	userID := c.Param("user_id")

	if err := h.registry.Stop(userID); err != nil {
		var stateErr *model.InvalidStateError
		switch {
		case errors.Is(err, service.ErrRunNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No run exists for this user"})
		case errors.As(err, &stateErr):
			c.JSON(http.StatusConflict, gin.H{"error": stateErr.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	snapshot, err := h.registry.Status(userID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": model.RunStopped})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// Pause suspends a user's run at its next checkpoint
func (h *AutomationHandler) Pause(c *gin.Context) {
	h.lifecycle(c, h.registry.Pause)
}

// Resume continues a user's paused run
func (h *AutomationHandler) Resume(c *gin.Context) {
	h.lifecycle(c, h.registry.Resume)
}

func (h *AutomationHandler) lifecycle(c *gin.Context, op func(string) error) {
	userID := c.Param("user_id")

	if err := op(userID); err != nil {
		var stateErr *model.InvalidStateError
		switch {
		case errors.Is(err, service.ErrRunNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No run exists for this user"})
		case errors.As(err, &stateErr):
			c.JSON(http.StatusConflict, gin.H{"error": stateErr.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	snapshot, _ := h.registry.Status(userID)
	c.JSON(http.StatusOK, snapshot)
}
