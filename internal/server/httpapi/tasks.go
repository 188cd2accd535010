package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"todo/internal/service"
)

// dataResponse is the body of every 2xx response.
type dataResponse struct {
	Data any `json:"data"`
}

type createTaskRequest struct {
	Title string `json:"title"`
}

type deleteTaskResponse struct {
	ID string `json:"id"`
}

var errInvalidBody = service.NewValidationError("Invalid request body", nil)

func (h *handler) listTasks(c *gin.Context) {
	list, err := h.tasks.List(c.Request.Context(), ownerID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if list == nil {
		list = []service.Task{}
	}
	c.JSON(http.StatusOK, dataResponse{Data: list})
}

func (h *handler) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug().Err(err).Msg("failed to bind json")
		h.writeError(c, errInvalidBody)
		return
	}

	t, err := h.tasks.Create(c.Request.Context(), ownerID(c), req.Title)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dataResponse{Data: t})
}

func (h *handler) updateTask(c *gin.Context) {
	var patch service.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Debug().Err(err).Msg("failed to bind json")
		h.writeError(c, errInvalidBody)
		return
	}

	t, err := h.tasks.Update(c.Request.Context(), ownerID(c), c.Param("id"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dataResponse{Data: t})
}

func (h *handler) deleteTask(c *gin.Context) {
	id := c.Param("id")
	if err := h.tasks.Delete(c.Request.Context(), ownerID(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dataResponse{Data: deleteTaskResponse{ID: id}})
}
