package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annel0/blockworld/internal/physics"
	"github.com/annel0/blockworld/internal/world/block"
)

// StepRequest - запрос на шаг симуляции игрока
type StepRequest struct {
	Input  physics.Input `json:"input"`
	Delta  float64       `json:"delta"`
	Flying *bool         `json:"flying"`
}

// PlaceRequest - запрос на установку блока в прицеле
type PlaceRequest struct {
	Block string `json:"block" binding:"required"`
}

// handlePlayer возвращает состояние игрока и блок в прицеле
func (rs *RestServer) handlePlayer(c *gin.Context) {
	data := gin.H{"player": rs.simulation.Player()}
	hit, ok, err := rs.simulation.Select()
	if err != nil {
		rs.respondError(c, err)
		return
	}
	if ok {
		data["selection"] = hit
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние игрока",
		Data:    data,
	})
}

// handleStep продвигает игрока на delta секунд
func (rs *RestServer) handleStep(c *gin.Context) {
	var req StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный JSON: %v", err)
		return
	}
	if req.Delta < 0 {
		badRequest(c, "delta не может быть отрицательным")
		return
	}

	if req.Flying != nil {
		rs.simulation.SetFlying(*req.Flying)
	}
	state, err := rs.simulation.Step(req.Input, req.Delta)
	if err != nil {
		rs.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Шаг выполнен",
		Data:    state,
	})
}

// handleRespawn возвращает игрока в точку появления
func (rs *RestServer) handleRespawn(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Игрок возрождён",
		Data:    gin.H{"player": rs.simulation.Respawn()},
	})
}

// handleBreak удаляет блок в прицеле
func (rs *RestServer) handleBreak(c *gin.Context) {
	cell, id, err := rs.simulation.BreakBlock()
	if err != nil {
		rs.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок разрушен",
		Data:    gin.H{"cell": cell, "block": id.String()},
	})
}

// handlePlace ставит блок к грани в прицеле
func (rs *RestServer) handlePlace(c *gin.Context) {
	var req PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный JSON: %v", err)
		return
	}
	id, ok := block.ByName(req.Block)
	if !ok || id == block.EmptyBlockID {
		badRequest(c, "неизвестный блок %q", req.Block)
		return
	}

	cell, err := rs.simulation.PlaceBlock(id)
	if err != nil {
		rs.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Блок установлен",
		Data:    gin.H{"cell": cell, "block": id.String()},
	})
}
