package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/annel0/blockworld/internal/sim"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
)

// WorldInfo - сводка по текущему миру
type WorldInfo struct {
	Simulation string           `json:"simulation"`
	Dimensions world.Dimensions `json:"dimensions"`
	Params     world.Params     `json:"params"`
	Generating bool             `json:"generating"`
	Digest     string           `json:"digest"`
	Stats      world.Stats      `json:"stats"`
	Blocks     map[string]int   `json:"blocks"`
}

// BlockInfo - описание блока для клиента рендера
type BlockInfo struct {
	ID         block.BlockID     `json:"id"`
	Name       string            `json:"name"`
	Color      string            `json:"color"`
	Textures   map[string]string `json:"textures"`
	NormalMaps map[string]string `json:"normal_maps"`
	Resource   bool              `json:"resource"`
}

// RegenerateRequest - запрос на пересоздание мира.
// Незаданные поля берутся из текущих параметров.
type RegenerateRequest struct {
	Dimensions *world.Dimensions         `json:"dimensions"`
	Terrain    *world.TerrainParams      `json:"terrain"`
	Seed       *int64                    `json:"seed"`
	Resources  map[string]world.Resource `json:"resources"`
	Async      bool                      `json:"async"`
}

// BlockRequest - запрос на установку блока в ячейку
type BlockRequest struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Block string `json:"block" binding:"required"`
}

// handleBlocks возвращает каталог блоков
func (rs *RestServer) handleBlocks(c *gin.Context) {
	descs := block.All()
	out := make([]BlockInfo, 0, len(descs))
	for _, d := range descs {
		info := BlockInfo{
			ID:         d.ID,
			Name:       d.Name,
			Color:      d.ColorHex(),
			Textures:   make(map[string]string, vec.FaceCount),
			NormalMaps: make(map[string]string, vec.FaceCount),
			Resource:   d.IsResource(),
		}
		for _, f := range vec.Faces {
			info.Textures[f.String()] = d.TextureFor(f)
			info.NormalMaps[f.String()] = d.NormalMapFor(f)
		}
		out = append(out, info)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Каталог блоков",
		Data:    out,
	})
}

// handleWorldInfo возвращает параметры и сводку мира
func (rs *RestServer) handleWorldInfo(c *gin.Context) {
	w, err := rs.simulation.World()
	if err != nil {
		rs.respondError(c, err)
		return
	}

	grid, _ := w.Snapshot()
	counts := make(map[string]int)
	for id, n := range grid.CountBlocks() {
		counts[id.String()] = n
	}

	params := rs.simulation.Params()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о мире",
		Data: WorldInfo{
			Simulation: rs.simulation.ID().String(),
			Dimensions: w.Dimensions(),
			Params:     params,
			Generating: rs.simulation.Generating(),
			Digest:     fmt.Sprintf("%016x", w.Digest()),
			Stats:      w.Stats(),
			Blocks:     counts,
		},
	})
}

// handleFaces возвращает размещения видимых граней.
// Параметры face и block сужают выборку.
func (rs *RestServer) handleFaces(c *gin.Context) {
	faces := vec.Faces[:]
	if name := c.Query("face"); name != "" {
		f, ok := vec.ParseFace(name)
		if !ok {
			badRequest(c, "неизвестная грань %q", name)
			return
		}
		faces = []vec.Face{f}
	}

	var only *block.BlockID
	if name := c.Query("block"); name != "" {
		id, ok := block.ByName(name)
		if !ok {
			badRequest(c, "неизвестный блок %q", name)
			return
		}
		only = &id
	}

	index, err := rs.simulation.Faces()
	if err != nil {
		rs.respondError(c, err)
		return
	}

	out := make(map[string]map[string][]world.Placement, len(faces))
	for _, f := range faces {
		byBlock := make(map[string][]world.Placement)
		for _, id := range index.Tags(f) {
			if only != nil && *only != id {
				continue
			}
			byBlock[id.String()] = index.Placements(f, id)
		}
		out[f.String()] = byBlock
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Видимые грани",
		Data:    out,
	})
}

// handleGrid выгружает теги блоков сетки, сжатые zstd
func (rs *RestServer) handleGrid(c *gin.Context) {
	w, err := rs.simulation.World()
	if err != nil {
		rs.respondError(c, err)
		return
	}

	dims := w.Dimensions()
	body := rs.codec.Compress(w.EncodeBlocks())

	c.Header("Content-Encoding", "zstd")
	c.Header("X-Grid-Dimensions", fmt.Sprintf("%dx%dx%d", dims.Width, dims.Height, dims.Depth))
	c.Data(http.StatusOK, "application/octet-stream", body)
}

// handleRegenerate пересоздаёт мир синхронно или в фоне
func (rs *RestServer) handleRegenerate(c *gin.Context) {
	var req RegenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Неверный JSON: %v", err)
			return
		}
	}

	params := rs.simulation.Params()
	if req.Dimensions != nil {
		params.Dimensions = *req.Dimensions
	}
	if req.Terrain != nil {
		params.Terrain = *req.Terrain
	}
	if req.Seed != nil {
		params.Terrain.Seed = *req.Seed
	}
	for name, r := range req.Resources {
		id, ok := block.ByName(name)
		if !ok || id == block.EmptyBlockID {
			badRequest(c, "неизвестный ресурс %q", name)
			return
		}
		params.Resources[id] = r
	}

	if req.Async {
		// Фоновая генерация переживает запрос
		if _, err := rs.simulation.RegenerateAsync(context.WithoutCancel(c.Request.Context()), params); err != nil {
			rs.respondRegenerateError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, GenericResponse{
			Success: true,
			Message: "Генерация запущена",
			Data:    gin.H{"params": params},
		})
		return
	}

	if err := rs.simulation.Reconfigure(c.Request.Context(), params); err != nil {
		rs.respondRegenerateError(c, err)
		return
	}
	rs.handleWorldInfo(c)
}

// respondRegenerateError отвечает 409, если генерация уже идёт
func (rs *RestServer) respondRegenerateError(c *gin.Context, err error) {
	if errors.Is(err, sim.ErrGenerating) {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	rs.respondError(c, err)
}

// handleAddBlock ставит блок в произвольную ячейку
func (rs *RestServer) handleAddBlock(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный JSON: %v", err)
		return
	}
	id, ok := block.ByName(req.Block)
	if !ok || id == block.EmptyBlockID {
		badRequest(c, "неизвестный блок %q", req.Block)
		return
	}

	pos := vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}
	if err := rs.simulation.AddBlock(pos, id); err != nil {
		rs.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Блок установлен",
		Data:    gin.H{"cell": pos, "block": id.String()},
	})
}

// handleRemoveBlock удаляет блок из ячейки ?x=&y=&z=
func (rs *RestServer) handleRemoveBlock(c *gin.Context) {
	var coords [3]int
	for i, key := range []string{"x", "y", "z"} {
		v, err := strconv.Atoi(c.Query(key))
		if err != nil {
			badRequest(c, "неверная координата %s=%q", key, c.Query(key))
			return
		}
		coords[i] = v
	}

	pos := vec.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}
	id, err := rs.simulation.RemoveBlock(pos)
	if err != nil {
		rs.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок удалён",
		Data:    gin.H{"cell": pos, "block": id.String()},
	})
}
