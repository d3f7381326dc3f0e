package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"sequence-service/internal/middleware"
	"sequence-service/internal/service"
	roomSvc "sequence-service/internal/service/room"
	"sequence-service/internal/ws"
	appErr "sequence-service/pkg/errors"
	"sequence-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Room)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/api/v1")
	{
		roomGroup := v1.Group("/rooms")
		{
			roomGroup.POST("", handler.CreateRoom)
			roomGroup.POST("/:code/join", handler.JoinRoom)
			roomGroup.GET("/:code", handler.GetRoom)
			roomGroup.GET("/:code/records", handler.ListRoomRecords)
		}

		sessionGroup := v1.Group("/session")
		sessionGroup.Use(middleware.SessionRequired())
		{
			sessionGroup.GET("/state", handler.GetSessionState)
			sessionGroup.POST("/leave", handler.LeaveRoom)
		}
	}

	r.GET("/ws/rooms/:code", wsHandler.HandleRoomWS)
}

type joinRoomBody struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var body roomSvc.CreateParams
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.services.Room.CreateRoom(c.Request.Context(), body)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	response.Success(c, info)
}

func (h *Handler) JoinRoom(c *gin.Context) {
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}

	var body joinRoomBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.services.Room.JoinRoom(c.Request.Context(), code, strings.TrimSpace(body.Name))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrRoomNotFound):
			status = http.StatusNotFound
		case errors.Is(err, appErr.ErrRoomFull), errors.Is(err, appErr.ErrRoomInProgress):
			status = http.StatusConflict
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, info)
}

func (h *Handler) GetRoom(c *gin.Context) {
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}

	rt, err := h.services.Room.Lookup(code)
	if err != nil {
		response.Error(c, http.StatusNotFound, err.Error())
		return
	}

	// Spectator view: no hand is attached.
	response.Success(c, rt.Snapshot(""))
}

func (h *Handler) GetSessionState(c *gin.Context) {
	code := c.GetString(middleware.ContextRoomCodeKey)
	playerID := c.GetString(middleware.ContextPlayerIDKey)

	rt, err := h.services.Room.Lookup(code)
	if err != nil {
		response.Error(c, http.StatusNotFound, err.Error())
		return
	}

	response.Success(c, rt.Snapshot(playerID))
}

func (h *Handler) LeaveRoom(c *gin.Context) {
	token := c.GetString(middleware.ContextTokenKey)

	if err := h.services.Room.Leave(c.Request.Context(), token); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrRoomNotFound), errors.Is(err, appErr.ErrSessionNotFound):
			status = http.StatusNotFound
		case errors.Is(err, appErr.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, appErr.ErrPlayerNotFound):
			status = http.StatusNotFound
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, gin.H{"status": "left"})
}

func (h *Handler) ListRoomRecords(c *gin.Context) {
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}

	limit, err := parsePositiveIntQuery(c, "limit", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.services.Record.ListByRoom(c.Request.Context(), code, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{"records": records})
}

func roomCodeParam(c *gin.Context) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if code == "" {
		response.Error(c, http.StatusBadRequest, "invalid room code")
		return "", false
	}
	return code, true
}

func parsePositiveIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return parsed, nil
}
