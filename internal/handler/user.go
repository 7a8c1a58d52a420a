package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/user-records-service/internal/model"
	"github.com/maxviazov/user-records-service/internal/service"
	"github.com/maxviazov/user-records-service/pkg/response"
)

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/users")
	{
		g.GET("", h.list)
		g.POST("", h.create)
		g.GET("/:id", h.getByID)
		g.PUT("/:id", h.update)
		g.DELETE("/:id", h.delete)
	}
}

type createUserRequest struct {
	Name    string `json:"name"`
	Age     *int   `json:"age"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// updateUserRequest uses pointers so an omitted field is distinguishable from an empty one.
type updateUserRequest struct {
	Name    *string `json:"name"`
	Age     *int    `json:"age"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
}

var errMalformedBody = service.NewInvalidInputError([]service.FieldError{{Field: "body", Message: "must be a valid JSON object"}})

// list never rejects pagination input; the service degrades bad values to defaults.
func (h *UserHandler) list(c *gin.Context) {
	q := service.ListQuery{
		Page:   c.Query("page"),
		Limit:  c.Query("limit"),
		Search: c.Query("search"),
	}
	page, err := h.svc.ListUsers(c.Request.Context(), q)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, page)
}

func (h *UserHandler) getByID(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, user)
}

func (h *UserHandler) create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, errMalformedBody)
		return
	}
	user, err := h.svc.CreateUser(c.Request.Context(), service.CreateUserInput{
		Name:    req.Name,
		Age:     req.Age,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteMessage(c, http.StatusCreated, "user created", user)
}

func (h *UserHandler) update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, errMalformedBody)
		return
	}
	user, err := h.svc.UpdateUser(c.Request.Context(), c.Param("id"), model.UserPatch{
		Name:    req.Name,
		Age:     req.Age,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteMessage(c, http.StatusOK, "user updated", user)
}

func (h *UserHandler) delete(c *gin.Context) {
	if err := h.svc.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteMessage(c, http.StatusOK, "user deleted", nil)
}
