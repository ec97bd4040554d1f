package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travel-planner/api/internal/store"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResp struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func toUserResp(u store.User) userResp {
	return userResp{ID: u.ID.String(), Username: u.Username}
}

func (h *Handle) SignUp(c *gin.Context) {
	var req credentials
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.accounts.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, toUserResp(u))
}

func (h *Handle) Login(c *gin.Context) {
	var req credentials
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, toUserResp(u))
}
