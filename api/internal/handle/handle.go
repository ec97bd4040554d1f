package handle

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travel-planner/api/internal/ai"
	"travel-planner/api/internal/auth"
	"travel-planner/api/internal/store"
	"travel-planner/api/internal/travel"
)

const maxRequestTimeout = 180 * time.Second

type Travel interface {
	Summary(ctx context.Context, in travel.SummaryInput) (travel.Summary, error)
	Guide(ctx context.Context, in travel.GuideInput) (string, error)
	Geocode(ctx context.Context, in travel.GeocodeInput) (travel.Location, error)
	Weather(ctx context.Context, in travel.WeatherInput) (map[string]any, error)
	Itinerary(ctx context.Context, in travel.ItineraryInput) (map[string]any, error)
}

type Accounts interface {
	Register(ctx context.Context, username, password string) (store.User, error)
	Login(ctx context.Context, username, password string) (store.User, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handle struct {
	travel   Travel
	accounts Accounts
	db       Pinger
	log      *zap.Logger
	timeout  time.Duration
}

func New(t Travel, a Accounts, db Pinger, log *zap.Logger, timeout time.Duration) *Handle {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Handle{travel: t, accounts: a, db: db, log: log.Named("http"), timeout: timeout}
}

// Register mounts all routes on r.
func (h *Handle) Register(r gin.IRouter) {
	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	api.POST("/auth/register", h.SignUp)
	api.POST("/auth/login", h.Login)

	aiGroup := api.Group("/ai")
	aiGroup.POST("/summary", h.Summary)
	aiGroup.POST("/guide", h.Guide)
	aiGroup.POST("/geocode", h.Geocode)
	aiGroup.POST("/weather", h.Weather)
	aiGroup.POST("/itinerary", h.Itinerary)
}

// requestContext derives the upstream deadline from X-Request-Timeout or
// ?timeoutSec=, falling back to the configured default.
func (h *Handle) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	deadline := h.timeout
	if ts := c.GetHeader("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := c.Query("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	if deadline > maxRequestTimeout {
		deadline = maxRequestTimeout
	}
	return context.WithTimeout(c.Request.Context(), deadline)
}

func writeError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

// fail maps service errors to HTTP statuses.
func (h *Handle) fail(c *gin.Context, op string, err error) {
	code := http.StatusInternalServerError
	msg := op + " failed"
	switch {
	case errors.Is(err, travel.ErrInvalidInput), errors.Is(err, auth.ErrInvalidInput), errors.Is(err, ai.ErrUnknownEngine):
		code, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		code, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, store.ErrUsernameTaken):
		code, msg = http.StatusConflict, err.Error()
	case errors.Is(err, travel.ErrNotFound):
		code, msg = http.StatusNotFound, op+": nothing usable in the model answer"
	case errors.Is(err, context.DeadlineExceeded):
		code, msg = http.StatusGatewayTimeout, op+": upstream timed out"
	case errors.Is(err, travel.ErrUpstream):
		code, msg = http.StatusBadGateway, op+" error: upstream model failed"
	}
	if code >= http.StatusInternalServerError {
		h.log.Error(op+" failed", zap.Error(err))
		_ = c.Error(err)
	}
	writeError(c, code, msg)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, "bad json: "+err.Error())
		return false
	}
	return true
}
