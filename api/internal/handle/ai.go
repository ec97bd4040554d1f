package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travel-planner/api/internal/travel"
)

// llm_name picks the provider (gemini|gpt); empty means the configured default.

type summaryReq struct {
	LLMName string `json:"llm_name"`
	Place   string `json:"place"`
}

func (h *Handle) Summary(c *gin.Context) {
	var req summaryReq
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	out, err := h.travel.Summary(ctx, travel.SummaryInput{Place: req.Place, LLM: req.LLMName})
	if err != nil {
		h.fail(c, "summary", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type guideReq struct {
	LLMName  string `json:"llm_name"`
	Place    string `json:"place"`
	Question string `json:"question"`
	Image    string `json:"image"`
}

func (h *Handle) Guide(c *gin.Context) {
	var req guideReq
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	answer, err := h.travel.Guide(ctx, travel.GuideInput{
		Place: req.Place, Question: req.Question, Image: req.Image, LLM: req.LLMName,
	})
	if err != nil {
		h.fail(c, "guide", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

type geocodeReq struct {
	LLMName string `json:"llm_name"`
	Query   string `json:"query"`
}

func (h *Handle) Geocode(c *gin.Context) {
	var req geocodeReq
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	loc, err := h.travel.Geocode(ctx, travel.GeocodeInput{Query: req.Query, LLM: req.LLMName})
	if err != nil {
		h.fail(c, "geocode", err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

type weatherReq struct {
	LLMName string `json:"llm_name"`
	Place   string `json:"place"`
}

func (h *Handle) Weather(c *gin.Context) {
	var req weatherReq
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	out, err := h.travel.Weather(ctx, travel.WeatherInput{Place: req.Place, LLM: req.LLMName})
	if err != nil {
		h.fail(c, "weather", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type itineraryReq struct {
	LLMName     string   `json:"llm_name"`
	Destination string   `json:"destination"`
	Days        int      `json:"days"`
	Interests   []string `json:"interests"`
}

func (h *Handle) Itinerary(c *gin.Context) {
	var req itineraryReq
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	out, err := h.travel.Itinerary(ctx, travel.ItineraryInput{
		Destination: req.Destination, Days: req.Days, Interests: req.Interests, LLM: req.LLMName,
	})
	if err != nil {
		h.fail(c, "itinerary", err)
		return
	}
	c.JSON(http.StatusOK, out)
}
