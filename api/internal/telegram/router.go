package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"travel-planner/api/internal/ai"
	"travel-planner/api/internal/travel"
)

// Sender is the part of *tgbotapi.BotAPI the router needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Travel interface {
	Summary(ctx context.Context, in travel.SummaryInput) (travel.Summary, error)
	Guide(ctx context.Context, in travel.GuideInput) (string, error)
	Geocode(ctx context.Context, in travel.GeocodeInput) (travel.Location, error)
	Weather(ctx context.Context, in travel.WeatherInput) (map[string]any, error)
}

type Router struct {
	bot     Sender
	travel  Travel
	log     *zap.Logger
	httpc   *http.Client
	timeout time.Duration
	chats   *chatState
}

func NewRouter(bot Sender, t Travel, log *zap.Logger, timeout time.Duration) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Router{
		bot:     bot,
		travel:  t,
		log:     log.Named("telegram"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		timeout: timeout,
		chats:   newChatState(),
	}
}

const helpText = `I am your travel guide.

/where <place> - find a place on the map
/history <place> - short history of a place
/weather <place> - typical weather right now
/engine [gemini|gpt] - switch the model for this chat

Send any question and I will answer it about the last place you asked for.
Send a photo (caption optional) and I will tell you what is on it.`

// HandleUpdate processes one update. It never returns an error; failures are
// reported to the chat and logged.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cid := msg.Chat.ID
	switch {
	case msg.IsCommand():
		r.handleCommand(ctx, cid, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
	case len(msg.Photo) > 0:
		r.acceptPhoto(ctx, msg)
	case strings.TrimSpace(msg.Text) != "":
		r.answer(ctx, cid, msg.Text, "")
	}
}

func (r *Router) handleCommand(ctx context.Context, cid int64, cmd, args string) {
	switch cmd {
	case "start", "help":
		r.send(cid, helpText)
	case "where":
		if args == "" {
			r.send(cid, "Usage: /where <place>")
			return
		}
		loc, err := r.travel.Geocode(ctx, travel.GeocodeInput{Query: args, LLM: r.chats.engine(cid)})
		if err != nil {
			r.sendError(cid, "where", err)
			return
		}
		r.chats.setPlace(cid, loc.Name)
		r.send(cid, fmt.Sprintf("📍 %s\n%.5f, %.5f", loc.Name, loc.Lat, loc.Lon))
	case "history":
		place := r.placeOr(cid, args)
		if place == "" {
			r.send(cid, "Usage: /history <place>")
			return
		}
		sum, err := r.travel.Summary(ctx, travel.SummaryInput{Place: place, LLM: r.chats.engine(cid)})
		if err != nil {
			r.sendError(cid, "history", err)
			return
		}
		r.chats.setPlace(cid, sum.Place)
		r.send(cid, sum.Place+"\n\n"+sum.Text)
	case "weather":
		place := r.placeOr(cid, args)
		if place == "" {
			r.send(cid, "Usage: /weather <place>")
			return
		}
		w, err := r.travel.Weather(ctx, travel.WeatherInput{Place: place, LLM: r.chats.engine(cid)})
		if err != nil {
			r.sendError(cid, "weather", err)
			return
		}
		r.send(cid, formatWeather(place, w))
	case "engine":
		r.switchEngine(cid, args)
	default:
		r.send(cid, "Unknown command. Try /help")
	}
}

func (r *Router) switchEngine(cid int64, args string) {
	name := strings.ToLower(strings.TrimSpace(args))
	switch name {
	case "":
		cur := r.chats.engine(cid)
		if cur == "" {
			cur = "default"
		}
		r.send(cid, "Current model: "+cur+"\nUsage: /engine gemini | /engine gpt")
	case "gemini", "gpt", "openai":
		if name == "openai" {
			name = "gpt"
		}
		r.chats.setEngine(cid, name)
		r.send(cid, "✅ Model: "+name)
	default:
		r.send(cid, "Unknown model. Available: gemini | gpt")
	}
}

func (r *Router) answer(ctx context.Context, cid int64, question, image string) {
	out, err := r.travel.Guide(ctx, travel.GuideInput{
		Place:    r.chats.place(cid),
		Question: question,
		Image:    image,
		LLM:      r.chats.engine(cid),
	})
	if err != nil {
		r.sendError(cid, "guide", err)
		return
	}
	r.send(cid, out)
}

func (r *Router) placeOr(cid int64, args string) string {
	if args != "" {
		return args
	}
	return r.chats.place(cid)
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, truncate(text))); err != nil {
		r.log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) sendError(chatID int64, op string, err error) {
	switch {
	case errors.Is(err, travel.ErrInvalidInput), errors.Is(err, ai.ErrUnknownEngine):
		r.send(chatID, "⚠️ "+err.Error())
	case errors.Is(err, travel.ErrNotFound):
		r.send(chatID, "🤷 I could not find a good answer to that. Try rephrasing.")
	default:
		r.log.Error(op+" failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.send(chatID, "❌ Something went wrong, please try again later.")
	}
}
