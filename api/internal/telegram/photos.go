package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"travel-planner/api/internal/util"
)

const maxPhotoBytes = 8 << 20

func (r *Router) acceptPhoto(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	// Telegram lists sizes ascending; the last one is the largest.
	ph := msg.Photo[len(msg.Photo)-1]
	url, err := r.bot.GetFileDirectURL(ph.FileID)
	if err != nil {
		r.sendError(cid, "photo", fmt.Errorf("get file: %w", err))
		return
	}
	data, err := r.download(ctx, url)
	if err != nil {
		r.sendError(cid, "photo", err)
		return
	}

	question := strings.TrimSpace(msg.Caption)
	if question == "" {
		question = "What is in this photo? Tell me about it as a tour guide."
	}
	mime := util.PickMIME("", "", data)
	r.answer(ctx, cid, question, util.MakeDataURL(mime, base64.StdEncoding.EncodeToString(data)))
}

func (r *Router) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("download photo: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("download photo: larger than %d MiB", maxPhotoBytes>>20)
	}
	return data, nil
}
