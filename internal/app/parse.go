package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"path"
	"strings"
	"time"

	"aitodo/pkg/ai"
	"aitodo/pkg/domain"
)

const (
	parseTemperature = 0.1
	parseMaxTokens   = 3000

	imageHistoryText = "用户上传了一张图片进行分析"
	imageInstruction = "请分析这张图片中的事件信息并提取为待办事项"

	imageURLExpiry = 24 * time.Hour
)

// ParseResult is the text-extraction outcome.
type ParseResult struct {
	ConversationID string
	Extracted      ai.ExtractedTodo
	Questions      []string
}

// ImageParseResult is the image-extraction outcome. ImageURL is a presigned
// link to the archived screenshot (the raw object key when presigning is
// unavailable); both image fields are empty when archiving is disabled or
// failed.
type ImageParseResult struct {
	ConversationID string
	Extracted      []ai.ExtractedEvent
	Questions      []string
	ImageID        string
	ImageURL       string
}

// ParseText runs the text extraction flow: load conversation history, call
// the text model, parse the strict-JSON reply, and record the turn.
func (a *App) ParseText(ctx context.Context, user domain.User, text, conversationID string) (ParseResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ParseResult{}, ErrTextRequired
	}
	if conversationID == "" {
		conversationID = a.conversations.NewID()
	}
	history := a.loadHistory(ctx, user.ID, conversationID)

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.TextMessage("system", ai.TextSystemPrompt(a.now())))
	messages = append(messages, history...)
	messages = append(messages, ai.TextMessage("user", text))

	reply, err := a.ai.ChatCompletion(ctx, a.textModel, messages, parseTemperature, parseMaxTokens)
	if err != nil {
		slog.Error("text extraction call failed", "user_id", user.ID, "err", err)
		return ParseResult{}, ErrParseFailed
	}
	parsed, err := ai.ParseTodoExtraction(reply)
	if err != nil {
		slog.Error("text extraction reply unparseable", "user_id", user.ID, "err", err)
		return ParseResult{}, ErrParseFailed
	}
	a.recordTurn(ctx, user.ID, conversationID, text, reply)

	return ParseResult{
		ConversationID: conversationID,
		Extracted:      parsed.Extracted,
		Questions:      parsed.Questions,
	}, nil
}

// ParseImage runs the vision extraction flow. The screenshot is archived
// best-effort before being embedded base64 in the vision message.
func (a *App) ParseImage(ctx context.Context, user domain.User, data []byte, contentType, conversationID string) (ImageParseResult, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return ImageParseResult{}, ErrNotImage
	}
	if conversationID == "" {
		conversationID = a.conversations.NewID()
	}

	var imageID, imageURL string
	if a.images != nil {
		key, err := a.images.PutImage(ctx, user.ID, bytes.NewReader(data), int64(len(data)), contentType)
		if err != nil {
			slog.Warn("image archive failed", "user_id", user.ID, "err", err)
		} else {
			base := path.Base(key)
			imageID = strings.TrimSuffix(base, path.Ext(base))
			imageURL, err = a.images.PresignGet(ctx, key, imageURLExpiry)
			if err != nil {
				slog.Warn("image presign failed", "user_id", user.ID, "key", key, "err", err)
				imageURL = key
			}
		}
	}

	history := a.loadHistory(ctx, user.ID, conversationID)
	encoded := base64.StdEncoding.EncodeToString(data)

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.TextMessage("system", ai.ImageSystemPrompt(a.now())))
	messages = append(messages, history...)
	messages = append(messages, ai.ImageMessage(imageInstruction, contentType, encoded))

	reply, err := a.ai.ChatCompletion(ctx, a.visionModel, messages, parseTemperature, parseMaxTokens)
	if err != nil {
		slog.Error("image extraction call failed", "user_id", user.ID, "err", err)
		return ImageParseResult{}, ErrParseFailed
	}
	parsed, err := ai.ParseEventExtraction(reply)
	if err != nil {
		slog.Error("image extraction reply unparseable", "user_id", user.ID, "err", err)
		return ImageParseResult{}, ErrParseFailed
	}
	a.recordTurn(ctx, user.ID, conversationID, imageHistoryText, reply)

	return ImageParseResult{
		ConversationID: conversationID,
		Extracted:      parsed.Extracted,
		Questions:      parsed.Questions,
		ImageID:        imageID,
		ImageURL:       imageURL,
	}, nil
}

// loadHistory treats every failure as an empty history; extraction must not
// fail because the conversation cache is unavailable.
func (a *App) loadHistory(ctx context.Context, userID, conversationID string) []ai.Message {
	history, err := a.conversations.Load(ctx, userID, conversationID)
	if err != nil {
		slog.Warn("conversation history load failed", "user_id", userID, "err", err)
		return nil
	}
	return history
}

// recordTurn persists the user/assistant pair best-effort.
func (a *App) recordTurn(ctx context.Context, userID, conversationID, userText, reply string) {
	err := a.conversations.Append(ctx, userID, conversationID,
		ai.TextMessage("user", userText),
		ai.TextMessage("assistant", reply),
	)
	if err != nil {
		slog.Warn("conversation history append failed", "user_id", userID, "err", err)
	}
}
