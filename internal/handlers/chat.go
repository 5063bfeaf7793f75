package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/repos"
	"github.com/vaultchat/vaultchat-backend/internal/services"
	"github.com/vaultchat/vaultchat-backend/internal/types"
)

type ChatHandler struct {
	log    *logger.Logger
	orch   *services.Orchestrator
	chats  repos.ChatRepo
	topics repos.TopicRepo
	users  repos.UserRepo
}

func NewChatHandler(log *logger.Logger, orch *services.Orchestrator, chats repos.ChatRepo, topics repos.TopicRepo, users repos.UserRepo) *ChatHandler {
	return &ChatHandler{
		log:    log.With("handler", "ChatHandler"),
		orch:   orch,
		chats:  chats,
		topics: topics,
		users:  users,
	}
}

type postMessageRequest struct {
	TopicID   *int64 `json:"topic_id"`
	UserID    *int64 `json:"user_id"`
	Username  string `json:"username"`
	Text      string `json:"text" binding:"required"`
	RepliedTo *int64 `json:"replied_to"`
}

func chatIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_chat_id", err)
		return 0, false
	}
	return id, true
}

func (ch *ChatHandler) PostMessage(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := ch.orch.HandleIncoming(c.Request.Context(), services.Incoming{
		ChatID:    chatID,
		TopicID:   req.TopicID,
		UserID:    req.UserID,
		Username:  req.Username,
		Text:      req.Text,
		RepliedTo: req.RepliedTo,
	})
	if err != nil {
		switch {
		case errors.Is(err, types.ErrInvalidReply):
			RespondError(c, http.StatusUnprocessableEntity, "invalid_reply", err)
		case errors.Is(err, types.ErrDecrypt):
			RespondError(c, http.StatusInternalServerError, "decrypt_failed", err)
		default:
			RespondError(c, http.StatusInternalServerError, "turn_failed", err)
		}
		return
	}
	RespondOK(c, gin.H{
		"reply":  result.Reply,
		"state":  result.State,
		"rounds": result.Rounds,
	})
}

func (ch *ChatHandler) GetConfig(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	cfg, err := ch.chats.GetConfig(c.Request.Context(), nil, chatID)
	if err != nil {
		if errors.Is(err, types.ErrDecrypt) {
			RespondError(c, http.StatusInternalServerError, "decrypt_failed", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "config_load_failed", err)
		return
	}
	RespondOK(c, gin.H{"config": cfg})
}

func (ch *ChatHandler) SetConfig(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	var cfg types.ChatConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ch.chats.SetConfig(c.Request.Context(), nil, chatID, &cfg); err != nil {
		RespondError(c, http.StatusInternalServerError, "config_save_failed", err)
		return
	}
	RespondOK(c, gin.H{"config": cfg})
}

func (ch *ChatHandler) DeleteHistory(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	if err := ch.orch.DeleteHistory(c.Request.Context(), chatID); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (ch *ChatHandler) ListTurns(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_limit", err)
			return
		}
		limit = parsed
	}
	records, err := ch.orch.Turns(c.Request.Context(), chatID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "turns_load_failed", err)
		return
	}

	seen := map[int64]bool{}
	var userIDs []int64
	for _, record := range records {
		if record.UserID != nil && !seen[*record.UserID] {
			seen[*record.UserID] = true
			userIDs = append(userIDs, *record.UserID)
		}
	}
	usernames := map[int64]string{}
	users, err := ch.users.GetByIDs(c.Request.Context(), nil, userIDs)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "turns_load_failed", err)
		return
	}
	for _, user := range users {
		usernames[user.ID] = user.Username
	}
	RespondOK(c, gin.H{"turns": records, "usernames": usernames})
}

func (ch *ChatHandler) ListTopics(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	records, err := ch.topics.ListByChat(c.Request.Context(), nil, chatID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "topics_load_failed", err)
		return
	}
	RespondOK(c, gin.H{"topics": records})
}
