package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"mdla-platform/internal/dto"
	"mdla-platform/internal/model"
	"mdla-platform/internal/repository"

	"github.com/rs/zerolog"
)

type ChatService interface {
	Send(ctx context.Context, senderID uint, req *dto.SendMessageRequest) (*model.Message, error)
	DirectHistory(ctx context.Context, userA, userB uint) ([]model.Message, error)
	RoomHistory(ctx context.Context, roomID string) ([]model.Message, error)
	Conversations(ctx context.Context, userID uint) ([]dto.ConversationSummary, error)
	MarkRead(ctx context.Context, userID, counterpartID uint) error
}

type chatServiceImpl struct {
	messageRepo repository.MessageRepository
	logger      zerolog.Logger
}

func NewChatService(messageRepo repository.MessageRepository, logger zerolog.Logger) ChatService {
	return &chatServiceImpl{
		messageRepo: messageRepo,
		logger:      logger.With().Str("service", "chat").Logger(),
	}
}

func (s *chatServiceImpl) Send(ctx context.Context, senderID uint, req *dto.SendMessageRequest) (*model.Message, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, model.NewValidationError("message content must not be empty")
	}
	if req.ReceiverID == nil && req.RoomID == nil {
		return nil, model.NewValidationError("message needs a receiver or a room")
	}

	msgType := req.Type
	if msgType == "" {
		msgType = model.MessageText
	}

	message := &model.Message{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		RoomID:     req.RoomID,
		Content:    req.Content,
		Type:       msgType,
		Metadata:   req.Metadata,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	// Reload with sender attributes for delivery enrichment.
	enriched, err := s.messageRepo.FindByID(ctx, message.ID)
	if err != nil {
		return nil, fmt.Errorf("load sent message: %w", err)
	}

	s.logger.Debug().
		Uint("message_id", enriched.ID).
		Uint("sender_id", senderID).
		Msg("message persisted")

	return enriched, nil
}

func (s *chatServiceImpl) DirectHistory(ctx context.Context, userA, userB uint) ([]model.Message, error) {
	messages, err := s.messageRepo.DirectBetween(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("direct history: %w", err)
	}
	return messages, nil
}

func (s *chatServiceImpl) RoomHistory(ctx context.Context, roomID string) ([]model.Message, error) {
	messages, err := s.messageRepo.ByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("room history: %w", err)
	}
	return messages, nil
}

// Conversations derives the per-counterpart chat overview: last direct
// message and count of unread messages the counterpart sent to the user,
// newest conversation first. Counterparts with no resolvable direct message
// are simply absent; a user with no messages gets an empty slice.
func (s *chatServiceImpl) Conversations(ctx context.Context, userID uint) ([]dto.ConversationSummary, error) {
	messages, err := s.messageRepo.ListDirectInvolving(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	byCounterpart := make(map[uint]*dto.ConversationSummary)
	for i := range messages {
		msg := messages[i]

		var counterpartID uint
		var counterpart *model.User
		if msg.SenderID == userID {
			if msg.ReceiverID == nil {
				continue
			}
			counterpartID = *msg.ReceiverID
			counterpart = msg.Receiver
		} else {
			counterpartID = msg.SenderID
			counterpart = &msg.Sender
		}
		if counterpart == nil {
			continue
		}

		summary, ok := byCounterpart[counterpartID]
		if !ok {
			summary = &dto.ConversationSummary{Counterpart: *counterpart}
			byCounterpart[counterpartID] = summary
		}
		// Messages arrive oldest first, so the latest seen wins.
		summary.LastMessage = msg
		if msg.SenderID == counterpartID && !msg.Read {
			summary.UnreadCount++
		}
	}

	summaries := make([]dto.ConversationSummary, 0, len(byCounterpart))
	for _, summary := range byCounterpart {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastMessage.CreatedAt.After(summaries[j].LastMessage.CreatedAt)
	})

	return summaries, nil
}

func (s *chatServiceImpl) MarkRead(ctx context.Context, userID, counterpartID uint) error {
	if err := s.messageRepo.MarkRead(ctx, userID, counterpartID); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}
