package service

import (
	"context"

	"go.uber.org/zap"

	contracts "github.com/piccolojnr/planning-platform/contracts/mq"
	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/internal/realtime"
	"github.com/piccolojnr/planning-platform/internal/repository"
)

// ChatService runs the planning conversation for a project: it persists the
// user's message, sends the whole history to the planner, and persists the
// assistant's reply.
type ChatService struct {
	chats   *repository.ChatRepository
	planner *PlannerClient
	feed    *realtime.ChangeFeed
	logger  *zap.Logger
}

func NewChatService(chats *repository.ChatRepository, planner *PlannerClient, feed *realtime.ChangeFeed, logger *zap.Logger) *ChatService {
	return &ChatService{chats: chats, planner: planner, feed: feed, logger: logger}
}

// History returns the project's conversation oldest first.
func (s *ChatService) History(ctx context.Context, projectID int64) ([]model.ChatMessage, error) {
	return s.chats.ListByProject(ctx, projectID)
}

// SendMessage appends the user's message, asks the planner for a reply, and
// appends that too. The user's message survives a planner failure so the
// conversation is not lost; the caller may retry.
func (s *ChatService) SendMessage(ctx context.Context, projectID int64, content string) (*ChatResponse, error) {
	userMsg := &model.ChatMessage{
		ProjectID: projectID,
		Role:      model.ChatRoleUser,
		Content:   content,
	}
	if err := s.chats.Insert(ctx, userMsg); err != nil {
		return nil, err
	}

	history, err := s.chats.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	reply, err := s.planner.GenerateResponse(ctx, history)
	if err != nil {
		s.logger.Error("Planner response failed",
			zap.Error(err),
			zap.Int64("project_id", projectID),
		)
		return nil, err
	}

	assistantMsg := &model.ChatMessage{
		ProjectID: projectID,
		Role:      model.ChatRoleAssistant,
		Content:   reply.Content,
	}
	if err := s.chats.Insert(ctx, assistantMsg); err != nil {
		return nil, err
	}

	s.feed.Notify(ctx, contracts.TableChatMessages, contracts.ActionInsert, projectID)
	return reply, nil
}

// DeleteMessage removes one message from the conversation.
func (s *ChatService) DeleteMessage(ctx context.Context, projectID, messageID int64) error {
	if err := s.chats.Delete(ctx, messageID, projectID); err != nil {
		return err
	}
	s.feed.Notify(ctx, contracts.TableChatMessages, contracts.ActionDelete, projectID)
	return nil
}

// DeleteLast removes the newest message, used to retry a bad exchange.
func (s *ChatService) DeleteLast(ctx context.Context, projectID int64) error {
	if err := s.chats.DeleteLast(ctx, projectID); err != nil {
		return err
	}
	s.feed.Notify(ctx, contracts.TableChatMessages, contracts.ActionDelete, projectID)
	return nil
}

// Reset clears the whole conversation.
func (s *ChatService) Reset(ctx context.Context, projectID int64) error {
	if err := s.chats.Reset(ctx, projectID); err != nil {
		return err
	}
	s.feed.Notify(ctx, contracts.TableChatMessages, contracts.ActionDelete, projectID)
	return nil
}
