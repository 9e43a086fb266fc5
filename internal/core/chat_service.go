package core

import (
	"context"
	"fmt"

	"personachat/internal/store"
)

const (
	RoleUser      = store.RoleUser
	RoleAssistant = store.RoleAssistant
)

const (
	// chatHistoryLimit is how many recent messages accompany a generic chat
	// completion as context.
	chatHistoryLimit = 20

	chatSystemInstruction = "You are a helpful AI assistant. Be conversational and natural."
)

// ChatService orchestrates one chat turn: route the incoming message to the
// profile synthesizer or the generic completion path, then append the
// user/assistant pair to the conversation.
type ChatService struct {
	dbStore  *store.SQLiteStore
	profiles *ProfileService
	llm      Generator
}

func NewChatService(db *store.SQLiteStore, profiles *ProfileService, llm Generator) *ChatService {
	return &ChatService{
		dbStore:  db,
		profiles: profiles,
		llm:      llm,
	}
}

// PostMessage generates the assistant's reply to content and persists both
// sides of the exchange. Generation failures propagate without appending
// anything, so history never contains a user message with no reply.
func (s *ChatService) PostMessage(ctx context.Context, userID, content string) (string, error) {
	var reply string
	var err error

	if IsPersonalityQuery(content) {
		reply, err = s.profiles.GetOrGenerate(ctx, userID)
	} else {
		reply, err = s.generateReply(ctx, userID, content)
	}
	if err != nil {
		return "", err
	}

	userMsg := store.Message{UserID: userID, Role: store.RoleUser, Content: content}
	if err := s.dbStore.CreateMessage(ctx, &userMsg); err != nil {
		return "", fmt.Errorf("failed to store user message: %w", err)
	}

	assistantMsg := store.Message{UserID: userID, Role: store.RoleAssistant, Content: reply}
	if err := s.dbStore.CreateMessage(ctx, &assistantMsg); err != nil {
		return "", fmt.Errorf("failed to store assistant message: %w", err)
	}

	return reply, nil
}

func (s *ChatService) generateReply(ctx context.Context, userID, content string) (string, error) {
	history, err := s.dbStore.GetRecentMessagesByUserID(ctx, userID, chatHistoryLimit)
	if err != nil {
		return "", fmt.Errorf("failed to load chat context: %w", err)
	}

	turns := make([]Turn, 0, len(history)+1)
	for _, msg := range history {
		turns = append(turns, Turn{Role: msg.Role, Content: msg.Content})
	}
	turns = append(turns, Turn{Role: RoleUser, Content: content})

	reply, err := s.llm.Complete(ctx, chatSystemInstruction, turns)
	if err != nil {
		return "", err
	}
	if reply == "" {
		reply = "I apologize, but I could not generate a response."
	}
	return reply, nil
}

// ListMessages returns the user's full conversation, oldest first.
func (s *ChatService) ListMessages(ctx context.Context, userID string) ([]store.Message, error) {
	return s.dbStore.GetMessagesByUserID(ctx, userID)
}
