package core

import (
	"context"
	"fmt"
	"strings"

	"personachat/internal/store"
)

// personalityTriggers are matched as substrings of the normalized input, so
// paraphrases like "what do you know about me, really" still route here. The
// loose match is intentional and kept for compatibility with how users have
// learned to ask.
var personalityTriggers = []string{
	"who am i",
	"tell me about myself",
	"what do you know about me",
	"describe me",
	"what am i like",
	"my personality",
}

const (
	// profileHistoryLimit caps how much conversation feeds one profile.
	profileHistoryLimit = 50
	// profileMinMessages is the minimum evidence before a profile is
	// generated at all.
	profileMinMessages = 3

	insufficientDataReply = "I haven't learned enough about you yet. Please chat with me a bit more so I can get to know you better!"
	emptyProfileReply     = "Unable to generate personality profile."

	profileSystemInstruction = "You are an expert at analyzing conversations and creating personality profiles."
)

// IsPersonalityQuery reports whether the user is asking about themselves.
func IsPersonalityQuery(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	for _, trigger := range personalityTriggers {
		if strings.Contains(normalized, trigger) {
			return true
		}
	}
	return false
}

// ProfileService synthesizes a natural-language personality profile from a
// user's conversation history. Profiles are regenerated on every request;
// nothing is cached.
type ProfileService struct {
	dbStore *store.SQLiteStore
	llm     Generator
}

func NewProfileService(db *store.SQLiteStore, llm Generator) *ProfileService {
	return &ProfileService{dbStore: db, llm: llm}
}

func (s *ProfileService) GetOrGenerate(ctx context.Context, userID string) (string, error) {
	messages, err := s.dbStore.GetRecentMessagesByUserID(ctx, userID, profileHistoryLimit)
	if err != nil {
		return "", fmt.Errorf("failed to load history for profile: %w", err)
	}

	if len(messages) < profileMinMessages {
		return insufficientDataReply, nil
	}

	prompt := buildProfilePrompt(messages)
	profile, err := s.llm.Complete(ctx, profileSystemInstruction, []Turn{{Role: RoleUser, Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("profile generation failed: %w", err)
	}
	if strings.TrimSpace(profile) == "" {
		return emptyProfileReply, nil
	}
	return profile, nil
}

func buildProfilePrompt(messages []store.Message) string {
	var transcript strings.Builder
	for i, msg := range messages {
		if i > 0 {
			transcript.WriteString("\n\n")
		}
		label := "User"
		if msg.Role == store.RoleAssistant {
			label = "Assistant"
		}
		transcript.WriteString(label + ": " + msg.Content)
	}

	return fmt.Sprintf(`Based on the following conversation history, create a personality profile of the user. Focus on:
- Their interests and hobbies
- Their communication style
- Their preferences and values
- Their background or profession (if mentioned)
- Any notable personality traits

Conversation history:
%s

Generate a concise personality profile (2-3 paragraphs) that captures the essence of who this person is based on the conversation.`, transcript.String())
}
