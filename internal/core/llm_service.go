package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultChatModelName = "gemini-1.5-flash-latest"

// Turn is one entry of conversation history handed to the generator. Role is
// "user" or "assistant".
type Turn struct {
	Role    string
	Content string
}

// Generator produces assistant text from a system instruction and a
// conversation whose last turn is the user's. Implementations may fail with
// rate-limit, auth or network errors; callers treat all of them as opaque.
type Generator interface {
	Complete(ctx context.Context, systemInstruction string, turns []Turn) (string, error)
}

type LLMService struct {
	client *genai.Client
}

func NewLLMService(ctx context.Context, apiKey string) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

func (s *LLMService) Complete(ctx context.Context, systemInstruction string, turns []Turn) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("conversation is empty, nothing to complete")
	}
	last := turns[len(turns)-1]
	if last.Role != RoleUser {
		return "", fmt.Errorf("last turn must come from the user, got %q", last.Role)
	}

	model := s.client.GenerativeModel(defaultChatModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	chatSession := model.StartChat()
	for _, turn := range turns[:len(turns)-1] {
		chatSession.History = append(chatSession.History, &genai.Content{
			Role:  genaiRole(turn.Role),
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	resp, err := chatSession.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Println("Gemini response was empty or had no valid candidates/parts.")
		return "", nil
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	return responseText.String(), nil
}

// genaiRole maps our message roles to the Gemini API's, which calls the
// assistant side "model".
func genaiRole(role string) string {
	if role == RoleAssistant {
		return "model"
	}
	return "user"
}
