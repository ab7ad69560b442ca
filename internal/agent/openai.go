package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultSystemPrompt frames the assistant for tool use. The tool surface
// is read-only by catalog curation: no mutating tool is ever registered,
// so the prompt states the limitation instead of enforcing it.
const DefaultSystemPrompt = `You are AgenKampus, a helpful academic assistant.
Always use the provided tools to retrieve information; do not make up
answers. You only have read access: if asked to modify data, explain that
no tool exists for write operations. If no tool fits the request, politely
explain the limitation. Respond in Indonesian when the user writes in
Indonesian.`

// OpenAIModel implements DecisionModel with OpenAI chat-completion
// function calling.
type OpenAIModel struct {
	client       *openai.Client
	model        string
	systemPrompt string
}

// NewOpenAIModel creates a decision model. The model name defaults to
// gpt-4o-mini, matching the configuration default.
func NewOpenAIModel(client *openai.Client, model, systemPrompt string) *OpenAIModel {
	if model == "" {
		model = openai.GPT4oMini
	}
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &OpenAIModel{client: client, model: model, systemPrompt: systemPrompt}
}

func (m *OpenAIModel) Decide(ctx context.Context, req Request) (Decision, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: 0,
		Messages:    m.buildMessages(req),
		Tools:       buildTools(req.Tools),
	})
	if err != nil {
		return Decision{}, fmt.Errorf("decision model: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Decision{}, errors.New("decision model returned no choices")
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		// One call per round; extra parallel calls are ignored.
		tc := msg.ToolCalls[0]
		return Decision{Call: &ToolCall{
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		}}, nil
	}
	return Decision{Answer: msg.Content}, nil
}

// buildMessages reconstructs the conversation: system prompt, the user
// query, then one assistant tool-call plus tool-result pair per prior turn.
func (m *OpenAIModel) buildMessages(req Request) []openai.ChatCompletionMessage {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: m.systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: req.Query},
	}

	for _, turn := range req.Turns {
		callID := fmt.Sprintf("call_%d", turn.Step)
		arguments, _ := json.Marshal(turn.Arguments)
		messages = append(messages,
			openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   callID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      turn.Tool,
						Arguments: string(arguments),
					},
				}},
			},
			openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: callID,
				Content:    turn.Observation,
			},
		)
	}
	return messages
}

func buildTools(infos []ToolInfo) []openai.Tool {
	tools := make([]openai.Tool, len(infos))
	for i, info := range infos {
		parameters := info.Parameters
		if parameters == nil {
			parameters = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		tools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        info.Name,
				Description: info.Description,
				Parameters:  parameters,
			},
		}
	}
	return tools
}
