package conditions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mordomohq/mordomo/pkg/protocol"
)

const (
	// maxToolRounds bounds how many tool-call rounds one evaluation may
	// spend before a verdict is forced.
	maxToolRounds = 4

	systemPrompt = "You judge whether a condition currently holds. " +
		"Use the available tools to gather evidence when they help. " +
		"Your final message must be exactly YES or NO, nothing else."
)

// OpenAIEvaluator asks a chat model for a strict yes/no verdict on a
// condition, exposing the workflow's capability providers as callable
// tools.
type OpenAIEvaluator struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIEvaluator builds an evaluator for the given API key and model.
func NewOpenAIEvaluator(apiKey, model string, logger *slog.Logger) *OpenAIEvaluator {
	return &OpenAIEvaluator{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger.With("module", "conditions.openai"),
	}
}

// Evaluate runs a bounded tool-calling conversation and parses the final
// YES/NO verdict.
func (e *OpenAIEvaluator) Evaluate(ctx context.Context, condition string, providers []protocol.Capability) (bool, error) {
	tools, lookup := convertTools(providers)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: "Condition: " + condition},
	}

	for round := 0; round <= maxToolRounds; round++ {
		request := openai.ChatCompletionRequest{
			Model:    e.model,
			Messages: messages,
		}

		// Withhold the tools on the last round so the model must answer.
		if round < maxToolRounds {
			request.Tools = tools
		}

		response, err := e.client.CreateChatCompletion(ctx, request)
		if err != nil {
			return false, fmt.Errorf("chat completion: %w", err)
		}

		if len(response.Choices) == 0 {
			return false, errors.New("chat completion returned no choices")
		}

		choice := response.Choices[0].Message

		if len(choice.ToolCalls) == 0 {
			return parseVerdict(choice.Content)
		}

		messages = append(messages, choice)
		messages = append(messages, e.runToolCalls(ctx, choice.ToolCalls, lookup)...)
	}

	return false, errors.New("evaluation exceeded the tool round limit without a verdict")
}

func (e *OpenAIEvaluator) runToolCalls(ctx context.Context, calls []openai.ToolCall, lookup map[string]boundTool) []openai.ChatCompletionMessage {
	replies := make([]openai.ChatCompletionMessage, 0, len(calls))

	for _, call := range calls {
		result := e.runToolCall(ctx, call, lookup)

		replies = append(replies, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    result,
			ToolCallID: call.ID,
		})
	}

	return replies
}

func (e *OpenAIEvaluator) runToolCall(ctx context.Context, call openai.ToolCall, lookup map[string]boundTool) string {
	bound, ok := lookup[call.Function.Name]
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", call.Function.Name)
	}

	var args map[string]any

	if call.Function.Arguments != "" {
		err := json.Unmarshal([]byte(call.Function.Arguments), &args)
		if err != nil {
			return fmt.Sprintf("error: bad tool arguments: %v", err)
		}
	}

	result, err := bound.provider.Call(ctx, bound.tool, args)
	if err != nil {
		e.logger.WarnContext(ctx, "Capability tool call failed",
			"tool", call.Function.Name, "error", err)

		return "error: " + err.Error()
	}

	return result
}

type boundTool struct {
	provider protocol.Capability
	tool     string
}

// convertTools flattens the providers' tools into the chat API shape.
// Names are prefixed with the provider id so two providers may carry
// tools of the same name.
func convertTools(providers []protocol.Capability) ([]openai.Tool, map[string]boundTool) {
	var tools []openai.Tool

	lookup := make(map[string]boundTool)

	for _, provider := range providers {
		for _, info := range provider.Tools() {
			name := provider.ID() + "__" + info.Name
			lookup[name] = boundTool{provider: provider, tool: info.Name}

			tools = append(tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        name,
					Description: info.Description,
					Parameters:  info.Parameters,
				},
			})
		}
	}

	return tools, lookup
}

// parseVerdict accepts YES/NO with some tolerance for trailing prose but
// rejects anything ambiguous.
func parseVerdict(content string) (bool, error) {
	verdict := strings.ToUpper(strings.TrimSpace(content))

	switch {
	case verdict == "YES" || strings.HasPrefix(verdict, "YES"):
		return true, nil
	case verdict == "NO" || strings.HasPrefix(verdict, "NO"):
		return false, nil
	default:
		return false, fmt.Errorf("evaluator returned an ambiguous verdict: %q", content)
	}
}
