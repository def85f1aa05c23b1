// Package mail implements the mail connector on the Gmail API.
package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	defaultListCount = 5
	maxListCount     = 100
	defaultQuery     = "is:unread"
)

// Executor handles the mail connector's actions: list_emails and
// send_email.
type Executor struct {
	service *gmail.Service
	logger  *slog.Logger
}

// NewExecutor builds a Gmail-backed executor from an OAuth2 access token.
// Token refresh is the caller's concern; the agent is handed a live token
// at startup.
func NewExecutor(ctx context.Context, accessToken string, logger *slog.Logger) (*Executor, error) {
	config := oauth2.Config{}
	client := config.Client(ctx, &oauth2.Token{AccessToken: accessToken})

	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return NewExecutorWithService(service, logger), nil
}

// NewExecutorWithService builds an executor over an existing service.
func NewExecutorWithService(service *gmail.Service, logger *slog.Logger) *Executor {
	return &Executor{
		service: service,
		logger:  logger.With("module", "connectors.mail"),
	}
}

// Execute dispatches one mail action. Unknown action types are rejected
// here, per the open action contract.
func (e *Executor) Execute(ctx context.Context, actionType string, params map[string]any) (string, error) {
	switch actionType {
	case "list_emails":
		return e.listEmails(ctx, params)
	case "send_email":
		return e.sendEmail(ctx, params)
	default:
		return "", fmt.Errorf("mail connector does not support action %q", actionType)
	}
}

func (e *Executor) listEmails(ctx context.Context, params map[string]any) (string, error) {
	count := clampCount(params["count"])

	query, _ := params["query"].(string)
	if strings.TrimSpace(query) == "" {
		query = defaultQuery
	}

	listing, err := e.service.Users.Messages.List("me").
		Q(query).
		MaxResults(int64(count)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}

	if len(listing.Messages) == 0 {
		return fmt.Sprintf("No emails match %q", query), nil
	}

	summaries := make([]string, 0, len(listing.Messages))

	for _, ref := range listing.Messages {
		msg, err := e.service.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject", "Date").
			Context(ctx).
			Do()
		if err != nil {
			e.logger.WarnContext(ctx, "Failed to fetch message metadata",
				"message_id", ref.Id, "error", err)

			continue
		}

		summaries = append(summaries, summarize(msg))
	}

	return strings.Join(summaries, "\n"), nil
}

func (e *Executor) sendEmail(ctx context.Context, params map[string]any) (string, error) {
	to, _ := params["to"].(string)
	subject, _ := params["subject"].(string)
	body, _ := params["body"].(string)

	if strings.TrimSpace(to) == "" || strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("send_email requires to and subject params")
	}

	sent, err := e.service.Users.Messages.Send("me", &gmail.Message{
		Raw: buildRawMessage(to, subject, body),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	e.logger.InfoContext(ctx, "Email sent", "to", to, "message_id", sent.Id)

	return fmt.Sprintf("Email sent to %s (message id %s)", to, sent.Id), nil
}

// clampCount coerces the open-typed count param into [1, 100], defaulting
// to 5. JSON numbers arrive as float64.
func clampCount(raw any) int {
	count := defaultListCount

	switch v := raw.(type) {
	case int:
		count = v
	case int64:
		count = int(v)
	case float64:
		count = int(v)
	}

	if count < 1 {
		count = 1
	}

	if count > maxListCount {
		count = maxListCount
	}

	return count
}

// buildRawMessage assembles an RFC 822 message and encodes it the way the
// Gmail API expects, URL-safe base64 without padding concerns.
func buildRawMessage(to, subject, body string) string {
	var msg strings.Builder

	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return base64.URLEncoding.EncodeToString([]byte(msg.String()))
}

func summarize(msg *gmail.Message) string {
	from := headerValue(msg, "From")
	subject := headerValue(msg, "Subject")
	date := headerValue(msg, "Date")

	summary := fmt.Sprintf("From: %s | Subject: %s | Date: %s", from, subject, date)
	if msg.Snippet != "" {
		summary += "\n  " + msg.Snippet
	}

	return summary
}

func headerValue(msg *gmail.Message, name string) string {
	if msg.Payload == nil {
		return ""
	}

	for _, header := range msg.Payload.Headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}

	return ""
}
