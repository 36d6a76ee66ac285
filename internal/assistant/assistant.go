// Package assistant answers free-text questions about a user's spending by
// delegating to an OpenAI-compatible chat-completions endpoint. The upstream
// call is best-effort: any failure is absorbed into a fixed fallback reply.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ecoreceipt/ecoreceipt/internal/analytics"
	"github.com/ecoreceipt/ecoreceipt/internal/model"
)

// ErrNotConfigured indicates the provider API key is absent; chat degrades
// to fallback responses only.
var ErrNotConfigured = errors.New("assistant not configured")

// Client calls a chat-completions endpoint.
type Client struct {
	httpc   *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewClient constructs a provider client. An empty apiKey is allowed; every
// completion then fails with ErrNotConfigured. timeout bounds each call.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		httpc:   &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one system+user message pair and returns the answer text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("provider status %d", resp.StatusCode)
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errors.New("empty completion")
	}
	return out.Choices[0].Message.Content, nil
}

// Bridge turns a user's question plus their receipt set into an answer.
type Bridge struct {
	client *Client
	log    *zap.Logger
}

// NewBridge constructs a Bridge.
func NewBridge(client *Client, log *zap.Logger) *Bridge {
	return &Bridge{client: client, log: log}
}

// Answer never fails: on any upstream error it returns the fallback string
// referencing the query and the receipt count.
func (b *Bridge) Answer(ctx context.Context, message string, receipts []model.Receipt) string {
	reply, err := b.client.Complete(ctx, systemPrompt(receipts), message)
	if err != nil {
		b.log.Warn("assistant fallback", zap.Error(err))
		return Fallback(message, len(receipts))
	}
	return reply
}

// Fallback is the fixed local reply used when the provider is unreachable
// or unconfigured.
func Fallback(message string, receiptCount int) string {
	return fmt.Sprintf("I understand you're asking about %q. Based on your current data, I can see you have %d receipts. This helps track your environmental impact by going digital!", message, receiptCount)
}

// systemPrompt frames the provider call with a short spending summary:
// total, receipt count, per-category totals and the most recent retailers.
func systemPrompt(receipts []model.Receipt) string {
	sum := analytics.Spending(receipts)

	cats := make([]string, 0, len(sum.CategoryBreakdown))
	for cat := range sum.CategoryBreakdown {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	parts := make([]string, 0, len(cats))
	for _, cat := range cats {
		parts = append(parts, fmt.Sprintf("%s: $%.2f", cat, sum.CategoryBreakdown[cat]))
	}

	recent := make([]string, 0, 3)
	for i := 0; i < len(receipts) && i < 3; i++ {
		recent = append(recent, receipts[i].Retailer)
	}

	var sb strings.Builder
	sb.WriteString("You are an AI assistant for EcoReceipt, a digital receipt manager. ")
	sb.WriteString("You help users understand their spending patterns and environmental impact.\n\n")
	fmt.Fprintf(&sb, "User's spending data:\n- Total spent: $%.2f\n- Number of receipts: %d\n", sum.TotalSpent, len(receipts))
	fmt.Fprintf(&sb, "- Categories: %s\n", strings.Join(parts, ", "))
	fmt.Fprintf(&sb, "- Recent receipts: %s\n\n", strings.Join(recent, ", "))
	sb.WriteString("Provide helpful insights about their spending, suggest ways to save money or be more eco-friendly. ")
	sb.WriteString("Keep responses concise and friendly. Focus on actionable advice.")
	return sb.String()
}
