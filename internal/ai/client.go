// Package ai wraps the Gemini API for the assistant features: estimator,
// shot-list and call-sheet chats, single line-item generation, and
// storyboard sketches. Raw model output crosses into the domain exclusively
// through the normalizer.
package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/serhq/estimator/internal/models"
	"github.com/serhq/estimator/internal/normalizer"
)

// ErrBusy is returned when a conversation still has a reply in flight.
// Sends on one conversation are serialized: the caller disables the send
// affordance until the pending turn resolves.
var ErrBusy = errors.New("a reply is still pending for this conversation")

// ErrEmptyResponse is returned when the model produced no usable output.
var ErrEmptyResponse = errors.New("no response from model")

const (
	defaultTextModel  = "gemini-2.5-flash"
	defaultImageModel = "gemini-2.5-flash-image"
)

// Client is the Gemini-backed generation client.
type Client struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

// NewClient creates a Gemini client. A missing API key fails fast here, at
// construction, rather than surfacing on the first call.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{
		client:     client,
		textModel:  defaultTextModel,
		imageModel: defaultImageModel,
	}, nil
}

// Conversation is one chat with the assistant. A conversation accepts one
// in-flight send at a time; while a turn is pending, further sends are
// refused with ErrBusy rather than queued, so the chat history only ever
// grows one turn at a time.
type Conversation struct {
	send func(ctx context.Context, message string) (string, error)

	mu       sync.Mutex
	inFlight bool
}

// begin claims the conversation for one send. The check and the claim happen
// under the lock, so of two concurrent senders exactly one proceeds.
func (c *Conversation) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrBusy
	}
	c.inFlight = true
	return nil
}

func (c *Conversation) end() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// Send submits one user turn and normalizes the reply. A failed or refused
// send leaves the conversation (and all prior domain state) untouched; the
// error is retryable from the caller's point of view.
func (c *Conversation) Send(ctx context.Context, message string) (normalizer.Result, error) {
	if err := c.begin(); err != nil {
		return normalizer.Result{}, err
	}
	defer c.end()

	text, err := c.send(ctx, message)
	if err != nil {
		return normalizer.Result{}, fmt.Errorf("chat send failed: %w", err)
	}
	if text == "" {
		return normalizer.Result{}, ErrEmptyResponse
	}

	return normalizer.Normalize(text), nil
}

// EstimatorChat starts a budget-estimate conversation grounded with Google
// Search and the given location context.
func (c *Client) EstimatorChat(ctx context.Context, location string) (*Conversation, error) {
	instruction := estimatorInstruction + fmt.Sprintf(" Current Location context: %s.", location)
	return c.newChat(ctx, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
}

// ShotListChat starts a shot-list conversation.
func (c *Client) ShotListChat(ctx context.Context) (*Conversation, error) {
	return c.newChat(ctx, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(shotListInstruction, genai.RoleUser),
	})
}

// CallSheetChat starts a call-sheet conversation.
func (c *Client) CallSheetChat(ctx context.Context) (*Conversation, error) {
	return c.newChat(ctx, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(callSheetInstruction, genai.RoleUser),
	})
}

func (c *Client) newChat(ctx context.Context, config *genai.GenerateContentConfig) (*Conversation, error) {
	chat, err := c.client.Chats.Create(ctx, c.textModel, config, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return &Conversation{
		send: func(ctx context.Context, message string) (string, error) {
			resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
			if err != nil {
				return "", err
			}
			return resp.Text(), nil
		},
	}, nil
}

// GenerateLineItem asks the model for one budget row matching the free-form
// description, coerced through the normalizer's defaults.
func (c *Client) GenerateLineItem(ctx context.Context, description, location string) (models.LineItem, error) {
	prompt := fmt.Sprintf(lineItemPromptTemplate, description, location)

	resp, err := c.client.Models.GenerateContent(ctx, c.textModel,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		},
	)
	if err != nil {
		return models.LineItem{}, fmt.Errorf("line item generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return models.LineItem{}, ErrEmptyResponse
	}

	item, ok := normalizer.ExtractLineItem(text)
	if !ok {
		return models.LineItem{}, fmt.Errorf("no line item in model response")
	}
	return item, nil
}

// StoryboardSketch renders a rough black-and-white sketch for one shot and
// returns it as a data URL. An empty string with a nil error means the model
// returned no image, which callers treat as "nothing to show".
func (c *Client) StoryboardSketch(ctx context.Context, description, shotType string) (string, error) {
	prompt := fmt.Sprintf(storyboardPromptTemplate, description, shotType)

	resp, err := c.client.Models.GenerateContent(ctx, c.imageModel,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{AspectRatio: "16:9"},
		},
	)
	if err != nil {
		return "", fmt.Errorf("storyboard generation failed: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				encoded := base64.StdEncoding.EncodeToString(part.InlineData.Data)
				return "data:image/png;base64," + encoded, nil
			}
		}
	}
	return "", nil
}
