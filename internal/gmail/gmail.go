// Package gmail adapts the Gmail API to the fiscal-fetch domain model.
//
// The sync engine and reset tool only ever see the Client interface and
// the structs in internal/types; everything Gmail-specific (payload
// trees, base64url bodies, paging) stays here.
package gmail

import (
	"context"
	"fmt"
	"strings"
	"time"

	gm "google.golang.org/api/gmail/v1"

	"github.com/diasulisses/fiscal-fetch/internal/rate"
	"github.com/diasulisses/fiscal-fetch/internal/types"
)

// Client is the remote mail source contract consumed by the pipeline.
type Client interface {
	// ListThreads returns the ids of all threads matching the query.
	ListThreads(ctx context.Context, query string) ([]string, error)
	// GetThread fetches one thread with full messages and parts.
	GetThread(ctx context.Context, id string) (*types.Thread, error)
	// GetAttachment fetches attachment bytes as base64url text.
	GetAttachment(ctx context.Context, messageID, attachmentID string) (string, error)
	// GetRawMessage fetches the RFC-822 envelope as base64url text.
	GetRawMessage(ctx context.Context, id string) (string, error)
}

const (
	listPageSize = 100
	maxAttempts  = 3
	baseBackoff  = 500 * time.Millisecond
)

type apiClient struct {
	svc   *gm.Service
	pacer *rate.Pacer
}

// NewClient wraps an authenticated Gmail service in the Client
// interface, with call pacing and bounded retry on transient failures.
func NewClient(svc *gm.Service) Client {
	return &apiClient{svc: svc, pacer: rate.NewPacer(5)}
}

func (c *apiClient) ListThreads(ctx context.Context, query string) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		var resp *gm.ListThreadsResponse
		err := c.call(ctx, "list threads", func() error {
			var err error
			resp, err = c.svc.Users.Threads.List("me").
				Q(query).
				MaxResults(listPageSize).
				PageToken(pageToken).
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, t := range resp.Threads {
			ids = append(ids, t.Id)
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			return ids, nil
		}
	}
}

func (c *apiClient) GetThread(ctx context.Context, id string) (*types.Thread, error) {
	var resp *gm.Thread
	err := c.call(ctx, fmt.Sprintf("get thread %s", id), func() error {
		var err error
		resp, err = c.svc.Users.Threads.Get("me", id).
			Format("full").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	thread := &types.Thread{ID: resp.Id}
	for _, msg := range resp.Messages {
		thread.Messages = append(thread.Messages, types.Message{
			ID:        msg.Id,
			ThreadID:  resp.Id,
			Timestamp: msg.InternalDate,
			Headers:   headerMap(msg.Payload),
			Parts:     flattenParts(msg.Payload),
		})
	}
	return thread, nil
}

func (c *apiClient) GetAttachment(ctx context.Context, messageID, attachmentID string) (string, error) {
	var resp *gm.MessagePartBody
	err := c.call(ctx, fmt.Sprintf("get attachment %s", attachmentID), func() error {
		var err error
		resp, err = c.svc.Users.Messages.Attachments.Get("me", messageID, attachmentID).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return "", err
	}
	return resp.Data, nil
}

func (c *apiClient) GetRawMessage(ctx context.Context, id string) (string, error) {
	var resp *gm.Message
	err := c.call(ctx, fmt.Sprintf("get raw message %s", id), func() error {
		var err error
		resp, err = c.svc.Users.Messages.Get("me", id).
			Format("raw").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return "", err
	}
	return resp.Raw, nil
}

// call runs one API operation with pacing and bounded exponential
// backoff. The last error is returned wrapped with the operation name.
func (c *apiClient) call(ctx context.Context, op string, fn func() error) error {
	var err error
	backoff := baseBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if werr := c.pacer.Wait(ctx); werr != nil {
			return fmt.Errorf("%s: %w", op, werr)
		}
		if err = fn(); err == nil {
			return nil
		}
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", op, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// headerMap builds a lowercased header lookup once per message, so the
// pipeline never scans header lists again.
func headerMap(payload *gm.MessagePart) map[string]string {
	if payload == nil {
		return nil
	}
	m := make(map[string]string, len(payload.Headers))
	for _, h := range payload.Headers {
		name := strings.ToLower(h.Name)
		if _, ok := m[name]; ok {
			continue // first match wins
		}
		m[name] = h.Value
	}
	return m
}

// flattenParts walks the payload tree depth-first and returns named
// parts in document order. Nested multiparts (forwarded mails, signed
// messages) are descended into.
func flattenParts(payload *gm.MessagePart) []types.Part {
	if payload == nil {
		return nil
	}
	var out []types.Part

	var walk func(part *gm.MessagePart)
	walk = func(part *gm.MessagePart) {
		if part.Filename != "" {
			p := types.Part{Filename: part.Filename}
			if part.Body != nil {
				p.AttachmentID = part.Body.AttachmentId
				p.Data = part.Body.Data
			}
			out = append(out, p)
		}
		for _, child := range part.Parts {
			walk(child)
		}
	}
	for _, part := range payload.Parts {
		walk(part)
	}
	return out
}
