package commands

import (
	"context"
	"strings"
	"time"

	"github.com/lumivox/chatkit/pkg/chatx"
)

// scriptedModel is a provider stand-in for the playground: it streams a
// canned reply word by word, so the reactive plumbing can be exercised
// without credentials or network access.
type scriptedModel struct {
	delay time.Duration
}

func (m *scriptedModel) ModelID() string { return "scripted/echo" }

func (m *scriptedModel) reply(req *chatx.Request) string {
	prompt := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == chatx.RoleUser {
			prompt = req.Messages[i].Content
			break
		}
	}
	return "You said: " + prompt + ". This reply is streamed by the scripted playground model."
}

func (m *scriptedModel) usage(req *chatx.Request, text string) chatx.Usage {
	prompt := int64(0)
	for _, msg := range req.Messages {
		prompt += int64(len(strings.Fields(msg.Content)))
	}
	completion := int64(len(strings.Fields(text)))
	return chatx.Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

func (m *scriptedModel) DoGenerate(ctx context.Context, req *chatx.Request) (*chatx.TextResult, error) {
	text := m.reply(req)
	return &chatx.TextResult{
		Text:         text,
		Usage:        m.usage(req, text),
		FinishReason: "stop",
	}, nil
}

func (m *scriptedModel) DoStream(ctx context.Context, req *chatx.Request) (chatx.Stream[*chatx.Event], error) {
	text := m.reply(req)
	sb := chatx.NewStreamBuilder[*chatx.Event](16)
	go func() {
		words := strings.SplitAfter(text, " ")
		for _, w := range words {
			select {
			case <-ctx.Done():
				sb.Abort(ctx.Err())
				return
			case <-time.After(m.delay):
			}
			if sb.Add(&chatx.Event{Type: chatx.EventTextDelta, TextDelta: w}) != nil {
				return
			}
		}
		sb.Add(&chatx.Event{
			Type:         chatx.EventFinish,
			Text:         text,
			Usage:        m.usage(req, text),
			FinishReason: "stop",
		})
		sb.Done()
	}()
	return sb.Stream(), nil
}
