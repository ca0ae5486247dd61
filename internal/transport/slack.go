// Package transport connects to the classroom's Slack workspace: a Socket
// Mode subscription for live chat messages and the conversations API for
// history backfill. It hands raw text and timestamps upward; parsing lives
// in the ingest layer.
package transport

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/Baehyeonu/classwatch/internal/ingest"
)

// historyPageSize is the per-request message limit for history pagination.
const historyPageSize = 200

// MessageHandler receives each live chat message from the watched channel.
type MessageHandler func(text string, ts time.Time)

type Slack struct {
	api       *slack.Client
	socket    *socketmode.Client
	channelID string
	handler   MessageHandler
}

func New(botToken, appToken, channelID string, handler MessageHandler, verbose bool) *Slack {
	api := slack.New(
		botToken,
		slack.OptionAppLevelToken(appToken),
		slack.OptionDebug(verbose),
	)
	return &Slack{
		api:       api,
		socket:    socketmode.New(api),
		channelID: channelID,
		handler:   handler,
	}
}

// Run pumps Socket Mode events until ctx is canceled. Messages outside the
// watched channel and edits/deletions are dropped at this layer.
func (s *Slack) Run(ctx context.Context) error {
	go func() {
		for evt := range s.socket.Events {
			switch evt.Type {
			case socketmode.EventTypeConnected:
				log.Println("connected to chat workspace")
			case socketmode.EventTypeConnectionError:
				log.Println("WARN: chat connection error, retrying")
			case socketmode.EventTypeEventsAPI:
				apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				if evt.Request != nil {
					s.socket.Ack(*evt.Request)
				}
				s.handleEvent(apiEvent)
			}
		}
	}()

	if err := s.socket.RunContext(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat socket closed: %w", err)
	}
	return nil
}

func (s *Slack) handleEvent(apiEvent slackevents.EventsAPIEvent) {
	if apiEvent.Type != slackevents.CallbackEvent {
		return
	}
	msg, ok := apiEvent.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		return
	}
	if msg.Channel != s.channelID {
		return
	}
	// Edits, deletions, thread broadcasts and the like never carry a
	// presence notification.
	if msg.SubType != "" && msg.SubType != "bot_message" {
		return
	}
	if msg.Text == "" {
		return
	}

	ts, err := ParseTimestamp(msg.TimeStamp)
	if err != nil {
		log.Printf("WARN: could not parse message timestamp %q: %s", msg.TimeStamp, err)
		return
	}
	s.handler(msg.Text, ts)
}

// FetchSince pages through channel history from oldest to now. Satisfies the
// reconciliation history source.
func (s *Slack) FetchSince(ctx context.Context, oldest time.Time) ([]ingest.RawMessage, error) {
	params := &slack.GetConversationHistoryParameters{
		ChannelID: s.channelID,
		Oldest:    FormatTimestamp(oldest),
		Limit:     historyPageSize,
	}

	var out []ingest.RawMessage
	for {
		resp, err := s.api.GetConversationHistoryContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("could not fetch channel history: %w", err)
		}

		for i := range resp.Messages {
			msg := &resp.Messages[i]
			if msg.Text == "" {
				continue
			}
			ts, err := ParseTimestamp(msg.Timestamp)
			if err != nil {
				continue
			}
			out = append(out, ingest.RawMessage{Text: msg.Text, Timestamp: ts})
		}

		cursor := resp.ResponseMetaData.NextCursor
		if !resp.HasMore || cursor == "" {
			return out, nil
		}
		params.Cursor = cursor
	}
}

// ParseTimestamp converts the wire format "1726130400.001200" (seconds with
// a fractional part) to a time.Time.
func ParseTimestamp(raw string) (time.Time, error) {
	whole, frac, _ := strings.Cut(raw, ".")
	secs, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
	}

	var nanos int64
	if frac != "" {
		// Right-pad to nanosecond precision.
		if len(frac) > 9 {
			frac = frac[:9]
		}
		n, err := strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
		}
		nanos = n
	}
	return time.Unix(secs, nanos), nil
}

// FormatTimestamp renders a time in the wire format expected by the history
// API's oldest/latest bounds.
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}
