// Package discord routes chat messages from the league channels into the
// submission pipeline and posts the results back.
package discord

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"catan-standings/internal/constants"
	"catan-standings/internal/domain"
	"catan-standings/internal/replay"
	"catan-standings/internal/service"

	"github.com/rs/zerolog"
)

const (
	replayHelpMessage = "Please post a properly formatted replay link by pressing 'Return to Map' on the top right of the end game screen. Then, press share button in the top-right to copy the replay link." +
		"\nIf you're on mobile, the share button is only visible with vertical orientation." +
		"\n\nPS: If you're having technical issues or the lobby for this game was created manually by a non-premium user, just disregard this warning; the standings team will handle your game manually."
	replayHelpImage = "https://i.imgur.com/qLWL6N8.png"

	missingLinkMessage = "Please include a replay link with your game results (in a new message).\nIn case you already did so in a previous message, you can ignore this warning."

	// chat messages are capped at 2000 characters
	maxErrorLength = 1900
)

// Messenger is the subset of the chat platform the bot talks to.
type Messenger interface {
	// Reply answers a message and returns the id of the reply.
	Reply(channelID, messageID, content, imageURL string) (string, error)
	Send(channelID, content string) error
	React(channelID, messageID, emoji string) error
	Delete(channelID, messageID string) error
}

type MemberSource interface {
	Members(guildID string) ([]domain.Member, error)
}

type Submitter interface {
	Submit(ctx context.Context, sub service.Submission) (*service.Result, error)
}

// Message is an incoming chat message.
type Message struct {
	ID             string
	ChannelID      string
	GuildID        string
	AuthorID       string
	AuthorName     string
	AuthorIsBot    bool
	Content        string
	HasAttachments bool
}

type Bot struct {
	chat           Messenger
	members        MemberSource
	submissions    Submitter
	channels       map[string]domain.Division
	errorChannelID string
	afterFunc      func(time.Duration, func())
	logger         zerolog.Logger

	mu      sync.Mutex
	naughty []string // most recent last
}

func NewBot(chat Messenger, members MemberSource, submissions Submitter, channels map[string]domain.Division, errorChannelID string, logger zerolog.Logger) *Bot {
	return &Bot{
		chat:           chat,
		members:        members,
		submissions:    submissions,
		channels:       channels,
		errorChannelID: errorChannelID,
		afterFunc:      func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		logger:         logger,
	}
}

// OnMessage handles a message and reports any failure to the error channel.
func (b *Bot) OnMessage(ctx context.Context, msg Message) {
	if err := b.handle(ctx, msg); err != nil {
		b.logger.Error().Err(err).Str("channel_id", msg.ChannelID).Str("message_id", msg.ID).Msg("failed to process message")
		b.reportError(err)
	}
}

func (b *Bot) handle(ctx context.Context, msg Message) error {
	div, ok := b.channels[msg.ChannelID]
	if !ok || msg.AuthorIsBot {
		return nil
	}

	if msg.Content == "ping" {
		_, err := b.chat.Reply(msg.ChannelID, msg.ID, "pong", "")
		return err
	}

	if strings.Contains(msg.Content, "gameId=") {
		return b.replyTemporarily(msg, replayHelpMessage, replayHelpImage)
	}

	// ordinary chat never reaches the member list
	if _, ok := replay.ExtractLink(msg.Content, div); !ok {
		return b.remindMissingLink(msg)
	}

	members, err := b.members.Members(msg.GuildID)
	if err != nil {
		// still worth submitting; names fall back to the roster text
		b.logger.Warn().Err(err).Str("guild_id", msg.GuildID).Msg("failed to list guild members")
	}

	res, err := b.submissions.Submit(ctx, service.Submission{
		Division: div,
		Content:  msg.Content,
		Members:  members,
		Author:   msg.AuthorName,
	})
	if errors.Is(err, domain.ErrNoReplayLink) {
		return b.remindMissingLink(msg)
	}
	if err != nil {
		return err
	}

	if err := b.chat.React(msg.ChannelID, msg.ID, constants.SubmitReaction); err != nil {
		b.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("failed to add reaction")
	}
	_, err = b.chat.Reply(msg.ChannelID, msg.ID, res.Message, "")
	return err
}

// remindMissingLink answers screenshots posted without a replay link.
// Plain text is left alone.
func (b *Bot) remindMissingLink(msg Message) error {
	if !msg.HasAttachments {
		return nil
	}
	content := missingLinkMessage
	if b.remember(msg.AuthorID) {
		content += " >:("
	}
	return b.replyTemporarily(msg, content, "")
}

func (b *Bot) replyTemporarily(msg Message, content, imageURL string) error {
	replyID, err := b.chat.Reply(msg.ChannelID, msg.ID, content, imageURL)
	if err != nil {
		return err
	}
	b.afterFunc(constants.HelpMessageTTL, func() {
		if err := b.chat.Delete(msg.ChannelID, replyID); err != nil {
			b.logger.Warn().Err(err).Str("message_id", replyID).Msg("failed to delete help message")
		}
	})
	return nil
}

// remember reports whether the author was already reminded recently and
// records them otherwise. Only the last NaughtyListSize authors are kept.
func (b *Bot) remember(authorID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range b.naughty {
		if id == authorID {
			return true
		}
	}
	b.naughty = append(b.naughty, authorID)
	if len(b.naughty) > constants.NaughtyListSize {
		b.naughty = b.naughty[1:]
	}
	return false
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (b *Bot) reportError(err error) {
	if b.errorChannelID == "" {
		return
	}
	text := truncate("Error: "+err.Error(), maxErrorLength)
	if sendErr := b.chat.Send(b.errorChannelID, text); sendErr != nil {
		b.logger.Error().Err(sendErr).Msg("failed to report error")
	}
}
