package discord

import (
	"context"
	"fmt"

	"catan-standings/internal/config"
	"catan-standings/internal/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const guildMembersPageSize = 1000

func NewSession(cfg *config.Config) (*discordgo.Session, error) {
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	s, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent | discordgo.IntentsGuildMembers
	s.State.TrackMembers = true
	return s, nil
}

// SessionMessenger implements Messenger and MemberSource on a live session.
type SessionMessenger struct {
	s *discordgo.Session
}

func NewSessionMessenger(s *discordgo.Session) *SessionMessenger {
	return &SessionMessenger{s: s}
}

func (m *SessionMessenger) Reply(channelID, messageID, content, imageURL string) (string, error) {
	send := &discordgo.MessageSend{
		Content:   content,
		Reference: &discordgo.MessageReference{MessageID: messageID, ChannelID: channelID},
	}
	if imageURL != "" {
		send.Embeds = []*discordgo.MessageEmbed{{Image: &discordgo.MessageEmbedImage{URL: imageURL}}}
	}
	sent, err := m.s.ChannelMessageSendComplex(channelID, send)
	if err != nil {
		return "", err
	}
	return sent.ID, nil
}

func (m *SessionMessenger) Send(channelID, content string) error {
	_, err := m.s.ChannelMessageSend(channelID, content)
	return err
}

func (m *SessionMessenger) React(channelID, messageID, emoji string) error {
	return m.s.MessageReactionAdd(channelID, messageID, emoji)
}

func (m *SessionMessenger) Delete(channelID, messageID string) error {
	return m.s.ChannelMessageDelete(channelID, messageID)
}

// Members lists guild members from the gateway state, asking the API when
// the state has none cached yet.
func (m *SessionMessenger) Members(guildID string) ([]domain.Member, error) {
	var members []*discordgo.Member
	if g, err := m.s.State.Guild(guildID); err == nil && len(g.Members) > 0 {
		members = g.Members
	} else {
		after := ""
		for {
			page, err := m.s.GuildMembers(guildID, after, guildMembersPageSize)
			if err != nil {
				return nil, fmt.Errorf("failed to list guild members: %w", err)
			}
			members = append(members, page...)
			if len(page) < guildMembersPageSize {
				break
			}
			after = page[len(page)-1].User.ID
		}
	}

	out := make([]domain.Member, 0, len(members))
	for _, mem := range members {
		if mem.User == nil {
			continue
		}
		out = append(out, domain.Member{
			ID:         mem.User.ID,
			Username:   mem.User.Username,
			GlobalName: mem.User.GlobalName,
			Nick:       mem.Nick,
		})
	}
	return out, nil
}

// Attach registers the message handler on the session.
func Attach(s *discordgo.Session, bot *Bot, logger zerolog.Logger) {
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		logger.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord session ready")
	})
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil {
			return
		}
		bot.OnMessage(context.Background(), Message{
			ID:             m.ID,
			ChannelID:      m.ChannelID,
			GuildID:        m.GuildID,
			AuthorID:       m.Author.ID,
			AuthorName:     m.Author.Username,
			AuthorIsBot:    m.Author.Bot,
			Content:        m.Content,
			HasAttachments: len(m.Attachments) > 0,
		})
	})
}
