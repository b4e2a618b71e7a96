// Package senses connects inbound chat surfaces to the dialogue engine.
package senses

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"souschef/internal/dialogue"
	"souschef/internal/intent"
	"souschef/internal/logging"
)

// DiscordSense listens to Discord messages and turns them into recognized
// dialogue requests. The channel id doubles as the conversation key.
type DiscordSense struct {
	session   *discordgo.Session
	channelID string
	botID     string
	matcher   *intent.Matcher
	onRequest func(conversationID string, req dialogue.Request)
}

// DiscordConfig holds Discord connection settings.
type DiscordConfig struct {
	Token     string
	ChannelID string // restrict to one channel when set
}

// NewDiscordSense creates a Discord sense. Recognized requests are handed to
// onRequest keyed by channel.
func NewDiscordSense(cfg DiscordConfig, matcher *intent.Matcher, onRequest func(conversationID string, req dialogue.Request)) (*DiscordSense, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	sense := &DiscordSense{
		session:   session,
		channelID: cfg.ChannelID,
		matcher:   matcher,
		onRequest: onRequest,
	}

	session.AddHandler(sense.handleMessage)

	// We only need message content
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	return sense, nil
}

// Start connects to Discord and begins listening.
func (d *DiscordSense) Start() error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Bot's own user id, for self-filtering
	d.botID = d.session.State.User.ID
	logging.Info("discord-sense", "Connected as %s", d.session.State.User.Username)

	return nil
}

// Stop disconnects from Discord.
func (d *DiscordSense) Stop() error {
	return d.session.Close()
}

// Session returns the underlying Discord session (for sharing with the
// effector).
func (d *DiscordSense) Session() *discordgo.Session {
	return d.session
}

func (d *DiscordSense) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore messages from self
	if m.Author.ID == d.botID {
		return
	}

	// Only process messages from the configured channel (if set)
	if d.channelID != "" && m.ChannelID != d.channelID {
		return
	}

	req, ok := d.matcher.Match(m.Content)
	if !ok {
		// An unrecognized move fires no rules, which renders the
		// did-not-understand reply.
		logging.Debug("discord-sense", "No intent for: %s", logging.Truncate(m.Content, 50))
	} else {
		logging.Debug("discord-sense", "Intent %s for: %s", req.Move, logging.Truncate(m.Content, 50))
	}

	if d.onRequest != nil {
		d.onRequest(m.ChannelID, req)
	}
}
