// Package effectors delivers the dialogue engine's replies to outbound chat
// surfaces.
package effectors

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"souschef/internal/dialogue"
	"souschef/internal/logging"
)

// DiscordEffector sends turn responses to Discord. It shares the session
// with the sense so the bot speaks through the same connection it listens on.
type DiscordEffector struct {
	session *discordgo.Session
}

// NewDiscordEffector creates a Discord effector over an open session.
func NewDiscordEffector(session *discordgo.Session) *DiscordEffector {
	return &DiscordEffector{session: session}
}

// Send delivers one turn response to the channel: the utterance, the step
// image if any, and the reply suggestions as a hint line.
func (e *DiscordEffector) Send(channelID string, resp dialogue.Response) error {
	content := buildContent(resp)
	if _, err := e.session.ChannelMessageSend(channelID, content); err != nil {
		return fmt.Errorf("failed to send to channel %s: %w", channelID, err)
	}
	logging.Debug("discord-effector", "Sent %d chars to %s", len(content), channelID)
	return nil
}

func buildContent(resp dialogue.Response) string {
	content := resp.Text
	if resp.Image != "" {
		content += "\n" + resp.Image
	}
	if len(resp.Suggestions) > 0 {
		content += fmt.Sprintf("\n*(you can say: %s)*", strings.Join(resp.Suggestions, ", "))
	}
	return content
}
