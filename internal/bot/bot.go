package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Baehyeonu/classwatch/internal/bot/interactions"
	"github.com/Baehyeonu/classwatch/internal/orchestrator"
)

type Config struct {
	BotToken       string
	AppID          string
	AdminChannelID string // escalation target; empty falls back to admin DMs
	Orchestrator   *orchestrator.Orchestrator

	session *discordgo.Session
}

func Run(bc *Config) error {
	var err error
	bc.session, err = discordgo.New("Bot " + bc.BotToken)
	if err != nil {
		return fmt.Errorf("invalid bot parameters: %w", err)
	}

	bc.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			if i.Type == discordgo.InteractionMessageComponent {
				interactions.HandleResponseButton(s, i, bc.Orchestrator)
			}
			return
		}

		data := i.ApplicationCommandData()
		switch data.Name {
		case interactions.STATUS_COMMAND:
			interactions.HandleStatus(s, i, bc.Orchestrator)
		case interactions.PAUSE_COMMAND:
			interactions.HandlePause(s, i, bc.Orchestrator)
		case interactions.RESUME_COMMAND:
			interactions.HandleResume(s, i, bc.Orchestrator)
		case interactions.RESYNC_COMMAND:
			interactions.HandleResync(s, i, bc.Orchestrator)
		case interactions.HOLIDAY_COMMAND:
			interactions.HandleHoliday(s, i, bc.Orchestrator, interactions.ParseOptions(data.Options))
		case interactions.MARK_COMMAND:
			interactions.HandleMark(s, i, bc.Orchestrator, interactions.ParseOptions(data.Options))
		case interactions.EXCUSE_COMMAND:
			interactions.HandleExcuse(s, i, bc.Orchestrator, interactions.ParseOptions(data.Options))
		}
	})

	bc.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		log.Println("Logged in as", r.User.String())
	})

	_, err = bc.session.ApplicationCommandBulkOverwrite(bc.AppID, "", interactions.InteractionList())
	if err != nil {
		return fmt.Errorf("could not register bot commands: %w", err)
	}

	err = bc.session.Open()
	if err != nil {
		return fmt.Errorf("could not open bot session: %w", err)
	}

	if err = bc.session.UpdateCustomStatus("Watching classroom cameras"); err != nil {
		log.Printf("could not set custom status: %s", err)
	}

	notifyOfRestart(bc.session, bc.AdminChannelID)

	return nil
}

func Stop(bc *Config) error {
	if bc.session == nil {
		return nil
	}

	fmt.Print("Bot shutting down...")

	err := bc.session.Close()
	if err != nil {
		return fmt.Errorf("could not close session gracefully: %w", err)
	}

	fmt.Print("Done!\n")
	return nil
}

// NotifyParticipant DMs one participant, attaching response buttons so they
// can acknowledge without typing.
func (bc *Config) NotifyParticipant(_ context.Context, chatHandle, message string) error {
	if bc.session == nil {
		return fmt.Errorf("bot session not started")
	}

	channel, err := bc.session.UserChannelCreate(chatHandle)
	if err != nil {
		return fmt.Errorf("could not open DM with %s: %w", chatHandle, err)
	}

	_, err = bc.session.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Content:    message,
		Components: interactions.ResponseButtons(),
	})
	if err != nil {
		return fmt.Errorf("could not send DM to %s: %w", chatHandle, err)
	}
	return nil
}

// NotifyAdmins posts to the admin channel, falling back to individual DMs
// when no channel is configured.
func (bc *Config) NotifyAdmins(ctx context.Context, message string) error {
	if bc.session == nil {
		return fmt.Errorf("bot session not started")
	}

	if bc.AdminChannelID != "" {
		_, err := bc.session.ChannelMessageSendComplex(bc.AdminChannelID, &discordgo.MessageSend{
			Content: message,
			Flags:   discordgo.MessageFlagsSuppressNotifications,
		})
		if err != nil {
			return fmt.Errorf("could not post to admin channel: %w", err)
		}
		return nil
	}

	handles := bc.Orchestrator.AdminHandles(ctx)
	if len(handles) == 0 {
		return fmt.Errorf("no admin channel and no admin handles registered")
	}

	var firstErr error
	for _, handle := range handles {
		channel, err := bc.session.UserChannelCreate(handle)
		if err == nil {
			_, err = bc.session.ChannelMessageSend(channel.ID, message)
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not DM admin %s: %w", handle, err)
		}
	}
	return firstErr
}

// Sends a message to the admin channel noting the restart so alert gaps have
// an explanation.
func notifyOfRestart(s *discordgo.Session, adminChannelID string) {
	if adminChannelID == "" {
		return
	}

	_, err := s.ChannelMessageSendComplex(adminChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "Classwatch Restarted!",
			Description: "Camera monitoring is back up. Presence state is being rebuilt " +
				"from chat history, so the first minute may be quiet.\n\nRestarted at " +
				time.Now().Format("15:04:05") + ".",
		}},
		Flags: discordgo.MessageFlagsSuppressNotifications,
	})
	if err != nil {
		log.Printf("could not send restart message to admin channel: %s", err)
	}
}
