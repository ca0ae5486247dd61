package interactions

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

const (
	STATUS_COMMAND  = "status"
	PAUSE_COMMAND   = "pause"
	RESUME_COMMAND  = "resume"
	RESYNC_COMMAND  = "resync"
	HOLIDAY_COMMAND = "holiday"
	MARK_COMMAND    = "mark"
	EXCUSE_COMMAND  = "excuse"
)

func InteractionList() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        STATUS_COMMAND,
			Description: "Show the current classroom camera overview",
		}, {
			Name:        PAUSE_COMMAND,
			Description: "Pause camera and absence alerts (tracking continues)",
		}, {
			Name:        RESUME_COMMAND,
			Description: "Resume camera and absence alerts",
		}, {
			Name:        RESYNC_COMMAND,
			Description: "Rebuild presence state from chat history",
		}, {
			Name:        HOLIDAY_COMMAND,
			Description: "Manage no-class days",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "action",
					Description: "What to do",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "add", Value: "add"},
						{Name: "remove", Value: "remove"},
						{Name: "list", Value: "list"},
					},
				},
				{
					Name:        "date",
					Description: "Date in YYYY-MM-DD (required for add/remove)",
					Type:        discordgo.ApplicationCommandOptionString,
				},
			},
		}, {
			Name:        MARK_COMMAND,
			Description: "Set a participant's status so alerts stay quiet",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "name",
					Description: "Participant's registered name",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
				{
					Name:        "status",
					Description: "Status to apply",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "late", Value: "late"},
						{Name: "stepped out", Value: "leave"},
						{Name: "early leave", Value: "early_leave"},
						{Name: "vacation", Value: "vacation"},
						{Name: "absent", Value: "absence"},
						{Name: "clear", Value: "clear"},
					},
				},
				{
					Name:        "until",
					Description: "Auto-clear date in YYYY-MM-DD (default: today)",
					Type:        discordgo.ApplicationCommandOptionString,
				},
			},
		}, {
			Name:        EXCUSE_COMMAND,
			Description: "Acknowledge a participant's step-out so reminders go to them",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "name",
					Description: "Participant's registered name",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
				{
					Name:        "kind",
					Description: "Kind of absence",
					Type:        discordgo.ApplicationCommandOptionString,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "stepped out", Value: "out"},
						{Name: "leaving early", Value: "early_leave"},
					},
				},
			},
		},
	}
}

type optionMap = map[string]*discordgo.ApplicationCommandInteractionDataOption

func ParseOptions(options []*discordgo.ApplicationCommandInteractionDataOption) optionMap {
	om := make(optionMap)
	for _, opt := range options {
		om[opt.Name] = opt
	}
	return om
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
	if err != nil {
		log.Printf("could not respond to interaction: %s", err)
	}
}

func invoker(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}
