package interactions

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/Baehyeonu/classwatch/internal/orchestrator"
)

func HandlePause(s *discordgo.Session, i *discordgo.InteractionCreate, o *orchestrator.Orchestrator) {
	log.Printf("%s: /pause", invoker(i))

	if !requireAdmin(s, i, o) {
		return
	}

	o.PauseAlerts()
	respond(s, i, "Alerts paused. Presence tracking continues; use /resume to turn alerts back on.")
}

func HandleResume(s *discordgo.Session, i *discordgo.InteractionCreate, o *orchestrator.Orchestrator) {
	log.Printf("%s: /resume", invoker(i))

	if !requireAdmin(s, i, o) {
		return
	}

	o.ResumeAlerts()
	respond(s, i, "Alerts resumed.")
}

func HandleResync(s *discordgo.Session, i *discordgo.InteractionCreate, o *orchestrator.Orchestrator) {
	log.Printf("%s: /resync", invoker(i))

	if !requireAdmin(s, i, o) {
		return
	}

	// History replay can take a while; acknowledge first and report when done.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Printf("could not defer interaction response: %s", err)
		return
	}

	content := "Presence state rebuilt from chat history."
	if err := o.Resync(context.Background()); err != nil {
		log.Printf("manual resync failed: %s", err)
		content = "Resync failed; chat history could not be fetched. Please try again."
	}

	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	if err != nil {
		log.Printf("could not edit interaction response: %s", err)
	}
}

// requireAdmin gates the operational commands. The check fails open when the
// admin roster cannot be loaded so a database hiccup never locks everyone
// out.
func requireAdmin(s *discordgo.Session, i *discordgo.InteractionCreate, o *orchestrator.Orchestrator) bool {
	user := invoker(i)
	if user == nil {
		return false
	}
	if o.IsAdminHandle(context.Background(), user.ID) {
		return true
	}
	respond(s, i, "Sorry, this command is limited to class administrators.")
	return false
}
