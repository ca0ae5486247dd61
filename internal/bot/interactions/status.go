package interactions

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Baehyeonu/classwatch/internal/orchestrator"
)

func HandleStatus(s *discordgo.Session, i *discordgo.InteractionCreate, o *orchestrator.Orchestrator) {
	log.Printf("%s: /status", invoker(i))

	ctx := context.Background()
	now := time.Now()

	snap, err := o.Snapshot(ctx, now)
	if err != nil {
		log.Printf("could not build status snapshot: %s", err)
		respond(s, i, "Sorry, the overview isn't available right now. Please try again shortly.")
		return
	}

	gate := o.Schedule()
	scheduleLine := "Outside class hours"
	switch {
	case gate.IsWeekendOrHoliday(now):
		scheduleLine = "No class today"
	case gate.IsLunchTime(now):
		scheduleLine = "Lunch break"
	case gate.IsClassTime(now):
		scheduleLine = "Class in session"
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Title:       "Classroom Overview",
				Description: scheduleLine,
				Fields: []*discordgo.MessageEmbedField{
					{Name: "Active", Value: fmt.Sprint(snap.TotalActive), Inline: true},
					{Name: "📷 On", Value: fmt.Sprint(snap.CamerasOn), Inline: true},
					{Name: "📷 Off", Value: fmt.Sprint(snap.CamerasOff), Inline: true},
					{Name: "Left", Value: fmt.Sprint(snap.LeftCount), Inline: true},
					{Name: "Not joined", Value: fmt.Sprint(snap.NotJoinedCount), Inline: true},
					{Name: "Over threshold", Value: fmt.Sprint(snap.ThresholdExceeded), Inline: true},
				},
				Timestamp: now.Format(time.RFC3339),
			}},
		},
	})
	if err != nil {
		log.Printf("could not respond to interaction: %s", err)
	}
}
