package interactions

import (
	"context"
	"errors"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/Baehyeonu/classwatch/internal/orchestrator"
	"github.com/Baehyeonu/classwatch/internal/store"
)

// Component custom IDs for the buttons attached to participant DMs.
const (
	buttonReturning = "respond_returning"
	buttonExcused   = "respond_excused"
	buttonStillAway = "respond_still_away"
)

// ResponseButtons builds the action row attached to every participant DM.
func ResponseButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "곧 복귀해요",
					Style:    discordgo.PrimaryButton,
					CustomID: buttonReturning,
				},
				discordgo.Button{
					Label:    "자리 비움이에요",
					Style:    discordgo.SecondaryButton,
					CustomID: buttonExcused,
				},
				discordgo.Button{
					Label:    "아직 자리에 없어요",
					Style:    discordgo.SecondaryButton,
					CustomID: buttonStillAway,
				},
			},
		},
	}
}

// HandleResponseButton records which button a participant pressed in their
// alert DM.
func HandleResponseButton(s *discordgo.Session, i *discordgo.InteractionCreate, o *orchestrator.Orchestrator) {
	user := invoker(i)
	if user == nil {
		return
	}

	var status, reply string
	switch i.MessageComponentData().CustomID {
	case buttonReturning:
		status = orchestrator.ResponseReturning
		reply = "알겠어요! 복귀하시면 카메라를 켜주세요. 잠시 후 다시 확인할게요."
	case buttonExcused:
		status = orchestrator.ResponseExcused
		reply = "자리 비움으로 기록했어요. 복귀하시면 카메라를 켜주세요!"
	case buttonStillAway:
		status = orchestrator.ResponseStillAway
		reply = "알겠어요. 조금 뒤에 다시 안내드릴게요."
	default:
		return
	}

	ctx := context.Background()
	p, err := o.ParticipantByHandle(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("could not look up participant for response button: %s", err)
		}
		respond(s, i, "계정이 수강생 명단과 연결되어 있지 않아요. 관리자에게 문의해 주세요.")
		return
	}

	if err := o.RecordResponse(ctx, p.ID, status); err != nil {
		log.Printf("could not record response for %q: %s", p.DisplayName, err)
		respond(s, i, "응답을 기록하지 못했어요. 다시 시도해 주세요.")
		return
	}

	log.Printf("%s responded %q to an alert", p.DisplayName, status)
	respond(s, i, reply)
}
