package interactions

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Baehyeonu/classwatch/internal/orchestrator"
	"github.com/Baehyeonu/classwatch/internal/store"
	"github.com/Baehyeonu/classwatch/internal/types"
)

func HandleMark(s *discordgo.Session, i *discordgo.InteractionCreate, o *orchestrator.Orchestrator, opts optionMap) {
	name := opts["name"].StringValue()
	status := opts["status"].StringValue()
	log.Printf("%s: /mark %s %s", invoker(i), name, status)

	if !requireAdmin(s, i, o) {
		return
	}

	ctx := context.Background()
	p, err := o.ParticipantByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respond(s, i, "No participant is registered under the name \""+name+"\".")
			return
		}
		log.Printf("could not look up participant for /mark: %s", err)
		respond(s, i, "Something went wrong looking that participant up. Please try again.")
		return
	}

	if status == "clear" {
		if err := o.ClearStatus(ctx, p.ID); err != nil {
			log.Printf("could not clear status: %s", err)
			respond(s, i, "Something went wrong clearing the status. Please try again.")
			return
		}
		respond(s, i, p.DisplayName+"'s status has been cleared; alerts apply as usual.")
		return
	}

	autoReset := time.Now()
	if opt, ok := opts["until"]; ok {
		autoReset, err = time.Parse("2006-01-02", opt.StringValue())
		if err != nil {
			respond(s, i, "Could not read the until date. Please use YYYY-MM-DD.")
			return
		}
	}

	if err := o.SetStatus(ctx, p.ID, types.StatusKind(status), 0, autoReset); err != nil {
		log.Printf("could not set status: %s", err)
		respond(s, i, "Something went wrong setting the status. Please try again.")
		return
	}
	respond(s, i, p.DisplayName+" is marked \""+status+"\" through "+autoReset.Format("2006-01-02")+
		"; camera alerts stay quiet until then.")
}

func HandleExcuse(s *discordgo.Session, i *discordgo.InteractionCreate, o *orchestrator.Orchestrator, opts optionMap) {
	name := opts["name"].StringValue()
	log.Printf("%s: /excuse %s", invoker(i), name)

	if !requireAdmin(s, i, o) {
		return
	}

	kind := types.ExcusedOut
	if opt, ok := opts["kind"]; ok {
		kind = types.ExcusedKind(opt.StringValue())
	}

	ctx := context.Background()
	p, err := o.ParticipantByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respond(s, i, "No participant is registered under the name \""+name+"\".")
			return
		}
		log.Printf("could not look up participant for /excuse: %s", err)
		respond(s, i, "Something went wrong looking that participant up. Please try again.")
		return
	}

	if err := o.MarkExcused(ctx, p.ID, kind); err != nil {
		log.Printf("could not mark excused: %s", err)
		respond(s, i, "Something went wrong recording the step-out. Please try again.")
		return
	}
	respond(s, i, p.DisplayName+"'s step-out is acknowledged; they'll get gentle reminders instead of alerts.")
}
