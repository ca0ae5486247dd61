package interactions

import (
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Baehyeonu/classwatch/internal/orchestrator"
)

func HandleHoliday(s *discordgo.Session, i *discordgo.InteractionCreate, o *orchestrator.Orchestrator, opts optionMap) {
	action := opts["action"].StringValue()
	log.Printf("%s: /holiday %s", invoker(i), action)

	if !requireAdmin(s, i, o) {
		return
	}

	if action == "list" {
		dates := o.ManualHolidays()
		if len(dates) == 0 {
			respond(s, i, "No manual holidays are registered. National holidays apply automatically.")
			return
		}
		respond(s, i, "Manual holidays:\n- "+strings.Join(dates, "\n- "))
		return
	}

	opt, ok := opts["date"]
	if !ok {
		respond(s, i, "A date is required: /holiday "+action+" date:YYYY-MM-DD")
		return
	}
	date, err := time.Parse("2006-01-02", opt.StringValue())
	if err != nil {
		respond(s, i, "Could not read that date. Please use YYYY-MM-DD, e.g. 2026-09-15.")
		return
	}

	switch action {
	case "add":
		added, err := o.AddHoliday(date)
		if err != nil {
			log.Printf("could not add holiday: %s", err)
			respond(s, i, "Something went wrong saving that holiday. Please try again.")
			return
		}
		if !added {
			respond(s, i, date.Format("2006-01-02")+" is already registered as a holiday.")
			return
		}
		respond(s, i, "Registered "+date.Format("2006-01-02")+" as a no-class day. Alerts will stay quiet.")

	case "remove":
		removed, err := o.RemoveHoliday(date)
		if err != nil {
			log.Printf("could not remove holiday: %s", err)
			respond(s, i, "Something went wrong removing that holiday. Please try again.")
			return
		}
		if !removed {
			respond(s, i, date.Format("2006-01-02")+" was not a manually registered holiday.")
			return
		}
		respond(s, i, "Removed "+date.Format("2006-01-02")+" from the no-class days.")
	}
}
