// Boilerplate for initializing the program
package application

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/oklog/run"

	"github.com/Baehyeonu/classwatch/internal/bot"
	"github.com/Baehyeonu/classwatch/internal/config"
	"github.com/Baehyeonu/classwatch/internal/directory"
	"github.com/Baehyeonu/classwatch/internal/engine"
	"github.com/Baehyeonu/classwatch/internal/ingest"
	"github.com/Baehyeonu/classwatch/internal/orchestrator"
	"github.com/Baehyeonu/classwatch/internal/schedule"
	"github.com/Baehyeonu/classwatch/internal/server"
	"github.com/Baehyeonu/classwatch/internal/store"
	"github.com/Baehyeonu/classwatch/internal/transport"
	"github.com/Baehyeonu/classwatch/internal/types"
)

const (
	appVersion    = "1.0"
	fatalErrorMsg = "\nfatal: %v\n\nA fatal error occurred. Classwatch shut down.\n"
	separator     = "\n——————————————————————————————————————\n\n"
)

func Initialize(devMode bool) {
	fmt.Print(
		"\n(/◕ヮ◕)/ 📷\n",
		"Hi, welcome to Classwatch v"+appVersion+"!\n",
	)

	app, err := setup(devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, fatalErrorMsg, err)
		os.Exit(1)
	}

	if err = app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, fatalErrorMsg, err)
		os.Exit(1)
	}

	fmt.Println("See you later! o/")
}

type app struct {
	settings  *config.Settings
	st        *store.Store
	orc       *orchestrator.Orchestrator
	eng       *engine.Engine
	botConfig *bot.Config
	source    *transport.Slack
}

func setup(dev bool) (*app, error) {
	devMode := flag.Bool("dev", dev, "run the program in development mode")
	envPath := flag.String("envFile", "", "program will load environment variables from the file at this path if provided")
	apiPort := flag.String("apiPort", ":12345", "port at which the dashboard API will listen")
	dbPathFlag := flag.String("dbPath", "./.classwatch-db.sqlite3", "preferred location of the database file")
	settingsPath := flag.String("settingsPath", "./.classwatch-settings.json", "location of the persisted settings file")
	holidaysPath := flag.String("holidaysPath", "./.classwatch-holidays.json", "location of the manual holidays file")
	flag.Parse()

	fmt.Println(separator + "Starting setup...\n\nLoading environment variables")

	if *envPath != "" {
		fmt.Println(
			"Loading variables from",
			*envPath,
			"— note that these will not override any existing environment variables",
		)
		if err := godotenv.Load(*envPath); err != nil {
			return nil, errors.New("could not load .env file at provided path")
		}
	} else {
		fmt.Println("note: no .env file provided")
	}

	if *devMode {
		fmt.Print(
			"\nStarting in DEVELOPMENT mode:\n",
			"\t- Chat API traffic is logged verbosely\n",
			"\t- Alerts still send for real — use a test server\n",
		)
	}

	values, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("could not load configuration: %w", err)
	}
	if err = config.LoadPersisted(&values, *settingsPath); err != nil {
		return nil, fmt.Errorf("could not load persisted settings: %w", err)
	}
	settings := config.NewSettings(values, *settingsPath)

	botToken := os.Getenv("DISCORD_BOT_TOKEN")
	appID := os.Getenv("DISCORD_APP_ID")
	chatBotToken := os.Getenv("SLACK_BOT_TOKEN")
	chatAppToken := os.Getenv("SLACK_APP_TOKEN")
	channelID := os.Getenv("SLACK_CHANNEL_ID")
	if botToken == "" || appID == "" || chatBotToken == "" || chatAppToken == "" || channelID == "" {
		return nil, errors.New(
			"required variables DISCORD_BOT_TOKEN, DISCORD_APP_ID, SLACK_BOT_TOKEN, " +
				"SLACK_APP_TOKEN, and/or SLACK_CHANNEL_ID missing from environment",
		)
	}

	dbPath := filepath.Clean(*dbPathFlag)
	fmt.Println("\nInitializing database at", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not initialize database: %w", err)
	}

	holidays, err := schedule.NewHolidayCalendar(*holidaysPath)
	if err != nil {
		return nil, fmt.Errorf("could not load holiday calendar: %w", err)
	}

	dir := directory.New(st)
	gate := schedule.NewGate(settings, holidays)
	joined := types.NewJoinedSet()
	dedup := types.NewDedupLedger()
	listeners := orchestrator.NewListeners()

	ing := ingest.NewIngestor(dir, settings, joined, dedup, listeners)

	botConfig := &bot.Config{
		BotToken:       botToken,
		AppID:          appID,
		AdminChannelID: os.Getenv("DISCORD_ADMIN_CHANNEL_ID"),
	}

	eng := engine.New(dir, settings, gate, joined, dedup, ing, botConfig, listeners)

	source := transport.New(chatBotToken, chatAppToken, channelID, func(text string, ts time.Time) {
		ing.HandleMessage(context.Background(), text, ts)
	}, *devMode)

	rec := ingest.NewReconciler(ing, source, eng.ResetAt)
	orc := orchestrator.New(dir, settings, gate, holidays, joined, ing, rec, eng, listeners)
	botConfig.Orchestrator = orc

	server.Port = *apiPort

	fmt.Println("\nSetup complete! Time to get the party started!")
	fmt.Print(separator)

	return &app{
		settings:  settings,
		st:        st,
		orc:       orc,
		eng:       eng,
		botConfig: botConfig,
		source:    source,
	}, nil
}

// Run starts every actor and blocks until the first one exits or a signal
// arrives.
func (a *app) Run() error {
	if err := bot.Run(a.botConfig); err != nil {
		return err
	}

	// Presence state rebuilds before the live actors start so the first
	// engine tick sees today's class, not an empty room.
	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	a.eng.StartupReset(startCtx, time.Now())
	if err := a.orc.Resync(startCtx); err != nil {
		log.Println("WARN: initial history sync failed, continuing with live data only:", err)
	}
	cancelStart()

	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)

	g := run.Group{}

	g.Add(func() error {
		<-osSignal
		return nil
	}, func(error) {
		close(osSignal)
		if err := bot.Stop(a.botConfig); err != nil {
			log.Println(err)
		}
	})

	socketCtx, cancelSocket := context.WithCancel(context.Background())
	g.Add(func() error { return a.source.Run(socketCtx) }, func(error) {
		cancelSocket()
	})

	g.Add(func() error { return server.Start(a.orc) }, func(error) {
		if err := server.Stop(); err != nil {
			log.Println(err)
		}
	})

	engineStop := make(chan struct{})
	g.Add(func() error { return a.eng.Run(engineStop) }, func(error) {
		close(engineStop)
	})

	pollStop := make(chan struct{})
	g.Add(func() error { return a.runPollers(pollStop) }, func(error) {
		close(pollStop)
	})

	defer a.st.Close()

	return g.Run()
}

// runPollers drives the recent-message poll, the periodic full resync, and
// the dashboard snapshot push on their own cadences.
func (a *app) runPollers(stop <-chan struct{}) error {
	v := a.settings.Current()

	recent := time.NewTicker(v.RecentPollInterval)
	defer recent.Stop()
	resync := time.NewTicker(v.FullResyncInterval)
	defer resync.Stop()
	dashboard := time.NewTicker(v.DashboardInterval)
	defer dashboard.Stop()

	ctx := context.Background()
	for {
		select {
		case <-stop:
			return nil
		case <-recent.C:
			if err := a.orc.PollRecent(ctx); err != nil {
				log.Println("WARN: recent message poll failed:", err)
			}
		case <-resync.C:
			if err := a.orc.Resync(ctx); err != nil {
				log.Println("WARN: periodic resync failed:", err)
			}
		case now := <-dashboard.C:
			a.orc.PublishSnapshot(ctx, now)
		}
	}
}
