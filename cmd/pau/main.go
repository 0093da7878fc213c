package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pauhq/pau/internal/api"
	"github.com/pauhq/pau/internal/flow"
	"github.com/pauhq/pau/internal/genai"
	"github.com/pauhq/pau/internal/lockfile"
	"github.com/pauhq/pau/internal/messaging"
	"github.com/pauhq/pau/internal/models"
	"github.com/pauhq/pau/internal/store"
	"github.com/pauhq/pau/internal/util"
	"github.com/pauhq/pau/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for PAU state data
	DefaultStateDir = "/var/lib/pau"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "pau.db"
	// DefaultWhatsAppDBFileName is the default SQLite filename for the WhatsApp session store
	DefaultWhatsAppDBFileName = "whatsmeow.db"
	// TransportWhatsmeow connects to WhatsApp directly over the multi-device protocol
	TransportWhatsmeow = "whatsmeow"
	// TransportTwilio delivers WhatsApp messages through the Twilio REST API
	TransportTwilio = "twilio"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Guard the state directory against a second instance
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping PAU with configured modules")
	if err := run(ctx, flags); err != nil {
		slog.Error("PAU failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("PAU exited successfully")
}

// run wires the store, LLM client, conversation pipeline, channel
// dispatchers and HTTP surface, then serves until ctx is cancelled.
func run(ctx context.Context, flags Flags) error {
	st, err := openStore(flags)
	if err != nil {
		return err
	}
	defer st.Close()

	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.openaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.openaiModel))
	}
	llm, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return err
	}

	processor := flow.NewProcessor(
		st,
		flow.NewSlotExtractor(llm),
		flow.NewProfileMerger(st),
		flow.NewConversationEngine(flow.NewPromptBuilder(), flow.NewResponseGenerator(llm), flow.NewKeywordClassifier()),
	)

	waClient, err := registerWhatsAppDispatcher(ctx, processor, flags)
	if err != nil {
		return err
	}
	if waClient != nil {
		defer waClient.Disconnect()
	}
	registerInstagramDispatcher(processor, flags)
	registerEmailDispatcher(processor, flags)

	apiOpts := []api.Option{
		api.WithMetaVerifyToken(*flags.metaVerifyToken),
		api.WithInstagramSecret(*flags.instagramSecret),
		api.WithOutboundEmail(*flags.emailFrom),
	}
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(processor, apiOpts...)
	return server.Run(ctx)
}

// openStore picks the database backend from the DSN shape.
func openStore(flags Flags) (store.Store, error) {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
		return store.NewPostgresStore(store.WithPostgresDSN(*flags.dbDSN))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithSQLiteDSN(*flags.dbDSN))
}

// registerWhatsAppDispatcher wires the configured WhatsApp transport.
// With the whatsmeow transport it also starts the inbound consumer goroutine;
// the Twilio transport receives inbound traffic through the HTTP webhook.
func registerWhatsAppDispatcher(ctx context.Context, processor *flow.Processor, flags Flags) (*whatsapp.Client, error) {
	switch *flags.waTransport {
	case TransportTwilio:
		twilioClient, err := messaging.NewTwilioClient()
		if err != nil {
			return nil, err
		}
		processor.RegisterDispatcher(models.ChannelWhatsApp, messaging.NewTwilioDispatcher(twilioClient))
		slog.Info("WhatsApp channel configured", "transport", TransportTwilio)
		return nil, nil
	case TransportWhatsmeow, "":
		waOpts := []whatsapp.Option{whatsapp.WithDBDSN(*flags.waDBDSN)}
		if *flags.qrOutput != "" {
			waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
		}
		if *flags.numeric {
			waOpts = append(waOpts, whatsapp.WithNumericCode())
		}
		waClient, err := whatsapp.NewClient(waOpts...)
		if err != nil {
			return nil, err
		}
		processor.RegisterDispatcher(models.ChannelWhatsApp, messaging.NewWhatsAppDispatcher(waClient))
		go consumeWhatsAppMessages(ctx, waClient, processor)
		slog.Info("WhatsApp channel configured", "transport", TransportWhatsmeow)
		return waClient, nil
	default:
		slog.Warn("Unknown WhatsApp transport, channel disabled", "transport", *flags.waTransport)
		return nil, nil
	}
}

// consumeWhatsAppMessages feeds whatsmeow events into the conversation pipeline.
func consumeWhatsAppMessages(ctx context.Context, waClient *whatsapp.Client, processor *flow.Processor) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-waClient.Messages():
			if !ok {
				return
			}
			if err := processor.Process(ctx, msg); err != nil {
				slog.Error("main.consumeWhatsAppMessages: failed to process message", "error", err, "sender", msg.SenderID)
			}
		}
	}
}

func registerInstagramDispatcher(processor *flow.Processor, flags Flags) {
	if *flags.instagramToken == "" {
		slog.Debug("No Instagram access token configured, Instagram channel disabled")
		return
	}
	igClient, err := messaging.NewInstagramClient(messaging.WithAccessToken(*flags.instagramToken))
	if err != nil {
		slog.Warn("Failed to configure Instagram channel", "error", err)
		return
	}
	processor.RegisterDispatcher(models.ChannelInstagram, messaging.NewInstagramDispatcher(igClient))
	slog.Info("Instagram channel configured")
}

func registerEmailDispatcher(processor *flow.Processor, flags Flags) {
	if *flags.sendgridKey == "" {
		slog.Debug("No SendGrid API key configured, email channel disabled")
		return
	}
	emailOpts := []messaging.EmailOption{messaging.WithSendGridAPIKey(*flags.sendgridKey)}
	if *flags.emailFrom != "" {
		emailOpts = append(emailOpts, messaging.WithFromEmail(*flags.emailFrom))
	}
	sender, err := messaging.NewSendGridSender(emailOpts...)
	if err != nil {
		slog.Warn("Failed to configure email channel", "error", err)
		return
	}
	processor.RegisterDispatcher(models.ChannelEmail, messaging.NewEmailDispatcher(sender))
	slog.Info("Email channel configured")
}

// Config holds environment configuration
type Config struct {
	DatabaseDSN     string
	WhatsAppDSN     string
	WhatsAppMode    string
	StateDir        string
	OpenAIKey       string
	OpenAIModel     string
	APIAddr         string
	MetaVerifyToken string
	InstagramToken  string
	InstagramSecret string
	SendGridKey     string
	EmailFrom       string
}

// Flags holds command line flag values
type Flags struct {
	qrOutput        *string
	numeric         *bool
	stateDir        *string
	dbDSN           *string
	waDBDSN         *string
	waTransport     *string
	openaiKey       *string
	openaiModel     *string
	apiAddr         *string
	metaVerifyToken *string
	instagramToken  *string
	instagramSecret *string
	sendgridKey     *string
	emailFrom       *string
}

// initializeLogger sets up structured logging; PAU_DEBUG raises verbosity
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("PAU_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseDSN:     os.Getenv("DATABASE_DSN"),
		WhatsAppDSN:     os.Getenv("WHATSAPP_DB_DSN"),
		WhatsAppMode:    os.Getenv("WHATSAPP_TRANSPORT"),
		StateDir:        os.Getenv("PAU_STATE_DIR"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     os.Getenv("OPENAI_MODEL"),
		APIAddr:         os.Getenv("API_ADDR"),
		MetaVerifyToken: os.Getenv("META_VERIFY_TOKEN"),
		InstagramToken:  os.Getenv("INSTAGRAM_ACCESS_TOKEN"),
		InstagramSecret: os.Getenv("INSTAGRAM_APP_SECRET"),
		SendGridKey:     os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:       os.Getenv("EMAIL_FROM"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No PAU_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// Default both databases to SQLite files in the state directory
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseDSN)
	}
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultWhatsAppDBFileName)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_DSN_SET", config.DatabaseDSN != "",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDSN != "",
		"WHATSAPP_TRANSPORT", config.WhatsAppMode,
		"PAU_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"META_VERIFY_TOKEN_SET", config.MetaVerifyToken != "",
		"INSTAGRAM_ACCESS_TOKEN_SET", config.InstagramToken != "",
		"SENDGRID_API_KEY_SET", config.SendGridKey != "",
		"EMAIL_FROM", config.EmailFrom)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qrOutput:        flag.String("qr-output", "", "path to write login QR code"),
		numeric:         flag.Bool("numeric-code", false, "use numeric login code instead of QR code"),
		stateDir:        flag.String("state-dir", config.StateDir, "state directory for PAU data (overrides $PAU_STATE_DIR)"),
		dbDSN:           flag.String("db-dsn", config.DatabaseDSN, "database DSN for the profile store (overrides $DATABASE_DSN)"),
		waDBDSN:         flag.String("whatsapp-db-dsn", config.WhatsAppDSN, "database DSN for the WhatsApp session store (overrides $WHATSAPP_DB_DSN)"),
		waTransport:     flag.String("whatsapp-transport", config.WhatsAppMode, "WhatsApp transport: whatsmeow or twilio (overrides $WHATSAPP_TRANSPORT)"),
		openaiKey:       flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel:     flag.String("openai-model", config.OpenAIModel, "OpenAI model name (overrides $OPENAI_MODEL)"),
		apiAddr:         flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		metaVerifyToken: flag.String("meta-verify-token", config.MetaVerifyToken, "Meta webhook verification token (overrides $META_VERIFY_TOKEN)"),
		instagramToken:  flag.String("instagram-access-token", config.InstagramToken, "Instagram Graph API access token (overrides $INSTAGRAM_ACCESS_TOKEN)"),
		instagramSecret: flag.String("instagram-app-secret", config.InstagramSecret, "Instagram app secret for webhook signatures (overrides $INSTAGRAM_APP_SECRET)"),
		sendgridKey:     flag.String("sendgrid-api-key", config.SendGridKey, "SendGrid API key (overrides $SENDGRID_API_KEY)"),
		emailFrom:       flag.String("email-from", config.EmailFrom, "outbound email address (overrides $EMAIL_FROM)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"qrOutput", *flags.qrOutput,
		"numeric", *flags.numeric,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"waTransport", *flags.waTransport,
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr)

	// Keep the default SQLite files inside the overridden state directory
	if *flags.stateDir != config.StateDir {
		if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) {
			*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		}
		if *flags.waDBDSN == filepath.Join(config.StateDir, DefaultWhatsAppDBFileName) {
			*flags.waDBDSN = filepath.Join(*flags.stateDir, DefaultWhatsAppDBFileName)
		}
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	dirs := []string{*flags.stateDir}
	for _, dsn := range []string{*flags.dbDSN, *flags.waDBDSN} {
		if !strings.Contains(dsn, "postgres://") && !strings.Contains(dsn, "host=") {
			dirs = append(dirs, filepath.Dir(dsn))
		}
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Error("Failed to create directory", "error", err, "dir", dir)
			return err
		}
	}
	return nil
}
