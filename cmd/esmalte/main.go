// Package main provides the Esmalte CLI application entry point.
// Esmalte is an interactive nail-polish consultant chat for the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"esmalte/internal/logger"
	"esmalte/internal/services"
	"esmalte/internal/shell"
	"esmalte/internal/version"
)

var (
	logLevel string
	logFile  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "esmalte",
	Short: "Esmalte - sua consultora de esmaltes no terminal",
	Long: `Esmalte is an interactive chat assistant that recommends nail polish
colors and looks. Replies stream in with a typewriter effect and structured
suggestion cards; conversations are saved locally and, for signed-in users,
to the session store.`,
	Run: runShell, // Default behavior is to run the interactive chat
}

// chatCmd is the explicit version of the default behavior
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat",
	Run:   runShell,
}

// askCmd sends a single message and prints the reply, for scripting
var askCmd = &cobra.Command{
	Use:   "ask <mensagem>",
	Short: "Send one message and print the reply",
	Long: `Send a single message without entering interactive mode. The reply is
printed in full, without the typewriter effect, and the conversation is
persisted like any other turn.`,
	Args: cobra.ExactArgs(1),
	Run:  runAsk,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.GetFormattedVersion())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: warn]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")

	if err := viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-file flag: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := logger.Configure(logLevel, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wired application services.
type app struct {
	config    *services.Config
	chat      *services.ChatService
	auth      *services.AuthService
	store     *services.ConversationStore
	presenter *shell.Presenter
	sessions  *services.SQLiteSessionStore
}

// buildApp is the composition root: it loads configuration and wires every
// service explicitly.
func buildApp(interactive bool) (*app, error) {
	config, err := services.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	sessions, err := services.NewSQLiteSessionStore(config.SessionDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	local := services.NewLocalStore(config.HistoryPath())
	store := services.NewConversationStore(local, sessions, config.Strings.DefaultTitle)
	if err := store.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize conversation store: %w", err)
	}

	auth := services.NewAuthService(config.IdentityEndpoint, config.IdentityPath())
	if err := auth.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	factory := services.NewClientFactory(config)
	completion := services.NewCompletionService(factory, config)
	chat := services.NewChatService(completion, store, auth, config.Strings.Apology)
	presenter := shell.NewPresenter(os.Stdout, config, interactive)

	return &app{
		config:    config,
		chat:      chat,
		auth:      auth,
		store:     store,
		presenter: presenter,
		sessions:  sessions,
	}, nil
}

func (a *app) close() {
	if err := a.sessions.Close(); err != nil {
		logger.Warn("Failed to close session store", "error", err)
	}
}

func runShell(_ *cobra.Command, _ []string) {
	logger.Info("Starting Esmalte", "version", version.GetVersion())

	a, err := buildApp(true)
	if err != nil {
		logger.Fatal("Failed to start", "error", err)
	}
	defer a.close()

	// Pick up where the last anonymous conversation left off.
	a.chat.RestoreLocal()

	sh := shell.New(a.chat, a.auth, a.store, a.config, a.presenter)
	sh.Run()
}

func runAsk(_ *cobra.Command, args []string) {
	a, err := buildApp(false)
	if err != nil {
		logger.Fatal("Failed to start", "error", err)
	}
	defer a.close()

	a.chat.RestoreLocal()

	reply, err := a.chat.SendMessage(context.Background(), args[0])
	if err != nil {
		logger.Fatal("Failed to send message", "error", err)
	}
	a.presenter.ShowAssistantMessage(reply, false)
}
