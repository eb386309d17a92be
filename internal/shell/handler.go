// Package shell provides the interactive chat interface for Esmalte. It
// routes user input between backslash commands and conversation turns, and
// drives the typewriter presentation of assistant replies.
package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell/v2"

	"esmalte/internal/logger"
	"esmalte/internal/parser"
	"esmalte/internal/reveal"
	"esmalte/internal/services"
	"esmalte/internal/version"
	"esmalte/pkg/esmaltetypes"
)

// Shell wires the chat, auth and storage services to the interactive prompt.
type Shell struct {
	chat      *services.ChatService
	auth      esmaltetypes.IdentityProvider
	store     *services.ConversationStore
	config    *services.Config
	presenter *Presenter

	sh *ishell.Shell

	// sessionList holds the last \sessions listing so \load and \delete
	// accept positional numbers.
	sessionList []esmaltetypes.ChatSession
}

// New creates a Shell over the given services.
func New(chat *services.ChatService, auth esmaltetypes.IdentityProvider, store *services.ConversationStore, config *services.Config, presenter *Presenter) *Shell {
	return &Shell{
		chat:      chat,
		auth:      auth,
		store:     store,
		config:    config,
		presenter: presenter,
	}
}

// Run starts the interactive loop and blocks until the user exits.
func (s *Shell) Run() {
	sh := ishell.New()
	sh.SetPrompt("esmalte> ")

	// Remove built-in commands so everything funnels through ProcessInput.
	sh.DeleteCmd("exit")
	sh.DeleteCmd("help")
	sh.DeleteCmd("clear")

	sh.NotFound(s.ProcessInput)
	s.sh = sh

	s.presenter.ShowWelcome(s.config.Strings.Welcome)
	s.presenter.ShowConversation(s.chat.Messages(), s.chat.LastStableIndex())

	sh.Run()
}

// ProcessInput handles one line of user input from the interactive loop.
func (s *Shell) ProcessInput(c *ishell.Context) {
	if len(c.RawArgs) == 0 {
		return
	}
	s.handleLine(strings.Join(c.RawArgs, " "))
}

// handleLine routes one line of input: backslash commands are dispatched,
// anything else becomes a conversation turn.
func (s *Shell) handleLine(rawInput string) {
	rawInput = strings.TrimSpace(rawInput)
	if rawInput == "" {
		return
	}

	if strings.HasPrefix(rawInput, "\\") {
		fields := strings.Fields(rawInput)
		s.dispatchCommand(strings.TrimPrefix(fields[0], "\\"), fields[1:])
		return
	}

	s.sendChatMessage(rawInput)
}

func (s *Shell) dispatchCommand(name string, args []string) {
	ctx := context.Background()

	switch name {
	case "help":
		s.presenter.ShowHelp()
	case "exit", "quit":
		if s.sh != nil {
			s.sh.Stop()
		}
	case "version":
		s.presenter.ShowInfo(version.GetFormattedVersion())
	case "login":
		s.cmdLogin(ctx, args)
	case "logout":
		s.cmdLogout(ctx)
	case "whoami":
		s.cmdWhoami()
	case "new":
		s.cmdNew()
	case "sessions":
		s.cmdSessions(ctx)
	case "load":
		s.cmdLoad(ctx, args)
	case "delete":
		s.cmdDelete(ctx, args)
	case "clear":
		s.cmdClear()
	case "copy":
		s.cmdCopy()
	default:
		s.presenter.ShowError(fmt.Sprintf("comando desconhecido: \\%s (use \\help)", name))
	}
}

func (s *Shell) sendChatMessage(input string) {
	indicator := s.presenter.StartThinking()

	reply, err := s.chat.SendMessage(context.Background(), input)
	indicator.Stop()

	if err != nil {
		s.presenter.ShowError(err.Error())
		return
	}

	messages := s.chat.Messages()
	index := len(messages) - 1
	animate := reveal.ShouldAnimate(index, messages[index], s.chat.LastStableIndex())
	s.presenter.ShowAssistantMessage(reply, animate)
}

func (s *Shell) cmdLogin(ctx context.Context, args []string) {
	token := strings.Join(args, " ")
	if strings.TrimSpace(token) == "" {
		s.presenter.ShowError("uso: \\login <token>")
		return
	}

	identity, err := s.auth.SignIn(ctx, token)
	if err != nil {
		s.presenter.ShowError(fmt.Sprintf("falha no login: %v", err))
		return
	}
	s.presenter.ShowInfo(fmt.Sprintf("Olá, %s!", identityName(identity)))
}

func (s *Shell) cmdLogout(ctx context.Context) {
	if err := s.auth.SignOut(ctx); err != nil {
		s.presenter.ShowError(fmt.Sprintf("falha ao sair: %v", err))
		return
	}
	s.presenter.ShowInfo("Sessão encerrada.")
}

func (s *Shell) cmdWhoami() {
	identity := s.auth.Current()
	if identity == nil {
		s.presenter.ShowInfo("Você não está logada (modo anônimo).")
		return
	}
	s.presenter.ShowInfo(fmt.Sprintf("%s <%s>", identityName(identity), identity.Email))
}

func (s *Shell) cmdNew() {
	s.chat.StartNewChat()
	s.presenter.ShowInfo("Nova conversa iniciada.")
}

func (s *Shell) cmdSessions(ctx context.Context) {
	identity := s.auth.Current()
	if identity == nil {
		s.presenter.ShowError("faça \\login para ver suas conversas salvas")
		return
	}

	sessions, err := s.store.ListSessions(ctx, identity)
	if err != nil {
		s.presenter.ShowError(fmt.Sprintf("falha ao listar conversas: %v", err))
		return
	}
	if len(sessions) == 0 {
		s.presenter.ShowInfo("Nenhuma conversa salva.")
		s.sessionList = nil
		return
	}

	s.sessionList = sessions
	for i, session := range sessions {
		s.presenter.ShowInfo(fmt.Sprintf("%2d. %s  (%s)", i+1, session.Title, session.UpdatedAt.Format("2006-01-02 15:04")))
	}
}

func (s *Shell) cmdLoad(ctx context.Context, args []string) {
	id, ok := s.resolveSessionArg(args)
	if !ok {
		s.presenter.ShowError("uso: \\load <número|id> (\\sessions lista as conversas)")
		return
	}

	count, err := s.chat.LoadSession(ctx, id)
	if err != nil {
		s.presenter.ShowError(fmt.Sprintf("falha ao carregar conversa: %v", err))
		return
	}
	if count == 0 {
		s.presenter.ShowInfo("Conversa não encontrada.")
		return
	}

	logger.Debug("Loaded session", "session_id", id, "messages", count)
	s.presenter.ShowConversation(s.chat.Messages(), s.chat.LastStableIndex())
}

func (s *Shell) cmdDelete(ctx context.Context, args []string) {
	id, ok := s.resolveSessionArg(args)
	if !ok {
		s.presenter.ShowError("uso: \\delete <número|id>")
		return
	}

	if err := s.store.DeleteSession(ctx, id); err != nil {
		s.presenter.ShowError(fmt.Sprintf("falha ao excluir conversa: %v", err))
		return
	}
	s.sessionList = nil
	s.presenter.ShowInfo("Conversa excluída.")
}

func (s *Shell) cmdClear() {
	if err := s.chat.ClearHistory(); err != nil {
		s.presenter.ShowError(fmt.Sprintf("falha ao limpar histórico: %v", err))
		return
	}
	s.presenter.ShowInfo("Histórico limpo.")
}

func (s *Shell) cmdCopy() {
	messages := s.chat.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != esmaltetypes.RoleAssistant {
			continue
		}
		if err := copyToClipboard(clipboardText(messages[i].Content, s.config.Strings.SuggestionsLabel)); err != nil {
			s.presenter.ShowError(fmt.Sprintf("falha ao copiar: %v", err))
			return
		}
		s.presenter.ShowInfo("Última resposta copiada.")
		return
	}
	s.presenter.ShowError("nenhuma resposta para copiar")
}

// clipboardText is the plain-text rendition of an assistant reply: the
// reasoning followed by the suggestion items, without terminal styling.
func clipboardText(content, suggestionsLabel string) string {
	parsed := parser.ParseResponse(content)

	var b strings.Builder
	b.WriteString(parsed.Reasoning)
	if len(parsed.Suggestions) > 0 {
		b.WriteString("\n\n" + suggestionsLabel)
		for _, item := range parsed.Suggestions {
			b.WriteString("\n- " + item.Content)
		}
	}
	return b.String()
}

// resolveSessionArg turns a positional number from the last \sessions listing
// or a literal session id into a session id.
func (s *Shell) resolveSessionArg(args []string) (string, bool) {
	if len(args) != 1 {
		return "", false
	}
	arg := args[0]

	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(s.sessionList) {
			return "", false
		}
		return s.sessionList[n-1].ID, true
	}
	return arg, true
}

func identityName(identity *esmaltetypes.Identity) string {
	if identity.DisplayName != "" {
		return identity.DisplayName
	}
	return identity.Email
}
