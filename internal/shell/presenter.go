package shell

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"esmalte/internal/logger"
	"esmalte/internal/reveal"
	"esmalte/internal/services"
	"esmalte/pkg/esmaltetypes"
)

var (
	userStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("5")).
			Padding(0, 1)
)

// Presenter renders the conversation to the terminal. Live assistant replies
// are revealed character by character; historical messages print instantly.
type Presenter struct {
	out              io.Writer
	interval         time.Duration
	cardDelay        time.Duration
	suggestionsLabel string

	// interactive enables cursor control and the card stagger. Off for
	// non-terminal writers.
	interactive bool

	markdown *glamour.TermRenderer
}

// NewPresenter creates a Presenter writing to out.
func NewPresenter(out io.Writer, config *services.Config, interactive bool) *Presenter {
	return &Presenter{
		out:              out,
		interval:         config.TypewriterInterval,
		cardDelay:        services.CardDelay,
		suggestionsLabel: config.Strings.SuggestionsLabel,
		interactive:      interactive,
	}
}

// ShowWelcome renders the welcome markdown. A rendering failure falls back to
// the raw text.
func (p *Presenter) ShowWelcome(markdown string) {
	if strings.TrimSpace(markdown) == "" {
		return
	}
	rendered, err := p.renderMarkdown(markdown)
	if err != nil {
		logger.Debug("Markdown rendering failed, printing raw", "error", err)
		rendered = markdown + "\n"
	}
	fmt.Fprint(p.out, rendered)
}

func (p *Presenter) renderMarkdown(markdown string) (string, error) {
	if p.markdown == nil {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err != nil {
			return "", err
		}
		p.markdown = renderer
	}
	return p.markdown.Render(markdown)
}

// ShowHelp prints the command reference.
func (p *Presenter) ShowHelp() {
	help := []string{
		"\\login <token>   entra com seu token de acesso",
		"\\logout          sai da conta",
		"\\whoami          mostra quem está logada",
		"\\new             inicia uma nova conversa",
		"\\sessions        lista as conversas salvas",
		"\\load <n|id>     carrega uma conversa salva",
		"\\delete <n|id>   exclui uma conversa salva",
		"\\clear           limpa o histórico atual",
		"\\copy            copia a última resposta",
		"\\version         mostra a versão",
		"\\exit            sai do Esmalte",
	}
	fmt.Fprintln(p.out, strings.Join(help, "\n"))
}

// ShowInfo prints a plain informational line.
func (p *Presenter) ShowInfo(message string) {
	fmt.Fprintln(p.out, message)
}

// ShowError prints a styled error line.
func (p *Presenter) ShowError(message string) {
	fmt.Fprintln(p.out, errorStyle.Render(message))
}

// ShowUserMessage prints a user turn.
func (p *Presenter) ShowUserMessage(content string) {
	fmt.Fprintf(p.out, "%s %s\n", userStyle.Render("você:"), content)
}

// ShowConversation renders an entire conversation. Messages at or below
// lastStableIndex print instantly; later assistant messages animate.
func (p *Presenter) ShowConversation(messages []esmaltetypes.Message, lastStableIndex int) {
	for i, msg := range messages {
		switch msg.Role {
		case esmaltetypes.RoleUser:
			p.ShowUserMessage(msg.Content)
		case esmaltetypes.RoleAssistant:
			p.ShowAssistantMessage(msg.Content, reveal.ShouldAnimate(i, msg, lastStableIndex))
		}
	}
}

// ShowAssistantMessage renders one assistant reply. When animate is set the
// reasoning text appears one character at a time and the suggestion cards
// only after the text is fully revealed.
func (p *Presenter) ShowAssistantMessage(content string, animate bool) {
	var scheduler *reveal.Scheduler
	if animate {
		scheduler = reveal.NewScheduler(content)
		p.runTypewriter(scheduler)
	} else {
		scheduler = reveal.NewInstant(content)
		fmt.Fprint(p.out, scheduler.Snapshot().Text)
	}
	fmt.Fprintln(p.out)

	p.showSuggestions(scheduler.Snapshot().Suggestions)
}

// runTypewriter drives the reveal with a ticker, printing only the newly
// exposed runes on each tick. The generation token taken before the loop
// guards against ticks outliving a content swap.
func (p *Presenter) runTypewriter(scheduler *reveal.Scheduler) {
	generation := scheduler.Generation()

	term := p.terminal()
	if term != nil {
		term.HideCursor()
		defer term.ShowCursor()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	printed := 0
	for !scheduler.Done() {
		<-ticker.C
		if !scheduler.Tick(generation) {
			return
		}
		snap := scheduler.Snapshot()
		text := []rune(snap.Text)
		fmt.Fprint(p.out, string(text[printed:]))
		printed = len(text)
	}
}

func (p *Presenter) showSuggestions(suggestions []esmaltetypes.SuggestionItem) {
	if len(suggestions) == 0 {
		return
	}

	fmt.Fprintln(p.out, labelStyle.Render(p.suggestionsLabel))
	for _, item := range suggestions {
		if p.interactive && p.cardDelay > 0 {
			time.Sleep(p.cardDelay)
		}
		fmt.Fprintln(p.out, cardStyle.Render(item.Content))
	}
}
