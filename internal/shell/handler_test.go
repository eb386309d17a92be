package shell

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esmalte/internal/services"
	"esmalte/pkg/esmaltetypes"
)

type shellFixture struct {
	shell  *Shell
	out    *strings.Builder
	auth   *services.MockIdentityProvider
	remote esmaltetypes.SessionStore
	llm    *services.MockLLMClient
}

func newShellFixture(t *testing.T) *shellFixture {
	t.Helper()

	config := &services.Config{
		Provider:           "groq",
		Model:              services.DefaultModel,
		Temperature:        services.DefaultTemperature,
		TypewriterInterval: time.Microsecond,
		Strings: services.Strings{
			SystemPrompt:     "preambulo",
			Apology:          "Desculpe, ocorreu um erro.",
			DefaultTitle:     "Nova conversa",
			SuggestionsLabel: "Sugestões:",
		},
	}

	remote, err := services.NewSQLiteSessionStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = remote.Close() })

	local := services.NewLocalStore(filepath.Join(t.TempDir(), "history.json"))
	store := services.NewConversationStore(local, remote, config.Strings.DefaultTitle)
	require.NoError(t, store.Initialize())

	auth := &services.MockIdentityProvider{}
	llm := &services.MockLLMClient{Response: "resposta simples"}
	chat := services.NewChatService(services.NewCompletionServiceWithClient(llm, config), store, auth, config.Strings.Apology)

	out := &strings.Builder{}
	presenter := NewPresenter(out, config, false)

	return &shellFixture{
		shell:  New(chat, auth, store, config, presenter),
		out:    out,
		auth:   auth,
		remote: remote,
		llm:    llm,
	}
}

func TestHandleLine_ChatMessage(t *testing.T) {
	f := newShellFixture(t)

	f.shell.handleLine("quero um esmalte coral")

	assert.Contains(t, f.out.String(), "resposta simples")
	assert.Len(t, f.shell.chat.Messages(), 2)
}

func TestHandleLine_BlankInputIgnored(t *testing.T) {
	f := newShellFixture(t)

	f.shell.handleLine("   ")

	assert.Empty(t, f.out.String())
	assert.False(t, f.shell.chat.HasMessages())
}

func TestHandleLine_UnknownCommand(t *testing.T) {
	f := newShellFixture(t)

	f.shell.handleLine("\\frobnicate")

	assert.Contains(t, f.out.String(), "comando desconhecido")
	assert.False(t, f.shell.chat.HasMessages())
}

func TestHandleLine_Help(t *testing.T) {
	f := newShellFixture(t)

	f.shell.handleLine("\\help")

	output := f.out.String()
	for _, cmd := range []string{"\\login", "\\sessions", "\\load", "\\copy", "\\exit"} {
		assert.Contains(t, output, cmd)
	}
}

func TestHandleLine_WhoamiAnonymous(t *testing.T) {
	f := newShellFixture(t)

	f.shell.handleLine("\\whoami")

	assert.Contains(t, f.out.String(), "anônimo")
}

func TestHandleLine_WhoamiSignedIn(t *testing.T) {
	f := newShellFixture(t)
	f.auth.Identity = &esmaltetypes.Identity{ID: "user-1", Email: "ana@example.com", DisplayName: "Ana"}

	f.shell.handleLine("\\whoami")

	assert.Contains(t, f.out.String(), "Ana <ana@example.com>")
}

func TestHandleLine_SessionsRequireLogin(t *testing.T) {
	f := newShellFixture(t)

	f.shell.handleLine("\\sessions")

	assert.Contains(t, f.out.String(), "\\login")
}

func TestHandleLine_SessionsListAndLoadByNumber(t *testing.T) {
	f := newShellFixture(t)
	f.auth.Identity = &esmaltetypes.Identity{ID: "user-1", Email: "ana@example.com"}
	ctx := context.Background()

	_, err := f.remote.CreateSession(ctx, "user-1", "Conversa antiga", []esmaltetypes.ChatMessage{
		{Role: esmaltetypes.RoleUser, Content: "oi", Timestamp: time.Now().UTC()},
		{Role: esmaltetypes.RoleAssistant, Content: "olá de novo", Timestamp: time.Now().UTC()},
	})
	require.NoError(t, err)

	f.shell.handleLine("\\sessions")
	assert.Contains(t, f.out.String(), "Conversa antiga")
	require.Len(t, f.shell.sessionList, 1)

	f.out.Reset()
	f.shell.handleLine("\\load 1")
	assert.Contains(t, f.out.String(), "olá de novo")
	assert.Len(t, f.shell.chat.Messages(), 2)

	// Loaded messages are stable: nothing should re-animate.
	assert.Equal(t, 1, f.shell.chat.LastStableIndex())
}

func TestHandleLine_LoadMissingSession(t *testing.T) {
	f := newShellFixture(t)

	f.shell.handleLine("\\load nope")

	assert.Contains(t, f.out.String(), "não encontrada")
}

func TestHandleLine_LoadForeignSession(t *testing.T) {
	f := newShellFixture(t)
	f.auth.Identity = &esmaltetypes.Identity{ID: "user-1", Email: "ana@example.com"}
	ctx := context.Background()

	id, err := f.remote.CreateSession(ctx, "user-2", "De outra pessoa", []esmaltetypes.ChatMessage{
		{Role: esmaltetypes.RoleUser, Content: "oi", Timestamp: time.Now().UTC()},
	})
	require.NoError(t, err)

	f.shell.handleLine("\\load " + id)

	assert.Contains(t, f.out.String(), "não encontrada")
	assert.False(t, f.shell.chat.HasMessages())
}

func TestHandleLine_LoadUsage(t *testing.T) {
	f := newShellFixture(t)

	f.shell.handleLine("\\load")
	assert.Contains(t, f.out.String(), "uso:")

	f.out.Reset()
	f.shell.handleLine("\\load 7")
	assert.Contains(t, f.out.String(), "uso:")
}

func TestHandleLine_DeleteByNumber(t *testing.T) {
	f := newShellFixture(t)
	f.auth.Identity = &esmaltetypes.Identity{ID: "user-1", Email: "ana@example.com"}
	ctx := context.Background()

	id, err := f.remote.CreateSession(ctx, "user-1", "Para excluir", []esmaltetypes.ChatMessage{
		{Role: esmaltetypes.RoleUser, Content: "oi", Timestamp: time.Now().UTC()},
	})
	require.NoError(t, err)

	f.shell.handleLine("\\sessions")
	f.out.Reset()
	f.shell.handleLine("\\delete 1")
	assert.Contains(t, f.out.String(), "excluída")

	session, err := f.remote.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestHandleLine_NewAndClear(t *testing.T) {
	f := newShellFixture(t)

	f.shell.handleLine("oi")
	require.True(t, f.shell.chat.HasMessages())

	f.out.Reset()
	f.shell.handleLine("\\new")
	assert.Contains(t, f.out.String(), "Nova conversa iniciada")
	assert.False(t, f.shell.chat.HasMessages())

	f.shell.handleLine("oi de novo")
	require.True(t, f.shell.chat.HasMessages())

	f.out.Reset()
	f.shell.handleLine("\\clear")
	assert.Contains(t, f.out.String(), "Histórico limpo")
	assert.False(t, f.shell.chat.HasMessages())
}

func TestHandleLine_LoginLogout(t *testing.T) {
	f := newShellFixture(t)
	f.auth.Identity = &esmaltetypes.Identity{ID: "user-1", Email: "ana@example.com", DisplayName: "Ana"}

	f.shell.handleLine("\\login algum-token")
	assert.Contains(t, f.out.String(), "Olá, Ana!")

	f.out.Reset()
	f.shell.handleLine("\\logout")
	assert.Contains(t, f.out.String(), "Sessão encerrada")
	assert.Nil(t, f.auth.Current())
}

func TestHandleLine_LoginRequiresToken(t *testing.T) {
	f := newShellFixture(t)

	f.shell.handleLine("\\login")

	assert.Contains(t, f.out.String(), "uso: \\login")
}

func TestHandleLine_CopyWithoutReply(t *testing.T) {
	f := newShellFixture(t)

	f.shell.handleLine("\\copy")

	assert.Contains(t, f.out.String(), "nenhuma resposta")
}

func TestClipboardText(t *testing.T) {
	raw := "<reasoning-container>Tons quentes combinam.</reasoning-container>" +
		"<suggestion-container><item>Vermelho cereja</item><item>Coral</item></suggestion-container>"

	got := clipboardText(raw, "Sugestões:")

	assert.Equal(t, "Tons quentes combinam.\n\nSugestões:\n- Vermelho cereja\n- Coral", got)
}

func TestClipboardText_PlainReply(t *testing.T) {
	assert.Equal(t, "sem tags", clipboardText("sem tags", "Sugestões:"))
}

func TestResolveSessionArg(t *testing.T) {
	f := newShellFixture(t)
	f.shell.sessionList = []esmaltetypes.ChatSession{{ID: "abc"}, {ID: "def"}}

	id, ok := f.shell.resolveSessionArg([]string{"2"})
	assert.True(t, ok)
	assert.Equal(t, "def", id)

	id, ok = f.shell.resolveSessionArg([]string{"literal-id"})
	assert.True(t, ok)
	assert.Equal(t, "literal-id", id)

	_, ok = f.shell.resolveSessionArg([]string{"0"})
	assert.False(t, ok)

	_, ok = f.shell.resolveSessionArg(nil)
	assert.False(t, ok)
}
