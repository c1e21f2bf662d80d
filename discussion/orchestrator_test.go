package discussion

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/agent"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/core"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/internal/testutil"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/logging"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/memory"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/model"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/session"
)

type fixture struct {
	orch     *Orchestrator
	provider *testutil.ScriptedProvider
	sessions *session.FileStore
}

func newFixture(t *testing.T, steps ...testutil.Step) *fixture {
	t.Helper()

	dir := t.TempDir()
	sessions := session.NewFileStore(filepath.Join(dir, "sessions.json"), func(o *session.Options) {
		o.Logger = logging.NoOpLogger{}
	})
	memories := memory.NewFileStore(filepath.Join(dir, "memories.json"), func(o *memory.Options) {
		o.Logger = logging.NoOpLogger{}
	})

	provider := testutil.NewScriptedProvider(steps...)
	client := model.NewClient([]model.Provider{provider}, func(o *model.Options) {
		o.Logger = logging.NoOpLogger{}
	})

	registry, err := agent.NewRegistry(
		agent.Agent{Name: "Product Manager", Model: "gpt-test", Provider: agent.ProviderOpenAI, Instruction: "You are a product manager."},
		agent.Agent{Name: "Tech Lead", Model: "gpt-test", Provider: agent.ProviderOpenAI, Instruction: "You are a tech lead."},
	)
	require.NoError(t, err)

	orch := NewOrchestrator(registry, client, sessions, memories, func(o *Options) {
		o.Logger = logging.NoOpLogger{}
	})
	return &fixture{orch: orch, provider: provider, sessions: sessions}
}

func TestRun_TranscriptBounds(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.orch.Run(context.Background(), Request{
		Question: "Should we rewrite the billing system?",
		Rounds:   2,
		Agents:   []string{"Product Manager", "Tech Lead"},
	})
	require.NoError(t, err)
	assert.True(t, res.Completed)

	sess, err := fx.sessions.Get(res.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.True(t, sess.Discussion)
	assert.Contains(t, sess.Title, "Discussion: ")

	// Question plus rounds x agents contributions, nothing more.
	assert.Len(t, sess.Messages, 1+2*2)
	assert.Equal(t, res.TotalMessages, len(sess.Messages))

	for i, m := range sess.Messages[1:] {
		assert.Equal(t, core.RoleAgent, m.Role)
		wantRound := i/2 + 1
		assert.Equal(t, wantRound, m.Round)
	}
	assert.Equal(t, "Product Manager", sess.Messages[1].AgentName, "caller order within a round")
	assert.Equal(t, "Tech Lead", sess.Messages[2].AgentName)
}

func TestRun_DefaultsRounds(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.orch.Run(context.Background(), Request{
		Question: "q",
		Agents:   []string{"Product Manager", "Tech Lead"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1+DefaultRounds*2, res.TotalMessages)
}

func TestRun_Validation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	var verr *core.ValidationError

	_, err := fx.orch.Run(ctx, Request{Question: " ", Agents: []string{"Product Manager", "Tech Lead"}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "question", verr.Field)

	_, err = fx.orch.Run(ctx, Request{Question: "q", Agents: []string{"Product Manager"}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "agents", verr.Field)

	_, err = fx.orch.Run(ctx, Request{Question: "q", Agents: []string{"Product Manager", "Nobody"}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "agents", verr.Field)

	_, err = fx.orch.Run(ctx, Request{Question: "q", Agents: []string{"Tech Lead", "Tech Lead"}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "agents", verr.Field)

	assert.Equal(t, 0, fx.provider.CallCount(), "validation failures must not invoke the model")
}

func TestRun_FailingAgentIsSkipped(t *testing.T) {
	fx := newFixture(t,
		testutil.Step{Response: "PM view"},
		testutil.Step{Err: errors.New("upstream exploded")},
	)

	res, err := fx.orch.Run(context.Background(), Request{
		Question: "q",
		Rounds:   1,
		Agents:   []string{"Product Manager", "Tech Lead"},
	})
	require.NoError(t, err)
	assert.True(t, res.Completed)

	sess, err := fx.sessions.Get(res.SessionID)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2, "no placeholder for the failed agent")
	assert.Equal(t, "Product Manager", sess.Messages[1].AgentName)
}

func TestRun_EmptyResponseIsSkipped(t *testing.T) {
	fx := newFixture(t,
		testutil.Step{Response: "   \n"},
		testutil.Step{Response: "substantive view"},
	)

	res, err := fx.orch.Run(context.Background(), Request{
		Question: "q",
		Rounds:   1,
		Agents:   []string{"Product Manager", "Tech Lead"},
	})
	require.NoError(t, err)

	sess, err := fx.sessions.Get(res.SessionID)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "Tech Lead", sess.Messages[1].AgentName)
}

func TestRun_AllAgentsFailStillCompletes(t *testing.T) {
	boom := errors.New("boom")
	fx := newFixture(t,
		testutil.Step{Err: boom}, testutil.Step{Err: boom},
	)

	res, err := fx.orch.Run(context.Background(), Request{
		Question: "q",
		Rounds:   1,
		Agents:   []string{"Product Manager", "Tech Lead"},
	})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, 1, res.TotalMessages, "only the question survives")
}

func TestRun_HistoryReframedAsConversation(t *testing.T) {
	fx := newFixture(t,
		testutil.Step{Response: "PM round one"},
		testutil.Step{Response: "TL round one"},
	)

	_, err := fx.orch.Run(context.Background(), Request{
		Question: "should we ship?",
		Rounds:   1,
		Agents:   []string{"Product Manager", "Tech Lead"},
	})
	require.NoError(t, err)

	// Second call: system, question, PM pair, closing request.
	second := fx.provider.Requests[1]
	require.Len(t, second.Messages, 5)
	assert.Equal(t, model.ChatRoleSystem, second.Messages[0].Role)
	assert.Contains(t, second.Messages[1].Text(), "Discussion question: should we ship?")
	assert.Equal(t, model.ChatRoleUser, second.Messages[2].Role)
	assert.Contains(t, second.Messages[2].Text(), "Product Manager")
	assert.Equal(t, model.ChatRoleAssistant, second.Messages[3].Role)
	assert.Equal(t, "PM round one", second.Messages[3].Text())
	assert.Contains(t, second.Messages[4].Text(), "Tech Lead")
}

func TestRun_RoundFramingInSystemPrompt(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.orch.Run(context.Background(), Request{
		Question: "q",
		Rounds:   2,
		Agents:   []string{"Product Manager", "Tech Lead"},
	})
	require.NoError(t, err)

	third := fx.provider.Requests[2].Messages[0]
	require.Equal(t, model.ChatRoleSystem, third.Role)
	assert.Contains(t, third.Text(), "round 2 of 2")
	assert.Contains(t, third.Text(), "Product Manager, Tech Lead")
}

func TestRun_Summary(t *testing.T) {
	fx := newFixture(t,
		testutil.Step{Response: "PM view"},
		testutil.Step{Response: "TL view"},
		testutil.Step{Response: "## Summary\nEveryone agrees."},
	)

	res, err := fx.orch.Run(context.Background(), Request{
		Question:       "q",
		Rounds:         1,
		Agents:         []string{"Product Manager", "Tech Lead"},
		IncludeSummary: true,
	})
	require.NoError(t, err)

	sess, err := fx.sessions.Get(res.SessionID)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 4)

	last := sess.Messages[3]
	assert.Equal(t, core.RoleSummary, last.Role)
	assert.Equal(t, summaryAgentName, last.AgentName)
	assert.Contains(t, last.Text(), "Everyone agrees")

	// The synthesis call labels each contribution with agent and round.
	summaryReq := fx.provider.Requests[2]
	require.Len(t, summaryReq.Messages, 2)
	assert.Equal(t, summarizerInstruction, summaryReq.Messages[0].Text())
	assert.Contains(t, summaryReq.Messages[1].Text(), "[Product Manager] (round 1):")
	assert.Contains(t, summaryReq.Messages[1].Text(), "[Tech Lead] (round 1):")
}

func TestRun_SummaryFailureDoesNotFailTheRun(t *testing.T) {
	fx := newFixture(t,
		testutil.Step{Response: "PM view"},
		testutil.Step{Response: "TL view"},
		testutil.Step{Err: errors.New("summarizer down")},
	)

	res, err := fx.orch.Run(context.Background(), Request{
		Question:       "q",
		Rounds:         1,
		Agents:         []string{"Product Manager", "Tech Lead"},
		IncludeSummary: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, 3, res.TotalMessages, "question plus two contributions, no summary")
}
