package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meteogram/meteogram/internal/domain/agent"
	"github.com/meteogram/meteogram/internal/domain/approval"
	"github.com/meteogram/meteogram/internal/domain/chat"
	"github.com/meteogram/meteogram/internal/domain/conversation"
	"github.com/meteogram/meteogram/internal/domain/tool"
)

// MockProvider implements agent.Provider.
type MockProvider struct {
	CompleteFunc func(ctx context.Context, req agent.CompletionRequest) (*agent.CompletionResult, error)
	Requests     []agent.CompletionRequest
}

func (m *MockProvider) Complete(ctx context.Context, req agent.CompletionRequest) (*agent.CompletionResult, error) {
	m.Requests = append(m.Requests, req)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &agent.CompletionResult{Message: agent.ChatMessage{Role: agent.RoleAssistant, Content: "ok"}}, nil
}

// MockRepository implements conversation.Repository in memory.
type MockRepository struct {
	mu    sync.Mutex
	Turns []conversation.Turn
}

func (m *MockRepository) Append(ctx context.Context, turn *conversation.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Turns = append(m.Turns, *turn)
	return nil
}

func (m *MockRepository) AppendAll(ctx context.Context, turns []*conversation.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range turns {
		m.Turns = append(m.Turns, *t)
	}
	return nil
}

func (m *MockRepository) Load(ctx context.Context, chatID int64, limit int) ([]conversation.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []conversation.Turn
	for _, t := range m.Turns {
		if t.ChatID == chatID {
			out = append(out, t)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// MockStore implements approval.Store in memory with SetNX semantics.
type MockStore struct {
	mu      sync.Mutex
	Pending map[int64]*approval.PendingApproval
}

func NewMockStore() *MockStore {
	return &MockStore{Pending: make(map[int64]*approval.PendingApproval)}
}

func (m *MockStore) Set(ctx context.Context, pending *approval.PendingApproval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.Pending[pending.ChatID]; exists {
		return approval.ErrConflict
	}
	m.Pending[pending.ChatID] = pending
	return nil
}

func (m *MockStore) Get(ctx context.Context, chatID int64) (*approval.PendingApproval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pending, ok := m.Pending[chatID]
	if !ok {
		return nil, approval.ErrNotFound
	}
	return pending, nil
}

func (m *MockStore) Clear(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Pending, chatID)
	return nil
}

// MockResponder records outbound messages.
type MockResponder struct {
	mu           sync.Mutex
	Sent         []string
	Approvals    []string
	Acks         []string
	SendTextFunc func(ctx context.Context, chatID int64, text string) error
}

func (m *MockResponder) SendText(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, text)
	if m.SendTextFunc != nil {
		return m.SendTextFunc(ctx, chatID, text)
	}
	return nil
}

func (m *MockResponder) SendApprovalRequest(ctx context.Context, chatID int64, toolName string, args []byte, approvalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Approvals = append(m.Approvals, approvalID)
	return nil
}

func (m *MockResponder) AcknowledgeCallback(ctx context.Context, callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Acks = append(m.Acks, text)
	return nil
}

// MockFileResolver implements chat.FileResolver.
type MockFileResolver struct {
	FileURLFunc func(ctx context.Context, fileID string) (string, error)
}

func (m *MockFileResolver) FileURL(ctx context.Context, fileID string) (string, error) {
	if m.FileURLFunc != nil {
		return m.FileURLFunc(ctx, fileID)
	}
	return "https://files.example/" + fileID, nil
}

// MockTool implements tool.Tool.
type MockTool struct {
	ToolName    string
	ExecuteFunc func(ctx context.Context, args json.RawMessage) (string, error)
	Calls       int
}

func (m *MockTool) Name() string               { return m.ToolName }
func (m *MockTool) Description() string        { return "test tool" }
func (m *MockTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (m *MockTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	m.Calls++
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, args)
	}
	return "tool output", nil
}

type fixture struct {
	provider  *MockProvider
	turns     *MockRepository
	approvals *MockStore
	responder *MockResponder
	weather   *MockTool
	service   *chat.Service
}

func newFixture(t *testing.T, sensitive []string) *fixture {
	t.Helper()

	registry := tool.NewRegistry(sensitive)
	weatherTool := &MockTool{ToolName: "fetch_weather"}
	require.NoError(t, registry.Register(weatherTool))

	f := &fixture{
		provider:  &MockProvider{},
		turns:     &MockRepository{},
		approvals: NewMockStore(),
		responder: &MockResponder{},
		weather:   weatherTool,
	}
	f.service = chat.NewService(
		f.provider,
		registry,
		f.turns,
		f.approvals,
		f.responder,
		&MockFileResolver{},
		chat.Config{HistoryLimit: 30, MaxToolDepth: 8},
		zerolog.Nop(),
	)
	return f
}

func toolCallResult(id, name, args string) *agent.CompletionResult {
	return &agent.CompletionResult{
		Message: agent.ChatMessage{
			Role: agent.RoleAssistant,
			ToolCalls: []agent.ToolCall{
				{ID: id, Name: name, Arguments: json.RawMessage(args)},
			},
		},
	}
}

func textResult(text string) *agent.CompletionResult {
	return &agent.CompletionResult{
		Message: agent.ChatMessage{Role: agent.RoleAssistant, Content: text},
	}
}

func TestProcess_PlainQuestionAnswered(t *testing.T) {
	f := newFixture(t, nil)
	f.provider.CompleteFunc = func(ctx context.Context, req agent.CompletionRequest) (*agent.CompletionResult, error) {
		return textResult("Hello there"), nil
	}

	err := f.service.Process(context.Background(), chat.Inbound{ChatID: 7, Text: "hi"})
	require.NoError(t, err)

	require.Len(t, f.responder.Sent, 1)
	assert.Equal(t, "Hello there", f.responder.Sent[0])

	// User turn and assistant turn persisted in order.
	require.Len(t, f.turns.Turns, 2)
	assert.Equal(t, conversation.RoleUser, f.turns.Turns[0].Role)
	assert.Equal(t, "hi", f.turns.Turns[0].Content)
	assert.Equal(t, conversation.RoleAssistant, f.turns.Turns[1].Role)
}

func TestProcess_NonSensitiveToolExecutedInline(t *testing.T) {
	f := newFixture(t, nil)

	calls := 0
	f.provider.CompleteFunc = func(ctx context.Context, req agent.CompletionRequest) (*agent.CompletionResult, error) {
		calls++
		if calls == 1 {
			return toolCallResult("call-1", "fetch_weather", `{"location":"London"}`), nil
		}
		return textResult("It is sunny in London"), nil
	}

	err := f.service.Process(context.Background(), chat.Inbound{ChatID: 7, Text: "weather in London?"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.weather.Calls)
	assert.Empty(t, f.approvals.Pending, "no approval should be stored for a non-sensitive tool")
	require.Len(t, f.responder.Sent, 1)
	assert.Equal(t, "It is sunny in London", f.responder.Sent[0])

	// The second completion must carry the tool result back to the model.
	require.Len(t, f.provider.Requests, 2)
	last := f.provider.Requests[1].Messages[len(f.provider.Requests[1].Messages)-1]
	assert.Equal(t, agent.RoleTool, last.Role)
	assert.Equal(t, "call-1", last.ToolCallID)
}

func TestProcess_SensitiveToolPausesForApproval(t *testing.T) {
	f := newFixture(t, []string{"fetch_weather"})
	f.provider.CompleteFunc = func(ctx context.Context, req agent.CompletionRequest) (*agent.CompletionResult, error) {
		return toolCallResult("call-1", "fetch_weather", `{"location":"London"}`), nil
	}

	err := f.service.Process(context.Background(), chat.Inbound{ChatID: 7, Text: "weather in London?"})
	require.NoError(t, err)

	assert.Equal(t, 0, f.weather.Calls, "sensitive tool must not run before approval")
	require.Len(t, f.responder.Approvals, 1)

	pending, err := f.approvals.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "fetch_weather", pending.ToolName)
	assert.Equal(t, "call-1", pending.ToolCallID)
	assert.Equal(t, f.responder.Approvals[0], pending.ApprovalID)

	// The assistant's tool call turn is persisted so the resume can rebuild
	// the transcript.
	var toolCallTurns int
	for _, turn := range f.turns.Turns {
		if turn.Role == conversation.RoleAssistant && turn.ToolCallID == "call-1" {
			toolCallTurns++
		}
	}
	assert.Equal(t, 1, toolCallTurns)
}

func TestProcess_TextApprovalRunsTool(t *testing.T) {
	f := newFixture(t, []string{"fetch_weather"})

	calls := 0
	f.provider.CompleteFunc = func(ctx context.Context, req agent.CompletionRequest) (*agent.CompletionResult, error) {
		calls++
		if calls == 1 {
			return toolCallResult("call-1", "fetch_weather", `{"location":"London"}`), nil
		}
		return textResult("Sunny, 21 degrees"), nil
	}

	ctx := context.Background()
	require.NoError(t, f.service.Process(ctx, chat.Inbound{ChatID: 7, Text: "weather in London?"}))
	require.NoError(t, f.service.Process(ctx, chat.Inbound{ChatID: 7, Text: "yes"}))

	assert.Equal(t, 1, f.weather.Calls)
	assert.Empty(t, f.approvals.Pending, "approval must be cleared after resume")

	require.NotEmpty(t, f.responder.Sent)
	assert.Equal(t, "Sunny, 21 degrees", f.responder.Sent[len(f.responder.Sent)-1])
}

func TestProcess_AmbiguousReplyDenies(t *testing.T) {
	f := newFixture(t, []string{"fetch_weather"})
	f.provider.CompleteFunc = func(ctx context.Context, req agent.CompletionRequest) (*agent.CompletionResult, error) {
		return toolCallResult("call-1", "fetch_weather", `{"location":"London"}`), nil
	}

	ctx := context.Background()
	require.NoError(t, f.service.Process(ctx, chat.Inbound{ChatID: 7, Text: "weather in London?"}))
	require.NoError(t, f.service.Process(ctx, chat.Inbound{ChatID: 7, Text: "hmm, what will it do?"}))

	assert.Equal(t, 0, f.weather.Calls, "ambiguous reply must not run the tool")
	assert.Empty(t, f.approvals.Pending)
	require.NotEmpty(t, f.responder.Sent)
	assert.Contains(t, f.responder.Sent[len(f.responder.Sent)-1], "cancelled")
}

func TestProcess_CallbackApproveRunsTool(t *testing.T) {
	f := newFixture(t, []string{"fetch_weather"})

	calls := 0
	f.provider.CompleteFunc = func(ctx context.Context, req agent.CompletionRequest) (*agent.CompletionResult, error) {
		calls++
		if calls == 1 {
			return toolCallResult("call-1", "fetch_weather", `{"location":"London"}`), nil
		}
		return textResult("done"), nil
	}

	ctx := context.Background()
	require.NoError(t, f.service.Process(ctx, chat.Inbound{ChatID: 7, Text: "weather?"}))

	pending, err := f.approvals.Get(ctx, 7)
	require.NoError(t, err)

	require.NoError(t, f.service.Process(ctx, chat.Inbound{
		ChatID:       7,
		IsCallback:   true,
		CallbackID:   "cb-1",
		CallbackData: "approve:" + pending.ApprovalID,
	}))

	assert.Equal(t, 1, f.weather.Calls)
	assert.Contains(t, f.responder.Acks, "Approved")
	assert.Empty(t, f.approvals.Pending)
}

func TestProcess_StaleCallbackRejected(t *testing.T) {
	f := newFixture(t, []string{"fetch_weather"})
	f.provider.CompleteFunc = func(ctx context.Context, req agent.CompletionRequest) (*agent.CompletionResult, error) {
		return toolCallResult("call-1", "fetch_weather", `{"location":"London"}`), nil
	}

	ctx := context.Background()
	require.NoError(t, f.service.Process(ctx, chat.Inbound{ChatID: 7, Text: "weather?"}))

	// Press a button from an older, superseded prompt.
	require.NoError(t, f.service.Process(ctx, chat.Inbound{
		ChatID:       7,
		IsCallback:   true,
		CallbackID:   "cb-1",
		CallbackData: "approve:some-old-id",
	}))

	assert.Equal(t, 0, f.weather.Calls)
	_, err := f.approvals.Get(ctx, 7)
	assert.NoError(t, err, "mismatched callback must leave the pending approval in place")
}

func TestProcess_CallbackWithoutPendingExpires(t *testing.T) {
	f := newFixture(t, nil)

	err := f.service.Process(context.Background(), chat.Inbound{
		ChatID:       7,
		IsCallback:   true,
		CallbackID:   "cb-1",
		CallbackData: "approve:gone",
	})
	require.NoError(t, err)

	require.Len(t, f.responder.Sent, 1)
	assert.Contains(t, f.responder.Sent[0], "expired")
	assert.Empty(t, f.provider.Requests, "expired callback must not reach the agent")
}

func TestProcess_ProviderFailureSendsGenericReply(t *testing.T) {
	f := newFixture(t, nil)
	f.provider.CompleteFunc = func(ctx context.Context, req agent.CompletionRequest) (*agent.CompletionResult, error) {
		return nil, errors.New("upstream down")
	}

	err := f.service.Process(context.Background(), chat.Inbound{ChatID: 7, Text: "hi"})
	require.Error(t, err)

	require.Len(t, f.responder.Sent, 1)
	assert.Contains(t, f.responder.Sent[0], "something went wrong")
	assert.Empty(t, f.turns.Turns, "failed job must not persist partial turns")
}

func TestProcess_DeliveryFailureDoesNotFailJob(t *testing.T) {
	f := newFixture(t, nil)
	f.responder.SendTextFunc = func(ctx context.Context, chatID int64, text string) error {
		return errors.New("telegram 502")
	}

	err := f.service.Process(context.Background(), chat.Inbound{ChatID: 7, Text: "hi"})
	assert.NoError(t, err, "delivery failures are logged, not returned")
	assert.Len(t, f.turns.Turns, 2)
}

func TestProcess_PhotoBecomesMultimodalInput(t *testing.T) {
	f := newFixture(t, nil)

	var captured agent.CompletionRequest
	f.provider.CompleteFunc = func(ctx context.Context, req agent.CompletionRequest) (*agent.CompletionResult, error) {
		captured = req
		return textResult("nice photo"), nil
	}

	err := f.service.Process(context.Background(), chat.Inbound{
		ChatID:      7,
		Caption:     "what is this?",
		PhotoFileID: "photo-123",
	})
	require.NoError(t, err)

	userMsg := captured.Messages[len(captured.Messages)-1]
	require.Len(t, userMsg.Parts, 2)
	assert.Equal(t, "text", userMsg.Parts[0].Type)
	assert.Equal(t, "image_url", userMsg.Parts[1].Type)
	assert.Equal(t, "https://files.example/photo-123", userMsg.Parts[1].ImageURL)
}

func TestProcess_EmptyUpdateSkipped(t *testing.T) {
	f := newFixture(t, nil)

	err := f.service.Process(context.Background(), chat.Inbound{ChatID: 7})
	require.NoError(t, err)
	assert.Empty(t, f.provider.Requests)
	assert.Empty(t, f.responder.Sent)
}

func TestProcess_DecisionNeverTreatedAsQuery(t *testing.T) {
	f := newFixture(t, []string{"fetch_weather"})
	f.provider.CompleteFunc = func(ctx context.Context, req agent.CompletionRequest) (*agent.CompletionResult, error) {
		return toolCallResult("call-1", "fetch_weather", `{"location":"London"}`), nil
	}

	ctx := context.Background()
	require.NoError(t, f.service.Process(ctx, chat.Inbound{ChatID: 7, Text: "weather?"}))

	completionsBefore := len(f.provider.Requests)
	require.NoError(t, f.service.Process(ctx, chat.Inbound{ChatID: 7, Text: "what about Paris?"}))

	// The follow-up question arrived while awaiting approval, so it is a
	// denial, not a new agent query.
	assert.Equal(t, completionsBefore, len(f.provider.Requests))
	assert.Empty(t, f.approvals.Pending)
}
