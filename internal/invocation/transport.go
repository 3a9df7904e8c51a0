package invocation

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Transport is the subset of the Discord REST API invocations reply through.
// This interface enables testing dispatch without a live Discord connection.
type Transport interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error
	InteractionResponse(i *discordgo.Interaction) (*discordgo.Message, error)
	InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit) (*discordgo.Message, error)
	InteractionResponseDelete(i *discordgo.Interaction) error
	FollowupMessageCreate(i *discordgo.Interaction, params *discordgo.WebhookParams) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	ChannelMessageEditComplex(edit *discordgo.MessageEdit) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string) error
	ChannelTyping(channelID string) error
}

// SessionTransport implements Transport using a live Discord session.
type SessionTransport struct {
	session *discordgo.Session
}

// NewSessionTransport creates a new SessionTransport.
func NewSessionTransport(s *discordgo.Session) *SessionTransport {
	return &SessionTransport{session: s}
}

func (t *SessionTransport) InteractionRespond(
	i *discordgo.Interaction,
	resp *discordgo.InteractionResponse,
) error {
	return t.session.InteractionRespond(i, resp)
}

func (t *SessionTransport) InteractionResponse(i *discordgo.Interaction) (*discordgo.Message, error) {
	return t.session.InteractionResponse(i)
}

func (t *SessionTransport) InteractionResponseEdit(
	i *discordgo.Interaction,
	edit *discordgo.WebhookEdit,
) (*discordgo.Message, error) {
	return t.session.InteractionResponseEdit(i, edit)
}

func (t *SessionTransport) InteractionResponseDelete(i *discordgo.Interaction) error {
	return t.session.InteractionResponseDelete(i)
}

func (t *SessionTransport) FollowupMessageCreate(
	i *discordgo.Interaction,
	params *discordgo.WebhookParams,
) (*discordgo.Message, error) {
	return t.session.FollowupMessageCreate(i, true, params)
}

func (t *SessionTransport) ChannelMessageSendComplex(
	channelID string,
	data *discordgo.MessageSend,
) (*discordgo.Message, error) {
	return t.session.ChannelMessageSendComplex(channelID, data)
}

func (t *SessionTransport) ChannelMessageEditComplex(edit *discordgo.MessageEdit) (*discordgo.Message, error) {
	return t.session.ChannelMessageEditComplex(edit)
}

func (t *SessionTransport) ChannelMessageDelete(channelID, messageID string) error {
	return t.session.ChannelMessageDelete(channelID, messageID)
}

func (t *SessionTransport) ChannelTyping(channelID string) error {
	return t.session.ChannelTyping(channelID)
}

// Call is one request recorded by MockTransport.
type Call struct {
	Method    string
	ChannelID string
	MessageID string
	Content   string
	Flags     discordgo.MessageFlags
	Type      discordgo.InteractionResponseType
}

// MockTransport is a test double for Transport that records every call.
type MockTransport struct {
	mu    sync.Mutex
	calls []Call

	// Err, when set, is returned by every call.
	Err error
}

// Calls returns a snapshot of the recorded calls.
func (m *MockTransport) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Call, len(m.calls))
	copy(result, m.calls)
	return result
}

// Methods returns the recorded method names in order.
func (m *MockTransport) Methods() []string {
	calls := m.Calls()
	methods := make([]string, len(calls))
	for i, c := range calls {
		methods[i] = c.Method
	}
	return methods
}

func (m *MockTransport) record(c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	return m.Err
}

func (m *MockTransport) message(channelID, content string) *discordgo.Message {
	m.mu.Lock()
	n := len(m.calls)
	m.mu.Unlock()
	return &discordgo.Message{
		ID:        "msg-" + strconv.Itoa(n),
		ChannelID: channelID,
		Content:   content,
	}
}

func (m *MockTransport) InteractionRespond(
	i *discordgo.Interaction,
	resp *discordgo.InteractionResponse,
) error {
	c := Call{Method: "InteractionRespond", ChannelID: i.ChannelID, Type: resp.Type}
	if resp.Data != nil {
		c.Content = resp.Data.Content
		c.Flags = resp.Data.Flags
	}
	return m.record(c)
}

func (m *MockTransport) InteractionResponse(i *discordgo.Interaction) (*discordgo.Message, error) {
	if err := m.record(Call{Method: "InteractionResponse", ChannelID: i.ChannelID}); err != nil {
		return nil, err
	}
	return m.message(i.ChannelID, ""), nil
}

func (m *MockTransport) InteractionResponseEdit(
	i *discordgo.Interaction,
	edit *discordgo.WebhookEdit,
) (*discordgo.Message, error) {
	c := Call{Method: "InteractionResponseEdit", ChannelID: i.ChannelID}
	if edit.Content != nil {
		c.Content = *edit.Content
	}
	if err := m.record(c); err != nil {
		return nil, err
	}
	return m.message(i.ChannelID, c.Content), nil
}

func (m *MockTransport) InteractionResponseDelete(i *discordgo.Interaction) error {
	return m.record(Call{Method: "InteractionResponseDelete", ChannelID: i.ChannelID})
}

func (m *MockTransport) FollowupMessageCreate(
	i *discordgo.Interaction,
	params *discordgo.WebhookParams,
) (*discordgo.Message, error) {
	c := Call{Method: "FollowupMessageCreate", ChannelID: i.ChannelID, Content: params.Content, Flags: params.Flags}
	if err := m.record(c); err != nil {
		return nil, err
	}
	return m.message(i.ChannelID, params.Content), nil
}

func (m *MockTransport) ChannelMessageSendComplex(
	channelID string,
	data *discordgo.MessageSend,
) (*discordgo.Message, error) {
	if err := m.record(Call{Method: "ChannelMessageSendComplex", ChannelID: channelID, Content: data.Content}); err != nil {
		return nil, err
	}
	return m.message(channelID, data.Content), nil
}

func (m *MockTransport) ChannelMessageEditComplex(edit *discordgo.MessageEdit) (*discordgo.Message, error) {
	c := Call{Method: "ChannelMessageEditComplex", ChannelID: edit.Channel, MessageID: edit.ID}
	if edit.Content != nil {
		c.Content = *edit.Content
	}
	if err := m.record(c); err != nil {
		return nil, err
	}
	return m.message(edit.Channel, c.Content), nil
}

func (m *MockTransport) ChannelMessageDelete(channelID, messageID string) error {
	return m.record(Call{Method: "ChannelMessageDelete", ChannelID: channelID, MessageID: messageID})
}

func (m *MockTransport) ChannelTyping(channelID string) error {
	return m.record(Call{Method: "ChannelTyping", ChannelID: channelID})
}

// Ensure both transports implement Transport.
var (
	_ Transport = (*SessionTransport)(nil)
	_ Transport = (*MockTransport)(nil)
)
