package bot

import "github.com/bwmarrin/discordgo"

// Responder provides an abstraction for responding to Discord interactions.
// This interface enables testing handlers without a live Discord connection.
type Responder interface {
	// Respond sends a response to an interaction.
	Respond(response *discordgo.InteractionResponse) error

	// DeferResponse acknowledges the interaction so follow-ups can be sent
	// after the initial three second window.
	DeferResponse() error

	// FollowUp sends a follow-up message to a deferred interaction.
	FollowUp(params *discordgo.WebhookParams) error
}

// DiscordResponder implements Responder using a live Discord session.
type DiscordResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

// NewDiscordResponder creates a new DiscordResponder.
func NewDiscordResponder(s *discordgo.Session, i *discordgo.Interaction) *DiscordResponder {
	return &DiscordResponder{
		session:     s,
		interaction: i,
	}
}

// Respond sends a response to the interaction via Discord API.
func (r *DiscordResponder) Respond(response *discordgo.InteractionResponse) error {
	return r.session.InteractionRespond(r.interaction, response)
}

// DeferResponse sends a deferred channel message response.
func (r *DiscordResponder) DeferResponse() error {
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

// FollowUp sends a follow-up message via Discord API.
func (r *DiscordResponder) FollowUp(params *discordgo.WebhookParams) error {
	_, err := r.session.FollowupMessageCreate(r.interaction, true, params)
	return err
}

// MockResponder is a test double for Responder.
type MockResponder struct {
	LastResponse *discordgo.InteractionResponse
	Deferred     bool
	FollowUps    []*discordgo.WebhookParams
	Err          error
}

// Respond records the response for testing.
func (m *MockResponder) Respond(response *discordgo.InteractionResponse) error {
	m.LastResponse = response
	return m.Err
}

// DeferResponse records that the interaction was deferred.
func (m *MockResponder) DeferResponse() error {
	m.Deferred = true
	return m.Err
}

// FollowUp records the follow-up message for testing.
func (m *MockResponder) FollowUp(params *discordgo.WebhookParams) error {
	m.FollowUps = append(m.FollowUps, params)
	return m.Err
}
