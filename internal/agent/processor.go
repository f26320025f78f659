package agent

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
	"github.com/AI-Automated-Ecommerce/Backend/internal/notify"
	"github.com/AI-Automated-Ecommerce/Backend/internal/services"
)

// DecisionInput is everything the decision-maker sees for one step: the
// inbound message, the stored transcript, and the tool outputs produced
// earlier in this turn.
type DecisionInput struct {
	Phone        string
	Message      string
	History      []domain.Message
	Observations []string
}

// Decision is one step's outcome: either a final customer reply or a command
// to execute, whose output feeds the next step.
type Decision struct {
	Reply   string
	Command Command
}

// Decider selects the next step for a dialogue turn. Implementations wrap
// the NLU model; they never touch the database.
type Decider interface {
	Decide(ctx context.Context, in DecisionInput) (Decision, error)
}

// Processor drives one inbound message end to end: load history, iterate
// decide/execute steps, deliver the reply, and record both sides of the
// exchange in the transcript.
type Processor struct {
	Decider    Decider
	Dispatcher *Dispatcher
	Messages   *services.MessageService
	Transport  notify.Transport

	// MaxSteps bounds the decide/execute loop. Zero means the default of 4.
	MaxSteps int
}

// HandleMessage processes one inbound customer message and returns the reply
// that was sent. It never returns an error; every failure degrades to the
// apology text so the customer always hears back.
func (p *Processor) HandleMessage(ctx context.Context, phone, text string) string {
	if err := p.Messages.Append(ctx, phone, services.RoleCustomer, text); err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("transcript append failed")
	}

	history, err := p.Messages.History(ctx, phone)
	if err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("transcript load failed")
	}

	maxSteps := p.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 4
	}

	in := DecisionInput{Phone: phone, Message: text, History: history}
	reply := apology
	for step := 0; step < maxSteps; step++ {
		decision, err := p.Decider.Decide(ctx, in)
		if err != nil {
			log.Error().Err(err).Str("phone", phone).Int("step", step).Msg("decider failed")
			break
		}
		if decision.Reply != "" {
			reply = decision.Reply
			break
		}
		if decision.Command == nil {
			break
		}

		obs := p.Dispatcher.Execute(ctx, decision.Command)
		in.Observations = append(in.Observations, obs)
		// A turn that runs out of steps replies with the last tool output
		// rather than nothing.
		reply = obs
	}

	p.deliver(ctx, phone, reply)
	return reply
}

// ClearHistory wipes the customer's transcript and confirms it.
func (p *Processor) ClearHistory(ctx context.Context, phone string) string {
	const confirmation = "Conversation history cleared."
	if err := p.Messages.Clear(ctx, phone); err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("transcript clear failed")
		p.deliver(ctx, phone, apology)
		return apology
	}
	p.deliver(ctx, phone, confirmation)
	return confirmation
}

func (p *Processor) deliver(ctx context.Context, phone, reply string) {
	if err := p.Transport.Send(ctx, phone, reply); err != nil {
		log.Warn().Err(err).Str("phone", phone).Msg("reply delivery failed")
	}
	if err := p.Messages.Append(ctx, phone, services.RoleAssistant, reply); err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("transcript append failed")
	}
}
