package dispatch

import "github.com/randalmurphal/piecework/pkg/piecework/piece"

// User-facing replies.
const (
	ReplyCooldown          = "You have already used this command recently. Please try again %s."
	ReplyDisabled          = "This command was globally disabled by the bot owner."
	ReplyRestrictedContent = "This command can only be used in NSFW channels."
)

// Outcome is the terminal state a message reached in the pipeline.
type Outcome int

// Pipeline outcomes.
const (
	// OutcomeNotCommand: no prefix matched.
	OutcomeNotCommand Outcome = iota
	// OutcomeEmpty: a prefix with nothing after it.
	OutcomeEmpty
	// OutcomeUnknownCommand: the token resolved to no command.
	OutcomeUnknownCommand
	// OutcomeCooldown: rejected by an active cooldown.
	OutcomeCooldown
	// OutcomeDisabled: the command is administratively disabled.
	OutcomeDisabled
	// OutcomePrivateRestricted: the command refuses direct messages. Silent.
	OutcomePrivateRestricted
	// OutcomeRestrictedContent: the channel does not permit restricted content.
	OutcomeRestrictedContent
	// OutcomeInvoked: the command ran without error.
	OutcomeInvoked
	// OutcomeFailed: the command returned an error or panicked.
	OutcomeFailed
)

// String returns the outcome name used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeNotCommand:
		return "not_command"
	case OutcomeEmpty:
		return "empty"
	case OutcomeUnknownCommand:
		return "unknown_command"
	case OutcomeCooldown:
		return "cooldown"
	case OutcomeDisabled:
		return "disabled"
	case OutcomePrivateRestricted:
		return "private_restricted"
	case OutcomeRestrictedContent:
		return "restricted_content"
	case OutcomeInvoked:
		return "invoked"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes what the pipeline did with one message.
type Result struct {
	Outcome Outcome

	// Prefix is the matched trigger prefix, if any.
	Prefix string
	// Token is the lowercased command token, if any.
	Token string
	// Args are the tokens after the command token.
	Args []string
	// Command is the resolved command, if any.
	Command *piece.Command

	// Reply is the user-facing text sent for this outcome, if any.
	Reply string
	// Err is the command's failure for OutcomeFailed.
	Err error
}
