package reveal

import "esmalte/pkg/esmaltetypes"

// NoStableMessages is the lastStableIndex sentinel for a freshly started
// conversation: every assistant message that arrives afterwards animates.
const NoStableMessages = -1

// ShouldAnimate decides whether the reveal scheduler runs for the message at
// messageIndex. Only assistant messages that arrived after the last stable
// index animate; restored history renders instantly. lastStableIndex is set
// to len(loaded)-1 when a conversation is loaded from storage and is not
// advanced by live sends.
func ShouldAnimate(messageIndex int, message esmaltetypes.Message, lastStableIndex int) bool {
	return message.Role == esmaltetypes.RoleAssistant && messageIndex > lastStableIndex
}
