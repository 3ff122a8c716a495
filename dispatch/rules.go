package dispatch

import (
	"math/rand"

	"github.com/BaSui01/botflow/im"
	"github.com/BaSui01/botflow/types"
)

// SenderMatchRule matches when the message sender equals the configured user
// and/or group. An empty field is a wildcard; with both fields empty the rule
// matches every message.
type SenderMatchRule struct {
	baseRule
	senderID    string
	senderGroup string
}

// NewSenderMatchRule creates a sender equality rule.
func NewSenderMatchRule(id, workflowID, senderID, senderGroup string) *SenderMatchRule {
	return &SenderMatchRule{
		baseRule:    baseRule{id: id, workflowID: workflowID},
		senderID:    senderID,
		senderGroup: senderGroup,
	}
}

func (r *SenderMatchRule) Type() string { return RuleTypeSender }

func (r *SenderMatchRule) Match(msg *types.Message, dctx *Context) bool {
	if r.senderGroup != "" && msg.Sender.GroupID != r.senderGroup {
		return false
	}
	if r.senderID != "" && msg.Sender.UserID != r.senderID {
		return false
	}
	return true
}

// SenderMismatchRule is the complement of SenderMatchRule restricted to the
// same two fields: every configured field must differ from the sender's.
type SenderMismatchRule struct {
	baseRule
	senderID    string
	senderGroup string
}

// NewSenderMismatchRule creates a sender inequality rule.
func NewSenderMismatchRule(id, workflowID, senderID, senderGroup string) *SenderMismatchRule {
	return &SenderMismatchRule{
		baseRule:    baseRule{id: id, workflowID: workflowID},
		senderID:    senderID,
		senderGroup: senderGroup,
	}
}

func (r *SenderMismatchRule) Type() string { return RuleTypeSenderMismatch }

func (r *SenderMismatchRule) Match(msg *types.Message, dctx *Context) bool {
	if r.senderGroup != "" && msg.Sender.GroupID == r.senderGroup {
		return false
	}
	if r.senderID != "" && msg.Sender.UserID == r.senderID {
		return false
	}
	return true
}

// ChatTypeMatchRule matches on the conversation kind (direct vs. group).
type ChatTypeMatchRule struct {
	baseRule
	chatType types.ChatType
}

// NewChatTypeMatchRule creates a chat-type equality rule.
func NewChatTypeMatchRule(id, workflowID string, chatType types.ChatType) *ChatTypeMatchRule {
	return &ChatTypeMatchRule{
		baseRule: baseRule{id: id, workflowID: workflowID},
		chatType: chatType,
	}
}

func (r *ChatTypeMatchRule) Type() string { return RuleTypeChatType }

func (r *ChatTypeMatchRule) Match(msg *types.Message, dctx *Context) bool {
	return msg.Sender.ChatType == r.chatType
}

// RandomChanceRule matches with probability chance/100, independently on
// every evaluation. The random source is injectable so tests can pin the
// outcome; production rules keep the default source.
type RandomChanceRule struct {
	baseRule
	chance    int
	randFloat func() float64
}

// NewRandomChanceRule creates a probabilistic rule. chance is clamped to
// [0, 100].
func NewRandomChanceRule(id, workflowID string, chance int) *RandomChanceRule {
	if chance < 0 {
		chance = 0
	}
	if chance > 100 {
		chance = 100
	}
	return &RandomChanceRule{
		baseRule:  baseRule{id: id, workflowID: workflowID},
		chance:    chance,
		randFloat: rand.Float64,
	}
}

// SetRandomSource replaces the random source. fn must return values in
// [0.0, 1.0).
func (r *RandomChanceRule) SetRandomSource(fn func() float64) {
	if fn != nil {
		r.randFloat = fn
	}
}

func (r *RandomChanceRule) Type() string { return RuleTypeRandom }

func (r *RandomChanceRule) Match(msg *types.Message, dctx *Context) bool {
	return r.randFloat()*100 < float64(r.chance)
}

// IMInstanceMatchRule matches when the message arrived through a specific
// named adapter instance.
type IMInstanceMatchRule struct {
	baseRule
	instance string
	manager  *im.Manager
}

// NewIMInstanceMatchRule creates an adapter-instance rule resolving names
// through the given manager.
func NewIMInstanceMatchRule(id, workflowID, instance string, manager *im.Manager) *IMInstanceMatchRule {
	return &IMInstanceMatchRule{
		baseRule: baseRule{id: id, workflowID: workflowID},
		instance: instance,
		manager:  manager,
	}
}

func (r *IMInstanceMatchRule) Type() string { return RuleTypeIMInstance }

func (r *IMInstanceMatchRule) Match(msg *types.Message, dctx *Context) bool {
	if r.manager == nil || dctx == nil || dctx.Adapter == nil {
		return false
	}
	adapter, ok := r.manager.Get(r.instance)
	return ok && adapter == dctx.Adapter
}

// FallbackRule matches unconditionally. The registry ranks it after every
// other enabled rule, so it fires only when nothing else does.
type FallbackRule struct {
	baseRule
}

// NewFallbackRule creates a catch-all rule.
func NewFallbackRule(id, workflowID string) *FallbackRule {
	return &FallbackRule{baseRule: baseRule{id: id, workflowID: workflowID}}
}

func (r *FallbackRule) Type() string { return RuleTypeFallback }

func (r *FallbackRule) Match(msg *types.Message, dctx *Context) bool {
	return true
}
