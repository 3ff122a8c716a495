package dispatch

import (
	"sync"

	"github.com/BaSui01/botflow/types"
)

// Rule type discriminators for the built-in rules.
const (
	RuleTypeSender         = "sender"
	RuleTypeSenderMismatch = "sender_mismatch"
	RuleTypeChatType       = "chat_type"
	RuleTypeRandom         = "random"
	RuleTypeIMInstance     = "im_instance"
	RuleTypeFallback       = "fallback"
)

// Rule is a routing predicate bound to a target workflow. Match must be pure
// with respect to shared state: it may read the message and the dispatch
// context but never mutate registries.
type Rule interface {
	// ID returns the rule's unique identifier within its registry.
	ID() string
	// Type returns the rule type discriminator.
	Type() string
	// WorkflowID returns the id of the workflow this rule routes to.
	WorkflowID() string
	// Match reports whether the rule applies to the message.
	Match(msg *types.Message, dctx *Context) bool
}

// baseRule carries the identity shared by every built-in rule.
type baseRule struct {
	id         string
	workflowID string
}

func (r *baseRule) ID() string { return r.id }

func (r *baseRule) WorkflowID() string { return r.workflowID }

// RuleRegistry holds dispatch rules in priority order. Rules register
// enabled; fallback rules always sort after every other enabled rule so they
// only fire when nothing else matches.
type RuleRegistry struct {
	mu      sync.RWMutex
	rules   []Rule
	enabled map[string]bool
}

// NewRuleRegistry creates an empty rule registry.
func NewRuleRegistry() *RuleRegistry {
	return &RuleRegistry{enabled: make(map[string]bool)}
}

// Register appends a rule, enabled. Registration order is evaluation order
// among non-fallback rules.
func (r *RuleRegistry) Register(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule)
	r.enabled[rule.ID()] = true
}

// SetEnabled toggles a rule without removing it. Disabled rules are invisible
// to ActiveRules.
func (r *RuleRegistry) SetEnabled(id string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, known := r.enabled[id]; known {
		r.enabled[id] = enabled
	}
}

// Rules returns every registered rule regardless of enablement.
func (r *RuleRegistry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// ActiveRules returns the enabled rules in evaluation order: registration
// order, with fallback rules stably moved to the end.
func (r *RuleRegistry) ActiveRules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]Rule, 0, len(r.rules))
	var fallbacks []Rule
	for _, rule := range r.rules {
		if !r.enabled[rule.ID()] {
			continue
		}
		if rule.Type() == RuleTypeFallback {
			fallbacks = append(fallbacks, rule)
			continue
		}
		active = append(active, rule)
	}
	return append(active, fallbacks...)
}
