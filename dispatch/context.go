// Package dispatch routes inbound IM messages to workflows. Rules are
// evaluated in registration order and the first match wins; the dispatcher
// runs the matched workflow under a process-wide admission semaphore and
// never lets a workflow failure escape to the message source.
package dispatch

import (
	"github.com/BaSui01/botflow/im"
	"github.com/BaSui01/botflow/types"
)

// Context is the request-scoped state of one dispatch. It is built before
// rule evaluation, bound to the executor as the run scope, and discarded when
// the dispatch ends. Blocks reach it through Runtime.Scope.
type Context struct {
	// Adapter is the IM instance that delivered the message.
	Adapter im.Adapter
	// Message is the inbound message being dispatched.
	Message *types.Message
	// TenantID is the resolved isolation identity for this dispatch.
	TenantID string
	// Rule is the rule that matched, set after evaluation.
	Rule Rule
}

// TenantResolver looks up the tenant a user belongs to. It is consulted only
// when the message metadata carries no tenant id of its own.
type TenantResolver interface {
	// ResolveTenant returns the tenant id for the user, or false when the
	// user belongs to no known tenant.
	ResolveTenant(userID string) (string, bool)
}

// TenantResolverFunc adapts a function to the TenantResolver interface.
type TenantResolverFunc func(userID string) (string, bool)

func (f TenantResolverFunc) ResolveTenant(userID string) (string, bool) {
	return f(userID)
}
