// Package authz answers whether an actor may perform an operation on a resource.
package authz

import (
	"fmt"
	"strings"

	"promptmart/internal/model"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"github.com/google/uuid"
)

// Action names an operation guarded by the authorizer.
type Action string

const (
	ActCartMutate       Action = "cart:mutate"
	ActCartView         Action = "cart:view"
	ActCheckout         Action = "order:checkout"
	ActConfirmPayment   Action = "order:confirm_payment"
	ActApprovePayment   Action = "order:approve_payment"
	ActOrderView        Action = "order:view"
	ActOrderListAll     Action = "order:list_all"
	ActOrderListSeller  Action = "order:list_seller"
	ActProductCreate    Action = "product:create"
	ActProductMutate    Action = "product:mutate"
	ActPromotionManage  Action = "promotion:manage"
	ActCategoryCreate   Action = "category:create"
	ActReviewCreate     Action = "review:create"
	ActReviewUpdate     Action = "review:update"
	ActReviewDelete     Action = "review:delete"
	ActStoreOpen        Action = "store:open"
	ActPromptPayUpload  Action = "profile:promptpay"
	ActUserAdmin        Action = "user:admin"
	ActNotificationEdit Action = "notification:edit"
)

// Actor is the authenticated caller.
type Actor struct {
	ID   uuid.UUID
	Role model.Role
}

// Resource lists the users who own the target of an operation. An empty
// resource means the operation is not ownership-scoped.
type Resource struct {
	Owners []uuid.UUID
}

// Owned returns a resource owned by ids.
func Owned(ids ...uuid.UUID) Resource {
	return Resource{Owners: ids}
}

const modelText = `
[request_definition]
r = sub, act, uid, owners

[policy_definition]
p = sub, act, scope

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.act == p.act && (p.scope == "any" || owns(r.owners, r.uid))
`

// Scopes: "any" grants regardless of ownership, "own" requires the actor to
// be listed among the resource owners.
var defaultPolicy = [][]string{
	{"customer", string(ActCartMutate), "any"},
	{"seller", string(ActCartMutate), "any"},
	{"admin", string(ActCartMutate), "any"},
	{"customer", string(ActCartView), "any"},
	{"seller", string(ActCartView), "any"},
	{"admin", string(ActCartView), "any"},
	{"customer", string(ActCheckout), "any"},
	{"seller", string(ActCheckout), "any"},
	{"admin", string(ActCheckout), "any"},

	{"customer", string(ActConfirmPayment), "own"},
	{"seller", string(ActConfirmPayment), "own"},
	{"admin", string(ActConfirmPayment), "own"},
	{"seller", string(ActApprovePayment), "own"},

	{"customer", string(ActOrderView), "own"},
	{"seller", string(ActOrderView), "own"},
	{"admin", string(ActOrderView), "any"},
	{"admin", string(ActOrderListAll), "any"},
	{"seller", string(ActOrderListSeller), "any"},

	{"seller", string(ActProductCreate), "any"},
	{"seller", string(ActProductMutate), "own"},
	{"seller", string(ActPromotionManage), "own"},
	{"admin", string(ActCategoryCreate), "any"},

	{"customer", string(ActReviewCreate), "any"},
	{"seller", string(ActReviewCreate), "any"},
	{"admin", string(ActReviewCreate), "any"},
	{"customer", string(ActReviewUpdate), "own"},
	{"seller", string(ActReviewUpdate), "own"},
	{"admin", string(ActReviewUpdate), "own"},
	{"customer", string(ActReviewDelete), "own"},
	{"seller", string(ActReviewDelete), "own"},
	{"admin", string(ActReviewDelete), "any"},

	{"customer", string(ActStoreOpen), "any"},
	{"seller", string(ActPromptPayUpload), "any"},
	{"admin", string(ActUserAdmin), "any"},

	{"customer", string(ActNotificationEdit), "own"},
	{"seller", string(ActNotificationEdit), "own"},
	{"admin", string(ActNotificationEdit), "own"},
}

// Authorizer evaluates the access policy.
type Authorizer interface {
	// CanPerform reports whether actor may perform act on res.
	CanPerform(actor Actor, act Action, res Resource) (bool, error)

	// Require is CanPerform collapsed into model.ErrForbidden.
	Require(actor Actor, act Action, res Resource) error
}

type casbinAuthorizer struct {
	enforcer *casbin.Enforcer
}

// New builds an authorizer loaded with the built-in policy.
func New() (Authorizer, error) {
	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse access model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize enforcer: %w", err)
	}
	enforcer.AddFunction("owns", ownsFunc)

	if _, err := enforcer.AddPolicies(defaultPolicy); err != nil {
		return nil, fmt.Errorf("failed to load access policy: %w", err)
	}

	return &casbinAuthorizer{enforcer: enforcer}, nil
}

func (a *casbinAuthorizer) CanPerform(actor Actor, act Action, res Resource) (bool, error) {
	if actor.ID == uuid.Nil || !actor.Role.Valid() {
		return false, nil
	}

	owners := make([]string, len(res.Owners))
	for i, id := range res.Owners {
		owners[i] = id.String()
	}

	allowed, err := a.enforcer.Enforce(string(actor.Role), string(act), actor.ID.String(), strings.Join(owners, ","))
	if err != nil {
		return false, fmt.Errorf("access check failed: %w", err)
	}
	return allowed, nil
}

func (a *casbinAuthorizer) Require(actor Actor, act Action, res Resource) error {
	if actor.ID == uuid.Nil {
		return model.ErrUnauthenticated
	}
	allowed, err := a.CanPerform(actor, act, res)
	if err != nil {
		return err
	}
	if !allowed {
		return model.ErrForbidden
	}
	return nil
}

// owns(owners, uid) is true when uid appears in the comma-separated owners.
func ownsFunc(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("owns requires exactly 2 arguments")
	}
	owners, ok := args[0].(string)
	if !ok {
		return false, fmt.Errorf("first argument must be a string")
	}
	uid, ok := args[1].(string)
	if !ok {
		return false, fmt.Errorf("second argument must be a string")
	}
	if owners == "" || uid == "" {
		return false, nil
	}
	for _, owner := range strings.Split(owners, ",") {
		if owner == uid {
			return true, nil
		}
	}
	return false, nil
}
