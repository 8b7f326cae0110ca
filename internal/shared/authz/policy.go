// Package authz はロールベースの認可ポリシーを提供します。
// ロールは完全一致でのみ判定し、階層（adminがsupplierを兼ねる等）は持ちません。
package authz

// Role はユーザーに付与される認可タグです。
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleBuyer    Role = "buyer"
	RoleSupplier Role = "supplier"
)

// Valid は既知のロールかどうかを返します。
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleBuyer, RoleSupplier:
		return true
	}
	return false
}

// Action はエンドポイントが要求する操作です。
type Action string

const (
	ActionProductRead     Action = "product:read"
	ActionProductWrite    Action = "product:write"
	ActionPricingForecast Action = "pricing:forecast"
	ActionPricingView     Action = "pricing:view"
	ActionPricingEstimate Action = "pricing:estimate"
)

// Predicate はロールに対する単一の判定です。
type Predicate func(Role) bool

// IsAdmin はロールが admin の場合のみ true を返します。
func IsAdmin(r Role) bool { return r == RoleAdmin }

// IsSupplier はロールが supplier の場合のみ true を返します。
func IsSupplier(r Role) bool { return r == RoleSupplier }

// IsBuyer はロールが buyer の場合のみ true を返します。
func IsBuyer(r Role) bool { return r == RoleBuyer }

// policy はアクションごとに許可する判定の組み合わせです。いずれか1つを満たせば許可されます。
var policy = map[Action][]Predicate{
	ActionProductRead:     {IsAdmin, IsSupplier, IsBuyer},
	ActionProductWrite:    {IsAdmin, IsSupplier},
	ActionPricingForecast: {IsAdmin, IsSupplier, IsBuyer},
	ActionPricingView:     {IsAdmin, IsSupplier, IsBuyer},
	ActionPricingEstimate: {IsAdmin, IsSupplier, IsBuyer},
}

// Allowed はロールがアクションを実行できるかを判定します。
// 未登録のアクションは常に拒否します。
func Allowed(role Role, action Action) bool {
	for _, p := range policy[action] {
		if p(role) {
			return true
		}
	}
	return false
}
