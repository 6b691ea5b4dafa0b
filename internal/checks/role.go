package checks

import "context"

// RolePenalty is the score deduction for a role address. A mailbox run
// by a function rather than a person is risky for deliverability but not
// invalid, so the module never makes a hard validity claim.
const RolePenalty = 10

var defaultRoleAccounts = map[string]bool{
	"admin":      true,
	"support":    true,
	"info":       true,
	"contact":    true,
	"sales":      true,
	"marketing":  true,
	"noreply":    true,
	"no-reply":   true,
	"webmaster":  true,
	"hostmaster": true,
	"postmaster": true,
	"abuse":      true,
	"security":   true,
}

// RoleCheck flags role addresses (support@, admin@, ...).
type RoleCheck struct {
	accounts map[string]bool
}

// NewRoleCheck creates the role module. A nil accounts map uses the
// built-in list.
func NewRoleCheck(accounts map[string]bool) *RoleCheck {
	if accounts == nil {
		accounts = defaultRoleAccounts
	}
	return &RoleCheck{accounts: accounts}
}

func (c *RoleCheck) Name() string { return "role" }

func (c *RoleCheck) Run(_ context.Context, addr Address) Result {
	if !c.accounts[addr.Local] {
		return Result{Details: map[string]interface{}{"is_role": false}}
	}
	return Result{
		Issues:  []string{"role-based address detected"},
		Penalty: RolePenalty,
		Details: map[string]interface{}{"is_role": true},
	}
}

// IsRole reports whether the local part names a role account. The spam
// analyzer consults this directly.
func (c *RoleCheck) IsRole(local string) bool { return c.accounts[local] }
