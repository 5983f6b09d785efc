package storage

import (
	"fmt"
	"strings"
)

// Role is a kind of marketplace account. Each role keeps its own session.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleAgent    Role = "agent"
	RoleCompany  Role = "company"
	RoleAdmin    Role = "admin"
)

// Roles lists every role in a stable order.
func Roles() []Role {
	return []Role{RoleConsumer, RoleAgent, RoleCompany, RoleAdmin}
}

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles() {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Namespace names the storage keys of one role's session.
type Namespace struct {
	Role     Role
	TokenKey string
	UserKey  string
}

// DefaultNamespaces returns the key layout shared with the web front end.
func DefaultNamespaces() []Namespace {
	return []Namespace{
		{Role: RoleConsumer, TokenKey: "accessToken", UserKey: "userData"},
		{Role: RoleAgent, TokenKey: "agentToken", UserKey: "agentData"},
		{Role: RoleCompany, TokenKey: "companyToken", UserKey: "companyData"},
		{Role: RoleAdmin, TokenKey: "adminToken", UserKey: "adminData"},
	}
}
