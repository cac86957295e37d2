package services

import (
	"strings"

	"github.com/dmitrijs2005/reportdesk/internal/client/models"
)

// Authorizer checks users against the configured admin allow-list.
type Authorizer struct {
	admins map[string]struct{}
}

func NewAuthorizer(adminEmails []string) *Authorizer {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(e)] = struct{}{}
	}
	return &Authorizer{admins: admins}
}

// IsAdmin matches the user's email case-insensitively. A nil user or a
// user without an email is never an admin.
func (a *Authorizer) IsAdmin(u *models.User) bool {
	if u == nil || u.Email == "" {
		return false
	}
	_, ok := a.admins[strings.ToLower(u.Email)]
	return ok
}
