package pipeline

import (
	"strings"

	"github.com/fency/outreach-pipeline/pkg/pdl"
)

// rolePrefixes mark shared mailboxes that rarely reach the owner.
var rolePrefixes = []string{
	"info@", "contact@", "admin@", "support@", "sales@", "hello@", "team@",
}

// IsRoleEmail reports whether the address uses a generic organizational
// local part.
func IsRoleEmail(address string) bool {
	lower := strings.ToLower(address)
	for _, p := range rolePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// RankEmails orders a profile's emails from most to least likely to reach
// the person: personal before work, and within each type personal mailboxes
// before role mailboxes. Source order is kept within each group and
// duplicates are not removed. The result is never nil.
func RankEmails(profile *pdl.Person) []string {
	ranked := []string{}
	if profile == nil {
		return ranked
	}

	var personal, personalRole, work, workRole []string
	for _, e := range profile.Emails {
		if e.Address == "" {
			continue
		}
		role := IsRoleEmail(e.Address)
		switch e.Type {
		case pdl.EmailTypePersonal:
			if role {
				personalRole = append(personalRole, e.Address)
			} else {
				personal = append(personal, e.Address)
			}
		case pdl.EmailTypeWork:
			if role {
				workRole = append(workRole, e.Address)
			} else {
				work = append(work, e.Address)
			}
		}
	}

	ranked = append(ranked, personal...)
	ranked = append(ranked, personalRole...)
	ranked = append(ranked, work...)
	ranked = append(ranked, workRole...)
	return ranked
}
