package roster

import "catan-standings/internal/domain"

// FindMember looks for a member whose username, then global display name,
// then server nickname equals name. Earlier criteria win even when a later
// one matches a member that appears first.
func FindMember(members []domain.Member, name string) *domain.Member {
	if name == "" {
		return nil
	}
	criteria := []func(domain.Member) string{
		func(m domain.Member) string { return m.Username },
		func(m domain.Member) string { return m.GlobalName },
		func(m domain.Member) string { return m.Nick },
	}
	for _, field := range criteria {
		for i := range members {
			if field(members[i]) == name {
				m := members[i]
				return &m
			}
		}
	}
	return nil
}
