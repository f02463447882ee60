package access

import (
	"bali-advisory/internal/domain/plans"
	"bali-advisory/internal/domain/users"
)

type Policy struct {
	Tier         plans.Tier  `json:"tier"`
	State        AccessState `json:"state"`
	Capabilities []string    `json:"capabilities"`
}

func ComputePolicy(u users.User) Policy {
	tier := u.Tier()
	state := StateFor(tier)
	return Policy{
		Tier:         tier,
		State:        state,
		Capabilities: CapabilitiesFor(state),
	}
}
