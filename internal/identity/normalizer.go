package identity

import (
	"encoding/json"
	"fmt"
)

// realmRolesGroup is the group of the realm_access claim carrying role names.
const realmRolesGroup = "roles"

// Normalize flattens the nested realm_access claim into discrete role claims.
// Unauthenticated principals and principals without realm_access are returned
// unchanged. realm_access must map every group to a list of role strings, or
// it is an error; a payload without a roles group grants no roles. Normalizing twice yields the same claim set.
func Normalize(p Principal) (Principal, error) {
	if !p.Authenticated() {
		return p, nil
	}
	raw, ok := p.First(ClaimRealmAccess)
	if !ok {
		return p, nil
	}

	var groups map[string][]string
	if err := json.Unmarshal([]byte(raw), &groups); err != nil {
		return p, fmt.Errorf("identity: parse %s claim: %w", ClaimRealmAccess, err)
	}
	for _, role := range groups[realmRolesGroup] {
		p = p.withClaim(ClaimRole, role)
	}
	return p, nil
}
