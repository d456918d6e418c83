package model

// Principal is the authenticated caller as seen by the reservation core.
// It is built from access token claims and never loaded from storage
// inside a request.
type Principal struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// CanAdminister is the single capability check guarding every admin
// operation.
func (p Principal) CanAdminister() bool { return p.Role == RoleAdmin }

// DisplayName mirrors User.DisplayName for contact prefill.
func (p Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Username
}
