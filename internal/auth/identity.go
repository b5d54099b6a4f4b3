package auth

// Identity is a signed-in user as seen by the rest of the service.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}
