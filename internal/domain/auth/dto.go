package auth

// StreamTokenResponse is returned to clients that open the progress stream
// with EventSource, which cannot send an Authorization header.
type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
