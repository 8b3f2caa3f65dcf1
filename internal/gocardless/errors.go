package gocardless

// AuthError reports a failed access token exchange. The wrapped error is
// usually an *upstream.Error from the token endpoint.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return "acquiring access token: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }
