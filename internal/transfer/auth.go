package transfer

// AuthState is the outcome of looking up the stored session.
type AuthState struct {
	token string
}

// Authenticated returns an AuthState carrying token.
func Authenticated(token string) AuthState {
	return AuthState{token: token}
}

// Unauthenticated returns the empty AuthState.
func Unauthenticated() AuthState {
	return AuthState{}
}

func (a AuthState) IsAuthenticated() bool {
	return a.token != ""
}

// Token returns the session token, or "" when unauthenticated.
func (a AuthState) Token() string {
	return a.token
}

// Require returns the token or ErrUnauthenticated.
func (a AuthState) Require() (string, error) {
	if !a.IsAuthenticated() {
		return "", ErrUnauthenticated
	}
	return a.token, nil
}
