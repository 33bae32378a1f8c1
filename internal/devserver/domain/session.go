package domain

// TokenPair is what an authenticate or refresh call hands back.
type TokenPair struct {
	Token        string
	RefreshToken string
	Created      bool
}
