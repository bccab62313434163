package auth

import "errors"

var (
	InvalidScreenHintErr  = errors.New("screen hint must be login or signup")
	EmptyTokenErr         = errors.New("backend returned no token")
	InvalidRedirectURIErr = errors.New("invalid redirect uri")
)
