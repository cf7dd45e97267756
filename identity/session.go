package identity

import (
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// sessionFromToken maps an exchanged oauth2 token onto a Session. When the
// access token is itself a JWT (as hosted identity services commonly
// issue), its claims fill in the subject, email and a tighter expiry
// without verification; verification of identity claims is the ID token's
// job and happens separately.
func sessionFromToken(token *oauth2.Token) *Session {
	session := &Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.Expiry,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		session.IDToken = idToken
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token.AccessToken, claims); err != nil {
		return session
	}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		session.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		session.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
	return session
}
