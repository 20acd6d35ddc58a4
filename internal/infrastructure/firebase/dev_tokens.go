package firebase

import (
	"context"
	"fmt"
	"strings"

	"groupchat/internal/domain/entity"
)

const (
	devGuestPrefix = "dev-guest:"
	devUserPrefix  = "dev-user:"
)

// DevTokenVerifier accepts locally minted tokens so the memory backend can
// run without a Firebase project. Never wire it in production.
type DevTokenVerifier struct{}

func NewDevTokenVerifier() *DevTokenVerifier {
	return &DevTokenVerifier{}
}

func (DevTokenVerifier) MintGuest(uid string) string {
	return devGuestPrefix + uid
}

func (DevTokenVerifier) MintUser(uid, name string) string {
	return devUserPrefix + uid + ":" + name
}

func (DevTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*entity.AuthClaims, error) {
	switch {
	case strings.HasPrefix(idToken, devGuestPrefix):
		uid := strings.TrimPrefix(idToken, devGuestPrefix)
		if uid == "" {
			return nil, fmt.Errorf("dev token has no uid")
		}
		return &entity.AuthClaims{UID: uid, SignInProvider: "anonymous"}, nil

	case strings.HasPrefix(idToken, devUserPrefix):
		rest := strings.TrimPrefix(idToken, devUserPrefix)
		uid, name, _ := strings.Cut(rest, ":")
		if uid == "" {
			return nil, fmt.Errorf("dev token has no uid")
		}
		return &entity.AuthClaims{UID: uid, Name: name, SignInProvider: "password"}, nil
	}
	return nil, fmt.Errorf("not a dev token")
}
