package usecase

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"groupchat/internal/domain/entity"
	"groupchat/internal/domain/service"
	"groupchat/pkg/errors"
	"groupchat/pkg/logger"
)

const maxDisplayNameLength = 30

type AuthUseCase struct {
	verifier TokenVerifier
	botName  string
}

func NewAuthUseCase(verifier TokenVerifier, botName string) *AuthUseCase {
	return &AuthUseCase{
		verifier: verifier,
		botName:  botName,
	}
}

type LoginInput struct {
	IDToken     string `json:"id_token" validate:"required"`
	DisplayName string `json:"display_name" validate:"omitempty,max=30"`
	Timezone    string `json:"timezone"`
}

// ResolveIdentity verifies the token and derives the session identity.
// Anonymous sign-ins become guests with a stable Guest<n> name.
func (uc *AuthUseCase) ResolveIdentity(ctx context.Context, input LoginInput) (*entity.SessionIdentity, error) {
	if strings.TrimSpace(input.IDToken) == "" {
		return nil, errors.Unauthorized("Missing identity token", nil)
	}

	claims, err := uc.verifier.VerifyIDToken(ctx, input.IDToken)
	if err != nil {
		logger.Warn("Token verification failed: %v", err)
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}

	identity := &entity.SessionIdentity{
		UID:     claims.UID,
		IsGuest: claims.IsAnonymous(),
	}
	if identity.IsGuest {
		identity.DisplayName = GuestName(claims.UID)
	} else {
		identity.DisplayName = ProviderDisplayName(claims)
	}

	if name := strings.TrimSpace(input.DisplayName); name != "" {
		if utf8.RuneCountInString(name) > maxDisplayNameLength {
			return nil, errors.BadRequest(fmt.Sprintf("Display name must be at most %d characters", maxDisplayNameLength), nil)
		}
		identity.DisplayName = name
	}

	if strings.EqualFold(identity.DisplayName, uc.botName) {
		return nil, errors.BadRequest("Display name is reserved", nil)
	}

	identity.AvatarURL = service.AvatarURL(identity.DisplayName)
	return identity, nil
}

// GuestName maps a uid onto Guest0..Guest999 so reconnecting guests keep their name.
func GuestName(uid string) string {
	h := fnv.New32a()
	h.Write([]byte(uid))
	return fmt.Sprintf("Guest%d", h.Sum32()%1000)
}

// ProviderDisplayName picks the name claim, then the email local part, then "User".
func ProviderDisplayName(claims *entity.AuthClaims) string {
	if name := strings.TrimSpace(claims.Name); name != "" {
		return name
	}
	if at := strings.Index(claims.Email, "@"); at > 0 {
		return claims.Email[:at]
	}
	return "User"
}
