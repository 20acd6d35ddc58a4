package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"groupchat/internal/domain/entity"
)

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

func (f *FirebaseAuthClient) VerifyIDToken(ctx context.Context, idToken string) (*entity.AuthClaims, error) {
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	return ClaimsFromToken(token), nil
}

// ClaimsFromToken extracts the fields the chat cares about from a verified token.
func ClaimsFromToken(token *auth.Token) *entity.AuthClaims {
	claims := &entity.AuthClaims{
		UID:            token.UID,
		SignInProvider: token.Firebase.SignInProvider,
	}
	if name, ok := token.Claims["name"].(string); ok {
		claims.Name = name
	}
	if email, ok := token.Claims["email"].(string); ok {
		claims.Email = email
	}
	return claims
}
