package devauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tractify/tractify-go/internal/domain/session"
	"github.com/tractify/tractify-go/internal/ports"
)

func TestProvider_SignInAndToken(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}

	cred, err := prov.SignIn(context.Background(), "Dev@Example.com", "hunter2")
	if err != nil {
		t.Fatalf("SignIn error: %v", err)
	}
	if cred.UserID != "dev-user" || cred.Email != "dev@example.com" {
		t.Fatalf("unexpected credential: %+v", cred)
	}
	if !cred.EmailVerified {
		t.Fatal("seed account should be verified")
	}

	token, err := prov.Token(context.Background(), false)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	claims, err := session.DecodeClaims(token)
	if err != nil {
		t.Fatalf("DecodeClaims error: %v", err)
	}
	if claims.Subject != "dev-user" || claims.Email != "dev@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Expired(time.Now()) {
		t.Fatal("freshly minted token should not be expired")
	}
}

func TestProvider_SignInFailures(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}

	_, err = prov.SignIn(context.Background(), "nobody@example.com", "hunter2")
	var perr *ports.ProviderError
	if !errors.As(err, &perr) || perr.Code != ports.CodeUserNotFound {
		t.Fatalf("expected user-not-found, got %v", err)
	}

	_, err = prov.SignIn(context.Background(), "dev@example.com", "wrong")
	if !errors.As(err, &perr) || perr.Code != ports.CodeWrongPassword {
		t.Fatalf("expected wrong-password, got %v", err)
	}
}

func TestProvider_SignUpAndVerify(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}

	cred, err := prov.SignUp(context.Background(), "new@example.com", "secret")
	if err != nil {
		t.Fatalf("SignUp error: %v", err)
	}
	if cred.EmailVerified {
		t.Fatal("new accounts should start unverified")
	}

	_, err = prov.SignUp(context.Background(), "new@example.com", "secret")
	var perr *ports.ProviderError
	if !errors.As(err, &perr) || perr.Code != ports.CodeEmailAlreadyInUse {
		t.Fatalf("expected email-already-in-use, got %v", err)
	}

	if verifyErr := prov.SendVerificationEmail(context.Background(), cred); verifyErr != nil {
		t.Fatalf("SendVerificationEmail error: %v", verifyErr)
	}
	signed, err := prov.SignIn(context.Background(), "new@example.com", "secret")
	if err != nil {
		t.Fatalf("SignIn after verify error: %v", err)
	}
	if !signed.EmailVerified {
		t.Fatal("account should be verified after SendVerificationEmail")
	}
}

func TestProvider_AwaitIdentity(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	if _, ok, _ := prov.AwaitIdentity(context.Background()); ok {
		t.Fatal("expected anonymous without AutoSignIn")
	}

	auto, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com", Password: "hunter2", AutoSignIn: true})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	cred, ok, err := auto.AwaitIdentity(context.Background())
	if err != nil {
		t.Fatalf("AwaitIdentity error: %v", err)
	}
	if !ok || cred.UserID != "dev-user" {
		t.Fatalf("expected seed identity, got ok=%v cred=%+v", ok, cred)
	}
}

func TestProvider_TokenWithoutIdentity(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	if _, tokErr := prov.Token(context.Background(), false); tokErr == nil {
		t.Fatal("expected error without a signed-in identity")
	}

	if _, signErr := prov.SignIn(context.Background(), "dev@example.com", "hunter2"); signErr != nil {
		t.Fatalf("SignIn error: %v", signErr)
	}
	if outErr := prov.SignOut(context.Background()); outErr != nil {
		t.Fatalf("SignOut error: %v", outErr)
	}
	if _, tokErr := prov.Token(context.Background(), false); tokErr == nil {
		t.Fatal("expected error after sign-out")
	}
}
