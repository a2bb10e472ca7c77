// Command grantadmin gives a user admin access to the storefront API.
//
// With AUTH_PROVIDER=firebase it sets the admin custom claim on the Firebase user found by
// --email and revokes their refresh tokens so the claim shows up on the next sign-in.
// With AUTH_PROVIDER=jwt it prints a signed admin token. --hash-dev-token prints the bcrypt hash
// to put in AUTH_DEV_TOKEN_HASH.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/spf13/pflag"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/pkg/firebase"
)

type options struct {
	email        string
	uid          string
	ttl          time.Duration
	hashDevToken string
}

// adminClaimer is the part of the Firebase auth client this command needs.
type adminClaimer interface {
	GetUserByEmail(ctx context.Context, email string) (*fbauth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	if err := run(context.Background(), opts, os.Stdout); err != nil {
		log.Fatalf("FAILED: %v", err)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("grantadmin", pflag.ContinueOnError)
	fs.StringVar(&opts.email, "email", "", "email of the user to grant admin")
	fs.StringVar(&opts.uid, "uid", "", "subject for a minted JWT (defaults to the email)")
	fs.DurationVar(&opts.ttl, "ttl", 24*time.Hour, "lifetime of a minted JWT")
	fs.StringVar(&opts.hashDevToken, "hash-dev-token", "", "print the bcrypt hash of a development token and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.email == "" && len(fs.Args()) > 0 {
		opts.email = fs.Arg(0)
	}
	if opts.hashDevToken == "" && opts.email == "" {
		return options{}, errors.New("provide --email, e.g. grantadmin --email admin@example.com")
	}
	return opts, nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if opts.hashDevToken != "" {
		hash, err := auth.HashToken(opts.hashDevToken)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "AUTH_DEV_TOKEN_HASH=%s\n", hash)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch cfg.AuthProvider {
	case config.ProviderJWT:
		return mintToken(cfg.JWTSecret, opts, out)
	case config.ProviderFirebase:
		app, err := firebase.NewApp(ctx, firebase.Credentials{
			ProjectID: cfg.FirebaseProjectID,
			JSON:      cfg.FirebaseCredentialsJSON,
			Base64:    cfg.FirebaseCredentialsBase64,
			AllowADC:  true,
		})
		if err != nil {
			return err
		}
		client, err := app.Auth(ctx)
		if err != nil {
			return fmt.Errorf("failed to create Firebase Auth client: %w", err)
		}
		return grantClaim(ctx, client, opts.email, out)
	default:
		return fmt.Errorf("unsupported AUTH_PROVIDER %q", cfg.AuthProvider)
	}
}

func mintToken(secret string, opts options, out io.Writer) error {
	subject := opts.uid
	if subject == "" {
		subject = opts.email
	}
	token, err := auth.NewJWTVerifier(secret).Issue(subject, opts.email, true, opts.ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func grantClaim(ctx context.Context, client adminClaimer, email string, out io.Writer) error {
	user, err := client.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", email, err)
	}
	if err := client.SetCustomUserClaims(ctx, user.UID, map[string]interface{}{"admin": true}); err != nil {
		return fmt.Errorf("set admin claim: %w", err)
	}
	if err := client.RevokeRefreshTokens(ctx, user.UID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}

	fmt.Fprintf(out, "SUCCESS: Granted admin claim to %s (uid: %s).\n", email, user.UID)
	fmt.Fprintln(out, "The user must sign in again (or force a token refresh) to pick up the claim.")
	return nil
}
