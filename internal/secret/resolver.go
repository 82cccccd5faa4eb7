// Package secret resolves the operator-provisioned secrets the service
// consumes, addressed by well-known name rather than raw parameter path.
package secret

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Name identifies one of the service's secrets.
type Name string

const (
	// CalendarCredentials is the provider service-account key, stored as
	// plain JSON or as a KMS-encrypted blob.
	CalendarCredentials Name = "calendar-credentials"
	// JWTSigningKey verifies the bearer tokens the host platform issues.
	JWTSigningKey Name = "jwt-signing-key"
)

// Resolver returns a secret's current value.
type Resolver interface {
	Resolve(ctx context.Context, name Name) (string, error)
}

// SSMClient is the subset of *ssm.Client methods used by SSMResolver.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMResolver reads secrets from SSM SecureString parameters laid out under
// one path prefix, e.g. /meetsync/calendar-credentials.
type SSMResolver struct {
	client SSMClient
	prefix string
}

func NewSSMResolver(client SSMClient, prefix string) *SSMResolver {
	return &SSMResolver{client: client, prefix: strings.TrimRight(prefix, "/")}
}

func (r *SSMResolver) Resolve(ctx context.Context, name Name) (string, error) {
	param := r.prefix + "/" + string(name)
	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(param),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("ssm get parameter %q: %w", param, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("ssm parameter %q has no value", param)
	}
	return *out.Parameter.Value, nil
}

// EnvResolver maps secret names onto environment variables for local runs:
// jwt-signing-key becomes JWT_SIGNING_KEY.
type EnvResolver struct{}

func NewEnvResolver() *EnvResolver {
	return &EnvResolver{}
}

func (r *EnvResolver) Resolve(_ context.Context, name Name) (string, error) {
	envName := envVarFor(name)
	val := os.Getenv(envName)
	if val == "" {
		return "", fmt.Errorf("environment variable %q (secret %q) is not set", envName, name)
	}
	return val, nil
}

func envVarFor(name Name) string {
	return strings.ToUpper(strings.ReplaceAll(string(name), "-", "_"))
}
