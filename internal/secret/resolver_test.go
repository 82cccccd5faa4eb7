package secret

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	lastInput *ssm.GetParameterInput
	value     string
}

func (f *fakeSSM) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastInput = params
	return &ssm.GetParameterOutput{
		Parameter: &types.Parameter{Value: aws.String(f.value)},
	}, nil
}

func TestSSMResolverComposesParameterPath(t *testing.T) {
	client := &fakeSSM{value: "hunter2"}
	r := NewSSMResolver(client, "/meetsync/")

	val, err := r.Resolve(context.Background(), JWTSigningKey)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", val)

	require.NotNil(t, client.lastInput)
	assert.Equal(t, "/meetsync/jwt-signing-key", aws.ToString(client.lastInput.Name))
	assert.True(t, aws.ToBool(client.lastInput.WithDecryption))
}

func TestEnvVarFor(t *testing.T) {
	assert.Equal(t, "JWT_SIGNING_KEY", envVarFor(JWTSigningKey))
	assert.Equal(t, "CALENDAR_CREDENTIALS", envVarFor(CalendarCredentials))
}

func TestEnvResolver(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "hunter2")

	r := NewEnvResolver()
	val, err := r.Resolve(context.Background(), JWTSigningKey)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", val)

	_, err = r.Resolve(context.Background(), CalendarCredentials)
	assert.Error(t, err)
}
