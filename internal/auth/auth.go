// Package auth resolves provider credentials from the environment, falling
// back to AWS SSM Parameter Store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// Environment variables holding provider keys.
const (
	FALKeyEnv    = "FAL_KEY"
	GeminiKeyEnv = "GEMINI_API_KEY"
)

// ErrMissingCredential means no source produced a key.
var ErrMissingCredential = errors.New("provider credential missing")

// ParameterStore is the part of the SSM client used to read secrets.
type ParameterStore interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NewParameterStore loads the default AWS config and returns an SSM client.
func NewParameterStore(ctx context.Context) (*ssm.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return ssm.NewFromConfig(cfg), nil
}

// GetAPIKey returns the key in envVar, or else the decrypted value of the
// SSM parameter paramName. store may be nil when SSM is not configured.
func GetAPIKey(ctx context.Context, envVar, paramName string, store ParameterStore) (string, error) {
	if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
		log.Debug().Str("source", envVar).Msg("Using API key from environment variable")
		return key, nil
	}
	if paramName == "" || store == nil {
		return "", fmt.Errorf("%w: set %s", ErrMissingCredential, envVar)
	}

	ssmStart := time.Now()
	result, err := store.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		log.Error().Err(err).Str("param", paramName).Msg("Failed to read API key from SSM")
		return "", fmt.Errorf("%w: SSM parameter %s: %v", ErrMissingCredential, paramName, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return "", fmt.Errorf("%w: SSM parameter %s is empty", ErrMissingCredential, paramName)
	}

	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("API key loaded from SSM")
	return strings.TrimSpace(*result.Parameter.Value), nil
}
