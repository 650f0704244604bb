package conf

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretFetcher returns the raw string value of a named secret.
type SecretFetcher func(ctx context.Context, secretName string) (string, error)

// jwtKeyFromSecret reads a secret shaped {"jwt_key": "..."}.
func jwtKeyFromSecret(ctx context.Context, fetch SecretFetcher, secretName string) ([]byte, error) {
	secretValue, err := fetch(ctx, secretName)
	if err != nil {
		return nil, fmt.Errorf("failed to get jwt key from AWS: %w", err)
	}
	var secret struct {
		JwtKey string `json:"jwt_key"`
	}
	if err := json.Unmarshal([]byte(secretValue), &secret); err != nil {
		return nil, fmt.Errorf("failed to parse jwt key secret: %w", err)
	}
	if secret.JwtKey == "" {
		return nil, fmt.Errorf("secret %s has no jwt_key", secretName)
	}
	return []byte(secret.JwtKey), nil
}

func GetSecretFromAWS(ctx context.Context, secretName string) (string, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}
	svc := secretsmanager.NewFromConfig(cfg)
	input := &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	result, err := svc.GetSecretValue(ctx, input)
	if err != nil {
		return "", err
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretName)
	}
	return *result.SecretString, nil
}
