package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"
)

const resetSubject = "Reset your password"

// Config selects the SES region, credentials and sender address.
type Config struct {
	Region    string
	AccessKey string
	SecretKey string
	From      string
}

type sendAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer sends transactional mail through Amazon SES v2.
type SESMailer struct {
	api  sendAPI
	from string
}

func NewSESMailer(ctx context.Context, cfg Config) (*SESMailer, error) {
	if cfg.From == "" {
		return nil, errors.New("mail: sender address is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: load config: %w", err)
	}
	return &SESMailer{api: sesv2.NewFromConfig(awsCfg), from: cfg.From}, nil
}

func (m *SESMailer) SendPasswordReset(ctx context.Context, to, fullName, link string) error {
	body := resetBody(fullName, link)
	out, err := m.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(resetSubject)},
				Body:    &types.Body{Text: &types.Content{Data: aws.String(body)}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	if out == nil {
		return errors.New("ses send: empty response")
	}
	return nil
}

func resetBody(fullName, link string) string {
	greeting := "Hello,"
	if fullName != "" {
		greeting = fmt.Sprintf("Hello %s,", fullName)
	}
	return fmt.Sprintf("%s\n\nWe received a request to reset your password. Open the link below within one hour to choose a new one:\n\n%s\n\nIf you did not ask for this, you can ignore this email.\n", greeting, link)
}

// LogMailer writes reset links to the log instead of sending them. Used when
// no mail provider is configured.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, _, link string) error {
	m.log.Info().Str("to", to).Str("link", link).Msg("password reset email (not sent)")
	return nil
}
