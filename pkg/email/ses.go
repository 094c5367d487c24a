package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESSendEmailAPI is the slice of the SES v2 client used here
type SESSendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer delivers the raw MIME message through Amazon SES. The sender
// address must be verified in SES beforehand.
type SESMailer struct {
	client  SESSendEmailAPI
	timeout time.Duration
}

var _ Sender = (*SESMailer)(nil)

// NewSESMailer loads AWS credentials from the default chain
func NewSESMailer(ctx context.Context, region string, timeout time.Duration) (*SESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESMailerWithClient(sesv2.NewFromConfig(cfg), timeout), nil
}

func NewSESMailerWithClient(client SESSendEmailAPI, timeout time.Duration) *SESMailer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SESMailer{client: client, timeout: timeout}
}

func (s *SESMailer) Send(ctx context.Context, msg *Message) error {
	raw, err := msg.Bytes()
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From.Email),
		Destination:      &types.Destination{ToAddresses: msg.Recipients()},
		Content:          &types.EmailContent{Raw: &types.RawMessage{Data: raw}},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
