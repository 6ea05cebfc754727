package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSAPI is the slice of the SNS client used by the publisher.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher delivers messages to an SNS topic.
type Publisher interface {
	Publish(ctx context.Context, topicARN, subject, message string) error
}

// SNSPublisher is the production Publisher backed by AWS SNS.
type SNSPublisher struct {
	client SNSAPI
}

// NewSNSClient builds an SNS client from the ambient AWS configuration
// (environment, shared credentials, instance role).
func NewSNSClient(ctx context.Context) (*sns.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sns.NewFromConfig(cfg), nil
}

func NewSNSPublisher(client SNSAPI) (*SNSPublisher, error) {
	if client == nil {
		return nil, errors.New("sns client is required")
	}
	return &SNSPublisher{client: client}, nil
}

func (p *SNSPublisher) Publish(ctx context.Context, topicARN, subject, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Message:  aws.String(message),
	}
	if subject != "" {
		input.Subject = aws.String(subject)
	}

	if _, err := p.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("publish to %s: %w", topicARN, err)
	}
	return nil
}
