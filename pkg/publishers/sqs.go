package publishers

import (
	"context"
	"fmt"

	"github.com/Adda-Baaj/newsscrape/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type awsSQSSender struct {
	queueURL string
	client   sqsClient
	log      logger.Logger
}

func newSQSPublisher(ctx context.Context, cfg Config, log logger.Logger) (Publisher, error) {
	if cfg.SQS == nil {
		return nil, fmt.Errorf("publisher %q missing sqs configuration", cfg.ID)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.SQS.Region)
	if err != nil {
		return nil, err
	}
	sender := &awsSQSSender{
		queueURL: cfg.SQS.QueueURL,
		client:   sqs.NewFromConfig(awsCfg),
		log:      logger.Ensure(log),
	}
	return &queuePublisher{id: cfg.ID, typ: TypeSQS, sender: sender}, nil
}

// Send enqueues the JSON event with its routing attributes.
func (s *awsSQSSender) Send(ctx context.Context, evt Event) error {
	body, err := evt.body()
	if err != nil {
		return err
	}
	attrs := make(map[string]types.MessageAttributeValue, 2)
	for k, v := range evt.attributes() {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}

	out, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sqs send to %s: %w", s.queueURL, err)
	}
	s.log.DebugObj("sqs accepted event", "publisher_delivery", map[string]any{
		"queue":      s.queueURL,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}
