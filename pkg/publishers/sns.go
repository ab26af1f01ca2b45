package publishers

import (
	"context"
	"fmt"

	"github.com/Adda-Baaj/newsscrape/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type awsSNSSender struct {
	topicARN string
	client   snsClient
	log      logger.Logger
}

func newSNSPublisher(ctx context.Context, cfg Config, log logger.Logger) (Publisher, error) {
	if cfg.SNS == nil {
		return nil, fmt.Errorf("publisher %q missing sns configuration", cfg.ID)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.SNS.Region)
	if err != nil {
		return nil, err
	}
	sender := &awsSNSSender{
		topicARN: cfg.SNS.TopicARN,
		client:   sns.NewFromConfig(awsCfg),
		log:      logger.Ensure(log),
	}
	return &queuePublisher{id: cfg.ID, typ: TypeSNS, sender: sender}, nil
}

// Send publishes the JSON event to the topic with its routing attributes.
func (s *awsSNSSender) Send(ctx context.Context, evt Event) error {
	body, err := evt.body()
	if err != nil {
		return err
	}
	attrs := make(map[string]types.MessageAttributeValue, 2)
	for k, v := range evt.attributes() {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Message:           aws.String(body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sns publish to %s: %w", s.topicARN, err)
	}
	s.log.DebugObj("sns accepted event", "publisher_delivery", map[string]any{
		"topic":      s.topicARN,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}
