package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const defaultRegion = "us-east-1"

// Client publishes export notifications.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// SendAPI is the part of the SQS client used to publish.
type SendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSClient publishes to a standard or FIFO queue. FIFO queues group and
// deduplicate by export id so a retried create never fans out twice.
type SQSClient struct {
	client   SendAPI
	queueURL string
	fifo     bool
}

func NewSQSClient(ctx context.Context, queueURL, region string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("EXPORT_QUEUE_URL is required")
	}
	if strings.TrimSpace(region) == "" {
		region = defaultRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSQSClientWith(sqs.NewFromConfig(cfg), queueURL), nil
}

func NewSQSClientWith(client SendAPI, queueURL string) *SQSClient {
	return &SQSClient{client: client, queueURL: queueURL, fifo: strings.HasSuffix(queueURL, ".fifo")}
}

func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode export message: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
	}
	if msg.RequestID != "" {
		input.MessageAttributes = map[string]sqstypes.MessageAttributeValue{
			"RequestId": {DataType: aws.String("String"), StringValue: aws.String(msg.RequestID)},
		}
	}
	if s.fifo {
		input.MessageGroupId = aws.String(msg.ExportID)
		input.MessageDeduplicationId = aws.String(msg.ExportID)
	}
	if _, err := s.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}
