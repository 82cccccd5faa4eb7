// Package session serializes recording reconciliation per meeting across
// processes.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrLocked means another process holds the reconcile lock for the meeting.
var ErrLocked = errors.New("meeting is locked by another process")

const DefaultTTL = 5 * time.Minute

// Lease is a held reconcile lock.
type Lease struct {
	MeetingID string `dynamodbav:"meeting_id"`
	Owner     string `dynamodbav:"owner"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// Locker grants exclusive leases on meeting ids. Only one reconcile pass per
// meeting may run at a time; a second acquisition returns ErrLocked.
type Locker interface {
	Acquire(ctx context.Context, meetingID int64, owner string) (*Lease, error)
	Release(ctx context.Context, meetingID int64, owner string) error
}

// DynamoLocker implements Locker on a DynamoDB table with a TTL attribute, so
// crashed holders expire without operator intervention.
type DynamoLocker struct {
	client    *dynamodb.Client
	tableName string
	ttl       time.Duration
}

func NewDynamoLocker(client *dynamodb.Client, tableName string) *DynamoLocker {
	return &DynamoLocker{client: client, tableName: tableName, ttl: DefaultTTL}
}

// Acquire takes the lock unless a live lease held by someone else exists.
// Re-acquiring a lease you already own refreshes its expiry.
func (l *DynamoLocker) Acquire(ctx context.Context, meetingID int64, owner string) (*Lease, error) {
	now := time.Now().Unix()
	lease := Lease{
		MeetingID: fmt.Sprintf("%d", meetingID),
		Owner:     owner,
		ExpiresAt: now + int64(l.ttl.Seconds()),
	}

	item, err := attributevalue.MarshalMap(lease)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lease: %w", err)
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.tableName),
		Item:      item,
		ConditionExpression: aws.String(
			"attribute_not_exists(meeting_id) OR expires_at < :now OR #o = :owner",
		),
		ExpressionAttributeNames: map[string]string{"#o": "owner"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now)},
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return &lease, nil
}

// Release drops the lease if owner still holds it. Releasing a lease that
// already expired and was taken over is not an error worth surfacing.
func (l *DynamoLocker) Release(ctx context.Context, meetingID int64, owner string) error {
	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"meeting_id": &types.AttributeValueMemberS{Value: fmt.Sprintf("%d", meetingID)},
		},
		ConditionExpression: aws.String("#o = :owner"),
		ExpressionAttributeNames: map[string]string{"#o": "owner"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return nil
		}
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
