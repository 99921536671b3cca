// Package dynamorepos stores check-in attempts in DynamoDB.
package dynamorepos

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/geo"
)

const (
	batchSize       = 25 // BatchWriteItem limit
	maxBatchRetries = 5
)

var errNoClient = errors.New("DynamoDB client not initialized")

// API is the subset of *dynamodb.Client used here.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// NewClient builds a client from the default AWS credential chain.
func NewClient(ctx context.Context, conf core.DynamoDBConfig) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(conf.Region))
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
	}), nil
}

// attemptItem is the table layout; "id" is the partition key.
type attemptItem struct {
	ID             string    `dynamodbav:"id"`
	PRN            string    `dynamodbav:"prn"`
	FullName       string    `dynamodbav:"full_name"`
	SubmittedAt    string    `dynamodbav:"submitted_at"` // RFC3339Nano, UTC
	Location       geo.Point `dynamodbav:"location"`
	DistanceMeters *float64  `dynamodbav:"distance_meters,omitempty"`
	Admitted       bool      `dynamodbav:"admitted"`
	Outcome        string    `dynamodbav:"outcome"`
}

func toItem(a attendance.CheckInAttempt) attemptItem {
	return attemptItem{
		ID:             a.ID.String(),
		PRN:            a.PRN,
		FullName:       a.FullName,
		SubmittedAt:    a.SubmittedAt.UTC().Format(time.RFC3339Nano),
		Location:       a.Location,
		DistanceMeters: a.DistanceMeters,
		Admitted:       a.Admitted,
		Outcome:        string(a.Outcome),
	}
}

func (it attemptItem) attempt() (attendance.CheckInAttempt, error) {
	id, err := uuid.Parse(it.ID)
	if err != nil {
		return attendance.CheckInAttempt{}, errors.Wrapf(err, "parsing id %q", it.ID)
	}
	submittedAt, err := time.Parse(time.RFC3339Nano, it.SubmittedAt)
	if err != nil {
		return attendance.CheckInAttempt{}, errors.Wrapf(err, "parsing submitted_at %q", it.SubmittedAt)
	}
	return attendance.CheckInAttempt{
		ID:             id,
		PRN:            it.PRN,
		FullName:       it.FullName,
		SubmittedAt:    submittedAt.UTC(),
		Location:       it.Location,
		DistanceMeters: it.DistanceMeters,
		Admitted:       it.Admitted,
		Outcome:        attendance.Outcome(it.Outcome),
	}, nil
}

type attemptRepository struct {
	client    API
	tableName string
	logger    core.Logger
}

var _ attendance.RecordStore = (*attemptRepository)(nil) // interface compliance check

func NewAttemptRepository(client API, tableName string, logger core.Logger) attendance.RecordStore {
	return &attemptRepository{client: client, tableName: tableName, logger: logger}
}

func (repo *attemptRepository) SaveAttempt(ctx context.Context, attempt attendance.CheckInAttempt) (attendance.CheckInAttempt, error) {
	if repo.client == nil {
		return attendance.CheckInAttempt{}, errNoClient
	}
	item, err := attributevalue.MarshalMap(toItem(attempt))
	if err != nil {
		return attendance.CheckInAttempt{}, errors.Wrap(err, "marshalling check-in attempt")
	}
	_, err = repo.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(repo.tableName),
		Item:      item,
	})
	if err != nil {
		return attendance.CheckInAttempt{}, errors.Wrap(err, "putting check-in attempt")
	}
	return attempt, nil
}

// scan walks the whole table, page by page. filter.PRN is pushed down to DynamoDB.
func (repo *attemptRepository) scan(ctx context.Context, prn string, projection string) ([]map[string]types.AttributeValue, error) {
	if repo.client == nil {
		return nil, errNoClient
	}

	var (
		items            []map[string]types.AttributeValue
		lastEvaluatedKey map[string]types.AttributeValue
	)
	for {
		input := &dynamodb.ScanInput{
			TableName:         aws.String(repo.tableName),
			ExclusiveStartKey: lastEvaluatedKey,
		}
		if prn != "" {
			input.FilterExpression = aws.String("prn = :prn")
			input.ExpressionAttributeValues = map[string]types.AttributeValue{
				":prn": &types.AttributeValueMemberS{Value: prn},
			}
		}
		if projection != "" {
			input.ProjectionExpression = aws.String(projection)
		}

		out, err := repo.client.Scan(ctx, input)
		if err != nil {
			return nil, errors.Wrap(err, "scanning check-in attempts")
		}
		items = append(items, out.Items...)

		lastEvaluatedKey = out.LastEvaluatedKey
		if len(lastEvaluatedKey) == 0 {
			break
		}
	}
	return items, nil
}

func (repo *attemptRepository) QueryAttempts(ctx context.Context, filter *attendance.QueryFilter, ordering []core.DBOrdering) ([]attendance.CheckInAttempt, error) {
	var prn string
	if filter != nil {
		prn = filter.PRN
	}
	items, err := repo.scan(ctx, prn, "")
	if err != nil {
		return nil, err
	}

	attempts := make([]attendance.CheckInAttempt, 0, len(items))
	for _, raw := range items {
		var it attemptItem
		if err = attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, errors.Wrap(err, "unmarshalling check-in attempt")
		}
		a, err := it.attempt()
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}

	attempts = attendance.FilterAttempts(attempts, filter)
	attendance.SortAttempts(attempts, ordering)
	return attempts, nil
}

func (repo *attemptRepository) DeleteAllAttempts(ctx context.Context) (int64, error) {
	items, err := repo.scan(ctx, "", "id")
	if err != nil {
		return 0, err
	}

	var deleted int64
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		requests := make([]types.WriteRequest, 0, end-start)
		for _, item := range items[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: map[string]types.AttributeValue{"id": item["id"]}},
			})
		}
		if err = repo.batchWrite(ctx, requests); err != nil {
			return deleted, err
		}
		deleted += int64(len(requests))
	}
	return deleted, nil
}

// batchWrite retries unprocessed requests with a growing delay.
func (repo *attemptRepository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{repo.tableName: requests}
	for attempt := 1; len(pending[repo.tableName]) > 0; attempt++ {
		if attempt > maxBatchRetries {
			return errors.Errorf("%d deletes left unprocessed", len(pending[repo.tableName]))
		}
		out, err := repo.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return errors.Wrap(err, "deleting check-in attempts")
		}
		pending = out.UnprocessedItems
		if len(pending[repo.tableName]) > 0 {
			repo.logger.Warn("retrying unprocessed DynamoDB deletes")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
	}
	return nil
}
