package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"clinical-assistant/internal/domain"
)

const (
	skMeta      = "META#"
	ttlDuration = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client wraps a DynamoDB table holding generated reports.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

// reportPK returns the DynamoDB partition key for a report.
func reportPK(reportID string) string {
	return "REPORT#" + reportID
}

func (c *Client) ttlValue() int64 {
	return c.now().Add(ttlDuration).Unix()
}

// SaveReport writes a report once. Reports are immutable, so an existing id
// is rejected.
func (c *Client) SaveReport(ctx context.Context, report domain.Report) error {
	if strings.TrimSpace(report.ID) == "" {
		return errors.New("repository: SaveReport: report id is required")
	}
	if report.TTL == 0 {
		report.TTL = c.ttlValue()
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                reportItem(report),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveReport: %w", err)
	}
	return nil
}

// GetReport loads a report by id. found is false when no item exists.
func (c *Client) GetReport(ctx context.Context, reportID string) (domain.Report, bool, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: reportPK(reportID)},
			"SK": &types.AttributeValueMemberS{Value: skMeta},
		},
	})
	if err != nil {
		return domain.Report{}, false, fmt.Errorf("repository: GetReport get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Report{}, false, nil
	}

	report, err := itemToReport(out.Item)
	if err != nil {
		return domain.Report{}, false, fmt.Errorf("repository: GetReport unmarshal: %w", err)
	}
	return report, true, nil
}

func reportItem(r domain.Report) map[string]types.AttributeValue {
	links := make([]types.AttributeValue, 0, len(r.PriceLinks))
	for _, l := range r.PriceLinks {
		links = append(links, &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"medication": &types.AttributeValueMemberS{Value: l.Medication},
			"url":        &types.AttributeValueMemberS{Value: l.URL},
		}})
	}
	return map[string]types.AttributeValue{
		"PK":          &types.AttributeValueMemberS{Value: reportPK(r.ID)},
		"SK":          &types.AttributeValueMemberS{Value: skMeta},
		"reportId":    &types.AttributeValueMemberS{Value: r.ID},
		"summary":     &types.AttributeValueMemberS{Value: r.Summary},
		"symptoms":    stringList(r.Symptoms),
		"medications": stringList(r.Medications),
		"priceLinks":  &types.AttributeValueMemberL{Value: links},
		"provider":    &types.AttributeValueMemberS{Value: r.Provider},
		"createdAt":   &types.AttributeValueMemberS{Value: r.CreatedAt},
		"ttl":         &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", r.TTL)},
	}
}

// itemToReport converts a DynamoDB attribute map to a Report.
func itemToReport(item map[string]types.AttributeValue) (domain.Report, error) {
	id, err := strAttr(item, "reportId")
	if err != nil {
		return domain.Report{}, err
	}
	summary, err := strAttr(item, "summary")
	if err != nil {
		return domain.Report{}, err
	}
	symptoms, err := stringListAttr(item, "symptoms")
	if err != nil {
		return domain.Report{}, err
	}
	medications, err := stringListAttr(item, "medications")
	if err != nil {
		return domain.Report{}, err
	}
	links, err := priceLinksAttr(item, "priceLinks")
	if err != nil {
		return domain.Report{}, err
	}
	provider, _ := strAttr(item, "provider")   // allow empty
	createdAt, _ := strAttr(item, "createdAt") // allow empty
	ttl, _ := intAttr(item, "ttl")

	return domain.Report{
		ID:          id,
		Summary:     summary,
		Symptoms:    symptoms,
		Medications: medications,
		PriceLinks:  links,
		Provider:    provider,
		CreatedAt:   createdAt,
		TTL:         int64(ttl),
	}, nil
}

func stringList(values []string) *types.AttributeValueMemberL {
	out := make([]types.AttributeValue, 0, len(values))
	for _, v := range values {
		out = append(out, &types.AttributeValueMemberS{Value: v})
	}
	return &types.AttributeValueMemberL{Value: out}
}

func stringListAttr(item map[string]types.AttributeValue, key string) ([]string, error) {
	v, ok := item[key]
	if !ok {
		return []string{}, nil
	}
	l, ok := v.(*types.AttributeValueMemberL)
	if !ok {
		return nil, fmt.Errorf("repository: attribute %q is not a list", key)
	}
	out := make([]string, 0, len(l.Value))
	for i, el := range l.Value {
		s, ok := el.(*types.AttributeValueMemberS)
		if !ok {
			return nil, fmt.Errorf("repository: attribute %q[%d] is not a string", key, i)
		}
		out = append(out, s.Value)
	}
	return out, nil
}

func priceLinksAttr(item map[string]types.AttributeValue, key string) ([]domain.PriceLink, error) {
	v, ok := item[key]
	if !ok {
		return []domain.PriceLink{}, nil
	}
	l, ok := v.(*types.AttributeValueMemberL)
	if !ok {
		return nil, fmt.Errorf("repository: attribute %q is not a list", key)
	}
	out := make([]domain.PriceLink, 0, len(l.Value))
	for i, el := range l.Value {
		m, ok := el.(*types.AttributeValueMemberM)
		if !ok {
			return nil, fmt.Errorf("repository: attribute %q[%d] is not a map", key, i)
		}
		med, err := strAttr(m.Value, "medication")
		if err != nil {
			return nil, err
		}
		url, err := strAttr(m.Value, "url")
		if err != nil {
			return nil, err
		}
		out = append(out, domain.PriceLink{Medication: med, URL: url})
	}
	return out, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
