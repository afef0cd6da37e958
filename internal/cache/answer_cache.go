package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// AnswerCache memoizes per-document generated artifacts (summary and
// suggested questions) in Redis. The relational row is the source of truth;
// entries are invalidated when the document is deleted or reindexed.
type AnswerCache struct {
	client       *redisv9.Client
	summaryTTL   time.Duration
	questionsTTL time.Duration
}

func NewAnswerCache(client *redisv9.Client, summaryTTL, questionsTTL time.Duration) *AnswerCache {
	if summaryTTL <= 0 {
		summaryTTL = time.Hour
	}
	if questionsTTL <= 0 {
		questionsTTL = time.Hour
	}
	return &AnswerCache{
		client:       client,
		summaryTTL:   summaryTTL,
		questionsTTL: questionsTTL,
	}
}

func (c *AnswerCache) GetSummary(ctx context.Context, documentID uint) (string, bool, error) {
	raw, err := c.client.Get(ctx, c.summaryKey(documentID)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get summary failed: %w", err)
	}
	return raw, true, nil
}

func (c *AnswerCache) SetSummary(ctx context.Context, documentID uint, summary string) error {
	if err := c.client.Set(ctx, c.summaryKey(documentID), summary, c.summaryTTL).Err(); err != nil {
		return fmt.Errorf("redis set summary failed: %w", err)
	}
	return nil
}

func (c *AnswerCache) GetQuestions(ctx context.Context, documentID uint) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, c.questionsKey(documentID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get questions failed: %w", err)
	}
	var questions []string
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached questions failed: %w", err)
	}
	return questions, true, nil
}

func (c *AnswerCache) SetQuestions(ctx context.Context, documentID uint, questions []string) error {
	payload, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal questions cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.questionsKey(documentID), payload, c.questionsTTL).Err(); err != nil {
		return fmt.Errorf("redis set questions failed: %w", err)
	}
	return nil
}

// Invalidate drops every cached artifact for the document.
func (c *AnswerCache) Invalidate(ctx context.Context, documentID uint) error {
	if err := c.client.Del(ctx, c.summaryKey(documentID), c.questionsKey(documentID)).Err(); err != nil {
		return fmt.Errorf("redis invalidate document cache failed: %w", err)
	}
	return nil
}

func (c *AnswerCache) summaryKey(documentID uint) string {
	return fmt.Sprintf("doc:summary:%d", documentID)
}

func (c *AnswerCache) questionsKey(documentID uint) string {
	return fmt.Sprintf("doc:questions:%d", documentID)
}
