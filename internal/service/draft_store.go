package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Jvjesus89/ERPapp/internal/sale"
)

// ErrNoDraft is returned when a draft operation finds no open draft for the
// user. Handlers map it to 404.
var ErrNoDraft = errors.New("no open sale draft")

// draftTTL keeps abandoned drafts from accumulating forever. A day is long
// enough to survive any realistic app session.
const draftTTL = 24 * time.Hour

// DraftStore persists the per-user open draft between requests. One draft
// per user: saving overwrites, deleting discards.
type DraftStore interface {
	Load(ctx context.Context, companyID, userID uuid.UUID) (*sale.Draft, error)
	Save(ctx context.Context, companyID, userID uuid.UUID, d *sale.Draft) error
	Delete(ctx context.Context, companyID, userID uuid.UUID) error
}

type redisDraftStore struct {
	rdb *redis.Client
}

func NewRedisDraftStore(rdb *redis.Client) DraftStore {
	return &redisDraftStore{rdb: rdb}
}

func draftKey(companyID, userID uuid.UUID) string {
	return fmt.Sprintf("sale:draft:%s:%s", companyID, userID)
}

func (s *redisDraftStore) Load(ctx context.Context, companyID, userID uuid.UUID) (*sale.Draft, error) {
	data, err := s.rdb.Get(ctx, draftKey(companyID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, err
	}
	var d sale.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *redisDraftStore) Save(ctx context.Context, companyID, userID uuid.UUID, d *sale.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, draftKey(companyID, userID), data, draftTTL).Err()
}

func (s *redisDraftStore) Delete(ctx context.Context, companyID, userID uuid.UUID) error {
	return s.rdb.Del(ctx, draftKey(companyID, userID)).Err()
}
