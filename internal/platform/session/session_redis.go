// Package session はリフレッシュトークンセッションのRedis実装を提供します。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pricing_backend/internal/feature/auth/domain/entity"
	"pricing_backend/internal/feature/auth/usecase"
)

// RedisStore は usecase.SessionRepository をRedisで実装します。
//
// セッション本体は "<prefix>:<id>" に有効期限付きで保存し、ユーザーごとのセッションIDは
// 作成時刻をスコアとするソート済みセット "<prefix>:user:<id>" で管理します。
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ usecase.SessionRepository = (*RedisStore)(nil)

// NewRedisStore は RedisStore を生成します。
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// record はRedisに保存するセッションの表現です。
type record struct {
	ID        string     `json:"id"`
	UserID    uint       `json:"user_id"`
	UserAgent string     `json:"user_agent"`
	IPAddress string     `json:"ip_address"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

func (r *RedisStore) sessionKey(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

func (r *RedisStore) userKey(userID uint) string {
	return fmt.Sprintf("%s:user:%d", r.prefix, userID)
}

// Create はセッションを保存し、ユーザーのセッション一覧に追加します。
func (r *RedisStore) Create(ctx context.Context, s *entity.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	data, err := json.Marshal(record(*s))
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.sessionKey(s.ID), data, ttl)
	pipe.ZAdd(ctx, r.userKey(s.UserID), redis.Z{Score: float64(s.CreatedAt.UnixNano()), Member: s.ID})
	pipe.Expire(ctx, r.userKey(s.UserID), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// FindByID はセッションを取得します。存在しない（期限切れを含む）場合は ErrSessionNotFound を返します。
func (r *RedisStore) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	s := entity.Session(rec)
	return &s, nil
}

// Revoke はセッションを失効させます。残りの有効期限はそのまま保持します。
func (r *RedisStore) Revoke(ctx context.Context, id string) error {
	s, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if s.IsRevoked() {
		return usecase.ErrSessionNotFound
	}

	now := r.now()
	s.RevokedAt = &now
	data, err := json.Marshal(record(*s))
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.SetArgs(ctx, r.sessionKey(id), data, redis.SetArgs{KeepTTL: true})
	pipe.ZRem(ctx, r.userKey(s.UserID), id)
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteExpired は何もしません。期限切れのセッションはRedisのTTLで削除されます。
func (r *RedisStore) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}

// CountByUserID は有効なセッション数を返します。
func (r *RedisStore) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	ids, err := r.liveIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

// DeleteOldestByUserID は最も古い有効なセッションを削除します。
func (r *RedisStore) DeleteOldestByUserID(ctx context.Context, userID uint) error {
	ids, err := r.liveIDs(ctx, userID)
	if err != nil || len(ids) == 0 {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.sessionKey(ids[0]))
	pipe.ZRem(ctx, r.userKey(userID), ids[0])
	_, err = pipe.Exec(ctx)
	return err
}

// liveIDs は作成順に並んだ有効なセッションIDを返し、失われたエントリを一覧から取り除きます。
func (r *RedisStore) liveIDs(ctx context.Context, userID uint) ([]string, error) {
	ids, err := r.client.ZRange(ctx, r.userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	live := make([]string, 0, len(ids))
	var stale []any
	for _, id := range ids {
		s, err := r.FindByID(ctx, id)
		switch {
		case errors.Is(err, usecase.ErrSessionNotFound):
			stale = append(stale, id)
		case err != nil:
			return nil, err
		case s.IsValid(r.now()):
			live = append(live, id)
		}
	}
	if len(stale) > 0 {
		if err := r.client.ZRem(ctx, r.userKey(userID), stale...).Err(); err != nil {
			return nil, err
		}
	}
	return live, nil
}
