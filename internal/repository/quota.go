package repository

import (
	"context"
	"fmt"
	"time"
)

// 请求类型常量
const (
	RequestTypeAutocomplete = "autocomplete"
	RequestTypeDetails      = "details"
)

// 未鉴权的公开接口只能按全局日配额限流
// 一次会话为共用同一 token 的若干次 autocomplete 请求，
// 以一次 details 请求结束，或在数分钟内自然过期
const (
	// DailySessionLimit 每日会话数上限
	DailySessionLimit = 222
	// TokenAgeLimit 会话 token 的最大存活时间
	TokenAgeLimit = 2 * time.Minute
)

// QuotaRepository 地点检索接口的配额仓库
type QuotaRepository struct {
	db *DB
}

// NewQuotaRepository 创建配额仓库
func NewQuotaRepository(db *DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// CanMakeRequest 判断给定 token 是否允许发起地点检索请求
//   - 当日（UTC 自然日）会话总数未达上限
//   - token 对应未过期的活跃会话，或是全新 token
func (r *QuotaRepository) CanMakeRequest(ctx context.Context, token string) (bool, error) {
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)

	// 检查当日会话数
	var sessions int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM (
			SELECT token
			FROM places_requests
			GROUP BY token
			HAVING MIN(requested_at) > $1
		) day_sessions
	`, dayStart).Scan(&sessions)
	if err != nil {
		return false, fmt.Errorf("count daily sessions: %w", err)
	}
	if sessions >= DailySessionLimit {
		return false, nil
	}

	// 会话是否已结束（已发起过 details 请求）
	var details int
	err = r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM places_requests
		WHERE token = $1 AND request_type = $2
	`, token, RequestTypeDetails).Scan(&details)
	if err != nil {
		return false, fmt.Errorf("count details requests: %w", err)
	}
	if details > 0 {
		return false, nil
	}

	// 会话是否超龄
	var expired int
	err = r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM places_requests
		WHERE token = $1 AND requested_at < $2
	`, token, time.Now().Add(-TokenAgeLimit)).Scan(&expired)
	if err != nil {
		return false, fmt.Errorf("count expired requests: %w", err)
	}
	if expired > 0 {
		return false, nil
	}

	return true, nil
}

// InsertRequest 记录一次地点检索请求
func (r *QuotaRepository) InsertRequest(ctx context.Context, token, requestType string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO places_requests (token, requested_at, request_type)
		VALUES ($1, $2, $3)
	`, token, time.Now(), requestType)
	if err != nil {
		return fmt.Errorf("insert places request: %w", err)
	}
	return nil
}
