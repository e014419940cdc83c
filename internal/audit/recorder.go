package audit

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"asset-registry-backend/internal/model"
)

// Recorder is the append-only writer and reader of audit entries.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates a gorm-backed audit recorder.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Append writes one audit entry. It never returns an error: a storage
// failure is logged and swallowed so that audit writing can never block
// or fail the business operation it accompanies.
func (r *Recorder) Append(ctx context.Context, actor string, verb model.Verb, entityType, entityID, detail, ipAddress string) {
	if actor == "" {
		actor = model.SystemActor
	}
	entry := model.AuditEntry{
		Actor:      actor,
		Verb:       verb,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		Timestamp:  time.Now().UTC(),
		IPAddress:  ipAddress,
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"actor":       actor,
			"verb":        verb,
			"entity_type": entityType,
			"entity_id":   entityID,
		}).WithError(err).Warn("failed to write audit entry")
	}
}

// Filter narrows an audit page query. Zero-value fields are ignored;
// set fields are combined with AND.
type Filter struct {
	Actor        string // substring match, case-insensitive
	CriticalOnly bool
	EntityType   string
	Verb         model.Verb
}

// Page is one page of audit entries, newest first.
type Page struct {
	Entries    []model.AuditEntry `json:"entries"`
	TotalCount int64              `json:"total_count"`
	PageIndex  int                `json:"page"`
	PageSize   int                `json:"page_size"`
}

// FindPage returns one page of entries matching the filter, ordered by
// timestamp descending.
func (r *Recorder) FindPage(ctx context.Context, filter Filter, pageIndex, pageSize int) (*Page, error) {
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	q := r.db.WithContext(ctx).Model(&model.AuditEntry{})
	if filter.Actor != "" {
		q = q.Where("LOWER(actor) LIKE ?", "%"+strings.ToLower(filter.Actor)+"%")
	}
	if filter.CriticalOnly {
		q = q.Where("verb IN ?", model.CriticalVerbs)
	}
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.Verb != "" {
		q = q.Where("verb = ?", filter.Verb)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var entries []model.AuditEntry
	if err := q.Order("timestamp DESC, id DESC").
		Limit(pageSize).
		Offset(pageIndex * pageSize).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return &Page{
		Entries:    entries,
		TotalCount: total,
		PageIndex:  pageIndex,
		PageSize:   pageSize,
	}, nil
}

// Count returns the total number of audit entries.
func (r *Recorder) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.AuditEntry{}).Count(&n).Error
	return n, err
}

// CountCritical returns the number of entries with a critical verb.
func (r *Recorder) CountCritical(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.AuditEntry{}).
		Where("verb IN ?", model.CriticalVerbs).
		Count(&n).Error
	return n, err
}

// CountByVerbSince counts entries with the given verb written at or
// after since. Backs "failed logins today"-style metrics.
func (r *Recorder) CountByVerbSince(ctx context.Context, verb model.Verb, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.AuditEntry{}).
		Where("verb = ? AND timestamp >= ?", verb, since).
		Count(&n).Error
	return n, err
}

// CountByActor returns the number of entries written by the given actor.
func (r *Recorder) CountByActor(ctx context.Context, actor string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.AuditEntry{}).
		Where("actor = ?", actor).
		Count(&n).Error
	return n, err
}
