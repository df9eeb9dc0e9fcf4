package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimelineFilters membatasi rentang waktu dan entitas yang diambil.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Table    string
	Action   string
	ActorID  uuid.UUID
	Page     int
	PageSize int
}

// PagingInfo menyimpan posisi halaman hasil timeline.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// Result membungkus hasil timeline dengan informasi paging.
type Result struct {
	Rows   []Record
	Paging PagingInfo
}

// Service mengoordinasikan pengambilan data audit.
type Service struct {
	repo ReadRepository
}

// NewService membuat service audit timeline baru.
func NewService(repo ReadRepository) *Service {
	return &Service{repo: repo}
}

// Timeline mengambil data audit dengan paging.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	rows, err := s.repo.Window(ctx, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export mengambil seluruh data timeline tanpa paging.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]Record, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.All(ctx, filters)
}

// VerifyEntity memeriksa ulang rantai hash untuk satu record.
func (s *Service) VerifyEntity(ctx context.Context, table string, recordID uuid.UUID) error {
	if s.repo == nil {
		return fmt.Errorf("audit: repository not configured")
	}
	chain, err := s.repo.Chain(ctx, table, recordID)
	if err != nil {
		return err
	}
	return VerifyChain(chain)
}
