package mcp

import (
	"context"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	response *domain.SearchResponse
	err      error
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	_ domain.SearchOptions,
) (*domain.SearchResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.response == nil {
		return &domain.SearchResponse{}, nil
	}
	return m.response, nil
}

// mockIndexer is a mock implementation of driving.Indexer.
type mockIndexer struct {
	stats *domain.IndexStats
	state domain.IndexingState
	err   error
}

func (m *mockIndexer) SyncAll(_ context.Context) (*domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockIndexer) IndexRecord(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIndexer) RemoveRecord(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIndexer) State() domain.IndexingState {
	return m.state
}

func (m *mockIndexer) Subscribe(ctx context.Context) <-chan domain.IndexingState {
	ch := make(chan domain.IndexingState)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}

// mockRecordStore is a mock implementation of driven.RecordStore.
type mockRecordStore struct {
	records []domain.Record
	record  *domain.Record
	err     error
}

func (m *mockRecordStore) ListAll(_ context.Context) ([]domain.Record, error) {
	return m.records, m.err
}

func (m *mockRecordStore) Get(_ context.Context, _ string) (*domain.Record, error) {
	return m.record, m.err
}

func (m *mockRecordStore) Save(_ context.Context, _ *domain.Record) error {
	return m.err
}

func (m *mockRecordStore) Delete(_ context.Context, _ string) error {
	return m.err
}
