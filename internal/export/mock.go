package export

import (
	"context"
	"sync"

	"github.com/Veraticus/toxref/internal/service"
)

// MemorySink records the tables written to it, for tests.
type MemorySink struct {
	WriteFunc  func(ctx context.Context, tables []service.Table) error
	WriteCalls [][]service.Table
	Limit      int
	mu         sync.Mutex
}

// NewMemorySink creates a recording sink with the given name limit.
func NewMemorySink(limit int) *MemorySink {
	return &MemorySink{Limit: limit}
}

// MaxTableNameLength implements service.TableSink.
func (m *MemorySink) MaxTableNameLength() int {
	return m.Limit
}

// TableName implements service.TableSink.
func (m *MemorySink) TableName(name string) string {
	return truncate(name, m.Limit)
}

// WriteTables implements service.TableSink.
func (m *MemorySink) WriteTables(ctx context.Context, tables []service.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCalls = append(m.WriteCalls, tables)
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, tables)
	}
	return nil
}

// Tables returns the tables of the last write, or nil.
func (m *MemorySink) Tables() []service.Table {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.WriteCalls) == 0 {
		return nil
	}
	return m.WriteCalls[len(m.WriteCalls)-1]
}
