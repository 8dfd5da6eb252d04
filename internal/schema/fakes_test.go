package schema

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"mysql-mcp-gateway/internal/model"
)

func nullLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// fakeSource serves metadata from maps keyed by table name.
type fakeSource struct {
	database string
	tables   []string
	info     map[string]*model.TableInfo
	columns  map[string][]model.ColumnDescriptor
	fks      map[string][]model.ForeignKey
	samples  map[string][]model.Row
	failOn   string
	calls    int32
}

func (s *fakeSource) hit(table string) error {
	atomic.AddInt32(&s.calls, 1)
	if s.failOn != "" && table == s.failOn {
		return errors.New("table '" + table + "' doesn't exist")
	}
	return nil
}

func (s *fakeSource) DatabaseName(context.Context) (string, error) {
	return s.database, s.hit("")
}

func (s *fakeSource) ListTables(context.Context) ([]string, error) {
	return s.tables, s.hit("")
}

func (s *fakeSource) TableInfo(_ context.Context, table string) (*model.TableInfo, error) {
	return s.info[table], s.hit(table)
}

func (s *fakeSource) Columns(_ context.Context, table string) ([]model.ColumnDescriptor, error) {
	if err := s.hit(table); err != nil {
		return nil, err
	}
	return s.columns[table], nil
}

func (s *fakeSource) Indexes(_ context.Context, table string) ([]model.IndexDescriptor, error) {
	return nil, s.hit(table)
}

func (s *fakeSource) ForeignKeys(_ context.Context, table string) ([]model.ForeignKey, error) {
	return s.fks[table], s.hit(table)
}

func (s *fakeSource) SampleRows(_ context.Context, table string, _ int) ([]model.Row, error) {
	return s.samples[table], s.hit(table)
}

// fakeGenerator counts Generate calls and can be told to fail or block. Like
// the real generator it gives up once its context is done.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	tables  int
	err     error
	release chan struct{}
	now     time.Time
}

func (g *fakeGenerator) Generate(ctx context.Context) (*model.SchemaDocument, error) {
	g.mu.Lock()
	g.calls++
	err, tables, release := g.err, g.tables, g.release
	g.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &model.SchemaDocument{
		Metadata: model.SchemaMetadata{
			DatabaseName:  "shop",
			GeneratedAt:   g.now.UTC().Format(GeneratedAtLayout),
			SchemaVersion: model.SchemaVersion,
			TotalTables:   tables,
		},
		Tables: map[string]*model.TableEntry{},
	}
	for i := 0; i < tables; i++ {
		doc.Tables[string(rune('a'+i))] = model.NewTableEntry()
	}
	return doc, nil
}

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *fakeGenerator) SetTables(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tables = n
}

func (g *fakeGenerator) SetErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// fakeDetector returns a scripted verdict.
type fakeDetector struct {
	stale bool
	calls int32
}

func (d *fakeDetector) NeedsRefresh(context.Context) bool {
	atomic.AddInt32(&d.calls, 1)
	return d.stale
}

// fakeUpdateTime returns a fixed last update time or error.
type fakeUpdateTime struct {
	t   *time.Time
	err error
}

func (f fakeUpdateTime) LastUpdateTime(context.Context) (*time.Time, error) {
	return f.t, f.err
}

type recordingPublisher struct {
	mu   sync.Mutex
	data [][]byte
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = append(p.data, data)
	return p.err
}
