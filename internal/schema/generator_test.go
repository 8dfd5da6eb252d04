package schema

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysql-mcp-gateway/internal/model"
	"mysql-mcp-gateway/internal/utils"
)

func shopSource() *fakeSource {
	rows := int64(2)
	return &fakeSource{
		database: "shop",
		tables:   []string{"orders", "users", "audit"},
		info: map[string]*model.TableInfo{
			"orders": {TableName: "orders", TableRows: &rows},
			"users":  {TableName: "users"},
		},
		columns: map[string][]model.ColumnDescriptor{
			"orders": {{Field: "id", Type: "int"}, {Field: "user_id", Type: "int"}},
			"users":  {{Field: "id", Type: "int"}},
		},
		fks: map[string][]model.ForeignKey{
			"orders": {{
				ColumnName:           "user_id",
				ReferencedTableName:  "users",
				ReferencedColumnName: "id",
				ConstraintName:       "fk_orders_user",
			}},
			"audit": {{
				ColumnName:           "actor_id",
				ReferencedTableName:  "external_accounts",
				ReferencedColumnName: "id",
				ConstraintName:       "fk_audit_actor",
			}},
		},
		samples: map[string][]model.Row{
			"orders": {model.NewRow([]string{"id", "user_id"}, []interface{}{int64(1), int64(7)})},
		},
	}
}

func TestGenerator_RelationshipSymmetry(t *testing.T) {
	gen := NewGenerator(shopSource(), nullLogger(), nil)

	doc, err := gen.Generate(context.Background())
	require.NoError(t, err)

	orders := doc.Tables["orders"]
	users := doc.Tables["users"]
	require.NotNil(t, orders)
	require.NotNil(t, users)

	require.Len(t, orders.Relationships.References, 1)
	assert.Equal(t, "users", orders.Relationships.References[0].ReferencedTableName)
	assert.Equal(t, orders.ForeignKeys, orders.Relationships.References)

	assert.Equal(t, []model.ReferencedBy{{
		Table:      "orders",
		Column:     "user_id",
		Constraint: "fk_orders_user",
	}}, users.Relationships.ReferencedBy)
	assert.Empty(t, orders.Relationships.ReferencedBy)
}

func TestGenerator_DropsDanglingReferences(t *testing.T) {
	gen := NewGenerator(shopSource(), nullLogger(), nil)

	doc, err := gen.Generate(context.Background())
	require.NoError(t, err)

	audit := doc.Tables["audit"]
	require.Len(t, audit.ForeignKeys, 1, "the declared key is still recorded")
	_, exists := doc.Tables["external_accounts"]
	assert.False(t, exists)
}

func TestGenerator_Metadata(t *testing.T) {
	now := time.Date(2024, 7, 1, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	gen := NewGenerator(shopSource(), nullLogger(), fixedClock(now))

	doc, err := gen.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.SchemaMetadata{
		DatabaseName:  "shop",
		GeneratedAt:   "2024-07-01T07:30:00.000000+00:00",
		SchemaVersion: "1.0.0",
		TotalTables:   3,
	}, doc.Metadata)

	parsed, ok := ParseGeneratedAt(doc.Metadata.GeneratedAt)
	require.True(t, ok)
	assert.True(t, parsed.Equal(now))
}

func TestGenerator_TableEntryContents(t *testing.T) {
	gen := NewGenerator(shopSource(), nullLogger(), nil)

	doc, err := gen.Generate(context.Background())
	require.NoError(t, err)

	orders := doc.Tables["orders"]
	assert.Equal(t, int64(2), *orders.TableInfo.TableRows)
	assert.Equal(t, []string{"id", "user_id"}, []string{orders.Columns[0].Field, orders.Columns[1].Field})
	assert.Len(t, orders.SampleData, 1)

	audit := doc.Tables["audit"]
	assert.Nil(t, audit.TableInfo, "missing statistics stay null")

	data, err := json.Marshal(audit)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"columns":[]`)
	assert.Contains(t, string(data), `"sample_data":[]`)
}

func TestGenerator_EmptyDatabase(t *testing.T) {
	gen := NewGenerator(&fakeSource{database: "empty"}, nullLogger(), nil)

	doc, err := gen.Generate(context.Background())
	require.NoError(t, err)

	assert.Empty(t, doc.Tables)
	assert.NotNil(t, doc.Tables)
	assert.Equal(t, 0, doc.Metadata.TotalTables)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tables":{}`)
}

func TestGenerator_TableVanishingMidGenerationAborts(t *testing.T) {
	source := shopSource()
	source.failOn = "users"
	gen := NewGenerator(source, nullLogger(), nil)

	doc, err := gen.Generate(context.Background())
	assert.Nil(t, doc)
	require.Error(t, err)
	assert.True(t, utils.IsDataSourceError(err))
}

func TestGenerator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator(shopSource(), nullLogger(), nil).Generate(ctx)
	assert.True(t, utils.IsDataSourceError(err))
}
