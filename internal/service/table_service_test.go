package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysql-mcp-gateway/internal/database/databasetest"
	"mysql-mcp-gateway/internal/database/metadata"
	"mysql-mcp-gateway/internal/model"
	"mysql-mcp-gateway/internal/utils"
)

var row = databasetest.Row

func newTestTableService(client *databasetest.FakeClient) TableService {
	logger, _ := test.NewNullLogger()
	return NewTableService(metadata.NewMetadataExtractor(client), logger)
}

func statsResponder(stats map[string]model.Row) databasetest.Responder {
	return func(query string, args []interface{}) ([]model.Row, error) {
		if len(args) != 1 {
			return nil, nil
		}
		name, _ := args[0].(string)
		if r, ok := stats[name]; ok {
			return []model.Row{r}, nil
		}
		return []model.Row{}, nil
	}
}

func TestListTables(t *testing.T) {
	client := databasetest.NewFakeClient().
		On("SHOW TABLES", []model.Row{
			row("Tables_in_shop", "orders"),
			row("Tables_in_shop", "ghost"),
		}, nil).
		Respond(statsResponder(map[string]model.Row{
			"orders": row("TABLE_NAME", "orders", "TABLE_ROWS", int64(10), "DATA_LENGTH", int64(16384), "INDEX_LENGTH", int64(0)),
		}))

	items, err := newTestTableService(client).ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.TableListItem{
		{Name: "orders", Rows: 10, DataLength: 16384, IndexLength: 0},
		{Name: "ghost"},
	}, items)
}

func TestListTables_Empty(t *testing.T) {
	items, err := newTestTableService(databasetest.NewFakeClient()).ListTables(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestDescribeTable(t *testing.T) {
	client := databasetest.NewFakeClient().
		On("DESCRIBE", []model.Row{row("Field", "id", "Type", "int", "Null", "NO", "Key", "PRI", "Default", nil, "Extra", "auto_increment")}, nil).
		Respond(statsResponder(map[string]model.Row{
			"users": row("TABLE_NAME", "users", "TABLE_ROWS", int64(3), "AVG_ROW_LENGTH", int64(5461)),
		}))

	desc, err := newTestTableService(client).DescribeTable(context.Background(), "users")
	require.NoError(t, err)

	assert.Equal(t, "users", desc.TableName)
	require.Len(t, desc.Columns, 1)
	assert.Equal(t, "auto_increment", desc.Columns[0].Extra)
	require.NotNil(t, desc.TableInfo)
	assert.Equal(t, int64(3), *desc.TableInfo.TableRows)
}

func TestDescribeTable_MissingStatsIsNull(t *testing.T) {
	desc, err := newTestTableService(databasetest.NewFakeClient()).DescribeTable(context.Background(), "users")
	require.NoError(t, err)
	assert.Nil(t, desc.TableInfo)
	assert.Equal(t, []model.ColumnDescriptor{}, desc.Columns)
}

func TestGetTableInfo(t *testing.T) {
	client := databasetest.NewFakeClient().
		On("DESCRIBE", []model.Row{row("Field", "id", "Type", "int")}, nil).
		On("SHOW INDEX", []model.Row{row("Table", "users", "Key_name", "PRIMARY", "Seq_in_index", int64(1))}, nil).
		Respond(statsResponder(map[string]model.Row{
			"users": row("TABLE_NAME", "users", "TABLE_COMMENT", "accounts"),
		}))

	details, err := newTestTableService(client).GetTableInfo(context.Background(), "users")
	require.NoError(t, err)

	assert.Equal(t, "accounts", *details.TableInfo.TableComment)
	assert.Len(t, details.Columns, 1)
	require.Len(t, details.Indexes, 1)
	assert.Equal(t, "PRIMARY", details.Indexes[0].KeyName)
}

func TestGetTableInfo_NotFound(t *testing.T) {
	client := databasetest.NewFakeClient()

	_, err := newTestTableService(client).GetTableInfo(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, utils.IsErrorType(err, utils.ErrCodeNotFound))
	assert.Contains(t, err.Error(), "Table 'ghost' not found")
	assert.Equal(t, 1, client.CallCount(), "columns and indexes are not fetched")
}

func TestTableName_Validation(t *testing.T) {
	client := databasetest.NewFakeClient()
	svc := newTestTableService(client)

	_, err := svc.DescribeTable(context.Background(), "  ")
	assert.True(t, utils.IsValidationError(err))
	_, err = svc.GetTableInfo(context.Background(), "")
	assert.True(t, utils.IsValidationError(err))

	assert.Equal(t, 0, client.CallCount())
}

func TestDataSourceErrorsPropagate(t *testing.T) {
	boom := utils.NewDataSourceError(errors.New("Table 'shop.nope' doesn't exist"), "DESCRIBE `nope`")
	client := databasetest.NewFakeClient().On("DESCRIBE", nil, boom)

	_, err := newTestTableService(client).DescribeTable(context.Background(), "nope")
	assert.ErrorIs(t, err, boom)
}
