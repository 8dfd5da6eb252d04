package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"mysql-mcp-gateway/internal/model"
	"mysql-mcp-gateway/internal/utils"
)

// TableMetadata is the slice of the metadata extractor the table service needs
type TableMetadata interface {
	ListTables(ctx context.Context) ([]string, error)
	TableInfo(ctx context.Context, table string) (*model.TableInfo, error)
	Columns(ctx context.Context, table string) ([]model.ColumnDescriptor, error)
	Indexes(ctx context.Context, table string) ([]model.IndexDescriptor, error)
}

// TableService answers per-table introspection requests directly from the
// database, bypassing the schema cache.
type TableService interface {
	ListTables(ctx context.Context) ([]model.TableListItem, error)
	DescribeTable(ctx context.Context, tableName string) (*model.TableDescription, error)
	GetTableInfo(ctx context.Context, tableName string) (*model.TableDetails, error)
}

type tableService struct {
	metadata TableMetadata
	logger   logrus.FieldLogger
}

// NewTableService creates a new instance of TableService
func NewTableService(metadata TableMetadata, logger logrus.FieldLogger) TableService {
	return &tableService{
		metadata: metadata,
		logger:   logger,
	}
}

func (s *tableService) ListTables(ctx context.Context) ([]model.TableListItem, error) {
	tables, err := s.metadata.ListTables(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Error listing tables")
		return nil, err
	}

	items := make([]model.TableListItem, 0, len(tables))
	for _, name := range tables {
		info, err := s.metadata.TableInfo(ctx, name)
		if err != nil {
			s.logger.WithError(err).WithField("table", name).Error("Error listing tables")
			return nil, err
		}

		item := model.TableListItem{Name: name}
		if info != nil {
			item.Rows = valueOrZero(info.TableRows)
			item.DataLength = valueOrZero(info.DataLength)
			item.IndexLength = valueOrZero(info.IndexLength)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *tableService) DescribeTable(ctx context.Context, tableName string) (*model.TableDescription, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	columns, err := s.metadata.Columns(ctx, tableName)
	if err != nil {
		s.logger.WithError(err).WithField("table", tableName).Error("Error describing table")
		return nil, err
	}

	info, err := s.metadata.TableInfo(ctx, tableName)
	if err != nil {
		s.logger.WithError(err).WithField("table", tableName).Error("Error describing table")
		return nil, err
	}

	return &model.TableDescription{
		TableName: tableName,
		Columns:   nonNilColumns(columns),
		TableInfo: info.Brief(),
	}, nil
}

func (s *tableService) GetTableInfo(ctx context.Context, tableName string) (*model.TableDetails, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	info, err := s.metadata.TableInfo(ctx, tableName)
	if err != nil {
		s.logger.WithError(err).WithField("table", tableName).Error("Error getting table info")
		return nil, err
	}
	if info == nil {
		return nil, utils.NewNotFoundError(fmt.Sprintf("Table '%s'", tableName))
	}

	columns, err := s.metadata.Columns(ctx, tableName)
	if err != nil {
		s.logger.WithError(err).WithField("table", tableName).Error("Error getting table info")
		return nil, err
	}

	indexes, err := s.metadata.Indexes(ctx, tableName)
	if err != nil {
		s.logger.WithError(err).WithField("table", tableName).Error("Error getting table info")
		return nil, err
	}
	if indexes == nil {
		indexes = []model.IndexDescriptor{}
	}

	return &model.TableDetails{
		TableInfo: info,
		Columns:   nonNilColumns(columns),
		Indexes:   indexes,
	}, nil
}

func validateTableName(name string) error {
	if strings.TrimSpace(name) == "" {
		return utils.NewValidationError("Table name cannot be empty")
	}
	return nil
}

func valueOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func nonNilColumns(columns []model.ColumnDescriptor) []model.ColumnDescriptor {
	if columns == nil {
		return []model.ColumnDescriptor{}
	}
	return columns
}
