package model

// DefaultQueryLimit is applied when a caller does not pass a limit.
const DefaultQueryLimit = 1000

// QueryRequest is the REST body for a read-only query
type QueryRequest struct {
	SQL   string `json:"sql" validate:"required"`
	Limit *int   `json:"limit" validate:"omitempty,min=0,max=100000"`
}

// EffectiveLimit returns the requested limit, or the default when absent.
func (r *QueryRequest) EffectiveLimit() int {
	if r.Limit == nil {
		return DefaultQueryLimit
	}
	return *r.Limit
}

// TableListItem is one entry of the list_tables result.
type TableListItem struct {
	Name        string `json:"name"`
	Rows        int64  `json:"rows"`
	DataLength  int64  `json:"data_length"`
	IndexLength int64  `json:"index_length"`
}

// TableDescription is the describe_table result.
type TableDescription struct {
	TableName string             `json:"table_name"`
	Columns   []ColumnDescriptor `json:"columns"`
	TableInfo *TableBrief        `json:"table_info"`
}

// TableDetails is the get_table_info result.
type TableDetails struct {
	TableInfo *TableInfo         `json:"table_info"`
	Columns   []ColumnDescriptor `json:"columns"`
	Indexes   []IndexDescriptor  `json:"indexes"`
}

// RefreshStatus is returned by a manual schema refresh.
type RefreshStatus struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	GeneratedAt string `json:"generated_at,omitempty"`
	TotalTables *int   `json:"total_tables,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
}

// ErrorDocument is what the schema path returns instead of failing.
type ErrorDocument struct {
	Error string `json:"error"`
}
