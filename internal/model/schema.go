package model

// SchemaVersion is stamped into every generated SchemaDocument.
const SchemaVersion = "1.0.0"

// SchemaDocument describes the whole database at one point in time. It is
// persisted as a single JSON file and replaced wholesale on every refresh.
type SchemaDocument struct {
	Metadata SchemaMetadata         `json:"metadata"`
	Tables   map[string]*TableEntry `json:"tables"`
}

// SchemaMetadata identifies the database and when the document was generated
type SchemaMetadata struct {
	DatabaseName  string `json:"database_name"`
	GeneratedAt   string `json:"generated_at"`
	SchemaVersion string `json:"version"`
	TotalTables   int    `json:"total_tables"`
}

// TableEntry holds everything known about one table.
type TableEntry struct {
	TableInfo     *TableInfo         `json:"table_info"`
	Columns       []ColumnDescriptor `json:"columns"`
	Indexes       []IndexDescriptor  `json:"indexes"`
	ForeignKeys   []ForeignKey       `json:"foreign_keys"`
	SampleData    []Row              `json:"sample_data"`
	Relationships Relationships      `json:"relationships"`
}

// NewTableEntry returns an entry whose collections serialize as empty arrays.
func NewTableEntry() *TableEntry {
	return &TableEntry{
		Columns:     []ColumnDescriptor{},
		Indexes:     []IndexDescriptor{},
		ForeignKeys: []ForeignKey{},
		SampleData:  []Row{},
		Relationships: Relationships{
			References:   []ForeignKey{},
			ReferencedBy: []ReferencedBy{},
		},
	}
}

// TableInfo is the engine-reported statistics row from information_schema.TABLES.
type TableInfo struct {
	TableName      string  `json:"TABLE_NAME"`
	TableRows      *int64  `json:"TABLE_ROWS"`
	AvgRowLength   *int64  `json:"AVG_ROW_LENGTH"`
	DataLength     *int64  `json:"DATA_LENGTH"`
	MaxDataLength  *int64  `json:"MAX_DATA_LENGTH"`
	IndexLength    *int64  `json:"INDEX_LENGTH"`
	DataFree       *int64  `json:"DATA_FREE"`
	AutoIncrement  *int64  `json:"AUTO_INCREMENT"`
	CreateTime     *string `json:"CREATE_TIME"`
	UpdateTime     *string `json:"UPDATE_TIME"`
	CheckTime      *string `json:"CHECK_TIME"`
	TableCollation *string `json:"TABLE_COLLATION"`
	Checksum       *int64  `json:"CHECKSUM"`
	CreateOptions  *string `json:"CREATE_OPTIONS"`
	TableComment   *string `json:"TABLE_COMMENT"`
}

// TableBrief is the reduced statistics view returned by describe_table.
type TableBrief struct {
	TableName      string  `json:"TABLE_NAME"`
	TableRows      *int64  `json:"TABLE_ROWS"`
	DataLength     *int64  `json:"DATA_LENGTH"`
	IndexLength    *int64  `json:"INDEX_LENGTH"`
	TableCollation *string `json:"TABLE_COLLATION"`
	CreateTime     *string `json:"CREATE_TIME"`
	UpdateTime     *string `json:"UPDATE_TIME"`
}

// Brief projects the full statistics onto the describe_table view.
func (t *TableInfo) Brief() *TableBrief {
	if t == nil {
		return nil
	}
	return &TableBrief{
		TableName:      t.TableName,
		TableRows:      t.TableRows,
		DataLength:     t.DataLength,
		IndexLength:    t.IndexLength,
		TableCollation: t.TableCollation,
		CreateTime:     t.CreateTime,
		UpdateTime:     t.UpdateTime,
	}
}

// ColumnDescriptor mirrors one DESCRIBE row, in declaration order.
type ColumnDescriptor struct {
	Field   string  `json:"Field"`
	Type    string  `json:"Type"`
	Null    string  `json:"Null"`
	Key     string  `json:"Key"`
	Default *string `json:"Default"`
	Extra   string  `json:"Extra"`
}

// IndexDescriptor mirrors one SHOW INDEX row.
type IndexDescriptor struct {
	Table        string  `json:"Table"`
	NonUnique    int64   `json:"Non_unique"`
	KeyName      string  `json:"Key_name"`
	SeqInIndex   int64   `json:"Seq_in_index"`
	ColumnName   *string `json:"Column_name"`
	Collation    *string `json:"Collation"`
	Cardinality  *int64  `json:"Cardinality"`
	SubPart      *int64  `json:"Sub_part"`
	Packed       *string `json:"Packed"`
	Null         string  `json:"Null"`
	IndexType    string  `json:"Index_type"`
	Comment      string  `json:"Comment"`
	IndexComment string  `json:"Index_comment"`
	Visible      *string `json:"Visible,omitempty"`
	Expression   *string `json:"Expression,omitempty"`
}

// ForeignKey is a reference declared by the owning table.
type ForeignKey struct {
	ColumnName           string `json:"COLUMN_NAME"`
	ReferencedTableName  string `json:"REFERENCED_TABLE_NAME"`
	ReferencedColumnName string `json:"REFERENCED_COLUMN_NAME"`
	ConstraintName       string `json:"CONSTRAINT_NAME"`
}

// ReferencedBy records that another table's foreign key points at this table.
type ReferencedBy struct {
	Table      string `json:"table"`
	Column     string `json:"column"`
	Constraint string `json:"constraint"`
}

// Relationships cross-references foreign keys in both directions.
// ReferencedBy is only populated once every table has been visited.
type Relationships struct {
	References   []ForeignKey   `json:"references"`
	ReferencedBy []ReferencedBy `json:"referenced_by"`
}
