package types

// ColumnType is the semantic type of a column.
type ColumnType string

// Supported column types.
const (
	TypeInt       ColumnType = "int"
	TypeFloat     ColumnType = "float"
	TypeString    ColumnType = "string"
	TypeCategory  ColumnType = "category"
	TypeDate      ColumnType = "date"
	TypeTimestamp ColumnType = "timestamp"
	TypeBool      ColumnType = "bool"
)

// KeyRole describes the part a column plays in the dimensional model.
type KeyRole string

// Key roles.
const (
	RolePrimaryKey KeyRole = "primary_key"
	RoleForeignKey KeyRole = "foreign_key"
	RoleMeasure    KeyRole = "measure"
	RoleAttribute  KeyRole = "attribute"
	RoleTimestamp  KeyRole = "timestamp"
)

// Column is one entry of an entity schema.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
	Role     KeyRole
}

// Schema is a named, ordered list of columns. Aggregate tables also declare
// their grain: the tuple of columns that uniquely identifies a row.
type Schema struct {
	Name    string
	Columns []Column
	Grain   []string
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column and whether it exists.
func (s Schema) Column(name string) (Column, bool) {
	if i := s.Index(name); i >= 0 {
		return s.Columns[i], true
	}
	return Column{}, false
}

// ColumnNames returns the column names in schema order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the names of the primary-key columns in schema order.
func (s Schema) PrimaryKey() []string {
	var keys []string
	for _, c := range s.Columns {
		if c.Role == RolePrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// Key returns the grain for aggregate tables and the primary key otherwise.
func (s Schema) Key() []string {
	if len(s.Grain) > 0 {
		return s.Grain
	}
	return s.PrimaryKey()
}
