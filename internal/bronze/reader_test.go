package bronze

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/types"
)

func TestReadParsesHeaderAndRecords(t *testing.T) {
	in := "order_line_id,order_id,product_id,quantity\n1,100,10,4\n2,100,,NaN\n"
	b, err := Read(types.EntityOrderLines, strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 2, b.Len())
	v, ok := b.Get(0, "quantity")
	assert.True(t, ok)
	assert.Equal(t, "4", v)

	_, ok = b.Get(1, "product_id")
	assert.False(t, ok, "empty cell is missing")
	_, ok = b.Get(1, "quantity")
	assert.False(t, ok, "NaN is missing")
	_, ok = b.Get(0, "no_such_column")
	assert.False(t, ok)
}

func TestReadMissingColumnIsSchemaError(t *testing.T) {
	in := "order_line_id,order_id\n1,100\n"
	_, err := Read(types.EntityOrderLines, strings.NewReader(in))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrSchema))

	var se *types.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, types.KindSchema, se.Kind)
	assert.Equal(t, "order_lines", se.Table)
	assert.Contains(t, se.Reason, "product_id")
	assert.Contains(t, se.Reason, "quantity")
}

func TestReadDuplicateHeaderIsSchemaError(t *testing.T) {
	in := "date,date\n2024-01-01,2024-01-02\n"
	_, err := Read(types.EntityCalendar, strings.NewReader(in))
	assert.True(t, errors.Is(err, types.ErrSchema))
}

func TestReadEmptyInput(t *testing.T) {
	t.Run("zero bytes yields contract header", func(t *testing.T) {
		b, err := Read(types.EntityProducts, strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, 0, b.Len())
		assert.Equal(t, InputColumns[types.EntityProducts], b.Header)
	})

	t.Run("header only yields empty batch", func(t *testing.T) {
		b, err := Read(types.EntityCalendar, strings.NewReader("date\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, b.Len())
	})
}

func TestShortRecordsReadAsMissing(t *testing.T) {
	b, err := NewRawBatch("x", []string{"a", "b"}, [][]string{{"1"}})
	require.NoError(t, err)
	_, ok := b.Get(0, "b")
	assert.False(t, ok)
}

func TestHeaderTrimsBOMAndSpaces(t *testing.T) {
	b, err := NewRawBatch("x", []string{"\ufeffid", " name "}, nil)
	require.NoError(t, err)
	_, ok := b.Column("id")
	assert.True(t, ok)
	_, ok = b.Column("name")
	assert.True(t, ok)
}

func TestReadDir(t *testing.T) {
	dir := t.TempDir()
	for _, entity := range types.Entities {
		header := strings.Join(InputColumns[entity], ",") + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName(entity)), []byte(header), 0o644))
	}

	batches, err := ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, batches, len(types.Entities))

	require.NoError(t, os.Remove(filepath.Join(dir, FileName(types.EntityCalendar))))
	_, err = ReadDir(dir)
	assert.Error(t, err)
}
