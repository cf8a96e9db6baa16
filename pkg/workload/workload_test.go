package workload_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/redblack/pkg/workload"
)

func TestParseOrder(t *testing.T) {
	t.Parallel()

	for _, order := range workload.Orders() {
		parsed, err := workload.ParseOrder(order.String())
		require.NoError(t, err)
		assert.Equal(t, order, parsed)
	}

	parsed, err := workload.ParseOrder("DESCENDING")
	require.NoError(t, err)
	assert.Equal(t, workload.Descending, parsed)

	_, err = workload.ParseOrder("zigzag")
	require.ErrorIs(t, err, workload.ErrUnknownOrder)

	assert.Equal(t, "Order(9)", workload.Order(9).String())
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int64{1, 2, 3, 4}, workload.Generate(workload.Ascending, 4, 0))
	assert.Equal(t, []int64{4, 3, 2, 1}, workload.Generate(workload.Descending, 4, 0))
	assert.Nil(t, workload.Generate(workload.Ascending, 0, 0))

	shuffled := workload.Generate(workload.Shuffled, 100, 7)
	assert.Equal(t, shuffled, workload.Generate(workload.Shuffled, 100, 7))
	assert.NotEqual(t, workload.Generate(workload.Ascending, 100, 7), shuffled)

	sorted := slices.Clone(shuffled)
	slices.Sort(sorted)
	assert.Equal(t, workload.Generate(workload.Ascending, 100, 0), sorted)
}

func TestParseKeys(t *testing.T) {
	t.Parallel()

	keys, err := workload.ParseKeys([]string{"10", " -3", "0"})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, -3, 0}, keys)

	keys, err = workload.ParseKeys(nil)
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = workload.ParseKeys([]string{"1", "x"})
	require.ErrorIs(t, err, workload.ErrInvalidKey)
}
