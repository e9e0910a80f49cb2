package ring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openwfd/wfd/ring"
)

func TestPushPeekPull(t *testing.T) {
	var r ring.Buffer

	require.NoError(t, r.Push([]byte("hello")))
	assert.Equal(t, 5, r.Length())

	slices := r.Peek()
	require.Len(t, slices, 1)
	assert.Equal(t, "hello", string(slices[0]))

	r.Pull(5)
	assert.Equal(t, 0, r.Length())
	assert.Empty(t, r.Peek())
}

func TestWrapAroundProducesTwoSlices(t *testing.T) {
	var r ring.Buffer

	// Force a small power-of-two buffer, then push/pull to straddle the
	// end of the backing array.
	require.NoError(t, r.Push(make([]byte, 10)))
	r.Pull(10)
	require.NoError(t, r.Push([]byte("abcdefgh")))
	r.Pull(4)
	require.NoError(t, r.Push([]byte("WXYZ")))

	slices := r.Peek()
	require.Len(t, slices, 2)
	joined := make([]byte, 0, r.Length())
	for _, s := range slices {
		joined = append(joined, s...)
	}
	assert.Equal(t, "efghWXYZ", string(joined))
}

func TestTotalPushedEqualsTotalPulledEmptiesBuffer(t *testing.T) {
	var r ring.Buffer

	chunks := [][]byte{[]byte("a"), []byte("bb"), []byte("ccc"), []byte("dddd")}
	total := 0
	for _, c := range chunks {
		require.NoError(t, r.Push(c))
		total += len(c)
	}

	r.Pull(total)
	assert.Equal(t, 0, r.Length())
	assert.Empty(t, r.Peek())
}

func TestPullClampsToAvailable(t *testing.T) {
	var r ring.Buffer
	require.NoError(t, r.Push([]byte("ab")))
	r.Pull(1000)
	assert.Equal(t, 0, r.Length())
}

func TestCopyRespectsLimitAndWrap(t *testing.T) {
	var r ring.Buffer
	require.NoError(t, r.Push(make([]byte, 10)))
	r.Pull(10)
	require.NoError(t, r.Push([]byte("0123456789")))
	r.Pull(6)
	require.NoError(t, r.Push([]byte("ABCDEF")))

	assert.Equal(t, "6789ABCDEF", string(r.Copy(0)))
	assert.Equal(t, "6789A", string(r.Copy(5)))
}

func TestFlushResetsWithoutReleasingStorage(t *testing.T) {
	var r ring.Buffer
	require.NoError(t, r.Push([]byte("data")))
	r.Flush()
	assert.Equal(t, 0, r.Length())
	require.NoError(t, r.Push([]byte("more")))
	assert.Equal(t, "more", string(r.Copy(0)))
}

func TestGrowthDoublesAcrossManyPushes(t *testing.T) {
	var r ring.Buffer
	var want []byte
	for i := 0; i < 5000; i++ {
		b := []byte{byte(i)}
		require.NoError(t, r.Push(b))
		want = append(want, b...)
	}
	assert.Equal(t, want, r.Copy(0))
}
