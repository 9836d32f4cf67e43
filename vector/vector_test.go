package vector_test

import (
	"math/rand"
	"testing"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/funny-falcon/containers/alloc"
	"github.com/funny-falcon/containers/vector"
)

// budget serves allocsLeft more requests from the heap, then fails.
type budget struct{}

var (
	allocsLeft = -1
	liveAllocs = 0
)

func (budget) Alloc(ln int) unsafe.Pointer {
	if allocsLeft == 0 {
		return nil
	}
	if allocsLeft > 0 {
		allocsLeft--
	}
	liveAllocs++
	return alloc.Heap{}.Alloc(ln)
}

func (budget) Dealloc(ptr unsafe.Pointer) {
	if ptr != nil {
		liveAllocs--
	}
}

func withBudget(t *testing.T, n int) {
	allocsLeft = n
	liveAllocs = 0
	t.Cleanup(func() { allocsLeft = -1 })
}

type Ints = vector.Vector[int, int, alloc.Heap]

func TestPushPopScenario(t *testing.T) {
	var v Ints
	for i := 0; i < 3; i++ {
		p, err := v.PushBack(i)
		require.NoError(t, err)
		require.Equal(t, i, *p)
	}
	require.Equal(t, 3, v.Len())
	require.Equal(t, 0, *v.Ref(0))
	require.Equal(t, 1, *v.Ref(1))
	require.Equal(t, 2, *v.Ref(2))
	require.Equal(t, []int{0, 1, 2}, v.Slice())

	require.Equal(t, 2, v.PopBack())
	require.Equal(t, 2, v.Len())
	require.Nil(t, v.At(2))
	require.Equal(t, 1, *v.At(1))
}

func TestPushBackOrder(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 2, 3, 10, 100, 1000} {
		var v vector.Vector[int64, uint32, alloc.SlabAllocator]
		vals := make([]int64, n)
		for i := range vals {
			vals[i] = rnd.Int63()
			_, err := v.PushBack(vals[i])
			require.NoError(t, err)
		}
		require.Equal(t, uint32(n), v.Len())
		require.GreaterOrEqual(t, v.Cap(), v.Len())
		for i := range vals {
			require.Equal(t, vals[i], *v.At(uint32(i)))
		}
		for i := n - 1; i >= 0; i-- {
			require.Equal(t, vals[i], v.PopBack())
			require.Equal(t, uint32(i), v.Len())
		}
		v.Free()
	}
}

func TestGrowthSequence(t *testing.T) {
	var v Ints
	var caps []int
	for i := 0; i < 100; i++ {
		_, err := v.PushBack(i)
		require.NoError(t, err)
		if len(caps) == 0 || caps[len(caps)-1] != v.Cap() {
			caps = append(caps, v.Cap())
		}
	}
	require.Equal(t, []int{2, 3, 4, 6, 9, 13, 19, 28, 42, 63, 94, 141}, caps)
}

func TestResizeFarBeyondCapacity(t *testing.T) {
	var v Ints
	_, err := v.PushBack(7)
	require.NoError(t, err)
	require.Equal(t, 2, v.Cap())

	require.NoError(t, v.Resize(100))
	require.Equal(t, 100, v.Len())
	require.Equal(t, 141, v.Cap())
	require.Equal(t, 7, *v.Ref(0))
	for i := 1; i < 100; i++ {
		require.Zero(t, *v.Ref(i))
	}

	// exactly at capacity still grows
	require.NoError(t, v.Resize(141))
	require.Equal(t, 211, v.Cap())
}

func TestResizeShrinkKeepsCapacity(t *testing.T) {
	v, err := vector.Of[int, int, alloc.Heap](1, 2, 3, 4, 5)
	require.NoError(t, err)
	c := v.Cap()
	require.NoError(t, v.Resize(2))
	require.Equal(t, []int{1, 2}, v.Slice())
	require.Equal(t, c, v.Cap())
	require.NoError(t, v.Resize(4))
	require.Equal(t, []int{1, 2, 0, 0}, v.Slice())
}

func TestMakeAndOf(t *testing.T) {
	v, err := vector.Make[string, uint8, alloc.Heap](5)
	require.NoError(t, err)
	require.Equal(t, uint8(5), v.Len())
	require.GreaterOrEqual(t, v.Cap(), uint8(5))
	for _, s := range v.Slice() {
		require.Equal(t, "", s)
	}

	w, err := vector.Of[string, uint8, alloc.Heap]("a", "b", "c")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, w.Slice())

	e, err := vector.Make[int, int, alloc.Heap](0)
	require.NoError(t, err)
	require.Zero(t, e.Len())
	require.Equal(t, 2, e.Cap())
	require.Nil(t, e.Slice())
}

func TestSmallSizeType(t *testing.T) {
	var v vector.Vector[byte, int8, alloc.Heap]
	require.Equal(t, int8(127), v.MaxSize())
	for i := 0; i < 127; i++ {
		_, err := v.PushBack(byte(i))
		require.NoError(t, err)
	}
	require.Equal(t, int8(127), v.Cap())
	_, err := v.PushBack(0)
	require.True(t, errors.Is(err, alloc.ErrAllocFailed))
	require.Equal(t, int8(127), v.Len())
}

func TestCloneMoveFree(t *testing.T) {
	withBudget(t, -1)
	v, err := vector.Of[int, int, budget](1, 2, 3)
	require.NoError(t, err)

	c, err := v.Clone()
	require.NoError(t, err)
	*c.Ref(0) = 10
	require.Equal(t, 1, *v.Ref(0))
	require.Equal(t, []int{10, 2, 3}, c.Slice())

	m := v.Move()
	require.Zero(t, v.Len())
	require.Zero(t, v.Cap())
	require.Nil(t, v.Slice())
	require.Equal(t, []int{1, 2, 3}, m.Slice())

	var empty vector.Vector[int, int, budget]
	ec, err := empty.Clone()
	require.NoError(t, err)
	require.Zero(t, ec.Cap())

	require.Equal(t, 2, liveAllocs)
	m.Free()
	c.Free()
	v.Free()
	require.Equal(t, 0, liveAllocs)
}

func TestAllocationFailure(t *testing.T) {
	var f vector.Vector[int, int, alloc.Failing]
	_, err := f.PushBack(1)
	require.True(t, errors.Is(err, alloc.ErrAllocFailed))
	require.Zero(t, f.Len())
	require.Zero(t, f.Cap())

	_, err = vector.Make[int, int, alloc.Failing](3)
	require.True(t, errors.Is(err, alloc.ErrAllocFailed))
}

func TestResizePastHeapLimit(t *testing.T) {
	var v vector.Vector[byte, int, alloc.Heap]
	err := v.Resize(alloc.HeapLimit + 1)
	require.True(t, errors.Is(err, alloc.ErrAllocFailed))
	require.Zero(t, v.Len())
	require.Zero(t, v.Cap())

	old := alloc.HeapLimit
	alloc.HeapLimit = 1 << 10
	t.Cleanup(func() { alloc.HeapLimit = old })
	require.NoError(t, v.Resize(500))
	err = v.Resize(1 << 10)
	require.True(t, errors.Is(err, alloc.ErrAllocFailed))
	require.Equal(t, 500, v.Len())
}

func TestNilStrategy(t *testing.T) {
	var v vector.Vector[int, int, *alloc.Slab]
	_, err := v.PushBack(1)
	require.True(t, errors.Is(err, alloc.ErrAllocFailed))
	require.Zero(t, v.Len())
	require.Zero(t, v.Cap())
	v.Free()
}

func TestGrowthFailureRollsBack(t *testing.T) {
	withBudget(t, 1)
	var v vector.Vector[int, int, budget]
	_, err := v.PushBack(1)
	require.NoError(t, err)

	err = v.Resize(50)
	require.True(t, errors.Is(err, alloc.ErrAllocFailed))
	require.Equal(t, 1, v.Len())
	require.Equal(t, 2, v.Cap())
	require.Equal(t, []int{1}, v.Slice())
	require.Equal(t, 1, liveAllocs)
}

func TestFirstAllocationRollsBack(t *testing.T) {
	withBudget(t, 1)
	var v vector.Vector[int, int, budget]
	err := v.Resize(10)
	require.True(t, errors.Is(err, alloc.ErrAllocFailed))
	require.Zero(t, v.Cap())
	require.Zero(t, v.Len())
	require.Equal(t, 0, liveAllocs)
}

func BenchmarkPushBack(b *testing.B) {
	var v vector.Vector[int, int, alloc.SlabAllocator]
	for i := 0; i < b.N; i++ {
		if _, err := v.PushBack(i); err != nil {
			b.Fatal(err)
		}
	}
	v.Free()
}
