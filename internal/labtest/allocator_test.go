package labtest

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/logger"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

var codePattern = regexp.MustCompile(`^STI\d{6}[A-Z0-9]{3}$`)

// fakeCodeStore is a TestProcessRepository that only answers CodeExists.
// It remembers every code it has handed out and can force an initial run
// of collisions.
type fakeCodeStore struct {
	existing         map[string]bool
	forcedCollisions int
	calls            int
}

func newFakeCodeStore(forcedCollisions int) *fakeCodeStore {
	return &fakeCodeStore{
		existing:         make(map[string]bool),
		forcedCollisions: forcedCollisions,
	}
}

func (f *fakeCodeStore) CodeExists(code string) (bool, error) {
	f.calls++
	if f.calls <= f.forcedCollisions {
		return true, nil
	}
	if f.existing[code] {
		return true, nil
	}
	f.existing[code] = true
	return false, nil
}

func (f *fakeCodeStore) CreateTestProcess(*types.TestProcess) error { return nil }
func (f *fakeCodeStore) GetTestProcessByID(id string) (*types.TestProcess, error) {
	return nil, types.NewProcessNotFoundError(id)
}
func (f *fakeCodeStore) GetTestProcessByCode(code string) (*types.TestProcess, error) {
	return nil, types.NewProcessNotFoundError(code)
}
func (f *fakeCodeStore) UpdateTestProcess(string, *types.TestProcessUpdates) error { return nil }
func (f *fakeCodeStore) UpdateStage(string, types.Stage, *types.TestProcess) error { return nil }
func (f *fakeCodeStore) DeleteTestProcess(string) error                            { return nil }
func (f *fakeCodeStore) GetTestProcesses(*types.TestProcessFilters) ([]*types.TestProcess, int, error) {
	return nil, 0, nil
}

func TestAllocate_CodeFormat(t *testing.T) {
	allocator := NewCodeAllocator(newFakeCodeStore(0), logger.New("error"))

	code, err := allocator.Allocate()
	require.NoError(t, err)
	assert.Regexp(t, codePattern, code)
}

func TestAllocate_RetriesOnCollision(t *testing.T) {
	store := newFakeCodeStore(3)
	allocator := NewCodeAllocator(store, logger.New("error"))

	code, err := allocator.Allocate()
	require.NoError(t, err)
	assert.Regexp(t, codePattern, code)
	assert.Equal(t, 4, store.calls)
}

func TestAllocate_ExhaustsAfterTenAttempts(t *testing.T) {
	store := newFakeCodeStore(maxCodeAttempts)
	allocator := NewCodeAllocator(store, logger.New("error"))

	_, err := allocator.Allocate()
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrCodeCodeAllocationExhausted))
	assert.Equal(t, maxCodeAttempts, store.calls)
}

func TestAllocate_SequentialCodesAreDistinct(t *testing.T) {
	store := newFakeCodeStore(0)
	allocator := NewCodeAllocator(store, logger.New("error"))

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := allocator.Allocate()
		require.NoError(t, err)
		assert.False(t, seen[code], "code %s allocated twice", code)
		seen[code] = true
	}
}
