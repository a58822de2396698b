package labtest

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/interfaces"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/logger"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/monitoring"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

const (
	codePrefix      = "STI"
	codeSuffixChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts = 10
)

// CodeAllocator mints process-unique human-readable test codes of the form
// STI + 6 time-derived digits + 3 random alphanumerics. Candidates are
// pre-checked against the store and retried on collision up to a fixed
// bound; the UNIQUE constraint on the code column remains the final
// arbiter against concurrent creations.
type CodeAllocator struct {
	repository interfaces.TestProcessRepository
	logger     *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCodeAllocator creates a new test code allocator
func NewCodeAllocator(repo interfaces.TestProcessRepository, log *logger.Logger) *CodeAllocator {
	return &CodeAllocator{
		repository: repo,
		logger:     log,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Allocate draws candidate codes until one is free in the store or the
// attempt bound is exhausted
func (a *CodeAllocator) Allocate() (string, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := a.generate()

		exists, err := a.repository.CodeExists(code)
		if err != nil {
			return "", fmt.Errorf("failed to check test code uniqueness: %w", err)
		}

		if !exists {
			monitoring.RecordCodeAllocation(attempt)
			return code, nil
		}

		a.logger.WithField("code", code).Warnf("Test code collision on attempt %d", attempt)
	}

	monitoring.RecordCodeAllocation(maxCodeAttempts)
	return "", types.NewCodeAllocationExhaustedError(maxCodeAttempts)
}

// generate produces one candidate code
func (a *CodeAllocator) generate() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	digits := time.Now().UnixNano() / int64(time.Millisecond) % 1000000

	suffix := make([]byte, 3)
	for i := range suffix {
		suffix[i] = codeSuffixChars[a.rng.Intn(len(codeSuffixChars))]
	}

	return fmt.Sprintf("%s%06d%s", codePrefix, digits, suffix)
}
