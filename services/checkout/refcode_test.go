package checkout

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	paymentRepo "villamar/database/repository/payment"
	"villamar/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceFormat(t *testing.T) {
	gen := NewReferenceGenerator()

	for i := 0; i < 100; i++ {
		ref, err := gen.Generate()
		require.NoError(t, err)
		assert.Regexp(t, `^VM-[A-Z2-9]{8}$`, ref)

		// Every character after the prefix must come from the unambiguous
		// alphabet.
		for _, c := range ref[3:] {
			assert.Contains(t, refAlphabet, string(c))
		}
	}
}

func TestReferenceAlphabetOmitsAmbiguousCharacters(t *testing.T) {
	for _, forbidden := range []string{"0", "O", "1", "I", "l"} {
		assert.NotContains(t, refAlphabet, forbidden)
	}
}

func TestReferencesDoNotCollideInPractice(t *testing.T) {
	gen := NewReferenceGenerator()
	seen := make(map[string]struct{}, 5000)

	for i := 0; i < 5000; i++ {
		ref, err := gen.Generate()
		require.NoError(t, err)
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %s after %d draws", ref, i)
		seen[ref] = struct{}{}
	}
}

func TestConcurrentCreationsYieldDistinctActiveReferences(t *testing.T) {
	gen := NewReferenceGenerator()
	store := newMemPaymentRepo()

	const attempts = 64
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	// Mirrors the rail's create loop: draw a code, let the store's
	// active-uniqueness check arbitrate, retry on a collision.
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(bookingID string) {
			defer wg.Done()
			for retry := 0; retry < maxReferenceAttempts; retry++ {
				ref, err := gen.Generate()
				if err != nil {
					errs <- err
					return
				}
				err = store.Create(context.Background(), &models.PaymentRecord{
					BookingID: bookingID,
					Reference: ref,
					Method:    models.PaymentMethodSepa,
				})
				if errors.Is(err, paymentRepo.ErrDuplicateReference) {
					continue
				}
				errs <- err
				return
			}
			errs <- errors.New("reference retries exhausted")
		}("booking-" + strconv.Itoa(i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	pending, err := store.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, attempts)

	seen := make(map[string]struct{}, attempts)
	for _, record := range pending {
		_, dup := seen[record.Reference]
		require.False(t, dup, "reference %s issued to two active records", record.Reference)
		seen[record.Reference] = struct{}{}
	}
}

func TestReferencePrefixIsConfigurable(t *testing.T) {
	gen := &ReferenceGenerator{Prefix: "XX", Length: 4}
	ref, err := gen.Generate()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "XX-"))
	assert.Len(t, ref, 7)
}
