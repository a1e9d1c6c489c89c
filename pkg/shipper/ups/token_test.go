package ups

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSource_CachesToken(t *testing.T) {
	fetcher := NewMockTokenFetcher()
	source := NewTokenSource(fetcher)

	ctx := context.Background()

	tok1, err := source.Token(ctx)
	require.NoError(t, err)
	tok2, err := source.Token(ctx)
	require.NoError(t, err)

	assert.Equal(t, "mock-token", tok1)
	assert.Equal(t, tok1, tok2)
	assert.Equal(t, 1, fetcher.CallCount())
}

func TestTokenSource_ExpiryBuffer(t *testing.T) {
	fetcher := NewMockTokenFetcher()
	calls := 0
	fetcher.OnFetchToken = func(ctx context.Context) (*Credential, error) {
		calls++
		if calls == 1 {
			return &Credential{AccessToken: "token-1", ExpiresIn: 100}, nil
		}
		return &Credential{AccessToken: "token-2", ExpiresIn: 100}, nil
	}

	source := NewTokenSource(fetcher)
	current := time.Now()
	source.now = func() time.Time { return current }

	ctx := context.Background()

	tok, err := source.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)

	// 65s in: still inside the buffered lifetime (100s - 30s buffer = 70s).
	current = current.Add(65 * time.Second)
	tok, err = source.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)
	assert.Equal(t, 1, fetcher.CallCount())

	// 75s in: past the buffered expiry even though the token would still
	// be nominally valid for another 25s.
	current = current.Add(10 * time.Second)
	tok, err = source.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
	assert.Equal(t, 2, fetcher.CallCount())
}

func TestTokenSource_SingleFlight(t *testing.T) {
	fetcher := NewMockTokenFetcher()
	fetcher.OnFetchToken = func(ctx context.Context) (*Credential, error) {
		time.Sleep(50 * time.Millisecond)
		return &Credential{AccessToken: "shared-token", ExpiresIn: 3600}, nil
	}

	source := NewTokenSource(fetcher)
	ctx := context.Background()

	const callers = 20
	tokens := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = source.Token(ctx)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared-token", tokens[i])
	}
	assert.Equal(t, 1, fetcher.CallCount())
}

func TestTokenSource_FetchFailureNotCached(t *testing.T) {
	fetcher := NewMockTokenFetcher()
	fetcher.SimulateErrors = true

	source := NewTokenSource(fetcher)
	ctx := context.Background()

	_, err := source.Token(ctx)
	require.Error(t, err)

	// The next call retries instead of serving the failed attempt.
	fetcher.SimulateErrors = false
	tok, err := source.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mock-token", tok)
	assert.Equal(t, 2, fetcher.CallCount())
}

func TestTokenSource_RefreshHookObservesOutcomes(t *testing.T) {
	fetcher := NewMockTokenFetcher()
	fetcher.SimulateErrors = true

	source := NewTokenSource(fetcher)
	var outcomes []error
	source.OnRefresh = func(err error) { outcomes = append(outcomes, err) }

	ctx := context.Background()

	_, err := source.Token(ctx)
	require.Error(t, err)

	fetcher.SimulateErrors = false
	_, err = source.Token(ctx)
	require.NoError(t, err)

	// A cache hit performs no fetch, so the hook stays quiet.
	_, err = source.Token(ctx)
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	assert.Error(t, outcomes[0])
	assert.NoError(t, outcomes[1])
}

func TestTokenSource_ConcurrentFailureSharedByAllCallers(t *testing.T) {
	fetcher := NewMockTokenFetcher()
	fetcher.OnFetchToken = func(ctx context.Context) (*Credential, error) {
		time.Sleep(20 * time.Millisecond)
		return nil, assert.AnError
	}

	source := NewTokenSource(fetcher)
	ctx := context.Background()

	const callers = 10
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = source.Token(ctx)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		assert.ErrorIs(t, errs[i], assert.AnError)
	}
	assert.Equal(t, 1, fetcher.CallCount())
}
