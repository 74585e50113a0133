package allowlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_List_Contains(t *testing.T) {
	list := New([]string{"Alice@Example.com", "  bob@example.com  ", ""})

	assert.True(t, list.Contains("alice@example.com"))
	assert.True(t, list.Contains("ALICE@EXAMPLE.COM"))
	assert.True(t, list.Contains(" bob@example.com"))
	assert.False(t, list.Contains("carol@example.com"))
	assert.Equal(t, 2, list.Len())
}

func Test_List_EmptyDeniesEveryone(t *testing.T) {
	assert.False(t, New(nil).Contains("alice@example.com"))
	assert.False(t, List{}.Contains("alice@example.com"))
	assert.False(t, New(nil).Contains(""))
}

func Test_ParseJSON(t *testing.T) {
	emails, err := ParseJSON(`["Alice@Example.com", " bob@example.com ", 42, null]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, emails)
}

func Test_ParseJSON_Empty(t *testing.T) {
	emails, err := ParseJSON("  ")
	require.NoError(t, err)
	assert.Empty(t, emails)
}

func Test_ParseJSON_NotAnArray(t *testing.T) {
	_, err := ParseJSON(`{"alice@example.com": true}`)
	require.Error(t, err)
}

func Test_Cache_LoadsOnce(t *testing.T) {
	calls := 0
	cache := NewCache(func(context.Context) ([]string, error) {
		calls++
		return []string{"alice@example.com"}, nil
	}, 0)

	ctx := context.Background()
	assert.True(t, cache.Get(ctx).Contains("alice@example.com"))
	assert.True(t, cache.Get(ctx).Contains("alice@example.com"))
	assert.Equal(t, 1, calls, "ttl 0 keeps the first load for the process lifetime")
}

func Test_Cache_RefreshAfterTTL(t *testing.T) {
	calls := 0
	cache := NewCache(func(context.Context) ([]string, error) {
		calls++
		return []string{"alice@example.com"}, nil
	}, time.Nanosecond)

	ctx := context.Background()
	cache.Get(ctx)
	time.Sleep(time.Millisecond)
	cache.Get(ctx)
	assert.Equal(t, 2, calls)
}

func Test_Cache_LoaderFailureDeniesEveryone(t *testing.T) {
	cache := NewCache(func(context.Context) ([]string, error) {
		return nil, errors.New("secret store down")
	}, 0)

	assert.False(t, cache.Get(context.Background()).Contains("alice@example.com"))
}

func Test_Cache_LoaderFailureKeepsPreviousList(t *testing.T) {
	fail := false
	cache := NewCache(func(context.Context) ([]string, error) {
		if fail {
			return nil, errors.New("secret store down")
		}
		return []string{"alice@example.com"}, nil
	}, 0)

	ctx := context.Background()
	require.True(t, cache.Get(ctx).Contains("alice@example.com"))

	fail = true
	cache.Invalidate()
	assert.True(t, cache.Get(ctx).Contains("alice@example.com"),
		"a failed refresh keeps serving the last good list")
}

func Test_StaticLoader(t *testing.T) {
	emails, err := StaticLoader([]string{"alice@example.com"})(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, emails)
}
