package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/Joseda-hg/lazyteam/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchFunc func(ctx context.Context, id string) (model.Profile, error)

func (f fetchFunc) Profile(ctx context.Context, id string) (model.Profile, error) {
	return f(ctx, id)
}

func TestRequestStoresProfileAndNotifies(t *testing.T) {
	store := NewStore(fetchFunc(func(ctx context.Context, id string) (model.Profile, error) {
		return model.Profile{Member: model.Member{ID: id, FirstName: "Grace"}, Role: "Engineer"}, nil
	}))

	var seen []string
	store.Subscribe(func(p model.Profile) { seen = append(seen, p.ID) })

	store.Request("42")
	store.Wait()

	current, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "Grace", current.FirstName)
	assert.Equal(t, []string{"42"}, seen)

	store.Clear()
	_, ok = store.Current()
	assert.False(t, ok)
}

func TestRequestFailureIsSilent(t *testing.T) {
	store := NewStore(fetchFunc(func(ctx context.Context, id string) (model.Profile, error) {
		return model.Profile{}, errors.New("offline")
	}))

	store.Request("42")
	store.Wait()

	_, ok := store.Current()
	assert.False(t, ok)
}
