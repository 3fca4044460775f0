package spanstack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeEmpty(t *testing.T) {
	assert.Nil(t, Scope(context.Background()))

	_, ok := Current(context.Background())
	assert.False(t, ok)
}

func TestScopeOrderedRootToLeaf(t *testing.T) {
	ctx := context.Background()
	ctx = Push(ctx, Entry{Name: "root"})
	ctx = Push(ctx, Entry{Name: "middle", Fields: `{"page":"1"}`})
	ctx = Push(ctx, Entry{Name: "leaf"})

	scope := Scope(ctx)
	assert.Len(t, scope, 3)
	assert.Equal(t, "root", scope[0].Name)
	assert.Equal(t, "middle", scope[1].Name)
	assert.Equal(t, `{"page":"1"}`, scope[1].Fields)
	assert.Equal(t, "leaf", scope[2].Name)

	current, ok := Current(ctx)
	assert.True(t, ok)
	assert.Equal(t, "leaf", current.Name)
}

func TestPushDoesNotMutateParentScope(t *testing.T) {
	root := Push(context.Background(), Entry{Name: "root"})
	left := Push(root, Entry{Name: "left"})
	right := Push(root, Entry{Name: "right"})

	assert.Len(t, Scope(root), 1)
	assert.Equal(t, "left", Scope(left)[1].Name)
	assert.Equal(t, "right", Scope(right)[1].Name)
}
