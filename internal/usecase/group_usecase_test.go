package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupchat/internal/adapter/repository"
	"groupchat/pkg/errors"
)

func TestCreateGroupValidation(t *testing.T) {
	uc := NewGroupUseCase(repository.NewMemoryStore().Groups())
	ctx := context.Background()

	cases := map[string]CreateGroupInput{
		"short name":       {Name: "go"},
		"long name":        {Name: strings.Repeat("g", 31)},
		"blank name":       {Name: "     "},
		"long description": {Name: "gophers", Description: strings.Repeat("d", 101)},
	}
	for name, in := range cases {
		_, err := uc.CreateGroup(ctx, "Ada", in)
		assert.True(t, errors.Is(err, "BAD_REQUEST"), name)
	}

	group, err := uc.CreateGroup(ctx, "Ada", CreateGroupInput{Name: " gophers ", Description: strings.Repeat("d", 100)})
	require.NoError(t, err)
	assert.Equal(t, "gophers", group.Name)
	assert.Equal(t, "Ada", group.CreatedBy)
	assert.Equal(t, []string{"Ada"}, group.Members)
	assert.Equal(t, "gophers", group.Avatar)
	assert.NotEmpty(t, group.ID)
}

func TestJoinAndList(t *testing.T) {
	uc := NewGroupUseCase(repository.NewMemoryStore().Groups())
	ctx := context.Background()

	first, err := uc.CreateGroup(ctx, "Ada", CreateGroupInput{Name: "first"})
	require.NoError(t, err)
	_, err = uc.CreateGroup(ctx, "Bob", CreateGroupInput{Name: "second"})
	require.NoError(t, err)

	prompt, err := uc.RequestJoin(ctx, first.ID, "Bob")
	require.NoError(t, err)
	assert.False(t, prompt.AlreadyMember)
	assert.Contains(t, prompt.Message, "first")

	for i := 0; i < 2; i++ {
		group, err := uc.Join(ctx, first.ID, "Bob")
		require.NoError(t, err)
		assert.Equal(t, []string{"Ada", "Bob"}, group.Members)
	}

	_, err = uc.Join(ctx, "missing", "Bob")
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	groups, err := uc.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}
