package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"groupchat/internal/domain/entity"
	"groupchat/internal/domain/repository"
	"groupchat/pkg/errors"
	"groupchat/pkg/logger"
)

const (
	minGroupNameLength        = 3
	maxGroupNameLength        = 30
	maxGroupDescriptionLength = 100
)

type GroupUseCase struct {
	groupRepo repository.GroupRepository
	clock     func() time.Time
}

func NewGroupUseCase(groupRepo repository.GroupRepository) *GroupUseCase {
	return &GroupUseCase{
		groupRepo: groupRepo,
		clock:     time.Now,
	}
}

type CreateGroupInput struct {
	Name        string `json:"name" validate:"required,min=3,max=30"`
	Description string `json:"description" validate:"max=100"`
	Avatar      string `json:"avatar"`
}

// JoinPrompt is what the user is asked before being added to a group.
type JoinPrompt struct {
	GroupID       string `json:"group_id"`
	GroupName     string `json:"group_name"`
	AlreadyMember bool   `json:"already_member"`
	Message       string `json:"message"`
}

func (uc *GroupUseCase) CreateGroup(ctx context.Context, creator string, input CreateGroupInput) (*entity.Group, error) {
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)

	if n := utf8.RuneCountInString(name); n < minGroupNameLength || n > maxGroupNameLength {
		return nil, errors.BadRequest(fmt.Sprintf("Group name must be %d-%d characters", minGroupNameLength, maxGroupNameLength), nil)
	}
	if utf8.RuneCountInString(description) > maxGroupDescriptionLength {
		return nil, errors.BadRequest(fmt.Sprintf("Description must be at most %d characters", maxGroupDescriptionLength), nil)
	}
	if creator == "" {
		return nil, errors.Unauthorized("Sign in to create a group", nil)
	}

	avatar := strings.TrimSpace(input.Avatar)
	if avatar == "" {
		avatar = name
	}

	group := &entity.Group{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedBy:   creator,
		CreatedAt:   uc.clock().UnixMilli(),
		Members:     []string{creator},
		Avatar:      avatar,
	}

	if err := uc.groupRepo.Create(ctx, group); err != nil {
		logger.Error("CreateGroup: failed to write group %s: %v", group.Name, err)
		return nil, errors.Internal("Failed to create group", err)
	}

	logger.Info("Group %s (%s) created by %s", group.Name, group.ID, creator)
	return group, nil
}

func (uc *GroupUseCase) GetGroup(ctx context.Context, groupID string) (*entity.Group, error) {
	if groupID == "" {
		return nil, errors.BadRequest("Group id is required", nil)
	}
	return uc.groupRepo.GetByID(ctx, groupID)
}

// RequestJoin builds the confirmation shown before joining. Nothing is written.
func (uc *GroupUseCase) RequestJoin(ctx context.Context, groupID, user string) (*JoinPrompt, error) {
	group, err := uc.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	prompt := &JoinPrompt{
		GroupID:       group.ID,
		GroupName:     group.Name,
		AlreadyMember: group.HasMember(user),
	}
	if prompt.AlreadyMember {
		prompt.Message = fmt.Sprintf("You are already a member of %s.", group.Name)
	} else {
		prompt.Message = fmt.Sprintf("Do you want to join %s?", group.Name)
	}
	return prompt, nil
}

// Join adds user to the group. Joining a group twice leaves the member list unchanged.
func (uc *GroupUseCase) Join(ctx context.Context, groupID, user string) (*entity.Group, error) {
	group, err := uc.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.HasMember(user) {
		return group, nil
	}

	if err := uc.groupRepo.AddMember(ctx, groupID, user); err != nil {
		logger.Error("Join: failed to add %s to group %s: %v", user, groupID, err)
		return nil, errors.Internal("Failed to join group", err)
	}

	updated, err := uc.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	logger.Info("%s joined group %s", user, groupID)
	return updated, nil
}

// ListGroups returns every group, oldest first.
func (uc *GroupUseCase) ListGroups(ctx context.Context) ([]*entity.Group, error) {
	groups, err := uc.groupRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].CreatedAt < groups[j].CreatedAt
	})
	return groups, nil
}
