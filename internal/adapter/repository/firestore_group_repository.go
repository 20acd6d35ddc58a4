package repository

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"groupchat/internal/domain/entity"
	"groupchat/internal/domain/repository"
	"groupchat/pkg/errors"
	"groupchat/pkg/logger"
)

const groupsCollection = "groups"

type firestoreGroupRepository struct {
	client *firestore.Client
}

func NewFirestoreGroupRepository(client *firestore.Client) repository.GroupRepository {
	return &firestoreGroupRepository{
		client: client,
	}
}

func (r *firestoreGroupRepository) Create(ctx context.Context, group *entity.Group) error {
	if group.ID == "" {
		return errors.BadRequest("Group id is required", nil)
	}

	_, err := r.client.Collection(groupsCollection).Doc(group.ID).Create(ctx, group)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Group already exists")
		}
		return errors.Internal("Failed to create group", err)
	}
	return nil
}

func (r *firestoreGroupRepository) GetByID(ctx context.Context, id string) (*entity.Group, error) {
	doc, err := r.client.Collection(groupsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Group", err)
		}
		return nil, errors.Internal("Failed to get group", err)
	}

	group, err := decodeGroup(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse group data", err)
	}
	return group, nil
}

func (r *firestoreGroupRepository) List(ctx context.Context) ([]*entity.Group, error) {
	iter := r.client.Collection(groupsCollection).Documents(ctx)
	defer iter.Stop()

	var groups []*entity.Group
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list groups", err)
		}
		group, err := decodeGroup(doc)
		if err != nil {
			logger.Warn("Skipping malformed group %s: %v", doc.Ref.ID, err)
			continue
		}
		groups = append(groups, group)
	}
	sortGroups(groups)
	return groups, nil
}

// AddMember uses an array union so concurrent joins never drop a member
// and repeated joins leave the set unchanged.
func (r *firestoreGroupRepository) AddMember(ctx context.Context, groupID, member string) error {
	_, err := r.client.Collection(groupsCollection).Doc(groupID).Update(ctx, []firestore.Update{
		{Path: "members", Value: firestore.ArrayUnion(member)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Group", err)
		}
		return errors.Internal("Failed to join group", err)
	}
	return nil
}

func (r *firestoreGroupRepository) Subscribe(ctx context.Context, fn repository.GroupSnapshotFunc) (repository.Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)

	listen(ctx, "groups", r.client.Collection(groupsCollection).Query, func(docs []*firestore.DocumentSnapshot) {
		groups := make([]*entity.Group, 0, len(docs))
		for _, doc := range docs {
			group, err := decodeGroup(doc)
			if err != nil {
				logger.Warn("Skipping malformed group %s: %v", doc.Ref.ID, err)
				continue
			}
			groups = append(groups, group)
		}
		sortGroups(groups)
		fn(groups)
	})

	return repository.Unsubscribe(cancel), nil
}

func decodeGroup(doc *firestore.DocumentSnapshot) (*entity.Group, error) {
	var group entity.Group
	if err := doc.DataTo(&group); err != nil {
		return nil, err
	}
	if group.ID == "" {
		group.ID = doc.Ref.ID
	}
	return &group, nil
}

func sortGroups(groups []*entity.Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].CreatedAt != groups[j].CreatedAt {
			return groups[i].CreatedAt < groups[j].CreatedAt
		}
		return groups[i].ID < groups[j].ID
	})
}
