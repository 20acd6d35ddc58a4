package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"groupchat/internal/domain/entity"
	"groupchat/internal/domain/repository"
	"groupchat/pkg/errors"
	"groupchat/pkg/logger"
)

const messagesCollection = "messages"

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.ChatMessage) error {
	if message.ID == "" {
		return errors.BadRequest("Message id is required", nil)
	}

	_, err := r.client.Collection(messagesCollection).Doc(message.ID).Create(ctx, message)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Message already exists")
		}
		return errors.Internal("Failed to create message", err)
	}
	return nil
}

func (r *firestoreMessageRepository) List(ctx context.Context) ([]*entity.ChatMessage, error) {
	iter := r.client.Collection(messagesCollection).OrderBy("timestamp", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var messages []*entity.ChatMessage
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list messages", err)
		}
		message, err := decodeMessage(doc)
		if err != nil {
			logger.Warn("Skipping malformed message %s: %v", doc.Ref.ID, err)
			continue
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// Subscribe streams the whole ordered log on every change. The first
// snapshot carries the current contents.
func (r *firestoreMessageRepository) Subscribe(ctx context.Context, fn repository.MessageSnapshotFunc) (repository.Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)
	query := r.client.Collection(messagesCollection).OrderBy("timestamp", firestore.Asc)

	listen(ctx, "messages", query, func(docs []*firestore.DocumentSnapshot) {
		messages := make([]*entity.ChatMessage, 0, len(docs))
		for _, doc := range docs {
			message, err := decodeMessage(doc)
			if err != nil {
				logger.Warn("Skipping malformed message %s: %v", doc.Ref.ID, err)
				continue
			}
			messages = append(messages, message)
		}
		fn(messages)
	})

	return repository.Unsubscribe(cancel), nil
}

func decodeMessage(doc *firestore.DocumentSnapshot) (*entity.ChatMessage, error) {
	var message entity.ChatMessage
	if err := doc.DataTo(&message); err != nil {
		return nil, err
	}
	if message.ID == "" {
		message.ID = doc.Ref.ID
	}
	return &message, nil
}

// listen runs a snapshot listener until ctx ends or the stream fails.
func listen(ctx context.Context, name string, query firestore.Query, deliver func([]*firestore.DocumentSnapshot)) {
	it := query.Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				logger.Error("Firestore %s listener stopped: %v", name, err)
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.Error("Firestore %s snapshot read failed: %v", name, err)
				continue
			}
			deliver(docs)
		}
	}()
}
