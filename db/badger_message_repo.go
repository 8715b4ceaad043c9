package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"time"

	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

const (
	badgerMessagePrefix = "msg:"
	badgerIDPrefix      = "mid:"
	badgerMaxRetries    = 8
)

type badgerMessageRepo struct {
	db *badger.DB
}

// OpenBadger opens the embedded message log. An empty dir opens it in memory.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)
	return badger.Open(opts)
}

func NewBadgerMessageRepo(db *badger.DB) MessageRepository {
	return &badgerMessageRepo{db: db}
}

// messageKey is formatted as "msg:{len}:{conversation}:{unixnano padded}:{id}"
// so a prefix scan walks a conversation in timestamp order. The length keeps
// conversation "a" from matching keys of "a:b". The id breaks ties.
func messageKey(msg *models.Message) []byte {
	return append(conversationPrefix(msg.ConversationID),
		fmt.Sprintf("%019d:%s", msg.Timestamp.UnixNano(), msg.ID)...)
}

func conversationPrefix(conversationID string) []byte {
	return []byte(fmt.Sprintf("%s%d:%s:", badgerMessagePrefix, len(conversationID), conversationID))
}

// Append writes the message and its id index in one transaction. Two
// concurrent appends of the same id both read the index key, so badger
// rejects the later commit with ErrConflict and the retry finds the winner.
func (m *badgerMessageRepo) Append(ctx context.Context, msg *models.Message) (*models.Message, bool, error) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	idKey := []byte(badgerIDPrefix + msg.ID)

	for attempt := 0; attempt < badgerMaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, false, errors.Wrapf(apiErrors.ErrPersistence, "append message %s: %v", msg.ID, err)
		}

		var stored *models.Message
		created := false
		err := m.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(idKey)
			switch {
			case err == nil:
				key, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				existing, err := readMessage(txn, key)
				if err != nil {
					return err
				}
				stored = existing
				return nil
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}

			value, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			key := messageKey(msg)
			if err := txn.Set(key, value); err != nil {
				return err
			}
			if err := txn.Set(idKey, key); err != nil {
				return err
			}
			stored = msg
			created = true
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			log.Printf("badger conflict appending message %s, retrying", msg.ID)
			continue
		}
		if err != nil {
			return nil, false, errors.Wrapf(apiErrors.ErrPersistence, "append message %s: %v", msg.ID, err)
		}
		return stored, created, nil
	}
	return nil, false, errors.Wrapf(apiErrors.ErrPersistence, "append message %s: too many conflicts", msg.ID)
}

func readMessage(txn *badger.Txn, key []byte) (*models.Message, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	var msg models.Message
	err = item.Value(func(value []byte) error {
		return json.Unmarshal(value, &msg)
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListPage walks the conversation prefix backwards from the newest key,
// skipping whole pages and counting every key for the total.
func (m *badgerMessageRepo) ListPage(ctx context.Context, conversationID string, page, pageSize int) (*models.MessagePage, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	messages := []models.Message{}
	var total int64

	err := m.db.View(func(txn *badger.Txn) error {
		prefix := conversationPrefix(conversationID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchValues = false
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			position := total
			total++
			if position < int64(offset) || position >= int64(offset+pageSize) {
				continue
			}
			var msg models.Message
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &msg)
			})
			if err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(apiErrors.ErrPersistence, "list messages: %v", err)
	}

	slices.Reverse(messages)
	return &models.MessagePage{
		Messages:   messages,
		Page:       page,
		Limit:      pageSize,
		TotalCount: total,
		HasNext:    models.HasNextPage(page, pageSize, total),
		HasPrev:    page > 1,
	}, nil
}
