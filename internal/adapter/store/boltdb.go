// Package store persists conversations, knowledge chunks, embeddings
// and usage totals in a single BoltDB file.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"aissistant/internal/domain"
	"aissistant/internal/port"
)

var (
	bucketConvs     = []byte("conversations")
	bucketMessages  = []byte("messages")
	bucketDocs      = []byte("docs")
	bucketChunks    = []byte("chunks")
	bucketBlobs     = []byte("blobs")
	bucketDocChunks = []byte("doc_chunks")
	bucketUsage     = []byte("usage")
)

type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketConvs, bucketMessages, bucketDocs, bucketChunks, bucketBlobs, bucketDocChunks, bucketUsage}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

type convMeta struct {
	Title     string `json:"title"`
	Persona   string `json:"persona"`
	Model     string `json:"model"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type messageMeta struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	Name       string `json:"name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	Tokens     int    `json:"tokens"`
	SentAt     int64  `json:"sent_at"`
}

type docMeta struct {
	Path    string `json:"path"`
	ModTime int64  `json:"mod_time"`
	Kind    string `json:"kind"`
}

type chunkMeta struct {
	DocID   string `json:"doc_id"`
	Ordinal int    `json:"ordinal"`
	Tokens  int    `json:"tokens"`
}

func (s *BoltStore) PutConversation(conv domain.Conversation) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := convMeta{
			Title:     conv.Title,
			Persona:   conv.Persona,
			Model:     conv.Model,
			CreatedAt: conv.CreatedAt.Unix(),
			UpdatedAt: conv.UpdatedAt.Unix(),
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketConvs).Put([]byte(conv.ID), data)
	})
}

func (s *BoltStore) GetConversation(id string) (domain.Conversation, error) {
	var conv domain.Conversation
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketConvs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("conversation not found: %s", id)
		}
		var meta convMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		conv = domain.Conversation{
			ID:        id,
			Title:     meta.Title,
			Persona:   meta.Persona,
			Model:     meta.Model,
			CreatedAt: time.Unix(meta.CreatedAt, 0),
			UpdatedAt: time.Unix(meta.UpdatedAt, 0),
		}
		return nil
	})
	return conv, err
}

func (s *BoltStore) ListConversations() ([]domain.Conversation, error) {
	var convs []domain.Conversation
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketConvs)
		return b.ForEach(func(k, v []byte) error {
			var meta convMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			convs = append(convs, domain.Conversation{
				ID:        string(k),
				Title:     meta.Title,
				Persona:   meta.Persona,
				Model:     meta.Model,
				CreatedAt: time.Unix(meta.CreatedAt, 0),
				UpdatedAt: time.Unix(meta.UpdatedAt, 0),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, nil
}

func (s *BoltStore) DeleteConversation(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketConvs).Delete([]byte(id)); err != nil {
			return err
		}
		msgs := tx.Bucket(bucketMessages)
		if msgs.Bucket([]byte(id)) != nil {
			return msgs.DeleteBucket([]byte(id))
		}
		return nil
	})
}

// AppendMessage stores a message under the next sequence number so that
// replay order matches append order.
func (s *BoltStore) AppendMessage(convID string, msg domain.Message) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(bucketMessages).CreateBucketIfNotExists([]byte(convID))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		meta := messageMeta{
			Role:       string(msg.Role),
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
			Tokens:     msg.Tokens,
			SentAt:     msg.SentAt.Unix(),
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, data)
	})
}

func (s *BoltStore) GetMessages(convID string) ([]domain.Message, error) {
	var msgs []domain.Message
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMessages).Bucket([]byte(convID))
		if b == nil {
			return nil
		}
		// big-endian sequence keys iterate in append order
		return b.ForEach(func(k, v []byte) error {
			var meta messageMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			msgs = append(msgs, domain.Message{
				Role:       domain.Role(meta.Role),
				Content:    meta.Content,
				Name:       meta.Name,
				ToolCallID: meta.ToolCallID,
				Tokens:     meta.Tokens,
				SentAt:     time.Unix(meta.SentAt, 0),
			})
			return nil
		})
	})
	return msgs, err
}

// PutDocument replaces a document and all of its chunks in a single
// transaction. Stale chunks from a previous ingest are removed first.
func (s *BoltStore) PutDocument(doc domain.Document, chunks []domain.Chunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		docsBucket := tx.Bucket(bucketDocs)
		chunksBucket := tx.Bucket(bucketChunks)
		blobsBucket := tx.Bucket(bucketBlobs)
		docChunksBucket := tx.Bucket(bucketDocChunks)

		if err := deleteDocChunks(tx, doc.ID); err != nil {
			return err
		}

		meta := docMeta{
			Path:    doc.Path,
			ModTime: doc.ModTime.Unix(),
			Kind:    doc.Kind,
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := docsBucket.Put([]byte(doc.ID), data); err != nil {
			return err
		}

		chunkIDs := make([]string, 0, len(chunks))
		for _, chunk := range chunks {
			cm := chunkMeta{
				DocID:   chunk.DocID,
				Ordinal: chunk.Ordinal,
				Tokens:  chunk.Tokens,
			}
			data, err := json.Marshal(cm)
			if err != nil {
				return err
			}
			if err := chunksBucket.Put([]byte(chunk.ID), data); err != nil {
				return err
			}
			if err := blobsBucket.Put([]byte(chunk.ID), []byte(chunk.Text)); err != nil {
				return err
			}
			chunkIDs = append(chunkIDs, chunk.ID)
		}

		chunkIDsData, _ := json.Marshal(chunkIDs)
		return docChunksBucket.Put([]byte(doc.ID), chunkIDsData)
	})
}

func (s *BoltStore) GetDocument(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document not found: %s", id)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		doc = domain.Document{
			ID:      id,
			Path:    meta.Path,
			ModTime: time.Unix(meta.ModTime, 0),
			Kind:    meta.Kind,
		}
		return nil
	})
	return doc, err
}

func (s *BoltStore) ListDocuments() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocs)
		return b.ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			docs = append(docs, domain.Document{
				ID:      string(k),
				Path:    meta.Path,
				ModTime: time.Unix(meta.ModTime, 0),
				Kind:    meta.Kind,
			})
			return nil
		})
	})
	return docs, err
}

func (s *BoltStore) DeleteDocument(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := deleteDocChunks(tx, id); err != nil {
			return err
		}
		return tx.Bucket(bucketDocs).Delete([]byte(id))
	})
}

func deleteDocChunks(tx *bbolt.Tx, docID string) error {
	docChunks := tx.Bucket(bucketDocChunks)
	data := docChunks.Get([]byte(docID))
	if data == nil {
		return nil
	}
	var chunkIDs []string
	if err := json.Unmarshal(data, &chunkIDs); err != nil {
		return err
	}
	chunkBucket := tx.Bucket(bucketChunks)
	blobBucket := tx.Bucket(bucketBlobs)
	for _, id := range chunkIDs {
		chunkBucket.Delete([]byte(id))
		blobBucket.Delete([]byte(id))
	}
	return docChunks.Delete([]byte(docID))
}

func (s *BoltStore) GetChunk(id string) (domain.Chunk, error) {
	var chunk domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketChunks).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("chunk not found: %s", id)
		}
		var meta chunkMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		text := tx.Bucket(bucketBlobs).Get([]byte(id))
		chunk = domain.Chunk{
			ID:      id,
			DocID:   meta.DocID,
			Ordinal: meta.Ordinal,
			Tokens:  meta.Tokens,
			Text:    string(text),
		}
		return nil
	})
	return chunk, err
}

func (s *BoltStore) GetChunksByDoc(docID string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocChunks).Get([]byte(docID))
		if data == nil {
			return nil
		}
		var chunkIDs []string
		if err := json.Unmarshal(data, &chunkIDs); err != nil {
			return err
		}
		chunkBucket := tx.Bucket(bucketChunks)
		blobBucket := tx.Bucket(bucketBlobs)
		for _, id := range chunkIDs {
			data := chunkBucket.Get([]byte(id))
			if data == nil {
				continue
			}
			var meta chunkMeta
			if err := json.Unmarshal(data, &meta); err != nil {
				continue
			}
			text := blobBucket.Get([]byte(id))
			chunks = append(chunks, domain.Chunk{
				ID:      id,
				DocID:   meta.DocID,
				Ordinal: meta.Ordinal,
				Tokens:  meta.Tokens,
				Text:    string(text),
			})
		}
		return nil
	})
	return chunks, err
}

func (s *BoltStore) AllChunks() ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		chunkBucket := tx.Bucket(bucketChunks)
		blobBucket := tx.Bucket(bucketBlobs)
		return chunkBucket.ForEach(func(k, v []byte) error {
			var meta chunkMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			text := blobBucket.Get(k)
			chunks = append(chunks, domain.Chunk{
				ID:      string(k),
				DocID:   meta.DocID,
				Ordinal: meta.Ordinal,
				Tokens:  meta.Tokens,
				Text:    string(text),
			})
			return nil
		})
	})
	return chunks, err
}

func (s *BoltStore) Stats() (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		stats.TotalDocs = tx.Bucket(bucketDocs).Stats().KeyN

		var totalLen int
		blobBucket := tx.Bucket(bucketBlobs)
		err := blobBucket.ForEach(func(k, v []byte) error {
			stats.TotalChunks++
			totalLen += len(v)
			return nil
		})
		if err != nil {
			return err
		}
		if stats.TotalChunks > 0 {
			stats.AvgChunkLen = float64(totalLen) / float64(stats.TotalChunks)
		}
		return nil
	})
	return stats, err
}

func (s *BoltStore) AddUsage(model string, inputTokens, outputTokens int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsage)
		var usage port.ModelUsage
		if data := b.Get([]byte(model)); data != nil {
			if err := json.Unmarshal(data, &usage); err != nil {
				return err
			}
		}
		usage.InputTokens += inputTokens
		usage.OutputTokens += outputTokens
		usage.Requests++
		data, err := json.Marshal(usage)
		if err != nil {
			return err
		}
		return b.Put([]byte(model), data)
	})
}

func (s *BoltStore) UsageTotals() (map[string]port.ModelUsage, error) {
	totals := make(map[string]port.ModelUsage)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsage)
		return b.ForEach(func(k, v []byte) error {
			var usage port.ModelUsage
			if err := json.Unmarshal(v, &usage); err != nil {
				return err
			}
			totals[string(k)] = usage
			return nil
		})
	})
	return totals, err
}

var (
	_ port.ConversationStore = (*BoltStore)(nil)
	_ port.KnowledgeStore    = (*BoltStore)(nil)
	_ port.UsageStore        = (*BoltStore)(nil)
)
