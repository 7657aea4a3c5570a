// Package moderation consumes submitted comments from Kafka, checks them
// for profanity and indexes the verdicts into Elasticsearch.
package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"censorship/pkg/censor"
	"censorship/pkg/models"
)

var ErrMalformedComment = errors.New("malformed comment")

// Reader yields comment messages; *kafka.Reader satisfies it.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Checker checks text in a language; *censor.Censor satisfies it.
type Checker interface {
	Check(ctx context.Context, language, text string) (*censor.Result, error)
}

// Indexer stores verdicts.
type Indexer interface {
	Index(ctx context.Context, v models.Verdict) error
}

type Service struct {
	reader     Reader
	checker    Checker
	indexer    Indexer
	numWorkers int

	now func() time.Time
}

func New(r Reader, c Checker, idx Indexer, numWorkers int) *Service {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Service{
		reader:     r,
		checker:    c,
		indexer:    idx,
		numWorkers: numWorkers,
		now:        time.Now,
	}
}

// Run reads messages until ctx is cancelled or the reader is closed and
// hands them to the workers. It returns once every worker has finished.
func (s *Service) Run(ctx context.Context) {
	jobs := make(chan kafka.Message, s.numWorkers*5) // buffer is needed to increase throughput
	var wg sync.WaitGroup
	wg.Add(s.numWorkers)
	for workerID := 0; workerID < s.numWorkers; workerID++ {
		go func(id int) {
			defer wg.Done()
			s.worker(ctx, jobs, id)
		}(workerID)
	}

	log.Info("[moderation] accepting comments...")
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				break
			}
			log.Errorf("[moderation] failed to read message from Kafka: %v", err)
			continue
		}
		log.Debugf("[moderation] received message offset:%d", msg.Offset)

		select {
		case jobs <- msg:
		case <-ctx.Done():
		}
	}

	close(jobs)
	wg.Wait()
}

func (s *Service) worker(ctx context.Context, jobs <-chan kafka.Message, workerID int) {
	for {
		select {
		case <-ctx.Done():
			log.Infof("[moderation][workerID:%d] context cancelled, exiting worker", workerID)
			return

		case msg, ok := <-jobs:
			if !ok {
				log.Infof("[moderation][workerID:%d] jobs channel closed, exiting worker", workerID)
				return
			}

			v, err := s.Moderate(ctx, msg.Value)
			if err != nil {
				log.Errorf("[moderation][workerID:%d] skipping message offset:%d: %v", workerID, msg.Offset, err)
				continue
			}
			if err := s.indexer.Index(ctx, v); err != nil {
				log.Errorf("[moderation][workerID:%d] failed to index verdict for comment %v: %v", workerID, v.CommentID, err)
				continue
			}
			log.Infof("[moderation][workerID:%d][%s] verdict indexed, profane:%v", workerID, shorten(v.CommentID.String()), v.HasProfanity)
		}
	}
}

// Moderate decodes a comment and checks it in its own language.
func (s *Service) Moderate(ctx context.Context, b []byte) (models.Verdict, error) {
	var c models.Comment
	if err := json.Unmarshal(b, &c); err != nil {
		return models.Verdict{}, fmt.Errorf("%w: %v", ErrMalformedComment, err)
	}
	if c.ID == uuid.Nil {
		return models.Verdict{}, fmt.Errorf("%w: missing id", ErrMalformedComment)
	}

	res, err := s.checker.Check(ctx, c.Language, c.Text)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("failed to check comment %v: %w", c.ID, err)
	}

	return models.Verdict{
		CommentID:        c.ID,
		PostID:           c.PostID,
		Author:           c.Author,
		Language:         c.Language,
		HasProfanity:     res.HasProfanity(),
		CleanText:        res.CleanString(),
		ProfanitiesCount: res.ProfanitiesCount(),
		Profanities:      res.UniqueProfanitiesFound(),
		CheckedAt:        s.now().UTC(),
	}, nil
}

// DocumentID derives a stable document ID from a comment ID, so a comment
// read twice overwrites its verdict.
func DocumentID(commentID uuid.UUID) string {
	return uuid.NewV5(uuid.NamespaceOID, commentID.String()).String()
}

func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
