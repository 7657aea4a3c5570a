package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"censorship/pkg/censor"
	"censorship/pkg/lang"
	"censorship/pkg/models"
)

func TestMain(m *testing.M) {
	log.SetLevel(log.PanicLevel)
	exitCode := m.Run()
	os.Exit(exitCode)
}

// sliceReader returns its messages in order, then io.EOF.
type sliceReader struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

type memIndexer struct {
	mu       sync.Mutex
	verdicts map[uuid.UUID]models.Verdict
	err      error
}

func (m *memIndexer) Index(ctx context.Context, v models.Verdict) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdicts[v.CommentID] = v
	return nil
}

func newCensor(t *testing.T) *censor.Censor {
	t.Helper()
	cat, err := lang.Default()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return censor.New(catalogSource{cat}, censor.WithDefaultLanguage(cat.DefaultLanguage()))
}

type catalogSource struct {
	cat *lang.Catalog
}

func (s catalogSource) Language(ctx context.Context, name string) (lang.Config, error) {
	return s.cat.Language(name)
}

func message(t *testing.T, c models.Comment) kafka.Message {
	t.Helper()
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("failed to marshal comment: %v", err)
	}
	return kafka.Message{Value: b}
}

func TestService_Moderate(t *testing.T) {
	s := New(nil, newCensor(t), nil, 1)
	checkedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return checkedAt }

	id := uuid.Must(uuid.NewV4())
	postID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name    string
		comment models.Comment
		want    models.Verdict
	}{
		{
			name:    "profane",
			comment: models.Comment{ID: id, PostID: postID, Author: "John", Text: "what a sh1t day"},
			want: models.Verdict{
				CommentID:        id,
				PostID:           postID,
				Author:           "John",
				HasProfanity:     true,
				CleanText:        "what a **** day",
				ProfanitiesCount: 1,
				Profanities:      []string{"shit"},
				CheckedAt:        checkedAt,
			},
		},
		{
			name:    "clean french",
			comment: models.Comment{ID: id, PostID: postID, Author: "Jean", Text: "une bonne tête", Language: "french"},
			want: models.Verdict{
				CommentID:   id,
				PostID:      postID,
				Author:      "Jean",
				Language:    "french",
				CleanText:   "une bonne tête",
				Profanities: []string{},
				CheckedAt:   checkedAt,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Moderate(context.Background(), message(t, tt.comment).Value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Profanities == nil {
				got.Profanities = []string{}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("want verdict\n%+v\ngot verdict\n%+v", tt.want, got)
			}
		})
	}
}

func TestService_ModerateErrors(t *testing.T) {
	s := New(nil, newCensor(t), nil, 1)
	ctx := context.Background()

	if _, err := s.Moderate(ctx, []byte("{not json")); !errors.Is(err, ErrMalformedComment) {
		t.Errorf("want error %v, got %v", ErrMalformedComment, err)
	}
	if _, err := s.Moderate(ctx, []byte(`{"text": "hello"}`)); !errors.Is(err, ErrMalformedComment) {
		t.Errorf("want error %v for missing id, got %v", ErrMalformedComment, err)
	}

	c := models.Comment{ID: uuid.Must(uuid.NewV4()), Text: "hello", Language: "klingon"}
	if _, err := s.Moderate(ctx, message(t, c).Value); !errors.Is(err, lang.ErrUnsupportedLanguage) {
		t.Errorf("want error %v, got %v", lang.ErrUnsupportedLanguage, err)
	}
}

func TestService_Run(t *testing.T) {
	var (
		msgs []kafka.Message
		ids  []uuid.UUID
	)
	for i := 0; i < 20; i++ {
		c := models.Comment{ID: uuid.Must(uuid.NewV4()), Author: "bot", Text: "clean text"}
		if i%2 == 0 {
			c.Text = "shit happens"
		}
		ids = append(ids, c.ID)
		msgs = append(msgs, message(t, c))
	}
	msgs = append(msgs, kafka.Message{Value: []byte("garbage")})

	idx := &memIndexer{verdicts: make(map[uuid.UUID]models.Verdict)}
	s := New(&sliceReader{msgs: msgs}, newCensor(t), idx, 4)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("want Run to return once the reader is drained")
	}

	if len(idx.verdicts) != len(ids) {
		t.Fatalf("want %d verdicts, got %d", len(ids), len(idx.verdicts))
	}
	profane := 0
	for _, id := range ids {
		v, ok := idx.verdicts[id]
		if !ok {
			t.Fatalf("want verdict for comment %v", id)
		}
		if v.HasProfanity {
			profane++
		}
	}
	if profane != 10 {
		t.Errorf("want 10 profane verdicts, got %d", profane)
	}
}

// blockingReader blocks until ctx is done.
type blockingReader struct{}

func (blockingReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func TestService_RunCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(blockingReader{}, newCensor(t), &memIndexer{}, 0)

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("want Run to return after cancel")
	}
}

func TestDocumentID(t *testing.T) {
	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())

	ids := []string{DocumentID(a), DocumentID(a), DocumentID(b)}
	if ids[0] != ids[1] {
		t.Error("want stable document id")
	}
	if ids[0] == ids[2] {
		t.Error("want distinct document ids for distinct comments")
	}
	sort.Strings(ids)
	if _, err := uuid.FromString(ids[0]); err != nil {
		t.Errorf("want UUID document id, got %q", ids[0])
	}
}
