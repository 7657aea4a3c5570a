package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"censorship/pkg/models"
)

// Elastic indexes verdicts into one Elasticsearch index.
type Elastic struct {
	es    *elasticsearch.Client
	index string
}

func NewElastic(es *elasticsearch.Client, index string) *Elastic {
	return &Elastic{es: es, index: index}
}

func (e *Elastic) Index(ctx context.Context, v models.Verdict) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	res, err := e.es.Index(
		e.index,
		bytes.NewReader(b),
		e.es.Index.WithDocumentID(DocumentID(v.CommentID)),
		e.es.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index %s: %s", e.index, res.Status())
	}
	return nil
}
