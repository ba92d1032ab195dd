package settings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/meilisearch/meilisearch-go"
)

// MeiliStore implements Store with MeiliSearch as the backend. The option is
// a single document in a dedicated index; Delete drops the index.
// It is safe for concurrent use.
type MeiliStore struct {
	client    meilisearch.ServiceManager
	index     meilisearch.IndexManager
	indexName string
}

// NewMeiliStore creates a MeiliStore connected to the given MeiliSearch instance.
// It verifies connectivity with a health check and ensures the target index
// exists before returning.
func NewMeiliStore(endpoint, apiKey, indexName string) (*MeiliStore, error) {
	client := meilisearch.New(endpoint, meilisearch.WithAPIKey(apiKey))

	// Fail fast if MeiliSearch is down.
	if !client.IsHealthy() {
		return nil, fmt.Errorf("meilisearch at %s is not healthy", endpoint)
	}

	// An existing index makes the task fail; only the enqueue error matters.
	if _, err := client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        indexName,
		PrimaryKey: "id",
	}); err != nil {
		return nil, fmt.Errorf("create index %q: %w", indexName, err)
	}

	return &MeiliStore{
		client:    client,
		index:     client.Index(indexName),
		indexName: indexName,
	}, nil
}

// Load fetches the option document. A missing document or index means
// nothing has been saved yet.
func (s *MeiliStore) Load(ctx context.Context) (Map, error) {
	var doc Document
	err := s.index.GetDocumentWithContext(ctx, OptionName, nil, &doc)
	if err != nil {
		if isNotFound(err) {
			return Map{}, nil
		}
		return nil, fmt.Errorf("get document %s: %w", OptionName, err)
	}
	return doc.Value.Clone(), nil
}

// Save replaces the option document and waits for MeiliSearch to apply it,
// so the next Load observes the write.
func (s *MeiliStore) Save(ctx context.Context, m Map) error {
	doc := NewDocument(m)
	pk := "id"
	taskInfo, err := s.index.AddDocumentsWithContext(ctx, []Document{doc}, &meilisearch.DocumentOptions{
		PrimaryKey: &pk,
	})
	if err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}
	return waitForTask(s.client, taskInfo, "save "+OptionName)
}

// Delete drops the whole index. MeiliSearch recreates it on the next Save.
func (s *MeiliStore) Delete(ctx context.Context) error {
	taskInfo, err := s.client.DeleteIndex(s.indexName)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete index %q: %w", s.indexName, err)
	}
	return waitForTask(s.client, taskInfo, "delete "+s.indexName)
}

// waitForTask waits for an enqueued task to complete.
func waitForTask(client meilisearch.ServiceManager, taskInfo *meilisearch.TaskInfo, name string) error {
	task, err := client.WaitForTask(taskInfo.TaskUID, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", name, err)
	}
	if task.Status == meilisearch.TaskStatusFailed {
		return fmt.Errorf("%s task failed: %s", name, task.Error.Message)
	}
	return nil
}

func isNotFound(err error) bool {
	var merr *meilisearch.Error
	return errors.As(err, &merr) && merr.StatusCode == http.StatusNotFound
}

// Close is a no-op; the SDK's HTTP client holds nothing to release.
func (s *MeiliStore) Close() error {
	return nil
}
