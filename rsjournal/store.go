package rsjournal

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/leafbridge/rootstock/rsdeploy"
)

// documentVersion is the version of journal documents written by this
// store. Documents with other versions are treated as corrupt rather than
// guessed at.
const documentVersion = 1

// historyLimit is the number of entries retained per target. Older entries
// are dropped when new ones are recorded.
const historyLimit = 50

// Document is the on-disk form of a target's journal.
type Document struct {
	Version int               `json:"version"`
	Target  rsdeploy.TargetID `json:"target"`
	Entries []Entry           `json:"entries"`
}

// Store reads and writes journal documents in a journal directory. One
// document exists per deployment target.
//
// The store provides durability only. Decisions about idempotency and
// redeployment belong to the deployment pipeline; callers are expected to
// hold the target's lock across paired reads and writes.
type Store struct {
	dir string
}

// OpenStore opens the journal directory at the given path. If the directory
// does not already exist, it is created.
func OpenStore(path string) (Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Store{}, fmt.Errorf("failed to create the journal directory: %w", err)
	}
	return Store{dir: path}, nil
}

// Path returns the file system path of the target's journal document.
func (s Store) Path(target rsdeploy.TargetID) string {
	sum := blake3.Sum256([]byte(target.Key()))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:8])+".json")
}

// TryGetEntry returns the most recent journal entry for the target. It
// returns false without an error when the target has never been deployed.
//
// A journal document that exists but cannot be decoded results in an error
// of type CorruptError.
func (s Store) TryGetEntry(target rsdeploy.TargetID) (Entry, bool, error) {
	doc, exists, err := s.read(target)
	if err != nil || !exists {
		return Entry{}, false, err
	}
	if len(doc.Entries) == 0 {
		return Entry{}, false, nil
	}
	return doc.Entries[len(doc.Entries)-1], true, nil
}

// History returns all retained journal entries for the target, oldest
// first. A target that has never been deployed yields a nil history.
func (s Store) History(target rsdeploy.TargetID) ([]Entry, error) {
	doc, exists, err := s.read(target)
	if err != nil || !exists {
		return nil, err
	}
	return doc.Entries, nil
}

// AddEntry appends an entry to the target's journal and writes the document
// durably. The document is replaced atomically, so a reader always observes
// either the previous document or the new one.
func (s Store) AddEntry(entry Entry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("refusing to record an invalid journal entry: %w", err)
	}

	doc, exists, err := s.read(entry.Target)
	if err != nil {
		return err
	}
	if !exists {
		doc = Document{Version: documentVersion, Target: entry.Target}
	}

	doc.Entries = append(doc.Entries, entry)
	if len(doc.Entries) > historyLimit {
		doc.Entries = doc.Entries[len(doc.Entries)-historyLimit:]
	}

	return s.write(entry.Target, doc)
}

// read loads the target's journal document. It reports whether a document
// exists; a missing document is not an error.
func (s Store) read(target rsdeploy.TargetID) (Document, bool, error) {
	path := s.Path(target)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, false, nil
		}
		return Document{}, false, fmt.Errorf("failed to read the deployment journal at \"%s\": %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, false, CorruptError{Path: path, Err: err}
	}
	if doc.Version != documentVersion {
		return Document{}, false, CorruptError{Path: path, Err: fmt.Errorf("unsupported journal version %d", doc.Version)}
	}
	return doc, true, nil
}

// write replaces the target's journal document atomically: the document is
// written to a sibling file, synced, then renamed over the durable path.
func (s Store) write(target rsdeploy.TargetID, doc Document) error {
	path := s.Path(target)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode the deployment journal: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create the journal file \"%s\": %w", tmp, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write the journal file \"%s\": %w", tmp, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync the journal file \"%s\": %w", tmp, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close the journal file \"%s\": %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace the deployment journal at \"%s\": %w", path, err)
	}

	// Sync the directory so the rename itself is durable.
	dir, err := os.Open(s.dir)
	if err != nil {
		return fmt.Errorf("failed to open the journal directory: %w", err)
	}
	defer dir.Close()
	if err := dir.Sync(); err != nil {
		return fmt.Errorf("failed to sync the journal directory: %w", err)
	}
	return nil
}
