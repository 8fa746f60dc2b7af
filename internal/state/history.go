package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Change is a single recorded change within a transaction.
type Change struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	Action     string `json:"action"` // applied, reverted, skipped, failed
	BackupPath string `json:"backup_path,omitempty"`
}

// Transaction is one complete apply or revert run.
type Transaction struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Profile   string   `json:"profile"`
	Mode      string   `json:"mode"`   // apply, revert
	Status    string   `json:"status"` // success, failed
	Changes   []Change `json:"changes"`
}

// HistoryManager persists the transaction journal as a single JSON file.
type HistoryManager struct {
	HistoryFile string
}

func NewHistoryManager(baseDir string) *HistoryManager {
	if baseDir == "" {
		home, _ := os.UserHomeDir()
		baseDir = filepath.Join(home, ".rampart")
	}
	return &HistoryManager{
		HistoryFile: filepath.Join(baseDir, "history.json"),
	}
}

func (hm *HistoryManager) Load() ([]Transaction, error) {
	if _, err := os.Stat(hm.HistoryFile); os.IsNotExist(err) {
		return []Transaction{}, nil
	}
	data, err := os.ReadFile(hm.HistoryFile)
	if err != nil {
		return nil, err
	}
	var history []Transaction
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (hm *HistoryManager) Append(tx Transaction) error {
	history, err := hm.Load()
	if err != nil {
		history = []Transaction{}
	}
	history = append(history, tx)

	if err := os.MkdirAll(filepath.Dir(hm.HistoryFile), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(hm.HistoryFile, data, 0600)
}

// Recorder accumulates changes for the run in progress and implements the
// engine's StateUpdater interface.
type Recorder struct {
	hm *HistoryManager
	tx Transaction
}

func NewRecorder(hm *HistoryManager, profile, mode string) *Recorder {
	return &Recorder{
		hm: hm,
		tx: Transaction{
			ID:        fmt.Sprintf("run-%s", time.Now().Format("20060102-150405")),
			Timestamp: time.Now().Format(time.RFC3339),
			Profile:   profile,
			Mode:      mode,
		},
	}
}

func (r *Recorder) RecordChange(opType, name, action, backupPath string) error {
	r.tx.Changes = append(r.tx.Changes, Change{
		Type:       opType,
		Name:       name,
		Action:     action,
		BackupPath: backupPath,
	})
	return nil
}

// Commit writes the transaction with its final status. Runs that changed
// nothing are not journaled.
func (r *Recorder) Commit(status string) error {
	if len(r.tx.Changes) == 0 && status == "success" {
		return nil
	}
	r.tx.Status = status
	return r.hm.Append(r.tx)
}
