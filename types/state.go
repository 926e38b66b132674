package types

import (
	"sync"

	"github.com/goccy/go-json"
)

// TableCheckpoint is the durable progress record of one table: the cursor the
// next run resumes from and the snapshot that made it durable. It is only
// advanced after a commit is visible in the catalog, never before.
type TableCheckpoint struct {
	Namespace  string `json:"namespace"`
	Table      string `json:"table"`
	Cursor     any    `json:"cursor,omitempty"`
	SnapshotID int64  `json:"snapshot_id"`
}

// State is the sole piece of mutable cross-run state, owned by the
// orchestrator and persisted externally.
type State struct {
	*sync.RWMutex `json:"-"`
	Tables        []*TableCheckpoint `json:"tables"`
}

func NewState() *State {
	return &State{RWMutex: &sync.RWMutex{}}
}

func (s *State) Get(namespace, table string) *TableCheckpoint {
	s.RLock()
	defer s.RUnlock()
	for _, cp := range s.Tables {
		if cp.Namespace == namespace && cp.Table == table {
			return cp
		}
	}
	return nil
}

// Set records a new checkpoint, replacing any prior entry for the table.
func (s *State) Set(cp *TableCheckpoint) {
	s.Lock()
	defer s.Unlock()
	for idx, prev := range s.Tables {
		if prev.Namespace == cp.Namespace && prev.Table == cp.Table {
			s.Tables[idx] = cp
			return
		}
	}
	s.Tables = append(s.Tables, cp)
}

func (s *State) MarshalJSON() ([]byte, error) {
	s.RLock()
	defer s.RUnlock()
	type Alias State
	return json.Marshal((*Alias)(s))
}

func (s *State) UnmarshalJSON(data []byte) error {
	type Alias State
	aux := (*Alias)(s)
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if s.RWMutex == nil {
		s.RWMutex = &sync.RWMutex{}
	}
	return nil
}
