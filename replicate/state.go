package replicate

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/moby/sys/atomicwriter"

	"github.com/datazip-inc/icemirror/types"
	"github.com/datazip-inc/icemirror/utils"
)

// LoadState reads the checkpoint document; a missing file starts fresh.
func LoadState(path string) (*types.State, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return types.NewState(), nil
	}
	state := types.NewState()
	if err := utils.UnmarshalFile(path, state); err != nil {
		return nil, fmt.Errorf("failed to load state: %s", err)
	}
	return state, nil
}

// SaveState persists checkpoints with an atomic rename so a crash mid-write
// leaves the previous document intact.
func SaveState(path string, state *types.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %s", err)
	}
	if err := atomicwriter.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file %s: %s", path, err)
	}
	return nil
}
