package replay

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a recorded conversation.
type Fixture struct {
	Description    string        `json:"description"`
	ConversationID string        `json:"conversation_id"`
	Seed           int64         `json:"seed"`
	SanctuaryMode  bool          `json:"sanctuary_mode"`
	Turns          []FixtureTurn `json:"turns"`
}

// FixtureTurn is one recorded user utterance with the expectations to check
// against the replayed run. Empty expectation fields are not checked.
type FixtureTurn struct {
	TurnID string `json:"turn_id"`
	Text   string `json:"text"`

	ExpectSource string   `json:"expect_source,omitempty"`
	ExpectStance string   `json:"expect_stance,omitempty"`
	ExpectPace   string   `json:"expect_pace,omitempty"`
	ExpectBlocks []string `json:"expect_blocks,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.ConversationID == "" {
		f.ConversationID = "replay"
	}
	return &f, nil
}

// #endregion fixture-loader
