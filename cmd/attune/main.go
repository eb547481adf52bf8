package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/halcyon-labs/attune/internal/archive"
	"github.com/halcyon-labs/attune/internal/extern"
	"github.com/halcyon-labs/attune/internal/pipeline"
)

// #region main
func main() {
	dbPath := envOr("ATTUNE_DB", "attune.db")
	conversationID := envOr("ATTUNE_CONVERSATION", "local")

	config := pipeline.DefaultConfig()
	if path := os.Getenv("ATTUNE_CONFIG"); path != "" {
		loaded, err := loadConfig(path)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		config = loaded
	}
	if v := os.Getenv("ATTUNE_CATALOG"); v != "" {
		config.CatalogPath = v
	}
	if v := os.Getenv("ATTUNE_LEXICON"); v != "" {
		config.LexiconPath = v
	}
	if os.Getenv("ATTUNE_SANCTUARY") == "1" {
		config.SanctuaryMode = true
	}
	if seed := os.Getenv("ATTUNE_SEED"); seed != "" {
		v, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			log.Fatalf("bad ATTUNE_SEED %q: %v", seed, err)
		}
		config.Seed = v
	}

	store, err := archive.NewStore(dbPath)
	if err != nil {
		log.Fatalf("failed to open archive: %v", err)
	}
	defer store.Close()

	if err := store.EnsureConversation(conversationID); err != nil {
		log.Fatalf("failed to register conversation: %v", err)
	}

	p, err := pipeline.New(config, nil, nil, nil, extern.KeywordCrisis{})
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}

	// Resume from the archived continuity version, if one exists.
	rec, err := store.LoadActive(conversationID)
	switch {
	case err == sql.ErrNoRows:
		log.Println("No archived continuity found, starting fresh.")
	case err != nil:
		log.Fatalf("failed to load continuity: %v", err)
	default:
		p.RestoreSession(conversationID, rec.State)
		log.Printf("Resumed continuity version %s (turn %d).", rec.VersionID, rec.State.TurnCount)
	}

	fmt.Println("Attune composer ready.")
	fmt.Printf("  DB: %s | Conversation: %s\n", dbPath, conversationID)
	fmt.Println("Type a message (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			break
		}

		result := p.ParseInput(conversationID, text)
		fmt.Printf("\n%s\n\n", result.Response)

		if result.ResponseSource == "dynamic_composer" {
			versionID := commitTurn(store, p, conversationID, result)
			fmt.Printf("[turn-%d] stance=%s pace=%s blocks=%s trust=%.2f version=%s\n",
				result.Learning.TurnCount, result.Debug.Stance, result.Debug.Pace,
				joinTypes(result.Debug.BlocksUsed), result.Learning.TrustLevel, shortID(versionID))
		} else {
			fmt.Printf("[routed] source=%s\n", result.ResponseSource)
		}
	}
}

// #endregion main

// #region commit

// commitTurn archives the post-turn continuity state and its provenance.
// Archive failures are logged, not fatal; the in-memory session stays valid.
func commitTurn(store *archive.Store, p *pipeline.Pipeline, conversationID string, result pipeline.ParseResult) string {
	rec, err := store.CommitVersion(conversationID, p.Session(conversationID).State())
	if err != nil {
		log.Printf("commit error: %v", err)
		return ""
	}

	err = store.LogTurn(archive.TurnEntry{
		ConversationID: conversationID,
		VersionID:      rec.VersionID,
		TurnIndex:      result.Learning.TurnCount - 1,
		Route:          result.ResponseSource,
		Stance:         string(result.Debug.Stance),
		Pace:           string(result.Debug.Pace),
		BlocksUsed:     joinTypes(result.Debug.BlocksUsed),
		Suppressed:     joinTypes(result.Debug.Suppressed),
		Safety:         result.Learning.Safety,
		Attunement:     result.Learning.Attunement,
		Decision:       "composed",
		Reason:         result.Feedback,
	})
	if err != nil {
		log.Printf("logging error: %v", err)
	}
	return rec.VersionID
}

// #endregion commit

// #region config

// loadConfig reads a YAML runtime config, on top of the defaults.
func loadConfig(path string) (pipeline.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	config := pipeline.DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return pipeline.Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}

// #endregion config

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func joinTypes[T ~string](types []T) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion helpers
