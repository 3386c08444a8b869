package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexchat/internal/adapters/driving/tui"
	"github.com/custodia-labs/lexchat/internal/core/domain"
	"github.com/custodia-labs/lexchat/internal/core/ports/driven"
)

// localUserID identifies conversations started from the terminal,
// outside the account system.
const localUserID = "local"

var chatResume string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session in the terminal",
	Long: `Opens a terminal conversation backed by the knowledge index. Each
message runs the full retrieval-augmented pipeline; the session is
persisted and can be resumed with --resume.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatResume, "resume", "", "resume an existing chat by ID")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := initApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	if err := ensureLocalUser(cmd.Context(), a.store.UserStore()); err != nil {
		return fmt.Errorf("preparing local identity: %w", err)
	}

	chatID := chatResume
	if chatID == "" {
		chat, err := a.chats.CreateChat(cmd.Context(), localUserID)
		if err != nil {
			return fmt.Errorf("creating chat: %w", err)
		}
		chatID = chat.ID
	} else if _, err := a.chats.GetChat(cmd.Context(), localUserID, chatID); err != nil {
		return fmt.Errorf("resuming chat %s: %w", chatID, err)
	}

	program := tea.NewProgram(tui.New(a.chats, localUserID, chatID), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running chat session: %w", err)
	}
	return nil
}

// ensureLocalUser creates the terminal identity's account row if it is
// missing, so chats can reference it. The empty password hash can never
// match a password, so the row grants no API access.
func ensureLocalUser(ctx context.Context, users driven.UserStore) error {
	_, err := users.GetUser(ctx, localUserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	err = users.SaveUser(ctx, domain.User{
		ID:        localUserID,
		Email:     "local@lexchat.invalid",
		CreatedAt: time.Now().UTC(),
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil
	}
	return err
}
