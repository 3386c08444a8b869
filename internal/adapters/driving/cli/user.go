package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	configfile "github.com/custodia-labs/lexchat/internal/adapters/driven/config/file"
	storesqlite "github.com/custodia-labs/lexchat/internal/adapters/driven/storage/sqlite"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create a user account",
	Long:  `Creates an account for the API server. The password is read from the terminal without echo.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runUserCreate,
}

func init() {
	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	email := strings.TrimSpace(args[0])

	password, err := promptPassword(cmd)
	if err != nil {
		return err
	}

	// Account management only needs the metadata store, not the
	// embedding or LLM providers.
	cfg, err := configfile.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	store, err := storesqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer store.Close()

	a := &app{cfg: cfg, store: store}
	if err := a.initUsers(); err != nil {
		return err
	}

	user, err := a.users.Register(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	cmd.Printf("Created user %s (%s)\n", user.Email, user.ID)
	return nil
}

func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("standard input is not a terminal; cannot prompt for password")
	}

	cmd.Print("Password: ")
	password, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	cmd.Print("Confirm password: ")
	confirm, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("reading password confirmation: %w", err)
	}

	if string(password) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(password), nil
}
